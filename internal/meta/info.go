package meta

import "time"

// CollectionStatus describes the readiness of a collection.
type CollectionStatus string

// StatusReady means every shard of the collection is serving. Creation is
// synchronous at this layer, so it is the only status a live record has.
const StatusReady CollectionStatus = "ready"

// CollectionInfo is the read-side view of a single collection.
type CollectionInfo struct {
	Status    CollectionStatus `json:"status"`
	Config    CollectionConfig `json:"config"`
	Version   uint64           `json:"version"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// AliasBinding is one alias name bound to one collection.
type AliasBinding struct {
	Alias      string `json:"alias"`
	Collection string `json:"collection"`
}
