package api

import (
	"kvmeta/internal/meta"
)

// CreateCollection requests a new collection. A nil Config means "use the
// defaults". CollectionName and Timeout travel outside the JSON body (URL
// path and query string); only the config payload is body content.
type CreateCollection struct {
	CollectionName string                 `json:"-"`
	Config         *meta.CollectionConfig `json:"config,omitempty"`
	Timeout        *uint64                `json:"-"`
}

// UpdateCollection requests a settings change on an existing collection.
// A nil or empty Config is a no-op update.
type UpdateCollection struct {
	CollectionName string           `json:"-"`
	Config         *meta.ConfigDiff `json:"config,omitempty"`
	Timeout        *uint64          `json:"-"`
}

// DeleteCollection requests removal of a collection and its aliases.
type DeleteCollection struct {
	CollectionName string  `json:"-"`
	Timeout        *uint64 `json:"-"`
}

// ChangeAliases requests a batch of alias changes applied atomically.
type ChangeAliases struct {
	Actions []AliasAction `json:"actions"`
	Timeout *uint64       `json:"-"`
}

// AliasAction is one alias change. Exactly one member must be set.
type AliasAction struct {
	CreateAlias *CreateAlias `json:"create_alias,omitempty"`
	RenameAlias *RenameAlias `json:"rename_alias,omitempty"`
	DeleteAlias *DeleteAlias `json:"delete_alias,omitempty"`
}

// CreateAlias binds a new alias to a collection.
type CreateAlias struct {
	CollectionName string `json:"collection_name"`
	AliasName      string `json:"alias_name"`
}

// RenameAlias moves an existing alias to a new name, keeping its target.
type RenameAlias struct {
	OldAliasName string `json:"old_alias_name"`
	NewAliasName string `json:"new_alias_name"`
}

// DeleteAlias removes an alias.
type DeleteAlias struct {
	AliasName string `json:"alias_name"`
}

// CollectionOperationResponse reports the outcome of a mutating operation.
// Time is the coordinator call duration in seconds.
type CollectionOperationResponse struct {
	Result bool    `json:"result"`
	Time   float64 `json:"time"`
}

// CollectionDescription names one collection in a listing.
type CollectionDescription struct {
	Name string `json:"name"`
}

// ListCollectionsResponse carries every collection name known to the
// coordinator.
type ListCollectionsResponse struct {
	Collections []CollectionDescription `json:"collections"`
	Time        float64                 `json:"time"`
}

// AliasDescription pairs an alias with the collection it points at.
type AliasDescription struct {
	AliasName      string `json:"alias_name"`
	CollectionName string `json:"collection_name"`
}

// ListAliasesResponse carries alias bindings, either cluster-wide or scoped
// to a single collection.
type ListAliasesResponse struct {
	Aliases []AliasDescription `json:"aliases"`
	Time    float64            `json:"time"`
}

// GetCollectionInfoResponse carries the read-side view of one collection.
type GetCollectionInfoResponse struct {
	Result meta.CollectionInfo `json:"result"`
	Time   float64             `json:"time"`
}
