package meta

import (
	"errors"
	"fmt"
	"regexp"
)

// Defaults applied to collection configs when a field is left at zero.
const (
	DefaultShards            = 8
	DefaultReplicationFactor = 3
	DefaultReadQuorum        = 2
	DefaultWriteQuorum       = 2

	// MaxShards bounds the shard count a single collection may request.
	MaxShards = 1024

	// MaxNameLength bounds collection and alias names.
	MaxNameLength = 255
)

// ErrInvalidConfig marks a collection config that fails validation.
var ErrInvalidConfig = errors.New("invalid collection config")

var namePattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

// CollectionConfig holds the storage settings of a collection. Zero values
// mean "use the default"; call Normalized before persisting or validating.
type CollectionConfig struct {
	Shards            uint32 `json:"shards,omitempty"`
	ReplicationFactor uint32 `json:"replication_factor,omitempty"`
	ReadQuorum        uint32 `json:"read_quorum,omitempty"`
	WriteQuorum       uint32 `json:"write_quorum,omitempty"`
}

// DefaultCollectionConfig returns the config used when a create request
// carries none.
func DefaultCollectionConfig() CollectionConfig {
	return CollectionConfig{
		Shards:            DefaultShards,
		ReplicationFactor: DefaultReplicationFactor,
		ReadQuorum:        DefaultReadQuorum,
		WriteQuorum:       DefaultWriteQuorum,
	}
}

// Normalized returns a copy with zero fields replaced by defaults.
func (c CollectionConfig) Normalized() CollectionConfig {
	def := DefaultCollectionConfig()
	if c.Shards == 0 {
		c.Shards = def.Shards
	}
	if c.ReplicationFactor == 0 {
		c.ReplicationFactor = def.ReplicationFactor
	}
	if c.ReadQuorum == 0 {
		c.ReadQuorum = def.ReadQuorum
	}
	if c.WriteQuorum == 0 {
		c.WriteQuorum = def.WriteQuorum
	}
	return c
}

// Validate reports whether the config is internally consistent. It expects
// a normalized config: every field must be set.
func (c CollectionConfig) Validate() error {
	if c.Shards == 0 || c.ReplicationFactor == 0 || c.ReadQuorum == 0 || c.WriteQuorum == 0 {
		return fmt.Errorf("%w: all settings must be at least 1", ErrInvalidConfig)
	}
	if c.Shards > MaxShards {
		return fmt.Errorf("%w: shards=%d exceeds maximum %d", ErrInvalidConfig, c.Shards, MaxShards)
	}
	if c.ReadQuorum > c.ReplicationFactor {
		return fmt.Errorf("%w: read_quorum=%d exceeds replication_factor=%d",
			ErrInvalidConfig, c.ReadQuorum, c.ReplicationFactor)
	}
	if c.WriteQuorum > c.ReplicationFactor {
		return fmt.Errorf("%w: write_quorum=%d exceeds replication_factor=%d",
			ErrInvalidConfig, c.WriteQuorum, c.ReplicationFactor)
	}
	return nil
}

// ConfigDiff is a partial update to a collection config. Nil fields are left
// unchanged. The shard count is fixed at create time: resharding is a
// data-plane migration, not a metadata update.
type ConfigDiff struct {
	ReplicationFactor *uint32 `json:"replication_factor,omitempty"`
	ReadQuorum        *uint32 `json:"read_quorum,omitempty"`
	WriteQuorum       *uint32 `json:"write_quorum,omitempty"`
}

// IsZero reports whether the diff changes nothing.
func (d ConfigDiff) IsZero() bool {
	return d.ReplicationFactor == nil && d.ReadQuorum == nil && d.WriteQuorum == nil
}

// Apply returns a copy of cfg with the diff applied. The result must be
// re-validated: a diff can make a previously valid config inconsistent.
func (d ConfigDiff) Apply(cfg CollectionConfig) CollectionConfig {
	if d.ReplicationFactor != nil {
		cfg.ReplicationFactor = *d.ReplicationFactor
	}
	if d.ReadQuorum != nil {
		cfg.ReadQuorum = *d.ReadQuorum
	}
	if d.WriteQuorum != nil {
		cfg.WriteQuorum = *d.WriteQuorum
	}
	return cfg
}

// ValidateCollectionName checks the collection naming rules: 1 to 255
// characters drawn from letters, digits, underscore and dash.
func ValidateCollectionName(name string) error {
	return validateName("collection name", name)
}

// ValidateAliasName checks alias names against the same rules as
// collection names.
func ValidateAliasName(name string) error {
	return validateName("alias name", name)
}

func validateName(label, name string) error {
	if name == "" {
		return fmt.Errorf("%s cannot be empty", label)
	}
	if len(name) > MaxNameLength {
		return fmt.Errorf("%s exceeds %d characters", label, MaxNameLength)
	}
	if !namePattern.MatchString(name) {
		return fmt.Errorf("%s %q contains characters outside [A-Za-z0-9_-]", label, name)
	}
	return nil
}
