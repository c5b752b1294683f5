package catalog

import (
	"fmt"
	"time"

	"kvmeta/internal/meta"
)

// Collection is the stored record for one collection.
type Collection struct {
	Name      string                `json:"name"`
	Config    meta.CollectionConfig `json:"config"`
	Version   uint64                `json:"version"`
	CreatedAt time.Time             `json:"created_at"`
	UpdatedAt time.Time             `json:"updated_at"`
}

// Store is the catalog persistence interface. The coordinator serializes
// all mutating calls through a single goroutine; implementations still
// guard against concurrent readers.
type Store interface {
	// CreateCollection persists a new record. Fails if the name is taken
	// by a collection or an alias.
	CreateCollection(c Collection) error
	// UpdateCollection loads the named record, passes it to mutate and
	// persists the result. A mutate error aborts the update unapplied.
	UpdateCollection(name string, mutate func(*Collection) error) error
	// DeleteCollection removes the record and every alias bound to it.
	DeleteCollection(name string) error
	GetCollection(name string) (Collection, error)
	// ListCollections returns all collection names in lexical order.
	ListCollections() ([]string, error)
	// ChangeAliases applies the batch in order, atomically: either every
	// action lands or none do.
	ChangeAliases(actions []meta.AliasAction) error
	// ListAliases returns every alias binding, ordered by alias name.
	ListAliases() ([]meta.AliasBinding, error)
	// CollectionAliases returns the aliases bound to one collection in
	// lexical order. Unknown collections yield an empty list, not an error.
	CollectionAliases(name string) ([]string, error)
	Close() error
}

// applyAliasActions runs the batch against the alias map in order. Both
// stores share it: the in-memory store hands over a scratch copy, the bolt
// store a map loaded inside the update transaction. collectionExists
// answers against the same snapshot.
func applyAliasActions(aliases map[string]string, collectionExists func(string) bool, actions []meta.AliasAction) error {
	for i, action := range actions {
		if err := applyAliasAction(aliases, collectionExists, action); err != nil {
			return fmt.Errorf("action %d: %w", i, err)
		}
	}
	return nil
}

func applyAliasAction(aliases map[string]string, collectionExists func(string) bool, action meta.AliasAction) error {
	switch a := action.(type) {
	case meta.CreateAliasAction:
		if !collectionExists(a.Collection) {
			return fmt.Errorf("%w: %q", ErrCollectionNotFound, a.Collection)
		}
		if _, ok := aliases[a.Alias]; ok {
			return fmt.Errorf("%w: %q", ErrAliasExists, a.Alias)
		}
		if collectionExists(a.Alias) {
			return fmt.Errorf("alias %q would shadow a collection: %w", a.Alias, ErrCollectionExists)
		}
		aliases[a.Alias] = a.Collection
		return nil
	case meta.RenameAliasAction:
		target, ok := aliases[a.OldAlias]
		if !ok {
			return fmt.Errorf("%w: %q", ErrAliasNotFound, a.OldAlias)
		}
		if _, ok := aliases[a.NewAlias]; ok {
			return fmt.Errorf("%w: %q", ErrAliasExists, a.NewAlias)
		}
		if collectionExists(a.NewAlias) {
			return fmt.Errorf("alias %q would shadow a collection: %w", a.NewAlias, ErrCollectionExists)
		}
		delete(aliases, a.OldAlias)
		aliases[a.NewAlias] = target
		return nil
	case meta.DeleteAliasAction:
		if _, ok := aliases[a.Alias]; !ok {
			return fmt.Errorf("%w: %q", ErrAliasNotFound, a.Alias)
		}
		delete(aliases, a.Alias)
		return nil
	default:
		return fmt.Errorf("unknown alias action %T", action)
	}
}
