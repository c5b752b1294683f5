package catalog

import (
	"fmt"
	"sort"
	"sync"

	"kvmeta/internal/meta"
)

// InMemoryStore is an in-memory implementation of Store. It is thread-safe;
// records are held by value so callers never see shared state.
type InMemoryStore struct {
	mu          sync.RWMutex
	collections map[string]Collection
	aliases     map[string]string // alias -> collection
}

// NewInMemoryStore creates an empty in-memory catalog.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		collections: make(map[string]Collection),
		aliases:     make(map[string]string),
	}
}

// CreateCollection persists a new record.
func (s *InMemoryStore) CreateCollection(c Collection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[c.Name]; ok {
		return fmt.Errorf("%w: %q", ErrCollectionExists, c.Name)
	}
	if _, ok := s.aliases[c.Name]; ok {
		return fmt.Errorf("name %q is bound to an alias: %w", c.Name, ErrAliasExists)
	}
	s.collections[c.Name] = c
	return nil
}

// UpdateCollection mutates the named record in place.
func (s *InMemoryStore) UpdateCollection(name string, mutate func(*Collection) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.collections[name]
	if !ok {
		return fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	if err := mutate(&c); err != nil {
		return err
	}
	s.collections[name] = c
	return nil
}

// DeleteCollection removes the record and its aliases.
func (s *InMemoryStore) DeleteCollection(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.collections[name]; !ok {
		return fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	delete(s.collections, name)
	for alias, target := range s.aliases {
		if target == name {
			delete(s.aliases, alias)
		}
	}
	return nil
}

// GetCollection returns a copy of the named record.
func (s *InMemoryStore) GetCollection(name string) (Collection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.collections[name]
	if !ok {
		return Collection{}, fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
	}
	return c, nil
}

// ListCollections returns all collection names in lexical order.
func (s *InMemoryStore) ListCollections() ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ChangeAliases applies the batch atomically: the actions run against a
// scratch copy of the alias map that replaces the live one only when every
// action succeeds.
func (s *InMemoryStore) ChangeAliases(actions []meta.AliasAction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := make(map[string]string, len(s.aliases))
	for alias, target := range s.aliases {
		next[alias] = target
	}
	exists := func(name string) bool {
		_, ok := s.collections[name]
		return ok
	}
	if err := applyAliasActions(next, exists, actions); err != nil {
		return err
	}
	s.aliases = next
	return nil
}

// ListAliases returns every binding ordered by alias name.
func (s *InMemoryStore) ListAliases() ([]meta.AliasBinding, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	bindings := make([]meta.AliasBinding, 0, len(s.aliases))
	for alias, target := range s.aliases {
		bindings = append(bindings, meta.AliasBinding{Alias: alias, Collection: target})
	}
	sort.Slice(bindings, func(i, j int) bool { return bindings[i].Alias < bindings[j].Alias })
	return bindings, nil
}

// CollectionAliases returns the aliases of one collection in lexical order.
func (s *InMemoryStore) CollectionAliases(name string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	aliases := make([]string, 0)
	for alias, target := range s.aliases {
		if target == name {
			aliases = append(aliases, alias)
		}
	}
	sort.Strings(aliases)
	return aliases, nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error { return nil }
