package catalog

import (
	"encoding/json"
	"fmt"
	"time"

	bolt "go.etcd.io/bbolt"

	"kvmeta/internal/meta"
)

var (
	collectionsBucket = []byte("collections")
	aliasesBucket     = []byte("aliases")
)

// BoltStore persists the catalog in a bbolt file: one bucket of JSON
// encoded collection records keyed by name, one bucket mapping alias names
// to collection names. Every semantic operation is one transaction.
type BoltStore struct {
	db *bolt.DB
}

// OpenBoltStore opens or creates the catalog database at path.
func OpenBoltStore(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open catalog database: %w", err)
	}
	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(collectionsBucket); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(aliasesBucket)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create catalog buckets: %w", err)
	}
	return &BoltStore{db: db}, nil
}

// CreateCollection persists a new record.
func (s *BoltStore) CreateCollection(c Collection) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		key := []byte(c.Name)
		if tx.Bucket(collectionsBucket).Get(key) != nil {
			return fmt.Errorf("%w: %q", ErrCollectionExists, c.Name)
		}
		if tx.Bucket(aliasesBucket).Get(key) != nil {
			return fmt.Errorf("name %q is bound to an alias: %w", c.Name, ErrAliasExists)
		}
		raw, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode collection %q: %w", c.Name, err)
		}
		return tx.Bucket(collectionsBucket).Put(key, raw)
	})
}

// UpdateCollection mutates the named record inside one transaction; a
// mutate error rolls the transaction back.
func (s *BoltStore) UpdateCollection(name string, mutate func(*Collection) error) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(collectionsBucket)
		raw := b.Get([]byte(name))
		if raw == nil {
			return fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
		}
		var c Collection
		if err := json.Unmarshal(raw, &c); err != nil {
			return fmt.Errorf("decode collection %q: %w", name, err)
		}
		if err := mutate(&c); err != nil {
			return err
		}
		out, err := json.Marshal(c)
		if err != nil {
			return fmt.Errorf("encode collection %q: %w", name, err)
		}
		return b.Put([]byte(name), out)
	})
}

// DeleteCollection removes the record and every alias bound to it.
func (s *BoltStore) DeleteCollection(name string) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		key := []byte(name)
		b := tx.Bucket(collectionsBucket)
		if b.Get(key) == nil {
			return fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
		}
		if err := b.Delete(key); err != nil {
			return err
		}
		cur := tx.Bucket(aliasesBucket).Cursor()
		for k, v := cur.First(); k != nil; k, v = cur.Next() {
			if string(v) == name {
				if err := cur.Delete(); err != nil {
					return err
				}
			}
		}
		return nil
	})
}

// GetCollection returns the named record.
func (s *BoltStore) GetCollection(name string) (Collection, error) {
	var c Collection
	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket(collectionsBucket).Get([]byte(name))
		if raw == nil {
			return fmt.Errorf("%w: %q", ErrCollectionNotFound, name)
		}
		return json.Unmarshal(raw, &c)
	})
	return c, err
}

// ListCollections returns all collection names. Bucket iteration is
// key-ordered, so no extra sort is needed.
func (s *BoltStore) ListCollections() ([]string, error) {
	names := make([]string, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(collectionsBucket).ForEach(func(k, _ []byte) error {
			names = append(names, string(k))
			return nil
		})
	})
	return names, err
}

// ChangeAliases loads the alias map, applies the batch, and rewrites the
// bucket, all in one transaction. A failed action rolls everything back.
func (s *BoltStore) ChangeAliases(actions []meta.AliasAction) error {
	return s.db.Update(func(tx *bolt.Tx) error {
		ab := tx.Bucket(aliasesBucket)
		aliases := make(map[string]string)
		if err := ab.ForEach(func(k, v []byte) error {
			aliases[string(k)] = string(v)
			return nil
		}); err != nil {
			return err
		}
		cb := tx.Bucket(collectionsBucket)
		exists := func(name string) bool { return cb.Get([]byte(name)) != nil }
		if err := applyAliasActions(aliases, exists, actions); err != nil {
			return err
		}
		cur := ab.Cursor()
		for k, _ := cur.First(); k != nil; k, _ = cur.Next() {
			if _, ok := aliases[string(k)]; !ok {
				if err := cur.Delete(); err != nil {
					return err
				}
			}
		}
		for alias, target := range aliases {
			if err := ab.Put([]byte(alias), []byte(target)); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListAliases returns every binding, ordered by alias name.
func (s *BoltStore) ListAliases() ([]meta.AliasBinding, error) {
	bindings := make([]meta.AliasBinding, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(aliasesBucket).ForEach(func(k, v []byte) error {
			bindings = append(bindings, meta.AliasBinding{Alias: string(k), Collection: string(v)})
			return nil
		})
	})
	return bindings, err
}

// CollectionAliases returns the aliases bound to one collection.
func (s *BoltStore) CollectionAliases(name string) ([]string, error) {
	aliases := make([]string, 0)
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(aliasesBucket).ForEach(func(k, v []byte) error {
			if string(v) == name {
				aliases = append(aliases, string(k))
			}
			return nil
		})
	})
	return aliases, err
}

// Close releases the underlying database file.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
