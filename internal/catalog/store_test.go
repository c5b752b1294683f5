package catalog

import (
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kvmeta/internal/meta"
)

// withStores runs the test body against both implementations.
func withStores(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) {
		s := NewInMemoryStore()
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
	t.Run("bolt", func(t *testing.T) {
		s, err := OpenBoltStore(filepath.Join(t.TempDir(), "catalog.db"))
		require.NoError(t, err)
		t.Cleanup(func() { s.Close() })
		fn(t, s)
	})
}

func testCollection(name string) Collection {
	now := time.Now().UTC()
	return Collection{
		Name:      name,
		Config:    meta.DefaultCollectionConfig(),
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func TestStore_CreateGetList(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		require.NoError(t, s.CreateCollection(testCollection("users")))
		require.NoError(t, s.CreateCollection(testCollection("events")))

		got, err := s.GetCollection("users")
		require.NoError(t, err)
		assert.Equal(t, "users", got.Name)
		assert.Equal(t, uint64(1), got.Version)
		assert.Equal(t, meta.DefaultCollectionConfig(), got.Config)

		names, err := s.ListCollections()
		require.NoError(t, err)
		assert.Equal(t, []string{"events", "users"}, names)
	})
}

func TestStore_CreateDuplicate(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		require.NoError(t, s.CreateCollection(testCollection("users")))

		err := s.CreateCollection(testCollection("users"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCollectionExists), "got %v", err)
	})
}

func TestStore_CreateCollidesWithAlias(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		require.NoError(t, s.CreateCollection(testCollection("users_v1")))
		require.NoError(t, s.ChangeAliases([]meta.AliasAction{
			meta.CreateAliasAction{Alias: "users", Collection: "users_v1"},
		}))

		err := s.CreateCollection(testCollection("users"))
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrAliasExists), "got %v", err)
	})
}

func TestStore_Update(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		require.NoError(t, s.CreateCollection(testCollection("users")))

		err := s.UpdateCollection("users", func(c *Collection) error {
			c.Config.ReplicationFactor = 5
			c.Version++
			return nil
		})
		require.NoError(t, err)

		got, err := s.GetCollection("users")
		require.NoError(t, err)
		assert.Equal(t, uint32(5), got.Config.ReplicationFactor)
		assert.Equal(t, uint64(2), got.Version)
	})
}

func TestStore_UpdateMutateErrorAborts(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		require.NoError(t, s.CreateCollection(testCollection("users")))

		boom := errors.New("boom")
		err := s.UpdateCollection("users", func(c *Collection) error {
			c.Version = 99
			return boom
		})
		require.ErrorIs(t, err, boom)

		got, err := s.GetCollection("users")
		require.NoError(t, err)
		assert.Equal(t, uint64(1), got.Version, "aborted update must not persist")
	})
}

func TestStore_UpdateUnknown(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		err := s.UpdateCollection("ghost", func(*Collection) error { return nil })
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCollectionNotFound), "got %v", err)
	})
}

func TestStore_DeleteRemovesAliases(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		require.NoError(t, s.CreateCollection(testCollection("users")))
		require.NoError(t, s.CreateCollection(testCollection("events")))
		require.NoError(t, s.ChangeAliases([]meta.AliasAction{
			meta.CreateAliasAction{Alias: "u1", Collection: "users"},
			meta.CreateAliasAction{Alias: "u2", Collection: "users"},
			meta.CreateAliasAction{Alias: "e1", Collection: "events"},
		}))

		require.NoError(t, s.DeleteCollection("users"))

		_, err := s.GetCollection("users")
		assert.True(t, errors.Is(err, ErrCollectionNotFound), "got %v", err)

		bindings, err := s.ListAliases()
		require.NoError(t, err)
		assert.Equal(t, []meta.AliasBinding{{Alias: "e1", Collection: "events"}}, bindings)
	})
}

func TestStore_DeleteUnknown(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		err := s.DeleteCollection("ghost")
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCollectionNotFound), "got %v", err)
	})
}

func TestStore_ChangeAliases(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		require.NoError(t, s.CreateCollection(testCollection("users_v1")))
		require.NoError(t, s.CreateCollection(testCollection("users_v2")))

		require.NoError(t, s.ChangeAliases([]meta.AliasAction{
			meta.CreateAliasAction{Alias: "users", Collection: "users_v1"},
		}))

		// Move the alias to v2 and add a second one in a single batch.
		require.NoError(t, s.ChangeAliases([]meta.AliasAction{
			meta.DeleteAliasAction{Alias: "users"},
			meta.CreateAliasAction{Alias: "users", Collection: "users_v2"},
			meta.CreateAliasAction{Alias: "users_old", Collection: "users_v1"},
		}))

		bindings, err := s.ListAliases()
		require.NoError(t, err)
		assert.Equal(t, []meta.AliasBinding{
			{Alias: "users", Collection: "users_v2"},
			{Alias: "users_old", Collection: "users_v1"},
		}, bindings)

		require.NoError(t, s.ChangeAliases([]meta.AliasAction{
			meta.RenameAliasAction{OldAlias: "users_old", NewAlias: "users_legacy"},
		}))

		aliases, err := s.CollectionAliases("users_v1")
		require.NoError(t, err)
		assert.Equal(t, []string{"users_legacy"}, aliases)
	})
}

func TestStore_ChangeAliasesAtomic(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		require.NoError(t, s.CreateCollection(testCollection("users")))

		err := s.ChangeAliases([]meta.AliasAction{
			meta.CreateAliasAction{Alias: "a", Collection: "users"},
			meta.CreateAliasAction{Alias: "b", Collection: "ghost"},
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, ErrCollectionNotFound), "got %v", err)

		bindings, err := s.ListAliases()
		require.NoError(t, err)
		assert.Empty(t, bindings, "failed batch must leave no partial state")
	})
}

func TestStore_ChangeAliasesRules(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		require.NoError(t, s.CreateCollection(testCollection("users")))
		require.NoError(t, s.CreateCollection(testCollection("events")))
		require.NoError(t, s.ChangeAliases([]meta.AliasAction{
			meta.CreateAliasAction{Alias: "u", Collection: "users"},
		}))

		tests := []struct {
			name    string
			actions []meta.AliasAction
			wantErr error
		}{
			{
				name:    "create duplicate alias",
				actions: []meta.AliasAction{meta.CreateAliasAction{Alias: "u", Collection: "events"}},
				wantErr: ErrAliasExists,
			},
			{
				name:    "create alias shadowing a collection",
				actions: []meta.AliasAction{meta.CreateAliasAction{Alias: "events", Collection: "users"}},
				wantErr: ErrCollectionExists,
			},
			{
				name:    "create alias for unknown collection",
				actions: []meta.AliasAction{meta.CreateAliasAction{Alias: "x", Collection: "ghost"}},
				wantErr: ErrCollectionNotFound,
			},
			{
				name:    "rename unknown alias",
				actions: []meta.AliasAction{meta.RenameAliasAction{OldAlias: "ghost", NewAlias: "x"}},
				wantErr: ErrAliasNotFound,
			},
			{
				name:    "rename onto existing alias",
				actions: []meta.AliasAction{meta.RenameAliasAction{OldAlias: "u", NewAlias: "u"}},
				wantErr: ErrAliasExists,
			},
			{
				name:    "rename onto collection name",
				actions: []meta.AliasAction{meta.RenameAliasAction{OldAlias: "u", NewAlias: "events"}},
				wantErr: ErrCollectionExists,
			},
			{
				name:    "delete unknown alias",
				actions: []meta.AliasAction{meta.DeleteAliasAction{Alias: "ghost"}},
				wantErr: ErrAliasNotFound,
			},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := s.ChangeAliases(tt.actions)
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "got %v, want %v", err, tt.wantErr)
			})
		}
	})
}

func TestStore_CollectionAliasesUnknownCollection(t *testing.T) {
	withStores(t, func(t *testing.T, s Store) {
		aliases, err := s.CollectionAliases("ghost")
		require.NoError(t, err)
		assert.Empty(t, aliases)
	})
}

func TestBoltStore_SurvivesReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	s, err := OpenBoltStore(path)
	require.NoError(t, err)
	require.NoError(t, s.CreateCollection(testCollection("users")))
	require.NoError(t, s.ChangeAliases([]meta.AliasAction{
		meta.CreateAliasAction{Alias: "u", Collection: "users"},
	}))
	require.NoError(t, s.Close())

	s, err = OpenBoltStore(path)
	require.NoError(t, err)
	defer s.Close()

	got, err := s.GetCollection("users")
	require.NoError(t, err)
	assert.Equal(t, "users", got.Name)
	assert.Equal(t, meta.DefaultCollectionConfig(), got.Config)

	bindings, err := s.ListAliases()
	require.NoError(t, err)
	assert.Equal(t, []meta.AliasBinding{{Alias: "u", Collection: "users"}}, bindings)
}
