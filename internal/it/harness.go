package it

import (
	"net/http/httptest"
	"path/filepath"
	"testing"

	"kvmeta/internal/catalog"
	"kvmeta/internal/client"
	"kvmeta/internal/config"
	"kvmeta/internal/coordinator"
	"kvmeta/internal/service"
	"kvmeta/internal/transport"
)

// Node is one in-process kvmeta node: catalog, coordinator, service and
// HTTP server wired together the way cmd/kvmeta does it, plus a client
// pointed at its own address.
type Node struct {
	ID     string
	HTTP   *httptest.Server
	Client *client.Client

	coord *coordinator.Coordinator
}

// StartNode brings up a node over the given store. Cleanup is registered
// on t; the store is closed with the node.
func StartNode(t *testing.T, id string, store catalog.Store) *Node {
	t.Helper()

	coord := coordinator.New(coordinator.Config{
		NodeID:      id,
		DefaultWait: config.Default().DefaultWait(),
	}, store)

	srv := httptest.NewServer(transport.NewServer(id, service.New(coord)).Handler())
	t.Cleanup(func() {
		srv.Close()
		coord.Close()
		store.Close()
	})

	return &Node{
		ID:     id,
		HTTP:   srv,
		Client: client.New(srv.URL),
		coord:  coord,
	}
}

// StartMemNode brings up a node over a fresh in-memory catalog.
func StartMemNode(t *testing.T, id string) *Node {
	t.Helper()
	return StartNode(t, id, catalog.NewInMemoryStore())
}

// StartBoltNode brings up a node over a bbolt catalog in a temp directory.
func StartBoltNode(t *testing.T, id string) *Node {
	t.Helper()
	store, err := catalog.OpenBoltStore(filepath.Join(t.TempDir(), "catalog.db"))
	if err != nil {
		t.Fatalf("open bolt catalog: %v", err)
	}
	return StartNode(t, id, store)
}

// StartProxy brings up a proxy-mode node: its service dispatches through a
// remote client to the upstream node instead of a local coordinator.
func StartProxy(t *testing.T, id string, upstream *Node) *Node {
	t.Helper()

	srv := httptest.NewServer(transport.NewServer(id, service.New(client.New(upstream.HTTP.URL))).Handler())
	t.Cleanup(srv.Close)

	return &Node{
		ID:     id,
		HTTP:   srv,
		Client: client.New(srv.URL),
	}
}
