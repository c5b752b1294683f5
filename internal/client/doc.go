// Package client implements the coordinator capability against a remote
// kvmeta node over its HTTP API. A node configured with an upstream proxies
// every operation through this client instead of applying it locally;
// classified errors survive the hop because the remote node's HTTP status
// maps back onto the same code table.
package client
