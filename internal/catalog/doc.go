// Package catalog provides the collection and alias catalog behind the
// coordinator. Two implementations exist: a mutex-guarded in-memory store
// for tests and data-dir-less deployments, and a bbolt-backed store that
// survives restarts. Alias batches apply atomically in both.
package catalog
