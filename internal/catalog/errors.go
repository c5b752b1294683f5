package catalog

import "errors"

// Canonical catalog failures. Callers classify with errors.Is; both store
// implementations wrap these with the offending name.
var (
	ErrCollectionNotFound = errors.New("collection not found")
	ErrCollectionExists   = errors.New("collection already exists")
	ErrAliasNotFound      = errors.New("alias not found")
	ErrAliasExists        = errors.New("alias already exists")
)
