// Package meta defines the internal model for collection metadata: the
// closed set of operations the coordinator applies, collection storage
// settings with defaults and validation, and the read-side info types.
package meta
