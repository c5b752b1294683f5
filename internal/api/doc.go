// Package api defines the wire-level request and response types of the
// collection metadata service. Every mutating request implements two
// capabilities consumed by the dispatch pipeline: extracting the optional
// wait timeout and converting itself into the internal operation the
// coordinator applies.
package api
