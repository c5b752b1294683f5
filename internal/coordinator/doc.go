// Package coordinator owns the collection catalog. Mutations funnel through
// a buffered queue drained by a single apply goroutine, which gives every
// operation a total order without locking in the callers; reads go straight
// to the catalog. Submit honors the per-request wait timeout: the operation
// may still apply after the wait expires, the caller just stops waiting.
package coordinator
