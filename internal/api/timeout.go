package api

import "time"

// WaitTimeout returns how long the caller is willing to wait for the
// operation to complete, or nil when the request sets no explicit limit.
// The value is whole seconds on the wire; bounds are the coordinator's
// concern, not checked here.
func (r CreateCollection) WaitTimeout() *time.Duration { return waitSeconds(r.Timeout) }

// WaitTimeout returns the optional wait limit of the update request.
func (r UpdateCollection) WaitTimeout() *time.Duration { return waitSeconds(r.Timeout) }

// WaitTimeout returns the optional wait limit of the delete request.
func (r DeleteCollection) WaitTimeout() *time.Duration { return waitSeconds(r.Timeout) }

// WaitTimeout returns the optional wait limit of the alias batch.
func (r ChangeAliases) WaitTimeout() *time.Duration { return waitSeconds(r.Timeout) }

func waitSeconds(secs *uint64) *time.Duration {
	if secs == nil {
		return nil
	}
	d := time.Duration(*secs) * time.Second
	return &d
}
