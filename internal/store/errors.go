package store

import (
	"fmt"
	"time"
)

// AccessError means a configured calendar cannot be listed at all (bad id,
// missing permission, unreachable endpoint). It is fatal for the current
// run: no action set may be computed from a half-available input.
type AccessError struct {
	Calendar string
	Op       string
	Err      error
}

func (e *AccessError) Error() string {
	return fmt.Sprintf("calendar %q: %s: %v", e.Calendar, e.Op, e.Err)
}

func (e *AccessError) Unwrap() error { return e.Err }

// WriteError is a failed create/update/delete of a single destination
// event. It carries enough context for manual remediation and is contained
// to that one action; the rest of the batch continues. The next scheduled
// run is the retry mechanism.
type WriteError struct {
	Op    string
	Title string
	Start time.Time
	Err   error
}

func (e *WriteError) Error() string {
	return fmt.Sprintf("%s %q (%s): %v", e.Op, e.Title, e.Start.Format(time.RFC3339), e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }
