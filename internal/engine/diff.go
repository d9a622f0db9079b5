package engine

import (
	"time"

	"calmirror/internal/model"
	"calmirror/internal/tag"
)

// NeedsUpdate reports whether the destination event has drifted from the
// candidate projection and must be rewritten. Comparison short-circuits on
// the first mismatch: title, start, end, location, then description with
// correlation tags stripped from both sides so a reformatted tag alone
// never triggers a write.
//
// Instants are truncated to whole seconds before comparison. Neither
// backing store serializes sub-second precision, so anything below a
// second is jitter, not a reschedule. The all-day flag is not compared
// separately; a day-boundary change already moves start or end.
func NeedsUpdate(existing model.DestinationEvent, candidate model.Projection) bool {
	if existing.Title != candidate.Title {
		return true
	}
	if !sameInstant(existing.Start, candidate.Start) {
		return true
	}
	if !sameInstant(existing.End, candidate.End) {
		return true
	}
	if existing.Location != candidate.Location {
		return true
	}
	if tag.Strip(existing.Description) != tag.Strip(candidate.Description) {
		return true
	}
	return false
}

func sameInstant(a, b time.Time) bool {
	return a.Truncate(time.Second).Equal(b.Truncate(time.Second))
}
