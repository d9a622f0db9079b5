package engine

import (
	"calmirror/internal/model"
)

// instanceTimeLayout renders start times as UTC ISO-8601 with millisecond
// precision, e.g. 2024-01-01T09:00:00.000Z.
const instanceTimeLayout = "2006-01-02T15:04:05.000Z"

// InstanceID derives the stable per-occurrence identifier for a source
// event: base id, a literal underscore, and the UTC start time. Occurrences
// of a recurring series share the base id, so the start time is what makes
// each instance unique; it does not change across runs unless the
// occurrence itself is rescheduled.
func InstanceID(ev model.SourceEvent) string {
	return ev.ID + "_" + ev.Start.UTC().Format(instanceTimeLayout)
}
