// Package store defines the calendar-store collaborators the reconciler
// talks to, plus the error taxonomy backends report through. Backends live
// in subpackages (gcal, ics).
package store

import (
	"context"
	"time"

	"calmirror/internal/model"
)

// Source is a read-only calendar: it lists event occurrences inside a
// time window and is never written to.
type Source interface {
	ListEvents(ctx context.Context, start, end time.Time) ([]model.SourceEvent, error)
}

// Destination is the writable calendar this system mirrors into. attendees
// is the optional additive side effect applied on create/update when
// attendee copying is enabled; nil means leave attendees alone.
type Destination interface {
	ListEvents(ctx context.Context, start, end time.Time) ([]model.DestinationEvent, error)
	Create(ctx context.Context, p model.Projection, attendees []string) (model.DestinationEvent, error)
	Update(ctx context.Context, ev model.DestinationEvent, p model.Projection, attendees []string) error
	Delete(ctx context.Context, ev model.DestinationEvent) error
}
