package engine

import (
	"calmirror/internal/model"
	"calmirror/internal/tag"
)

// Options controls how source events are projected and reconciled.
type Options struct {
	// SyncDetails copies description and location from the source.
	// When false both are suppressed in the destination.
	SyncDetails bool

	// CopyAttendees makes the caller propagate attendee emails on
	// create/update. Off by default: adding attendees can trigger
	// invitation mail from the destination provider.
	CopyAttendees bool

	// DeleteRemoved removes tagged destination events whose source
	// instance no longer exists in the window.
	DeleteRemoved bool
}

// Project maps a source event into the destination write shape. Title and
// times are copied verbatim. The correlation tag for instanceID is always
// appended to the description, even with details suppressed: the tag is the
// only way future runs recognize the event as ours.
//
// Attendees are deliberately not part of the projection; they are an
// additive side effect applied by the caller, outside content comparison.
func Project(ev model.SourceEvent, instanceID string, opts Options) model.Projection {
	var description, location string
	if opts.SyncDetails {
		description = ev.Description
		location = ev.Location
	}

	return model.Projection{
		Title:       ev.Title,
		Description: description + tag.Encode(instanceID),
		Location:    location,
		AllDay:      ev.AllDay,
		Start:       ev.Start,
		End:         ev.End,
	}
}
