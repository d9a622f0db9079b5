package model

import "time"

// SourceEvent is a single occurrence read from the upstream calendar.
// For recurring series the ID is shared by every occurrence; the start
// time is what distinguishes one instance from another.
type SourceEvent struct {
	ID string // base event id, shared across occurrences of a recurring series

	Title       string
	Description string
	Location    string
	Attendees   []string // attendee emails; only propagated when copying is enabled

	AllDay bool

	Start time.Time
	End   time.Time
}

// DestinationEvent is an event stored in the downstream calendar. Events
// created by this system carry a correlation tag inside Description;
// events without a tag belong to the user and are never touched.
type DestinationEvent struct {
	ID string // destination store's own event id

	Title       string
	Description string
	Location    string

	AllDay bool

	Start time.Time
	End   time.Time
}

// Projection is the shape written to the destination store when creating
// or updating a mirrored event. Description always ends with the encoded
// correlation tag, even when detail copying is disabled.
type Projection struct {
	Title       string
	Description string
	Location    string

	AllDay bool

	Start time.Time
	End   time.Time
}
