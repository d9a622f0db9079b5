// Package gcal backs both calendar stores with the Google Calendar API.
package gcal

import (
	"context"
	"errors"
	"time"

	calendar "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	appLog "calmirror/internal/log"
	"calmirror/internal/model"
	"calmirror/internal/store"
)

const (
	dateLayout = "2006-01-02"

	// maxResultsPerPage is the API maximum; listWindow still pages past it.
	maxResultsPerPage = 2500
)

// newService builds a Calendar API client. With an empty credentialsFile
// the client falls back to Application Default Credentials.
func newService(ctx context.Context, credentialsFile string) (*calendar.Service, error) {
	opts := []option.ClientOption{option.WithScopes(calendar.CalendarScope)}
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	return calendar.NewService(ctx, opts...)
}

// Source reads event occurrences from a Google calendar.
type Source struct {
	svc        *calendar.Service
	calendarID string
}

// NewSource creates a read-only view of the given Google calendar.
func NewSource(ctx context.Context, calendarID, credentialsFile string) (*Source, error) {
	svc, err := newService(ctx, credentialsFile)
	if err != nil {
		return nil, err
	}
	return &Source{svc: svc, calendarID: calendarID}, nil
}

// ListEvents returns all occurrences in [start, end]. Recurring series are
// expanded server-side (SingleEvents), so each item is one occurrence; the
// shared base id comes from RecurringEventId. Occurrences with unusable
// timestamps are logged and skipped.
func (s *Source) ListEvents(ctx context.Context, start, end time.Time) ([]model.SourceEvent, error) {
	items, err := listWindow(ctx, s.svc, s.calendarID, start, end)
	if err != nil {
		return nil, &store.AccessError{Calendar: s.calendarID, Op: "list source events", Err: err}
	}

	out := make([]model.SourceEvent, 0, len(items))
	for _, it := range items {
		evStart, evEnd, allDay, terr := eventTimes(it)
		if terr != nil {
			appLog.Error("skipping source event with unusable times", terr, "event_id", it.Id, "title", it.Summary)
			continue
		}
		out = append(out, model.SourceEvent{
			ID:          baseEventID(it),
			Title:       it.Summary,
			Description: it.Description,
			Location:    it.Location,
			Attendees:   attendeeEmails(it),
			AllDay:      allDay,
			Start:       evStart,
			End:         evEnd,
		})
	}
	return out, nil
}

// Destination reads and writes mirrored events in a Google calendar.
type Destination struct {
	svc        *calendar.Service
	calendarID string
}

// NewDestination creates a writable view of the given Google calendar.
func NewDestination(ctx context.Context, calendarID, credentialsFile string) (*Destination, error) {
	svc, err := newService(ctx, credentialsFile)
	if err != nil {
		return nil, err
	}
	return &Destination{svc: svc, calendarID: calendarID}, nil
}

func (d *Destination) ListEvents(ctx context.Context, start, end time.Time) ([]model.DestinationEvent, error) {
	items, err := listWindow(ctx, d.svc, d.calendarID, start, end)
	if err != nil {
		return nil, &store.AccessError{Calendar: d.calendarID, Op: "list destination events", Err: err}
	}

	out := make([]model.DestinationEvent, 0, len(items))
	for _, it := range items {
		evStart, evEnd, allDay, terr := eventTimes(it)
		if terr != nil {
			appLog.Error("skipping destination event with unusable times", terr, "event_id", it.Id, "title", it.Summary)
			continue
		}
		out = append(out, model.DestinationEvent{
			ID:          it.Id,
			Title:       it.Summary,
			Description: it.Description,
			Location:    it.Location,
			AllDay:      allDay,
			Start:       evStart,
			End:         evEnd,
		})
	}
	return out, nil
}

func (d *Destination) Create(ctx context.Context, p model.Projection, attendees []string) (model.DestinationEvent, error) {
	ev := eventFromProjection(p, attendees)
	created, err := d.svc.Events.Insert(d.calendarID, ev).Context(ctx).Do()
	if err != nil {
		return model.DestinationEvent{}, &store.WriteError{Op: "create", Title: p.Title, Start: p.Start, Err: err}
	}
	return model.DestinationEvent{
		ID:          created.Id,
		Title:       p.Title,
		Description: p.Description,
		Location:    p.Location,
		AllDay:      p.AllDay,
		Start:       p.Start,
		End:         p.End,
	}, nil
}

func (d *Destination) Update(ctx context.Context, existing model.DestinationEvent, p model.Projection, attendees []string) error {
	ev := eventFromProjection(p, attendees)
	if _, err := d.svc.Events.Update(d.calendarID, existing.ID, ev).Context(ctx).Do(); err != nil {
		return &store.WriteError{Op: "update", Title: p.Title, Start: p.Start, Err: err}
	}
	return nil
}

func (d *Destination) Delete(ctx context.Context, existing model.DestinationEvent) error {
	if err := d.svc.Events.Delete(d.calendarID, existing.ID).Context(ctx).Do(); err != nil {
		return &store.WriteError{Op: "delete", Title: existing.Title, Start: existing.Start, Err: err}
	}
	return nil
}

func listWindow(ctx context.Context, svc *calendar.Service, calendarID string, start, end time.Time) ([]*calendar.Event, error) {
	var items []*calendar.Event

	call := svc.Events.List(calendarID).
		TimeMin(start.Format(time.RFC3339)).
		TimeMax(end.Format(time.RFC3339)).
		SingleEvents(true).
		ShowDeleted(false).
		MaxResults(maxResultsPerPage)

	err := call.Pages(ctx, func(page *calendar.Events) error {
		for _, it := range page.Items {
			if it.Status == "cancelled" {
				continue
			}
			items = append(items, it)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// baseEventID returns the id shared by all occurrences of a series: the
// recurring parent's id when this item is an expanded instance, otherwise
// the event's own id.
func baseEventID(ev *calendar.Event) string {
	if ev.RecurringEventId != "" {
		return ev.RecurringEventId
	}
	return ev.Id
}

// eventTimes extracts start/end as instants and the all-day flag. All-day
// events carry a bare date (end exclusive, per the API); timed events carry
// RFC3339 datetimes.
func eventTimes(ev *calendar.Event) (start, end time.Time, allDay bool, err error) {
	if ev.Start == nil || ev.End == nil {
		return start, end, false, errors.New("event has no start or end")
	}

	if ev.Start.Date != "" {
		start, err = time.Parse(dateLayout, ev.Start.Date)
		if err != nil {
			return start, end, false, err
		}
		end, err = time.Parse(dateLayout, ev.End.Date)
		if err != nil {
			return start, end, false, err
		}
		return start, end, true, nil
	}

	start, err = time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		return start, end, false, err
	}
	end, err = time.Parse(time.RFC3339, ev.End.DateTime)
	if err != nil {
		return start, end, false, err
	}
	return start, end, false, nil
}

func attendeeEmails(ev *calendar.Event) []string {
	if len(ev.Attendees) == 0 {
		return nil
	}
	out := make([]string, 0, len(ev.Attendees))
	for _, a := range ev.Attendees {
		if a == nil || a.Email == "" || a.Resource {
			continue
		}
		out = append(out, a.Email)
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func eventFromProjection(p model.Projection, attendees []string) *calendar.Event {
	ev := &calendar.Event{
		Summary:     p.Title,
		Description: p.Description,
		Location:    p.Location,
	}
	if p.AllDay {
		ev.Start = &calendar.EventDateTime{Date: p.Start.Format(dateLayout)}
		ev.End = &calendar.EventDateTime{Date: p.End.Format(dateLayout)}
	} else {
		ev.Start = &calendar.EventDateTime{DateTime: p.Start.Format(time.RFC3339)}
		ev.End = &calendar.EventDateTime{DateTime: p.End.Format(time.RFC3339)}
	}
	for _, email := range attendees {
		ev.Attendees = append(ev.Attendees, &calendar.EventAttendee{Email: email})
	}
	return ev
}
