package ics

import (
	"errors"
	"time"

	"github.com/teambition/rrule-go"

	appLog "calmirror/internal/log"
	"calmirror/internal/model"
)

// maxOccurrencesPerEvent caps expansion of a single series so a pathological
// RRULE cannot blow up a run. Windows are at most a few months, so the cap
// is generous.
const maxOccurrencesPerEvent = 5000

// expandWindow turns parsed VEVENTs into concrete source occurrences that
// intersect [start, end]. Each occurrence keeps the series UID as its base
// id; the reconciler derives per-occurrence identity from the start time.
// Handles plain events, RRULE recurrence, EXDATE removals, and
// RECURRENCE-ID overrides.
func expandWindow(events []parsedEvent, start, end time.Time) []model.SourceEvent {
	// Group base events and their overrides by UID.
	baseByUID := make(map[string][]parsedEvent)
	overridesByUID := make(map[string][]parsedEvent)
	uidOrder := make([]string, 0, len(events))

	for _, ev := range events {
		if ev.IsOverride && ev.Recurrence != nil {
			overridesByUID[ev.UID] = append(overridesByUID[ev.UID], ev)
			continue
		}
		if _, seen := baseByUID[ev.UID]; !seen {
			uidOrder = append(uidOrder, ev.UID)
		}
		baseByUID[ev.UID] = append(baseByUID[ev.UID], ev)
	}

	out := make([]model.SourceEvent, 0)
	// Feed order, not map order.
	for _, uid := range uidOrder {
		for _, ev := range baseByUID[uid] {
			out = append(out, expandEvent(ev, overridesByUID[uid], start, end)...)
		}
	}
	return out
}

func expandEvent(ev parsedEvent, overrides []parsedEvent, start, end time.Time) []model.SourceEvent {
	if ev.RawRRule == "" {
		return expandSingle(ev, overrides, start, end)
	}
	return expandRecurring(ev, overrides, start, end)
}

func expandSingle(ev parsedEvent, overrides []parsedEvent, start, end time.Time) []model.SourceEvent {
	if !rangesOverlap(ev.Start, ev.End, start, end) {
		return nil
	}

	occStart, occEnd := ev.Start, ev.End
	if o, ok := findOverride(overrides, occStart); ok {
		occStart, occEnd = o.Start, o.End
		ev = o
	}
	return []model.SourceEvent{makeSourceEvent(ev, occStart, occEnd)}
}

func expandRecurring(ev parsedEvent, overrides []parsedEvent, start, end time.Time) []model.SourceEvent {
	r, err := rrule.StrToRRule(ev.RawRRule)
	if err != nil {
		appLog.Error("skipping series with unparseable RRULE", err, "uid", ev.UID, "rrule", ev.RawRRule)
		return nil
	}
	r.DTStart(ev.Start)

	var set rrule.Set
	set.RRule(r)
	for _, ex := range ev.ExDates {
		set.ExDate(ex.In(ev.Start.Location()))
	}

	// Between wants the range in the event's own location.
	rangeStart := start.In(ev.Start.Location())
	rangeEnd := end.In(ev.Start.Location())
	occTimes := set.Between(rangeStart, rangeEnd, true)

	if len(occTimes) > maxOccurrencesPerEvent {
		appLog.Error("truncating series expansion at cap", errors.New("max occurrences reached"), "uid", ev.UID, "cap", maxOccurrencesPerEvent)
		occTimes = occTimes[:maxOccurrencesPerEvent]
	}

	out := make([]model.SourceEvent, 0, len(occTimes))
	for _, occStart := range occTimes {
		var occEnd time.Time
		if ev.AllDay {
			// One calendar day, anchored at UTC midnight.
			date := utcMidnight(occStart)
			occStart = date
			occEnd = date.Add(24 * time.Hour)
		} else {
			occEnd = occStart.Add(ev.End.Sub(ev.Start))
		}

		occEv := ev
		if o, ok := findOverride(overrides, occStart); ok {
			occStart, occEnd = o.Start, o.End
			occEv = o
		}
		out = append(out, makeSourceEvent(occEv, occStart, occEnd))
	}
	return out
}

// findOverride returns the override whose RECURRENCE-ID matches occStart
// exactly, if any.
func findOverride(overrides []parsedEvent, occStart time.Time) (parsedEvent, bool) {
	for _, ov := range overrides {
		if ov.Recurrence == nil {
			continue
		}
		if ov.Recurrence.In(occStart.Location()).Equal(occStart) {
			return ov, true
		}
	}
	return parsedEvent{}, false
}

func makeSourceEvent(ev parsedEvent, start, end time.Time) model.SourceEvent {
	return model.SourceEvent{
		ID:          ev.UID,
		Title:       ev.Summary,
		Description: ev.Description,
		Location:    ev.Location,
		Attendees:   ev.Attendees,
		AllDay:      ev.AllDay,
		Start:       start,
		End:         end,
	}
}

func rangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	if aEnd.Before(bStart) {
		return false
	}
	if bEnd.Before(aStart) {
		return false
	}
	return true
}
