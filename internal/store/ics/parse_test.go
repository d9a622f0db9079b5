package ics

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func makeFeedBody(lines ...string) []byte {
	all := append([]string{
		"BEGIN:VCALENDAR",
		"VERSION:2.0",
		"PRODID:-//calmirror test//EN",
	}, lines...)
	all = append(all, "END:VCALENDAR", "")
	return []byte(strings.Join(all, "\r\n"))
}

// setHostZone swaps the process-local timezone for one test. Date-only
// ICS values must come out identical regardless of where the host runs.
func setHostZone(t *testing.T, name string) {
	t.Helper()
	loc, err := time.LoadLocation(name)
	require.NoError(t, err)
	restore := time.Local
	time.Local = loc
	t.Cleanup(func() { time.Local = restore })
}

func TestParseFeedSingleEvent(t *testing.T) {
	body := makeFeedBody(
		"BEGIN:VEVENT",
		"UID:single-1",
		"SUMMARY:Dentist",
		"DESCRIPTION:bring insurance card",
		"LOCATION:Clinic",
		"DTSTART:20240110T090000Z",
		"DTEND:20240110T093000Z",
		"ATTENDEE:mailto:a@example.com",
		"END:VEVENT",
	)

	events, err := parseFeed("https://example.com/cal.ics", body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "single-1", ev.UID)
	assert.Equal(t, "Dentist", ev.Summary)
	assert.Equal(t, "bring insurance card", ev.Description)
	assert.Equal(t, "Clinic", ev.Location)
	assert.Equal(t, []string{"a@example.com"}, ev.Attendees)
	assert.Equal(t, time.Date(2024, 1, 10, 9, 0, 0, 0, time.UTC), ev.Start.UTC())
	assert.Equal(t, time.Date(2024, 1, 10, 9, 30, 0, 0, time.UTC), ev.End.UTC())
	assert.False(t, ev.AllDay)
	assert.Empty(t, ev.RawRRule)
}

func TestParseFeedRecurringWithExdate(t *testing.T) {
	body := makeFeedBody(
		"BEGIN:VEVENT",
		"UID:weekly-1",
		"SUMMARY:Standup",
		"DTSTART:20240101T090000Z",
		"DTEND:20240101T091500Z",
		"RRULE:FREQ=WEEKLY;COUNT=4",
		"EXDATE:20240115T090000Z",
		"END:VEVENT",
	)

	events, err := parseFeed("https://example.com/cal.ics", body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.Equal(t, "FREQ=WEEKLY;COUNT=4", ev.RawRRule)
	require.Len(t, ev.ExDates, 1)
	assert.Equal(t, time.Date(2024, 1, 15, 9, 0, 0, 0, time.UTC), ev.ExDates[0].UTC())
}

func TestParseFeedOverride(t *testing.T) {
	body := makeFeedBody(
		"BEGIN:VEVENT",
		"UID:weekly-1",
		"SUMMARY:Standup (moved)",
		"RECURRENCE-ID:20240108T090000Z",
		"DTSTART:20240108T100000Z",
		"DTEND:20240108T101500Z",
		"END:VEVENT",
	)

	events, err := parseFeed("https://example.com/cal.ics", body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.True(t, ev.IsOverride)
	require.NotNil(t, ev.Recurrence)
	assert.Equal(t, time.Date(2024, 1, 8, 9, 0, 0, 0, time.UTC), ev.Recurrence.UTC())
}

func TestParseFeedAllDayPinnedToUTCMidnight(t *testing.T) {
	setHostZone(t, "Asia/Seoul")

	body := makeFeedBody(
		"BEGIN:VEVENT",
		"UID:allday-1",
		"SUMMARY:Holiday",
		"DTSTART;VALUE=DATE:20240110",
		"DTEND;VALUE=DATE:20240111",
		"EXDATE;VALUE=DATE:20240112",
		"END:VEVENT",
	)

	events, err := parseFeed("https://example.com/cal.ics", body)
	require.NoError(t, err)
	require.Len(t, events, 1)

	ev := events[0]
	assert.True(t, ev.AllDay)
	assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), ev.Start)
	assert.Equal(t, time.Date(2024, 1, 11, 0, 0, 0, 0, time.UTC), ev.End)
	require.Len(t, ev.ExDates, 1)
	assert.Equal(t, time.Date(2024, 1, 12, 0, 0, 0, 0, time.UTC), ev.ExDates[0])
}

func TestParseFeedSkipsEventWithoutUID(t *testing.T) {
	body := makeFeedBody(
		"BEGIN:VEVENT",
		"SUMMARY:No identity",
		"DTSTART:20240110T090000Z",
		"DTEND:20240110T093000Z",
		"END:VEVENT",
		"BEGIN:VEVENT",
		"UID:ok-1",
		"SUMMARY:Fine",
		"DTSTART:20240111T090000Z",
		"DTEND:20240111T093000Z",
		"END:VEVENT",
	)

	events, err := parseFeed("https://example.com/cal.ics", body)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "ok-1", events[0].UID)
}

func TestParseFeedEmptyBody(t *testing.T) {
	_, err := parseFeed("https://example.com/cal.ics", nil)
	assert.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://example.com/...(redacted)", redactURL("https://example.com/private/cal.ics?token=abcd"))
	assert.Equal(t, "ics://...(redacted)", redactURL("not a url"))
}
