package tag

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeRoundTrip(t *testing.T) {
	suffix := Encode("abc_2024-01-01T09:00:00.000Z")

	assert.Equal(t, "\n\n<!-- [SYNCED_FROM_SOURCE] SOURCE_ID:abc_2024-01-01T09:00:00.000Z -->", suffix)

	id, ok := ExtractInstanceID(suffix)
	require.True(t, ok)
	assert.Equal(t, "abc_2024-01-01T09:00:00.000Z", id)
}

func TestEncodeAppendsToExistingText(t *testing.T) {
	desc := "Weekly planning notes." + Encode("evt_2024-03-04T10:00:00.000Z")

	assert.True(t, Has(desc))

	id, ok := ExtractInstanceID(desc)
	require.True(t, ok)
	assert.Equal(t, "evt_2024-03-04T10:00:00.000Z", id)
}

func TestEncodeRoundTripIDWithSpaces(t *testing.T) {
	// ICS UIDs are arbitrary feed-controlled strings; one with interior
	// whitespace must survive a round trip intact, or every run would see
	// a different id and churn the event.
	const id = "board meeting 2024_2024-05-01T09:00:00.000Z"

	got, ok := ExtractInstanceID(Encode(id))
	require.True(t, ok)
	assert.Equal(t, id, got)
}

func TestHasEmptyInput(t *testing.T) {
	assert.False(t, Has(""))
}

func TestMalformedTagsAreAbsent(t *testing.T) {
	cases := []struct {
		name string
		text string
	}{
		{"missing id", "<!-- [SYNCED_FROM_SOURCE] SOURCE_ID: -->"},
		{"wrong label", "<!-- [SYNCED_ELSEWHERE] SOURCE_ID:abc -->"},
		{"unterminated", "<!-- [SYNCED_FROM_SOURCE] SOURCE_ID:abc"},
		{"label only", "[SYNCED_FROM_SOURCE] SOURCE_ID:abc"},
		{"plain text", "meeting moved to room 4"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.False(t, Has(tc.text))

			_, ok := ExtractInstanceID(tc.text)
			assert.False(t, ok)
		})
	}
}

func TestMarkerBracketsDoNotActAsCharacterClass(t *testing.T) {
	// If the bracketed label were not escaped, "[SYNCED_FROM_SOURCE]" would
	// match any single character from the set and this would still pass.
	text := "<!-- S SOURCE_ID:abc -->"
	assert.False(t, Has(text))
}

func TestStripRemovesOnlyTheTag(t *testing.T) {
	desc := "Agenda:\n- item one\n- item two" + Encode("abc_2024-01-01T09:00:00.000Z")

	assert.Equal(t, "Agenda:\n- item one\n- item two", Strip(desc))
}

func TestStripWithoutTag(t *testing.T) {
	assert.Equal(t, "just a note", Strip("  just a note\n"))
	assert.Equal(t, "", Strip(""))
}

func TestStripTagOnlyDescription(t *testing.T) {
	assert.Equal(t, "", Strip(Encode("abc_2024-01-01T09:00:00.000Z")))
}
