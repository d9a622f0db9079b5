// Package tag encodes and decodes the correlation marker embedded in the
// description of every destination event this system creates. The marker is
// the only durable link between a destination event and the source instance
// it mirrors; destination events without a well-formed marker are not ours.
package tag

import (
	"regexp"
	"strings"
)

// Marker is the fixed label inside every correlation tag. It contains
// bracket characters on purpose, so the matching pattern must be built
// with the label escaped.
const Marker = "[SYNCED_FROM_SOURCE]"

// pattern matches a single well-formed tag fragment, e.g.
//
//	<!-- [SYNCED_FROM_SOURCE] SOURCE_ID:abc_2024-01-01T09:00:00.000Z -->
//
// The instance id is captured in group 1 and runs to the closing
// delimiter. Source UIDs are uncontrolled input and may contain spaces,
// so the id cannot stop at the first whitespace. Anything that does not
// match exactly (missing id, mangled delimiters, wrong label) is treated
// as "no tag" rather than an error: destination descriptions are editable
// by users and must degrade gracefully.
var pattern = regexp.MustCompile(`<!--\s*` + regexp.QuoteMeta(Marker) + `\s+SOURCE_ID:(\S[^\r\n]*?)\s*-->`)

// Encode returns the tag fragment for the given instance id, prefixed with
// a blank-line separator so it can be appended to any preceding description
// text without corrupting it.
func Encode(instanceID string) string {
	return "\n\n<!-- " + Marker + " SOURCE_ID:" + instanceID + " -->"
}

// Has reports whether text contains a well-formed tag. Empty input is
// simply "no tag".
func Has(text string) bool {
	if text == "" {
		return false
	}
	return pattern.MatchString(text)
}

// ExtractInstanceID returns the instance id carried by the tag in text,
// or false when no well-formed tag is present.
func ExtractInstanceID(text string) (string, bool) {
	if text == "" {
		return "", false
	}
	m := pattern.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Strip returns text with the tag fragment removed and surrounding
// whitespace trimmed. Used for content comparison only, never for display:
// a reformatted tag must not look like an edited description.
func Strip(text string) string {
	return strings.TrimSpace(pattern.ReplaceAllString(text, ""))
}
