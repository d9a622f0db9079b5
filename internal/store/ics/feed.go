// Package ics implements the read-only source store for ICS feed
// subscriptions (http/https/webcal URLs in place of a calendar id).
package ics

import (
	"context"
	"strings"
	"time"

	"calmirror/internal/model"
	"calmirror/internal/store"
)

// IsFeedURL reports whether a source calendar id selects this backend.
func IsFeedURL(id string) bool {
	lower := strings.ToLower(id)
	return strings.HasPrefix(lower, "http://") ||
		strings.HasPrefix(lower, "https://") ||
		strings.HasPrefix(lower, "webcal://")
}

// Feed is a store.Source backed by a single ICS subscription URL.
type Feed struct {
	url     string
	fetcher *fetcher
}

// NewFeed creates a feed source. webcal:// URLs are fetched over https.
// cacheDir holds the conditional-GET cache; empty means a relative
// development default.
func NewFeed(url, cacheDir string) *Feed {
	if strings.HasPrefix(strings.ToLower(url), "webcal://") {
		url = "https://" + url[len("webcal://"):]
	}
	return &Feed{
		url:     url,
		fetcher: newFetcher(cacheDir),
	}
}

// ListEvents fetches the feed, parses it, and expands recurrences into the
// occurrences that intersect [start, end]. A feed that cannot be fetched or
// parsed at all is an access failure, fatal for the run; individual broken
// VEVENTs are skipped during parsing.
func (f *Feed) ListEvents(ctx context.Context, start, end time.Time) ([]model.SourceEvent, error) {
	body, err := f.fetcher.fetch(ctx, f.url)
	if err != nil {
		return nil, &store.AccessError{Calendar: redactURL(f.url), Op: "fetch feed", Err: err}
	}

	parsed, err := parseFeed(f.url, body)
	if err != nil {
		return nil, &store.AccessError{Calendar: redactURL(f.url), Op: "parse feed", Err: err}
	}

	return expandWindow(parsed, start, end), nil
}
