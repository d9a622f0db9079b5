package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeFillsDefaults(t *testing.T) {
	var cfg Config
	cfg.Normalize()

	assert.Equal(t, "primary", cfg.DestinationCalendarID)
	assert.Equal(t, 7, cfg.SyncDaysPast)
	assert.Equal(t, 60, cfg.SyncDaysFuture)
	assert.True(t, cfg.SyncDetailsEnabled())
	assert.False(t, cfg.CopyAttendeesEnabled())
	assert.True(t, cfg.DeleteRemovedEnabled())
	assert.Equal(t, "*/15 * * * *", cfg.RefreshCron)
}

func TestNormalizeKeepsExplicitValues(t *testing.T) {
	no := false
	cfg := Config{
		DestinationCalendarID: "team@example.com",
		SyncDaysPast:          1,
		SyncDaysFuture:        14,
		SyncDetails:           &no,
		DeleteRemovedEvents:   &no,
	}
	cfg.Normalize()

	assert.Equal(t, "team@example.com", cfg.DestinationCalendarID)
	assert.Equal(t, 1, cfg.SyncDaysPast)
	assert.Equal(t, 14, cfg.SyncDaysFuture)
	assert.False(t, cfg.SyncDetailsEnabled())
	assert.False(t, cfg.DeleteRemovedEnabled())
}

func TestValidateRequiresSource(t *testing.T) {
	cfg := DefaultConfig()
	assert.ErrorIs(t, cfg.Validate(), ErrSourceCalendarRequired)

	cfg.SourceCalendarID = "someone@example.com"
	assert.NoError(t, cfg.Validate())
}

func TestWindow(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

	start, end := cfg.Window(now)

	assert.Equal(t, time.Date(2024, 3, 8, 12, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(2024, 5, 14, 12, 0, 0, 0, time.UTC), end)
}

func TestSourceIsFeed(t *testing.T) {
	cases := []struct {
		id   string
		feed bool
	}{
		{"someone@example.com", false},
		{"primary", false},
		{"https://example.com/cal.ics", true},
		{"http://example.com/cal.ics", true},
		{"webcal://example.com/cal.ics", true},
	}
	for _, tc := range cases {
		cfg := Config{SourceCalendarID: tc.id}
		assert.Equal(t, tc.feed, cfg.SourceIsFeed(), tc.id)
	}
}

func TestLoadCreatesDefaultOnFirstRun(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "primary", cfg.DestinationCalendarID)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadFirstRunNormalizesEnvOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	t.Setenv("SOURCE_CALENDAR_ID", "env@example.com")
	t.Setenv("SYNC_DAYS_PAST", "-1")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env@example.com", cfg.SourceCalendarID)
	assert.Equal(t, 7, cfg.SyncDaysPast)
}

func TestLoadParsesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `source_calendar_id: team@example.com
destination_calendar_id: mirror@example.com
sync_days_past: 3
sync_days_future: 30
sync_details: false
delete_removed_events: false
refresh: "0 * * * *"
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "team@example.com", cfg.SourceCalendarID)
	assert.Equal(t, "mirror@example.com", cfg.DestinationCalendarID)
	assert.Equal(t, 3, cfg.SyncDaysPast)
	assert.Equal(t, 30, cfg.SyncDaysFuture)
	assert.False(t, cfg.SyncDetailsEnabled())
	assert.False(t, cfg.DeleteRemovedEnabled())
	assert.Equal(t, "0 * * * *", cfg.RefreshCron)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	body := `source_calendar_id: file@example.com
sync_days_future: 30
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	t.Setenv("SOURCE_CALENDAR_ID", "env@example.com")
	t.Setenv("SYNC_DAYS_FUTURE", "90")
	t.Setenv("COPY_ATTENDEES", "true")
	t.Setenv("SYNC_DETAILS", "not-a-bool") // ignored

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "env@example.com", cfg.SourceCalendarID)
	assert.Equal(t, 90, cfg.SyncDaysFuture)
	assert.True(t, cfg.CopyAttendeesEnabled())
	assert.True(t, cfg.SyncDetailsEnabled())
}

func TestSaveRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	cfg := DefaultConfig()
	cfg.SourceCalendarID = "team@example.com"

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "team@example.com", loaded.SourceCalendarID)
	assert.Equal(t, cfg.SyncDaysFuture, loaded.SyncDaysFuture)
}
