package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// NOTE: This file provides the configuration model and full YAML-based
// load/save behavior, including first-run config creation and 0600
// permissions. Every file key can also be supplied as an environment
// variable using the upper-snake names below; environment wins.

// ErrSourceCalendarRequired is returned when SOURCE_CALENDAR_ID is neither
// configured nor present in the environment. Fatal for a run.
var ErrSourceCalendarRequired = errors.New("SOURCE_CALENDAR_ID is required and has no default")

// Config is the top-level application configuration.
type Config struct {
	// SourceCalendarID identifies the read-only source calendar. A Google
	// calendar id, or an http(s)/webcal URL to sync from an ICS feed.
	// Required; there is no default.
	SourceCalendarID string `yaml:"source_calendar_id" json:"source_calendar_id"`

	// DestinationCalendarID identifies the writable destination calendar.
	DestinationCalendarID string `yaml:"destination_calendar_id" json:"destination_calendar_id"`

	// SyncDaysPast / SyncDaysFuture bound the rolling sync window
	// [now-past, now+future], recomputed at the start of every run.
	SyncDaysPast   int `yaml:"sync_days_past" json:"sync_days_past"`
	SyncDaysFuture int `yaml:"sync_days_future" json:"sync_days_future"`

	// SyncDetails copies description and location into mirrored events.
	// Pointer so an absent key keeps the default (true).
	SyncDetails *bool `yaml:"sync_details" json:"sync_details"`

	// CopyAttendees propagates attendee emails onto mirrored events.
	// Default false: the destination provider may mail invitations.
	CopyAttendees *bool `yaml:"copy_attendees" json:"copy_attendees"`

	// DeleteRemovedEvents removes mirrored events whose source instance
	// disappeared from the window. Default true.
	DeleteRemovedEvents *bool `yaml:"delete_removed_events" json:"delete_removed_events"`

	// RefreshCron is a cron-style schedule string (e.g. "*/15 * * * *")
	// driving periodic runs of the daemon.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// CredentialsFile points at a Google service-account key. Empty means
	// Application Default Credentials.
	CredentialsFile string `yaml:"credentials_file" json:"credentials_file"`

	// ICSCacheDir is where the ICS feed backend keeps its conditional-GET
	// cache. Only used when the source is a feed URL.
	ICSCacheDir string `yaml:"ics_cache_dir" json:"ics_cache_dir"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		SourceCalendarID:      "",
		DestinationCalendarID: "primary",
		SyncDaysPast:          7,
		SyncDaysFuture:        60,
		SyncDetails:           boolPtr(true),
		CopyAttendees:         boolPtr(false),
		DeleteRemovedEvents:   boolPtr(true),
		RefreshCron:           "*/15 * * * *",
		CredentialsFile:       "",
		ICSCacheDir:           "/var/lib/calmirror/ics-cache",
	}
}

// Normalize fills in missing/zero values with sensible defaults so that
// partially-filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.DestinationCalendarID == "" {
		c.DestinationCalendarID = "primary"
	}
	if c.SyncDaysPast <= 0 {
		c.SyncDaysPast = 7
	}
	if c.SyncDaysFuture <= 0 {
		c.SyncDaysFuture = 60
	}
	if c.SyncDetails == nil {
		c.SyncDetails = boolPtr(true)
	}
	if c.CopyAttendees == nil {
		c.CopyAttendees = boolPtr(false)
	}
	if c.DeleteRemovedEvents == nil {
		c.DeleteRemovedEvents = boolPtr(true)
	}
	if c.RefreshCron == "" {
		c.RefreshCron = "*/15 * * * *"
	}
	if c.ICSCacheDir == "" {
		c.ICSCacheDir = "/var/lib/calmirror/ics-cache"
	}
}

// Validate checks required configuration. Called at the start of every run
// and by the self-test.
func (c *Config) Validate() error {
	if c.SourceCalendarID == "" {
		return ErrSourceCalendarRequired
	}
	return nil
}

// SyncDetailsEnabled reports the effective detail-copy toggle.
func (c *Config) SyncDetailsEnabled() bool {
	return c.SyncDetails == nil || *c.SyncDetails
}

// CopyAttendeesEnabled reports the effective attendee-copy toggle.
func (c *Config) CopyAttendeesEnabled() bool {
	return c.CopyAttendees != nil && *c.CopyAttendees
}

// DeleteRemovedEnabled reports the effective delete toggle.
func (c *Config) DeleteRemovedEnabled() bool {
	return c.DeleteRemovedEvents == nil || *c.DeleteRemovedEvents
}

// SourceIsFeed reports whether the source calendar id selects the ICS feed
// backend rather than a Google calendar.
func (c *Config) SourceIsFeed() bool {
	id := strings.ToLower(c.SourceCalendarID)
	return strings.HasPrefix(id, "http://") ||
		strings.HasPrefix(id, "https://") ||
		strings.HasPrefix(id, "webcal://")
}

// Window computes the sync window around now.
func (c *Config) Window(now time.Time) (start, end time.Time) {
	return now.AddDate(0, 0, -c.SyncDaysPast), now.AddDate(0, 0, c.SyncDaysFuture)
}

// applyEnv overrides fields from the flat environment keys. Unparseable
// numeric/boolean values are ignored, keeping the file/default value.
func (c *Config) applyEnv() {
	if v := os.Getenv("SOURCE_CALENDAR_ID"); v != "" {
		c.SourceCalendarID = v
	}
	if v := os.Getenv("DESTINATION_CALENDAR_ID"); v != "" {
		c.DestinationCalendarID = v
	}
	if v := os.Getenv("SYNC_DAYS_PAST"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SyncDaysPast = n
		}
	}
	if v := os.Getenv("SYNC_DAYS_FUTURE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.SyncDaysFuture = n
		}
	}
	if v := os.Getenv("SYNC_DETAILS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.SyncDetails = boolPtr(b)
		}
	}
	if v := os.Getenv("COPY_ATTENDEES"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.CopyAttendees = boolPtr(b)
		}
	}
	if v := os.Getenv("DELETE_REMOVED_EVENTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.DeleteRemovedEvents = boolPtr(b)
		}
	}
}

// Load loads configuration from the given YAML path.
//
// Behavior:
//   - If the file does not exist:
//   - create parent directory if needed
//   - write a default config with 0600 perms
//   - return the default config (with environment overrides applied)
//   - If the file exists:
//   - read YAML and unmarshal into Config
//   - apply environment overrides, then normalize defaults
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			// First run: create default config file.
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Even if save fails, return cfg with error so caller can decide.
				return cfg, err
			}
			cfg.applyEnv()
			cfg.Normalize()
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the given configuration to the specified path.
//
// Implementation details:
//   - Ensures parent directory exists (0700).
//   - Marshals cfg to YAML.
//   - Writes atomically via a temp file + rename.
//   - Ensures final file permissions are 0600.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	// Atomic write: write to temp file in same directory then rename.
	tmp, err := os.CreateTemp(dir, ".calmirror-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	// Ensure we clean up temp file on error.
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}

	// Flush and close before chmod/rename.
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	// Set permissions to 0600 on temp file before rename.
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	// Rename over the target path.
	if err := os.Rename(tmpName, path); err != nil {
		return err
	}

	return nil
}

// Save is a convenience method on Config that delegates to the package-level
// Save function.
func (c *Config) Save(path string) error {
	return Save(path, c)
}

func boolPtr(b bool) *bool { return &b }
