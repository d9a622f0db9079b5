// Package runner drives a full reconcile-and-apply cycle against the two
// calendar stores, plus the self-test and clear-tagged maintenance
// operations exposed by the CLI.
package runner

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"calmirror/internal/config"
	"calmirror/internal/engine"
	appLog "calmirror/internal/log"
	"calmirror/internal/model"
	"calmirror/internal/store"
	"calmirror/internal/tag"
)

// Runner owns one source/destination pair. A mutex serializes runs so
// overlapping scheduler ticks cannot double-create events: the correlation
// index is read fresh each run, so two concurrent runs that both see
// "absent" for the same instance would both create it.
type Runner struct {
	cfg *config.Config
	src store.Source
	dst store.Destination

	mu sync.Mutex

	// now is swappable for tests.
	now func() time.Time
}

func New(cfg *config.Config, src store.Source, dst store.Destination) *Runner {
	return &Runner{cfg: cfg, src: src, dst: dst, now: time.Now}
}

// RunStats summarizes one applied run. Failed counts individual writes that
// errored and were skipped; their source-side state is retried naturally on
// the next run.
type RunStats struct {
	RunID     string
	Created   int
	Updated   int
	Unchanged int
	Deleted   int
	Failed    int
}

// Run performs one full reconcile-and-apply cycle, waiting for any
// in-flight run to finish first. The first sync of a fresh destination is
// this same operation; nothing is special-cased.
func (r *Runner) Run(ctx context.Context) (RunStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.run(ctx)
}

// TryRun is Run for scheduler ticks: if a run is already in flight the tick
// is skipped instead of queued, and ran is false.
func (r *Runner) TryRun(ctx context.Context) (stats RunStats, ran bool, err error) {
	if !r.mu.TryLock() {
		return RunStats{}, false, nil
	}
	defer r.mu.Unlock()
	stats, err = r.run(ctx)
	return stats, true, err
}

func (r *Runner) run(ctx context.Context) (RunStats, error) {
	stats := RunStats{RunID: shortID()}

	if err := r.cfg.Validate(); err != nil {
		return stats, err
	}

	start, end := r.cfg.Window(r.now())
	appLog.Info("sync run starting",
		"run_id", stats.RunID,
		"window_start", start.Format(time.RFC3339),
		"window_end", end.Format(time.RFC3339),
	)

	// Either list failing is fatal: no partial action set from a
	// half-available input.
	srcEvents, err := r.src.ListEvents(ctx, start, end)
	if err != nil {
		return stats, err
	}
	dstEvents, err := r.dst.ListEvents(ctx, start, end)
	if err != nil {
		return stats, err
	}

	opts := engine.Options{
		SyncDetails:   r.cfg.SyncDetailsEnabled(),
		CopyAttendees: r.cfg.CopyAttendeesEnabled(),
		DeleteRemoved: r.cfg.DeleteRemovedEnabled(),
	}
	actions, counts := engine.Reconcile(srcEvents, dstEvents, opts)
	stats.Unchanged = counts.Unchanged

	appLog.Debug("reconcile decided",
		"run_id", stats.RunID,
		"source_events", len(srcEvents),
		"destination_events", len(dstEvents),
		"to_create", len(actions.Creates),
		"to_update", len(actions.Updates),
		"to_delete", len(actions.Deletes),
	)

	// Apply with per-item tolerance: a failed write is logged and skipped,
	// never aborts the batch.
	for _, c := range actions.Creates {
		if _, err := r.dst.Create(ctx, c.Projection, r.attendees(c.Source)); err != nil {
			appLog.Error("create failed, skipping", err,
				"run_id", stats.RunID,
				"title", c.Projection.Title,
				"start", c.Projection.Start.Format(time.RFC3339),
			)
			stats.Failed++
			continue
		}
		stats.Created++
	}

	for _, u := range actions.Updates {
		if err := r.dst.Update(ctx, u.Existing, u.Projection, r.attendees(u.Source)); err != nil {
			appLog.Error("update failed, skipping", err,
				"run_id", stats.RunID,
				"title", u.Projection.Title,
				"start", u.Projection.Start.Format(time.RFC3339),
			)
			stats.Failed++
			continue
		}
		stats.Updated++
	}

	for _, d := range actions.Deletes {
		if err := r.dst.Delete(ctx, d); err != nil {
			appLog.Error("delete failed, skipping", err,
				"run_id", stats.RunID,
				"title", d.Title,
				"start", d.Start.Format(time.RFC3339),
			)
			stats.Failed++
			continue
		}
		stats.Deleted++
	}

	appLog.Info("sync run finished",
		"run_id", stats.RunID,
		"created", stats.Created,
		"updated", stats.Updated,
		"unchanged", stats.Unchanged,
		"deleted", stats.Deleted,
		"failed", stats.Failed,
	)
	return stats, nil
}

func (r *Runner) attendees(ev model.SourceEvent) []string {
	if !r.cfg.CopyAttendeesEnabled() {
		return nil
	}
	return ev.Attendees
}

// SelfTestReport is the outcome of a connectivity check.
type SelfTestReport struct {
	SourceEvents      int
	DestinationEvents int
}

// SelfTest validates configuration and verifies both stores are reachable
// by listing the current window, reporting sample event counts. Nothing is
// written.
func (r *Runner) SelfTest(ctx context.Context) (SelfTestReport, error) {
	var report SelfTestReport

	if err := r.cfg.Validate(); err != nil {
		return report, err
	}

	start, end := r.cfg.Window(r.now())

	srcEvents, err := r.src.ListEvents(ctx, start, end)
	if err != nil {
		return report, err
	}
	report.SourceEvents = len(srcEvents)

	dstEvents, err := r.dst.ListEvents(ctx, start, end)
	if err != nil {
		return report, err
	}
	report.DestinationEvents = len(dstEvents)

	return report, nil
}

// ClearStats summarizes a ClearTagged pass.
type ClearStats struct {
	Deleted int
	Failed  int
}

// ClearTagged deletes every destination event in the window that carries a
// well-formed correlation tag. Untagged events are never touched. Individual
// delete failures are logged and skipped, like any other write.
func (r *Runner) ClearTagged(ctx context.Context) (ClearStats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var stats ClearStats

	start, end := r.cfg.Window(r.now())
	dstEvents, err := r.dst.ListEvents(ctx, start, end)
	if err != nil {
		return stats, err
	}

	for _, ev := range dstEvents {
		if !tag.Has(ev.Description) {
			continue
		}
		if err := r.dst.Delete(ctx, ev); err != nil {
			appLog.Error("clear: delete failed, skipping", err,
				"title", ev.Title,
				"start", ev.Start.Format(time.RFC3339),
			)
			stats.Failed++
			continue
		}
		stats.Deleted++
	}

	appLog.Info("clear finished", "deleted", stats.Deleted, "failed", stats.Failed)
	return stats, nil
}

func shortID() string {
	return uuid.NewString()[:8]
}
