package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"calmirror/internal/config"
	appLog "calmirror/internal/log"
	"calmirror/internal/runner"
	"calmirror/internal/sched"
	"calmirror/internal/store"
	"calmirror/internal/store/gcal"
	"calmirror/internal/store/ics"
)

// rootFlags holds persistent CLI flag values.
type rootFlags struct {
	configPath string
	debug      bool
}

func newRootCmd() *cobra.Command {
	flags := &rootFlags{}

	cmd := &cobra.Command{
		Use:           "calmirror",
		Short:         "One-way calendar mirror: keeps a destination calendar in sync with a window of a source calendar",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			if flags.debug {
				appLog.SetLevel(appLog.LevelDebug)
			}
		},
	}

	cmd.PersistentFlags().StringVar(&flags.configPath, "config", "/etc/calmirror/config.yaml", "Path to config file")
	cmd.PersistentFlags().BoolVar(&flags.debug, "debug", false, "Enable debug logging")

	cmd.AddCommand(
		newRunCmd(flags),
		newSyncCmd(flags),
		newSelfTestCmd(flags),
		newClearCmd(flags),
	)
	return cmd
}

// buildRunner loads config and wires the configured store backends. A
// source id that looks like a feed URL selects the ICS backend; anything
// else is treated as a Google calendar id.
func buildRunner(ctx context.Context, flags *rootFlags) (*runner.Runner, *config.Config, error) {
	cfg, err := config.Load(flags.configPath)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}

	var src store.Source
	if cfg.SourceIsFeed() {
		src = ics.NewFeed(cfg.SourceCalendarID, cfg.ICSCacheDir)
	} else {
		src, err = gcal.NewSource(ctx, cfg.SourceCalendarID, cfg.CredentialsFile)
		if err != nil {
			return nil, nil, err
		}
	}

	dst, err := gcal.NewDestination(ctx, cfg.DestinationCalendarID, cfg.CredentialsFile)
	if err != nil {
		return nil, nil, err
	}

	appLog.Info("effective config",
		"destination", cfg.DestinationCalendarID,
		"source_is_feed", cfg.SourceIsFeed(),
		"days_past", cfg.SyncDaysPast,
		"days_future", cfg.SyncDaysFuture,
		"sync_details", cfg.SyncDetailsEnabled(),
		"copy_attendees", cfg.CopyAttendeesEnabled(),
		"delete_removed", cfg.DeleteRemovedEnabled(),
		"refresh", cfg.RefreshCron,
	)
	return runner.New(cfg, src, dst), cfg, nil
}

func newRunCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the sync daemon, reconciling on the configured cron schedule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			r, cfg, err := buildRunner(ctx, flags)
			if err != nil {
				return err
			}

			s := sched.New()
			if err := s.Register(cfg.RefreshCron, func() {
				if _, ran, runErr := r.TryRun(ctx); runErr != nil {
					appLog.Error("scheduled sync run failed", runErr)
				} else if !ran {
					appLog.Info("previous sync run still in flight, skipping tick")
				}
			}); err != nil {
				return fmt.Errorf("invalid refresh schedule %q: %w", cfg.RefreshCron, err)
			}
			s.Start()

			// One immediate run at startup; a failure here is logged, not
			// fatal for the daemon, since the next tick retries.
			if _, err := r.Run(ctx); err != nil {
				appLog.Error("initial sync run failed", err)
			}

			<-ctx.Done()
			<-s.Stop().Done()
			appLog.Info("calmirror exiting")
			return nil
		},
	}
}

func newSyncCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run a single reconcile-and-apply pass and exit (also the first-run entry point)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			r, _, err := buildRunner(ctx, flags)
			if err != nil {
				return err
			}

			stats, err := r.Run(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("created=%d updated=%d unchanged=%d deleted=%d failed=%d\n",
				stats.Created, stats.Updated, stats.Unchanged, stats.Deleted, stats.Failed)
			if stats.Failed > 0 {
				return errors.New("some events failed to apply; see log")
			}
			return nil
		},
	}
}

func newSelfTestCmd(flags *rootFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "selftest",
		Short: "Verify configuration and reachability of both calendars",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			r, _, err := buildRunner(ctx, flags)
			if err != nil {
				return err
			}

			report, err := r.SelfTest(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("source: reachable, %d events in window\n", report.SourceEvents)
			fmt.Printf("destination: reachable, %d events in window\n", report.DestinationEvents)
			return nil
		},
	}
}

func newClearCmd(flags *rootFlags) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete every mirrored (tagged) event in the destination window",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("clear deletes events; re-run with --yes to confirm")
			}
			ctx := cmd.Context()

			r, _, err := buildRunner(ctx, flags)
			if err != nil {
				return err
			}

			stats, err := r.ClearTagged(ctx)
			if err != nil {
				return err
			}
			fmt.Printf("deleted=%d failed=%d\n", stats.Deleted, stats.Failed)
			return nil
		},
	}
	cmd.Flags().BoolVar(&yes, "yes", false, "Confirm deletion of all mirrored events in the window")
	return cmd
}
