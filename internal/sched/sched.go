// Package sched wraps robfig/cron to drive periodic sync runs. At most one
// periodic registration exists at a time; re-registering first removes the
// prior entry so a config reload can never stack duplicate triggers.
package sched

import (
	"context"

	"github.com/robfig/cron/v3"
)

type Scheduler struct {
	cron   *cron.Cron
	entry  cron.EntryID
	active bool
}

// New creates a scheduler using standard 5-field cron expressions
// (e.g. "*/15 * * * *" or "0 * * * *").
func New() *Scheduler {
	return &Scheduler{cron: cron.New()}
}

// Register installs fn on the given cron schedule, replacing any prior
// registration.
func (s *Scheduler) Register(spec string, fn func()) error {
	if s.active {
		s.cron.Remove(s.entry)
		s.active = false
	}
	id, err := s.cron.AddFunc(spec, fn)
	if err != nil {
		return err
	}
	s.entry = id
	s.active = true
	return nil
}

// Entries reports the number of installed cron entries.
func (s *Scheduler) Entries() int {
	return len(s.cron.Entries())
}

// Start begins firing registered entries in their own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts scheduling; the returned context is done once any in-flight
// callback has returned.
func (s *Scheduler) Stop() context.Context {
	return s.cron.Stop()
}
