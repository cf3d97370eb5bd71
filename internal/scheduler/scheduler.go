// Copyright (c) 2025-2026 Oleg Ivanchenko
// SPDX-License-Identifier: GPL-3.0-or-later

// Package scheduler runs the site's periodic maintenance jobs.
package scheduler

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

// Default schedules and ages.
const (
	LoginPruneSchedule    = "0 * * * *"
	AuditPruneSchedule    = "15 3 * * *"
	GeoIPReloadSchedule   = "30 3 * * *"
	LoginAttemptMaxAge    = 24 * time.Hour
	DefaultAuditRetention = 90 * 24 * time.Hour
	jobTimeout            = 5 * time.Minute
)

// LoginPruner deletes login attempts older than a given age.
type LoginPruner interface {
	Prune(ctx context.Context, olderThan time.Duration) (int64, error)
}

// AuditPruner deletes security log entries created before a time.
type AuditPruner interface {
	Prune(ctx context.Context, before time.Time) (int64, error)
}

// Reloader reopens a file-backed resource.
type Reloader interface {
	Reload() error
}

// Config lists the collaborators of the maintenance jobs. Nil members skip
// their job.
type Config struct {
	Logins         LoginPruner
	Audit          AuditPruner
	GeoIP          Reloader
	AuditRetention time.Duration
}

// Job describes one registered job.
type Job struct {
	Name     string
	Schedule string
	NextRun  time.Time
	entryID  cron.EntryID
}

// Scheduler handles scheduled maintenance.
type Scheduler struct {
	cfg    Config
	cron   *cron.Cron
	logger *slog.Logger
	jobs   []Job
	now    func() time.Time
}

// New creates a new scheduler instance.
func New(cfg Config, logger *slog.Logger) *Scheduler {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.AuditRetention <= 0 {
		cfg.AuditRetention = DefaultAuditRetention
	}
	return &Scheduler{
		cfg:    cfg,
		cron:   cron.New(cron.WithLocation(time.UTC)),
		logger: logger,
		now:    time.Now,
	}
}

// Start registers the configured jobs and starts the cron loop.
func (s *Scheduler) Start() error {
	if s.cfg.Logins != nil {
		if err := s.add("prune_login_attempts", LoginPruneSchedule, s.PruneLoginAttempts); err != nil {
			return err
		}
	}
	if s.cfg.Audit != nil {
		if err := s.add("prune_security_log", AuditPruneSchedule, s.PruneSecurityLog); err != nil {
			return err
		}
	}
	if s.cfg.GeoIP != nil {
		if err := s.add("reload_geoip", GeoIPReloadSchedule, func(context.Context) error { return s.cfg.GeoIP.Reload() }); err != nil {
			return err
		}
	}

	s.cron.Start()
	s.logger.Info("scheduler started", "jobs", len(s.cron.Entries()))
	return nil
}

// Stop gracefully stops the scheduler, waiting for running jobs.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("scheduler stopped")
}

// Jobs returns the registered jobs with their next run time.
func (s *Scheduler) Jobs() []Job {
	out := make([]Job, len(s.jobs))
	for i, j := range s.jobs {
		j.NextRun = s.cron.Entry(j.entryID).Next
		out[i] = j
	}
	return out
}

func (s *Scheduler) add(name, schedule string, run func(context.Context) error) error {
	id, err := s.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
		defer cancel()

		start := s.now()
		if err := run(ctx); err != nil {
			s.logger.Error("scheduled job failed", "job", name, "error", err)
			return
		}
		s.logger.Debug("scheduled job finished", "job", name, "duration", s.now().Sub(start))
	})
	if err != nil {
		return err
	}
	s.jobs = append(s.jobs, Job{Name: name, Schedule: schedule, entryID: id})
	return nil
}

// PruneLoginAttempts deletes login attempts older than a day.
func (s *Scheduler) PruneLoginAttempts(ctx context.Context) error {
	if s.cfg.Logins == nil {
		return errors.New("no login pruner configured")
	}
	n, err := s.cfg.Logins.Prune(ctx, LoginAttemptMaxAge)
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("pruned login attempts", "deleted", n)
	}
	return nil
}

// PruneSecurityLog deletes security log entries past the retention.
func (s *Scheduler) PruneSecurityLog(ctx context.Context) error {
	if s.cfg.Audit == nil {
		return errors.New("no security log pruner configured")
	}
	n, err := s.cfg.Audit.Prune(ctx, s.now().UTC().Add(-s.cfg.AuditRetention))
	if err != nil {
		return err
	}
	if n > 0 {
		s.logger.Info("pruned security log", "deleted", n, "retention", s.cfg.AuditRetention)
	}
	return nil
}
