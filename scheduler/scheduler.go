// Package scheduler drives interval charging on a cron schedule. Each run
// pages through Active subscriptions, picks the ones whose interval has
// elapsed and charges them through Vault.BatchCharge.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/robfig/cron/v3"

	"github.com/xraph/vault"
	"github.com/xraph/vault/subscription"
)

// DefaultSpec runs the scheduler once a minute.
const DefaultSpec = "@every 1m"

// DefaultPageSize is the number of subscriptions loaded and charged per
// batch.
const DefaultPageSize = 100

// Report summarizes one run.
type Report struct {
	Scanned int `json:"scanned"`
	Due     int `json:"due"`
	Charged int `json:"charged"`
	Failed  int `json:"failed"`
}

// Scheduler periodically charges due subscriptions.
type Scheduler struct {
	vault    *vault.Vault
	spec     string
	pageSize int
	caller   vault.Principal
	logger   *slog.Logger

	mu   sync.Mutex
	cron *cron.Cron
	run  sync.Mutex
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithSpec sets the cron expression (default DefaultSpec).
func WithSpec(spec string) Option {
	return func(s *Scheduler) {
		if spec != "" {
			s.spec = spec
		}
	}
}

// WithPageSize sets how many subscriptions are handled per batch.
func WithPageSize(n int) Option {
	return func(s *Scheduler) {
		if n > 0 {
			s.pageSize = n
		}
	}
}

// WithCaller sets the principal batches are submitted as. When unset the
// stored admin is looked up on every run.
func WithCaller(p vault.Principal) Option {
	return func(s *Scheduler) { s.caller = p }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Scheduler) { s.logger = l }
}

// New creates a scheduler for v.
func New(v *vault.Vault, opts ...Option) *Scheduler {
	s := &Scheduler{
		vault:    v,
		spec:     DefaultSpec,
		pageSize: DefaultPageSize,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Start schedules runs. It fails on an invalid spec or when already
// started.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("scheduler: already started")
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	if _, err := c.AddFunc(s.spec, func() {
		if _, err := s.RunOnce(ctx); err != nil {
			s.logger.Error("scheduled charge run failed", "error", err)
		}
	}); err != nil {
		return fmt.Errorf("scheduler: invalid spec %q: %w", s.spec, err)
	}
	c.Start()
	s.cron = c

	s.logger.Info("scheduler started",
		"spec", s.spec,
		"page_size", s.pageSize,
	)
	return nil
}

// Stop halts scheduling and waits for a running pass to finish.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
		s.logger.Info("scheduler stopped")
	}
}

// RunOnce charges every Active subscription that is due at the vault's
// current time. Concurrent calls are serialized.
func (s *Scheduler) RunOnce(ctx context.Context) (Report, error) {
	s.run.Lock()
	defer s.run.Unlock()

	var report Report

	caller := s.caller
	if caller.IsZero() {
		adminP, err := s.vault.GetAdmin(ctx)
		if err != nil {
			return report, fmt.Errorf("scheduler: resolve admin: %w", err)
		}
		caller = adminP
	}

	now := s.vault.Now()
	var from subscription.ID
	for {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		page, err := s.vault.Store().ListByStatus(ctx, subscription.StatusActive, from, s.pageSize)
		if err != nil {
			return report, fmt.Errorf("scheduler: list active: %w", err)
		}
		if len(page) == 0 {
			break
		}
		report.Scanned += len(page)

		due := make([]subscription.ID, 0, len(page))
		for _, sub := range page {
			if info := vault.NextChargeInfo(sub); now >= info.NextChargeTimestamp {
				due = append(due, sub.ID)
			}
		}

		if len(due) > 0 {
			report.Due += len(due)
			results, err := s.vault.BatchCharge(ctx, caller, due)
			if err != nil {
				return report, fmt.Errorf("scheduler: batch charge: %w", err)
			}
			for _, r := range results {
				if r.Success {
					report.Charged++
				} else {
					report.Failed++
				}
			}
		}

		last := page[len(page)-1].ID
		if len(page) < s.pageSize || last == ^subscription.ID(0) {
			break
		}
		from = last + 1
	}

	s.logger.Info("charge run completed",
		"scanned", report.Scanned,
		"due", report.Due,
		"charged", report.Charged,
		"failed", report.Failed,
	)
	return report, nil
}
