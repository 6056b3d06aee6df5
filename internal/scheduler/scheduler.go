package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/credigo/credigo/internal/logger"
	"github.com/credigo/credigo/internal/models"
	"github.com/credigo/credigo/internal/services"
)

// Scheduler periodically recomputes the portfolio credit snapshot
type Scheduler struct {
	credit   *services.CreditService
	cronExpr string
	cron     *cron.Cron
	running  bool
	mu       sync.RWMutex

	snapshot    []*models.CreditReport
	generatedAt time.Time
}

// New creates a new snapshot scheduler
func New(credit *services.CreditService, cronExpr string) *Scheduler {
	return &Scheduler{
		credit:   credit,
		cronExpr: cronExpr,
		cron:     cron.New(),
	}
}

// Start starts the scheduler and takes an initial snapshot
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("scheduler already running")
	}

	_, err := s.cron.AddFunc(s.cronExpr, func() {
		if err := s.Refresh(context.Background()); err != nil {
			logger.Error("Failed to refresh credit snapshot: %v", err)
		}
	})
	if err != nil {
		s.mu.Unlock()
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	s.cron.Start()
	s.running = true
	s.mu.Unlock()

	if err := s.Refresh(ctx); err != nil {
		logger.Warning("Initial credit snapshot failed: %v", err)
	}

	logger.Info("Snapshot scheduler started with cron expression: %s", s.cronExpr)
	return nil
}

// Stop stops the scheduler
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}

	s.cron.Stop()
	s.running = false

	logger.Info("Snapshot scheduler stopped")
}

// Running reports whether the scheduler is started
func (s *Scheduler) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Refresh recomputes the portfolio credit snapshot
func (s *Scheduler) Refresh(ctx context.Context) error {
	logger.Debug("Recomputing portfolio credit snapshot")

	reports, err := s.credit.ListCreditReports(ctx)
	if err != nil {
		return fmt.Errorf("failed to compute credit reports: %w", err)
	}

	s.mu.Lock()
	s.snapshot = reports
	s.generatedAt = time.Now()
	s.mu.Unlock()

	logger.Info("Credit snapshot refreshed for %d companies", len(reports))
	return nil
}

// Snapshot returns the latest portfolio snapshot and when it was taken.
// The bool is false when no snapshot has been taken yet.
func (s *Scheduler) Snapshot() ([]*models.CreditReport, time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.generatedAt.IsZero() {
		return nil, time.Time{}, false
	}
	return s.snapshot, s.generatedAt, true
}
