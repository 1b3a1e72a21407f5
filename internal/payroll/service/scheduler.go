package service

import (
	"context"
	"sync"
	"time"

	"github.com/shiftpay/shiftpay-backend/pkg/logger"
)

// DefaultReconcileInterval is how often the scheduler runs the reconciler.
// Each run resumes every employee from their own last record, so days that
// failed earlier are reconciled on the next tick.
const DefaultReconcileInterval = time.Hour

// ReconciliationScheduler runs the reconciler periodically so that the
// attendance records catch up with every completed day.
type ReconciliationScheduler struct {
	reconciler *Reconciler
	interval   time.Duration
	logger     *logger.Logger
	cancel     context.CancelFunc

	// mu serializes runs triggered by the ticker and by RunNow
	mu sync.Mutex
}

// NewReconciliationScheduler creates a new reconciliation scheduler
func NewReconciliationScheduler(reconciler *Reconciler, interval time.Duration, log *logger.Logger) *ReconciliationScheduler {
	if interval <= 0 {
		interval = DefaultReconcileInterval
	}
	return &ReconciliationScheduler{
		reconciler: reconciler,
		interval:   interval,
		logger:     log.WithComponent("reconcile-scheduler"),
	}
}

// Start starts the scheduler in a background goroutine. With runOnStart the
// first cycle runs immediately to catch up after a restart.
func (s *ReconciliationScheduler) Start(ctx context.Context, runOnStart bool) {
	ctx, s.cancel = context.WithCancel(ctx)

	go func() {
		s.logger.Info().Dur("interval", s.interval).Msg("reconciliation scheduler started")

		if runOnStart {
			s.runCycle(ctx)
		}

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				s.logger.Info().Msg("reconciliation scheduler stopped")
				return
			case <-ticker.C:
				s.runCycle(ctx)
			}
		}
	}()
}

// Stop stops the scheduler goroutine
func (s *ReconciliationScheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
	}
}

// RunNow runs one reconciliation synchronously
func (s *ReconciliationScheduler) RunNow(ctx context.Context) (*ReconcileResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reconciler.Run(ctx)
}

func (s *ReconciliationScheduler) runCycle(ctx context.Context) {
	start := time.Now()

	result, err := s.RunNow(ctx)
	if err != nil {
		s.logger.Error().Err(err).Msg("reconciliation cycle failed")
		return
	}

	s.logger.Info().
		Dur("duration", time.Since(start)).
		Int("written", result.Written).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("reconciliation cycle completed")
}
