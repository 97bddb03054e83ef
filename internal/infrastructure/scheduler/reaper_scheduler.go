package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	apporder "github.com/ima-69/E-commerce-MERN-sub000/internal/application/order"
	"github.com/ima-69/E-commerce-MERN-sub000/internal/infrastructure/config"
)

// Reaper expires one batch of overdue pending orders
type Reaper interface {
	ReapExpired(ctx context.Context) (*apporder.ReapStats, error)
}

// ReaperSchedulerConfig holds configuration for the pending order reaper loop
type ReaperSchedulerConfig struct {
	// Enabled determines if the scheduler is active
	Enabled bool

	// Interval between passes
	Interval time.Duration

	// PassTimeout bounds a single pass
	PassTimeout time.Duration

	// DrainBatches is how many full batches one tick may process back to back
	DrainBatches int
}

// DefaultReaperSchedulerConfig returns default configuration
func DefaultReaperSchedulerConfig() ReaperSchedulerConfig {
	return ReaperSchedulerConfig{
		Enabled:      true,
		Interval:     time.Minute,
		PassTimeout:  30 * time.Second,
		DrainBatches: 10,
	}
}

// ReaperSchedulerConfigFrom maps the order configuration onto the scheduler
func ReaperSchedulerConfigFrom(cfg config.OrderConfig) ReaperSchedulerConfig {
	c := DefaultReaperSchedulerConfig()
	c.Enabled = cfg.ReaperEnabled
	if cfg.ReapInterval > 0 {
		c.Interval = cfg.ReapInterval
	}
	return c
}

// Validate checks the configuration
func (c ReaperSchedulerConfig) Validate() error {
	if c.Interval <= 0 {
		return fmt.Errorf("%w: interval must be positive", ErrInvalidConfig)
	}
	if c.PassTimeout <= 0 {
		return fmt.Errorf("%w: pass timeout must be positive", ErrInvalidConfig)
	}
	if c.DrainBatches < 1 {
		return fmt.Errorf("%w: drain batches must be at least 1", ErrInvalidConfig)
	}
	return nil
}

// ReaperScheduler runs the pending order reaper on a fixed interval
type ReaperScheduler struct {
	reaper    Reaper
	batchSize int
	logger    *zap.Logger
	config    ReaperSchedulerConfig
	cancel    context.CancelFunc
	wg        sync.WaitGroup
	mu        sync.Mutex
	isRunning bool
}

// NewReaperScheduler creates a new reaper scheduler.
// batchSize must match the reaper's so a full batch can be told from the last one.
func NewReaperScheduler(reaper Reaper, batchSize int, logger *zap.Logger, config ReaperSchedulerConfig) *ReaperScheduler {
	if batchSize <= 0 {
		batchSize = apporder.DefaultReapBatchSize
	}
	return &ReaperScheduler{
		reaper:    reaper,
		batchSize: batchSize,
		logger:    logger,
		config:    config,
	}
}

// Start starts the reaper loop
func (s *ReaperScheduler) Start(ctx context.Context) error {
	if err := s.config.Validate(); err != nil {
		return err
	}

	s.mu.Lock()
	if s.isRunning {
		s.mu.Unlock()
		return nil
	}
	if !s.config.Enabled {
		s.mu.Unlock()
		s.logger.Info("Pending order reaper is disabled")
		return nil
	}
	s.isRunning = true
	s.mu.Unlock()

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("Pending order reaper started",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.batchSize),
	)
	return nil
}

// Stop gracefully stops the scheduler
func (s *ReaperScheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.isRunning {
		s.mu.Unlock()
		return nil
	}
	s.isRunning = false
	s.mu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Pending order reaper stopped gracefully")
		return nil
	case <-ctx.Done():
		s.logger.Warn("Pending order reaper stop timed out")
		return ctx.Err()
	}
}

// IsRunning reports whether the loop is active
func (s *ReaperScheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.isRunning
}

func (s *ReaperScheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.config.Interval)
	defer ticker.Stop()

	// orders left over from downtime are handled right away
	s.RunOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			s.logger.Debug("Reaper loop stopping")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce drains overdue orders, up to DrainBatches full batches.
// It returns the number of orders expired.
func (s *ReaperScheduler) RunOnce(ctx context.Context) int {
	expired := 0
	for i := 0; i < s.config.DrainBatches; i++ {
		if ctx.Err() != nil {
			return expired
		}

		passCtx, cancel := context.WithTimeout(ctx, s.config.PassTimeout)
		stats, err := s.reaper.ReapExpired(passCtx)
		cancel()
		if err != nil {
			s.logger.Error("Pending order reaper pass failed", zap.Error(err))
			return expired
		}

		expired += stats.Succeeded
		// a short batch means nothing is left; a batch with failures would
		// only return the same orders again
		if stats.TotalExpired < s.batchSize || stats.Failed > 0 {
			return expired
		}
	}
	return expired
}
