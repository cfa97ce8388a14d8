package sweeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/alitto/pond/v2"
	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/logger"
	"github.com/votetripling/ambassador-api/internal/messages"
	"github.com/votetripling/ambassador-api/internal/notify"
	"github.com/votetripling/ambassador-api/internal/store"
	"github.com/votetripling/ambassador-api/internal/store/schema"
)

const (
	DEFAULT_SWEEP_INTERVAL   = 5 * time.Minute
	DEFAULT_BATCH_SIZE       = 100
	DEFAULT_WORKER_POOL_SIZE = 4
)

// UpgradeSweeperConfig holds configuration for the upgrade sweeper
type UpgradeSweeperConfig struct {
	Interval       time.Duration // Time to sleep between sweep cycles
	BatchSize      int           // Triplers handled per cycle
	WorkerPoolSize int           // Concurrent senders
	// MaxRetryTime bounds the retries of a single send or update
	MaxRetryTime time.Duration
}

// upgradeStats counts the outcome of one sweep cycle
type upgradeStats struct {
	sent    atomic.Int32
	skipped atomic.Int32
	failed  atomic.Int32
}

// upgradeSweeper invites confirmed triplers to become ambassadors once
type upgradeSweeper struct {
	config    UpgradeSweeperConfig
	store     store.Store
	notifier  notify.Notifier
	renderer  *messages.Renderer
	clock     adapter.Clock
	running   atomic.Bool
	stopOnce  sync.Once
	stopChan  chan struct{}
	stoppedCh chan struct{}
}

// NewUpgradeSweeper creates the sweeper that sends the upgrade sms to confirmed triplers
func NewUpgradeSweeper(
	config UpgradeSweeperConfig,
	st store.Store,
	notifier notify.Notifier,
	renderer *messages.Renderer,
	clock adapter.Clock,
) Sweeper {
	if config.Interval <= 0 {
		config.Interval = DEFAULT_SWEEP_INTERVAL
	}
	if config.BatchSize <= 0 {
		config.BatchSize = DEFAULT_BATCH_SIZE
	}
	if config.WorkerPoolSize <= 0 {
		config.WorkerPoolSize = DEFAULT_WORKER_POOL_SIZE
	}
	if config.MaxRetryTime <= 0 {
		config.MaxRetryTime = time.Minute
	}

	return &upgradeSweeper{
		config:    config,
		store:     st,
		notifier:  notifier,
		renderer:  renderer,
		clock:     clock,
		stopChan:  make(chan struct{}),
		stoppedCh: make(chan struct{}),
	}
}

// Name returns the sweeper's name
func (s *upgradeSweeper) Name() string {
	return "upgrade-sweeper"
}

// Start runs sweep cycles until the context is canceled or Stop is called
func (s *upgradeSweeper) Start(ctx context.Context) error {
	if !s.running.CompareAndSwap(false, true) {
		return fmt.Errorf("sweeper already running")
	}
	defer func() {
		s.running.Store(false)
		close(s.stoppedCh)
	}()

	logger.InfoCtx(ctx, "Starting upgrade sweeper",
		zap.Duration("interval", s.config.Interval),
		zap.Int("batch_size", s.config.BatchSize),
		zap.Int("worker_pool_size", s.config.WorkerPoolSize),
	)

	for {
		select {
		case <-ctx.Done():
			logger.InfoCtx(ctx, "Upgrade sweeper stopping due to context cancellation", zap.Error(ctx.Err()))
			return nil
		case <-s.stopChan:
			logger.InfoCtx(ctx, "Upgrade sweeper stop requested")
			return nil
		default:
			if err := s.runSweepCycle(ctx); err != nil {
				if !errors.Is(err, context.Canceled) {
					logger.ErrorCtx(ctx, err)
				}
			}
		}
	}
}

// Stop gracefully stops the sweeper with timeout support
func (s *upgradeSweeper) Stop(ctx context.Context) error {
	if !s.running.Load() {
		return nil
	}

	logger.InfoCtx(ctx, "Stopping upgrade sweeper")
	s.stopOnce.Do(func() { close(s.stopChan) })

	select {
	case <-s.stoppedCh:
		logger.InfoCtx(ctx, "Upgrade sweeper stopped gracefully")
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Upgrade sweeper stop interrupted by context timeout")
		return ctx.Err()
	}
}

// runSweepCycle sweeps once, then sleeps for the configured interval
func (s *upgradeSweeper) runSweepCycle(ctx context.Context) error {
	if _, err := s.sweep(ctx); err != nil {
		// still sleep so a failing store is not hammered
		logger.ErrorCtx(ctx, err)
	}

	if !s.sleep(ctx, s.config.Interval) {
		return ctx.Err()
	}
	return nil
}

// sweep sends the upgrade sms to one batch of triplers and waits for every send to finish
func (s *upgradeSweeper) sweep(ctx context.Context) (*upgradeStats, error) {
	startTime := s.clock.Now()

	triplers, err := s.store.ListTriplersPendingUpgrade(ctx, s.config.BatchSize)
	if err != nil {
		return nil, fmt.Errorf("failed to list triplers pending upgrade: %w", err)
	}

	stats := &upgradeStats{}
	if len(triplers) == 0 {
		logger.DebugCtx(ctx, "No triplers pending upgrade")
		return stats, nil
	}

	logger.InfoCtx(ctx, "Found triplers pending upgrade", zap.Int("count", len(triplers)))

	pool := pond.NewPool(
		s.config.WorkerPoolSize,
		pond.WithQueueSize(len(triplers)),
		pond.WithContext(ctx),
	)
	for _, t := range triplers {
		pool.Submit(func() {
			s.upgrade(ctx, t, stats)
		})
	}
	pool.StopAndWait()

	logger.InfoCtx(ctx, "Sweep cycle completed",
		zap.Duration("duration", s.clock.Since(startTime)),
		zap.Int("total", len(triplers)),
		zap.Int32("sent", stats.sent.Load()),
		zap.Int32("skipped", stats.skipped.Load()),
		zap.Int32("failed", stats.failed.Load()),
	)

	return stats, nil
}

// upgrade sends the sms, then flags the tripler. A failed flag leaves the tripler eligible for the next cycle.
func (s *upgradeSweeper) upgrade(ctx context.Context, t *schema.Tripler, stats *upgradeStats) {
	fields := []zap.Field{zap.String("tripler_id", t.ID)}

	claim, err := s.store.GetClaimByTripler(ctx, t.ID)
	if err != nil {
		stats.failed.Add(1)
		logger.ErrorCtx(ctx, fmt.Errorf("failed to get claim: %w", err), fields...)
		return
	}
	if claim == nil {
		stats.skipped.Add(1)
		logger.InfoCtx(ctx, "Tripler no longer claimed, skipping upgrade", fields...)
		return
	}

	ambassador, err := s.store.GetAmbassadorByID(ctx, claim.AmbassadorID)
	if err != nil {
		stats.failed.Add(1)
		logger.ErrorCtx(ctx, fmt.Errorf("failed to get claiming ambassador: %w", err), fields...)
		return
	}
	if ambassador == nil {
		stats.skipped.Add(1)
		logger.WarnCtx(ctx, "Claiming ambassador not found, skipping upgrade", fields...)
		return
	}

	body, err := s.renderer.Render(messages.TriplerUpgrade, s.renderer.NewData(t, ambassador))
	if err != nil {
		stats.failed.Add(1)
		logger.ErrorCtx(ctx, err, fields...)
		return
	}

	if err := s.retry(ctx, "send upgrade sms", func() error {
		return s.notifier.SendSMS(ctx, t.Phone, body)
	}); err != nil {
		stats.failed.Add(1)
		logger.ErrorCtx(ctx, fmt.Errorf("failed to send upgrade sms: %w", err), fields...)
		return
	}

	var marked bool
	if err := s.retry(ctx, "mark upgrade sms sent", func() error {
		var err error
		marked, err = s.store.MarkUpgradeSMSSent(ctx, t.ID)
		return err
	}); err != nil {
		stats.failed.Add(1)
		logger.ErrorCtx(ctx, fmt.Errorf("CRITICAL: upgrade sms sent but not recorded: %w", err), fields...)
		return
	}
	if !marked {
		logger.WarnCtx(ctx, "Upgrade sms already recorded by another sweeper", fields...)
	}

	stats.sent.Add(1)
	logger.InfoCtx(ctx, "Sent upgrade sms", fields...)
}

// retry runs op with exponential backoff bounded by MaxRetryTime
func (s *upgradeSweeper) retry(ctx context.Context, name string, op func() error) error {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxInterval = 10 * time.Second
	b.MaxElapsedTime = s.config.MaxRetryTime
	b.Multiplier = 2.0
	b.RandomizationFactor = 0.5

	var attemptCount int
	notifyOnError := func(err error, duration time.Duration) {
		attemptCount++
		logger.WarnCtx(ctx, "Operation failed, retrying",
			zap.String("operation", name),
			zap.Error(err),
			zap.Int("attempt", attemptCount),
			zap.Duration("next_retry_in", duration),
		)
	}

	return backoff.RetryNotify(op, backoff.WithContext(b, ctx), notifyOnError)
}

// sleep sleeps for the given duration but can be interrupted by context cancellation
// Returns true if sleep completed normally, false if interrupted
func (s *upgradeSweeper) sleep(ctx context.Context, duration time.Duration) bool {
	select {
	case <-s.clock.After(duration):
		return true
	case <-ctx.Done():
		return false
	case <-s.stopChan:
		return false
	}
}
