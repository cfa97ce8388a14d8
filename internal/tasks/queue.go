package tasks

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"

	"github.com/votetripling/ambassador-api/internal/adapter"
	"github.com/votetripling/ambassador-api/internal/logger"
)

const (
	DEFAULT_WORKER_POOL_SIZE  = 4
	DEFAULT_WORKER_QUEUE_SIZE = 256
)

var (
	// ErrQueueFull is returned when the task cannot be accepted without blocking the caller
	ErrQueueFull = errors.New("task queue is full")
	// ErrQueueStopped is returned after Shutdown
	ErrQueueStopped = errors.New("task queue is stopped")
)

// Func is a unit of background work
type Func func(ctx context.Context) error

// Queue runs best-effort background tasks after a delay.
// Failures are logged, never returned to the caller that scheduled the task.
//
//go:generate mockgen -source=queue.go -destination=../mocks/tasks.go -package=mocks -mock_names=Queue=MockTaskQueue
type Queue interface {
	// Schedule runs task after delay. The task context outlives ctx's cancellation but keeps its values.
	Schedule(ctx context.Context, name string, delay time.Duration, task Func) error
	// Shutdown runs the pending tasks without waiting for their delay and waits for them to finish
	Shutdown(ctx context.Context) error
}

// Config holds the worker pool configuration
type Config struct {
	WorkerPoolSize  int
	WorkerQueueSize int
}

type pondQueue struct {
	pool   pond.Pool
	clock  adapter.Clock
	mu     sync.RWMutex
	stopCh chan struct{}
	closed bool
}

// NewQueue creates a task queue backed by a pond worker pool
func NewQueue(cfg Config, clock adapter.Clock) Queue {
	workerPoolSize := cfg.WorkerPoolSize
	if workerPoolSize <= 0 {
		workerPoolSize = DEFAULT_WORKER_POOL_SIZE
	}
	workerQueueSize := cfg.WorkerQueueSize
	if workerQueueSize <= 0 {
		workerQueueSize = DEFAULT_WORKER_QUEUE_SIZE
	}

	return &pondQueue{
		pool:   pond.NewPool(workerPoolSize, pond.WithQueueSize(workerQueueSize)),
		clock:  clock,
		stopCh: make(chan struct{}),
	}
}

func (q *pondQueue) Schedule(ctx context.Context, name string, delay time.Duration, task Func) error {
	q.mu.RLock()
	defer q.mu.RUnlock()

	if q.closed {
		return ErrQueueStopped
	}

	taskCtx := context.WithoutCancel(ctx)
	_, ok := q.pool.TrySubmit(func() {
		if delay > 0 {
			select {
			case <-q.clock.After(delay):
			case <-q.stopCh:
			}
		}

		logger.DebugCtx(taskCtx, "Running background task", zap.String("task", name))
		if err := task(taskCtx); err != nil {
			logger.ErrorCtx(taskCtx, fmt.Errorf("background task %s failed: %w", name, err), zap.String("task", name))
		}
	})
	if !ok {
		return ErrQueueFull
	}

	return nil
}

func (q *pondQueue) Shutdown(ctx context.Context) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return nil
	}
	q.closed = true
	close(q.stopCh)
	q.mu.Unlock()

	logger.InfoCtx(ctx, "Shutting down task queue",
		zap.Uint64("submitted", q.pool.SubmittedTasks()),
		zap.Uint64("waiting", q.pool.WaitingTasks()))

	done := make(chan struct{})
	go func() {
		q.pool.StopAndWait()
		close(done)
	}()

	select {
	case <-done:
		logger.InfoCtx(ctx, "Task queue shutdown complete",
			zap.Uint64("total_completed", q.pool.CompletedTasks()))
		return nil
	case <-ctx.Done():
		logger.WarnCtx(ctx, "Task queue shutdown interrupted by context timeout")
		return ctx.Err()
	}
}
