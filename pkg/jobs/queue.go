package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	// ErrNotRunning is returned by Enqueue before Start or after Stop.
	ErrNotRunning = errors.New("queue not running")
	// ErrQueueFull is returned when the buffer is saturated.
	ErrQueueFull = errors.New("queue full")
)

// Job is one unit of background work. Attempt starts at 1.
type Job struct {
	ID         string
	Kind       string
	Attempt    int
	EnqueuedAt time.Time
}

// Handler processes a job. Returning an error schedules a retry until MaxAttempts is reached.
type Handler func(ctx context.Context, job Job) error

// Config tunes a Queue.
type Config struct {
	Workers     int
	Buffer      int
	MaxAttempts int
	Backoff     time.Duration
	Logger      *zap.Logger
}

// Stats is a point-in-time view of the queue.
type Stats struct {
	Pending   int
	Running   int
	Succeeded uint64
	Failed    uint64
}

// Queue is an in-process worker pool with linear retry backoff.
type Queue struct {
	name    string
	handler Handler
	cfg     Config
	jobs    chan Job

	mu        sync.Mutex
	running   bool
	ctx       context.Context
	cancel    context.CancelFunc
	workers   sync.WaitGroup
	retries   sync.WaitGroup
	active    int
	succeeded uint64
	failed    uint64
}

// New builds a stopped queue.
func New(name string, handler Handler, cfg Config) *Queue {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.Buffer <= 0 {
		cfg.Buffer = cfg.Workers * 8
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.Backoff <= 0 {
		cfg.Backoff = time.Second
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Queue{name: name, handler: handler, cfg: cfg, jobs: make(chan Job, cfg.Buffer)}
}

// Start launches the workers. Calling it twice is a no-op.
func (q *Queue) Start(ctx context.Context) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.running {
		return
	}
	q.ctx, q.cancel = context.WithCancel(ctx)
	q.running = true
	for i := 0; i < q.cfg.Workers; i++ {
		q.workers.Add(1)
		go q.work()
	}
	q.cfg.Logger.Info("queue started", zap.String("queue", q.name), zap.Int("workers", q.cfg.Workers))
}

// Stop cancels in-flight work, waits for workers and drops pending retries.
func (q *Queue) Stop() {
	q.mu.Lock()
	if !q.running {
		q.mu.Unlock()
		return
	}
	q.running = false
	q.cancel()
	q.mu.Unlock()

	q.workers.Wait()
	q.retries.Wait()
	q.cfg.Logger.Info("queue stopped", zap.String("queue", q.name))
}

// Enqueue adds a job without blocking.
func (q *Queue) Enqueue(job Job) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if !q.running {
		return fmt.Errorf("%s: %w", q.name, ErrNotRunning)
	}
	if job.Attempt <= 0 {
		job.Attempt = 1
	}
	if job.EnqueuedAt.IsZero() {
		job.EnqueuedAt = time.Now().UTC()
	}
	select {
	case q.jobs <- job:
		return nil
	default:
		return fmt.Errorf("%s: %w", q.name, ErrQueueFull)
	}
}

// Stats reports counters.
func (q *Queue) Stats() Stats {
	q.mu.Lock()
	defer q.mu.Unlock()
	return Stats{Pending: len(q.jobs), Running: q.active, Succeeded: q.succeeded, Failed: q.failed}
}

func (q *Queue) work() {
	defer q.workers.Done()
	for {
		select {
		case <-q.ctx.Done():
			return
		case job := <-q.jobs:
			q.run(job)
		}
	}
}

func (q *Queue) run(job Job) {
	q.mu.Lock()
	q.active++
	q.mu.Unlock()

	err := q.handler(q.ctx, job)

	q.mu.Lock()
	q.active--
	if err == nil {
		q.succeeded++
	}
	q.mu.Unlock()

	if err != nil {
		q.retry(job, err)
	}
}

func (q *Queue) retry(job Job, cause error) {
	log := q.cfg.Logger.With(zap.String("queue", q.name), zap.String("job_id", job.ID), zap.String("kind", job.Kind), zap.Int("attempt", job.Attempt))
	if job.Attempt >= q.cfg.MaxAttempts || q.ctx.Err() != nil {
		q.mu.Lock()
		q.failed++
		q.mu.Unlock()
		log.Error("job failed permanently", zap.Error(cause))
		return
	}
	log.Warn("job failed, retrying", zap.Error(cause))

	delay := q.cfg.Backoff * time.Duration(job.Attempt)
	job.Attempt++
	q.retries.Add(1)
	go func() {
		defer q.retries.Done()
		timer := time.NewTimer(delay)
		defer timer.Stop()
		select {
		case <-q.ctx.Done():
		case <-timer.C:
			if err := q.Enqueue(job); err != nil {
				log.Error("job requeue failed", zap.Error(err))
			}
		}
	}()
}
