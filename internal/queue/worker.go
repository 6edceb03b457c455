package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/engagic/core/internal/store"
)

// Worker is a single polling goroutine that claims and executes jobs
// against one banana, or across every banana if bananaFilter is empty
// (spec §4.5: workers can be scoped per city to avoid one slow city
// starving another).
type Worker struct {
	id           string
	bananaFilter string
	repo         *store.QueueRepo
	cfg          *Config
	executor     Executor
	stopCh       chan struct{}
	stopOnce     sync.Once
	wg           sync.WaitGroup

	mu            sync.RWMutex
	working       bool
	currentJobID  string
	jobsProcessed int
	lastActivity  time.Time
}

// NewWorker creates a worker that polls repo for jobs scoped to
// bananaFilter (empty for no scoping) and hands each claimed job to
// executor.
func NewWorker(id, bananaFilter string, repo *store.QueueRepo, cfg *Config, executor Executor) *Worker {
	return &Worker{
		id:           id,
		bananaFilter: bananaFilter,
		repo:         repo,
		cfg:          cfg,
		executor:     executor,
		stopCh:       make(chan struct{}),
		lastActivity: time.Now(),
	}
}

// Start begins the worker's poll loop in a goroutine.
func (w *Worker) Start(ctx context.Context) {
	w.wg.Add(1)
	go w.run(ctx)
}

// Stop signals the worker to stop and waits for its current job, if
// any, to finish. Safe to call more than once.
func (w *Worker) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	w.wg.Wait()
}

// Health reports this worker's current state.
func (w *Worker) Health() WorkerHealth {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return WorkerHealth{
		ID:            w.id,
		Working:       w.working,
		CurrentJobID:  w.currentJobID,
		JobsProcessed: w.jobsProcessed,
		LastActivity:  w.lastActivity,
	}
}

func (w *Worker) run(ctx context.Context) {
	defer w.wg.Done()

	log := slog.With("worker_id", w.id)
	log.Info("queue worker started")

	for {
		select {
		case <-w.stopCh:
			log.Info("queue worker shutting down")
			return
		case <-ctx.Done():
			log.Info("context cancelled, queue worker shutting down")
			return
		default:
			if err := w.pollAndProcess(ctx); err != nil {
				if errors.Is(err, store.ErrNoJobAvailable) {
					w.sleep(w.pollInterval())
					continue
				}
				log.Error("error processing job", "error", err)
				w.sleep(time.Second)
			}
		}
	}
}

func (w *Worker) sleep(d time.Duration) {
	select {
	case <-w.stopCh:
	case <-time.After(d):
	}
}

func (w *Worker) pollAndProcess(ctx context.Context) error {
	job, err := w.repo.Dequeue(ctx, w.bananaFilter)
	if err != nil {
		return err
	}

	log := slog.With("job_id", job.ID, "job_type", job.JobType, "worker_id", w.id)
	log.Info("job claimed")

	w.setWorking(job.ID)
	defer w.setIdle()

	jobCtx, cancel := context.WithTimeout(ctx, w.cfg.JobTimeout)
	defer cancel()

	execErr := w.executor.Execute(jobCtx, job)

	if execErr == nil {
		if err := w.repo.MarkComplete(context.Background(), job.ID); err != nil {
			log.Error("failed to mark job complete", "error", err)
			return err
		}
		w.mu.Lock()
		w.jobsProcessed++
		w.mu.Unlock()
		log.Info("job completed")
		return nil
	}

	if errors.Is(jobCtx.Err(), context.DeadlineExceeded) {
		execErr = fmt.Errorf("job timed out after %v: %w", w.cfg.JobTimeout, execErr)
	}

	retryable := !IsPermanent(execErr)
	if err := w.repo.MarkFailed(context.Background(), job.ID, execErr.Error(), retryable); err != nil {
		log.Error("failed to mark job failed", "error", err)
		return err
	}
	log.Warn("job failed", "error", execErr, "retryable", retryable)
	return nil
}

func (w *Worker) pollInterval() time.Duration {
	base := w.cfg.PollInterval
	jitter := w.cfg.PollIntervalJitter
	if jitter <= 0 {
		return base
	}
	offset := time.Duration(rand.Int64N(int64(2 * jitter)))
	return base - jitter + offset
}

func (w *Worker) setWorking(jobID string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.working = true
	w.currentJobID = jobID
	w.lastActivity = time.Now()
}

func (w *Worker) setIdle() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.working = false
	w.currentJobID = ""
	w.lastActivity = time.Now()
}
