// Package queue wraps store.QueueRepo with the worker-pool machinery
// that actually drains it: typed enqueue helpers, a poll-claim-execute
// worker loop, and a stale-job sweeper, grounded in tarsy's
// pkg/queue/{worker,pool,types}.go session-queue pool, generalized here
// from one queue (alert sessions) to two job kinds (meetings, matters).
package queue

import (
	"context"
	"errors"
	"time"

	"github.com/engagic/core/internal/models"
)

// ErrNoJobsAvailable indicates no pending job matched the poll. It is a
// separate value from store.ErrNoJobAvailable and does not wrap it; the
// worker loop checks store.ErrNoJobAvailable.
var ErrNoJobsAvailable = errors.New("queue: no jobs available")

// PermanentError marks a job failure as non-retryable: the job moves
// straight to failed instead of being retried and possibly
// dead-lettered. Processors wrap errors in this when the payload itself
// is unprocessable (e.g. a malformed matter ID), as opposed to a
// transient extraction or LLM failure.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// IsPermanent reports whether err (or anything it wraps) is a
// PermanentError.
func IsPermanent(err error) bool {
	var p *PermanentError
	return errors.As(err, &p)
}

// Executor processes one claimed job. It owns the entire job lifecycle
// internally (spec §4.5/§4.6): the worker only handles claiming,
// timeout enforcement, and terminal status update.
type Executor interface {
	Execute(ctx context.Context, job *models.QueueJob) error
}

// Config controls worker pool sizing and polling behavior, mirroring
// tarsy's QueueConfig field-for-field but renamed for jobs rather than
// sessions.
type Config struct {
	WorkerCount             int
	JobTimeout              time.Duration
	PollInterval            time.Duration
	PollIntervalJitter      time.Duration
	GracefulShutdownTimeout time.Duration
	StaleSweepInterval      time.Duration
	StaleAfter              time.Duration
}

// DefaultConfig returns the built-in worker pool defaults (spec §6: 3
// workers, 60 min staleness).
func DefaultConfig() *Config {
	return &Config{
		WorkerCount:             3,
		JobTimeout:              10 * time.Minute,
		PollInterval:            2 * time.Second,
		PollIntervalJitter:      500 * time.Millisecond,
		GracefulShutdownTimeout: 10 * time.Minute,
		StaleSweepInterval:      5 * time.Minute,
		StaleAfter:              60 * time.Minute,
	}
}

// WorkerHealth reports one worker's current state.
type WorkerHealth struct {
	ID            string    `json:"id"`
	Working       bool      `json:"working"`
	CurrentJobID  string    `json:"current_job_id,omitempty"`
	JobsProcessed int       `json:"jobs_processed"`
	LastActivity  time.Time `json:"last_activity"`
}

// PoolHealth reports the worker pool's aggregate state.
type PoolHealth struct {
	Healthy        bool           `json:"healthy"`
	ActiveWorkers  int            `json:"active_workers"`
	TotalWorkers   int            `json:"total_workers"`
	WorkerStats    []WorkerHealth `json:"worker_stats"`
	LastStaleSweep time.Time      `json:"last_stale_sweep"`
	StaleRecovered int            `json:"stale_recovered"`
}
