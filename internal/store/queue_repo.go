package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/engagic/core/internal/models"
)

// ErrAlreadyQueued is the sentinel "already queued" result spec §4.3
// calls for when Enqueue finds an existing pending or fresh-processing
// job for the same source_url: not an error condition, just a no-op
// signal the caller can choose to log at debug level.
var ErrAlreadyQueued = errors.New("store: job already queued")

// QueueRepo persists QueueJob rows and implements the durable priority
// queue's enqueue/dequeue/completion/retry semantics (spec §4.3).
type QueueRepo struct {
	db bun.IDB
}

// EnqueueParams describes a job to enqueue or re-enqueue.
type EnqueueParams struct {
	JobType   models.JobType
	Payload   string
	Banana    string
	Priority  int
	SourceURL string
}

// Enqueue implements the upsert table from spec §4.3, keyed on
// source_url:
//
//	new                             -> insert, pending
//	pending                         -> no-op ("already queued")
//	processing, age < staleness     -> no-op ("already queued")
//	processing, age >= staleness    -> reset to pending, retry_count++
//	completed/failed/dead_letter    -> reset to pending, clear error
//
// The inline stale-processing check (rather than relying solely on the
// periodic sweep) is grounded in original_source/database/repositories/queue.py,
// which folds the same check into its enqueue path.
func (r *QueueRepo) Enqueue(ctx context.Context, p EnqueueParams, staleAfter time.Duration) (jobID string, err error) {
	existing := new(models.QueueJob)
	err = r.db.NewSelect().Model(existing).Where("source_url = ?", p.SourceURL).Scan(ctx)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("store: enqueue lookup %q: %w", p.SourceURL, err)
	}

	if errors.Is(err, sql.ErrNoRows) {
		job := &models.QueueJob{
			ID:        uuid.NewString(),
			JobType:   p.JobType,
			Payload:   p.Payload,
			Banana:    p.Banana,
			Priority:  p.Priority,
			Status:    models.JobStatusPending,
			SourceURL: p.SourceURL,
		}
		if _, err := r.db.NewInsert().Model(job).Exec(ctx); err != nil {
			return "", fmt.Errorf("store: insert job %q: %w", p.SourceURL, err)
		}
		return job.ID, nil
	}

	switch existing.Status {
	case models.JobStatusPending:
		return "", ErrAlreadyQueued
	case models.JobStatusProcessing:
		if existing.StartedAt == nil || time.Since(*existing.StartedAt) < staleAfter {
			return "", ErrAlreadyQueued
		}
		_, err := r.db.NewUpdate().Model((*models.QueueJob)(nil)).
			Set("status = ?", models.JobStatusPending).
			Set("started_at = NULL").
			Set("retry_count = retry_count + 1").
			Set("error_message = ?", "auto-recovered from stale processing state").
			Where("id = ?", existing.ID).
			Exec(ctx)
		if err != nil {
			return "", fmt.Errorf("store: recover stale job %q: %w", existing.ID, err)
		}
		return existing.ID, nil
	default: // completed, failed, dead_letter
		_, err := r.db.NewUpdate().Model((*models.QueueJob)(nil)).
			Set("status = ?", models.JobStatusPending).
			Set("payload = ?", p.Payload).
			Set("priority = ?", p.Priority).
			Set("retry_count = 0").
			Set("error_message = ''").
			Set("started_at = NULL").
			Set("completed_at = NULL").
			Set("failed_at = NULL").
			Where("id = ?", existing.ID).
			Exec(ctx)
		if err != nil {
			return "", fmt.Errorf("store: reset job %q to pending: %w", existing.ID, err)
		}
		return existing.ID, nil
	}
}

// ErrNoJobAvailable is returned by Dequeue when there is no pending job
// (matching every worker's expected empty-queue case, not an error
// condition).
var ErrNoJobAvailable = errors.New("store: no pending jobs available")

// Dequeue atomically claims the single highest-priority pending job
// (optionally scoped to one banana so cities don't block each other,
// spec §4.5) using `FOR UPDATE SKIP LOCKED`, guaranteeing at-most-one
// worker claims any given row even under many concurrent pollers (spec
// §4.3, testable property 5). This is bun's hand-written-SQL
// equivalent of tarsy's claimNextSession, which gets the same guarantee
// from ent's ForUpdate(sql.WithLockAction(sql.SkipLocked)) query
// builder call — bun has no equivalent builder method, so the locking
// clause is issued directly.
func (r *QueueRepo) Dequeue(ctx context.Context, banana string) (*models.QueueJob, error) {
	job := new(models.QueueJob)
	query := `
		UPDATE queue
		SET status = 'processing', started_at = now()
		WHERE id = (
			SELECT id FROM queue
			WHERE status = 'pending'`
	args := []any{}
	if banana != "" {
		query += ` AND banana = ?`
		args = append(args, banana)
	}
	query += `
			ORDER BY priority DESC, created_at ASC
			LIMIT 1
			FOR UPDATE SKIP LOCKED
		)
		RETURNING *`

	err := r.db.NewRaw(query, args...).Scan(ctx, job)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNoJobAvailable
		}
		return nil, fmt.Errorf("store: dequeue job: %w", err)
	}
	return job, nil
}

// MarkComplete marks a job completed (spec §4.3).
func (r *QueueRepo) MarkComplete(ctx context.Context, id string) error {
	_, err := r.db.NewUpdate().Model((*models.QueueJob)(nil)).
		Set("status = ?", models.JobStatusCompleted).
		Set("completed_at = now()").
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: mark job %q complete: %w", id, err)
	}
	return nil
}

// retryCap is the max number of retryable failures before a job moves
// to dead_letter (spec §4.3, §6's "Retry cap" default).
const retryCap = 3

// MarkFailed implements spec §4.3's failure handling: a retryable
// failure under the retry cap resets the job to pending with reduced
// priority (new_priority = current_priority - 20*(retry_count+1)); at
// or past the cap it moves to dead_letter; a non-retryable failure
// (e.g. malformed payload) marks the job failed without retry.
func (r *QueueRepo) MarkFailed(ctx context.Context, id, errMsg string, retryable bool) error {
	job := new(models.QueueJob)
	if err := r.db.NewSelect().Model(job).Where("id = ?", id).Scan(ctx); err != nil {
		return fmt.Errorf("store: mark job %q failed, lookup: %w", id, err)
	}

	if !retryable {
		_, err := r.db.NewUpdate().Model((*models.QueueJob)(nil)).
			Set("status = ?", models.JobStatusFailed).
			Set("failed_at = now()").
			Set("error_message = ?", errMsg).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("store: mark job %q permanently failed: %w", id, err)
		}
		return nil
	}

	newRetryCount := job.RetryCount + 1
	if newRetryCount >= retryCap {
		_, err := r.db.NewUpdate().Model((*models.QueueJob)(nil)).
			Set("status = ?", models.JobStatusDeadLetter).
			Set("retry_count = ?", newRetryCount).
			Set("failed_at = now()").
			Set("error_message = ?", errMsg).
			Where("id = ?", id).
			Exec(ctx)
		if err != nil {
			return fmt.Errorf("store: move job %q to dead letter: %w", id, err)
		}
		return nil
	}

	newPriority := job.Priority - 20*newRetryCount
	_, err := r.db.NewUpdate().Model((*models.QueueJob)(nil)).
		Set("status = ?", models.JobStatusPending).
		Set("retry_count = ?", newRetryCount).
		Set("priority = ?", newPriority).
		Set("started_at = NULL").
		Set("error_message = ?", errMsg).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: reset job %q for retry: %w", id, err)
	}
	return nil
}

// SweepStale resets any job stuck in processing for longer than
// staleAfter back to pending with retry_count incremented (spec §4.3's
// "periodic sweep", default 60 min). Returns the IDs reset.
func (r *QueueRepo) SweepStale(ctx context.Context, staleAfter time.Duration) ([]string, error) {
	var ids []string
	err := r.db.NewUpdate().Model((*models.QueueJob)(nil)).
		Set("status = ?", models.JobStatusPending).
		Set("started_at = NULL").
		Set("retry_count = retry_count + 1").
		Where("status = ?", models.JobStatusProcessing).
		Where("started_at < ?", time.Now().Add(-staleAfter)).
		Returning("id").
		Scan(ctx, &ids)
	if err != nil {
		return nil, fmt.Errorf("store: sweep stale jobs: %w", err)
	}
	return ids, nil
}

// ListDeadLetter supports the diagnostics query spec §7 mentions for
// dead-letter visibility.
func (r *QueueRepo) ListDeadLetter(ctx context.Context, banana string) ([]*models.QueueJob, error) {
	var jobs []*models.QueueJob
	q := r.db.NewSelect().Model(&jobs).Where("status = ?", models.JobStatusDeadLetter)
	if banana != "" {
		q = q.Where("banana = ?", banana)
	}
	if err := q.OrderExpr("failed_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("store: list dead-letter jobs: %w", err)
	}
	return jobs, nil
}
