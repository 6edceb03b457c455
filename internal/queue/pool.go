package queue

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/engagic/core/internal/store"
)

// WorkerPool manages a fixed set of Workers plus the background sweep
// that reclaims jobs stuck in "processing" past staleAfter (spec §4.3's
// periodic sweep, replacing tarsy's session-specific orphan detection —
// here the staleness check lives in store.QueueRepo.SweepStale rather
// than a separate heartbeat column, since queue jobs have no in-flight
// heartbeat of their own). The same tick also resets any meeting whose
// own processing_status has been stuck in "processing" past the same
// threshold (spec invariant 7, §4.8) — a dead-lettered job otherwise
// leaves the meeting row itself stranded, since QueueRepo.SweepStale
// only ever touches queue rows.
type WorkerPool struct {
	podID    string
	repo     *store.QueueRepo
	meetings *store.MeetingRepo
	cfg      *Config
	executor Executor
	workers  []*Worker
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup

	mu      sync.Mutex
	started bool

	sweepMu        sync.Mutex
	lastSweep      time.Time
	staleRecovered int
}

// NewWorkerPool creates a pool of cfg.WorkerCount workers, unscoped by
// banana (every worker can claim any city's job). meetings may be nil
// (as in unit tests that never start the sweep against a real store),
// in which case the meeting-level half of the stale sweep is skipped.
func NewWorkerPool(podID string, repo *store.QueueRepo, cfg *Config, executor Executor, meetings *store.MeetingRepo) *WorkerPool {
	return &WorkerPool{
		podID:    podID,
		repo:     repo,
		meetings: meetings,
		cfg:      cfg,
		executor: executor,
		workers:  make([]*Worker, 0, cfg.WorkerCount),
		stopCh:   make(chan struct{}),
	}
}

// Start spawns the worker goroutines and the stale-sweep background
// task. Safe to call only once; subsequent calls are no-ops.
func (p *WorkerPool) Start(ctx context.Context) {
	p.mu.Lock()
	if p.started {
		p.mu.Unlock()
		slog.Warn("worker pool already started, ignoring duplicate Start call", "pod_id", p.podID)
		return
	}
	p.started = true
	p.mu.Unlock()

	slog.Info("starting queue worker pool", "pod_id", p.podID, "worker_count", p.cfg.WorkerCount)

	for i := 0; i < p.cfg.WorkerCount; i++ {
		workerID := fmt.Sprintf("%s-worker-%d", p.podID, i)
		w := NewWorker(workerID, "", p.repo, p.cfg, p.executor)
		p.workers = append(p.workers, w)
		w.Start(ctx)
	}

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		p.runStaleSweep(ctx)
	}()

	slog.Info("queue worker pool started")
}

// Stop signals every worker to stop and waits for in-flight jobs to
// finish (graceful shutdown), then stops the stale sweep.
func (p *WorkerPool) Stop() {
	slog.Info("stopping queue worker pool")
	for _, w := range p.workers {
		w.Stop()
	}
	p.stopOnce.Do(func() { close(p.stopCh) })
	p.wg.Wait()
	slog.Info("queue worker pool stopped")
}

func (p *WorkerPool) runStaleSweep(ctx context.Context) {
	ticker := time.NewTicker(p.cfg.StaleSweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-p.stopCh:
			return
		case <-ticker.C:
			ids, err := p.repo.SweepStale(ctx, p.cfg.StaleAfter)
			if err != nil {
				slog.Error("stale job sweep failed", "error", err)
				continue
			}
			p.sweepMu.Lock()
			p.lastSweep = time.Now()
			p.staleRecovered += len(ids)
			p.sweepMu.Unlock()
			if len(ids) > 0 {
				slog.Warn("recovered stale jobs", "count", len(ids), "job_ids", ids)
			}

			if p.meetings != nil {
				staleMinutes := int(p.cfg.StaleAfter.Minutes())
				meetingIDs, err := p.meetings.ResetStaleProcessing(ctx, staleMinutes)
				if err != nil {
					slog.Error("stale meeting processing_status sweep failed", "error", err)
					continue
				}
				if len(meetingIDs) > 0 {
					slog.Warn("reset stale meeting processing_status to pending", "count", len(meetingIDs), "meeting_ids", meetingIDs)
				}
			}
		}
	}
}

// Health reports the pool's aggregate state.
func (p *WorkerPool) Health() *PoolHealth {
	stats := make([]WorkerHealth, len(p.workers))
	active := 0
	for i, w := range p.workers {
		h := w.Health()
		stats[i] = h
		if h.Working {
			active++
		}
	}

	p.sweepMu.Lock()
	lastSweep := p.lastSweep
	recovered := p.staleRecovered
	p.sweepMu.Unlock()

	return &PoolHealth{
		Healthy:        len(p.workers) > 0,
		ActiveWorkers:  active,
		TotalWorkers:   len(p.workers),
		WorkerStats:    stats,
		LastStaleSweep: lastSweep,
		StaleRecovered: recovered,
	}
}
