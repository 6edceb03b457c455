// Package processor turns a queued meeting or matter job into stored
// summaries: it implements internal/queue's Executor contract, grounded
// in original_source/pipeline/processor.py's Processor class (job
// dispatch, item-level batch assembly with a shared document cache,
// monolithic packet fallback, and matter canonical-summary writes).
// Where the original's AsyncAnalyzer folds extraction, batching, and
// LLM calls into one object, this package keeps extract.Extractor and
// llmclient.Summarizer as separate collaborators — the shape tarsy's
// own services use throughout (one small client per external system).
package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/engagic/core/internal/extract"
	"github.com/engagic/core/internal/llmclient"
	"github.com/engagic/core/internal/models"
	"github.com/engagic/core/internal/policy"
	"github.com/engagic/core/internal/queue"
	"github.com/engagic/core/internal/store"
)

// Config controls processing concurrency and timeouts.
type Config struct {
	// LLMConcurrency bounds how many summarization calls run at once
	// per job (spec §4.5.1 step 5; original_source submits one "batch"
	// to the analyzer, which internally fans out with its own
	// semaphore — this is the Go equivalent of that internal limit).
	LLMConcurrency int
	// ItemTimeout bounds one item's summarization call.
	ItemTimeout time.Duration
	// MonolithicTimeout bounds the single-call packet summarization path.
	MonolithicTimeout time.Duration
	// ParticipationScanChars is how much extracted text is scanned for
	// contact/streaming info: the packet text on the monolithic path, and
	// each of the first and last items' attachment text on the item-level
	// path (ported from the original's text[:5000] slice).
	ParticipationScanChars int
}

// DefaultConfig returns the pipeline's default concurrency and timeout
// posture (spec §6).
func DefaultConfig() *Config {
	return &Config{
		LLMConcurrency:         3,
		ItemTimeout:            5 * time.Minute,
		MonolithicTimeout:      10 * time.Minute,
		ParticipationScanChars: 5000,
	}
}

// Processor is the queue.Executor that does the actual summarization
// work (spec §4.5).
type Processor struct {
	store      *store.Store
	jobs       *queue.Queue
	extractor  extract.Extractor
	summarizer llmclient.Summarizer
	matterDec  policy.MatterEnqueueDecider
	cfg        *Config
	log        *slog.Logger
}

// New builds a Processor. jobs is used to enqueue follow-up MatterJobs
// when item-level processing (§4.5.1) finds a matter whose attachments
// changed since it was last canonically summarized and which has
// already appeared elsewhere — that case is handed off to
// ProcessMatterJob (§4.5.3) instead of being resolved inline, so every
// appearance gets backfilled, not just the one in the triggering
// meeting.
func New(s *store.Store, jobs *queue.Queue, extractor extract.Extractor, summarizer llmclient.Summarizer, cfg *Config, log *slog.Logger) *Processor {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	return &Processor{store: s, jobs: jobs, extractor: extractor, summarizer: summarizer, cfg: cfg, log: log}
}

// Execute dispatches a claimed job to meeting or matter processing (spec
// §4.5's job-type dispatch). The worker owns job-level timeout and
// retry decisions; Execute only decides whether a failure is permanent.
func (p *Processor) Execute(ctx context.Context, job *models.QueueJob) error {
	switch job.JobType {
	case models.JobTypeMeeting:
		mj, err := job.DecodeMeetingJob()
		if err != nil {
			return &queue.PermanentError{Err: err}
		}
		meeting, err := p.store.Meetings.Get(ctx, mj.MeetingID)
		if errors.Is(err, store.ErrNotFound) {
			return &queue.PermanentError{Err: fmt.Errorf("processor: meeting %q not found", mj.MeetingID)}
		}
		if err != nil {
			return fmt.Errorf("processor: load meeting %q: %w", mj.MeetingID, err)
		}
		return p.ProcessMeeting(ctx, meeting)

	case models.JobTypeMatter:
		mj, err := job.DecodeMatterJob()
		if err != nil {
			return &queue.PermanentError{Err: err}
		}
		return p.ProcessMatterJob(ctx, mj)

	default:
		return &queue.PermanentError{Err: fmt.Errorf("processor: unknown job type %q", job.JobType)}
	}
}
