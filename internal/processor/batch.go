package processor

import (
	"context"
	"sort"
	"sync"

	"github.com/engagic/core/internal/llmclient"
	"github.com/engagic/core/internal/models"
)

// summarizeJob is one item's prompt, ready to submit to the LLM.
type summarizeJob struct {
	item  *models.AgendaItem
	text  string
	pages int
}

// summarizeOutcome pairs one job's result with its original index so
// concurrent results can be restored to submission order, the same
// indexed-channel-then-sort shape tarsy's executor.go uses to collect
// concurrent per-agent results (collectAndSort/indexedAgentResult),
// adapted here with a fixed-size concurrency chunk (spec §4.5.1 step 5:
// "Bounded semaphore (default 3)") in place of tarsy's per-stage
// unbounded fan-out.
type summarizeOutcome struct {
	index int
	job   summarizeJob
	resp  *llmclient.Response
	err   error
}

// chunkItems splits jobs into groups of at most size, preserving order.
func chunkItems(jobs []summarizeJob, size int) [][]summarizeJob {
	if size <= 0 {
		size = 1
	}
	var chunks [][]summarizeJob
	for size < len(jobs) {
		jobs, chunks = jobs[size:], append(chunks, jobs[:size:size])
	}
	if len(jobs) > 0 {
		chunks = append(chunks, jobs)
	}
	return chunks
}

// summarizeChunk runs every job in one chunk concurrently (chunk size is
// already bounded to cfg.LLMConcurrency, so no further semaphore is
// needed within it) and returns results restored to submission order.
func (p *Processor) summarizeChunk(ctx context.Context, chunk []summarizeJob) []summarizeOutcome {
	results := make(chan summarizeOutcome, len(chunk))
	var wg sync.WaitGroup

	for i, job := range chunk {
		wg.Add(1)
		go func(idx int, j summarizeJob) {
			defer wg.Done()
			itemCtx, cancel := context.WithTimeout(ctx, p.cfg.ItemTimeout)
			defer cancel()
			resp, err := p.summarizer.Summarize(itemCtx, llmclient.Request{Text: j.text, Title: j.item.Title})
			results <- summarizeOutcome{index: idx, job: j, resp: resp, err: err}
		}(i, job)
	}

	wg.Wait()
	close(results)

	collected := make([]summarizeOutcome, 0, len(chunk))
	for r := range results {
		collected = append(collected, r)
	}
	sort.Slice(collected, func(a, b int) bool { return collected[a].index < collected[b].index })
	return collected
}
