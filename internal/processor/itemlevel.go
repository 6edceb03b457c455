package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/engagic/core/internal/models"
	"github.com/engagic/core/internal/parsing"
	"github.com/engagic/core/internal/policy"
	"github.com/engagic/core/internal/store"
)

// processItemLevel implements spec §4.5.1, the golden path: every item
// that still needs a summary is routed to one of three outcomes —
// backfilled straight from an unchanged matter's canonical summary,
// deferred to a standalone MatterJob when a matter's attachments
// changed after it was already canonically summarized elsewhere, or
// summarized inline — before the meeting row itself is finalized with
// aggregated topics and participation info. Ported from
// original_source/pipeline/processor.py's _process_meeting_with_items.
func (p *Processor) processItemLevel(ctx context.Context, meeting *models.Meeting, items []*models.AgendaItem) error {
	start := time.Now()
	log := p.log.With(slog.String("meeting_id", meeting.ID))

	pending := make([]*models.AgendaItem, 0, len(items))
	matterIDs := make([]string, 0)
	seenMatterID := make(map[string]bool)
	for _, item := range items {
		if !item.NeedsProcessing() {
			continue
		}
		pending = append(pending, item)
		if item.MatterID != nil && *item.MatterID != "" && !seenMatterID[*item.MatterID] {
			seenMatterID[*item.MatterID] = true
			matterIDs = append(matterIDs, *item.MatterID)
		}
	}

	matters, err := p.store.Matters.GetBatch(ctx, matterIDs)
	if err != nil {
		return fmt.Errorf("processor: load matters for meeting %q: %w", meeting.ID, err)
	}

	var toProcess []*models.AgendaItem
	newMatterForItem := make(map[string]string)
	deferred := make(map[string][]string)

	for _, item := range pending {
		if item.MatterID == nil || *item.MatterID == "" {
			toProcess = append(toProcess, item)
			continue
		}
		matter := matters[*item.MatterID]
		should, reason := p.matterDec.ShouldEnqueue(matter, item.AttachmentHash, len(item.Attachments) > 0)
		if !should {
			if matter != nil && matter.CanonicalSummary != "" {
				if err := p.store.Items.UpdateSummary(ctx, item.ID, matter.CanonicalSummary, matter.CanonicalTopics); err != nil {
					return err
				}
				item.Summary = matter.CanonicalSummary
				item.Topics = matter.CanonicalTopics
			} else {
				log.Debug("item skipped", slog.String("item_id", item.ID), slog.String("reason", reason))
			}
			continue
		}
		if matter != nil && matter.CanonicalSummary != "" {
			deferred[*item.MatterID] = append(deferred[*item.MatterID], item.ID)
			continue
		}
		toProcess = append(toProcess, item)
		if matter != nil {
			newMatterForItem[item.ID] = matter.ID
		}
	}

	for matterID, itemIDs := range deferred {
		priority := p.matterDec.Priority(meeting.Date)
		_, err := p.jobs.EnqueueMatterJob(ctx, meeting.Banana, priority, models.MatterJob{
			MatterID:  matterID,
			MeetingID: meeting.ID,
			ItemIDs:   itemIDs,
		})
		if err != nil && !errors.Is(err, store.ErrAlreadyQueued) {
			return fmt.Errorf("processor: enqueue matter job for %q: %w", matterID, err)
		}
	}

	cache := buildDocumentCache(ctx, toProcess, p.extractor, p.store.Cache, log)
	sharedCtx := cache.sharedContext()

	jobs := make([]summarizeJob, 0, len(toProcess))
	for _, item := range toProcess {
		text, pages := cache.itemText(item.ID)
		if sharedCtx != "" {
			if text != "" {
				text = sharedCtx + "\n\n" + text
			} else {
				text = sharedCtx
			}
		}
		jobs = append(jobs, summarizeJob{item: item, text: text, pages: pages})
	}

	for _, chunk := range chunkItems(jobs, p.cfg.LLMConcurrency) {
		for _, outcome := range p.summarizeChunk(ctx, chunk) {
			item := outcome.job.item
			if outcome.err != nil {
				log.Warn("item summarization failed", slog.String("item_id", item.ID), slog.String("error", outcome.err.Error()))
				continue
			}
			topics := policy.NormalizeTopics(outcome.resp.Topics)
			if err := p.store.Items.UpdateSummary(ctx, item.ID, outcome.resp.Summary, topics); err != nil {
				return err
			}
			item.Summary = outcome.resp.Summary
			item.Topics = topics

			if matterID, ok := newMatterForItem[item.ID]; ok {
				hash := models.AttachmentSetHash(item.Attachments)
				if err := p.store.Matters.WriteCanonicalSummary(ctx, matterID, outcome.resp.Summary, topics, hash); err != nil {
					return err
				}
			}
		}
	}

	var allTopics []string
	for _, item := range items {
		allTopics = append(allTopics, item.Topics...)
	}
	meeting.Topics = policy.NormalizeTopics(allTopics)

	if participation := aggregateParticipation(items, cache, p.cfg.ParticipationScanChars); participation != nil {
		participation.MeetingID = meeting.ID
		if meeting.Participation == nil {
			meeting.Participation = participation
		} else {
			meeting.Participation.MergeFirstNonEmpty(*participation)
		}
	}

	meeting.ProcessingMethod = fmt.Sprintf("item_level_%d_items", len(items))
	meeting.ProcessingStatus = models.ProcessingStatusCompleted
	elapsed := time.Since(start)
	meeting.ProcessingTime = &elapsed

	return p.store.Meetings.UpdateProcessingResult(ctx, meeting)
}

// aggregateParticipation merges participation info parsed from the
// first and last agenda items' cached attachment text (spec §4.5.1 step
// 7): first non-empty field wins between the two, the same rule
// Participation.MergeFirstNonEmpty applies when the result is then
// combined with the meeting's existing participation record.
func aggregateParticipation(items []*models.AgendaItem, cache *documentCache, scanChars int) *models.Participation {
	if len(items) == 0 {
		return nil
	}
	candidates := []*models.AgendaItem{items[0]}
	if len(items) > 1 {
		candidates = append(candidates, items[len(items)-1])
	}

	var merged *models.Participation
	for _, item := range candidates {
		text, _ := cache.itemText(item.ID)
		if text == "" {
			continue
		}
		if scanChars > 0 && len(text) > scanChars {
			text = text[:scanChars]
		}
		info := parsing.ParseParticipationInfo(text)
		if info == nil {
			continue
		}
		if merged == nil {
			merged = info
		} else {
			merged.MergeFirstNonEmpty(*info)
		}
	}
	return merged
}
