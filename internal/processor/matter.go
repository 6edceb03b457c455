package processor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/engagic/core/internal/llmclient"
	"github.com/engagic/core/internal/models"
	"github.com/engagic/core/internal/policy"
	"github.com/engagic/core/internal/queue"
	"github.com/engagic/core/internal/store"
)

// ProcessMatterJob implements spec §4.5.3: when a matter's attachments
// change after it has already been canonically summarized on an earlier
// appearance, item-level processing defers here instead of resolving
// the change inline, so the union of attachments across every
// appearance gets one summarization call and every referencing item —
// not just the one that triggered the change — gets back-filled.
// Grounded in original_source/pipeline/processor.py's
// _process_matter_update.
func (p *Processor) ProcessMatterJob(ctx context.Context, mj *models.MatterJob) error {
	log := p.log.With(slog.String("matter_id", mj.MatterID))

	matter, err := p.store.Matters.Get(ctx, mj.MatterID)
	if errors.Is(err, store.ErrNotFound) {
		return &queue.PermanentError{Err: fmt.Errorf("processor: matter %q not found", mj.MatterID)}
	}
	if err != nil {
		return fmt.Errorf("processor: load matter %q: %w", mj.MatterID, err)
	}

	items, err := p.store.Items.ListForMatter(ctx, mj.MatterID)
	if err != nil {
		return fmt.Errorf("processor: load items for matter %q: %w", mj.MatterID, err)
	}
	if len(items) == 0 {
		log.Warn("matter job has no referencing items, nothing to do")
		return nil
	}

	attachmentHash := unionAttachmentHash(items)

	cache := buildDocumentCache(ctx, items, p.extractor, p.store.Cache, log)
	text := cache.allText()
	if text == "" {
		log.Warn("no extractable attachment text for matter, skipping summarization")
		return nil
	}

	resp, err := p.summarizer.Summarize(ctx, llmclient.Request{Text: text, Title: matter.Title})
	if err != nil {
		return fmt.Errorf("processor: summarize matter %q: %w", mj.MatterID, err)
	}
	topics := policy.NormalizeTopics(resp.Topics)

	if err := p.store.Matters.WriteCanonicalSummary(ctx, matter.ID, resp.Summary, topics, attachmentHash); err != nil {
		return err
	}

	for _, item := range items {
		if err := p.store.Items.UpdateSummary(ctx, item.ID, resp.Summary, topics); err != nil {
			return err
		}
	}

	log.Info("matter job completed", slog.Int("items_backfilled", len(items)))
	return nil
}

// unionAttachmentHash hashes the deduplicated union of attachments
// across every item referencing a matter (spec §4.5.3: the matter-level
// hash tracked in metadata.attachment_hash is over this union, not any
// single appearance's attachments).
func unionAttachmentHash(items []*models.AgendaItem) string {
	seen := make(map[string]bool)
	var union []models.Attachment
	for _, item := range items {
		for _, a := range item.Attachments {
			key := a.URL + "\x00" + a.Name
			if seen[key] {
				continue
			}
			seen[key] = true
			union = append(union, a)
		}
	}
	return models.AttachmentSetHash(union)
}
