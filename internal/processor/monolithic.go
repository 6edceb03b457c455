package processor

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/engagic/core/internal/llmclient"
	"github.com/engagic/core/internal/models"
	"github.com/engagic/core/internal/parsing"
	"github.com/engagic/core/internal/policy"
)

// processMonolithic implements spec §4.5.2: a meeting with no agenda
// items but at least one packet URL is summarized as a single unit —
// every packet fetched and concatenated, one summarization call, one
// participation parse over the combined text. Ported from
// original_source/pipeline/processor.py's _process_meeting_monolithic.
func (p *Processor) processMonolithic(ctx context.Context, meeting *models.Meeting) error {
	start := time.Now()
	log := p.log.With(slog.String("meeting_id", meeting.ID))

	ctx, cancel := context.WithTimeout(ctx, p.cfg.MonolithicTimeout)
	defer cancel()

	var parts []string
	for _, url := range meeting.PacketURLs {
		result, err := p.extractor.Extract(ctx, url, "")
		if err != nil {
			log.Warn("failed to extract packet", slog.String("url", url), slog.String("error", err.Error()))
			continue
		}
		if result.Content == "" {
			continue
		}
		parts = append(parts, result.Content)
	}
	if len(parts) == 0 {
		return fmt.Errorf("processor: monolithic processing for meeting %q: no packet content extracted", meeting.ID)
	}
	text := strings.Join(parts, "\n\n")

	scanLen := p.cfg.ParticipationScanChars
	if scanLen <= 0 || scanLen > len(text) {
		scanLen = len(text)
	}
	if participation := parsing.ParseParticipationInfo(text[:scanLen]); participation != nil {
		participation.MeetingID = meeting.ID
		if meeting.Participation == nil {
			meeting.Participation = participation
		} else {
			meeting.Participation.MergeFirstNonEmpty(*participation)
		}
	}

	resp, err := p.summarizer.Summarize(ctx, llmclient.Request{Text: text, Title: meeting.Title})
	if err != nil {
		return fmt.Errorf("processor: summarize monolithic packet for meeting %q: %w", meeting.ID, err)
	}

	meeting.Summary = resp.Summary
	meeting.Topics = policy.NormalizeTopics(resp.Topics)
	meeting.ProcessingMethod = "monolithic"
	meeting.ProcessingStatus = models.ProcessingStatusCompleted
	elapsed := time.Since(start)
	meeting.ProcessingTime = &elapsed

	return p.store.Meetings.UpdateProcessingResult(ctx, meeting)
}
