package processor

import (
	"context"
	"log/slog"

	"github.com/engagic/core/internal/models"
)

// ProcessMeeting implements spec §4.5's top-level choice: item-level
// processing when the meeting has agenda items (the golden path, spec
// §4.5.1), monolithic packet processing when it has none but carries a
// packet URL (spec §4.5.2), or nothing at all for a display-only
// meeting with neither — ported from
// original_source/pipeline/processor.py's process_meeting.
func (p *Processor) ProcessMeeting(ctx context.Context, meeting *models.Meeting) error {
	log := p.log.With(slog.String("meeting_id", meeting.ID), slog.String("meeting_title", meeting.Title))

	items, err := p.store.Items.ListForMeeting(ctx, meeting.ID)
	if err != nil {
		return err
	}

	if err := p.store.Meetings.SetProcessingStatus(ctx, meeting.ID, models.ProcessingStatusProcessing); err != nil {
		return err
	}

	var procErr error
	if len(items) > 0 {
		log.Info("found items for meeting", slog.Int("item_count", len(items)))
		procErr = p.processItemLevel(ctx, meeting, items)
	} else if len(meeting.PacketURLs) > 0 {
		log.Info("processing packet as monolithic unit - no items found")
		procErr = p.processMonolithic(ctx, meeting)
	} else {
		log.Info("meeting has no agenda items or packet - stored for display only")
		return p.store.Meetings.SetProcessingStatus(ctx, meeting.ID, models.ProcessingStatusCompleted)
	}

	if procErr != nil {
		// The meeting's own processing_status is left in "processing"
		// here: the queue job itself is marked failed by the worker
		// (spec §4.8), and the worker pool's stale sweep
		// (store.MeetingRepo.ResetStaleProcessing, run alongside
		// QueueRepo.SweepStale) will reset processing_status back to
		// pending once the threshold passes, rather than this call
		// racing the worker's own failure bookkeeping by writing
		// "failed" directly.
		return procErr
	}
	return nil
}
