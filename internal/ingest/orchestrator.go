// Package ingest implements the ingestion orchestrator: it transforms
// one vendor meeting record into a persisted meeting, its agenda
// items, the matters those items reference, and the appearance
// junctions linking them, all inside a single transaction, then
// decides whether the meeting needs enqueuing for processing. Grounded
// in tarsy's pkg/services/session_service.go CreateSession, which
// builds a session plus its initial stage and agent execution inside
// one ent transaction — the same tx-wrapped multi-entity-create shape,
// generalized here from three related rows to a full meeting subgraph.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/engagic/core/internal/identity"
	"github.com/engagic/core/internal/models"
	"github.com/engagic/core/internal/policy"
	"github.com/engagic/core/internal/queue"
	"github.com/engagic/core/internal/store"
	"github.com/engagic/core/internal/vendoradapter"
)

// IngestResult summarizes what one Ingest call did, for logging and for
// the testable-property assertions in spec §8.
type IngestResult struct {
	MeetingID   string
	Skipped     bool
	SkipReason  string
	ItemCount   int
	MatterCount int
	Enqueued    bool
}

// Orchestrator runs the ten ingestion phases (spec §4.4).
type Orchestrator struct {
	store   *store.Store
	queue   *queue.Queue
	filter  *policy.MatterFilter
	decider policy.EnqueueDecider
	log     *slog.Logger
}

// NewOrchestrator builds an Orchestrator over s, enqueuing follow-up
// work through q.
func NewOrchestrator(s *store.Store, q *queue.Queue, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		store:   s,
		queue:   q,
		filter:  policy.NewMatterFilter(),
		decider: policy.EnqueueDecider{},
		log:     log,
	}
}

// Ingest runs all ten phases of spec §4.4 inside one transaction.
// Schema-validation failures are reported as a skipped result, not an
// error (spec §4.4: "logged and counted, not raised"); anything else
// that fails rolls back the whole transaction so nothing partially
// commits (spec invariant: ingestion is atomic per meeting).
func (o *Orchestrator) Ingest(ctx context.Context, banana string, rec vendoradapter.MeetingRecord) (*IngestResult, error) {
	log := o.log.With(slog.String("banana", banana), slog.String("vendor_meeting_id", rec.MeetingID))

	// Phase 1: validate adapter schema.
	if errs := rec.ValidateAll(); len(errs) > 0 {
		reason := errors.Join(errs...).Error()
		log.Warn("skipping vendor record that failed schema validation", slog.String("reason", reason))
		return &IngestResult{Skipped: true, SkipReason: reason}, nil
	}

	// Phase 2: parse meeting date. A NULL date is permitted.
	date, _ := vendoradapter.ParseStart(rec.Start)
	dateISO := ""
	if date != nil {
		dateISO = date.Format("2006-01-02")
	}

	// Phase 3: generate meeting ID.
	meetingID := identity.GenerateMeetingID(banana, rec.MeetingID, dateISO, rec.Title)
	log = log.With(slog.String("meeting_id", meetingID))

	result := &IngestResult{MeetingID: meetingID}
	err := o.store.WithTx(ctx, func(ctx context.Context, tx *store.Store) error {
		// Phase 4: look up committee by title (optional).
		committeeID, err := findCommittee(ctx, tx.Committees, banana, rec.Title)
		if err != nil {
			return fmt.Errorf("ingest: find committee: %w", err)
		}

		// Phase 5: build meeting record, preserving existing
		// summary/topics/processing_status on re-ingest.
		meeting, err := o.buildMeeting(ctx, tx, banana, meetingID, rec, date, committeeID)
		if err != nil {
			return err
		}

		// Phases 6-7: build agenda items, filtering procedural ones.
		items := o.buildItems(banana, meetingID, rec.Items)
		result.ItemCount = len(items)

		// Phase 8: store meeting, then matters, then items.
		if err := tx.Meetings.Upsert(ctx, meeting); err != nil {
			return fmt.Errorf("ingest: upsert meeting %q: %w", meetingID, err)
		}

		appearedAlready := make([]bool, len(items))
		matterCount := 0
		for i, item := range items {
			if item.MatterID == nil {
				continue
			}
			exists, err := tx.Appearances.Exists(ctx, *item.MatterID, meetingID, item.ID)
			if err != nil {
				return fmt.Errorf("ingest: check appearance for matter %q: %w", *item.MatterID, err)
			}
			appearedAlready[i] = exists
			if exists {
				// Idempotent re-ingest: this (matter, meeting, item)
				// tuple was already recorded, nothing to do.
				continue
			}
			matterCount++
			vendorItem := rec.Items[i]
			if err := o.applyMatter(ctx, tx, banana, meetingID, date, *item.MatterID, item, vendorItem); err != nil {
				return err
			}
		}
		result.MatterCount = matterCount

		for _, item := range items {
			if err := tx.Items.Upsert(ctx, item); err != nil {
				return fmt.Errorf("ingest: upsert item %q: %w", item.ID, err)
			}
		}

		// Phase 9: create matter appearances.
		for i, item := range items {
			if item.MatterID == nil || appearedAlready[i] {
				continue
			}
			appearance := &models.MatterAppearance{
				MatterID:    *item.MatterID,
				MeetingID:   meetingID,
				ItemID:      item.ID,
				CommitteeID: committeeID,
				Sequence:    item.Sequence,
			}
			if err := tx.Appearances.Create(ctx, appearance); err != nil {
				return fmt.Errorf("ingest: create appearance for matter %q: %w", *item.MatterID, err)
			}
		}

		// Phase 10: decide enqueue.
		shouldEnqueue, reason := o.decider.ShouldEnqueue(meeting, items)
		result.SkipReason = reason
		if shouldEnqueue {
			priority := o.decider.Priority(meeting)
			if _, err := o.queue.EnqueueMeetingJob(ctx, banana, priority, meeting); err != nil {
				if !errors.Is(err, store.ErrAlreadyQueued) {
					return fmt.Errorf("ingest: enqueue meeting job %q: %w", meetingID, err)
				}
			} else {
				result.Enqueued = true
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info("ingested meeting",
		slog.Int("item_count", result.ItemCount),
		slog.Int("matter_count", result.MatterCount),
		slog.Bool("enqueued", result.Enqueued))
	return result, nil
}

// buildMeeting implements phase 5: an existing meeting keeps its
// summary, topics, and processing state across re-ingests (spec
// invariant 4, "summary preservation"); everything vendor-sourced is
// overwritten with the latest record.
func (o *Orchestrator) buildMeeting(ctx context.Context, tx *store.Store, banana, meetingID string, rec vendoradapter.MeetingRecord, date *time.Time, committeeID *string) (*models.Meeting, error) {
	existing, err := tx.Meetings.Get(ctx, meetingID)
	switch {
	case err == nil:
		existing.Title = rec.Title
		existing.Date = date
		existing.AgendaURL = rec.AgendaURL
		existing.PacketURLs = []string(rec.PacketURL)
		existing.Status = models.MeetingStatus(rec.MeetingStatus)
		existing.CommitteeID = committeeID
		return existing, nil
	case errors.Is(err, store.ErrNotFound):
		return &models.Meeting{
			ID:               meetingID,
			Banana:           banana,
			Title:            rec.Title,
			Date:             date,
			AgendaURL:        rec.AgendaURL,
			PacketURLs:       []string(rec.PacketURL),
			Status:           models.MeetingStatus(rec.MeetingStatus),
			ProcessingStatus: models.ProcessingStatusPending,
			CommitteeID:      committeeID,
		}, nil
	default:
		return nil, fmt.Errorf("ingest: get existing meeting %q: %w", meetingID, err)
	}
}

// buildItems implements phases 6-7: derive each item's ID and
// attachment hash, then generate a matter ID unless the item is
// procedural or carries no identifier at all (vendor matter_file/
// matter_id first, falling back to a normalized-title key).
func (o *Orchestrator) buildItems(banana, meetingID string, records []vendoradapter.ItemRecord) []*models.AgendaItem {
	items := make([]*models.AgendaItem, 0, len(records))
	for _, rec := range records {
		item := &models.AgendaItem{
			ID:             meetingID + "_" + rec.ItemID,
			MeetingID:      meetingID,
			Title:          rec.Title,
			Sequence:       rec.Sequence,
			Attachments:    convertAttachments(rec.Attachments),
			AttachmentHash: computeAttachmentHash(rec.Attachments),
			MatterFile:     rec.MatterFile,
			MatterType:     rec.MatterType,
			AgendaNumber:   rec.AgendaNumber,
			Sponsors:       rec.Sponsors,
		}

		if o.filter.IsProcedural(rec.Title, rec.MatterType) {
			item.FilterReason = "procedural"
			items = append(items, item)
			continue
		}

		if rec.MatterFile != "" || rec.MatterID != "" {
			if id, err := identity.GenerateMatterID(banana, rec.MatterFile, rec.MatterID); err == nil {
				item.MatterID = &id
			}
		} else if key, ok := identity.NormalizeTitleForMatterID(rec.Title); ok {
			// No vendor identifier at all: the normalized title itself
			// becomes the matter's surrogate matter_file, so both ID
			// generation and the persisted Matter row agree on what
			// identifies it.
			if id, err := identity.GenerateMatterID(banana, key, ""); err == nil {
				item.MatterID = &id
				item.MatterFile = key
			}
		}
		items = append(items, item)
	}
	return items
}

// applyMatter implements the matter half of phase 8: create a brand
// new matter, or touch an existing one's last_seen/appearance_count
// and refresh its attachments if the hash changed, then apply the
// item's sponsors and votes.
func (o *Orchestrator) applyMatter(ctx context.Context, tx *store.Store, banana, meetingID string, date *time.Time, matterID string, item *models.AgendaItem, rec vendoradapter.ItemRecord) error {
	existing, err := tx.Matters.Get(ctx, matterID)
	switch {
	case errors.Is(err, store.ErrNotFound):
		matter := &models.Matter{
			ID:             matterID,
			Banana:         banana,
			MatterFile:     item.MatterFile,
			MatterVendorID: rec.MatterID,
			MatterType:     rec.MatterType,
			Title:          rec.Title,
			Sponsors:       rec.Sponsors,
			Attachments:    item.Attachments,
			FirstSeen:      date,
			LastSeen:       date,
		}
		if err := tx.Matters.Create(ctx, matter); err != nil {
			return fmt.Errorf("ingest: create matter %q: %w", matterID, err)
		}
	case err == nil:
		existing.LastSeen = maxTime(existing.LastSeen, date)
		existing.AppearanceCount++
		if item.AttachmentHash != existing.AttachmentHash() {
			// Refresh the attachment list only. metadata.attachment_hash
			// is the processor's fingerprint of the attachments its
			// canonical_summary was generated from (invariant 6) — it
			// must not be synced here, or ShouldEnqueue would see the
			// hash as already current and skip the matter job that's
			// supposed to regenerate the summary (spec §8 scenario 2).
			existing.Attachments = item.Attachments
		}
		if len(rec.Sponsors) > 0 {
			existing.Sponsors = rec.Sponsors
		}
		if err := tx.Matters.TouchAppearance(ctx, existing); err != nil {
			return fmt.Errorf("ingest: touch matter %q: %w", matterID, err)
		}
	default:
		return fmt.Errorf("ingest: get matter %q: %w", matterID, err)
	}

	for _, sponsor := range rec.Sponsors {
		member, err := tx.Members.UpsertByName(ctx, banana, sponsor)
		if err != nil {
			return fmt.Errorf("ingest: upsert sponsor %q: %w", sponsor, err)
		}
		if err := tx.Members.LinkSponsorship(ctx, matterID, member.ID); err != nil {
			return fmt.Errorf("ingest: link sponsorship for %q: %w", sponsor, err)
		}
	}

	for _, v := range rec.Votes {
		member, err := tx.Members.UpsertByName(ctx, banana, v.Name)
		if err != nil {
			return fmt.Errorf("ingest: upsert voter %q: %w", v.Name, err)
		}
		vote := &models.Vote{
			MemberID:  member.ID,
			MatterID:  matterID,
			MeetingID: meetingID,
			Vote:      v.Vote,
			Sequence:  v.Sequence,
			Metadata:  v.Metadata,
		}
		if err := tx.Members.RecordVote(ctx, vote); err != nil {
			return fmt.Errorf("ingest: record vote for %q: %w", v.Name, err)
		}
	}
	return nil
}

// maxTime returns whichever of a, b is later, treating a nil value as
// "no information" rather than the zero time.
func maxTime(a, b *time.Time) *time.Time {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	if b.After(*a) {
		return b
	}
	return a
}
