package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/engagic/core/internal/models"
)

// CouncilMemberRepo persists CouncilMember rows and the sponsorship and
// vote junctions that reference them (spec §4.4 phase 8: "apply
// sponsors (upsert council members by normalized name...) and votes").
type CouncilMemberRepo struct {
	db bun.IDB
}

// UpsertByName finds or creates a council member by normalized name
// within one city — idempotent, matching the spec's "upsert council
// members by normalized name" requirement.
func (r *CouncilMemberRepo) UpsertByName(ctx context.Context, banana, name string) (*models.CouncilMember, error) {
	normalized := normalizeMemberName(name)
	member := new(models.CouncilMember)
	err := r.db.NewSelect().Model(member).
		Where("banana = ? AND normalized_name = ?", banana, normalized).
		Scan(ctx)
	if err == nil {
		return member, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("store: find council member by name: %w", err)
	}

	member = &models.CouncilMember{ID: uuid.NewString(), Banana: banana, Name: name, NormalizedName: normalized}
	if _, err := r.db.NewInsert().Model(member).Exec(ctx); err != nil {
		return nil, fmt.Errorf("store: insert council member: %w", err)
	}
	return member, nil
}

// LinkSponsorship records (matterID, memberID) idempotently: a second
// call for the same pair is a no-op, matching spec §4.4 phase 8's
// "idempotent sponsorship links."
func (r *CouncilMemberRepo) LinkSponsorship(ctx context.Context, matterID, memberID string) error {
	_, err := r.db.NewInsert().
		Model(&models.Sponsorship{MatterID: matterID, MemberID: memberID}).
		On("CONFLICT (matter_id, member_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: link sponsorship: %w", err)
	}
	return nil
}

// RecordVote upserts a vote keyed by (member_id, matter_id, meeting_id),
// matching spec §4.4 phase 8's "typed voting records."
func (r *CouncilMemberRepo) RecordVote(ctx context.Context, v *models.Vote) error {
	_, err := r.db.NewInsert().
		Model(v).
		On("CONFLICT (member_id, matter_id, meeting_id) DO UPDATE").
		Set("vote = EXCLUDED.vote").
		Set("sequence = EXCLUDED.sequence").
		Set("metadata = EXCLUDED.metadata").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: record vote: %w", err)
	}
	return nil
}

func normalizeMemberName(name string) string {
	return strings.ToLower(strings.Join(strings.Fields(name), " "))
}
