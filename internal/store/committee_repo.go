package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"github.com/engagic/core/internal/models"
)

// CommitteeRepo persists Committee rows and resolves the title lookup
// ingestion phase 4 uses to link a meeting to its committee.
type CommitteeRepo struct {
	db bun.IDB
}

// FindByNormalizedName looks up a committee by its normalized name
// within one city. Returns ErrNotFound if no committee matches — the
// caller treats that as "no committee link", not a failure (spec §4.4
// phase 4 describes the lookup as optional).
func (r *CommitteeRepo) FindByNormalizedName(ctx context.Context, banana, normalizedName string) (*models.Committee, error) {
	c := new(models.Committee)
	err := r.db.NewSelect().Model(c).
		Where("banana = ? AND normalized_name = ?", banana, normalizedName).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: find committee by name: %w", err)
	}
	return c, nil
}

// ListForCity returns every committee registered for one city, used by
// ingestion phase 4's substring-contains title match (a meeting title
// like "Planning Commission Regular Meeting" doesn't equal any
// committee's normalized_name outright, so the caller scans this list
// rather than relying on an exact-match index).
func (r *CommitteeRepo) ListForCity(ctx context.Context, banana string) ([]*models.Committee, error) {
	var committees []*models.Committee
	if err := r.db.NewSelect().Model(&committees).Where("banana = ?", banana).Scan(ctx); err != nil {
		return nil, fmt.Errorf("store: list committees for city %q: %w", banana, err)
	}
	return committees, nil
}

// Upsert inserts a committee by (banana, normalized_name) if one
// doesn't already exist, returning the persisted row.
func (r *CommitteeRepo) Upsert(ctx context.Context, banana, name, normalizedName string) (*models.Committee, error) {
	existing, err := r.FindByNormalizedName(ctx, banana, normalizedName)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	c := &models.Committee{ID: uuid.NewString(), Banana: banana, Name: name, NormalizedName: normalizedName}
	if _, err := r.db.NewInsert().Model(c).Exec(ctx); err != nil {
		return nil, fmt.Errorf("store: insert committee: %w", err)
	}
	return c, nil
}
