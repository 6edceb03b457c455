package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"github.com/engagic/core/internal/models"
)

// CityRepo persists City rows. Cities are created by operators, not the
// pipeline, so this repo is deliberately thin.
type CityRepo struct {
	db bun.IDB
}

// Get fetches one city by banana.
func (r *CityRepo) Get(ctx context.Context, banana string) (*models.City, error) {
	city := new(models.City)
	err := r.db.NewSelect().Model(city).Where("banana = ?", banana).Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("store: get city %q: %w", banana, err)
	}
	return city, nil
}

// List returns every city with the given status, or every city if
// status is empty.
func (r *CityRepo) List(ctx context.Context, status models.CityStatus) ([]*models.City, error) {
	var cities []*models.City
	q := r.db.NewSelect().Model(&cities)
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Scan(ctx); err != nil {
		return nil, fmt.Errorf("store: list cities: %w", err)
	}
	return cities, nil
}

// Upsert creates or updates a city by banana.
func (r *CityRepo) Upsert(ctx context.Context, city *models.City) error {
	_, err := r.db.NewInsert().
		Model(city).
		On("CONFLICT (banana) DO UPDATE").
		Set("vendor_name = EXCLUDED.vendor_name").
		Set("display_name = EXCLUDED.display_name").
		Set("state = EXCLUDED.state").
		Set("status = EXCLUDED.status").
		Set("updated_at = current_timestamp").
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("store: upsert city %q: %w", city.Banana, err)
	}
	return nil
}
