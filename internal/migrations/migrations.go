// Package migrations embeds the schema's SQL migration files and runs
// them through goose. Grounded in emergent-company-emergent's
// internal/migrate/migrate.go, which drives goose off a bun.DB's
// underlying *sql.DB the same way this package does — chosen over
// tarsy's golang-migrate because goose is the migration tool the pack's
// only working bun pairing actually uses (see DESIGN.md §3).
package migrations

import (
	"context"
	"embed"
	"fmt"
	"log/slog"

	"github.com/pressly/goose/v3"
	"github.com/uptrace/bun"
)

//go:embed migrations/*.sql
var FS embed.FS

// Runner drives goose migrations against a bun-backed Postgres database.
type Runner struct {
	db  *bun.DB
	log *slog.Logger
}

// NewRunner wraps db for migration purposes.
func NewRunner(db *bun.DB, log *slog.Logger) *Runner {
	return &Runner{db: db, log: log}
}

// Up runs every pending migration.
func (r *Runner) Up(ctx context.Context) error {
	r.log.Info("running database migrations")
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrations: set dialect: %w", err)
	}
	if err := goose.UpContext(ctx, r.db.DB, "migrations"); err != nil {
		return fmt.Errorf("migrations: up: %w", err)
	}
	r.log.Info("migrations completed")
	return nil
}

// Status reports the current applied-migration state, mirroring
// emergent's Migrator.Status for operational visibility.
func (r *Runner) Status(ctx context.Context) error {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("migrations: set dialect: %w", err)
	}
	if err := goose.StatusContext(ctx, r.db.DB, "migrations"); err != nil {
		return fmt.Errorf("migrations: status: %w", err)
	}
	return nil
}

// Version returns the current schema version.
func (r *Runner) Version(ctx context.Context) (int64, error) {
	goose.SetBaseFS(FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return 0, fmt.Errorf("migrations: set dialect: %w", err)
	}
	v, err := goose.GetDBVersionContext(ctx, r.db.DB)
	if err != nil {
		return 0, fmt.Errorf("migrations: version: %w", err)
	}
	return v, nil
}
