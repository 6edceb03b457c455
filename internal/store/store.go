// Package store is the content store: a pooled connection to Postgres
// plus one repository per entity, composed behind a single Store value
// (spec §9: "inheritance -> composition... a Store value that holds a
// pool and N repositories"). All multi-table writes go through Store.WithTx
// so they commit or roll back together; batched reads avoid N+1 queries.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
)

// Config mirrors tarsy's pkg/database Config: DSN plus pool sizing.
type Config struct {
	DSN             string
	MaxOpenConns    int
	MaxIdleConns    int
	MaxConnIdleTime time.Duration
	QueryDebug      bool
}

// DefaultConfig returns sane pool defaults matching spec §5's "min 10,
// max 100" connection pool guidance.
func DefaultConfig(dsn string) *Config {
	return &Config{
		DSN:             dsn,
		MaxOpenConns:    100,
		MaxIdleConns:    10,
		MaxConnIdleTime: 30 * time.Minute,
	}
}

// Store is the composition root for every repository. A new Store owns
// its own pgx pool; Close releases it.
type Store struct {
	pool *pgxpool.Pool
	db   *bun.DB

	Cities       *CityRepo
	Meetings     *MeetingRepo
	Items        *ItemRepo
	Matters      *MatterRepo
	Appearances  *MatterAppearanceRepo
	Committees   *CommitteeRepo
	Members      *CouncilMemberRepo
	Queue        *QueueRepo
	Cache        *CacheRepo
}

// New connects to Postgres and wires every repository against the same
// bun.DB, grounded in emergent's NewPgxPool/NewBunDB pairing but without
// the fx lifecycle wrapper tarsy and emergent both use elsewhere for
// dependency injection — this repo wires dependencies by hand in
// cmd/engagic/main.go, matching tarsy's own cmd/tarsy/main.go style.
func New(ctx context.Context, cfg *Config, log *slog.Logger) (*Store, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("store: parse pgx config: %w", err)
	}
	poolConfig.MaxConns = int32(cfg.MaxOpenConns)
	poolConfig.MinConns = int32(cfg.MaxIdleConns)
	poolConfig.MaxConnIdleTime = cfg.MaxConnIdleTime

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	pool, err := pgxpool.NewWithConfig(connectCtx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("store: create pgx pool: %w", err)
	}
	if err := pool.Ping(connectCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("store: ping database: %w", err)
	}

	sqldb := stdlib.OpenDBFromPool(pool)
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.QueryDebug {
		db.AddQueryHook(&queryLogHook{log: log})
	}

	log.Info("store connected", slog.Int("max_conns", cfg.MaxOpenConns))

	s := &Store{pool: pool, db: db}
	s.Cities = &CityRepo{db: db}
	s.Meetings = &MeetingRepo{db: db}
	s.Items = &ItemRepo{db: db}
	s.Matters = &MatterRepo{db: db}
	s.Appearances = &MatterAppearanceRepo{db: db}
	s.Committees = &CommitteeRepo{db: db}
	s.Members = &CouncilMemberRepo{db: db}
	s.Queue = &QueueRepo{db: db}
	s.Cache = &CacheRepo{db: db}
	return s, nil
}

// DB exposes the underlying bun.DB for migration runners and tests that
// need to drive raw SQL (e.g. goose migrations).
func (s *Store) DB() *bun.DB { return s.db }

// Close releases the connection pool.
func (s *Store) Close() error {
	return s.pool.Close()
}

// WithTx runs fn inside a single transaction, wired into a fresh Store
// view whose repositories all read/write through the same tx (via
// bun.IDB) so that ingestion's ten phases (spec §4.4) commit or roll
// back together. Grounded in emergent's SafeTx, adapted here as a
// closure-based helper in tarsy's preferred style (see
// services.SessionService.CreateSession's tx-wrapped multi-entity
// create) rather than exposing Begin/Commit/Rollback to callers.
func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore *Store) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("store: begin transaction: %w", err)
	}
	safe := &SafeTx{Tx: tx}
	defer safe.Rollback() //nolint:errcheck // best-effort; Commit marks it a no-op

	txStore := &Store{
		pool:        s.pool,
		db:          s.db,
		Cities:      &CityRepo{db: safe},
		Meetings:    &MeetingRepo{db: safe},
		Items:       &ItemRepo{db: safe},
		Matters:     &MatterRepo{db: safe},
		Appearances: &MatterAppearanceRepo{db: safe},
		Committees:  &CommitteeRepo{db: safe},
		Members:     &CouncilMemberRepo{db: safe},
		Queue:       &QueueRepo{db: safe},
		Cache:       &CacheRepo{db: safe},
	}

	if err := fn(ctx, txStore); err != nil {
		return err
	}
	return safe.Commit()
}

type queryLogHook struct {
	log *slog.Logger
}

func (h *queryLogHook) BeforeQuery(ctx context.Context, event *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogHook) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	duration := time.Since(event.StartTime)
	if event.Err != nil {
		h.log.Error("query error", slog.String("query", event.Query), slog.Any("error", event.Err))
		return
	}
	if duration > 3*time.Second {
		h.log.Warn("slow query", slog.String("query", event.Query), slog.Duration("duration", duration))
	}
}
