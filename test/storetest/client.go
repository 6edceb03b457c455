// Package storetest spins up a disposable Postgres-backed store.Store
// for integration tests, mirroring tarsy's test/database/client.go: use
// an external CI database when CI_DATABASE_URL is set, otherwise spin
// up a testcontainer.
package storetest

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/engagic/core/internal/migrations"
	"github.com/engagic/core/internal/store"
)

// NewTestStore returns a *store.Store backed by a fresh, migrated
// Postgres database. The container (or connection) is cleaned up when
// the test ends.
func NewTestStore(t *testing.T) *store.Store {
	t.Helper()
	ctx := context.Background()

	dsn := os.Getenv("CI_DATABASE_URL")
	if dsn == "" {
		t.Log("using testcontainers for PostgreSQL")
		pgContainer, err := postgres.Run(ctx,
			"postgres:16-alpine",
			postgres.WithDatabase("test"),
			postgres.WithUsername("test"),
			postgres.WithPassword("test"),
			testcontainers.WithWaitStrategy(
				wait.ForLog("database system is ready to accept connections").
					WithOccurrence(2).
					WithStartupTimeout(30*time.Second)),
		)
		require.NoError(t, err)
		t.Cleanup(func() {
			if err := testcontainers.TerminateContainer(pgContainer); err != nil {
				t.Logf("failed to terminate container: %v", err)
			}
		})

		connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
		require.NoError(t, err)
		dsn = connStr
	} else {
		t.Log("using external PostgreSQL from CI_DATABASE_URL")
	}

	s, err := store.New(ctx, store.DefaultConfig(dsn), noopLogger())
	require.NoError(t, err)

	runner := migrations.NewRunner(s.DB(), noopLogger())
	require.NoError(t, runner.Up(ctx))

	t.Cleanup(func() {
		_ = s.Close()
	})

	return s
}
