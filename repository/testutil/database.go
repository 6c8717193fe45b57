package testutil

import (
	"context"
	"testing"
	"time"

	"brandlens/database"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// TestDatabase wraps a throwaway postgres container with migrations applied
type TestDatabase struct {
	DB  *database.DB
	URL string
}

// SetupTestDatabase starts a postgres container, runs migrations against it
// and returns a ready connection. Cleanup is registered on the test.
func SetupTestDatabase(t *testing.T) *TestDatabase {
	t.Helper()
	ctx := context.Background()

	container, err := tcpostgres.Run(ctx,
		"postgres:16-alpine",
		tcpostgres.WithDatabase("brandlens_test"),
		tcpostgres.WithUsername("test"),
		tcpostgres.WithPassword("test"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err, "failed to start postgres container")
	t.Cleanup(func() {
		_ = container.Terminate(ctx)
	})

	url, err := container.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err, "failed to get connection string")

	require.NoError(t, database.RunMigrationsWithURL(url), "failed to run migrations")

	db, err := database.NewConnection(ctx, url)
	require.NoError(t, err, "failed to connect to test database")
	t.Cleanup(db.Close)

	return &TestDatabase{DB: db, URL: url}
}
