package testutils

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/5joshi/OsuBelgiumBot/app"
	"github.com/5joshi/OsuBelgiumBot/app/migrations"
	"github.com/5joshi/OsuBelgiumBot/integration_tests/containers"
	"github.com/uptrace/bun"
)

// TestEnv holds the containers and connections shared by an integration test.
type TestEnv struct {
	DB      *bun.DB
	DSN     string
	NATSURL string
	Logger  *slog.Logger
}

// SetupTestEnv starts Postgres, and NATS when withNATS is set, and applies
// every migration. It skips the test in -short mode.
func SetupTestEnv(t *testing.T, withNATS bool) *TestEnv {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	env := &TestEnv{Logger: slog.New(slog.NewTextHandler(io.Discard, nil))}

	pg, dsn, err := containers.SetupPostgresContainer(ctx)
	if err != nil {
		t.Fatalf("postgres: %v", err)
	}
	t.Cleanup(func() { _ = pg.Terminate(context.Background()) })
	env.DSN = dsn

	env.DB = app.OpenDB(dsn)
	t.Cleanup(func() { _ = env.DB.Close() })

	if err := migrations.Up(ctx, env.DB, dsn, env.Logger); err != nil {
		t.Fatalf("migrations: %v", err)
	}

	if withNATS {
		nc, url, err := containers.SetupNatsContainer(ctx)
		if err != nil {
			t.Fatalf("nats: %v", err)
		}
		t.Cleanup(func() { _ = nc.Terminate(context.Background()) })
		env.NATSURL = url
	}
	return env
}

var appTables = []string{"osuvs_scores", "osuvs_maps"}

// CleanupDatabase truncates the application tables and the River job table.
func (e *TestEnv) CleanupDatabase(ctx context.Context) error {
	for _, table := range appTables {
		if _, err := e.DB.ExecContext(ctx, fmt.Sprintf("TRUNCATE TABLE %s", table)); err != nil {
			return fmt.Errorf("failed to truncate %s: %w", table, err)
		}
	}
	if _, err := e.DB.ExecContext(ctx, "DELETE FROM river_job"); err != nil {
		return fmt.Errorf("failed to cleanup river jobs: %w", err)
	}
	return nil
}
