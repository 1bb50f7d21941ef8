// Package migrations runs the schema migrations of every module and of the
// River job queue.
package migrations

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/riverqueue/river/riverdriver/riverpgxv5"
	"github.com/riverqueue/river/rivermigrate"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	osuvsmigrations "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/repositories/migrations"
)

// Module pairs a module name with its bun migrations.
type Module struct {
	Name       string
	Migrations *migrate.Migrations
}

// Modules lists module migrations in the order they must run.
var Modules = []Module{
	{Name: "osuvs", Migrations: osuvsmigrations.Migrations},
}

// Migrators returns a bun migrator per module.
func Migrators(db *bun.DB) map[string]*migrate.Migrator {
	migrators := make(map[string]*migrate.Migrator, len(Modules))
	for _, mod := range Modules {
		migrators[mod.Name] = migrate.NewMigrator(db, mod.Migrations)
	}
	return migrators
}

// Up initialises the migration tables and applies every pending migration.
// River migrations run first when dsn is set.
func Up(ctx context.Context, db *bun.DB, dsn string, logger *slog.Logger) error {
	if dsn != "" {
		if err := RiverUp(ctx, dsn, logger); err != nil {
			return err
		}
	}

	for _, mod := range Modules {
		migrator := migrate.NewMigrator(db, mod.Migrations)
		if err := migrator.Init(ctx); err != nil {
			return fmt.Errorf("failed to initialize migration tables: %w", err)
		}
		group, err := migrator.Migrate(ctx)
		if err != nil {
			return fmt.Errorf("failed to run %s migrations: %w", mod.Name, err)
		}
		if group.IsZero() {
			logger.InfoContext(ctx, "No new migrations", slog.String("module", mod.Name))
		} else {
			logger.InfoContext(ctx, "Migrated module", slog.String("module", mod.Name), slog.String("group", group.String()))
		}
	}
	return nil
}

// RiverUp applies the River queue migrations.
func RiverUp(ctx context.Context, dsn string, logger *slog.Logger) error {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return fmt.Errorf("failed to create pgx pool for River migrations: %w", err)
	}
	defer pool.Close()

	migrator, err := rivermigrate.New(riverpgxv5.New(pool), nil)
	if err != nil {
		return fmt.Errorf("failed to create River migrator: %w", err)
	}
	res, err := migrator.Migrate(ctx, rivermigrate.DirectionUp, &rivermigrate.MigrateOpts{})
	if err != nil {
		return fmt.Errorf("failed to run River migrations: %w", err)
	}
	logger.InfoContext(ctx, "River migrations applied", slog.Int("versions", len(res.Versions)))
	return nil
}
