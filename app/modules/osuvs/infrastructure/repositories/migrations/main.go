package osuvsmigrations

import (
	"context"
	"fmt"

	osuvsdb "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/infrastructure/repositories"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

var Migrations = migrate.NewMigrations()

// CreateTables creates the competition and highscore tables from the Bun models.
func CreateTables(ctx context.Context, db bun.IDB) error {
	for _, model := range []any{(*osuvsdb.Competition)(nil), (*osuvsdb.Highscore)(nil)} {
		if _, err := db.NewCreateTable().Model(model).IfNotExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to create table for %T: %w", model, err)
		}
	}
	return nil
}

// DropTables drops the competition and highscore tables.
func DropTables(ctx context.Context, db bun.IDB) error {
	for _, model := range []any{(*osuvsdb.Highscore)(nil), (*osuvsdb.Competition)(nil)} {
		if _, err := db.NewDropTable().Model(model).IfExists().Exec(ctx); err != nil {
			return fmt.Errorf("failed to drop table for %T: %w", model, err)
		}
	}
	return nil
}

func init() {
	if err := Migrations.DiscoverCaller(); err != nil {
		panic(err)
	}
}
