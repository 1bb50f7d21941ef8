package osuvsmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating osuvs_maps and osuvs_scores tables...")
		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if err := CreateTables(ctx, tx); err != nil {
				return err
			}
			if _, err := tx.ExecContext(ctx, `
				CREATE INDEX IF NOT EXISTS idx_osuvs_maps_window ON osuvs_maps(start_date, end_date);
			`); err != nil {
				return fmt.Errorf("failed to create osuvs_maps window index: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping osuvs_maps and osuvs_scores tables...")
		return DropTables(ctx, db)
	})
}
