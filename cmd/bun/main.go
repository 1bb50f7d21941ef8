package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/5joshi/OsuBelgiumBot/app"
	"github.com/5joshi/OsuBelgiumBot/app/migrations"
	"github.com/5joshi/OsuBelgiumBot/app/observability"
	"github.com/5joshi/OsuBelgiumBot/config"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun/migrate"
	"github.com/urfave/cli/v2"
)

func main() {
	_ = godotenv.Load()

	cliApp := &cli.App{
		Name:     "bun",
		Metadata: map[string]any{},
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file"},
		},
		Before: func(c *cli.Context) error {
			// Only the database connection is needed here.
			cfg, err := config.LoadConfig(c.String("config"))
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}
			c.App.Metadata["config"] = cfg
			return nil
		},
		Commands: []*cli.Command{
			newMultiModuleDBCommand(),
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withMigrators opens the database and hands fn one migrator per module.
func withMigrators(c *cli.Context, fn func(map[string]*migrate.Migrator) error) error {
	cfg := c.App.Metadata["config"].(*config.Config)
	db := app.OpenDB(cfg.Postgres.DSN)
	defer db.Close()
	return fn(migrations.Migrators(db))
}

func newMultiModuleDBCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "database migrations",
		Subcommands: []*cli.Command{
			{
				Name:  "init",
				Usage: "create migration tables",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(migrators map[string]*migrate.Migrator) error {
						for moduleName, migrator := range migrators {
							fmt.Printf("Initializing migrations for module: %s\n", moduleName)
							if err := migrator.Init(c.Context); err != nil {
								return fmt.Errorf("init %s: %w", moduleName, err)
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "migrate",
				Usage: "migrate database",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(migrators map[string]*migrate.Migrator) error {
						for moduleName, migrator := range migrators {
							fmt.Printf("Running migrations for module: %s\n", moduleName)
							group, err := migrator.Migrate(c.Context)
							if err != nil {
								return err
							}
							if group.IsZero() {
								fmt.Printf("No new migrations to run for module: %s\n", moduleName)
							} else {
								fmt.Printf("Migrated module: %s to %s\n", moduleName, group)
							}
						}
						return nil
					})
				},
			},
			{
				Name:  "up",
				Usage: "initialise and apply River and module migrations",
				Action: func(c *cli.Context) error {
					cfg := c.App.Metadata["config"].(*config.Config)
					logger, err := observability.NewLogger(os.Stderr, cfg.Observability.LogLevel, "text")
					if err != nil {
						return err
					}
					db := app.OpenDB(cfg.Postgres.DSN)
					defer db.Close()
					return migrations.Up(c.Context, db, cfg.Postgres.DSN, logger)
				},
			},
			{
				Name:  "river",
				Usage: "apply River queue migrations",
				Action: func(c *cli.Context) error {
					cfg := c.App.Metadata["config"].(*config.Config)
					logger, err := observability.NewLogger(os.Stderr, cfg.Observability.LogLevel, "text")
					if err != nil {
						return err
					}
					return migrations.RiverUp(c.Context, cfg.Postgres.DSN, logger)
				},
			},
			{
				Name:  "rollback",
				Usage: "rollback the last migration group",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(migrators map[string]*migrate.Migrator) error {
						for moduleName, migrator := range migrators {
							fmt.Printf("Rolling back migrations for module: %s\n", moduleName)
							group, err := migrator.Rollback(c.Context)
							if err != nil {
								return err
							}
							if group.IsZero() {
								fmt.Printf("No groups to roll back for module: %s\n", moduleName)
							} else {
								fmt.Printf("Rolled back module: %s to %s\n", moduleName, group)
							}
						}
						return nil
					})
				},
			},
			{
				Name:      "create_go",
				Usage:     "create Go migration",
				ArgsUsage: "<module> <name...>",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(migrators map[string]*migrate.Migrator) error {
						moduleName := c.Args().First()
						migrator, ok := migrators[moduleName]
						if !ok {
							return fmt.Errorf("invalid module name: %s", moduleName)
						}

						name := strings.Join(c.Args().Tail(), "_")
						mf, err := migrator.CreateGoMigration(c.Context, name)
						if err != nil {
							return err
						}
						fmt.Printf("Created migration for module %s: %s (%s)\n", moduleName, mf.Name, mf.Path)
						return nil
					})
				},
			},
			{
				Name:  "status",
				Usage: "print migrations status",
				Action: func(c *cli.Context) error {
					return withMigrators(c, func(migrators map[string]*migrate.Migrator) error {
						for moduleName, migrator := range migrators {
							ms, err := migrator.MigrationsWithStatus(c.Context)
							if err != nil {
								return err
							}
							fmt.Printf("Migrations for module: %s\n", moduleName)
							fmt.Printf("  %s\n", ms)
							fmt.Printf("  Applied: %s\n", ms.Applied())
							fmt.Printf("  Unapplied: %s\n", ms.Unapplied())
						}
						return nil
					})
				},
			},
		},
	}
}
