package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/5joshi/OsuBelgiumBot/app"
	osuvsservice "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/application"
	osuvsdomain "github.com/5joshi/OsuBelgiumBot/app/modules/osuvs/domain"
	"github.com/5joshi/OsuBelgiumBot/app/observability"
	"github.com/5joshi/OsuBelgiumBot/config"
	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"
)

func main() {
	// .env is optional; real environment variables win.
	_ = godotenv.Load()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	cliApp := &cli.App{
		Name:  "osuvs",
		Usage: "run and manage OsuVS map competitions",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the configuration file",
				EnvVars: []string{"OSUVS_CONFIG"},
			},
		},
		Commands: []*cli.Command{
			runCommand(),
			tickCommand(),
			competitionCommand(),
			leaderboardCommand(),
		},
	}

	if err := cliApp.RunContext(ctx, os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.LoadConfig(c.String("config"))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

// withCommandApp builds a store-only App for one-shot commands.
func withCommandApp(c *cli.Context, fn func(*app.App) error) error {
	cfg, err := loadConfig(c)
	if err != nil {
		return err
	}
	logger, err := observability.NewLogger(os.Stderr, cfg.Observability.LogLevel, cfg.Observability.LogFormat)
	if err != nil {
		return err
	}
	application, err := app.NewCommandApp(c.Context, cfg, logger)
	if err != nil {
		return err
	}
	defer application.Close()
	return fn(application)
}

func runCommand() *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "track presence and poll scores until interrupted",
		Flags: []cli.Flag{
			&cli.BoolFlag{Name: "dry-run", Usage: "log announcements instead of publishing them"},
		},
		Action: func(c *cli.Context) error {
			cfg, err := loadConfig(c)
			if err != nil {
				return err
			}
			logger, err := observability.NewLogger(os.Stderr, cfg.Observability.LogLevel, cfg.Observability.LogFormat)
			if err != nil {
				return err
			}

			var opts []app.Option
			if c.Bool("dry-run") {
				opts = append(opts, app.WithDryRun())
			}
			application, err := app.NewApp(c.Context, cfg, logger, opts...)
			if err != nil {
				return err
			}

			runErr := application.Run(c.Context)
			logger.Info("Shutting down")
			if err := application.Close(); err != nil {
				logger.Error("Error during shutdown", "error", err)
			}
			if errors.Is(runErr, context.Canceled) {
				return nil
			}
			return runErr
		},
	}
}

func tickCommand() *cli.Command {
	return &cli.Command{
		Name:  "tick",
		Usage: "run a single pass for the configured presence targets",
		Action: func(c *cli.Context) error {
			return withCommandApp(c, func(a *app.App) error {
				report, err := a.OsuVS.Service.Tick(c.Context, time.Now())
				if err != nil {
					return err
				}
				w := c.App.Writer
				fmt.Fprintf(w, "state: %s\n", report.State)
				if report.Competition == nil {
					return nil
				}
				fmt.Fprintf(w, "competition: %s\n", report.Competition.MapID)
				fmt.Fprintf(w, "polled: %d (failed %d), candidates: %d\n", report.Polled, report.PollFailures, report.Candidates)
				if report.MergeSkipped {
					fmt.Fprintln(w, "merge skipped")
				} else {
					fmt.Fprintf(w, "inserted: %d, improved: %d, unchanged: %d, failed: %d\n",
						len(report.Merge.Inserted), len(report.Merge.Improved), len(report.Merge.Unchanged), len(report.Merge.Failed))
				}
				return nil
			})
		},
	}
}

func competitionCommand() *cli.Command {
	return &cli.Command{
		Name:  "competition",
		Usage: "manage competitions",
		Subcommands: []*cli.Command{
			{
				Name:      "start",
				Usage:     "schedule a competition on a map",
				ArgsUsage: "<map id or link>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "at", Usage: `start time, RFC3339 or natural language such as "tomorrow at 8pm"`},
					&cli.DurationFlag{Name: "duration", Usage: "competition length (default from config)"},
				},
				Action: func(c *cli.Context) error {
					mapID, ok := osuvsdomain.ParseMapID(c.Args().First())
					if !ok {
						return fmt.Errorf("invalid map: %q", c.Args().First())
					}
					req := osuvsservice.StartCompetitionRequest{
						MapID:    mapID,
						Duration: c.Duration("duration"),
					}
					if at := c.String("at"); at != "" {
						start, err := osuvsservice.ParseStartTime(at, time.Now())
						if err != nil {
							return err
						}
						req.Start = &start
					}

					return withCommandApp(c, func(a *app.App) error {
						comp, err := a.OsuVS.Service.StartCompetition(c.Context, req)
						if err != nil {
							return err
						}
						fmt.Fprintf(c.App.Writer, "Scheduled map %s from %s to %s\n",
							comp.MapID, comp.StartDate.Format(time.RFC3339), comp.EndDate.Format(time.RFC3339))
						return nil
					})
				},
			},
			{
				Name:  "list",
				Usage: "list the most recent competitions",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "limit", Value: 10},
				},
				Action: func(c *cli.Context) error {
					return withCommandApp(c, func(a *app.App) error {
						comps, err := a.OsuVS.Service.ListCompetitions(c.Context, c.Int("limit"))
						if err != nil {
							return err
						}
						tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
						fmt.Fprintln(tw, "MAP\tSTART\tEND")
						for _, comp := range comps {
							fmt.Fprintf(tw, "%s\t%s\t%s\n", comp.MapID,
								comp.StartDate.Format(time.RFC3339), comp.EndDate.Format(time.RFC3339))
						}
						return tw.Flush()
					})
				},
			},
		},
	}
}

func leaderboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "leaderboard",
		Usage: "print the standings of the running competition",
		Action: func(c *cli.Context) error {
			return withCommandApp(c, func(a *app.App) error {
				board, err := a.OsuVS.Service.Leaderboard(c.Context, time.Now())
				if errors.Is(err, osuvsservice.ErrNoActiveCompetition) {
					fmt.Fprintln(c.App.Writer, "No competition is running.")
					return nil
				}
				if err != nil {
					return err
				}

				tw := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
				fmt.Fprintf(tw, "Map %s, ends %s (%d players)\n",
					board.Competition.MapID, board.Competition.EndDate.Format(time.RFC3339), board.Total)
				fmt.Fprintln(tw, "#\tPLAYER\tSCORE\tMODS\tACC\tCOMBO\tPP")
				for _, e := range board.Entries {
					pp := "-"
					if e.Performance != nil {
						pp = fmt.Sprintf("%.2f", *e.Performance)
					}
					fmt.Fprintf(tw, "%d\t%s\t%d\t%s\t%.2f%%\t%dx\t%s\n",
						e.Rank, e.Handle, e.Submission.RawScore, e.Submission.Mods.String(),
						e.Accuracy(), e.Submission.MaxCombo, pp)
				}
				return tw.Flush()
			})
		},
	}
}
