package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"

	"github.com/hermeslink/hlink-backup/internal/app"
	"github.com/hermeslink/hlink-backup/internal/config"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintln(os.Stdout, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "backup",
		Usage:          "Dump the Hermes Link PostgreSQL database and prune old backups",
		UsageText:      "backup [--config FILE] [command]",
		ExitErrHandler: app.ExitHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				Usage:   "Load configuration from `FILE`",
			},
		},
		Action: func(c *cli.Context) error {
			if c.NArg() > 0 {
				_ = cli.ShowAppHelp(c)
				return cli.Exit(fmt.Sprintf("backup takes no arguments, got %q", c.Args().First()), 1)
			}
			return runWorkflow(c, func(ctx context.Context, a *app.App) error {
				return a.Backup(ctx)
			})
		},
		Commands: []*cli.Command{
			{
				Name:  "prune",
				Usage: "Delete backups older than the retention window",
				Action: func(c *cli.Context) error {
					return runWorkflow(c, func(ctx context.Context, a *app.App) error {
						return a.Prune(ctx)
					})
				},
			},
			{
				Name:  "serve",
				Usage: "Run backups on backup.schedule until interrupted",
				Action: func(c *cli.Context) error {
					return runWorkflow(c, func(ctx context.Context, a *app.App) error {
						return a.Serve(ctx)
					})
				},
			},
		},
	}
}

func runWorkflow(c *cli.Context, workflow func(context.Context, *app.App) error) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
	}

	application, err := app.New(c.Context, cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("initialize app: %v", err), 1)
	}
	defer application.Shutdown()

	if err := workflow(c.Context, application); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	return nil
}
