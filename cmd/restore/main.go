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
		Name:           "restore",
		Usage:          "Replay a compressed backup into the Hermes Link database",
		UsageText:      "restore [--config FILE] <backup_file.sql.gz>",
		ExitErrHandler: app.ExitHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				Usage:   "Load configuration from `FILE`",
			},
		},
		Action: restore,
	}
}

func restore(c *cli.Context) error {
	if c.NArg() != 1 {
		_ = cli.ShowAppHelp(c)
		return cli.Exit("Usage: restore <backup_file.sql.gz>", 1)
	}
	path := c.Args().First()

	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
	}

	application, err := app.New(c.Context, cfg)
	if err != nil {
		return cli.Exit(fmt.Sprintf("initialize app: %v", err), 1)
	}
	defer application.Shutdown()

	if err := application.Restore(c.Context, path); err != nil {
		return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
	}
	return nil
}
