package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli/v2"

	"github.com/hermeslink/hlink-backup/internal/app"
	"github.com/hermeslink/hlink-backup/internal/config"
	"github.com/hermeslink/hlink-backup/internal/infrastructure/logger"
	"github.com/hermeslink/hlink-backup/internal/stylesheet"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stdout, err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:           "stylesheet",
		Usage:          "Render tailwind.config.js from the stylesheet section of the config",
		UsageText:      "stylesheet [--config FILE] [--output FILE]",
		ExitErrHandler: app.ExitHandler,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "configs/config.yaml",
				Usage:   "Load configuration from `FILE`",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write to `FILE` instead of stylesheet.output",
			},
		},
		Action: func(c *cli.Context) error {
			cfg, err := config.LoadStylesheet(c.String("config"))
			if err != nil {
				return cli.Exit(fmt.Sprintf("load config: %v", err), 1)
			}
			if out := c.String("output"); out != "" {
				cfg.Output = out
			}

			log, err := logger.New("info", "")
			if err != nil {
				return cli.Exit(err.Error(), 1)
			}
			defer log.Close()

			if err := stylesheet.WriteFile(cfg.Output, cfg); err != nil {
				return cli.Exit(fmt.Sprintf("Error: %v", err), 1)
			}
			log.Infof("Wrote %s (%d content glob(s), %d safelisted class(es), %d shadow(s))",
				cfg.Output, len(cfg.Content), len(cfg.Safelist), len(cfg.BoxShadow))
			return nil
		},
	}
}
