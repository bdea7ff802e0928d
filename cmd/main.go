package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/tunefeed/internal/services"
	"github.com/desertthunder/tunefeed/internal/session"
	"github.com/desertthunder/tunefeed/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)

	config := shared.DefaultConfig()
	if _, err := os.Stat("config.toml"); err == nil {
		if loadedConfig, err := shared.LoadConfig("config.toml"); err == nil {
			config = loadedConfig
		}
	}

	client, err := services.NewClient(config.API, logger)
	if err != nil {
		logger.Fatalf("failed to create API client: %v", err)
	}

	auth := services.NewAuthService(client, logger)
	catalog := services.NewCatalogService(client, logger)
	store := session.NewStore(auth, logger)
	scheduler := session.NewScheduler(auth, store, session.DefaultRefreshInterval, logger)
	client.OnSessionExpired(store.MarkExpired)

	runner := NewRunner(RunnerOpts{
		Config:    config,
		Client:    client,
		Auth:      auth,
		Catalog:   catalog,
		Store:     store,
		Scheduler: scheduler,
		Logger:    logger,
	})

	app := &cli.Command{
		Name:     "tunefeed",
		Usage:    "Stream a vertical music feed from the terminal",
		Version:  "0.2.0",
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		err_ := errors.Unwrap(err)
		if errors.Is(err_, shared.ErrNotImplemented) {
			logger.Warn("not implemented")
			os.Exit(0)
		} else {
			logger.Fatalf("application error: %v", err)
		}
	}
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize the local cache database and run migrations",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}
