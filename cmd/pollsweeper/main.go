package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"github.com/vncsmyrnk/featurepoll/internal/bootstrap"
	"github.com/vncsmyrnk/featurepoll/internal/config"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	if err := config.LoadEnv(); err != nil {
		logger.Warn("env file not loaded", "error", err.Error())
	}

	cfg, err := config.FromEnv()
	if err != nil {
		logger.Error("invalid configuration", "error", err.Error())
		os.Exit(1)
	}

	var timeout time.Duration
	flag.DurationVar(&cfg.VotingWindow, "window", cfg.VotingWindow, "Close open polls older than this (0 only repairs pending decisions)")
	flag.StringVar(&cfg.Postgres.Host, "db-host", cfg.Postgres.Host, "Database host")
	flag.StringVar(&cfg.Postgres.Port, "db-port", cfg.Postgres.Port, "Database port")
	flag.StringVar(&cfg.Postgres.User, "db-user", cfg.Postgres.User, "Database user")
	flag.StringVar(&cfg.Postgres.Password, "db-pass", cfg.Postgres.Password, "Database password")
	flag.StringVar(&cfg.Postgres.DB, "db-name", cfg.Postgres.DB, "Database name")
	flag.DurationVar(&timeout, "timeout", 5*time.Minute, "Maximum job duration")
	flag.Parse()

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		logger.Error("failed to load rules", "error", err.Error())
		os.Exit(1)
	}

	// Use a timeout for the job execution to prevent it from hanging indefinitely
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	app, err := bootstrap.New(ctx, cfg, rules, logger)
	if err != nil {
		logger.Error("failed to start", "error", err.Error())
		os.Exit(1)
	}
	defer app.Close()

	logger.Info("starting poll sweep", "event", "poll_sweep_started", "window", cfg.VotingWindow.String())

	if _, err := app.Sweeper.Sweep(ctx, time.Now()); err != nil {
		logger.Error("poll sweep finished with errors", "event", "poll_sweep_failed", "error", err.Error())
		app.Close()
		os.Exit(1)
	}
}
