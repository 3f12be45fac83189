package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	stdhttp "net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/vncsmyrnk/featurepoll/internal/adapters/handler/http"
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

	var sweepEvery time.Duration
	flag.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "HTTP listen address")
	flag.StringVar(&cfg.Storage, "storage", cfg.Storage, "Storage backend (postgres or memory)")
	flag.StringVar(&cfg.RulesFile, "rules", cfg.RulesFile, "Path to the decision rules file")
	flag.DurationVar(&sweepEvery, "sweep-every", 0, "Run the poll sweep in process at this interval (0 disables)")
	flag.Parse()

	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	rules, err := config.LoadRules(cfg.RulesFile)
	if err != nil {
		logger.Error("failed to load rules", "error", err.Error())
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.New(ctx, cfg, rules, logger)
	if err != nil {
		logger.Error("failed to start", "error", err.Error())
		os.Exit(1)
	}
	defer app.Close()

	handler := http.NewHandler(
		http.NewPollHandler(app.Lifecycle, app.Suggestions),
		http.NewVoteHandler(app.Lifecycle),
		http.NewSuggestionHandler(app.Suggestions),
		[]byte(cfg.JWTSecret),
	)
	server := &stdhttp.Server{Addr: cfg.HTTPAddr, Handler: handler}

	go func() {
		logger.Info("server listening", "addr", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			logger.Error("server failed", "error", err.Error())
			stop()
		}
	}()

	if sweepEvery > 0 {
		go runSweeps(ctx, app, sweepEvery, logger)
	}

	<-ctx.Done()
	logger.Info("gracefully shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown failed", "error", err.Error())
	}
}

func runSweeps(ctx context.Context, app *bootstrap.App, every time.Duration, logger *slog.Logger) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			if _, err := app.Sweeper.Sweep(ctx, now); err != nil {
				logger.Warn("scheduled sweep had failures", "error", err.Error())
			}
		}
	}
}
