package bootstrap

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"

	_ "github.com/lib/pq"
	"github.com/redis/go-redis/v9"
	"github.com/vncsmyrnk/featurepoll/internal/adapters/events"
	"github.com/vncsmyrnk/featurepoll/internal/adapters/repository/memory"
	"github.com/vncsmyrnk/featurepoll/internal/adapters/repository/postgres"
	"github.com/vncsmyrnk/featurepoll/internal/config"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
	"github.com/vncsmyrnk/featurepoll/internal/core/services"
)

// App holds the wired services shared by the server, the sweeper and pollctl.
type App struct {
	Lifecycle   ports.LifecycleService
	Suggestions ports.SuggestionService
	Sweeper     ports.SweepService

	closers []func() error
}

type stores struct {
	polls       ports.PollRepository
	suggestions ports.SuggestionRepository
	submissions ports.SubmissionRepository
	decisions   ports.DecisionRepository
}

func New(ctx context.Context, cfg *config.Config, rules *config.Rules, logger *slog.Logger) (*App, error) {
	if logger == nil {
		logger = slog.Default()
	}
	app := &App{}

	st, err := app.openStores(ctx, cfg)
	if err != nil {
		app.Close()
		return nil, err
	}

	publisher, err := app.openPublisher(ctx, cfg, logger)
	if err != nil {
		app.Close()
		return nil, err
	}

	app.Lifecycle = services.NewLifecycleService(st.polls, st.decisions, publisher, services.LifecycleConfig{
		Tally:           rules.TallyConfig(),
		AllowSelfVote:   cfg.AllowSelfVote,
		DecisionRetries: cfg.DecisionMaxRetries,
	}, logger)
	app.Suggestions = services.NewSuggestionService(st.suggestions, st.submissions, logger)
	app.Sweeper = services.NewSweepService(st.polls, st.suggestions, app.Lifecycle, cfg.VotingWindow, logger)

	logger.Info("application wired",
		"event", "bootstrap_complete",
		"storage", cfg.Storage,
		"redis", cfg.RedisAddr != "",
		"voting_window", cfg.VotingWindow.String(),
	)
	return app, nil
}

func (a *App) openStores(ctx context.Context, cfg *config.Config) (*stores, error) {
	switch cfg.Storage {
	case config.StorageMemory:
		store := memory.NewStore()
		return &stores{polls: store, suggestions: store.Suggestions(), submissions: store, decisions: store}, nil
	case config.StoragePostgres:
		db, err := sql.Open("postgres", cfg.Postgres.ConnString())
		if err != nil {
			return nil, fmt.Errorf("failed to open database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		if err := db.PingContext(ctx); err != nil {
			return nil, fmt.Errorf("failed to reach database: %w", err)
		}
		return &stores{
			polls:       postgres.NewPollRepository(db),
			suggestions: postgres.NewSuggestionRepository(db),
			submissions: postgres.NewSubmissionRepository(db),
			decisions:   postgres.NewDecisionRepository(db),
		}, nil
	}
	return nil, fmt.Errorf("unknown storage %q", cfg.Storage)
}

func (a *App) openPublisher(ctx context.Context, cfg *config.Config, logger *slog.Logger) (ports.EventPublisher, error) {
	if cfg.RedisAddr == "" {
		return events.NewLogPublisher(logger), nil
	}

	publisher, err := events.NewRedisPublisher(&redis.Options{Addr: cfg.RedisAddr}, cfg.RedisChannel)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, publisher.Close)
	if err := publisher.Ping(ctx); err != nil {
		return nil, fmt.Errorf("failed to reach redis: %w", err)
	}
	return publisher, nil
}

func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
