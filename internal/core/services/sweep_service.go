package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

type sweepService struct {
	polls       ports.PollRepository
	suggestions ports.SuggestionRepository
	lifecycle   ports.LifecycleService
	window      time.Duration
	logger      *slog.Logger
}

// NewSweepService builds the periodic job that closes expired polls. A zero window
// disables time based closing; pending decisions are still retried.
func NewSweepService(
	polls ports.PollRepository,
	suggestions ports.SuggestionRepository,
	lifecycle ports.LifecycleService,
	window time.Duration,
	logger *slog.Logger,
) ports.SweepService {
	return &sweepService{
		polls:       polls,
		suggestions: suggestions,
		lifecycle:   lifecycle,
		window:      window,
		logger:      resolveLogger(logger),
	}
}

type sweepResult struct {
	pollID   uuid.UUID
	repaired bool
	err      error
}

func (s *sweepService) Sweep(ctx context.Context, now time.Time) (ports.SweepReport, error) {
	var report ports.SweepReport

	closing, err := s.polls.ListByStatus(ctx, domain.PollStatusClosing)
	if err != nil {
		return report, fmt.Errorf("failed to fetch closing polls: %w", err)
	}

	var expired []*domain.Poll
	if s.window > 0 {
		open, err := s.polls.ListByStatus(ctx, domain.PollStatusOpen)
		if err != nil {
			return report, fmt.Errorf("failed to fetch open polls: %w", err)
		}
		for _, poll := range open {
			suggestion, err := s.suggestions.GetByPollID(ctx, poll.ID)
			if err != nil {
				if errors.Is(err, domain.ErrSuggestionNotFound) {
					continue
				}
				return report, fmt.Errorf("failed to fetch suggestion for poll %s: %w", poll.ID, err)
			}
			if now.Sub(suggestion.CreatedAt) >= s.window {
				expired = append(expired, poll)
			}
		}
	}

	var wg sync.WaitGroup
	results := make(chan sweepResult, len(closing)+len(expired))

	for _, poll := range closing {
		wg.Add(1)
		go func(pID uuid.UUID) {
			defer wg.Done()
			_, err := s.lifecycle.Finalize(ctx, pID)
			results <- sweepResult{pollID: pID, repaired: true, err: err}
		}(poll.ID)
	}
	for _, poll := range expired {
		wg.Add(1)
		go func(pID uuid.UUID) {
			defer wg.Done()
			_, err := s.lifecycle.Close(ctx, pID)
			results <- sweepResult{pollID: pID, err: err}
		}(poll.ID)
	}

	wg.Wait()
	close(results)

	var errs []error
	for res := range results {
		switch {
		case res.err == nil && res.repaired:
			report.Repaired++
		case res.err == nil:
			report.Closed++
		case errors.Is(res.err, domain.ErrInvalidTransition):
			// state moved on concurrently, nothing left to do
		default:
			report.Failed++
			errs = append(errs, fmt.Errorf("failed to sweep poll %s: %w", res.pollID, res.err))
		}
	}

	s.logger.Info("poll sweep finished",
		"event", "poll_sweep_finished",
		"closed", report.Closed,
		"repaired", report.Repaired,
		"failed", report.Failed,
	)
	return report, errors.Join(errs...)
}
