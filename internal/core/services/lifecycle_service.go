package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

const defaultDecisionRetryInterval = 100 * time.Millisecond

type LifecycleConfig struct {
	Tally         TallyConfig
	AllowSelfVote bool
	// DecisionRetries bounds how many times a failed decision write is retried before
	// the poll is left closing and ErrDecisionPersistFailure is returned. Zero means a
	// single attempt.
	DecisionRetries       uint64
	DecisionRetryInterval time.Duration
	Now                   func() time.Time
}

type lifecycleService struct {
	polls     ports.PollRepository
	decisions ports.DecisionRepository
	events    ports.EventPublisher
	cfg       LifecycleConfig
	logger    *slog.Logger
}

func NewLifecycleService(
	polls ports.PollRepository,
	decisions ports.DecisionRepository,
	events ports.EventPublisher,
	cfg LifecycleConfig,
	logger *slog.Logger,
) ports.LifecycleService {
	if cfg.DecisionRetryInterval <= 0 {
		cfg.DecisionRetryInterval = defaultDecisionRetryInterval
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &lifecycleService{
		polls:     polls,
		decisions: decisions,
		events:    events,
		cfg:       cfg,
		logger:    resolveLogger(logger),
	}
}

func (s *lifecycleService) Vote(ctx context.Context, input ports.VoteInput) (*domain.Poll, error) {
	voterID := strings.TrimSpace(input.VoterID)
	if voterID == "" {
		return nil, domain.ErrInvalidVoter
	}
	if !input.Choice.Valid() {
		return nil, domain.ErrInvalidChoice
	}

	poll, err := s.polls.GetByID(ctx, input.PollID)
	if err != nil {
		return nil, err
	}
	if !s.cfg.AllowSelfVote && poll.AuthorID == voterID {
		return nil, domain.ErrSelfVote
	}
	if poll.Internal && !input.Staff {
		return nil, domain.ErrAudienceForbidden
	}

	updated, err := s.polls.RecordVote(ctx, input.PollID, voterID, input.Choice)
	if err != nil {
		if errors.Is(err, domain.ErrPollClosed) {
			s.logger.Info("poll vote rejected",
				"event", "poll_vote_rejected_closed",
				"poll_id", input.PollID.String(),
				"voter_id", voterID,
			)
		}
		return nil, err
	}

	s.logger.Info("poll vote recorded",
		"event", "poll_vote_recorded",
		"poll_id", updated.ID.String(),
		"voter_id", voterID,
		"choice", string(input.Choice),
		"voters", len(updated.Votes),
	)
	s.publish(ctx, domain.PollEventVoteRecorded, updated, nil)

	threshold := s.cfg.Tally.AutoCloseForVotes
	if threshold > 0 && updated.Votes.Count(domain.ChoiceFor) >= threshold {
		res, err := s.Close(ctx, updated.ID)
		if err == nil {
			return res.Poll, nil
		}
		// ErrInvalidTransition means another request closed it first.
		if !errors.Is(err, domain.ErrInvalidTransition) {
			s.logger.Error("poll auto close failed",
				"event", "poll_auto_close_failed",
				"poll_id", updated.ID.String(),
				"error", err.Error(),
			)
		}
		// the vote is in but the poll is no longer open
		if current, getErr := s.polls.GetByID(ctx, updated.ID); getErr == nil {
			return current, nil
		}
	}

	return updated, nil
}

func (s *lifecycleService) RetractVote(ctx context.Context, input ports.RetractVoteInput) (*domain.Poll, error) {
	voterID := strings.TrimSpace(input.VoterID)
	if voterID == "" {
		return nil, domain.ErrInvalidVoter
	}

	updated, err := s.polls.RemoveVote(ctx, input.PollID, voterID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("poll vote retracted",
		"event", "poll_vote_retracted",
		"poll_id", updated.ID.String(),
		"voter_id", voterID,
	)
	s.publish(ctx, domain.PollEventVoteRetracted, updated, nil)
	return updated, nil
}

// Close stops vote intake and decides the poll. Calling it again on a poll that was
// left closing by an earlier failure retries the decision.
func (s *lifecycleService) Close(ctx context.Context, pollID uuid.UUID) (*ports.CloseResult, error) {
	poll, err := s.polls.SetStatus(ctx, pollID, domain.PollStatusClosing)
	if err != nil {
		if !errors.Is(err, domain.ErrInvalidTransition) {
			return nil, err
		}
		current, getErr := s.polls.GetByID(ctx, pollID)
		if getErr != nil {
			return nil, getErr
		}
		if current.Status != domain.PollStatusClosing {
			s.logger.Warn("poll close rejected",
				"event", "poll_close_invalid_transition",
				"poll_id", pollID.String(),
				"status", string(current.Status),
			)
			return nil, err
		}
		return s.Finalize(ctx, pollID)
	}

	s.logger.Info("poll closing",
		"event", "poll_closing",
		"poll_id", pollID.String(),
		"voters", len(poll.Votes),
	)
	s.publish(ctx, domain.PollEventClosing, poll, nil)

	return s.Finalize(ctx, pollID)
}

// Finalize tallies a closing poll and commits the outcome to the suggestion and the
// poll together, retrying transient failures.
func (s *lifecycleService) Finalize(ctx context.Context, pollID uuid.UUID) (*ports.CloseResult, error) {
	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.Status != domain.PollStatusClosing {
		return nil, fmt.Errorf("%w: poll is %s, not %s", domain.ErrInvalidTransition, poll.Status, domain.PollStatusClosing)
	}

	outcome := Tally(poll.Votes, poll.Internal, s.cfg.Tally)

	var decided *domain.Poll
	attempt := 0
	op := func() error {
		attempt++
		p, _, err := s.decisions.CommitDecision(ctx, pollID, outcome.Approved)
		if err != nil {
			if isPermanentDecisionError(err) {
				return backoff.Permanent(err)
			}
			return err
		}
		decided = p
		return nil
	}
	notify := func(err error, wait time.Duration) {
		s.logger.Warn("poll decision write failed, retrying",
			"event", "poll_decision_retry",
			"poll_id", pollID.String(),
			"attempt", attempt,
			"wait", wait.String(),
			"error", err.Error(),
		)
	}

	if err := backoff.RetryNotify(op, s.newBackOff(ctx), notify); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) || errors.Is(err, domain.ErrPollNotFound) {
			return nil, err
		}
		s.logger.Error("poll decision could not be persisted",
			"event", "poll_decision_persist_failed",
			"poll_id", pollID.String(),
			"attempts", attempt,
			"approved", outcome.Approved,
			"error", err.Error(),
		)
		return nil, fmt.Errorf("%w: %w", domain.ErrDecisionPersistFailure, err)
	}

	event := "poll_decided"
	if outcome.Verdict == domain.VerdictNoQuorum {
		event = "poll_no_quorum"
	}
	s.logger.Info("poll decided",
		"event", event,
		"poll_id", pollID.String(),
		"verdict", string(outcome.Verdict),
		"approved", outcome.Approved,
		"for", outcome.ForCount,
		"against", outcome.AgainstCount,
		"voters", outcome.TotalVoters,
		"quorum", outcome.Quorum,
	)
	s.publish(ctx, domain.PollEventDecided, decided, &outcome)

	return &ports.CloseResult{Poll: decided, Outcome: &outcome}, nil
}

// Cancel drops a pending decision. Revoking requires the poll author; vetoing is
// authorised by the caller. Cancelling a terminal poll changes nothing.
func (s *lifecycleService) Cancel(ctx context.Context, input ports.CancelInput) (*domain.Poll, error) {
	if _, err := domain.ParseCancelReason(string(input.Reason)); err != nil {
		return nil, err
	}

	if input.Reason == domain.CancelReasonRevoked {
		poll, err := s.polls.GetByID(ctx, input.PollID)
		if err != nil {
			return nil, err
		}
		if poll.Status.Terminal() {
			return s.cancelIgnored(poll), nil
		}
		if poll.AuthorID != strings.TrimSpace(input.ActorID) {
			return nil, domain.ErrNotPollAuthor
		}
	}

	poll, changed, err := s.polls.Cancel(ctx, input.PollID, input.Reason)
	if err != nil {
		return nil, err
	}
	if !changed {
		return s.cancelIgnored(poll), nil
	}

	s.logger.Info("poll cancelled",
		"event", "poll_cancelled",
		"poll_id", poll.ID.String(),
		"reason", string(input.Reason),
		"actor_id", input.ActorID,
	)
	s.publish(ctx, domain.PollEventCancelled, poll, nil)
	return poll, nil
}

func (s *lifecycleService) cancelIgnored(poll *domain.Poll) *domain.Poll {
	s.logger.Info("poll cancel ignored",
		"event", "poll_cancel_noop",
		"poll_id", poll.ID.String(),
		"status", string(poll.Status),
	)
	return poll
}

func (s *lifecycleService) Archive(ctx context.Context, pollID uuid.UUID) (*domain.Poll, error) {
	poll, err := s.polls.SetStatus(ctx, pollID, domain.PollStatusArchived)
	if err != nil {
		return nil, err
	}
	s.logger.Info("poll archived", "event", "poll_archived", "poll_id", pollID.String())
	s.publish(ctx, domain.PollEventArchived, poll, nil)
	return poll, nil
}

// GetPoll returns the poll, first completing any decision left pending on a closing poll.
func (s *lifecycleService) GetPoll(ctx context.Context, pollID uuid.UUID) (*domain.Poll, error) {
	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	if poll.Status != domain.PollStatusClosing {
		return poll, nil
	}

	res, err := s.Finalize(ctx, pollID)
	if err != nil {
		s.logger.Warn("poll repair on read failed",
			"event", "poll_repair_failed",
			"poll_id", pollID.String(),
			"error", err.Error(),
		)
		return poll, nil
	}
	return res.Poll, nil
}

func (s *lifecycleService) Preview(ctx context.Context, pollID uuid.UUID) (*domain.Outcome, error) {
	poll, err := s.polls.GetByID(ctx, pollID)
	if err != nil {
		return nil, err
	}
	outcome := Tally(poll.Votes, poll.Internal, s.cfg.Tally)
	return &outcome, nil
}

func (s *lifecycleService) newBackOff(ctx context.Context) backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.cfg.DecisionRetryInterval
	b.MaxElapsedTime = 0
	return backoff.WithContext(backoff.WithMaxRetries(b, s.cfg.DecisionRetries), ctx)
}

func (s *lifecycleService) publish(ctx context.Context, t domain.PollEventType, poll *domain.Poll, outcome *domain.Outcome) {
	if s.events == nil || poll == nil {
		return
	}
	event := domain.NewPollEvent(t, poll, s.cfg.Now())
	event.Outcome = outcome
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("poll event publish failed",
			"event", "poll_event_publish_failed",
			"poll_id", poll.ID.String(),
			"type", string(t),
			"error", err.Error(),
		)
	}
}

func isPermanentDecisionError(err error) bool {
	return errors.Is(err, domain.ErrInvalidTransition) ||
		errors.Is(err, domain.ErrPollNotFound) ||
		errors.Is(err, domain.ErrSuggestionNotFound) ||
		errors.Is(err, domain.ErrVisibilityMismatch)
}
