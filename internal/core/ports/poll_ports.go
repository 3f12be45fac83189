package ports

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
)

// PollRepository is the Poll Store. Writes on the same poll id are serialised by the
// implementation; writes on different polls never wait on each other.
type PollRepository interface {
	Create(ctx context.Context, poll *domain.Poll) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Poll, error)
	// RecordVote stores the voter's latest choice. Fails with domain.ErrPollClosed unless the poll is open.
	RecordVote(ctx context.Context, id uuid.UUID, voterID string, choice domain.Choice) (*domain.Poll, error)
	RemoveVote(ctx context.Context, id uuid.UUID, voterID string) (*domain.Poll, error)
	// SetStatus enforces the transition table and fails with domain.ErrInvalidTransition.
	SetStatus(ctx context.Context, id uuid.UUID, status domain.PollStatus) (*domain.Poll, error)
	// Cancel moves a non-terminal poll to cancelled. On a terminal poll it changes nothing
	// and reports false.
	Cancel(ctx context.Context, id uuid.UUID, reason domain.CancelReason) (*domain.Poll, bool, error)
	ListByStatus(ctx context.Context, status domain.PollStatus) ([]*domain.Poll, error)
}

// DecisionRepository writes a poll decision across both stores as one unit.
type DecisionRepository interface {
	// CommitDecision requires the poll to be closing, stores approved on the linked
	// suggestion and moves the poll to decided. Nothing is written if any step fails.
	CommitDecision(ctx context.Context, pollID uuid.UUID, approved bool) (*domain.Poll, *domain.Suggestion, error)
}

type EventPublisher interface {
	Publish(ctx context.Context, event domain.PollEvent) error
}

type VoteInput struct {
	PollID  uuid.UUID
	VoterID string
	Staff   bool
	Choice  domain.Choice
}

type RetractVoteInput struct {
	PollID  uuid.UUID
	VoterID string
}

type CancelInput struct {
	PollID  uuid.UUID
	ActorID string
	Reason  domain.CancelReason
}

type CloseResult struct {
	Poll    *domain.Poll    `json:"poll"`
	Outcome *domain.Outcome `json:"outcome"`
}

type LifecycleService interface {
	Vote(ctx context.Context, input VoteInput) (*domain.Poll, error)
	RetractVote(ctx context.Context, input RetractVoteInput) (*domain.Poll, error)
	Close(ctx context.Context, pollID uuid.UUID) (*CloseResult, error)
	Finalize(ctx context.Context, pollID uuid.UUID) (*CloseResult, error)
	Cancel(ctx context.Context, input CancelInput) (*domain.Poll, error)
	Archive(ctx context.Context, pollID uuid.UUID) (*domain.Poll, error)
	GetPoll(ctx context.Context, pollID uuid.UUID) (*domain.Poll, error)
	Preview(ctx context.Context, pollID uuid.UUID) (*domain.Outcome, error)
}
