package ports

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
)

// SuggestionRepository is the Suggestion Store. It keeps a poll id index because the
// foreign key points from suggestion to poll.
type SuggestionRepository interface {
	Create(ctx context.Context, suggestion *domain.Suggestion) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Suggestion, error)
	GetByPollID(ctx context.Context, pollID uuid.UUID) (*domain.Suggestion, error)
	SetApproved(ctx context.Context, id uuid.UUID, approved bool) (*domain.Suggestion, error)
	OldestApproved(ctx context.Context, internal bool) (*domain.Suggestion, error)
}

// SubmissionRepository creates a suggestion together with its poll.
type SubmissionRepository interface {
	CreateSubmission(ctx context.Context, suggestion *domain.Suggestion, poll *domain.Poll) error
}

type SubmitInput struct {
	UserID     string
	Username   string
	ArtistName string
	AlbumName  string
	Links      string
	Notes      string
	Internal   bool
	MessageID  string
}

type SuggestionService interface {
	Submit(ctx context.Context, input SubmitInput) (*domain.Suggestion, *domain.Poll, error)
	Get(ctx context.Context, id uuid.UUID) (*domain.Suggestion, error)
	GetByPollID(ctx context.Context, pollID uuid.UUID) (*domain.Suggestion, error)
	NextApproved(ctx context.Context, internal bool) (*domain.Suggestion, error)
}

type SweepReport struct {
	Closed   int `json:"closed"`
	Repaired int `json:"repaired"`
	Failed   int `json:"failed"`
}

type SweepService interface {
	// Sweep closes open polls whose voting window ended before now and retries
	// decisions left pending on closing polls.
	Sweep(ctx context.Context, now time.Time) (SweepReport, error)
}
