package services

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

type suggestionService struct {
	suggestions ports.SuggestionRepository
	submissions ports.SubmissionRepository
	logger      *slog.Logger
	now         func() time.Time
}

func NewSuggestionService(suggestions ports.SuggestionRepository, submissions ports.SubmissionRepository, logger *slog.Logger) ports.SuggestionService {
	return &suggestionService{
		suggestions: suggestions,
		submissions: submissions,
		logger:      resolveLogger(logger),
		now:         time.Now,
	}
}

// Submit stores a new suggestion and opens its poll. Both share the same visibility.
func (s *suggestionService) Submit(ctx context.Context, input ports.SubmitInput) (*domain.Suggestion, *domain.Poll, error) {
	suggestion := &domain.Suggestion{
		ID:         uuid.New(),
		UserID:     strings.TrimSpace(input.UserID),
		Username:   strings.TrimSpace(input.Username),
		ArtistName: strings.TrimSpace(input.ArtistName),
		AlbumName:  strings.TrimSpace(input.AlbumName),
		Links:      strings.TrimSpace(input.Links),
		Internal:   input.Internal,
		CreatedAt:  s.now().UTC(),
	}
	if notes := strings.TrimSpace(input.Notes); notes != "" {
		suggestion.Notes = &notes
	}
	if err := suggestion.Validate(); err != nil {
		return nil, nil, err
	}

	poll := domain.NewPoll(input.MessageID, suggestion.UserID, suggestion.Internal)
	suggestion.PollID = poll.ID

	if err := s.submissions.CreateSubmission(ctx, suggestion, poll); err != nil {
		return nil, nil, err
	}

	s.logger.Info("suggestion submitted",
		"event", "suggestion_submitted",
		"suggestion_id", suggestion.ID.String(),
		"poll_id", poll.ID.String(),
		"user_id", suggestion.UserID,
		"internal", suggestion.Internal,
	)
	return suggestion, poll, nil
}

func (s *suggestionService) Get(ctx context.Context, id uuid.UUID) (*domain.Suggestion, error) {
	return s.suggestions.GetByID(ctx, id)
}

func (s *suggestionService) GetByPollID(ctx context.Context, pollID uuid.UUID) (*domain.Suggestion, error) {
	return s.suggestions.GetByPollID(ctx, pollID)
}

// NextApproved returns the oldest approved suggestion of the given visibility.
func (s *suggestionService) NextApproved(ctx context.Context, internal bool) (*domain.Suggestion, error) {
	return s.suggestions.OldestApproved(ctx, internal)
}
