package memory

import (
	"context"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

// Suggestions is the suggestion side of a Store. It shares state and locks with it.
type Suggestions struct {
	store *Store
}

var _ ports.SuggestionRepository = (*Suggestions)(nil)

func (s *Store) Suggestions() *Suggestions {
	return &Suggestions{store: s}
}

// Create stores a suggestion whose poll already exists.
func (v *Suggestions) Create(_ context.Context, suggestion *domain.Suggestion) error {
	s := v.store
	s.pollsMu.RLock()
	defer s.pollsMu.RUnlock()
	s.suggestionsMu.Lock()
	defer s.suggestionsMu.Unlock()

	return s.insertSuggestionLocked(suggestion)
}

// CreateSubmission stores the poll and its suggestion together.
func (s *Store) CreateSubmission(_ context.Context, suggestion *domain.Suggestion, poll *domain.Poll) error {
	if suggestion == nil || poll == nil || poll.ID == uuid.Nil {
		return domain.ErrInvalidSuggestion
	}
	if suggestion.Internal != poll.Internal {
		return domain.ErrVisibilityMismatch
	}
	if suggestion.PollID != poll.ID {
		return domain.ErrInvalidPollID
	}

	s.pollsMu.Lock()
	defer s.pollsMu.Unlock()
	s.suggestionsMu.Lock()
	defer s.suggestionsMu.Unlock()

	if _, exists := s.polls[poll.ID]; exists {
		return domain.ErrInvalidPollID
	}
	s.polls[poll.ID] = &pollRecord{poll: poll.Clone()}
	if err := s.insertSuggestionLocked(suggestion); err != nil {
		delete(s.polls, poll.ID)
		return err
	}
	return nil
}

// insertSuggestionLocked needs pollsMu (read or write) and suggestionsMu held.
func (s *Store) insertSuggestionLocked(suggestion *domain.Suggestion) error {
	if suggestion == nil || suggestion.ID == uuid.Nil {
		return domain.ErrInvalidSuggestionID
	}
	if _, exists := s.suggestions[suggestion.ID]; exists {
		return domain.ErrInvalidSuggestionID
	}
	rec, ok := s.polls[suggestion.PollID]
	if !ok {
		return domain.ErrPollNotFound
	}
	if rec.poll.Internal != suggestion.Internal {
		return domain.ErrVisibilityMismatch
	}
	if _, taken := s.byPoll[suggestion.PollID]; taken {
		return domain.ErrInvalidPollID
	}

	s.suggestions[suggestion.ID] = suggestion.Clone()
	s.byPoll[suggestion.PollID] = suggestion.ID
	return nil
}

func (v *Suggestions) GetByPollID(_ context.Context, pollID uuid.UUID) (*domain.Suggestion, error) {
	s := v.store
	s.suggestionsMu.RLock()
	defer s.suggestionsMu.RUnlock()

	id, ok := s.byPoll[pollID]
	if !ok {
		return nil, domain.ErrSuggestionNotFound
	}
	return s.suggestions[id].Clone(), nil
}

func (v *Suggestions) GetByID(_ context.Context, id uuid.UUID) (*domain.Suggestion, error) {
	s := v.store
	s.suggestionsMu.RLock()
	defer s.suggestionsMu.RUnlock()

	suggestion, ok := s.suggestions[id]
	if !ok {
		return nil, domain.ErrSuggestionNotFound
	}
	return suggestion.Clone(), nil
}

func (v *Suggestions) SetApproved(_ context.Context, id uuid.UUID, approved bool) (*domain.Suggestion, error) {
	s := v.store
	s.suggestionsMu.Lock()
	defer s.suggestionsMu.Unlock()

	suggestion, ok := s.suggestions[id]
	if !ok {
		return nil, domain.ErrSuggestionNotFound
	}
	suggestion.Approved = approved
	return suggestion.Clone(), nil
}

// OldestApproved picks the earliest approved suggestion with the requested visibility.
func (v *Suggestions) OldestApproved(_ context.Context, internal bool) (*domain.Suggestion, error) {
	s := v.store
	s.suggestionsMu.RLock()
	defer s.suggestionsMu.RUnlock()

	var oldest *domain.Suggestion
	for _, suggestion := range s.suggestions {
		if !suggestion.Approved || suggestion.Internal != internal {
			continue
		}
		if oldest == nil ||
			suggestion.CreatedAt.Before(oldest.CreatedAt) ||
			(suggestion.CreatedAt.Equal(oldest.CreatedAt) && suggestion.ID.String() < oldest.ID.String()) {
			oldest = suggestion
		}
	}
	if oldest == nil {
		return nil, domain.ErrNoApprovedSuggestion
	}
	return oldest.Clone(), nil
}
