package memory

import (
	"bytes"
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
	"github.com/vncsmyrnk/featurepoll/internal/core/ports"
)

var (
	_ ports.PollRepository       = (*Store)(nil)
	_ ports.SubmissionRepository = (*Store)(nil)
	_ ports.DecisionRepository   = (*Store)(nil)
)

// Store keeps polls and suggestions in process. Every poll has its own lock, so
// mutations on different polls run in parallel.
//
// Lock order: pollsMu, then a poll record, then suggestionsMu.
type Store struct {
	pollsMu sync.RWMutex
	polls   map[uuid.UUID]*pollRecord

	suggestionsMu sync.RWMutex
	suggestions   map[uuid.UUID]*domain.Suggestion
	byPoll        map[uuid.UUID]uuid.UUID
}

type pollRecord struct {
	mu   sync.Mutex
	poll *domain.Poll
}

func NewStore() *Store {
	return &Store{
		polls:       make(map[uuid.UUID]*pollRecord),
		suggestions: make(map[uuid.UUID]*domain.Suggestion),
		byPoll:      make(map[uuid.UUID]uuid.UUID),
	}
}

func (s *Store) record(id uuid.UUID) (*pollRecord, error) {
	s.pollsMu.RLock()
	defer s.pollsMu.RUnlock()

	rec, ok := s.polls[id]
	if !ok {
		return nil, domain.ErrPollNotFound
	}
	return rec, nil
}

func (s *Store) Create(_ context.Context, poll *domain.Poll) error {
	if poll == nil || poll.ID == uuid.Nil {
		return domain.ErrInvalidPollID
	}

	s.pollsMu.Lock()
	defer s.pollsMu.Unlock()

	if _, exists := s.polls[poll.ID]; exists {
		return domain.ErrInvalidPollID
	}
	s.polls[poll.ID] = &pollRecord{poll: poll.Clone()}
	return nil
}

func (s *Store) GetByID(_ context.Context, id uuid.UUID) (*domain.Poll, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()
	return rec.poll.Clone(), nil
}

func (s *Store) RecordVote(_ context.Context, id uuid.UUID, voterID string, choice domain.Choice) (*domain.Poll, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.poll.Status != domain.PollStatusOpen {
		return nil, domain.ErrPollClosed
	}
	rec.poll.Votes.Set(voterID, choice)
	return rec.poll.Clone(), nil
}

func (s *Store) RemoveVote(_ context.Context, id uuid.UUID, voterID string) (*domain.Poll, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.poll.Status != domain.PollStatusOpen {
		return nil, domain.ErrPollClosed
	}
	if !rec.poll.Votes.Remove(voterID) {
		return nil, domain.ErrNoVote
	}
	return rec.poll.Clone(), nil
}

func (s *Store) SetStatus(_ context.Context, id uuid.UUID, status domain.PollStatus) (*domain.Poll, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if err := rec.poll.Status.CheckTransition(status); err != nil {
		return nil, err
	}
	rec.poll.Status = status
	return rec.poll.Clone(), nil
}

func (s *Store) Cancel(_ context.Context, id uuid.UUID, reason domain.CancelReason) (*domain.Poll, bool, error) {
	rec, err := s.record(id)
	if err != nil {
		return nil, false, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if rec.poll.Status.Terminal() {
		return rec.poll.Clone(), false, nil
	}
	rec.poll.Status = domain.PollStatusCancelled
	rec.poll.CancelReason = reason
	return rec.poll.Clone(), true, nil
}

func (s *Store) ListByStatus(_ context.Context, status domain.PollStatus) ([]*domain.Poll, error) {
	s.pollsMu.RLock()
	records := make([]*pollRecord, 0, len(s.polls))
	for _, rec := range s.polls {
		records = append(records, rec)
	}
	s.pollsMu.RUnlock()

	out := make([]*domain.Poll, 0)
	for _, rec := range records {
		rec.mu.Lock()
		if rec.poll.Status == status {
			out = append(out, rec.poll.Clone())
		}
		rec.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		return bytes.Compare(out[i].ID[:], out[j].ID[:]) < 0
	})
	return out, nil
}

// CommitDecision holds the poll lock while the suggestion is updated, so the approval
// and the decided status become visible together.
func (s *Store) CommitDecision(_ context.Context, pollID uuid.UUID, approved bool) (*domain.Poll, *domain.Suggestion, error) {
	rec, err := s.record(pollID)
	if err != nil {
		return nil, nil, err
	}
	rec.mu.Lock()
	defer rec.mu.Unlock()

	if err := rec.poll.Status.CheckTransition(domain.PollStatusDecided); err != nil {
		return nil, nil, err
	}

	s.suggestionsMu.Lock()
	defer s.suggestionsMu.Unlock()

	suggestionID, ok := s.byPoll[pollID]
	if !ok {
		return nil, nil, domain.ErrSuggestionNotFound
	}
	suggestion := s.suggestions[suggestionID]
	suggestion.Approved = approved
	rec.poll.Status = domain.PollStatusDecided

	return rec.poll.Clone(), suggestion.Clone(), nil
}
