package domain

import (
	"fmt"

	"github.com/google/uuid"
)

type Poll struct {
	ID           uuid.UUID    `json:"id"`
	MessageID    string       `json:"message_id"`
	AuthorID     string       `json:"author_id"`
	Internal     bool         `json:"internal"`
	Status       PollStatus   `json:"status"`
	CancelReason CancelReason `json:"cancel_reason,omitempty"`
	Votes        Votes        `json:"votes"`
}

// NewPoll returns an open poll with a fresh id and no votes.
func NewPoll(messageID, authorID string, internal bool) *Poll {
	return &Poll{
		ID:        uuid.New(),
		MessageID: messageID,
		AuthorID:  authorID,
		Internal:  internal,
		Status:    PollStatusOpen,
		Votes:     Votes{},
	}
}

// Clone returns a deep copy so callers never share the vote mapping with a store.
func (p *Poll) Clone() *Poll {
	if p == nil {
		return nil
	}
	c := *p
	c.Votes = p.Votes.Clone()
	return &c
}

type PollStatus string

const (
	PollStatusOpen      PollStatus = "open"
	PollStatusClosing   PollStatus = "closing"
	PollStatusDecided   PollStatus = "decided"
	PollStatusArchived  PollStatus = "archived"
	PollStatusCancelled PollStatus = "cancelled"
)

var pollTransitions = map[PollStatus][]PollStatus{
	PollStatusOpen:    {PollStatusClosing, PollStatusCancelled},
	PollStatusClosing: {PollStatusDecided, PollStatusCancelled},
	PollStatusDecided: {PollStatusArchived},
}

func (s PollStatus) Valid() bool {
	switch s {
	case PollStatusOpen, PollStatusClosing, PollStatusDecided, PollStatusArchived, PollStatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no decision can be reached from s anymore.
// Decided polls are terminal even though they may still be archived.
func (s PollStatus) Terminal() bool {
	return s == PollStatusDecided || s == PollStatusArchived || s == PollStatusCancelled
}

func (s PollStatus) CanTransitionTo(next PollStatus) bool {
	for _, allowed := range pollTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// CheckTransition returns ErrInvalidTransition wrapped with both states when s cannot move to next.
func (s PollStatus) CheckTransition(next PollStatus) error {
	if !s.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, s, next)
	}
	return nil
}

func ParsePollStatus(raw string) (PollStatus, error) {
	s := PollStatus(raw)
	if !s.Valid() {
		return "", fmt.Errorf("unknown poll status %q", raw)
	}
	return s, nil
}

// CancelReason records why a poll was cancelled.
type CancelReason string

const (
	CancelReasonRevoked CancelReason = "revoked"
	CancelReasonVetoed  CancelReason = "vetoed"
)

func ParseCancelReason(raw string) (CancelReason, error) {
	switch r := CancelReason(raw); r {
	case CancelReasonRevoked, CancelReasonVetoed:
		return r, nil
	}
	return "", ErrInvalidCancelReason
}
