package domain

import (
	"time"

	"github.com/google/uuid"
)

type PollEventType string

const (
	PollEventVoteRecorded  PollEventType = "vote_recorded"
	PollEventVoteRetracted PollEventType = "vote_retracted"
	PollEventClosing       PollEventType = "closing"
	PollEventDecided       PollEventType = "decided"
	PollEventCancelled     PollEventType = "cancelled"
	PollEventArchived      PollEventType = "archived"
)

// PollEvent is emitted after every successful poll mutation for the presentation layer.
type PollEvent struct {
	Type         PollEventType `json:"type"`
	PollID       uuid.UUID     `json:"poll_id"`
	MessageID    string        `json:"message_id"`
	Internal     bool          `json:"internal"`
	Status       PollStatus    `json:"status"`
	VoterCount   int           `json:"voter_count"`
	CancelReason CancelReason  `json:"cancel_reason,omitempty"`
	Outcome      *Outcome      `json:"outcome,omitempty"`
	OccurredAt   time.Time     `json:"occurred_at"`
}

func NewPollEvent(t PollEventType, p *Poll, at time.Time) PollEvent {
	return PollEvent{
		Type:         t,
		PollID:       p.ID,
		MessageID:    p.MessageID,
		Internal:     p.Internal,
		Status:       p.Status,
		VoterCount:   len(p.Votes),
		CancelReason: p.CancelReason,
		OccurredAt:   at.UTC(),
	}
}
