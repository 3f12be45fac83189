package domain

import "errors"

var (
	ErrPollNotFound           = errors.New("poll not found")
	ErrSuggestionNotFound     = errors.New("suggestion not found")
	ErrNoApprovedSuggestion   = errors.New("no approved suggestion found")
	ErrInvalidPollID          = errors.New("invalid poll id")
	ErrInvalidSuggestionID    = errors.New("invalid suggestion id")
	ErrInvalidSuggestion      = errors.New("invalid suggestion")
	ErrInvalidChoice          = errors.New("invalid vote choice")
	ErrInvalidVoter           = errors.New("voter id is required")
	ErrInvalidCancelReason    = errors.New("invalid cancel reason")
	ErrPollClosed             = errors.New("poll is not open for voting")
	ErrInvalidTransition      = errors.New("invalid poll status transition")
	ErrSelfVote               = errors.New("poll author cannot vote on their own poll")
	ErrAudienceForbidden      = errors.New("voter is not part of this poll's audience")
	ErrNotPollAuthor          = errors.New("only the poll author can revoke it")
	ErrNoVote                 = errors.New("voter has not voted on this poll")
	ErrVisibilityMismatch     = errors.New("poll and suggestion visibility differ")
	ErrDecisionPersistFailure = errors.New("failed to persist poll decision")
)
