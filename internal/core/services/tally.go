package services

import (
	"fmt"
	"strings"

	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
)

type TieBreak string

const (
	TieBreakReject  TieBreak = "reject"
	TieBreakApprove TieBreak = "approve"
)

func ParseTieBreak(raw string) (TieBreak, error) {
	switch t := TieBreak(strings.ToLower(strings.TrimSpace(raw))); t {
	case "":
		return TieBreakReject, nil
	case TieBreakReject, TieBreakApprove:
		return t, nil
	}
	return "", fmt.Errorf("unknown tie break %q", raw)
}

// TallyConfig holds the decision rules. Internal and public polls may use different quorums.
type TallyConfig struct {
	QuorumInternal int
	QuorumPublic   int
	TieBreak       TieBreak
	// AutoCloseForVotes closes a poll as soon as it has this many votes in favour. Zero disables it.
	AutoCloseForVotes int
}

func (c TallyConfig) Quorum(internal bool) int {
	q := c.QuorumPublic
	if internal {
		q = c.QuorumInternal
	}
	if q < 0 {
		return 0
	}
	return q
}

// Tally turns a vote mapping into an Outcome. It has no side effects.
func Tally(votes domain.Votes, internal bool, cfg TallyConfig) domain.Outcome {
	forCount := votes.Count(domain.ChoiceFor)
	againstCount := votes.Count(domain.ChoiceAgainst)

	out := domain.Outcome{
		ForCount:     forCount,
		AgainstCount: againstCount,
		TotalVoters:  forCount + againstCount,
		Margin:       forCount - againstCount,
		Quorum:       cfg.Quorum(internal),
		Tie:          forCount == againstCount,
	}

	switch {
	case out.TotalVoters < out.Quorum:
		out.Verdict = domain.VerdictNoQuorum
	case forCount > againstCount:
		out.Approved = true
	case out.Tie:
		out.Approved = cfg.TieBreak == TieBreakApprove
	}

	if out.Verdict == "" {
		out.Verdict = domain.VerdictRejected
		if out.Approved {
			out.Verdict = domain.VerdictApproved
		}
	}
	return out
}
