package postgres

import (
	"encoding/json"
	"fmt"

	"github.com/vncsmyrnk/featurepoll/internal/core/domain"
)

// Column codes. The integers are part of the stored format and must not be reordered.
var statusCodes = map[domain.PollStatus]int16{
	domain.PollStatusOpen:      0,
	domain.PollStatusClosing:   1,
	domain.PollStatusDecided:   2,
	domain.PollStatusArchived:  3,
	domain.PollStatusCancelled: 4,
}

var choiceCodes = map[domain.Choice]int{
	domain.ChoiceFor:     1,
	domain.ChoiceAgainst: 2,
}

func encodeStatus(s domain.PollStatus) (int16, error) {
	code, ok := statusCodes[s]
	if !ok {
		return 0, fmt.Errorf("unknown poll status %q", s)
	}
	return code, nil
}

func decodeStatus(code int16) (domain.PollStatus, error) {
	for s, c := range statusCodes {
		if c == code {
			return s, nil
		}
	}
	return "", fmt.Errorf("unknown poll status code %d", code)
}

// encodeVotes stores the vote mapping as {"voterId": choiceCode}.
func encodeVotes(votes domain.Votes) ([]byte, error) {
	raw := make(map[string]int, len(votes))
	for voter, choice := range votes {
		code, ok := choiceCodes[choice]
		if !ok {
			return nil, fmt.Errorf("%w: %q", domain.ErrInvalidChoice, choice)
		}
		raw[voter] = code
	}
	return json.Marshal(raw)
}

func decodeVotes(data []byte) (domain.Votes, error) {
	votes := domain.Votes{}
	if len(data) == 0 {
		return votes, nil
	}

	var raw map[string]int
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to decode votes: %w", err)
	}
	for voter, code := range raw {
		switch code {
		case choiceCodes[domain.ChoiceFor]:
			votes[voter] = domain.ChoiceFor
		case choiceCodes[domain.ChoiceAgainst]:
			votes[voter] = domain.ChoiceAgainst
		default:
			return nil, fmt.Errorf("unknown choice code %d for voter %s", code, voter)
		}
	}
	return votes, nil
}
