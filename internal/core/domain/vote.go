package domain

import "strings"

type Choice string

const (
	ChoiceFor     Choice = "for"
	ChoiceAgainst Choice = "against"
)

func ParseChoice(raw string) (Choice, error) {
	switch c := Choice(strings.ToLower(strings.TrimSpace(raw))); c {
	case ChoiceFor, ChoiceAgainst:
		return c, nil
	}
	return "", ErrInvalidChoice
}

func (c Choice) Valid() bool {
	return c == ChoiceFor || c == ChoiceAgainst
}

// Votes maps a voter identity to that voter's latest choice.
// Abstaining voters are simply absent.
type Votes map[string]Choice

// Set records the voter's choice, replacing any earlier one.
func (v Votes) Set(voterID string, choice Choice) {
	v[voterID] = choice
}

// Remove deletes the voter's entry and reports whether there was one.
func (v Votes) Remove(voterID string) bool {
	if _, ok := v[voterID]; !ok {
		return false
	}
	delete(v, voterID)
	return true
}

func (v Votes) Count(choice Choice) int {
	n := 0
	for _, c := range v {
		if c == choice {
			n++
		}
	}
	return n
}

func (v Votes) Clone() Votes {
	out := make(Votes, len(v))
	for voter, choice := range v {
		out[voter] = choice
	}
	return out
}
