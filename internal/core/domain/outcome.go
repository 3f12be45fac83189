package domain

type Verdict string

const (
	VerdictApproved Verdict = "approved"
	VerdictRejected Verdict = "rejected"
	VerdictNoQuorum Verdict = "no_quorum"
)

// Outcome is the result of tallying a poll's votes. Only Approved is persisted;
// the remaining fields are for presentation and logs.
type Outcome struct {
	Approved     bool    `json:"approved"`
	Verdict      Verdict `json:"verdict"`
	ForCount     int     `json:"for_count"`
	AgainstCount int     `json:"against_count"`
	TotalVoters  int     `json:"total_voters"`
	Margin       int     `json:"margin"`
	Quorum       int     `json:"quorum"`
	Tie          bool    `json:"tie"`
}
