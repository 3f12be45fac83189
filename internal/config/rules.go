package config

import (
	"fmt"
	"os"

	"github.com/vncsmyrnk/featurepoll/internal/core/services"
	"gopkg.in/yaml.v3"
)

// QuorumConfig sets the minimum number of voters per audience. Unset values default to 1.
type QuorumConfig struct {
	Internal *int `yaml:"internal,omitempty"`
	Public   *int `yaml:"public,omitempty"`
}

// Rules is the decision rules file (rules.yml).
type Rules struct {
	Quorum            QuorumConfig `yaml:"quorum"`
	TieBreak          string       `yaml:"tie_break,omitempty"`            // "reject" (default) or "approve"
	AutoCloseForVotes int          `yaml:"auto_close_for_votes,omitempty"` // 0 disables
}

func DefaultRules() *Rules {
	r := &Rules{}
	_ = r.Validate()
	return r
}

// Validate checks the rules and fills in defaults.
func (r *Rules) Validate() error {
	if r.Quorum.Internal == nil {
		one := 1
		r.Quorum.Internal = &one
	}
	if r.Quorum.Public == nil {
		one := 1
		r.Quorum.Public = &one
	}
	if *r.Quorum.Internal < 0 {
		return fmt.Errorf("quorum.internal must be >= 0, got %d", *r.Quorum.Internal)
	}
	if *r.Quorum.Public < 0 {
		return fmt.Errorf("quorum.public must be >= 0, got %d", *r.Quorum.Public)
	}

	tieBreak, err := services.ParseTieBreak(r.TieBreak)
	if err != nil {
		return err
	}
	r.TieBreak = string(tieBreak)

	if r.AutoCloseForVotes < 0 {
		return fmt.Errorf("auto_close_for_votes must be >= 0, got %d", r.AutoCloseForVotes)
	}
	return nil
}

// TallyConfig converts validated rules for the tally engine.
func (r *Rules) TallyConfig() services.TallyConfig {
	return services.TallyConfig{
		QuorumInternal:    *r.Quorum.Internal,
		QuorumPublic:      *r.Quorum.Public,
		TieBreak:          services.TieBreak(r.TieBreak),
		AutoCloseForVotes: r.AutoCloseForVotes,
	}
}

// LoadRules reads and validates a rules file. An empty path yields the defaults.
func LoadRules(path string) (*Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read rules: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := rules.Validate(); err != nil {
		return nil, fmt.Errorf("invalid rules: %w", err)
	}

	return &rules, nil
}
