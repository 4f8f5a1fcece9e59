package game

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// UnfreezeMode selects how a frozen team thaws.
type UnfreezeMode string

const (
	// UnfreezeNextCorrect thaws a team the moment it answers correctly.
	UnfreezeNextCorrect UnfreezeMode = "next-correct"
	// UnfreezeCooldown thaws a team after a configured number of question
	// advances, regardless of outcomes.
	UnfreezeCooldown UnfreezeMode = "cooldown"
)

// Rules are the tunable game knobs. Durations are carried as integer
// seconds/milliseconds in YAML, matching how the product configures its
// per-pick timers.
type Rules struct {
	AnswerTimeLimitSec        int          `yaml:"answer_time_limit_sec"`
	RevealIntervalMs          int          `yaml:"reveal_interval_ms"`
	MaxBonus                  int          `yaml:"max_bonus"`
	StealPayoutFraction       float64      `yaml:"steal_payout_fraction"`
	WrongPenalty              int          `yaml:"wrong_penalty"`
	FreezeThreshold           int          `yaml:"freeze_threshold"`
	Unfreeze                  UnfreezeMode `yaml:"unfreeze"`
	UnfreezeCooldownQuestions int          `yaml:"unfreeze_cooldown_questions"`
	StealsPerQuestion         int          `yaml:"steals_per_question"`
	HostGraceSec              int          `yaml:"host_grace_sec"`
}

// DefaultRules returns the rule set used when no config file is supplied.
func DefaultRules() Rules {
	return Rules{
		AnswerTimeLimitSec:        30,
		RevealIntervalMs:          800,
		MaxBonus:                  10,
		StealPayoutFraction:       0.5,
		WrongPenalty:              0,
		FreezeThreshold:           3,
		Unfreeze:                  UnfreezeNextCorrect,
		UnfreezeCooldownQuestions: 1,
		StealsPerQuestion:         2,
		HostGraceSec:              60,
	}
}

// LoadRules reads a YAML rules file, applying defaults for anything omitted.
func LoadRules(path string) (Rules, error) {
	rules := DefaultRules()

	data, err := os.ReadFile(path)
	if err != nil {
		return rules, fmt.Errorf("failed to read rules file: %w", err)
	}
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return rules, fmt.Errorf("failed to parse rules file: %w", err)
	}
	if err := rules.Validate(); err != nil {
		return rules, err
	}
	return rules, nil
}

// Validate rejects rule combinations the engine cannot run with.
func (r Rules) Validate() error {
	if r.AnswerTimeLimitSec <= 0 {
		return fmt.Errorf("answer_time_limit_sec must be positive, got %d", r.AnswerTimeLimitSec)
	}
	if r.RevealIntervalMs <= 0 {
		return fmt.Errorf("reveal_interval_ms must be positive, got %d", r.RevealIntervalMs)
	}
	if r.StealPayoutFraction < 0 || r.StealPayoutFraction > 1 {
		return fmt.Errorf("steal_payout_fraction must be in [0,1], got %f", r.StealPayoutFraction)
	}
	if r.FreezeThreshold < 1 {
		return fmt.Errorf("freeze_threshold must be at least 1, got %d", r.FreezeThreshold)
	}
	if r.Unfreeze != UnfreezeNextCorrect && r.Unfreeze != UnfreezeCooldown {
		return fmt.Errorf("unknown unfreeze mode %q", r.Unfreeze)
	}
	if r.StealsPerQuestion < 0 {
		return fmt.Errorf("steals_per_question cannot be negative, got %d", r.StealsPerQuestion)
	}
	return nil
}

// AnswerTimeLimit returns the limit as a duration.
func (r Rules) AnswerTimeLimit() time.Duration {
	return time.Duration(r.AnswerTimeLimitSec) * time.Second
}

// RevealInterval returns the reveal cadence as a duration.
func (r Rules) RevealInterval() time.Duration {
	return time.Duration(r.RevealIntervalMs) * time.Millisecond
}

// HostGracePeriod returns how long a room survives a host disconnect.
func (r Rules) HostGracePeriod() time.Duration {
	return time.Duration(r.HostGraceSec) * time.Second
}
