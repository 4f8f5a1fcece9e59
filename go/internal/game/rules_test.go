package game

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoadRulesAppliesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rules.yaml")
	content := []byte("answer_time_limit_sec: 15\nmax_bonus: 25\nunfreeze: cooldown\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	rules, err := LoadRules(path)
	if err != nil {
		t.Fatalf("LoadRules() error = %v", err)
	}
	if rules.AnswerTimeLimitSec != 15 || rules.MaxBonus != 25 {
		t.Errorf("overrides not applied: %+v", rules)
	}
	if rules.Unfreeze != UnfreezeCooldown {
		t.Errorf("Unfreeze = %q, want cooldown", rules.Unfreeze)
	}
	// Omitted keys keep their defaults.
	if rules.RevealIntervalMs != 800 || rules.StealsPerQuestion != 2 {
		t.Errorf("defaults lost for omitted keys: %+v", rules)
	}
	if rules.AnswerTimeLimit() != 15*time.Second {
		t.Errorf("AnswerTimeLimit() = %v, want 15s", rules.AnswerTimeLimit())
	}
}

func TestLoadRulesMissingFile(t *testing.T) {
	if _, err := LoadRules(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Fatal("expected an error for a missing rules file")
	}
}

func TestRulesValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *Rules)
		wantOK bool
	}{
		{"defaults are valid", func(*Rules) {}, true},
		{"zero answer limit", func(r *Rules) { r.AnswerTimeLimitSec = 0 }, false},
		{"zero reveal interval", func(r *Rules) { r.RevealIntervalMs = 0 }, false},
		{"payout above one", func(r *Rules) { r.StealPayoutFraction = 1.5 }, false},
		{"negative payout", func(r *Rules) { r.StealPayoutFraction = -0.1 }, false},
		{"zero freeze threshold", func(r *Rules) { r.FreezeThreshold = 0 }, false},
		{"unknown unfreeze mode", func(r *Rules) { r.Unfreeze = "sometimes" }, false},
		{"negative steals", func(r *Rules) { r.StealsPerQuestion = -1 }, false},
		{"zero steals disables stealing", func(r *Rules) { r.StealsPerQuestion = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rules := DefaultRules()
			tt.mutate(&rules)
			err := rules.Validate()
			if (err == nil) != tt.wantOK {
				t.Errorf("Validate() = %v, wantOK %v", err, tt.wantOK)
			}
		})
	}
}
