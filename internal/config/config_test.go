package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadAppliesDefaultsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "learner.yaml")
	content := "guess_budget: 500\noracle: brute-force\nclock_kappa_overrides:\n  x: 7\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.GuessBudget != 500 {
		t.Errorf("expected guess_budget 500, got %d", cfg.GuessBudget)
	}
	if cfg.Oracle != OracleBruteForce {
		t.Errorf("expected brute-force oracle, got %q", cfg.Oracle)
	}
	if cfg.ClockKappaOverrides["x"] != 7 {
		t.Errorf("expected kappa override for x=7, got %v", cfg.ClockKappaOverrides)
	}
}

func TestLoadRejectsUnknownOracle(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "learner.yaml")
	if err := os.WriteFile(path, []byte("oracle: magic\nguess_budget: 1\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("expected an error for an unknown oracle name")
	}
}

func TestDefaultLearnerConfigIsValid(t *testing.T) {
	if err := DefaultLearnerConfig().Validate(); err != nil {
		t.Fatalf("default config should be valid: %v", err)
	}
}
