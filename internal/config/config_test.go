package config

import (
	"testing"
	"time"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("VALID_THRESHOLD", "")
	t.Setenv("CHAIN_CACHE_TTL_SECONDS", "")
	t.Setenv("POLICY_BUNDLE_ID", "")
	cfg := FromEnv()
	if cfg.ValidThreshold != 75 {
		t.Fatalf("expected threshold 75, got %d", cfg.ValidThreshold)
	}
	if cfg.CacheTTL() != time.Hour {
		t.Fatalf("expected 1h cache ttl, got %s", cfg.CacheTTL())
	}
	if cfg.ExtractionBudget() != 200*time.Millisecond {
		t.Fatalf("expected 200ms budget, got %s", cfg.ExtractionBudget())
	}
	if cfg.PolicyBundleID != "trust.v1" {
		t.Fatalf("expected default bundle id, got %q", cfg.PolicyBundleID)
	}
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("VALID_THRESHOLD", "90")
	t.Setenv("CHAIN_CACHE_TTL_SECONDS", "60")
	t.Setenv("REDIS_ADDR", "localhost:6379")
	cfg := FromEnv()
	if cfg.ValidThreshold != 90 {
		t.Fatalf("expected threshold 90, got %d", cfg.ValidThreshold)
	}
	if cfg.CacheTTL() != time.Minute {
		t.Fatalf("expected 60s ttl, got %s", cfg.CacheTTL())
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Fatalf("unexpected redis addr %q", cfg.RedisAddr)
	}
}

func TestFromEnv_BoolToggle(t *testing.T) {
	t.Setenv("PROOF_FETCH_ENABLED", "")
	if !FromEnv().ProofFetchEnabled {
		t.Fatal("proof fetching should default on")
	}
	t.Setenv("PROOF_FETCH_ENABLED", "false")
	if FromEnv().ProofFetchEnabled {
		t.Fatal("expected proof fetching disabled")
	}
	t.Setenv("PROOF_FETCH_ENABLED", "nonsense")
	if !FromEnv().ProofFetchEnabled {
		t.Fatal("bad value should fall back to default")
	}
}

func TestFromEnv_RejectsBadValues(t *testing.T) {
	t.Setenv("VALID_THRESHOLD", "not-a-number")
	t.Setenv("CLOCK_SKEW_SECONDS", "-5")
	cfg := FromEnv()
	if cfg.ValidThreshold != 75 {
		t.Fatalf("bad value should fall back to default, got %d", cfg.ValidThreshold)
	}
	if cfg.ClockSkew() != 300*time.Second {
		t.Fatalf("negative value should fall back to default, got %s", cfg.ClockSkew())
	}
}
