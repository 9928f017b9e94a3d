package config

import (
	"os"
	"strconv"
	"time"
)

type Config struct {
	TrustAnchorsPEMPath string

	ValidThreshold      int
	CacheTTLSeconds     int
	ExtractionBudgetMS  int
	RevocationTimeoutMS int
	ProofTimeoutMS      int
	ClockSkewSeconds    int
	MaxManifestAgeDays  int
	MaxImageBytes       int
	MaxProofBytes       int

	// ProofFetchEnabled gates remote proof retrieval; air-gapped
	// deployments turn it off and proofs report unavailable.
	ProofFetchEnabled bool

	PolicyBundlePath string
	PolicyBundleID   string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	PostgresDSN string
}

func FromEnv() Config {
	return Config{
		TrustAnchorsPEMPath: os.Getenv("TRUST_ANCHORS_PEM"),
		ValidThreshold:      envIntDefault("VALID_THRESHOLD", 75),
		CacheTTLSeconds:     envIntDefault("CHAIN_CACHE_TTL_SECONDS", 3600),
		ExtractionBudgetMS:  envIntDefault("EXTRACTION_BUDGET_MS", 200),
		RevocationTimeoutMS: envIntDefault("REVOCATION_TIMEOUT_MS", 2000),
		ProofTimeoutMS:      envIntDefault("PROOF_TIMEOUT_MS", 3000),
		ClockSkewSeconds:    envIntDefault("CLOCK_SKEW_SECONDS", 300),
		MaxManifestAgeDays:  envIntDefault("MAX_MANIFEST_AGE_DAYS", 3650),
		MaxImageBytes:       envIntDefault("MAX_IMAGE_BYTES", 100*1024*1024),
		MaxProofBytes:       envIntDefault("MAX_PROOF_BYTES", 4*1024*1024),
		ProofFetchEnabled:   envBoolDefault("PROOF_FETCH_ENABLED", true),
		PolicyBundlePath:    os.Getenv("POLICY_BUNDLE_PATH"),
		PolicyBundleID:      envDefault("POLICY_BUNDLE_ID", "trust.v1"),
		RedisAddr:           os.Getenv("REDIS_ADDR"),
		RedisPassword:       os.Getenv("REDIS_PASSWORD"),
		RedisDB:             envIntDefault("REDIS_DB", 0),
		PostgresDSN:         os.Getenv("POSTGRES_DSN"),
	}
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return parsed
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func (c Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

func (c Config) ExtractionBudget() time.Duration {
	return time.Duration(c.ExtractionBudgetMS) * time.Millisecond
}

func (c Config) RevocationTimeout() time.Duration {
	return time.Duration(c.RevocationTimeoutMS) * time.Millisecond
}

func (c Config) ProofTimeout() time.Duration {
	return time.Duration(c.ProofTimeoutMS) * time.Millisecond
}

func (c Config) ClockSkew() time.Duration {
	return time.Duration(c.ClockSkewSeconds) * time.Second
}

func (c Config) MaxManifestAge() time.Duration {
	return time.Duration(c.MaxManifestAgeDays) * 24 * time.Hour
}
