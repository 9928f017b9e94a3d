package usecase

import (
	"context"
	"crypto/x509"
	"time"

	"credlink/internal/domain"
)

// Extractor attempts every embedding method over raw image bytes and
// returns the best candidate. It must not fail on malformed input; errors
// are reserved for caller-contract violations such as empty input.
type Extractor interface {
	Extract(data []byte) (domain.ExtractionResult, error)
}

// ChainValidator validates an ordered, leaf-first certificate chain.
type ChainValidator interface {
	ValidateChain(ctx context.Context, chain []*x509.Certificate) (*domain.ChainValidationResult, error)
}

// SignatureVerifier checks cryptographic validity of the extracted
// manifest's signature and scans for tamper indicators.
type SignatureVerifier interface {
	Verify(ctx context.Context, extraction domain.ExtractionResult, signature []byte, leaf *x509.Certificate) (*domain.SignatureVerificationResult, error)
}

// ProofStore fetches a previously stored manifest copy by reference URI.
// A nil result with nil error means the proof does not exist.
type ProofStore interface {
	Fetch(ctx context.Context, uri string) ([]byte, error)
}

// RevocationChecker reports certificate revocation status. Implementations
// must return RevocationUnknown rather than an error when the underlying
// source is unavailable; callers treat errors the same way.
type RevocationChecker interface {
	Status(ctx context.Context, serial, issuer string) (domain.RevocationStatus, error)
}

// ValidationCache stores chain validation results keyed by fingerprint.
// Entries are read-only snapshots; concurrent writers for the same key may
// race, last writer wins.
type ValidationCache interface {
	Get(ctx context.Context, fingerprint string) (*domain.ChainValidationResult, bool, error)
	Put(ctx context.Context, fingerprint string, result domain.ChainValidationResult, ttl time.Duration) error
}

// Canonicalizer renders manifests and raw JSON documents in a canonical
// byte form; equal bytes mean equal content.
type Canonicalizer interface {
	CanonicalizeManifest(manifest domain.Manifest) ([]byte, error)
	CanonicalizeJSON(raw []byte) ([]byte, error)
}

// TrustPolicy evaluates the finished report against tenant policy.
type TrustPolicy interface {
	Evaluate(ctx context.Context, report domain.VerificationReport) (domain.PolicyReceipt, error)
}
