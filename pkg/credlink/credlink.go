// Package credlink is the embedding surface for the provenance
// verification engine. Callers construct an Engine once and reuse it;
// every verification runs through the same pipeline: extraction, chain
// validation, signature verification, remote proof comparison and
// confidence scoring.
package credlink

import (
	"context"
	"crypto/x509"
	"fmt"

	"credlink/internal/config"
	"credlink/internal/domain"
	"credlink/internal/infra/certval"
	cryptoinfra "credlink/internal/infra/crypto"
	"credlink/internal/infra/extract"
	"credlink/internal/infra/policytrust"
	"credlink/internal/infra/proofstore"
	"credlink/internal/infra/revocation"
	"credlink/internal/infra/sigverify"
	"credlink/internal/usecase"
)

// Report is the verification outcome returned to callers.
type Report = domain.VerificationReport

type Engine struct {
	verify *usecase.VerifyAsset
}

// New wires an Engine from configuration. Optional collaborators degrade
// gracefully: no redis means an in-process cache, no postgres means
// revocation reports unknown, no bundle path means no policy gate.
func New(ctx context.Context, cfg config.Config) (*Engine, error) {
	var anchors []*x509.Certificate
	if cfg.TrustAnchorsPEMPath != "" {
		loaded, err := certval.LoadAnchorsPEM(cfg.TrustAnchorsPEMPath)
		if err != nil {
			return nil, err
		}
		anchors = loaded
	}

	var cache usecase.ValidationCache
	if cfg.RedisAddr != "" {
		redisCache, err := certval.NewRedisCache(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		cache = redisCache
	} else {
		cache = certval.NewMemoryCache()
	}

	var revocationChecker usecase.RevocationChecker = revocation.UnknownChecker{}
	if cfg.PostgresDSN != "" {
		store, err := revocation.NewStore(cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		revocationChecker = store
	}

	validator := certval.NewValidator(anchors, revocationChecker, cache)
	validator.TTL = cfg.CacheTTL()
	validator.RevocationTimeout = cfg.RevocationTimeout()

	verifier := sigverify.NewVerifier()
	verifier.ClockSkew = cfg.ClockSkew()
	verifier.MaxManifestAge = cfg.MaxManifestAge()

	var policy usecase.TrustPolicy
	if cfg.PolicyBundlePath != "" {
		engine, err := policytrust.NewEngineFromBundlePath(ctx, cfg.PolicyBundlePath, cfg.PolicyBundleID)
		if err != nil {
			return nil, fmt.Errorf("load policy bundle: %w", err)
		}
		policy = engine
	}

	var proofs usecase.ProofStore
	if cfg.ProofFetchEnabled {
		proofs = proofstore.NewClient(cfg.ProofTimeout(), cfg.MaxProofBytes)
	}

	verify := &usecase.VerifyAsset{
		Extractor:      extract.NewOrchestrator(cfg.ExtractionBudget()),
		Chains:         validator,
		Signatures:     verifier,
		Proofs:         proofs,
		Canonical:      cryptoinfra.NewService(),
		Policy:         policy,
		ValidThreshold: cfg.ValidThreshold,
		ProofTimeout:   cfg.ProofTimeout(),
		MaxImageBytes:  cfg.MaxImageBytes,
	}
	return &Engine{verify: verify}, nil
}

// NewFromEnv builds an Engine from environment variables.
func NewFromEnv(ctx context.Context) (*Engine, error) {
	return New(ctx, config.FromEnv())
}

// VerifyImage runs the full pipeline over raw image bytes.
func (e *Engine) VerifyImage(ctx context.Context, image []byte) (*Report, error) {
	return e.verify.Execute(ctx, usecase.VerifyAssetRequest{Image: image})
}

// VerifyImageWithChain verifies with a caller-supplied leaf-first chain
// and optional detached COSE_Sign1 signature; both take precedence over
// material embedded in the asset.
func (e *Engine) VerifyImageWithChain(ctx context.Context, image []byte, chain []*x509.Certificate, signature []byte) (*Report, error) {
	return e.verify.Execute(ctx, usecase.VerifyAssetRequest{
		Image:     image,
		CertChain: chain,
		Signature: signature,
	})
}
