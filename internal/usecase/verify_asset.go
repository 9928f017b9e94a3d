package usecase

import (
	"bytes"
	"context"
	"crypto/x509"
	"fmt"
	"time"

	"credlink/internal/domain"
)

type VerifyAssetRequest struct {
	// Image is the raw asset bytes. Required.
	Image []byte
	// CertChain is a caller-supplied chain, leaf first. When set it takes
	// precedence over any chain embedded in the asset.
	CertChain []*x509.Certificate
	// Signature is a caller-supplied detached COSE_Sign1 message. When set
	// it takes precedence over the embedded signature.
	Signature []byte
	// SkipPolicy suppresses the trust-policy gate for this request.
	SkipPolicy bool
}

// VerifyAsset runs the full verification pipeline: extraction, chain
// validation, signature verification and tamper scan, remote proof
// comparison, and confidence aggregation. Adversarial input degrades to a
// low score; errors are reserved for contract violations and broken
// collaborators.
type VerifyAsset struct {
	Extractor  Extractor
	Chains     ChainValidator
	Signatures SignatureVerifier
	Proofs     ProofStore
	Canonical  Canonicalizer
	Policy     TrustPolicy
	Scorer     ConfidenceCalculator

	ValidThreshold int
	ProofTimeout   time.Duration
	MaxImageBytes  int
}

func (uc *VerifyAsset) Execute(ctx context.Context, req VerifyAssetRequest) (*domain.VerificationReport, error) {
	if len(req.Image) == 0 {
		return nil, domain.ErrEmptyImage
	}
	if uc.MaxImageBytes > 0 && len(req.Image) > uc.MaxImageBytes {
		return nil, fmt.Errorf("image exceeds %d bytes", uc.MaxImageBytes)
	}

	extraction, err := uc.Extractor.Extract(req.Image)
	if err != nil {
		return nil, err
	}

	chain, leaf := uc.resolveChain(ctx, req, &extraction)

	signature := uc.verifySignature(ctx, req, extraction, leaf)

	proof := uc.compareRemoteProof(ctx, extraction)

	score := uc.Scorer.Score(extraction, signature, chain, proof)
	threshold := uc.ValidThreshold
	if threshold <= 0 {
		threshold = DefaultValidThreshold
	}

	report := &domain.VerificationReport{
		Valid:       score.Overall >= threshold,
		Confidence:  score,
		Extraction:  extraction,
		Signature:   signature,
		Chain:       chain,
		RemoteProof: proof,
	}

	if uc.Policy != nil && !req.SkipPolicy {
		receipt, err := uc.Policy.Evaluate(ctx, *report)
		if err != nil {
			return nil, fmt.Errorf("trust policy: %w", err)
		}
		report.Policy = receipt
		if allow, ok := receipt["allow"].(bool); ok && !allow {
			report.Valid = false
		}
	}
	return report, nil
}

// resolveChain prefers a caller-supplied chain over the embedded one and
// validates whichever is present. Certificate problems never abort the
// request; a missing or unparseable chain simply yields no chain result.
func (uc *VerifyAsset) resolveChain(ctx context.Context, req VerifyAssetRequest, extraction *domain.ExtractionResult) (*domain.ChainValidationResult, *x509.Certificate) {
	certs := req.CertChain
	if len(certs) == 0 {
		for _, der := range extraction.CertChainDER {
			cert, err := x509.ParseCertificate(der)
			if err != nil {
				extraction.Errors = append(extraction.Errors, fmt.Sprintf("parse embedded certificate: %v", err))
				certs = nil
				break
			}
			certs = append(certs, cert)
		}
	}
	if len(certs) == 0 {
		return nil, nil
	}
	result, err := uc.Chains.ValidateChain(ctx, certs)
	if err != nil {
		extraction.Errors = append(extraction.Errors, fmt.Sprintf("validate chain: %v", err))
		return nil, certs[0]
	}
	return result, certs[0]
}

// verifySignature runs the verifier when a manifest was extracted. When
// nothing was extracted it returns an empty result so scoring sees a
// missing signature rather than an error.
func (uc *VerifyAsset) verifySignature(ctx context.Context, req VerifyAssetRequest, extraction domain.ExtractionResult, leaf *x509.Certificate) domain.SignatureVerificationResult {
	if extraction.Manifest == nil {
		return domain.SignatureVerificationResult{
			Errors: []string{"no manifest to verify"},
		}
	}
	result, err := uc.Signatures.Verify(ctx, extraction, req.Signature, leaf)
	if err != nil {
		return domain.SignatureVerificationResult{
			Errors: []string{fmt.Sprintf("signature verification: %v", err)},
		}
	}
	return *result
}

// compareRemoteProof fetches the independently stored manifest copy and
// compares canonical bytes. A reference-only recovery still fetches so the
// report records whether the store holds a copy. Infrastructure failures
// are unavailable, a definitive store miss is not_found, and a
// present-but-different proof is a mismatch.
func (uc *VerifyAsset) compareRemoteProof(ctx context.Context, extraction domain.ExtractionResult) domain.RemoteProofStatus {
	if extraction.RemoteURI == "" {
		return domain.RemoteProofNone
	}
	if uc.Proofs == nil {
		return domain.RemoteProofUnavailable
	}

	fetchCtx := ctx
	if uc.ProofTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, uc.ProofTimeout)
		defer cancel()
	}
	remote, err := uc.Proofs.Fetch(fetchCtx, extraction.RemoteURI)
	if err != nil {
		return domain.RemoteProofUnavailable
	}
	if remote == nil {
		return domain.RemoteProofNotFound
	}
	if extraction.Manifest == nil {
		return domain.RemoteProofFetched
	}

	embedded, err := uc.Canonical.CanonicalizeManifest(*extraction.Manifest)
	if err != nil {
		return domain.RemoteProofUnavailable
	}
	stored, err := uc.Canonical.CanonicalizeJSON(remote)
	if err != nil {
		return domain.RemoteProofUnavailable
	}
	if bytes.Equal(embedded, stored) {
		return domain.RemoteProofMatch
	}
	return domain.RemoteProofMismatch
}
