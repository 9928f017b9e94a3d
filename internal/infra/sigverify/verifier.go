package sigverify

import (
	"bytes"
	"context"
	"crypto/x509"
	"fmt"
	"strings"
	"time"

	"github.com/fxamacker/cbor/v2"
	"github.com/veraison/go-cose"

	"credlink/internal/domain"
	cryptoinfra "credlink/internal/infra/crypto"
	"credlink/internal/usecase"
)

// Verifier performs cryptographic signature verification over the
// canonical manifest plus a tamper scan that runs regardless of the
// signature outcome. It is stateless; a failed or missing signature is a
// result, never an error that aborts the pipeline.
type Verifier struct {
	Canonical      *cryptoinfra.Service
	Now            func() time.Time
	ClockSkew      time.Duration
	MaxManifestAge time.Duration
}

func NewVerifier() *Verifier {
	return &Verifier{
		Canonical:      cryptoinfra.NewService(),
		Now:            time.Now,
		ClockSkew:      5 * time.Minute,
		MaxManifestAge: 10 * 365 * 24 * time.Hour,
	}
}

var _ usecase.SignatureVerifier = (*Verifier)(nil)

func (v *Verifier) Verify(ctx context.Context, extraction domain.ExtractionResult, signature []byte, leaf *x509.Certificate) (*domain.SignatureVerificationResult, error) {
	if extraction.Manifest == nil {
		return nil, domain.ErrNilManifest
	}
	manifest := *extraction.Manifest
	result := &domain.SignatureVerificationResult{
		Timestamp: manifest.CreatedAt,
	}

	canonical, canonErr := v.Canonical.CanonicalizeManifest(manifest)
	if canonErr != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("canonicalize manifest: %v", canonErr))
	}

	if len(signature) == 0 {
		signature = extraction.SignatureRaw
	}
	payloadMismatch := v.verifySignature(result, manifest, canonical, signature, leaf)

	structuralOK := v.checkStructure(result, manifest)
	hashOK := v.checkContentHash(result, manifest, extraction.ContentHash)
	v.checkTimestamp(result, manifest)
	v.scanExtraction(result, extraction)

	if payloadMismatch {
		addIndicator(result, domain.TamperIndicator{
			Type:        domain.TamperMetadataModified,
			Severity:    domain.SeverityHigh,
			Description: "signed payload differs from the embedded manifest content",
		})
	}
	if !result.SignatureValid {
		addIndicator(result, domain.TamperIndicator{
			Type:        domain.TamperSignatureInvalid,
			Severity:    domain.SeverityCritical,
			Description: "manifest signature did not verify",
		})
	}

	total := 0
	for _, ind := range result.Indicators {
		total += ind.Severity.Points()
	}
	if total > 100 {
		total = 100
	}
	result.TamperConfidence = total
	result.TamperDetected = total > 0
	result.ManifestIntact = structuralOK && hashOK && !payloadMismatch &&
		extraction.Integrity != domain.IntegrityCorrupted &&
		extraction.Integrity != domain.IntegrityTruncated

	return result, nil
}

// verifySignature decodes the COSE_Sign1 message and verifies it against
// the leaf public key. It reports whether an attached payload disagreed
// with the canonical manifest, which is tamper evidence even when the raw
// signature bytes verify.
func (v *Verifier) verifySignature(result *domain.SignatureVerificationResult, manifest domain.Manifest, canonical, signature []byte, leaf *x509.Certificate) (payloadMismatch bool) {
	if len(signature) == 0 {
		result.Errors = append(result.Errors, "no signature present")
		return false
	}
	if leaf == nil {
		result.Errors = append(result.Errors, "no signing certificate available")
		return false
	}

	var msg cose.Sign1Message
	if err := cbor.Unmarshal(signature, &msg); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("parse COSE signature: %v", err))
		return false
	}
	result.SignatureLength = len(msg.Signature)

	alg, err := msg.Headers.Protected.Algorithm()
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("signature algorithm header: %v", err))
		return false
	}
	result.Algorithm = alg.String()
	if declared := manifest.Signature.Alg; declared != "" && !strings.EqualFold(declared, alg.String()) {
		addIndicator(result, domain.TamperIndicator{
			Type:        domain.TamperMetadataModified,
			Severity:    domain.SeverityMedium,
			Description: "declared signature algorithm disagrees with the COSE header",
			Evidence:    fmt.Sprintf("declared %s, signed with %s", declared, alg),
		})
	}

	if len(msg.Payload) == 0 {
		// Detached payload: bind the signature to the canonical manifest.
		msg.Payload = canonical
	} else if !bytes.Equal(msg.Payload, canonical) {
		payloadMismatch = true
	}

	verifier, err := cose.NewVerifier(alg, leaf.PublicKey)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("build verifier: %v", err))
		return payloadMismatch
	}
	if err := msg.Verify(nil, verifier); err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("signature verification failed: %v", err))
		return payloadMismatch
	}
	result.SignatureValid = true
	return payloadMismatch
}

func (v *Verifier) checkStructure(result *domain.SignatureVerificationResult, manifest domain.Manifest) bool {
	ok := true
	if !manifest.Complete() {
		ok = false
		addIndicator(result, domain.TamperIndicator{
			Type:        domain.TamperManifestCorrupted,
			Severity:    domain.SeverityMedium,
			Description: "manifest is missing required fields",
		})
	}
	for _, a := range manifest.Assertions {
		if a.Label == "" || a.Data == nil {
			ok = false
			addIndicator(result, domain.TamperIndicator{
				Type:        domain.TamperManifestCorrupted,
				Severity:    domain.SeverityMedium,
				Description: "assertion missing label or data",
			})
			break
		}
	}
	return ok
}

func (v *Verifier) checkContentHash(result *domain.SignatureVerificationResult, manifest domain.Manifest, computed string) bool {
	alg, declared, ok := manifest.HashAssertion()
	if !ok {
		return true
	}
	result.StoredHash = declared
	result.ComputedHash = computed
	if !strings.EqualFold(alg, "sha256") {
		addIndicator(result, domain.TamperIndicator{
			Type:        domain.TamperManifestCorrupted,
			Severity:    domain.SeverityLow,
			Description: fmt.Sprintf("unsupported content hash algorithm %q", alg),
		})
		return false
	}
	if computed == "" {
		return true
	}
	if !cryptoinfra.EqualHex(declared, computed) {
		addIndicator(result, domain.TamperIndicator{
			Type:        domain.TamperHashMismatch,
			Severity:    domain.SeverityCritical,
			Description: "declared content hash does not match recomputed hash",
			Evidence:    fmt.Sprintf("declared %s, computed %s", declared, computed),
		})
		return false
	}
	return true
}

func (v *Verifier) checkTimestamp(result *domain.SignatureVerificationResult, manifest domain.Manifest) {
	now := v.now()
	skew := v.ClockSkew
	if skew <= 0 {
		skew = 5 * time.Minute
	}
	switch {
	case manifest.CreatedAt.IsZero():
		addIndicator(result, domain.TamperIndicator{
			Type:        domain.TamperTimestampAnomaly,
			Severity:    domain.SeverityMedium,
			Description: "manifest timestamp missing or unparseable",
		})
	case manifest.CreatedAt.After(now.Add(skew)):
		addIndicator(result, domain.TamperIndicator{
			Type:        domain.TamperTimestampAnomaly,
			Severity:    domain.SeverityHigh,
			Description: "manifest timestamp is in the future",
			Evidence:    manifest.CreatedAt.UTC().Format(time.RFC3339),
		})
	case v.MaxManifestAge > 0 && manifest.CreatedAt.Before(now.Add(-v.MaxManifestAge)):
		addIndicator(result, domain.TamperIndicator{
			Type:        domain.TamperTimestampAnomaly,
			Severity:    domain.SeverityLow,
			Description: "manifest timestamp is implausibly old",
			Evidence:    manifest.CreatedAt.UTC().Format(time.RFC3339),
		})
	}
}

// scanExtraction folds extraction-level findings into the tamper scan:
// method disagreement and container damage.
func (v *Verifier) scanExtraction(result *domain.SignatureVerificationResult, extraction domain.ExtractionResult) {
	if extraction.Disagreement {
		addIndicator(result, domain.TamperIndicator{
			Type:        domain.TamperMetadataModified,
			Severity:    domain.SeverityMedium,
			Description: "embedding methods disagree on manifest content",
		})
	}
	switch extraction.Integrity {
	case domain.IntegrityCorrupted:
		addIndicator(result, domain.TamperIndicator{
			Type:        domain.TamperManifestCorrupted,
			Severity:    domain.SeverityHigh,
			Description: "manifest container appears corrupted",
		})
	case domain.IntegrityTruncated:
		addIndicator(result, domain.TamperIndicator{
			Type:        domain.TamperManifestCorrupted,
			Severity:    domain.SeverityMedium,
			Description: "manifest container appears truncated",
		})
	}
}

func (v *Verifier) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

func addIndicator(result *domain.SignatureVerificationResult, indicator domain.TamperIndicator) {
	result.Indicators = append(result.Indicators, indicator)
}
