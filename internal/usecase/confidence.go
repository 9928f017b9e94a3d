package usecase

import (
	"fmt"

	"credlink/internal/domain"
)

// ConfidenceCalculator aggregates component results into an overall score.
// It is pure: the same inputs always produce the same score, indicators,
// and recommendations.
type ConfidenceCalculator struct{}

func (ConfidenceCalculator) Score(
	extraction domain.ExtractionResult,
	signature domain.SignatureVerificationResult,
	chain *domain.ChainValidationResult,
	proof domain.RemoteProofStatus,
) domain.ConfidenceScore {
	components := domain.ConfidenceComponents{
		Extraction:  extractionComponent(extraction),
		Signature:   signatureComponent(signature),
		Certificate: certificateComponent(chain),
		RemoteProof: proofComponent(proof),
	}
	overall := components.Extraction + components.Signature + components.Certificate + components.RemoteProof

	score := domain.ConfidenceScore{
		Overall:    overall,
		Level:      domain.LevelForScore(overall),
		Components: components,
	}
	score.Indicators = indicators(extraction, signature, chain, proof)
	score.Recommendations = recommendations(extraction, signature, chain, proof)
	return score
}

// extractionComponent scales the method confidence into the 0..30 band.
func extractionComponent(extraction domain.ExtractionResult) int {
	if extraction.Manifest == nil {
		return 0
	}
	conf := extraction.Confidence
	if conf < 0 {
		conf = 0
	}
	if conf > 100 {
		conf = 100
	}
	return conf * WeightExtraction / 100
}

// signatureComponent awards the full 35 only for a valid signature over an
// intact manifest with no tamper evidence. A valid signature with tamper
// evidence is scaled down by the tamper confidence; an invalid or missing
// signature scores zero.
func signatureComponent(signature domain.SignatureVerificationResult) int {
	if !signature.SignatureValid {
		return 0
	}
	if signature.ManifestIntact && !signature.TamperDetected {
		return WeightSignature
	}
	remaining := 100 - signature.TamperConfidence
	if remaining < 0 {
		remaining = 0
	}
	return WeightSignature * remaining / 100
}

// certificateComponent awards 25 for a valid chain, minus a fixed
// deduction per warning, floored at zero. An invalid or absent chain
// scores zero.
func certificateComponent(chain *domain.ChainValidationResult) int {
	if chain == nil || !chain.Valid {
		return 0
	}
	points := WeightCertificate - CertWarningDeduction*len(chain.Warnings)
	if points < 0 {
		points = 0
	}
	return points
}

func proofComponent(proof domain.RemoteProofStatus) int {
	if proof == domain.RemoteProofMatch {
		return WeightRemoteProof
	}
	return 0
}

func indicators(
	extraction domain.ExtractionResult,
	signature domain.SignatureVerificationResult,
	chain *domain.ChainValidationResult,
	proof domain.RemoteProofStatus,
) []string {
	var out []string
	if extraction.Manifest == nil {
		out = append(out, "no manifest found in image")
	} else {
		out = append(out, fmt.Sprintf("manifest extracted via %s", extraction.Method))
		if extraction.Partial {
			out = append(out, "extracted manifest is incomplete")
		}
		if extraction.Disagreement {
			out = append(out, "embedding methods disagree on manifest content")
		}
	}
	if signature.SignatureValid {
		out = append(out, "signature verified")
	} else if extraction.Manifest != nil {
		out = append(out, "signature could not be verified")
	}
	for _, ind := range signature.Indicators {
		out = append(out, fmt.Sprintf("tamper indicator: %s (%s)", ind.Type, ind.Severity))
	}
	switch {
	case chain == nil:
		out = append(out, "no certificate chain available")
	case chain.Valid && chain.TrustAnchor:
		out = append(out, "certificate chain anchors to a trusted root")
	case chain.Valid:
		out = append(out, "certificate chain is internally valid but not anchored to a known root")
	default:
		out = append(out, "certificate chain failed validation")
	}
	switch proof {
	case domain.RemoteProofMatch:
		out = append(out, "remote proof matches embedded manifest")
	case domain.RemoteProofMismatch:
		out = append(out, "remote proof differs from embedded manifest")
	case domain.RemoteProofFetched:
		out = append(out, "remote manifest copy retrieved; nothing embedded to compare against")
	case domain.RemoteProofNotFound:
		out = append(out, "remote proof not found in the manifest store")
	case domain.RemoteProofUnavailable:
		out = append(out, "remote proof could not be retrieved")
	}
	return out
}

// recommendations lists concrete follow-ups in fixed component order so
// repeated runs render identically.
func recommendations(
	extraction domain.ExtractionResult,
	signature domain.SignatureVerificationResult,
	chain *domain.ChainValidationResult,
	proof domain.RemoteProofStatus,
) []string {
	var out []string
	if extraction.Manifest == nil {
		out = append(out, "treat the asset as unverified; no provenance manifest is present")
		if proof == domain.RemoteProofFetched {
			out = append(out, "the manifest store holds a copy; re-embed it to restore provenance")
		}
		return out
	}
	if extraction.Method == domain.MethodScanRecovery {
		out = append(out, "manifest was recovered by scanning; re-export the asset to restore standard embedding")
	}
	if signature.TamperDetected {
		out = append(out, "investigate tamper indicators before trusting the asset")
	}
	if !signature.SignatureValid {
		out = append(out, "obtain a correctly signed manifest from the asset producer")
	}
	if chain == nil || !chain.Valid {
		out = append(out, "supply a valid certificate chain for the signing identity")
	} else if !chain.TrustAnchor {
		out = append(out, "add the issuing root to the trust anchor set if the signer is known")
	}
	if proof == domain.RemoteProofMismatch {
		out = append(out, "reconcile the embedded manifest with its remote proof copy")
	}
	return out
}
