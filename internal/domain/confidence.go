package domain

type ConfidenceLevel string

const (
	LevelVeryHigh ConfidenceLevel = "very_high"
	LevelHigh     ConfidenceLevel = "high"
	LevelMedium   ConfidenceLevel = "medium"
	LevelLow      ConfidenceLevel = "low"
	LevelVeryLow  ConfidenceLevel = "very_low"
)

// LevelForScore maps an overall score to its confidence band.
func LevelForScore(overall int) ConfidenceLevel {
	switch {
	case overall >= 90:
		return LevelVeryHigh
	case overall >= 75:
		return LevelHigh
	case overall >= 50:
		return LevelMedium
	case overall >= 25:
		return LevelLow
	default:
		return LevelVeryLow
	}
}

type ConfidenceComponents struct {
	Extraction  int `json:"extraction"`
	Signature   int `json:"signature"`
	Certificate int `json:"certificate"`
	RemoteProof int `json:"remote_proof"`
}

// ConfidenceScore is a value type, produced fresh per request and never
// mutated after construction.
type ConfidenceScore struct {
	Overall         int                  `json:"overall"`
	Level           ConfidenceLevel      `json:"level"`
	Components      ConfidenceComponents `json:"components"`
	Indicators      []string             `json:"indicators,omitempty"`
	Recommendations []string             `json:"recommendations,omitempty"`
}

type RemoteProofStatus string

const (
	RemoteProofMatch    RemoteProofStatus = "match"
	RemoteProofMismatch RemoteProofStatus = "mismatch"
	// RemoteProofFetched marks a reference-only recovery: the remote copy
	// was retrieved but no embedded manifest exists to compare against.
	RemoteProofFetched RemoteProofStatus = "fetched"
	// RemoteProofNotFound is a definitive miss from the manifest store, as
	// opposed to the store being unreachable.
	RemoteProofNotFound    RemoteProofStatus = "not_found"
	RemoteProofUnavailable RemoteProofStatus = "unavailable"
	RemoteProofNone        RemoteProofStatus = "none"
)

// VerificationReport is the request-level output contract: a boolean gate,
// the full confidence score, and the underlying results for auditability.
type VerificationReport struct {
	Valid       bool                        `json:"valid"`
	Confidence  ConfidenceScore             `json:"confidence"`
	Extraction  ExtractionResult            `json:"extraction"`
	Signature   SignatureVerificationResult `json:"signature"`
	Chain       *ChainValidationResult      `json:"chain,omitempty"`
	RemoteProof RemoteProofStatus           `json:"remote_proof"`
	Policy      PolicyReceipt               `json:"policy,omitempty"`
}
