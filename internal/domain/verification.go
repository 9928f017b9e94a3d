package domain

import "time"

type TamperType string

const (
	TamperHashMismatch      TamperType = "hash_mismatch"
	TamperSignatureInvalid  TamperType = "signature_invalid"
	TamperMetadataModified  TamperType = "metadata_modified"
	TamperTimestampAnomaly  TamperType = "timestamp_anomaly"
	TamperManifestCorrupted TamperType = "manifest_corrupted"
)

type TamperSeverity string

const (
	SeverityCritical TamperSeverity = "critical"
	SeverityHigh     TamperSeverity = "high"
	SeverityMedium   TamperSeverity = "medium"
	SeverityLow      TamperSeverity = "low"
)

// Points returns the severity contribution to tamper confidence.
func (s TamperSeverity) Points() int {
	switch s {
	case SeverityCritical:
		return 40
	case SeverityHigh:
		return 25
	case SeverityMedium:
		return 15
	case SeverityLow:
		return 5
	default:
		return 0
	}
}

type TamperIndicator struct {
	Type        TamperType     `json:"type"`
	Severity    TamperSeverity `json:"severity"`
	Description string         `json:"description"`
	Evidence    string         `json:"evidence,omitempty"`
}

type SignatureVerificationResult struct {
	SignatureValid   bool              `json:"signature_valid"`
	ManifestIntact   bool              `json:"manifest_intact"`
	TamperDetected   bool              `json:"tamper_detected"`
	TamperConfidence int               `json:"tamper_confidence"`
	Indicators       []TamperIndicator `json:"indicators,omitempty"`

	Algorithm       string    `json:"algorithm,omitempty"`
	SignatureLength int       `json:"signature_length,omitempty"`
	ComputedHash    string    `json:"computed_hash,omitempty"`
	StoredHash      string    `json:"stored_hash,omitempty"`
	Timestamp       time.Time `json:"timestamp,omitempty"`
	Errors          []string  `json:"errors,omitempty"`
}
