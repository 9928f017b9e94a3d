package domain

import "time"

type CertificateCheck string

const (
	CheckExpiration       CertificateCheck = "expiration"
	CheckIssuerSignature  CertificateCheck = "signatureIssuerMatch"
	CheckKeyUsage         CertificateCheck = "keyUsage"
	CheckBasicConstraints CertificateCheck = "basicConstraints"
	CheckRevocation       CertificateCheck = "revocation"
)

type RevocationStatus string

const (
	RevocationGood    RevocationStatus = "good"
	RevocationRevoked RevocationStatus = "revoked"
	RevocationUnknown RevocationStatus = "unknown"
)

type CertificateValidationResult struct {
	Subject    string                    `json:"subject"`
	Issuer     string                    `json:"issuer"`
	Valid      bool                      `json:"valid"`
	Checks     map[CertificateCheck]bool `json:"checks"`
	Revocation RevocationStatus          `json:"revocation"`
	Errors     []string                  `json:"errors,omitempty"`
	Warnings   []string                  `json:"warnings,omitempty"`
}

// ChainValidationResult aggregates per-certificate results with chain-level
// continuity and trust-anchor assessment. Cached copies are read-only
// snapshots keyed by Fingerprint.
type ChainValidationResult struct {
	Valid        bool                          `json:"valid"`
	TrustAnchor  bool                          `json:"trust_anchor"`
	Fingerprint  string                        `json:"fingerprint"`
	Certificates []CertificateValidationResult `json:"certificates"`
	Errors       []string                      `json:"errors,omitempty"`
	Warnings     []string                      `json:"warnings,omitempty"`
	ValidatedAt  time.Time                     `json:"validated_at"`
}
