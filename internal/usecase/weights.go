package usecase

// Component weight ceilings. They sum to 100; the overall score is the
// plain sum of the weighted components.
const (
	WeightExtraction  = 30
	WeightSignature   = 35
	WeightCertificate = 25
	WeightRemoteProof = 10

	// CertWarningDeduction is subtracted from the certificate component
	// per chain warning, floored at zero.
	CertWarningDeduction = 4

	// DefaultValidThreshold is the overall score at or above which a
	// report is considered valid.
	DefaultValidThreshold = 75
)
