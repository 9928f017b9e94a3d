package domain

type ExtractionMethod string

const (
	MethodJUMBF        ExtractionMethod = "jumbf_box"
	MethodPNGChunk     ExtractionMethod = "png_chunk"
	MethodEXIFTag      ExtractionMethod = "exif_tag"
	MethodRIFFChunk    ExtractionMethod = "riff_chunk"
	MethodXMPPacket    ExtractionMethod = "xmp_packet"
	MethodTIFFIFD      ExtractionMethod = "tiff_ifd"
	MethodScanRecovery ExtractionMethod = "scan_recovery"
)

type IntegrityAssessment string

const (
	IntegrityIntact    IntegrityAssessment = "intact"
	IntegrityTruncated IntegrityAssessment = "truncated"
	IntegrityCorrupted IntegrityAssessment = "corrupted"
	IntegrityUnknown   IntegrityAssessment = "unknown"
)

// ExtractionResult is produced once per verification request and is
// immutable once returned by the orchestrator.
type ExtractionResult struct {
	Method     ExtractionMethod    `json:"method"`
	Confidence int                 `json:"confidence"`
	Manifest   *Manifest           `json:"manifest,omitempty"`
	Partial    bool                `json:"partial"`
	Integrity  IntegrityAssessment `json:"integrity_assessment"`
	Errors     []string            `json:"errors,omitempty"`

	// SignatureRaw is the embedded COSE_Sign1 message, when present.
	SignatureRaw []byte `json:"signature_raw,omitempty"`
	// CertChainDER holds embedded certificates, leaf first.
	CertChainDER [][]byte `json:"cert_chain_der,omitempty"`
	// RemoteURI references an independently stored manifest copy.
	RemoteURI string `json:"remote_uri,omitempty"`

	// ContentHash is the sha256 hex of the input with the manifest-bearing
	// segment excised, recorded by the parser that found the payload.
	ContentHash string `json:"content_hash,omitempty"`

	// Disagreement is set when another succeeding method yielded a
	// manifest with different canonical content.
	Disagreement bool `json:"disagreement,omitempty"`
}
