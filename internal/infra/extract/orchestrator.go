package extract

import (
	"bytes"
	"fmt"
	"time"

	"credlink/internal/domain"
	cryptoinfra "credlink/internal/infra/crypto"
)

// Intrinsic method confidence, fixed by embedding robustness.
const (
	confidenceJUMBF        = 100
	confidencePNGChunk     = 90
	confidenceEXIFTag      = 85
	confidenceRIFFChunk    = 85
	confidenceXMPPacket    = 80
	confidenceTIFFIFD      = 75
	confidenceScanRecovery = 50
)

// methodOrder is the closed set of embedding methods in priority order.
// Scan recovery is not listed; it runs only as the fallback.
var methodOrder = []domain.ExtractionMethod{
	domain.MethodJUMBF,
	domain.MethodPNGChunk,
	domain.MethodEXIFTag,
	domain.MethodRIFFChunk,
	domain.MethodXMPPacket,
	domain.MethodTIFFIFD,
}

// Orchestrator drives the parsers in priority order and selects the best
// candidate. It holds no request state and is safe for concurrent use.
type Orchestrator struct {
	Budget    time.Duration
	Now       func() time.Time
	Canonical *cryptoinfra.Service
}

func NewOrchestrator(budget time.Duration) *Orchestrator {
	return &Orchestrator{
		Budget:    budget,
		Now:       time.Now,
		Canonical: cryptoinfra.NewService(),
	}
}

type candidate struct {
	result    domain.ExtractionResult
	canonical []byte
}

// Extract attempts every method within the time budget and returns the
// highest-confidence candidate. It never fails on malformed input; when
// all methods fail it returns a scan-recovery result carrying the errors.
func (o *Orchestrator) Extract(data []byte) (domain.ExtractionResult, error) {
	if len(data) == 0 {
		return domain.ExtractionResult{}, domain.ErrEmptyImage
	}
	now := o.Now
	if now == nil {
		now = time.Now
	}
	started := now()

	var candidates []candidate
	var methodErrors []string

	for i, method := range methodOrder {
		if i > 0 && o.Budget > 0 && now().Sub(started) > o.Budget && len(candidates) > 0 {
			methodErrors = append(methodErrors, fmt.Sprintf("%s: skipped, extraction budget exhausted", method))
			continue
		}
		loc, err := o.runMethod(method, data)
		if err != nil {
			if err != errNoPayload {
				methodErrors = append(methodErrors, fmt.Sprintf("%s: %v", method, err))
			}
			continue
		}
		candidates = append(candidates, o.buildCandidate(method, data, loc))
	}

	if len(candidates) == 0 {
		loc, err := parseScanRecovery(data)
		if err != nil {
			methodErrors = append(methodErrors, fmt.Sprintf("%s: %v", domain.MethodScanRecovery, err))
			return domain.ExtractionResult{
				Method:     domain.MethodScanRecovery,
				Confidence: confidenceScanRecovery,
				Partial:    true,
				Integrity:  domain.IntegrityUnknown,
				Errors:     methodErrors,
			}, nil
		}
		candidates = append(candidates, o.buildCandidate(domain.MethodScanRecovery, data, loc))
	}

	best := selectCandidate(candidates)
	best.result.Errors = append(best.result.Errors, methodErrors...)
	if disagrees(best, candidates) {
		best.result.Disagreement = true
	}
	return best.result, nil
}

func (o *Orchestrator) runMethod(method domain.ExtractionMethod, data []byte) (*located, error) {
	switch method {
	case domain.MethodJUMBF:
		return parseJUMBF(data)
	case domain.MethodPNGChunk:
		return parsePNGChunk(data)
	case domain.MethodEXIFTag:
		return parseEXIFTag(data)
	case domain.MethodRIFFChunk:
		return parseRIFFChunk(data)
	case domain.MethodXMPPacket:
		return parseXMPPacket(data)
	case domain.MethodTIFFIFD:
		return parseTIFFIFD(data)
	default:
		return nil, errNoPayload
	}
}

func methodConfidence(method domain.ExtractionMethod) int {
	switch method {
	case domain.MethodJUMBF:
		return confidenceJUMBF
	case domain.MethodPNGChunk:
		return confidencePNGChunk
	case domain.MethodEXIFTag:
		return confidenceEXIFTag
	case domain.MethodRIFFChunk:
		return confidenceRIFFChunk
	case domain.MethodXMPPacket:
		return confidenceXMPPacket
	case domain.MethodTIFFIFD:
		return confidenceTIFFIFD
	default:
		return confidenceScanRecovery
	}
}

func (o *Orchestrator) buildCandidate(method domain.ExtractionMethod, data []byte, loc *located) candidate {
	result := domain.ExtractionResult{
		Method:     method,
		Confidence: methodConfidence(method),
		Integrity:  loc.integrity,
	}
	if loc.refOnly {
		result.Partial = true
		result.RemoteURI = loc.remoteURI
		return candidate{result: result}
	}

	manifest := manifestFromClaim(loc.envelope.Claim)
	result.Manifest = manifest
	result.Partial = !manifest.Complete()
	result.SignatureRaw = loc.envelope.Signature
	result.CertChainDER = loc.envelope.CertChain
	result.RemoteURI = loc.envelope.RemoteURI
	result.ContentHash = hashExcluding(data, loc.start, loc.end)

	canonical, err := o.Canonical.CanonicalizeManifest(*manifest)
	if err != nil {
		result.Errors = append(result.Errors, fmt.Sprintf("%s: canonicalize: %v", method, err))
	}
	return candidate{result: result, canonical: canonical}
}

// selectCandidate prefers manifest-bearing candidates, then higher
// intrinsic confidence; ties keep priority order.
func selectCandidate(candidates []candidate) candidate {
	best := candidates[0]
	for _, c := range candidates[1:] {
		if rank(c) > rank(best) {
			best = c
		}
	}
	return best
}

func rank(c candidate) int {
	r := c.result.Confidence
	if c.result.Manifest != nil {
		r += 1000
	}
	return r
}

// disagrees reports whether any other manifest-bearing candidate decoded
// to different canonical content than the winner. Disagreement is flagged
// for the tamper scan rather than silently resolved here.
func disagrees(best candidate, candidates []candidate) bool {
	if best.canonical == nil {
		return false
	}
	for _, c := range candidates {
		if c.canonical == nil {
			continue
		}
		if c.result.Method == best.result.Method {
			continue
		}
		if !bytes.Equal(c.canonical, best.canonical) {
			return true
		}
	}
	return false
}
