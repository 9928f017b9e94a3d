package extract

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"reflect"
	"time"

	"github.com/fxamacker/cbor/v2"

	"credlink/internal/domain"
)

// Every container embeds the same payload blob: a magic prefix followed by
// a CBOR envelope holding the claim, the COSE signature, an optional
// certificate chain, and an optional manifest-store reference.
var payloadMagic = []byte{'C', 'L', 'N', 'K', 0x00, 0x01}

var errNoPayload = errors.New("no manifest payload found")

type payloadEnvelope struct {
	Claim     claimPayload `cbor:"claim"`
	Signature []byte       `cbor:"signature,omitempty"`
	CertChain [][]byte     `cbor:"cert_chain,omitempty"`
	RemoteURI string       `cbor:"remote_uri,omitempty"`
}

type claimPayload struct {
	Generator  string             `cbor:"generator"`
	CreatedAt  string             `cbor:"created_at"`
	Assertions []assertionPayload `cbor:"assertions"`
	SigInfo    sigInfoPayload     `cbor:"sig_info"`
}

type assertionPayload struct {
	Label string         `cbor:"label"`
	Data  map[string]any `cbor:"data"`
}

type sigInfoPayload struct {
	Alg    string `cbor:"alg"`
	Issuer string `cbor:"issuer"`
}

// located is one parser's find: the decoded envelope plus the byte range
// of the payload-bearing segment inside the original input.
type located struct {
	envelope  payloadEnvelope
	start     int
	end       int
	integrity domain.IntegrityAssessment
	// refOnly marks finds that carry a remote reference but no claim body.
	refOnly   bool
	remoteURI string
}

var payloadDecMode cbor.DecMode

func init() {
	mode, err := cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
	payloadDecMode = mode
}

// decodePayload strips the magic prefix and decodes the CBOR envelope.
func decodePayload(blob []byte) (payloadEnvelope, error) {
	var env payloadEnvelope
	if !bytes.HasPrefix(blob, payloadMagic) {
		return env, errors.New("payload magic missing")
	}
	if err := payloadDecMode.Unmarshal(blob[len(payloadMagic):], &env); err != nil {
		return env, fmt.Errorf("decode payload envelope: %w", err)
	}
	return env, nil
}

// manifestFromClaim converts a decoded claim into the domain manifest. A
// malformed timestamp leaves CreatedAt zero; the verifier treats that as a
// structural defect rather than the extractor failing the whole method.
func manifestFromClaim(claim claimPayload) *domain.Manifest {
	m := &domain.Manifest{
		Generator: claim.Generator,
		Signature: domain.SignatureInfo{
			Alg:    claim.SigInfo.Alg,
			Issuer: claim.SigInfo.Issuer,
		},
	}
	if claim.CreatedAt != "" {
		if ts, err := time.Parse(time.RFC3339, claim.CreatedAt); err == nil {
			m.CreatedAt = ts.UTC()
		}
	}
	for _, a := range claim.Assertions {
		m.Assertions = append(m.Assertions, domain.Assertion{
			Label: a.Label,
			Data:  a.Data,
		})
	}
	return m
}

// hashExcluding is the content hash of data with [start,end) excised, so a
// manifest's own bytes never feed the hash that binds it to the content.
func hashExcluding(data []byte, start, end int) string {
	h := sha256.New()
	if start < 0 {
		start = 0
	}
	if end > len(data) {
		end = len(data)
	}
	if start > end {
		start = end
	}
	h.Write(data[:start])
	h.Write(data[end:])
	return hex.EncodeToString(h.Sum(nil))
}
