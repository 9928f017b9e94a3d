package domain

import "time"

// Assertion labels the engine understands beyond opaque passthrough.
const (
	AssertionActions  = "c2pa.actions"
	AssertionHashData = "c2pa.hash.data"
)

type Assertion struct {
	Label string         `json:"label"`
	Data  map[string]any `json:"data"`
}

type SignatureInfo struct {
	Alg    string `json:"alg"`
	Issuer string `json:"issuer"`
}

// Manifest is the authenticity claim embedded in or alongside an asset.
// It is read-only to this engine; creation and embedding happen elsewhere.
type Manifest struct {
	Generator  string        `json:"generator"`
	CreatedAt  time.Time     `json:"created_at"`
	Assertions []Assertion   `json:"assertions"`
	Signature  SignatureInfo `json:"signature_info"`
}

// Complete reports whether the manifest carries every required field.
// Incomplete manifests are surfaced as partial extraction candidates and
// never handed to the signature verifier as trustworthy input.
func (m Manifest) Complete() bool {
	if m.Generator == "" {
		return false
	}
	if len(m.Assertions) == 0 {
		return false
	}
	if m.Signature.Alg == "" && m.Signature.Issuer == "" {
		return false
	}
	return true
}

// HashAssertion returns the declared content hash, if the manifest carries
// a c2pa.hash.data assertion with alg and hash fields.
func (m Manifest) HashAssertion() (alg, value string, ok bool) {
	for _, a := range m.Assertions {
		if a.Label != AssertionHashData {
			continue
		}
		alg, _ = a.Data["alg"].(string)
		value, _ = a.Data["hash"].(string)
		if alg != "" && value != "" {
			return alg, value, true
		}
	}
	return "", "", false
}
