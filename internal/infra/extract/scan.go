package extract

import (
	"bytes"

	"credlink/internal/domain"
)

// parseScanRecovery is the last-resort method: search the whole stream for
// the payload magic, and failing that for a manifest-store reference URI.
// A reference-only candidate still lets downstream logic fetch the remote
// proof, so recovery succeeding with no manifest body is useful output.
func parseScanRecovery(data []byte) (*located, error) {
	offset := 0
	for {
		i := bytes.Index(data[offset:], payloadMagic)
		if i < 0 {
			break
		}
		start := offset + i
		// The payload length is unknown here; try decoding to the end of
		// the stream. CBOR tolerates trailing garbage only via ExtraneousData,
		// so shrink until a clean decode or give up on this hit.
		if env, n, ok := decodeScanHit(data[start:]); ok {
			return &located{
				envelope:  env,
				start:     start,
				end:       start + n,
				integrity: domain.IntegrityUnknown,
			}, nil
		}
		offset = start + len(payloadMagic)
	}

	if uri, ok := findManifestURI(data); ok {
		return &located{
			refOnly:   true,
			remoteURI: uri,
			start:     0,
			end:       0,
			integrity: domain.IntegrityUnknown,
		}, nil
	}
	return nil, errNoPayload
}

// decodeScanHit decodes a magic-prefixed payload of unknown extent and
// reports how many bytes it occupied.
func decodeScanHit(blob []byte) (payloadEnvelope, int, bool) {
	var env payloadEnvelope
	body := blob[len(payloadMagic):]
	dec := payloadDecMode.NewDecoder(bytes.NewReader(body))
	if err := dec.Decode(&env); err != nil {
		return env, 0, false
	}
	return env, len(payloadMagic) + dec.NumBytesRead(), true
}

// findManifestURI scans for an ASCII http(s) URI that points at a manifest
// store. Truncated files often keep the reference even when the payload
// body is gone.
func findManifestURI(data []byte) (string, bool) {
	for _, scheme := range [][]byte{[]byte("https://"), []byte("http://")} {
		offset := 0
		for {
			i := bytes.Index(data[offset:], scheme)
			if i < 0 {
				break
			}
			start := offset + i
			end := start
			for end < len(data) && isURIByte(data[end]) {
				end++
			}
			uri := string(data[start:end])
			if bytes.Contains(data[start:end], []byte("/manifests/")) {
				return uri, true
			}
			offset = end
		}
	}
	return "", false
}

func isURIByte(c byte) bool {
	if c <= 0x20 || c >= 0x7f {
		return false
	}
	switch c {
	case '"', '\'', '<', '>', '\\':
		return false
	}
	return true
}
