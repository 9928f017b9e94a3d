package crypto

import (
	"crypto/sha256"
	"encoding/hex"

	"credlink/internal/domain"
)

// Service implements the canonicalization and hashing ports. It is
// stateless and safe for concurrent use.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

func (s *Service) CanonicalizeManifest(manifest domain.Manifest) ([]byte, error) {
	return CanonicalAny(manifest)
}

func (s *Service) CanonicalizeJSON(raw []byte) ([]byte, error) {
	return CanonicalJSON(raw)
}

// HashManifest returns the sha256 hex of the manifest's canonical form.
func (s *Service) HashManifest(manifest domain.Manifest) (string, error) {
	canonical, err := s.CanonicalizeManifest(manifest)
	if err != nil {
		return "", err
	}
	return HashBytes(canonical), nil
}

func HashBytes(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// EqualHex compares two hex digests case-insensitively without allocating.
func EqualHex(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ra, rb := lowerHex(a[i]), lowerHex(b[i])
		if ra != rb {
			return false
		}
	}
	return true
}

func lowerHex(c byte) byte {
	if c >= 'A' && c <= 'F' {
		return c - 'A' + 'a'
	}
	return c
}
