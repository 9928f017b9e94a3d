package domain

import "errors"

// Sentinel errors for caller-contract violations. Adversarial input never
// produces these; it degrades into low-confidence results instead.
var (
	ErrEmptyImage       = errors.New("image bytes are required")
	ErrEmptyChain       = errors.New("certificate chain is empty")
	ErrNilManifest      = errors.New("manifest is nil")
	ErrNoCertificate    = errors.New("leaf certificate is required")
	ErrCacheDisabled    = errors.New("validation cache is disabled")
	ErrStoreUnavailable = errors.New("store unavailable")
)
