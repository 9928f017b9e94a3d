package certval

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/x509"
	"encoding/hex"
	"fmt"
	"time"

	"credlink/internal/domain"
	"credlink/internal/usecase"
)

const (
	// DefaultTTL bounds how long a chain verdict may be reused.
	DefaultTTL = time.Hour
	// expiryWarningWindow triggers a near-expiry warning, not a failure.
	expiryWarningWindow = 30 * 24 * time.Hour
)

// Validator checks an ordered leaf-first certificate chain against expiry,
// issuer-signature, usage, structural and revocation rules, then assesses
// chain-level continuity and trust anchoring. The cache and revocation
// source are injected so tests run against isolated instances.
type Validator struct {
	Anchors           []*x509.Certificate
	Revocation        usecase.RevocationChecker
	Cache             usecase.ValidationCache
	TTL               time.Duration
	RevocationTimeout time.Duration
	Now               func() time.Time
}

func NewValidator(anchors []*x509.Certificate, revocation usecase.RevocationChecker, cache usecase.ValidationCache) *Validator {
	return &Validator{
		Anchors:           anchors,
		Revocation:        revocation,
		Cache:             cache,
		TTL:               DefaultTTL,
		RevocationTimeout: 2 * time.Second,
		Now:               time.Now,
	}
}

var _ usecase.ChainValidator = (*Validator)(nil)

func (v *Validator) ValidateChain(ctx context.Context, chain []*x509.Certificate) (*domain.ChainValidationResult, error) {
	if len(chain) == 0 {
		return nil, domain.ErrEmptyChain
	}
	fingerprint := ChainFingerprint(chain)
	if v.Cache != nil {
		if cached, ok, err := v.Cache.Get(ctx, fingerprint); err == nil && ok {
			return cached, nil
		}
	}

	now := v.now()
	result := &domain.ChainValidationResult{
		Valid:       true,
		Fingerprint: fingerprint,
		ValidatedAt: now.UTC(),
	}

	for i, cert := range chain {
		issuer := cert
		if i+1 < len(chain) {
			issuer = chain[i+1]
		}
		cr := v.validateCertificate(ctx, cert, issuer, i == 0, now)
		if !cr.Valid {
			result.Valid = false
		}
		result.Errors = append(result.Errors, cr.Errors...)
		result.Warnings = append(result.Warnings, cr.Warnings...)
		result.Certificates = append(result.Certificates, cr)
	}

	v.assessChain(chain, result)

	if v.Cache != nil {
		ttl := v.TTL
		if ttl <= 0 {
			ttl = DefaultTTL
		}
		_ = v.Cache.Put(ctx, fingerprint, *result, ttl)
	}
	return result, nil
}

func (v *Validator) validateCertificate(ctx context.Context, cert, issuer *x509.Certificate, isLeaf bool, now time.Time) domain.CertificateValidationResult {
	cr := domain.CertificateValidationResult{
		Subject:    cert.Subject.String(),
		Issuer:     cert.Issuer.String(),
		Valid:      true,
		Checks:     make(map[domain.CertificateCheck]bool),
		Revocation: domain.RevocationUnknown,
	}

	// Expiration. A certificate valid until exactly now is not expired.
	expired := now.After(cert.NotAfter) || now.Before(cert.NotBefore)
	cr.Checks[domain.CheckExpiration] = !expired
	if expired {
		cr.Valid = false
		cr.Errors = append(cr.Errors, fmt.Sprintf("certificate %q is outside its validity window", cr.Subject))
	} else if cert.NotAfter.Sub(now) <= expiryWarningWindow {
		cr.Warnings = append(cr.Warnings, fmt.Sprintf("certificate %q expires within 30 days", cr.Subject))
	}

	// Issuer signature, verified cryptographically. The root position is
	// checked against its own key.
	var sigErr error
	if issuer == cert {
		sigErr = cert.CheckSignature(cert.SignatureAlgorithm, cert.RawTBSCertificate, cert.Signature)
	} else {
		sigErr = cert.CheckSignatureFrom(issuer)
	}
	cr.Checks[domain.CheckIssuerSignature] = sigErr == nil
	if sigErr != nil {
		cr.Valid = false
		cr.Errors = append(cr.Errors, fmt.Sprintf("certificate %q issuer signature verification failed: %v", cr.Subject, sigErr))
	}

	// Key usage. Missing bits on legacy certificates warn rather than fail.
	if isLeaf {
		ok := cert.KeyUsage == 0 || cert.KeyUsage&x509.KeyUsageDigitalSignature != 0
		cr.Checks[domain.CheckKeyUsage] = ok
		if !ok {
			cr.Warnings = append(cr.Warnings, fmt.Sprintf("leaf certificate %q does not assert digital signature usage", cr.Subject))
		}
	} else {
		ok := cert.KeyUsage == 0 || cert.KeyUsage&x509.KeyUsageCertSign != 0
		cr.Checks[domain.CheckKeyUsage] = ok
		if !ok {
			cr.Warnings = append(cr.Warnings, fmt.Sprintf("CA certificate %q does not assert certificate signing usage", cr.Subject))
		}
	}

	// Basic constraints.
	if isLeaf {
		cr.Checks[domain.CheckBasicConstraints] = !cert.IsCA
		if cert.IsCA {
			cr.Warnings = append(cr.Warnings, fmt.Sprintf("leaf certificate %q asserts CA=true, possible misuse", cr.Subject))
		}
	} else {
		cr.Checks[domain.CheckBasicConstraints] = cert.IsCA
		if !cert.IsCA {
			cr.Warnings = append(cr.Warnings, fmt.Sprintf("intermediate certificate %q does not assert CA=true", cr.Subject))
		}
	}

	// Revocation. Unavailable sources degrade to unknown, surfaced as a
	// warning, never silently treated as good.
	cr.Revocation = v.revocationStatus(ctx, cert)
	cr.Checks[domain.CheckRevocation] = cr.Revocation == domain.RevocationGood
	switch cr.Revocation {
	case domain.RevocationRevoked:
		cr.Valid = false
		cr.Errors = append(cr.Errors, fmt.Sprintf("certificate %q is revoked", cr.Subject))
	case domain.RevocationUnknown:
		cr.Warnings = append(cr.Warnings, fmt.Sprintf("revocation status unknown for certificate %q", cr.Subject))
	}

	return cr
}

func (v *Validator) revocationStatus(ctx context.Context, cert *x509.Certificate) domain.RevocationStatus {
	if v.Revocation == nil {
		return domain.RevocationUnknown
	}
	timeout := v.RevocationTimeout
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	checkCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	status, err := v.Revocation.Status(checkCtx, cert.SerialNumber.String(), cert.Issuer.String())
	if err != nil {
		return domain.RevocationUnknown
	}
	switch status {
	case domain.RevocationGood, domain.RevocationRevoked:
		return status
	default:
		return domain.RevocationUnknown
	}
}

// assessChain applies the chain-level checks: issuer/subject continuity
// between neighbors and trust anchoring of the final certificate.
func (v *Validator) assessChain(chain []*x509.Certificate, result *domain.ChainValidationResult) {
	for i := 0; i+1 < len(chain); i++ {
		if !bytes.Equal(chain[i].RawIssuer, chain[i+1].RawSubject) {
			result.Valid = false
			result.Errors = append(result.Errors, fmt.Sprintf(
				"chain continuity broken: certificate %q issuer does not match %q",
				chain[i].Subject.String(), chain[i+1].Subject.String()))
		}
	}

	root := chain[len(chain)-1]
	if !bytes.Equal(root.RawIssuer, root.RawSubject) {
		result.Warnings = append(result.Warnings, fmt.Sprintf("root certificate %q is not self-signed", root.Subject.String()))
	}
	for _, anchor := range v.Anchors {
		if anchor.Equal(root) {
			result.TrustAnchor = true
			break
		}
	}
	if !result.TrustAnchor {
		result.Warnings = append(result.Warnings, fmt.Sprintf("root certificate %q is not a configured trust anchor", root.Subject.String()))
	}
}

func (v *Validator) now() time.Time {
	if v.Now != nil {
		return v.Now()
	}
	return time.Now()
}

// ChainFingerprint is the sha256 hex over the concatenated DER encodings,
// used as the validation cache key.
func ChainFingerprint(chain []*x509.Certificate) string {
	h := sha256.New()
	for _, cert := range chain {
		h.Write(cert.Raw)
	}
	return hex.EncodeToString(h.Sum(nil))
}
