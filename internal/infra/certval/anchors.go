package certval

import (
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"os"
)

// LoadAnchorsPEM reads trust anchor certificates from a PEM bundle.
// Non-certificate blocks are skipped; an unparseable certificate fails the
// whole load so a bad anchor set is never silently partial.
func LoadAnchorsPEM(path string) ([]*x509.Certificate, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read trust anchors: %w", err)
	}
	return ParseAnchorsPEM(raw)
}

func ParseAnchorsPEM(raw []byte) ([]*x509.Certificate, error) {
	var anchors []*x509.Certificate
	for {
		var block *pem.Block
		block, raw = pem.Decode(raw)
		if block == nil {
			break
		}
		if block.Type != "CERTIFICATE" {
			continue
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return nil, fmt.Errorf("parse trust anchor: %w", err)
		}
		anchors = append(anchors, cert)
	}
	if len(anchors) == 0 {
		return nil, fmt.Errorf("no certificates found in anchor bundle")
	}
	return anchors, nil
}
