package revocation

import (
	"context"

	"credlink/internal/domain"
	"credlink/internal/usecase"
)

// UnknownChecker is the default revocation collaborator: it has no data
// source and reports every certificate as unknown, which surfaces as a
// chain warning rather than a pass.
type UnknownChecker struct{}

func (UnknownChecker) Status(ctx context.Context, serial, issuer string) (domain.RevocationStatus, error) {
	return domain.RevocationUnknown, nil
}

var _ usecase.RevocationChecker = UnknownChecker{}
