package revocation

import (
	"context"
	"fmt"
	"log"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"credlink/internal/domain"
	"credlink/internal/usecase"
)

// RevokedCertificateModel is a CRL-style row for deployments that carry
// their own revocation table.
type RevokedCertificateModel struct {
	Serial    string    `gorm:"primaryKey;column:serial"`
	Issuer    string    `gorm:"primaryKey;column:issuer"`
	RevokedAt time.Time `gorm:"column:revoked_at"`
	Reason    string    `gorm:"column:reason"`
	CreatedAt time.Time `gorm:"column:created_at"`
}

func (RevokedCertificateModel) TableName() string {
	return "revoked_certificates"
}

// Store answers revocation queries from a postgres revocation list. A
// missing database degrades every lookup to unknown; the engine treats
// that as a warning, never a failure.
type Store struct {
	db *gorm.DB
}

func NewStore(dsn string) (*Store, error) {
	if dsn == "" {
		log.Printf("POSTGRES_DSN not set; revocation lookups will report unknown")
		return &Store{db: nil}, nil
	}
	gdb, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return &Store{db: gdb}, nil
}

// Migrate creates the revocation table when it does not exist.
func (s *Store) Migrate() error {
	if s.db == nil {
		return domain.ErrStoreUnavailable
	}
	return s.db.AutoMigrate(&RevokedCertificateModel{})
}

func (s *Store) Status(ctx context.Context, serial, issuer string) (domain.RevocationStatus, error) {
	if s.db == nil {
		return domain.RevocationUnknown, nil
	}
	var count int64
	err := s.db.WithContext(ctx).
		Model(&RevokedCertificateModel{}).
		Where("serial = ? AND issuer = ?", serial, issuer).
		Count(&count).Error
	if err != nil {
		return domain.RevocationUnknown, err
	}
	if count > 0 {
		return domain.RevocationRevoked, nil
	}
	return domain.RevocationGood, nil
}

// Revoke records a certificate in the revocation list. Re-revoking the
// same certificate is a no-op.
func (s *Store) Revoke(ctx context.Context, serial, issuer, reason string, revokedAt time.Time) error {
	if s.db == nil {
		return domain.ErrStoreUnavailable
	}
	model := RevokedCertificateModel{
		Serial:    serial,
		Issuer:    issuer,
		RevokedAt: revokedAt,
		Reason:    reason,
		CreatedAt: time.Now().UTC(),
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&model).Error
}

var _ usecase.RevocationChecker = (*Store)(nil)
