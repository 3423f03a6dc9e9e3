// Package sqlstore is the gorm-backed nonce store: sqlite for dev/test,
// postgres for production, both speaking the same atomic
// INSERT ... ON CONFLICT DO NOTHING semantics.
package sqlstore

import (
	"context"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// NonceRow is the gorm model backing the nonce table.
type NonceRow struct {
	Nonce     string `gorm:"primaryKey"`
	ExpiresAt time.Time
}

// Store wraps a *gorm.DB. Callers must have already run AutoMigrate via
// Migrate before using it.
type Store struct {
	db *gorm.DB
}

// New wraps an already-connected gorm DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the nonces table if it doesn't already exist.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&NonceRow{})
}

// Insert performs an atomic INSERT ... ON CONFLICT (nonce) DO NOTHING. A
// zero RowsAffected means the nonce was already present — rejected, with the
// table's prior row untouched.
func (s *Store) Insert(ctx context.Context, nonce string, ttl time.Duration) (bool, error) {
	row := NonceRow{Nonce: nonce, ExpiresAt: time.Now().Add(ttl)}

	result := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(&row)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// Sweep deletes every row whose TTL has lapsed.
func (s *Store) Sweep(ctx context.Context) error {
	return s.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&NonceRow{}).Error
}
