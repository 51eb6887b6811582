package store

import (
	"context"

	"auth/internal/domain"

	"gorm.io/gorm"
)

type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store { return &Store{DB: db} }

func (s *Store) WithTx(ctx context.Context, fn func(tx *Store) error) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&Store{DB: tx})
	})
}

// Migrate creates or updates the auth tables and their unique indexes.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&domain.User{}, &domain.EphemeralToken{}, &domain.Session{})
}
