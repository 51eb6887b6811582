package store

import (
	"context"
	"time"

	"auth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type EphemeralTokenStore struct{ db *gorm.DB }

func (s *Store) EphemeralTokens() *EphemeralTokenStore { return &EphemeralTokenStore{db: s.DB} }

// Create inserts t. The unique index on user_id makes a second row for the
// same user fail with ErrDuplicate, so the loser of a concurrent
// check-then-create fails cleanly.
func (e *EphemeralTokenStore) Create(ctx context.Context, t *domain.EphemeralToken) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	return translate(e.db.WithContext(ctx).Create(t).Error)
}

func (e *EphemeralTokenStore) GetByUser(ctx context.Context, userID uuid.UUID) (*domain.EphemeralToken, error) {
	var t domain.EphemeralToken
	if err := e.db.WithContext(ctx).First(&t, "user_id = ?", userID).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

func (e *EphemeralTokenStore) GetByUserAndToken(ctx context.Context, userID uuid.UUID, token string) (*domain.EphemeralToken, error) {
	var t domain.EphemeralToken
	if err := e.db.WithContext(ctx).First(&t, "user_id = ? AND token = ?", userID, token).Error; err != nil {
		return nil, translate(err)
	}
	return &t, nil
}

// Delete removes a stale row before a replacement is issued. A missing row is
// not an error. Redemption must use Consume instead.
func (e *EphemeralTokenStore) Delete(ctx context.Context, id uuid.UUID) error {
	return translate(e.db.WithContext(ctx).Delete(&domain.EphemeralToken{}, "id = ?", id).Error)
}

// Consume deletes the row and fails with ErrRecordNotFound when it was
// already gone. Run inside the redeeming transaction, of several concurrent
// callers on the same id at most one gets nil.
func (e *EphemeralTokenStore) Consume(ctx context.Context, id uuid.UUID) error {
	tx := e.db.WithContext(ctx).Delete(&domain.EphemeralToken{}, "id = ?", id)
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected != 1 {
		return ErrRecordNotFound
	}
	return nil
}
