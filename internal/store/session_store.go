package store

import (
	"context"
	"time"

	"auth/internal/domain"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type SessionStore struct{ db *gorm.DB }

func (s *Store) Sessions() *SessionStore { return &SessionStore{s.DB} }

func (ss *SessionStore) Create(ctx context.Context, s *domain.Session) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	if s.CreatedAt.IsZero() {
		s.CreatedAt = time.Now().UTC()
	}
	return translate(ss.db.WithContext(ctx).Create(s).Error)
}

// FindActive returns the non-revoked session for tokenHash owned by userID.
// Expiry is not checked here; callers compare ExpiresAt themselves.
func (ss *SessionStore) FindActive(ctx context.Context, tokenHash string, userID uuid.UUID) (*domain.Session, error) {
	var s domain.Session
	err := ss.db.WithContext(ctx).
		Where("token_hash = ? AND user_id = ? AND revoked = ?", tokenHash, userID, false).
		First(&s).Error
	if err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// GetByTokenHash returns the session regardless of revocation or expiry.
func (ss *SessionStore) GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error) {
	var s domain.Session
	if err := ss.db.WithContext(ctx).First(&s, "token_hash = ?", tokenHash).Error; err != nil {
		return nil, translate(err)
	}
	return &s, nil
}

// Revoke marks the session revoked. Revoking an already revoked session is a
// no-op and keeps the original revoked_at.
func (ss *SessionStore) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	return translate(ss.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND revoked = ?", id, false).
		Updates(map[string]any{"revoked": true, "revoked_at": at}).Error)
}

// RevokeIfActive flips revoked false->true in a single conditional update and
// fails with ErrAlreadyRevoked when no row changed. Of several concurrent
// callers on the same id at most one gets nil.
func (ss *SessionStore) RevokeIfActive(ctx context.Context, id uuid.UUID, at time.Time) error {
	tx := ss.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("id = ? AND revoked = ?", id, false).
		Updates(map[string]any{"revoked": true, "revoked_at": at})
	if tx.Error != nil {
		return translate(tx.Error)
	}
	if tx.RowsAffected != 1 {
		return ErrAlreadyRevoked
	}
	return nil
}

func (ss *SessionStore) ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.Session, error) {
	var out []domain.Session
	err := ss.db.WithContext(ctx).
		Where("user_id = ? AND revoked = ? AND expires_at > ?", userID, false, now).
		Order("created_at DESC").
		Find(&out).Error
	if err != nil {
		return nil, translate(err)
	}
	return out, nil
}

func (ss *SessionStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	tx := ss.db.WithContext(ctx).
		Model(&domain.Session{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]any{"revoked": true, "revoked_at": at})
	return tx.RowsAffected, translate(tx.Error)
}
