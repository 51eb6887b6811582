package impl

import (
	"context"
	"time"

	"auth/internal/domain"
	"auth/internal/store"

	"github.com/google/uuid"
)

// dataStore is the slice of persistence the services depend on. Calls made
// directly on it are single statements; WithTx groups several.
type dataStore interface {
	storeTx
	WithTx(ctx context.Context, fn func(tx storeTx) error) error
}

type storeTx interface {
	Users() userStore
	EphemeralTokens() ephemeralTokenStore
	Sessions() sessionStore
}

type userStore interface {
	Create(ctx context.Context, usr *domain.User) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	Save(ctx context.Context, usr *domain.User) error
}

type ephemeralTokenStore interface {
	Create(ctx context.Context, t *domain.EphemeralToken) error
	GetByUser(ctx context.Context, userID uuid.UUID) (*domain.EphemeralToken, error)
	GetByUserAndToken(ctx context.Context, userID uuid.UUID, token string) (*domain.EphemeralToken, error)
	Delete(ctx context.Context, id uuid.UUID) error
	Consume(ctx context.Context, id uuid.UUID) error
}

type sessionStore interface {
	Create(ctx context.Context, s *domain.Session) error
	FindActive(ctx context.Context, tokenHash string, userID uuid.UUID) (*domain.Session, error)
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error
	RevokeIfActive(ctx context.Context, id uuid.UUID, at time.Time) error
	ListActiveForUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]domain.Session, error)
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)
}

type gormStoreAdapter struct {
	store *store.Store
}

func (g gormStoreAdapter) WithTx(ctx context.Context, fn func(tx storeTx) error) error {
	if g.store == nil {
		return ErrNilStore
	}
	return g.store.WithTx(ctx, func(tx *store.Store) error {
		return fn(gormStoreAdapter{store: tx})
	})
}

func (g gormStoreAdapter) Users() userStore { return g.store.Users() }

func (g gormStoreAdapter) EphemeralTokens() ephemeralTokenStore { return g.store.EphemeralTokens() }

func (g gormStoreAdapter) Sessions() sessionStore { return g.store.Sessions() }
