package service

import (
	"auth/internal/domain"
	"auth/internal/dto"
	"auth/internal/jwtsigner"
	"context"
	"time"
)

type TokenService interface {
	Issue(ctx context.Context, user *domain.User, device domain.DeviceInfo) (*dto.TokenResponse, error)
	Refresh(ctx context.Context, refreshToken string) (*dto.TokenResponse, error)
	Logout(ctx context.Context, refreshToken string) error
	ListSessions(ctx context.Context, userID domain.UserID) ([]dto.SessionView, error)
	RevokeAll(ctx context.Context, userID domain.UserID) (int64, error)
}

// TokenCodec mints and checks signed tokens. *jwtsigner.Signer implements it.
type TokenCodec interface {
	Issue(sub domain.UserID, purpose domain.TokenPurpose, ttl time.Duration) (string, error)
	Verify(token string) (*jwtsigner.Verified, error)
	VerifyAllowExpired(token string) (*jwtsigner.Verified, error)
}
