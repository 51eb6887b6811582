package service

import (
	"auth/internal/domain"
	"auth/internal/dto"
	"context"
)

type AuthService interface {
	Register(ctx context.Context, r dto.RegisterRequest) (*dto.RegisterResponse, error)
	Login(ctx context.Context, r dto.LoginRequest, device domain.DeviceInfo) (*dto.LoginResponse, error)
	VerifyEmail(ctx context.Context, token string) error
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, r dto.ResetPasswordRequest) error
}
