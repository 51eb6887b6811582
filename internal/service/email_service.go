package service

import (
	"context"

	"auth/internal/guard"
)

type EmailService interface {
	SendVerification(ctx context.Context, to string, token string) error
	SendPasswordReset(ctx context.Context, to string, token string) error
}

// EmailGuard screens addresses before an account is created.
type EmailGuard interface {
	Check(ctx context.Context, email string) (guard.Decision, error)
}
