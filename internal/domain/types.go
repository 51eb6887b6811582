package domain

import (
	"time"

	"github.com/google/uuid"
)

type UserID = uuid.UUID
type SessionID = uuid.UUID
type EphemeralTokenID = uuid.UUID

// TokenPurpose restricts what a signed token authorizes.
type TokenPurpose string

const (
	PurposeEmailVerification TokenPurpose = "email-verification"
	PurposeLogin             TokenPurpose = "login"
	PurposeRefresh           TokenPurpose = "refresh"
	PurposeResetPassword     TokenPurpose = "reset-password"
)

func (p TokenPurpose) Valid() bool {
	switch p {
	case PurposeEmailVerification, PurposeLogin, PurposeRefresh, PurposeResetPassword:
		return true
	}
	return false
}

// Token lifetimes are fixed policy, not configuration.
const (
	AccessTokenTTL       = 15 * time.Minute
	RefreshTokenTTL      = 7 * 24 * time.Hour
	VerificationTokenTTL = 1 * time.Hour
	ResetTokenTTL        = 15 * time.Minute
)
