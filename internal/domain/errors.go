package domain

import "errors"

// Error kinds surfaced by the auth flows. Transports map them to status codes;
// anything not listed here is reported as ErrInternal.
var (
	ErrEmailInUse            = errors.New("email address already in use")
	ErrUserNotFound          = errors.New("user not found")
	ErrInvalidCredentials    = errors.New("invalid email or password")
	ErrEmailNotVerified      = errors.New("email not verified")
	ErrAlreadyVerified       = errors.New("email already verified")
	ErrResetAlreadyRequested = errors.New("reset password request already sent")
	ErrUnauthorized          = errors.New("unauthorized")
	ErrTokenExpired          = errors.New("token expired")
	ErrPasswordMismatch      = errors.New("passwords do not match")
	ErrEmailDeliveryFailed   = errors.New("failed to send email")
	ErrMissingToken          = errors.New("refresh token is required")
	ErrInvalidToken          = errors.New("invalid refresh token")
	ErrEmailRejected         = errors.New("invalid email address")
	ErrInternal              = errors.New("internal server error")
)
