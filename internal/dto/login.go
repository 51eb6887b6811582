package dto

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries either tokens and the user, or, for an unverified
// account whose verification link had lapsed, only VerificationEmailSent.
type LoginResponse struct {
	Message               string    `json:"message"`
	AccessToken           string    `json:"accessToken,omitempty"`
	RefreshToken          string    `json:"refreshToken,omitempty"`
	ExpiresIn             int64     `json:"expiresIn,omitempty"`
	User                  *UserView `json:"user,omitempty"`
	VerificationEmailSent bool      `json:"verificationEmailSent,omitempty"`
}
