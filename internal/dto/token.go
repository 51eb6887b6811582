package dto

type TokenResponse struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int64  `json:"expiresIn"`
}

// RefreshRequest leaves the token optional so an empty body reaches the
// service and is reported as a missing token rather than a bad request.
type RefreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refreshToken"`
}

type LogoutAllResponse struct {
	Message string `json:"message"`
	Revoked int64  `json:"revoked"`
}
