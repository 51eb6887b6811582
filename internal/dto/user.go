package dto

import (
	"time"

	"auth/internal/domain"
)

// UserView is the user record without its password credential.
type UserView struct {
	ID              string     `json:"id"`
	Email           string     `json:"email"`
	Name            string     `json:"name"`
	IsEmailVerified bool       `json:"isEmailVerified"`
	LastLogin       *time.Time `json:"lastLogin,omitempty"`
	ProfilePicture  *string    `json:"profilePicture,omitempty"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       time.Time  `json:"updatedAt"`
}

func NewUserView(u *domain.User) *UserView {
	if u == nil {
		return nil
	}
	return &UserView{
		ID:              u.ID.String(),
		Email:           u.Email,
		Name:            u.Name,
		IsEmailVerified: u.EmailVerified,
		LastLogin:       u.LastLogin,
		ProfilePicture:  u.ProfilePicture,
		CreatedAt:       u.CreatedAt,
		UpdatedAt:       u.UpdatedAt,
	}
}

type SessionView struct {
	ID        string    `json:"id"`
	UserAgent string    `json:"userAgent"`
	IPAddress string    `json:"ipAddress"`
	CreatedAt time.Time `json:"createdAt"`
	ExpiresAt time.Time `json:"expiresAt"`
}

type MessageResponse struct {
	Message string `json:"message"`
}
