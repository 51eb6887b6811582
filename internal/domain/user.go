package domain

import "time"

type User struct {
	ID             UserID             `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	Email          string             `gorm:"type:text;not null;uniqueIndex:ux_users_email" db:"email" json:"email"`
	Name           string             `gorm:"type:text;not null" db:"name" json:"name"`
	Password       PasswordCredential `gorm:"embedded" json:"-"`
	EmailVerified  bool               `gorm:"not null;default:false" db:"email_verified" json:"isEmailVerified"`
	LastLogin      *time.Time         `db:"last_login" json:"lastLogin,omitempty"`
	ProfilePicture *string            `gorm:"type:text" db:"profile_picture" json:"profilePicture,omitempty"`
	CreatedAt      time.Time          `gorm:"not null" db:"created_at" json:"createdAt"`
	UpdatedAt      time.Time          `gorm:"not null" db:"updated_at" json:"updatedAt"`
}

func (User) TableName() string { return "users" }

// EphemeralToken is a single-use grant for email verification or password
// reset. user_id is unique: a user holds at most one such row at a time.
type EphemeralToken struct {
	ID        EphemeralTokenID `gorm:"type:uuid;primaryKey" db:"id"`
	UserID    UserID           `gorm:"type:uuid;not null;uniqueIndex:ux_ephemeral_tokens_user" db:"user_id"`
	Token     string           `gorm:"type:text;not null;uniqueIndex:ux_ephemeral_tokens_token" db:"token"`
	Purpose   TokenPurpose     `gorm:"type:text;not null" db:"purpose"`
	ExpiresAt time.Time        `gorm:"not null" db:"expires_at"`
	CreatedAt time.Time        `gorm:"not null" db:"created_at"`
}

func (EphemeralToken) TableName() string { return "ephemeral_tokens" }

func (t *EphemeralToken) Expired(now time.Time) bool { return !now.Before(t.ExpiresAt) }
