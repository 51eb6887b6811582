package domain

import "time"

// Session is one refresh-token grant bound to a device. Only the SHA-256 of
// the refresh token is stored. Once Revoked is set it is never cleared.
type Session struct {
	ID        SessionID  `gorm:"type:uuid;primaryKey" db:"id" json:"id"`
	UserID    UserID     `gorm:"type:uuid;not null;index" db:"user_id" json:"-"`
	TokenHash string     `gorm:"type:text;not null;uniqueIndex:ux_refresh_sessions_token" db:"token_hash" json:"-"`
	ExpiresAt time.Time  `gorm:"not null;index" db:"expires_at" json:"expiresAt"`
	Revoked   bool       `gorm:"not null;default:false" db:"revoked" json:"-"`
	RevokedAt *time.Time `db:"revoked_at" json:"-"`
	UserAgent string     `gorm:"type:text" db:"user_agent" json:"userAgent"`
	IPAddress string     `gorm:"type:text" db:"ip_address" json:"ipAddress"`
	CreatedAt time.Time  `gorm:"not null" db:"created_at" json:"createdAt"`
}

func (Session) TableName() string { return "refresh_sessions" }

func (s *Session) Expired(now time.Time) bool { return !now.Before(s.ExpiresAt) }

// DeviceInfo is captured at issuance for audit and display only.
type DeviceInfo struct {
	UserAgent string
	IPAddress string
}
