package models

import "time"

type User struct {
	ID                uint     `gorm:"primaryKey;autoIncrement"   json:"id"`
	Username          string   `gorm:"not null"                   json:"username"`
	Email             string   `gorm:"uniqueIndex;not null"       json:"email"`
	PasswordHash      string   `gorm:"not null"                   json:"-"`
	AvatarURL         string   `json:"avatarURL"`
	Verified          bool     `gorm:"default:false"              json:"verified"`
	VerificationToken *string  `gorm:"uniqueIndex"                json:"-"`
	DailyKcal         *float64 `json:"dailyKcal,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RevokedToken records a bearer token invalidated by logout. Only the
// sha256 of the token string is stored. ExpiresAt mirrors the token's
// signed expiry so stale rows can be pruned offline.
type RevokedToken struct {
	ID        uint   `gorm:"primaryKey"          json:"id"`
	TokenHash string `gorm:"uniqueIndex;not null" json:"-"`
	UserID    uint   `gorm:"index;not null"      json:"user_id"`
	ExpiresAt int64  `gorm:"not null"            json:"expires_at"`

	CreatedAt time.Time `json:"created_at"`
}
