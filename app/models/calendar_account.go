package models

import (
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	PROVIDER_GOOGLE  = "google"
	PROVIDER_OUTLOOK = "outlook"
	PROVIDER_APPLE   = "apple"
	PROVIDER_CUSTOM  = "custom"
)

// Default display colors per provider (ARGB hex, consumed by the app UI)
const (
	COLOR_GOOGLE  = "#FF4285F4"
	COLOR_DEFAULT = "#FF888888"
)

// tokenExpirySkew treats tokens as expired slightly early so a refresh
// happens before the provider rejects the old token mid-request.
const tokenExpirySkew = 30 * time.Second

// CalendarAccount stores one connected external calendar per user.
// AccessToken and RefreshToken hold ciphertext produced by the security
// package; they are never persisted or serialized in clear text.
type CalendarAccount struct {
	ID                 uint       `gorm:"primaryKey" json:"id"`
	UserID             uint       `gorm:"uniqueIndex:uq_user_provider_email" json:"user_id"`
	Provider           string     `gorm:"type:varchar(50);uniqueIndex:uq_user_provider_email" json:"provider" validate:"oneof=google outlook apple custom"`
	AccountEmail       string     `gorm:"type:varchar(200);uniqueIndex:uq_user_provider_email" json:"account_email" validate:"required,email"`
	AccountName        string     `gorm:"type:varchar(150)" json:"account_name" validate:"required,max=150"`
	ExternalCalendarID string     `gorm:"type:varchar(255)" json:"external_calendar_id" validate:"required"`
	DisplayColor       string     `gorm:"type:varchar(12);default:'#FF888888'" json:"display_color"`
	AccessToken        string     `gorm:"type:text" json:"-"`
	RefreshToken       string     `gorm:"type:text" json:"-"`
	TokenExpiresAt     time.Time  `gorm:"type:timestamp;default:null" json:"-"`
	LastSyncCursor     *string    `gorm:"type:varchar(512);default:null" json:"-"`
	SyncRunCount       int64      `gorm:"default:0" json:"sync_run_count"`
	LastSyncedAt       *time.Time `gorm:"type:timestamp;default:null" json:"last_synced_at,omitempty"`
	CreatedAt          time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (a *CalendarAccount) Validate() error {
	v := validator.New()

	return v.Struct(a)
}

// TokenExpired reports whether the stored access token must be refreshed
// before it can be used for a provider call.
func (a *CalendarAccount) TokenExpired(now time.Time) bool {
	if a.TokenExpiresAt.IsZero() {
		return true
	}
	return !a.TokenExpiresAt.After(now.Add(tokenExpirySkew))
}

// Syncable reports whether the provider supports inbound delta sync.
// Apple (CalDAV) and custom accounts are connected but never fetched.
func (a *CalendarAccount) Syncable() bool {
	return a.Provider == PROVIDER_GOOGLE || a.Provider == PROVIDER_OUTLOOK
}

// DefaultColor returns the display color used when a provider account is
// first connected.
func DefaultColor(provider string) string {
	if provider == PROVIDER_GOOGLE {
		return COLOR_GOOGLE
	}
	return COLOR_DEFAULT
}
