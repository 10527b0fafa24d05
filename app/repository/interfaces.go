package repository

import (
	"time"

	"github.com/unical-app/unical/app/models"
	"gorm.io/gorm"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
	Count() (int64, error)
}

// AccountRepository defines the interface for connected calendar accounts.
// The sync engine only ever sees this interface, never gorm directly.
type AccountRepository interface {
	Create(acct *models.CalendarAccount) error
	GetByID(id uint) (*models.CalendarAccount, error)
	GetByUserID(userID uint) ([]models.CalendarAccount, error)
	// GetSyncable returns every account whose provider supports delta sync,
	// across all users. Used by the background sweep.
	GetSyncable() ([]models.CalendarAccount, error)
	// Upsert creates or updates an account keyed by
	// (user_id, provider, account_email).
	Upsert(acct *models.CalendarAccount) error
	Update(acct *models.CalendarAccount) error
	// UpdateTokens persists a refreshed token pair only if the stored access
	// token still equals previousAccessToken. Returns false when a concurrent
	// refresh won the race; the caller must re-read the account.
	UpdateTokens(id uint, previousAccessToken, accessToken, refreshToken string, expiresAt time.Time) (bool, error)
	// UpdateCursor persists the incremental sync cursor (nil clears it).
	UpdateCursor(id uint, cursor *string) error
}

// EventRepository defines the interface for stored calendar events
type EventRepository interface {
	Create(event *models.Event) error
	GetByID(id uint) (*models.Event, error)
	GetByAccountID(accountID uint) ([]models.Event, error)
	// GetByUserID returns events for a user, optionally limited to the
	// [from, to) time range via the (user_id, start_time, end_time) index.
	GetByUserID(userID uint, from, to *time.Time) ([]models.Event, error)
	Update(event *models.Event) error
	Delete(id uint) error
	// DeleteByExternalIDs hard-deletes the account's events whose external
	// event id is in the given set. Returns the number of rows removed.
	DeleteByExternalIDs(accountID uint, externalIDs []string) (int64, error)
}

// Repositories bundles all repository implementations
type Repositories struct {
	User    UserRepository
	Account AccountRepository
	Event   EventRepository
}

// NewRepositories creates all repositories backed by the given database handle
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Account: NewAccountRepository(db),
		Event:   NewEventRepository(db),
	}
}
