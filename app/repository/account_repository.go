package repository

import (
	"time"

	"github.com/unical-app/unical/app/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// accountRepository implements the AccountRepository interface
type accountRepository struct {
	db *gorm.DB
}

// NewAccountRepository creates a new calendar account repository instance
func NewAccountRepository(db *gorm.DB) AccountRepository {
	return &accountRepository{db: db}
}

// Create creates a new calendar account in the database
func (r *accountRepository) Create(acct *models.CalendarAccount) error {
	return r.db.Create(acct).Error
}

// GetByID retrieves a calendar account by its ID
func (r *accountRepository) GetByID(id uint) (*models.CalendarAccount, error) {
	var acct models.CalendarAccount
	err := r.db.First(&acct, id).Error
	if err != nil {
		return nil, err
	}
	return &acct, nil
}

// GetByUserID retrieves all calendar accounts connected by a user
func (r *accountRepository) GetByUserID(userID uint) ([]models.CalendarAccount, error) {
	var accounts []models.CalendarAccount
	err := r.db.Where("user_id = ?", userID).Order("created_at ASC").Find(&accounts).Error
	return accounts, err
}

// GetSyncable retrieves every account of a provider that supports delta sync
func (r *accountRepository) GetSyncable() ([]models.CalendarAccount, error) {
	var accounts []models.CalendarAccount
	err := r.db.Where("provider IN ?", []string{models.PROVIDER_GOOGLE, models.PROVIDER_OUTLOOK}).
		Find(&accounts).Error
	return accounts, err
}

// Upsert creates or replaces the account identified by
// (user_id, provider, account_email), refreshing identity and token columns
// while leaving the sync cursor of an existing row untouched.
func (r *accountRepository) Upsert(acct *models.CalendarAccount) error {
	return r.db.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "user_id"}, {Name: "provider"}, {Name: "account_email"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"account_name", "external_calendar_id", "display_color",
			"access_token", "refresh_token", "token_expires_at",
		}),
	}).Create(acct).Error
}

// Update updates an existing calendar account in the database
func (r *accountRepository) Update(acct *models.CalendarAccount) error {
	return r.db.Save(acct).Error
}

// UpdateTokens persists a refreshed token pair with a compare-and-swap on the
// previously stored access token so two concurrent refreshes cannot both win.
func (r *accountRepository) UpdateTokens(id uint, previousAccessToken, accessToken, refreshToken string, expiresAt time.Time) (bool, error) {
	res := r.db.Model(&models.CalendarAccount{}).
		Where("id = ? AND access_token = ?", id, previousAccessToken).
		Updates(map[string]any{
			"access_token":     accessToken,
			"refresh_token":    refreshToken,
			"token_expires_at": expiresAt,
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

// UpdateCursor persists the incremental sync cursor for an account
func (r *accountRepository) UpdateCursor(id uint, cursor *string) error {
	return r.db.Model(&models.CalendarAccount{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"last_sync_cursor": cursor,
			"last_synced_at":   time.Now(),
		}).Error
}
