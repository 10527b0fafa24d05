package repository

import (
	"time"

	"github.com/unical-app/unical/app/models"
	"gorm.io/gorm"
)

// eventRepository implements the EventRepository interface
type eventRepository struct {
	db *gorm.DB
}

// NewEventRepository creates a new event repository instance
func NewEventRepository(db *gorm.DB) EventRepository {
	return &eventRepository{db: db}
}

// Create creates a new event in the database
func (r *eventRepository) Create(event *models.Event) error {
	return r.db.Create(event).Error
}

// GetByID retrieves an event by its ID
func (r *eventRepository) GetByID(id uint) (*models.Event, error) {
	var event models.Event
	err := r.db.First(&event, id).Error
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// GetByAccountID retrieves all locally stored events of one calendar account
func (r *eventRepository) GetByAccountID(accountID uint) ([]models.Event, error) {
	var events []models.Event
	err := r.db.Where("calendar_account_id = ?", accountID).Find(&events).Error
	return events, err
}

// GetByUserID retrieves a user's events, optionally limited to a time range
func (r *eventRepository) GetByUserID(userID uint, from, to *time.Time) ([]models.Event, error) {
	query := r.db.Where("user_id = ?", userID)
	if from != nil {
		query = query.Where("end_time >= ?", *from)
	}
	if to != nil {
		query = query.Where("start_time < ?", *to)
	}
	var events []models.Event
	err := query.Order("start_time ASC").Find(&events).Error
	return events, err
}

// Update updates an existing event in the database
func (r *eventRepository) Update(event *models.Event) error {
	return r.db.Save(event).Error
}

// Delete hard-deletes an event by its ID
func (r *eventRepository) Delete(id uint) error {
	return r.db.Delete(&models.Event{}, id).Error
}

// DeleteByExternalIDs hard-deletes the account's events matching the given
// external event ids
func (r *eventRepository) DeleteByExternalIDs(accountID uint, externalIDs []string) (int64, error) {
	if len(externalIDs) == 0 {
		return 0, nil
	}
	res := r.db.
		Where("calendar_account_id = ? AND external_event_id IN ?", accountID, externalIDs).
		Delete(&models.Event{})
	return res.RowsAffected, res.Error
}
