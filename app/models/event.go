package models

import (
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

const (
	ATTENDEE_ACCEPTED = "accepted"
	ATTENDEE_DECLINED = "declined"
	ATTENDEE_PENDING  = "pending"
)

// Attendee is embedded in Event and has no identity of its own.
type Attendee struct {
	Email       string `json:"email"`
	Status      string `json:"status"`
	IsOrganizer bool   `json:"is_organizer"`
}

// Event is the canonical, provider-agnostic calendar event. Remote-origin
// events carry the provider's event id in ExternalEventID; custom events
// leave it nil. (CalendarAccountID, ExternalEventID) is unique for non-null
// external ids.
type Event struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	UserID            uint       `gorm:"index:idx_user_time,priority:1" json:"user_id"`
	CalendarAccountID uint       `gorm:"index;uniqueIndex:uq_account_external_event" json:"calendar_account_id"`
	ExternalEventID   *string    `gorm:"type:varchar(255);uniqueIndex:uq_account_external_event" json:"external_event_id,omitempty"`
	Title             string     `gorm:"type:varchar(500)" json:"title" validate:"required"`
	Description       string     `gorm:"type:text" json:"description,omitempty"`
	StartTime         time.Time  `gorm:"index:idx_user_time,priority:2" json:"start_time"`
	EndTime           time.Time  `gorm:"index:idx_user_time,priority:3" json:"end_time"`
	Location          string     `gorm:"type:varchar(500)" json:"location,omitempty"`
	Attendees         []Attendee `gorm:"serializer:json;type:json" json:"attendees"`
	IsAllDay          bool       `gorm:"default:false" json:"is_all_day"`
	SourceType        string     `gorm:"type:varchar(50)" json:"source_type" validate:"oneof=google outlook apple custom"`
	IsNewlyAccepted   bool       `gorm:"default:false" json:"is_newly_accepted"`
	LastSyncedAt      time.Time  `gorm:"autoCreateTime" json:"last_synced_at"`
	CreatedAt         time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt         time.Time  `gorm:"autoUpdateTime" json:"updated_at"`
}

func (e *Event) Validate() error {
	v := validator.New()

	return v.Struct(e)
}

// IsRemote reports whether the event mirrors a provider-side event.
func (e *Event) IsRemote() bool {
	return e.SourceType != PROVIDER_CUSTOM && e.ExternalEventID != nil && *e.ExternalEventID != ""
}

// OwnerResponse returns the RSVP status of the attendee matching the given
// email, or empty string if that email is not on the attendee list.
func (e *Event) OwnerResponse(email string) string {
	needle := NormalizeEmail(email)
	for _, att := range e.Attendees {
		if att.Email == needle {
			return att.Status
		}
	}
	return ""
}

// NormalizeAttendees lowercases and trims attendee emails and collapses
// unknown statuses to pending.
func NormalizeAttendees(attendees []Attendee) []Attendee {
	out := make([]Attendee, 0, len(attendees))
	for _, att := range attendees {
		att.Email = NormalizeEmail(att.Email)
		if att.Email == "" {
			continue
		}
		switch att.Status {
		case ATTENDEE_ACCEPTED, ATTENDEE_DECLINED:
		default:
			att.Status = ATTENDEE_PENDING
		}
		out = append(out, att)
	}
	return out
}

// NormalizeEmail lowercases and trims an email address for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
