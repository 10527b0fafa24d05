package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTokenExpired(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		expiresAt time.Time
		expired   bool
	}{
		{"In the past", now.Add(-time.Hour), true},
		{"Zero value", time.Time{}, true},
		{"Inside the refresh skew", now.Add(10 * time.Second), true},
		{"Well in the future", now.Add(time.Hour), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			acct := CalendarAccount{TokenExpiresAt: tt.expiresAt}
			assert.Equal(t, tt.expired, acct.TokenExpired(now))
		})
	}
}

func TestSyncable(t *testing.T) {
	assert.True(t, (&CalendarAccount{Provider: PROVIDER_GOOGLE}).Syncable())
	assert.True(t, (&CalendarAccount{Provider: PROVIDER_OUTLOOK}).Syncable())
	assert.False(t, (&CalendarAccount{Provider: PROVIDER_APPLE}).Syncable())
	assert.False(t, (&CalendarAccount{Provider: PROVIDER_CUSTOM}).Syncable())
}

func TestOwnerResponse(t *testing.T) {
	event := Event{
		Attendees: []Attendee{
			{Email: "alice@example.com", Status: ATTENDEE_PENDING},
			{Email: "bob@example.com", Status: ATTENDEE_ACCEPTED, IsOrganizer: true},
		},
	}

	assert.Equal(t, ATTENDEE_PENDING, event.OwnerResponse("alice@example.com"))
	assert.Equal(t, ATTENDEE_ACCEPTED, event.OwnerResponse(" Bob@Example.com "))
	assert.Equal(t, "", event.OwnerResponse("nobody@example.com"))
}

func TestNormalizeAttendees(t *testing.T) {
	in := []Attendee{
		{Email: " Alice@Example.COM ", Status: "tentative"},
		{Email: "bob@example.com", Status: ATTENDEE_DECLINED},
		{Email: "", Status: ATTENDEE_ACCEPTED},
	}

	out := NormalizeAttendees(in)

	assert.Len(t, out, 2)
	assert.Equal(t, "alice@example.com", out[0].Email)
	assert.Equal(t, ATTENDEE_PENDING, out[0].Status)
	assert.Equal(t, ATTENDEE_DECLINED, out[1].Status)
}

func TestIsRemote(t *testing.T) {
	extID := "evt-1"
	empty := ""

	assert.True(t, (&Event{SourceType: PROVIDER_GOOGLE, ExternalEventID: &extID}).IsRemote())
	assert.False(t, (&Event{SourceType: PROVIDER_CUSTOM, ExternalEventID: &extID}).IsRemote())
	assert.False(t, (&Event{SourceType: PROVIDER_GOOGLE, ExternalEventID: nil}).IsRemote())
	assert.False(t, (&Event{SourceType: PROVIDER_GOOGLE, ExternalEventID: &empty}).IsRemote())
}

func TestDefaultColor(t *testing.T) {
	assert.Equal(t, COLOR_GOOGLE, DefaultColor(PROVIDER_GOOGLE))
	assert.Equal(t, COLOR_DEFAULT, DefaultColor(PROVIDER_CUSTOM))
}
