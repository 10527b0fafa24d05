package calendarsync

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"

	"github.com/unical-app/unical/app/models"
)

func TestNormalizeGoogleEvent(t *testing.T) {
	acct := googleAccount()

	item := &calendar.Event{
		Id:          "evt-1",
		Summary:     "Sprint review",
		Description: "Demo of the week",
		Location:    "Room 4",
		Start:       &calendar.EventDateTime{DateTime: "2026-03-10T09:00:00Z"},
		End:         &calendar.EventDateTime{DateTime: "2026-03-10T10:00:00Z"},
		Organizer:   &calendar.EventOrganizer{Email: "Owner@Example.com"},
		Attendees: []*calendar.EventAttendee{
			{Email: "owner@example.com", ResponseStatus: "accepted"},
			{Email: "guest@example.com", ResponseStatus: "needsAction"},
		},
	}

	ev, ok := normalizeGoogleEvent(item, acct)
	require.True(t, ok)

	assert.Equal(t, acct.UserID, ev.UserID)
	assert.Equal(t, acct.ID, ev.CalendarAccountID)
	require.NotNil(t, ev.ExternalEventID)
	assert.Equal(t, "evt-1", *ev.ExternalEventID)
	assert.Equal(t, "Sprint review", ev.Title)
	assert.Equal(t, time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC), ev.StartTime)
	assert.False(t, ev.IsAllDay)
	assert.Equal(t, models.PROVIDER_GOOGLE, ev.SourceType)

	require.Len(t, ev.Attendees, 2)
	assert.True(t, ev.Attendees[0].IsOrganizer)
	assert.Equal(t, models.ATTENDEE_ACCEPTED, ev.Attendees[0].Status)
	assert.Equal(t, models.ATTENDEE_PENDING, ev.Attendees[1].Status)
}

func TestNormalizeGoogleEventAllDay(t *testing.T) {
	acct := googleAccount()

	item := &calendar.Event{
		Id:    "evt-2",
		Start: &calendar.EventDateTime{Date: "2026-03-12"},
		End:   &calendar.EventDateTime{Date: "2026-03-13"},
	}

	ev, ok := normalizeGoogleEvent(item, acct)
	require.True(t, ok)
	assert.True(t, ev.IsAllDay)
	assert.Equal(t, time.Date(2026, 3, 12, 0, 0, 0, 0, time.UTC), ev.StartTime)
}

func TestNormalizeGoogleEventFallsBackToICalUID(t *testing.T) {
	acct := googleAccount()

	ev, ok := normalizeGoogleEvent(&calendar.Event{ICalUID: "uid-9"}, acct)
	require.True(t, ok)
	assert.Equal(t, "uid-9", *ev.ExternalEventID)

	_, ok = normalizeGoogleEvent(&calendar.Event{}, acct)
	assert.False(t, ok)
}

func TestNormalizeResponseStatus(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"accepted", models.ATTENDEE_ACCEPTED},
		{"tentative", models.ATTENDEE_ACCEPTED},
		{"declined", models.ATTENDEE_DECLINED},
		{"needsAction", models.ATTENDEE_PENDING},
		{"", models.ATTENDEE_PENDING},
		{"something-else", models.ATTENDEE_PENDING},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, normalizeResponseStatus(tt.in), tt.in)
	}
}

func TestToGoogleEventAllDayUsesDateFields(t *testing.T) {
	ev := &models.Event{
		Title:     "Company holiday",
		StartTime: time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC),
		IsAllDay:  true,
	}

	g := toGoogleEvent(ev)
	assert.Equal(t, "2026-05-01", g.Start.Date)
	assert.Equal(t, "2026-05-02", g.End.Date)
	assert.Empty(t, g.Start.DateTime)
}

func TestToGoogleEventTimedUsesRFC3339(t *testing.T) {
	ev := &models.Event{
		Title:     "Standup",
		StartTime: time.Date(2026, 5, 1, 9, 30, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 5, 1, 9, 45, 0, 0, time.UTC),
		Attendees: []models.Attendee{{Email: "guest@example.com", Status: models.ATTENDEE_DECLINED}},
	}

	g := toGoogleEvent(ev)
	assert.Equal(t, "2026-05-01T09:30:00Z", g.Start.DateTime)
	assert.Empty(t, g.Start.Date)
	require.Len(t, g.Attendees, 1)
	assert.Equal(t, "declined", g.Attendees[0].ResponseStatus)
}
