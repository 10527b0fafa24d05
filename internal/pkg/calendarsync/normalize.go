package calendarsync

import (
	"time"

	"google.golang.org/api/calendar/v3"

	"github.com/unical-app/unical/app/models"
)

// normalizeGoogleEvent maps one Calendar API payload onto the canonical
// event shape. Payloads without any usable identifier are discarded
// (ok == false).
func normalizeGoogleEvent(item *calendar.Event, acct *models.CalendarAccount) (models.Event, bool) {
	id := item.Id
	if id == "" {
		// fall back to the iCalendar UID when the primary id is absent
		id = item.ICalUID
	}
	if id == "" {
		return models.Event{}, false
	}

	start, startIsDate := parseGoogleTime(item.Start)
	end, _ := parseGoogleTime(item.End)

	event := models.Event{
		UserID:            acct.UserID,
		CalendarAccountID: acct.ID,
		ExternalEventID:   &id,
		Title:             item.Summary,
		Description:       item.Description,
		StartTime:         start,
		EndTime:           end,
		Location:          item.Location,
		Attendees:         normalizeGoogleAttendees(item),
		IsAllDay:          startIsDate,
		SourceType:        acct.Provider,
	}
	return event, true
}

// parseGoogleTime resolves an event boundary. A date-only value marks an
// all-day boundary.
func parseGoogleTime(edt *calendar.EventDateTime) (time.Time, bool) {
	if edt == nil {
		return time.Time{}, false
	}
	if edt.DateTime != "" {
		t, err := time.Parse(time.RFC3339, edt.DateTime)
		if err != nil {
			return time.Time{}, false
		}
		return t, false
	}
	if edt.Date != "" {
		t, err := time.Parse("2006-01-02", edt.Date)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// normalizeGoogleAttendees maps provider RSVP statuses onto the three
// canonical values: tentative counts as accepted, anything unanswered or
// unknown as pending.
func normalizeGoogleAttendees(item *calendar.Event) []models.Attendee {
	organizerEmail := ""
	if item.Organizer != nil {
		organizerEmail = models.NormalizeEmail(item.Organizer.Email)
	}

	attendees := make([]models.Attendee, 0, len(item.Attendees))
	for _, att := range item.Attendees {
		email := models.NormalizeEmail(att.Email)
		if email == "" {
			continue
		}
		attendees = append(attendees, models.Attendee{
			Email:       email,
			Status:      normalizeResponseStatus(att.ResponseStatus),
			IsOrganizer: att.Organizer || (organizerEmail != "" && email == organizerEmail),
		})
	}
	return attendees
}

func normalizeResponseStatus(status string) string {
	switch status {
	case googleRespAccepted, googleRespTentative:
		return models.ATTENDEE_ACCEPTED
	case googleRespDeclined:
		return models.ATTENDEE_DECLINED
	default:
		return models.ATTENDEE_PENDING
	}
}
