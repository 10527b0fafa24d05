package calendarsync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/oauth2"
	googleoauth "golang.org/x/oauth2/google"
	"golang.org/x/time/rate"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/unical-app/unical/app/models"
	"github.com/unical-app/unical/internal/pkg/env"
)

// syncWindow bounds full fetches to events within ±365 days of now.
const syncWindow = 365 * 24 * time.Hour

const (
	googleStatusCancelled = "cancelled"
	googleRespAccepted    = "accepted"
	googleRespDeclined    = "declined"
	googleRespTentative   = "tentative"
	googleRespNeedsAction = "needsAction"
)

// googleProvider talks to the Google Calendar v3 API. It holds no per-account
// state; a fresh service is built from the caller's token on every call.
type googleProvider struct {
	limiter *rate.Limiter
}

func newGoogleProvider() *googleProvider {
	// Conservative, well below Google's per-user quota
	return &googleProvider{limiter: rate.NewLimiter(rate.Limit(5), 10)}
}

func (p *googleProvider) service(ctx context.Context, accessToken string) (*calendar.Service, error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return svc, nil
}

func (p *googleProvider) wait(ctx context.Context) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	return nil
}

// FetchDelta lists events incrementally via syncToken when a cursor is given,
// otherwise as a full ±365d snapshot with recurring events expanded.
func (p *googleProvider) FetchDelta(ctx context.Context, acct *models.CalendarAccount, accessToken, cursor string) (*Delta, error) {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	delta := &Delta{Snapshot: cursor == ""}
	pageToken := ""
	for {
		if err := p.wait(ctx); err != nil {
			return nil, err
		}

		call := svc.Events.List(acct.ExternalCalendarID).SingleEvents(true).Context(ctx)
		if cursor != "" {
			// syncToken excludes window and ordering parameters
			call = call.SyncToken(cursor)
		} else {
			now := time.Now()
			call = call.
				TimeMin(now.Add(-syncWindow).Format(time.RFC3339)).
				TimeMax(now.Add(syncWindow).Format(time.RFC3339)).
				OrderBy("startTime").
				ShowDeleted(false)
		}
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}

		resp, err := call.Do()
		if err != nil {
			if isGone(err) {
				// provider invalidated the sync token; caller restarts once
				// without a cursor
				return &Delta{FullResyncRequired: true}, nil
			}
			return nil, mapGoogleError(err)
		}

		for _, item := range resp.Items {
			if item.Status == googleStatusCancelled {
				if item.Id != "" {
					delta.CancelledIDs = append(delta.CancelledIDs, item.Id)
				}
				continue
			}
			if ev, ok := normalizeGoogleEvent(item, acct); ok {
				delta.Events = append(delta.Events, ev)
			}
		}

		if resp.NextSyncToken != "" {
			delta.NextCursor = resp.NextSyncToken
		}
		if resp.NextPageToken == "" {
			break
		}
		pageToken = resp.NextPageToken
	}

	return delta, nil
}

// CreateEvent inserts the event into the account's calendar.
func (p *googleProvider) CreateEvent(ctx context.Context, acct *models.CalendarAccount, accessToken string, event *models.Event) (string, error) {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return "", err
	}
	if err := p.wait(ctx); err != nil {
		return "", err
	}

	created, err := svc.Events.Insert(acct.ExternalCalendarID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return "", mapGoogleError(err)
	}
	return created.Id, nil
}

// UpdateEvent patches the remote copy of the event.
func (p *googleProvider) UpdateEvent(ctx context.Context, acct *models.CalendarAccount, accessToken string, event *models.Event) error {
	if event.ExternalEventID == nil {
		return fmt.Errorf("%w: event has no external id", ErrProvider)
	}
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := p.wait(ctx); err != nil {
		return err
	}

	_, err = svc.Events.Patch(acct.ExternalCalendarID, *event.ExternalEventID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return mapGoogleError(err)
	}
	return nil
}

// DeleteEvent removes the remote copy of the event.
func (p *googleProvider) DeleteEvent(ctx context.Context, acct *models.CalendarAccount, accessToken, externalEventID string) error {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := p.wait(ctx); err != nil {
		return err
	}

	if err := svc.Events.Delete(acct.ExternalCalendarID, externalEventID).Context(ctx).Do(); err != nil {
		return mapGoogleError(err)
	}
	return nil
}

// SetAttendeeResponse updates one attendee's RSVP. The Calendar API exposes
// attendees only as part of the full event, so this is a read-modify-write:
// fetch the event, flip the matching attendee, patch the attendee list back.
func (p *googleProvider) SetAttendeeResponse(ctx context.Context, acct *models.CalendarAccount, accessToken, externalEventID, attendeeEmail, status string) error {
	svc, err := p.service(ctx, accessToken)
	if err != nil {
		return err
	}
	if err := p.wait(ctx); err != nil {
		return err
	}

	remote, err := svc.Events.Get(acct.ExternalCalendarID, externalEventID).Context(ctx).Do()
	if err != nil {
		return mapGoogleError(err)
	}

	needle := models.NormalizeEmail(attendeeEmail)
	found := false
	for _, att := range remote.Attendees {
		if models.NormalizeEmail(att.Email) == needle {
			att.ResponseStatus = toGoogleResponseStatus(status)
			found = true
		}
	}
	if !found {
		return ErrAttendeeNotFound
	}

	if err := p.wait(ctx); err != nil {
		return err
	}
	_, err = svc.Events.Patch(acct.ExternalCalendarID, externalEventID, &calendar.Event{Attendees: remote.Attendees}).Context(ctx).Do()
	if err != nil {
		return mapGoogleError(err)
	}
	return nil
}

// RefreshToken exchanges the stored refresh token for a fresh access token.
func (p *googleProvider) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	cfg := &oauth2.Config{
		ClientID:     env.GetEnv("GOOGLE_KEY", ""),
		ClientSecret: env.GetEnv("GOOGLE_SECRET", ""),
		Endpoint:     googleoauth.Endpoint,
	}

	tok, err := cfg.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken}).Token()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCredential, err)
	}
	return tok, nil
}

// toGoogleEvent translates a canonical event to the Calendar wire shape.
// All-day events use date-only boundaries, timed events RFC3339 with the
// server's zone.
func toGoogleEvent(event *models.Event) *calendar.Event {
	out := &calendar.Event{
		Summary:     event.Title,
		Description: event.Description,
		Location:    event.Location,
	}

	tz := time.Now().Location().String()
	if event.IsAllDay {
		out.Start = &calendar.EventDateTime{Date: event.StartTime.Format("2006-01-02")}
		out.End = &calendar.EventDateTime{Date: event.EndTime.Format("2006-01-02")}
	} else {
		out.Start = &calendar.EventDateTime{DateTime: event.StartTime.Format(time.RFC3339), TimeZone: tz}
		out.End = &calendar.EventDateTime{DateTime: event.EndTime.Format(time.RFC3339), TimeZone: tz}
	}

	for _, att := range event.Attendees {
		out.Attendees = append(out.Attendees, &calendar.EventAttendee{
			Email:          att.Email,
			ResponseStatus: toGoogleResponseStatus(att.Status),
		})
	}
	return out
}

// PrimaryGoogleCalendar resolves the id and display name of the user's
// primary calendar. Used once when an account is connected.
func PrimaryGoogleCalendar(ctx context.Context, accessToken string) (id, summary string, err error) {
	ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
	svc, err := calendar.NewService(ctx, option.WithTokenSource(ts))
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrProvider, err)
	}
	entry, err := svc.CalendarList.Get("primary").Context(ctx).Do()
	if err != nil {
		return "", "", mapGoogleError(err)
	}
	return entry.Id, entry.Summary, nil
}

// toGoogleResponseStatus maps a canonical RSVP status onto Google's values.
func toGoogleResponseStatus(status string) string {
	switch status {
	case models.ATTENDEE_ACCEPTED:
		return googleRespAccepted
	case models.ATTENDEE_DECLINED:
		return googleRespDeclined
	default:
		return googleRespNeedsAction
	}
}

// isGone reports whether the provider invalidated our sync token (410).
func isGone(err error) bool {
	var gerr *googleapi.Error
	return errors.As(err, &gerr) && gerr.Code == http.StatusGone
}

// isRemoteMissing reports whether the remote resource no longer exists.
func isRemoteMissing(err error) bool {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		return gerr.Code == http.StatusNotFound || gerr.Code == http.StatusGone
	}
	return false
}

// mapGoogleError folds a Calendar API error into the engine's taxonomy.
func mapGoogleError(err error) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return fmt.Errorf("%w: %w", ErrCredential, err)
		}
	}
	return fmt.Errorf("%w: %w", ErrProvider, err)
}
