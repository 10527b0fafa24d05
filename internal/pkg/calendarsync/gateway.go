package calendarsync

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/unical-app/unical/app/models"
	"github.com/unical-app/unical/app/repository"
)

// EventInput carries the caller-editable fields of an event.
type EventInput struct {
	Title             string            `json:"title" validate:"required"`
	Description       string            `json:"description"`
	Location          string            `json:"location"`
	StartTime         time.Time         `json:"start_time" validate:"required"`
	EndTime           time.Time         `json:"end_time" validate:"required"`
	IsAllDay          bool              `json:"is_all_day"`
	Attendees         []models.Attendee `json:"attendees"`
	CalendarAccountID uint              `json:"calendar_account_id"`
}

// Gateway performs user-initiated event mutations. For events living on a
// remote calendar it writes remote-first: the provider call must succeed
// before the local row changes, so the local table never claims state the
// provider rejected.
type Gateway struct {
	events   repository.EventRepository
	accounts repository.AccountRepository
	registry *Registry
	creds    *CredentialStore
}

func NewGateway(events repository.EventRepository, accounts repository.AccountRepository, registry *Registry, creds *CredentialStore) *Gateway {
	return &Gateway{events: events, accounts: accounts, registry: registry, creds: creds}
}

// ListEvents returns the user's events, optionally restricted to a time range.
func (g *Gateway) ListEvents(userID uint, from, to *time.Time) ([]models.Event, error) {
	return g.events.GetByUserID(userID, from, to)
}

// GetEvent returns one event after verifying ownership.
func (g *Gateway) GetEvent(userID, eventID uint) (*models.Event, error) {
	ev, err := g.events.GetByID(eventID)
	if err != nil {
		return nil, err
	}
	if ev.UserID != userID {
		return nil, ErrNotOwner
	}
	return ev, nil
}

// CreateEvent creates an event. With a zero CalendarAccountID the event is a
// local custom event. With an account set, the account must belong to the
// user; for sync-capable providers the event is created remotely first and
// stored with the provider's event id.
func (g *Gateway) CreateEvent(ctx context.Context, userID uint, in EventInput) (*models.Event, error) {
	ev := &models.Event{
		UserID:      userID,
		Title:       in.Title,
		Description: in.Description,
		Location:    in.Location,
		StartTime:   in.StartTime,
		EndTime:     in.EndTime,
		IsAllDay:    in.IsAllDay,
		Attendees:   models.NormalizeAttendees(in.Attendees),
		SourceType:  models.PROVIDER_CUSTOM,
	}
	// validate before any remote write so a rejected event never leaves an
	// orphan copy at the provider
	if err := ev.Validate(); err != nil {
		return nil, err
	}

	if in.CalendarAccountID != 0 {
		acct, err := g.ownedAccount(userID, in.CalendarAccountID)
		if err != nil {
			return nil, err
		}
		ev.CalendarAccountID = acct.ID
		if acct.Syncable() {
			externalID, err := g.createRemote(ctx, acct, ev)
			if err != nil {
				return nil, err
			}
			if externalID != "" {
				ev.ExternalEventID = &externalID
				ev.SourceType = acct.Provider
				ev.LastSyncedAt = time.Now()
			}
		}
	}

	if err := g.events.Create(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// UpdateEvent applies the input to an owned event, patching the remote copy
// first when one exists.
func (g *Gateway) UpdateEvent(ctx context.Context, userID, eventID uint, in EventInput) (*models.Event, error) {
	ev, err := g.GetEvent(userID, eventID)
	if err != nil {
		return nil, err
	}

	ev.Title = in.Title
	ev.Description = in.Description
	ev.Location = in.Location
	ev.StartTime = in.StartTime
	ev.EndTime = in.EndTime
	ev.IsAllDay = in.IsAllDay
	ev.Attendees = models.NormalizeAttendees(in.Attendees)

	if ev.IsRemote() {
		acct, provider, token, err := g.remoteContext(ctx, userID, ev)
		if err != nil {
			return nil, err
		}
		if err := provider.UpdateEvent(ctx, acct, token, ev); err != nil {
			return nil, err
		}
		ev.LastSyncedAt = time.Now()
	}

	if err := ev.Validate(); err != nil {
		return nil, err
	}
	if err := g.events.Update(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

// DeleteEvent removes an owned event. A remote copy already gone on the
// provider side is not an error; the local row is removed either way.
func (g *Gateway) DeleteEvent(ctx context.Context, userID, eventID uint) error {
	ev, err := g.GetEvent(userID, eventID)
	if err != nil {
		return err
	}

	if ev.IsRemote() {
		acct, provider, token, err := g.remoteContext(ctx, userID, ev)
		if err != nil {
			return err
		}
		if err := provider.DeleteEvent(ctx, acct, token, *ev.ExternalEventID); err != nil {
			if !isRemoteMissing(err) {
				return err
			}
			log.Infof("[Gateway] Event %d already gone remotely, deleting locally", eventID)
		}
	}

	return g.events.Delete(ev.ID)
}

// RespondToEvent records the account owner's RSVP on an owned event. Only
// the response of the connected account's own email can be changed; the
// remote calendar is the authority for everyone else's.
func (g *Gateway) RespondToEvent(ctx context.Context, userID, eventID uint, attendeeEmail, status string) (*models.Event, error) {
	switch status {
	case models.ATTENDEE_ACCEPTED, models.ATTENDEE_DECLINED, models.ATTENDEE_PENDING:
	default:
		return nil, fmt.Errorf("invalid attendee status %q", status)
	}

	ev, err := g.GetEvent(userID, eventID)
	if err != nil {
		return nil, err
	}

	email := models.NormalizeEmail(attendeeEmail)

	if ev.IsRemote() {
		acct, provider, token, err := g.remoteContext(ctx, userID, ev)
		if err != nil {
			return nil, err
		}
		if email != models.NormalizeEmail(acct.AccountEmail) {
			return nil, ErrNotOwner
		}
		if err := provider.SetAttendeeResponse(ctx, acct, token, *ev.ExternalEventID, email, status); err != nil {
			return nil, err
		}
		ev.LastSyncedAt = time.Now()
	}

	// the caller responded themselves, so the newly-accepted marker stays off
	found := false
	for i := range ev.Attendees {
		if ev.Attendees[i].Email != email {
			continue
		}
		ev.Attendees[i].Status = status
		found = true
		break
	}
	if !found {
		return nil, ErrAttendeeNotFound
	}

	if err := g.events.Update(ev); err != nil {
		return nil, err
	}
	return ev, nil
}

func (g *Gateway) ownedAccount(userID, accountID uint) (*models.CalendarAccount, error) {
	acct, err := g.accounts.GetByID(accountID)
	if err != nil {
		return nil, err
	}
	if acct.UserID != userID {
		return nil, ErrNotOwner
	}
	return acct, nil
}

func (g *Gateway) createRemote(ctx context.Context, acct *models.CalendarAccount, ev *models.Event) (string, error) {
	provider, err := g.registry.Get(acct.Provider)
	if err != nil {
		return "", err
	}
	token, err := g.creds.EnsureValidToken(ctx, acct)
	if err != nil {
		return "", err
	}
	return provider.CreateEvent(ctx, acct, token, ev)
}

func (g *Gateway) remoteContext(ctx context.Context, userID uint, ev *models.Event) (*models.CalendarAccount, Provider, string, error) {
	acct, err := g.ownedAccount(userID, ev.CalendarAccountID)
	if err != nil {
		return nil, nil, "", err
	}
	provider, err := g.registry.Get(acct.Provider)
	if err != nil {
		return nil, nil, "", err
	}
	token, err := g.creds.EnsureValidToken(ctx, acct)
	if err != nil {
		return nil, nil, "", err
	}
	return acct, provider, token, nil
}
