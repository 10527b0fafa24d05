package calendarsync

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"

	"github.com/unical-app/unical/app/models"
)

// unsupportedProvider stands in for backends without a real adapter yet
// (Outlook, Apple/CalDAV). Fetches return an empty non-snapshot delta and
// writes are no-ops, so syncing such an account is a deliberate pass-through
// rather than a failure.
type unsupportedProvider struct {
	name string
}

func (p unsupportedProvider) FetchDelta(_ context.Context, _ *models.CalendarAccount, _, _ string) (*Delta, error) {
	// Snapshot stays false so the reconciler never interprets the empty
	// result as "everything was deleted remotely".
	return &Delta{}, nil
}

func (p unsupportedProvider) CreateEvent(_ context.Context, _ *models.CalendarAccount, _ string, _ *models.Event) (string, error) {
	return "", nil
}

func (p unsupportedProvider) UpdateEvent(_ context.Context, _ *models.CalendarAccount, _ string, _ *models.Event) error {
	return nil
}

func (p unsupportedProvider) DeleteEvent(_ context.Context, _ *models.CalendarAccount, _, _ string) error {
	return nil
}

func (p unsupportedProvider) SetAttendeeResponse(_ context.Context, _ *models.CalendarAccount, _, _, _, _ string) error {
	return nil
}

func (p unsupportedProvider) RefreshToken(_ context.Context, _ string) (*oauth2.Token, error) {
	return nil, fmt.Errorf("%w: %s does not support token refresh", ErrCredential, p.name)
}
