package calendarsync

import (
	"context"

	"golang.org/x/oauth2"

	"github.com/unical-app/unical/app/models"
)

// Delta is the result of one provider fetch.
type Delta struct {
	// Events are the fetched events in canonical form.
	Events []models.Event
	// CancelledIDs are external event ids the provider reported as removed.
	// Only incremental fetches populate this.
	CancelledIDs []string
	// NextCursor is the provider's token for the next incremental fetch.
	// Empty means the previous cursor stays valid.
	NextCursor string
	// FullResyncRequired is set when the provider invalidated the cursor.
	// The caller retries once with a cleared cursor.
	FullResyncRequired bool
	// Snapshot is true when the fetch covered the whole sync window, so
	// local events absent from Events no longer exist remotely.
	Snapshot bool
}

// Provider is one external calendar backend. Implementations are stateless;
// the per-account access token is an explicit argument to every call and no
// shared client state is ever mutated.
type Provider interface {
	// FetchDelta lists remote events, incrementally when cursor is non-empty.
	FetchDelta(ctx context.Context, acct *models.CalendarAccount, accessToken, cursor string) (*Delta, error)

	// CreateEvent inserts the event remotely and returns its external id.
	CreateEvent(ctx context.Context, acct *models.CalendarAccount, accessToken string, event *models.Event) (string, error)

	// UpdateEvent patches the remote copy of the event.
	UpdateEvent(ctx context.Context, acct *models.CalendarAccount, accessToken string, event *models.Event) error

	// DeleteEvent removes the remote copy of the event.
	DeleteEvent(ctx context.Context, acct *models.CalendarAccount, accessToken, externalEventID string) error

	// SetAttendeeResponse records an RSVP on the remote event.
	SetAttendeeResponse(ctx context.Context, acct *models.CalendarAccount, accessToken, externalEventID, attendeeEmail, status string) error

	// RefreshToken exchanges a refresh token for a new access token.
	RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error)
}

// Registry maps provider type constants to their adapter. Adding a provider
// means registering one more implementation here.
type Registry struct {
	providers map[string]Provider
}

// NewRegistry builds the default registry: a real Google adapter, and
// pass-through stubs for Outlook and Apple until those backends are wired.
func NewRegistry() *Registry {
	return &Registry{
		providers: map[string]Provider{
			models.PROVIDER_GOOGLE:  newGoogleProvider(),
			models.PROVIDER_OUTLOOK: unsupportedProvider{name: models.PROVIDER_OUTLOOK},
			models.PROVIDER_APPLE:   unsupportedProvider{name: models.PROVIDER_APPLE},
		},
	}
}

// Get returns the adapter for a provider type.
func (r *Registry) Get(providerType string) (Provider, error) {
	p, ok := r.providers[providerType]
	if !ok {
		return nil, ErrUnknownProvider
	}
	return p, nil
}

// Register adds or replaces an adapter. Tests use this to install fakes.
func (r *Registry) Register(providerType string, p Provider) {
	r.providers[providerType] = p
}
