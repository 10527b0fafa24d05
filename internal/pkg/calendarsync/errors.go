package calendarsync

import "errors"

// Error taxonomy surfaced by the sync engine. Controllers map these onto
// HTTP statuses; the scheduler only logs them.
var (
	// ErrNotOwner means the verified caller does not own the referenced
	// account or event. Nothing was mutated, locally or remotely.
	ErrNotOwner = errors.New("calendarsync: caller does not own this resource")

	// ErrCredential means the provider rejected the stored grant (revoked or
	// expired refresh token). The account keeps its last-known-good tokens
	// and the owner has to reconnect.
	ErrCredential = errors.New("calendarsync: provider credentials rejected, reconnect required")

	// ErrProvider covers transient provider failures (network, rate limit,
	// 5xx). The next scheduled cycle retries from the last persisted cursor.
	ErrProvider = errors.New("calendarsync: provider request failed")

	// ErrSyncInProgress means another sync currently holds the per-account
	// lease. The request is dropped, not queued.
	ErrSyncInProgress = errors.New("calendarsync: sync already running for this account")

	// ErrUnknownProvider means no adapter is registered for the account's
	// provider type.
	ErrUnknownProvider = errors.New("calendarsync: unknown provider type")

	// ErrAttendeeNotFound means the given email is not on the event's
	// attendee list.
	ErrAttendeeNotFound = errors.New("calendarsync: attendee not found on event")
)
