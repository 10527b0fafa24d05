package calendarsync

import (
	"time"

	"github.com/unical-app/unical/app/models"
	"github.com/unical-app/unical/app/repository"
)

// ReconcileStats summarizes what a reconcile pass changed locally.
type ReconcileStats struct {
	Created int
	Updated int
	Deleted int
}

// Reconciler folds a provider delta into the local events table. It never
// talks to the provider itself; all remote I/O happens before it runs.
type Reconciler struct {
	events repository.EventRepository
}

func NewReconciler(events repository.EventRepository) *Reconciler {
	return &Reconciler{events: events}
}

// diff partitions incoming remote events against the locally stored ones
// by external id.
type diff struct {
	toCreate []models.Event
	toUpdate []eventPair
	toDelete []string
}

type eventPair struct {
	existing models.Event
	incoming models.Event
}

// Reconcile applies a delta for one account. Incoming events are matched to
// local rows by external event id: unknown ids are created, known ids are
// updated in place. Deletions come from two sources that never mix:
// cancelled ids reported by the provider, and, for snapshot deltas only,
// local remote events absent from the snapshot. Incremental deltas carry no
// absence information, so absence never deletes there.
func (r *Reconciler) Reconcile(acct *models.CalendarAccount, delta *Delta) (ReconcileStats, error) {
	var stats ReconcileStats

	existing, err := r.events.GetByAccountID(acct.ID)
	if err != nil {
		return stats, err
	}

	d := diffEvents(acct, existing, delta)

	now := time.Now()

	for i := range d.toCreate {
		ev := d.toCreate[i]
		ev.CalendarAccountID = acct.ID
		ev.UserID = acct.UserID
		ev.LastSyncedAt = now
		ev.Attendees = models.NormalizeAttendees(ev.Attendees)
		if err := r.events.Create(&ev); err != nil {
			return stats, err
		}
		stats.Created++
	}

	for i := range d.toUpdate {
		updated := applyUpdate(acct, d.toUpdate[i].existing, d.toUpdate[i].incoming, now)
		if err := r.events.Update(&updated); err != nil {
			return stats, err
		}
		stats.Updated++
	}

	if len(d.toDelete) > 0 {
		n, err := r.events.DeleteByExternalIDs(acct.ID, d.toDelete)
		if err != nil {
			return stats, err
		}
		stats.Deleted += int(n)
	}

	return stats, nil
}

func diffEvents(acct *models.CalendarAccount, existing []models.Event, delta *Delta) diff {
	var d diff

	byExternalID := make(map[string]models.Event, len(existing))
	for _, ev := range existing {
		if ev.ExternalEventID != nil && *ev.ExternalEventID != "" {
			byExternalID[*ev.ExternalEventID] = ev
		}
	}

	seen := make(map[string]bool, len(delta.Events))
	for _, incoming := range delta.Events {
		if incoming.ExternalEventID == nil || *incoming.ExternalEventID == "" {
			continue
		}
		id := *incoming.ExternalEventID
		seen[id] = true
		if prev, ok := byExternalID[id]; ok {
			d.toUpdate = append(d.toUpdate, eventPair{existing: prev, incoming: incoming})
		} else {
			d.toCreate = append(d.toCreate, incoming)
		}
	}

	deleted := make(map[string]bool)
	for _, id := range delta.CancelledIDs {
		if id == "" || deleted[id] {
			continue
		}
		if _, ok := byExternalID[id]; ok {
			deleted[id] = true
			d.toDelete = append(d.toDelete, id)
		}
	}

	// A snapshot enumerates the whole remote window, so anything local the
	// provider no longer returns is gone remotely.
	if delta.Snapshot {
		for id := range byExternalID {
			if !seen[id] && !deleted[id] {
				deleted[id] = true
				d.toDelete = append(d.toDelete, id)
			}
		}
	}

	return d
}

// applyUpdate carries the incoming remote state onto the stored row while
// preserving local identity. An owner response moving from pending to
// accepted flags the event as newly accepted so the UI can surface it; the
// next pass without that transition clears the flag again.
func applyUpdate(acct *models.CalendarAccount, existing, incoming models.Event, now time.Time) models.Event {
	updated := incoming
	updated.ID = existing.ID
	updated.UserID = existing.UserID
	updated.CalendarAccountID = existing.CalendarAccountID
	updated.CreatedAt = existing.CreatedAt
	updated.LastSyncedAt = now
	updated.Attendees = models.NormalizeAttendees(updated.Attendees)

	prevResponse := existing.OwnerResponse(acct.AccountEmail)
	newResponse := updated.OwnerResponse(acct.AccountEmail)
	updated.IsNewlyAccepted = prevResponse == models.ATTENDEE_PENDING && newResponse == models.ATTENDEE_ACCEPTED

	return updated
}
