package calendarsync

import (
	"context"
	"sync"
	"time"

	"golang.org/x/oauth2"
	"gorm.io/gorm"

	"github.com/unical-app/unical/app/models"
)

// fakeAccountRepo is an in-memory AccountRepository.
type fakeAccountRepo struct {
	mu       sync.Mutex
	accounts map[uint]*models.CalendarAccount
	nextID   uint
}

func newFakeAccountRepo() *fakeAccountRepo {
	return &fakeAccountRepo{accounts: make(map[uint]*models.CalendarAccount), nextID: 1}
}

func (r *fakeAccountRepo) Create(acct *models.CalendarAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct.ID = r.nextID
	r.nextID++
	cp := *acct
	r.accounts[acct.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) GetByID(id uint) (*models.CalendarAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *acct
	return &cp, nil
}

func (r *fakeAccountRepo) GetByUserID(userID uint) ([]models.CalendarAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CalendarAccount
	for _, acct := range r.accounts {
		if acct.UserID == userID {
			out = append(out, *acct)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) GetSyncable() ([]models.CalendarAccount, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.CalendarAccount
	for _, acct := range r.accounts {
		if acct.Syncable() {
			out = append(out, *acct)
		}
	}
	return out, nil
}

func (r *fakeAccountRepo) Upsert(acct *models.CalendarAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.accounts {
		if existing.UserID == acct.UserID && existing.Provider == acct.Provider && existing.AccountEmail == acct.AccountEmail {
			acct.ID = existing.ID
			cp := *acct
			cp.LastSyncCursor = existing.LastSyncCursor
			r.accounts[existing.ID] = &cp
			return nil
		}
	}
	acct.ID = r.nextID
	r.nextID++
	cp := *acct
	r.accounts[acct.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) Update(acct *models.CalendarAccount) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.accounts[acct.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *acct
	r.accounts[acct.ID] = &cp
	return nil
}

func (r *fakeAccountRepo) UpdateTokens(id uint, previousAccessToken, accessToken, refreshToken string, expiresAt time.Time) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[id]
	if !ok || acct.AccessToken != previousAccessToken {
		return false, nil
	}
	acct.AccessToken = accessToken
	acct.RefreshToken = refreshToken
	acct.TokenExpiresAt = expiresAt
	return true, nil
}

func (r *fakeAccountRepo) UpdateCursor(id uint, cursor *string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	acct, ok := r.accounts[id]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	acct.LastSyncCursor = cursor
	now := time.Now()
	acct.LastSyncedAt = &now
	return nil
}

// fakeEventRepo is an in-memory EventRepository.
type fakeEventRepo struct {
	mu     sync.Mutex
	events map[uint]*models.Event
	nextID uint
}

func newFakeEventRepo() *fakeEventRepo {
	return &fakeEventRepo{events: make(map[uint]*models.Event), nextID: 1}
}

func (r *fakeEventRepo) Create(event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	event.ID = r.nextID
	r.nextID++
	cp := *event
	r.events[event.ID] = &cp
	return nil
}

func (r *fakeEventRepo) GetByID(id uint) (*models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ev, ok := r.events[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	cp := *ev
	return &cp, nil
}

func (r *fakeEventRepo) GetByAccountID(accountID uint) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, ev := range r.events {
		if ev.CalendarAccountID == accountID {
			out = append(out, *ev)
		}
	}
	return out, nil
}

func (r *fakeEventRepo) GetByUserID(userID uint, from, to *time.Time) ([]models.Event, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Event
	for _, ev := range r.events {
		if ev.UserID != userID {
			continue
		}
		if from != nil && ev.EndTime.Before(*from) {
			continue
		}
		if to != nil && !ev.StartTime.Before(*to) {
			continue
		}
		out = append(out, *ev)
	}
	return out, nil
}

func (r *fakeEventRepo) Update(event *models.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.events[event.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	cp := *event
	r.events[event.ID] = &cp
	return nil
}

func (r *fakeEventRepo) Delete(id uint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.events, id)
	return nil
}

func (r *fakeEventRepo) DeleteByExternalIDs(accountID uint, externalIDs []string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make(map[string]bool, len(externalIDs))
	for _, id := range externalIDs {
		ids[id] = true
	}
	var n int64
	for key, ev := range r.events {
		if ev.CalendarAccountID == accountID && ev.ExternalEventID != nil && ids[*ev.ExternalEventID] {
			delete(r.events, key)
			n++
		}
	}
	return n, nil
}

// fakeProvider is a programmable Provider. Deltas are consumed in order, so
// a cursor-invalidation retry can be scripted as two queued responses.
type fakeProvider struct {
	mu     sync.Mutex
	deltas []*Delta

	fetchCalls   int
	fetchCursors []string

	createdID   string
	createCalls int
	updateCalls int
	deleteCalls int
	deleteErr   error

	respondCalls  int
	respondStatus string

	refreshed    *oauth2.Token
	refgetErr    error
	refreshCalls int
}

func (p *fakeProvider) FetchDelta(ctx context.Context, acct *models.CalendarAccount, accessToken, cursor string) (*Delta, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.fetchCalls++
	p.fetchCursors = append(p.fetchCursors, cursor)
	if len(p.deltas) == 0 {
		return &Delta{Snapshot: cursor == ""}, nil
	}
	d := p.deltas[0]
	p.deltas = p.deltas[1:]
	return d, nil
}

func (p *fakeProvider) CreateEvent(ctx context.Context, acct *models.CalendarAccount, accessToken string, event *models.Event) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.createCalls++
	return p.createdID, nil
}

func (p *fakeProvider) UpdateEvent(ctx context.Context, acct *models.CalendarAccount, accessToken string, event *models.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.updateCalls++
	return nil
}

func (p *fakeProvider) DeleteEvent(ctx context.Context, acct *models.CalendarAccount, accessToken, externalEventID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deleteCalls++
	return p.deleteErr
}

func (p *fakeProvider) SetAttendeeResponse(ctx context.Context, acct *models.CalendarAccount, accessToken, externalEventID, attendeeEmail, status string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.respondCalls++
	p.respondStatus = status
	return nil
}

func (p *fakeProvider) RefreshToken(ctx context.Context, refreshToken string) (*oauth2.Token, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refreshCalls++
	if p.refgetErr != nil {
		return nil, p.refgetErr
	}
	if p.refreshed != nil {
		return p.refreshed, nil
	}
	return &oauth2.Token{AccessToken: "refreshed-access", Expiry: time.Now().Add(time.Hour)}, nil
}

// fakeLocker grants every lease unless told otherwise.
type fakeLocker struct {
	mu       sync.Mutex
	denied   map[string]bool
	held     map[string]bool
	acquires int
	releases int
}

func newFakeLocker() *fakeLocker {
	return &fakeLocker{denied: make(map[string]bool), held: make(map[string]bool)}
}

func (l *fakeLocker) Acquire(key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.acquires++
	if l.denied[key] || l.held[key] {
		return false, nil
	}
	l.held[key] = true
	return true, nil
}

func (l *fakeLocker) Release(key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.releases++
	delete(l.held, key)
	return nil
}
