package calendarsync

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/unical-app/unical/app/repository"
)

// syncLeaseTTL bounds how long a crashed worker can hold an account lock.
const syncLeaseTTL = 2 * time.Minute

// Locker provides per-account mutual exclusion across processes. The cache
// package implements it on Redis SETNX.
type Locker interface {
	Acquire(key string, ttl time.Duration) (bool, error)
	Release(key string) error
}

// RunRecorder counts completed sync runs. May be nil.
type RunRecorder interface {
	RecordSyncRun(accountID uint)
}

// Syncer drives a full synchronization pass for one account: lease, token
// check, provider fetch, reconcile, cursor persist. Overlapping passes for
// the same account are rejected, not queued.
type Syncer struct {
	accounts   repository.AccountRepository
	registry   *Registry
	creds      *CredentialStore
	reconciler *Reconciler
	locker     Locker
	recorder   RunRecorder
}

func NewSyncer(accounts repository.AccountRepository, registry *Registry, creds *CredentialStore, reconciler *Reconciler, locker Locker, recorder RunRecorder) *Syncer {
	return &Syncer{
		accounts:   accounts,
		registry:   registry,
		creds:      creds,
		reconciler: reconciler,
		locker:     locker,
		recorder:   recorder,
	}
}

func syncLockKey(accountID uint) string {
	return fmt.Sprintf("calendar:sync:%d", accountID)
}

// SyncAccount synchronizes one account with its provider. Returns
// ErrSyncInProgress when another pass holds the account lease. Accounts
// whose provider has no sync support are a no-op.
func (s *Syncer) SyncAccount(ctx context.Context, accountID uint) error {
	key := syncLockKey(accountID)
	acquired, err := s.locker.Acquire(key, syncLeaseTTL)
	if err != nil {
		return err
	}
	if !acquired {
		return fmt.Errorf("%w: account %d", ErrSyncInProgress, accountID)
	}
	defer func() {
		if err := s.locker.Release(key); err != nil {
			log.Errorf("[Sync] Failed to release lease for account %d: %v", accountID, err)
		}
	}()

	acct, err := s.accounts.GetByID(accountID)
	if err != nil {
		return err
	}
	if !acct.Syncable() {
		return nil
	}

	token, err := s.creds.EnsureValidToken(ctx, acct)
	if err != nil {
		return err
	}
	if token == "" {
		return nil
	}

	provider, err := s.registry.Get(acct.Provider)
	if err != nil {
		return err
	}

	cursor := ""
	if acct.LastSyncCursor != nil {
		cursor = *acct.LastSyncCursor
	}

	delta, err := provider.FetchDelta(ctx, acct, token, cursor)
	if err != nil {
		return err
	}
	if delta.FullResyncRequired {
		// expired cursor, drop it and take a fresh snapshot; one retry only
		log.Infof("[Sync] Cursor expired for account %d, falling back to snapshot", accountID)
		if err := s.accounts.UpdateCursor(accountID, nil); err != nil {
			return err
		}
		acct.LastSyncCursor = nil
		cursor = ""
		delta, err = provider.FetchDelta(ctx, acct, token, cursor)
		if err != nil {
			return err
		}
		if delta.FullResyncRequired {
			return fmt.Errorf("%w: provider rejected fresh snapshot for account %d", ErrProvider, accountID)
		}
	}

	stats, err := s.reconciler.Reconcile(acct, delta)
	if err != nil {
		return err
	}

	next := acct.LastSyncCursor
	if delta.NextCursor != "" {
		next = &delta.NextCursor
	}
	if err := s.accounts.UpdateCursor(accountID, next); err != nil {
		return err
	}

	if s.recorder != nil {
		s.recorder.RecordSyncRun(accountID)
	}

	log.Infof("[Sync] Account %d (%s): %d created, %d updated, %d deleted",
		accountID, acct.Provider, stats.Created, stats.Updated, stats.Deleted)

	return nil
}

// SyncUserAccounts runs a pass over every syncable account of one user.
// Per-account failures are logged and skipped so one broken account cannot
// starve the rest.
func (s *Syncer) SyncUserAccounts(ctx context.Context, userID uint) {
	accounts, err := s.accounts.GetByUserID(userID)
	if err != nil {
		log.Errorf("[Sync] Failed to load accounts for user %d: %v", userID, err)
		return
	}
	for _, acct := range accounts {
		if !acct.Syncable() {
			continue
		}
		if err := s.SyncAccount(ctx, acct.ID); err != nil {
			log.Errorf("[Sync] Account %d failed: %v", acct.ID, err)
		}
	}
}
