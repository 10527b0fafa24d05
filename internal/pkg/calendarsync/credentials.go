package calendarsync

import (
	"context"
	"fmt"
	"time"

	"github.com/unical-app/unical/app/models"
	"github.com/unical-app/unical/app/repository"
	"github.com/unical-app/unical/internal/pkg/security"
)

// CredentialStore hands out valid plaintext access tokens for provider
// calls, refreshing and re-persisting them when they expire. Tokens live
// encrypted in the accounts table; plaintext only ever exists in memory.
type CredentialStore struct {
	accounts repository.AccountRepository
	registry *Registry
	key      []byte
}

func NewCredentialStore(accounts repository.AccountRepository, registry *Registry, key []byte) *CredentialStore {
	return &CredentialStore{accounts: accounts, registry: registry, key: key}
}

// Seal encrypts a provider token for storage.
func (s *CredentialStore) Seal(token string) (string, error) {
	return security.EncryptToken(token, s.key)
}

// EnsureValidToken returns a usable access token for the account, refreshing
// it first when expired. The refreshed pair is persisted with a
// compare-and-swap so two concurrent refreshes cannot clobber each other; the
// loser adopts whatever the winner stored. On refresh failure the account
// row is left untouched and ErrCredential is returned.
//
// Accounts without any stored tokens (custom, apple) yield an empty token
// and no error.
func (s *CredentialStore) EnsureValidToken(ctx context.Context, acct *models.CalendarAccount) (string, error) {
	access, err := security.DecryptToken(acct.AccessToken, s.key)
	if err != nil {
		return "", err
	}

	if !acct.TokenExpired(time.Now()) {
		return access, nil
	}

	refresh, err := security.DecryptToken(acct.RefreshToken, s.key)
	if err != nil {
		return "", err
	}
	if refresh == "" {
		if access == "" {
			// provider-less account, nothing to validate
			return "", nil
		}
		return "", fmt.Errorf("%w: no refresh token stored", ErrCredential)
	}

	provider, err := s.registry.Get(acct.Provider)
	if err != nil {
		return "", err
	}

	tok, err := provider.RefreshToken(ctx, refresh)
	if err != nil {
		return "", err
	}

	// providers may omit the refresh token on renewal; keep the old one then
	newRefresh := tok.RefreshToken
	if newRefresh == "" {
		newRefresh = refresh
	}

	sealedAccess, err := security.EncryptToken(tok.AccessToken, s.key)
	if err != nil {
		return "", err
	}
	sealedRefresh, err := security.EncryptToken(newRefresh, s.key)
	if err != nil {
		return "", err
	}

	swapped, err := s.accounts.UpdateTokens(acct.ID, acct.AccessToken, sealedAccess, sealedRefresh, tok.Expiry)
	if err != nil {
		return "", err
	}
	if !swapped {
		// a concurrent refresh won the race; use its result
		fresh, err := s.accounts.GetByID(acct.ID)
		if err != nil {
			return "", err
		}
		*acct = *fresh
		return security.DecryptToken(acct.AccessToken, s.key)
	}

	acct.AccessToken = sealedAccess
	acct.RefreshToken = sealedRefresh
	acct.TokenExpiresAt = tok.Expiry

	return tok.AccessToken, nil
}
