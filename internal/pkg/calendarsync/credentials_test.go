package calendarsync

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"

	"github.com/unical-app/unical/app/models"
	"github.com/unical-app/unical/internal/pkg/security"
)

func credKey() []byte {
	return bytes.Repeat([]byte{0x2a}, 32)
}

func sealed(t *testing.T, key []byte, plaintext string) string {
	t.Helper()
	out, err := security.EncryptToken(plaintext, key)
	require.NoError(t, err)
	return out
}

func credStoreSetup(t *testing.T, provider Provider) (*CredentialStore, *fakeAccountRepo, []byte) {
	t.Helper()
	key := credKey()
	accounts := newFakeAccountRepo()
	registry := NewRegistry()
	registry.Register(models.PROVIDER_GOOGLE, provider)
	return NewCredentialStore(accounts, registry, key), accounts, key
}

func TestEnsureValidTokenSkipsRefreshWhenLive(t *testing.T) {
	provider := &fakeProvider{}
	store, accounts, key := credStoreSetup(t, provider)

	acct := googleAccount()
	acct.AccessToken = sealed(t, key, "live-access")
	acct.TokenExpiresAt = time.Now().Add(time.Hour)
	require.NoError(t, accounts.Create(acct))

	token, err := store.EnsureValidToken(context.Background(), acct)
	require.NoError(t, err)
	assert.Equal(t, "live-access", token)
	assert.Equal(t, 0, provider.refreshCalls)
}

func TestEnsureValidTokenRefreshesExpired(t *testing.T) {
	provider := &fakeProvider{
		refreshed: &oauth2.Token{AccessToken: "new-access", Expiry: time.Now().Add(time.Hour)},
	}
	store, accounts, key := credStoreSetup(t, provider)

	acct := googleAccount()
	acct.AccessToken = sealed(t, key, "stale-access")
	acct.RefreshToken = sealed(t, key, "the-refresh")
	acct.TokenExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, accounts.Create(acct))

	token, err := store.EnsureValidToken(context.Background(), acct)
	require.NoError(t, err)
	assert.Equal(t, "new-access", token)
	assert.Equal(t, 1, provider.refreshCalls)

	stored, err := accounts.GetByID(acct.ID)
	require.NoError(t, err)

	gotAccess, err := security.DecryptToken(stored.AccessToken, key)
	require.NoError(t, err)
	assert.Equal(t, "new-access", gotAccess)

	// provider sent no new refresh token, the old one must survive
	gotRefresh, err := security.DecryptToken(stored.RefreshToken, key)
	require.NoError(t, err)
	assert.Equal(t, "the-refresh", gotRefresh)
	assert.False(t, stored.TokenExpired(time.Now()))
}

func TestEnsureValidTokenNoRefreshToken(t *testing.T) {
	provider := &fakeProvider{}
	store, accounts, key := credStoreSetup(t, provider)

	acct := googleAccount()
	acct.AccessToken = sealed(t, key, "stale-access")
	acct.TokenExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, accounts.Create(acct))

	_, err := store.EnsureValidToken(context.Background(), acct)
	assert.ErrorIs(t, err, ErrCredential)
}

func TestEnsureValidTokenTokenlessAccount(t *testing.T) {
	provider := &fakeProvider{}
	store, accounts, _ := credStoreSetup(t, provider)

	acct := googleAccount()
	acct.Provider = models.PROVIDER_CUSTOM
	require.NoError(t, accounts.Create(acct))

	token, err := store.EnsureValidToken(context.Background(), acct)
	require.NoError(t, err)
	assert.Empty(t, token)
}

func TestEnsureValidTokenLostRaceAdoptsWinner(t *testing.T) {
	provider := &fakeProvider{}
	store, accounts, key := credStoreSetup(t, provider)

	acct := googleAccount()
	acct.AccessToken = sealed(t, key, "stale-access")
	acct.RefreshToken = sealed(t, key, "the-refresh")
	acct.TokenExpiresAt = time.Now().Add(-time.Minute)
	require.NoError(t, accounts.Create(acct))

	// stale copy, as a second worker would hold
	stale, err := accounts.GetByID(acct.ID)
	require.NoError(t, err)

	// a concurrent refresh lands first
	winnerAccess := sealed(t, key, "winner-access")
	winnerRefresh := sealed(t, key, "winner-refresh")
	swapped, err := accounts.UpdateTokens(acct.ID, acct.AccessToken, winnerAccess, winnerRefresh, time.Now().Add(time.Hour))
	require.NoError(t, err)
	require.True(t, swapped)

	token, err := store.EnsureValidToken(context.Background(), stale)
	require.NoError(t, err)
	assert.Equal(t, "winner-access", token)
}
