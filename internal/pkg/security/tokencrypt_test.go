package security

import (
	"crypto/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testKey(t *testing.T) []byte {
	t.Helper()
	key := make([]byte, 32)
	_, err := rand.Read(key)
	require.NoError(t, err)
	return key
}

func TestEncryptDecryptToken(t *testing.T) {
	key := testKey(t)

	ciphertext, err := EncryptToken("ya29.a0AfH6-secret-token", key)
	require.NoError(t, err)
	assert.NotEqual(t, "ya29.a0AfH6-secret-token", ciphertext)

	plaintext, err := DecryptToken(ciphertext, key)
	require.NoError(t, err)
	assert.Equal(t, "ya29.a0AfH6-secret-token", plaintext)
}

func TestEncryptTokenEmpty(t *testing.T) {
	key := testKey(t)

	ciphertext, err := EncryptToken("", key)
	require.NoError(t, err)
	assert.Equal(t, "", ciphertext)

	plaintext, err := DecryptToken("", key)
	require.NoError(t, err)
	assert.Equal(t, "", plaintext)
}

func TestEncryptTokenUniqueNonce(t *testing.T) {
	key := testKey(t)

	first, err := EncryptToken("same-token", key)
	require.NoError(t, err)
	second, err := EncryptToken("same-token", key)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
}

func TestDecryptTokenTampered(t *testing.T) {
	key := testKey(t)

	tests := []struct {
		name       string
		ciphertext string
	}{
		{"Not base64", "%%%not-base64%%%"},
		{"Too short", "YWJj"},
		{"Wrong key material", mustEncrypt(t, "token", testKey(t))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecryptToken(tt.ciphertext, key)
			assert.ErrorIs(t, err, ErrInvalidCiphertext)
		})
	}
}

func mustEncrypt(t *testing.T, plaintext string, key []byte) string {
	t.Helper()
	ciphertext, err := EncryptToken(plaintext, key)
	require.NoError(t, err)
	return ciphertext
}
