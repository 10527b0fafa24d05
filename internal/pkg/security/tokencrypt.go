package security

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"encoding/hex"
	"errors"
	"fmt"

	"github.com/unical-app/unical/internal/pkg/env"
)

// Provider tokens are sealed with AES-256-GCM before they hit the database.
// The ciphertext layout is nonce || sealed, base64 encoded as one string.

var ErrInvalidCiphertext = errors.New("security: invalid token ciphertext")

// EncryptionKey loads the 32-byte key from TOKEN_ENCRYPTION_KEY (hex encoded).
func EncryptionKey() ([]byte, error) {
	raw := env.GetEnv("TOKEN_ENCRYPTION_KEY", "")
	if raw == "" {
		return nil, errors.New("security: TOKEN_ENCRYPTION_KEY is not set")
	}
	key, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("security: TOKEN_ENCRYPTION_KEY is not valid hex: %w", err)
	}
	if len(key) != 32 {
		return nil, fmt.Errorf("security: TOKEN_ENCRYPTION_KEY must be 32 bytes, got %d", len(key))
	}
	return key, nil
}

// EncryptToken seals a provider token for storage. An empty token encrypts to
// an empty string so provider-less accounts stay representable.
func EncryptToken(plaintext string, key []byte) (string, error) {
	if plaintext == "" {
		return "", nil
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, aesgcm.NonceSize())
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aesgcm.Seal(nil, nonce, []byte(plaintext), nil)
	return base64.StdEncoding.EncodeToString(append(nonce, sealed...)), nil
}

// DecryptToken opens a token sealed by EncryptToken.
func DecryptToken(encoded string, key []byte) (string, error) {
	if encoded == "" {
		return "", nil
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", ErrInvalidCiphertext
	}

	block, err := aes.NewCipher(key)
	if err != nil {
		return "", err
	}
	aesgcm, err := cipher.NewGCM(block)
	if err != nil {
		return "", err
	}

	if len(data) < aesgcm.NonceSize() {
		return "", ErrInvalidCiphertext
	}
	nonce, sealed := data[:aesgcm.NonceSize()], data[aesgcm.NonceSize():]

	plaintext, err := aesgcm.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrInvalidCiphertext
	}
	return string(plaintext), nil
}
