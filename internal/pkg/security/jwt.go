package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/unical-app/unical/internal/pkg/env"
)

const tokenValidity = 24 * time.Hour

var ErrInvalidAuthToken = errors.New("security: invalid auth token")

// AuthClaims carries the authenticated user id inside the API bearer token.
type AuthClaims struct {
	jwt.RegisteredClaims
	UserID uint `json:"user_id"`
}

func jwtSecret() []byte {
	return []byte(env.GetEnv("JWT_SECRET", ""))
}

// GenerateAuthToken issues a signed bearer token for the given user.
func GenerateAuthToken(userID uint) (string, error) {
	secret := jwtSecret()
	if len(secret) == 0 {
		return "", errors.New("security: JWT_SECRET is not set")
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, AuthClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenValidity)),
		},
		UserID: userID,
	})

	return token.SignedString(secret)
}

// VerifyAuthToken parses a bearer token and returns the user id it carries.
func VerifyAuthToken(tokenString string) (uint, error) {
	claims := &AuthClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidAuthToken
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return 0, ErrInvalidAuthToken
	}
	if !token.Valid || claims.UserID == 0 {
		return 0, ErrInvalidAuthToken
	}

	return claims.UserID, nil
}
