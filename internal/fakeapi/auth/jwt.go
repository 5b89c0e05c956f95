// Package auth mints and checks the HS256 tokens issued by the reference API.
package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenType tells access tokens and refresh tokens apart. A token is only
// accepted where its own type is expected.
type TokenType string

const (
	Access  TokenType = "access"
	Refresh TokenType = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims are the registered claims plus the owner, the token type and the
// access generation the token was minted under.
type Claims struct {
	jwt.RegisteredClaims
	UserID     string    `json:"user_id"`
	Type       TokenType `json:"token_type"`
	Generation int64     `json:"gen,omitempty"`
}

// GenerateToken signs a token of the given type for userID. Every token gets
// a fresh ID, so two tokens minted in the same second still differ.
func GenerateToken(userID string, typ TokenType, generation int64, secretKey []byte, validity time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(validity)),
		},
		UserID:     userID,
		Type:       typ,
		Generation: generation,
	})

	tokenString, err := token.SignedString(secretKey)
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken verifies tokenString and returns its claims when it is a valid,
// unexpired token of type want.
func ParseToken(tokenString string, want TokenType, secretKey []byte) (*Claims, error) {
	claims := &Claims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secretKey, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}

	if !token.Valid || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	if claims.Type != want {
		return nil, ErrWrongTokenType
	}

	return claims, nil
}
