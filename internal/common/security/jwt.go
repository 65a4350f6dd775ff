package security

import (
	"errors"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/golang-jwt/jwt/v5"
)

// TokenAuth signs and verifies draft-session tokens.
var TokenAuth *jwtauth.JWTAuth

var tokenTTL time.Duration

func InitDraftTokens(key []byte, ttl time.Duration) {
	TokenAuth = jwtauth.New("HS256", key, nil)
	tokenTTL = ttl
}

// IssueDraftToken returns a token bound to a single authoring session.
func IssueDraftToken(sessionID string) (string, error) {
	claims := jwt.MapClaims{
		"draft_id": sessionID,
		"exp":      time.Now().Add(tokenTTL).Unix(),
		"iat":      time.Now().Unix(),
	}
	_, tokenString, err := TokenAuth.Encode(claims)
	return tokenString, err
}

func DraftIDFromClaims(claims jwt.MapClaims) (string, error) {
	id, ok := claims["draft_id"].(string)
	if !ok || id == "" {
		return "", errors.New("draft_id claim is missing or not a string")
	}
	return id, nil
}
