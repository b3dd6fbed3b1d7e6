// Package security provides JWT token utilities
package security

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

var (
	// ErrInvalidToken covers malformed, mis-signed, and expired tokens.
	ErrInvalidToken = errors.New("invalid token")
	// ErrWrongAudience is returned when a token of one kind is presented
	// where another kind is expected.
	ErrWrongAudience = errors.New("token audience mismatch")
)

const (
	audienceShare = "share"
	audienceOps   = "ops"
)

// ShareClaims is the decoded payload of a share-link token.
type ShareClaims struct {
	SessionID string
	ModelID   string
	ExpiresAt time.Time
}

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, ErrInvalidToken
}

// GenerateShareToken creates a signed token granting read access to one
// forecast result. The token carries only identifiers, never data.
func GenerateShareToken(sessionID, modelID, jwtSecret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"aud":       audienceShare,
		"sessionId": sessionID,
		"modelId":   modelID,
		"iat":       now.Unix(),
		"exp":       now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ParseShareToken validates a share token and extracts its claims.
func ParseShareToken(tokenString, jwtSecret string) (*ShareClaims, error) {
	claims, err := ValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return nil, err
	}
	if aud, _ := claims["aud"].(string); aud != audienceShare {
		return nil, ErrWrongAudience
	}

	sessionID, _ := claims["sessionId"].(string)
	modelID, _ := claims["modelId"].(string)
	if sessionID == "" || modelID == "" {
		return nil, ErrInvalidToken
	}

	share := &ShareClaims{SessionID: sessionID, ModelID: modelID}
	if exp, ok := claims["exp"].(float64); ok {
		share.ExpiresAt = time.Unix(int64(exp), 0).UTC()
	}
	return share, nil
}

// GenerateOpsToken creates a short-lived token for the operations dashboard
// after a successful password check.
func GenerateOpsToken(jwtSecret string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	claims := jwt.MapClaims{
		"aud": audienceOps,
		"iat": now.Unix(),
		"exp": now.Add(ttl).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ValidateOpsToken checks a token presented to ops endpoints.
func ValidateOpsToken(tokenString, jwtSecret string) error {
	claims, err := ValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return err
	}
	if aud, _ := claims["aud"].(string); aud != audienceOps {
		return ErrWrongAudience
	}
	return nil
}
