// Package security provides JWT token utilities
package security

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// ValidateJWT validates a JWT token and returns the claims
func ValidateJWT(tokenString, jwtSecret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(jwtSecret), nil
	})
	if err != nil {
		return nil, err
	}
	if claims, ok := token.Claims.(jwt.MapClaims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.New("invalid token")
}

// GenerateRealtimeToken creates the short-lived token presented on the
// fallback broadcast channel handshake.
func GenerateRealtimeToken(sessionID, jwtSecret string) (string, error) {
	claims := jwt.MapClaims{
		"sessionId": sessionID,
		"scope":     "realtime",
		"iat":       time.Now().UTC().Unix(),
		"exp":       time.Now().UTC().Add(1 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// GenerateOperatorToken creates a bearer token for the ops surface after
// a successful password check.
func GenerateOperatorToken(jwtSecret string) (string, error) {
	claims := jwt.MapClaims{
		"role": "operator",
		"iat":  time.Now().UTC().Unix(),
		"exp":  time.Now().UTC().Add(24 * time.Hour).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(jwtSecret))
}

// ValidateOperatorToken checks a bearer token carries the operator role.
func ValidateOperatorToken(tokenString, jwtSecret string) error {
	claims, err := ValidateJWT(tokenString, jwtSecret)
	if err != nil {
		return err
	}
	if role, ok := claims["role"].(string); !ok || role != "operator" {
		return errors.New("missing operator role")
	}
	return nil
}
