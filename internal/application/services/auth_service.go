// Package services provides application-level orchestration services
package services

import (
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/observability/logging"
	"github.com/caseboardhq/caseboard-go/internal/infrastructure/security"
	"github.com/caseboardhq/caseboard-go/pkg/config"
	"golang.org/x/crypto/bcrypt"
)

// AuthService handles operator authentication for the ops surface
type AuthService struct {
	logger *logging.ChanneledLogger
}

// NewAuthService creates a new authentication service
func NewAuthService(logger *logging.ChanneledLogger) *AuthService {
	return &AuthService{logger: logger}
}

// AuthResult holds authentication result data
type AuthResult struct {
	Token   string `json:"token"`
	Role    string `json:"role"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// Login checks the operator password and mints a bearer token.
func (s *AuthService) Login(password string) *AuthResult {
	if config.OperatorPasswordHash == "" {
		s.logger.System().Warn("Operator login attempted with no password configured")
		return &AuthResult{Success: false, Error: "operator access not configured"}
	}

	if err := bcrypt.CompareHashAndPassword([]byte(config.OperatorPasswordHash), []byte(password)); err != nil {
		s.logger.System().Warn("Operator login failed")
		return &AuthResult{Success: false, Error: "invalid credentials"}
	}

	token, err := security.GenerateOperatorToken(config.JWTSecret)
	if err != nil {
		s.logger.System().Error("Failed to sign operator token", "error", err.Error())
		return &AuthResult{Success: false, Error: "token generation failed"}
	}

	s.logger.System().Info("Operator authenticated")
	return &AuthResult{Token: token, Role: "operator", Success: true}
}

// ValidateToken checks an ops bearer token.
func (s *AuthService) ValidateToken(token string) bool {
	return security.ValidateOperatorToken(token, config.JWTSecret) == nil
}

// RealtimeToken mints the token presented on the fallback channel handshake.
func (s *AuthService) RealtimeToken(sessionID string) (string, error) {
	return security.GenerateRealtimeToken(sessionID, config.JWTSecret)
}

// HashPassword produces a bcrypt hash suitable for OPERATOR_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
