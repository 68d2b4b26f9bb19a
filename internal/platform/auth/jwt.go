package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Role is the coarse-grained role carried in an access token.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleProvider Role = "provider"
	RoleAgent    Role = "agent"
	RoleClient   Role = "client"
)

// IsValid returns true if the role is recognized.
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleProvider, RoleAgent, RoleClient:
		return true
	}
	return false
}

// Claims are the JWT claims issued by the marketplace identity service.
type Claims struct {
	UserID     string `json:"uid"`
	Role       Role   `json:"role"`
	ProviderID string `json:"provider_id,omitempty"`
	jwt.RegisteredClaims
}

// JWTManager signs and verifies HS256 tokens.
type JWTManager struct {
	secret          []byte
	accessTokenTTL  time.Duration
	refreshTokenTTL time.Duration
}

// NewJWTManager creates a new JWTManager.
func NewJWTManager(secret string, accessTokenTTL, refreshTokenTTL time.Duration) *JWTManager {
	return &JWTManager{
		secret:          []byte(secret),
		accessTokenTTL:  accessTokenTTL,
		refreshTokenTTL: refreshTokenTTL,
	}
}

// GenerateAccessToken issues an access token for the given principal.
// providerID may be nil for non-provider roles.
func (m *JWTManager) GenerateAccessToken(userID uuid.UUID, role Role, providerID *uuid.UUID) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID.String(),
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTokenTTL)),
			ID:        uuid.NewString(),
		},
	}
	if providerID != nil {
		claims.ProviderID = providerID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning its claims.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return m.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return nil, errors.New("invalid token")
	}
	if !claims.Role.IsValid() {
		return nil, fmt.Errorf("invalid role: %s", claims.Role)
	}
	return claims, nil
}
