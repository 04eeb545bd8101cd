package auth

import (
	"errors"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidToken is returned when the token is invalid.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when the token has expired.
	ErrExpiredToken = errors.New("token has expired")
)

// JWTConfig holds JWT configuration.
type JWTConfig struct {
	SecretKey string
	TokenTTL  time.Duration
	Issuer    string
}

// DefaultJWTConfig returns a development configuration.
func DefaultJWTConfig() JWTConfig {
	return JWTConfig{
		SecretKey: "change-me-in-production",
		TokenTTL:  24 * time.Hour,
		Issuer:    "smart-delivery",
	}
}

// Claims are the custom claims carried by access tokens.
type Claims struct {
	UserID string        `json:"user_id"`
	Role   delivery.Role `json:"role"`
	jwt.RegisteredClaims
}

// Identity returns the principal named by the claims.
func (c *Claims) Identity() delivery.Identity {
	return delivery.Identity{UserID: c.UserID, Role: c.Role}
}

// TokenManager issues and verifies HS256 access tokens.
type TokenManager struct {
	config JWTConfig
}

// NewTokenManager creates a TokenManager with the given configuration.
func NewTokenManager(config JWTConfig) *TokenManager {
	return &TokenManager{config: config}
}

// Issue signs a token for the given identity.
func (m *TokenManager) Issue(identity delivery.Identity) (string, error) {
	if identity.UserID == "" || !identity.Role.Valid() {
		return "", ErrInvalidToken
	}

	now := time.Now()
	claims := Claims{
		UserID: identity.UserID,
		Role:   identity.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    m.config.Issuer,
			Subject:   identity.UserID,
			ExpiresAt: jwt.NewNumericDate(now.Add(m.config.TokenTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.config.SecretKey))
}

// Verify validates the token and returns its claims.
func (m *TokenManager) Verify(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return []byte(m.config.SecretKey), nil
	}, jwt.WithIssuer(m.config.Issuer))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.UserID == "" || !claims.Role.Valid() {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// TokenTTL returns the configured token lifetime.
func (m *TokenManager) TokenTTL() time.Duration {
	return m.config.TokenTTL
}
