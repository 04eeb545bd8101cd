package auth

import (
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
)

// ValidateTokenRequest is the request for validating a token.
type ValidateTokenRequest struct {
	Token string `json:"token"`
}

// ValidateTokenResponse is the response for token validation.
type ValidateTokenResponse struct {
	Valid     bool              `json:"valid"`
	Identity  delivery.Identity `json:"identity"`
	ExpiresAt time.Time         `json:"expires_at,omitempty"`
	Error     string            `json:"error,omitempty"`
}

// IssueTokenRequest is the request for signing a token.
type IssueTokenRequest struct {
	Identity delivery.Identity `json:"identity"`
}

// IssueTokenResponse carries a signed token.
type IssueTokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int64  `json:"expires_in"`
}
