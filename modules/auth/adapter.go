package auth

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// AuthPort defines the interface other modules use to authenticate callers.
type AuthPort interface {
	ValidateToken(ctx context.Context, token string) (delivery.Identity, error)
}

// AuthAdapter implements AuthPort using the service container.
type AuthAdapter struct {
	container mono.ServiceContainer
}

var _ AuthPort = (*AuthAdapter)(nil)

// NewAuthAdapter creates a new AuthAdapter.
func NewAuthAdapter(container mono.ServiceContainer) *AuthAdapter {
	if container == nil {
		panic("auth: ServiceContainer is nil")
	}
	return &AuthAdapter{container: container}
}

// ValidateToken validates an access token and returns its identity.
func (a *AuthAdapter) ValidateToken(ctx context.Context, token string) (delivery.Identity, error) {
	req := ValidateTokenRequest{Token: token}
	var resp ValidateTokenResponse

	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		ServiceValidateToken,
		json.Marshal,
		json.Unmarshal,
		&req,
		&resp,
	); err != nil {
		return delivery.Identity{}, fmt.Errorf("validate-token request failed: %w", err)
	}

	if !resp.Valid {
		if resp.Error == ErrExpiredToken.Error() {
			return delivery.Identity{}, ErrExpiredToken
		}
		return delivery.Identity{}, ErrInvalidToken
	}
	return resp.Identity, nil
}

// LocalVerifier implements AuthPort in-process, without a service hop.
type LocalVerifier struct {
	tokens *TokenManager
}

var _ AuthPort = (*LocalVerifier)(nil)

// NewLocalVerifier wraps a token manager as an AuthPort.
func NewLocalVerifier(tokens *TokenManager) *LocalVerifier {
	return &LocalVerifier{tokens: tokens}
}

// ValidateToken verifies the token locally.
func (v *LocalVerifier) ValidateToken(_ context.Context, token string) (delivery.Identity, error) {
	claims, err := v.tokens.Verify(token)
	if err != nil {
		return delivery.Identity{}, err
	}
	return claims.Identity(), nil
}
