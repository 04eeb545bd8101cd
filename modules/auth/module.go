package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// Service names registered by the auth module.
const (
	ServiceValidateToken = "validate-token"
	ServiceIssueToken    = "issue-token"
)

// Module verifies and issues access tokens for the other modules.
type Module struct {
	tokens *TokenManager
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.ServiceProviderModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates a new auth module.
func NewModule(config JWTConfig) *Module {
	return &Module{tokens: NewTokenManager(config)}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "auth"
}

// Tokens exposes the token manager.
func (m *Module) Tokens() *TokenManager {
	return m.tokens
}

// Start starts the module.
func (m *Module) Start(_ context.Context) error {
	log.Printf("[auth] Module started (token ttl: %s)", m.tokens.TokenTTL())
	return nil
}

// Stop stops the module.
func (m *Module) Stop(_ context.Context) error {
	log.Println("[auth] Module stopped")
	return nil
}

// Health returns the health status.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceValidateToken, json.Unmarshal, json.Marshal, m.validateToken,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceValidateToken, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceIssueToken, json.Unmarshal, json.Marshal, m.issueToken,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceIssueToken, err)
	}

	log.Println("[auth] Registered services: services.auth.{validate-token,issue-token}")
	return nil
}

// validateToken reports failures in the response so callers can tell an
// invalid token from a transport error.
func (m *Module) validateToken(_ context.Context, req ValidateTokenRequest, _ *mono.Msg) (ValidateTokenResponse, error) {
	claims, err := m.tokens.Verify(req.Token)
	if err != nil {
		return ValidateTokenResponse{Valid: false, Error: err.Error()}, nil
	}
	return ValidateTokenResponse{
		Valid:     true,
		Identity:  claims.Identity(),
		ExpiresAt: claims.ExpiresAt.Time,
	}, nil
}

func (m *Module) issueToken(_ context.Context, req IssueTokenRequest, _ *mono.Msg) (IssueTokenResponse, error) {
	token, err := m.tokens.Issue(req.Identity)
	if err != nil {
		return IssueTokenResponse{}, fmt.Errorf("failed to issue token: %w", err)
	}
	return IssueTokenResponse{
		Token:     token,
		ExpiresIn: int64(m.tokens.TokenTTL().Seconds()),
	}, nil
}
