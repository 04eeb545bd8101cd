package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/google/uuid"
)

const maxContentLength = 2000

// StatusChange describes a persisted status transition.
type StatusChange struct {
	Delivery *delivery.Delivery
	Previous delivery.Status
}

// Service applies the delivery access rules on top of the repository.
type Service struct {
	repo *Repository
}

// NewService creates a new store service.
func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

// authorize loads the delivery and applies the shared read rule.
func (s *Service) authorize(ctx context.Context, caller delivery.Identity, deliveryID string) (*Delivery, error) {
	if deliveryID == "" {
		return nil, invalid("deliveryId is required")
	}
	d, err := s.repo.FindDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	if !d.toDomain().CanAccess(caller) {
		return nil, ErrForbidden
	}
	return d, nil
}

// CheckAccess returns nil when caller may observe the delivery.
func (s *Service) CheckAccess(ctx context.Context, caller delivery.Identity, deliveryID string) error {
	_, err := s.authorize(ctx, caller, deliveryID)
	return err
}

// CreateDelivery opens a new pending delivery owned by the caller.
func (s *Service) CreateDelivery(ctx context.Context, caller delivery.Identity, pickup, dropoff string) (*delivery.Delivery, error) {
	if caller.UserID == "" {
		return nil, ErrForbidden
	}
	if caller.Role == delivery.RoleAgent {
		return nil, fmt.Errorf("%w: agents cannot request deliveries", ErrForbidden)
	}
	pickup, dropoff = strings.TrimSpace(pickup), strings.TrimSpace(dropoff)
	if pickup == "" || dropoff == "" {
		return nil, invalid("pickup and dropoff are required")
	}

	d := &Delivery{
		ID:       uuid.New().String(),
		SenderID: caller.UserID,
		Pickup:   pickup,
		Dropoff:  dropoff,
		Status:   string(delivery.StatusPending),
	}
	if err := s.repo.CreateDelivery(ctx, d); err != nil {
		return nil, err
	}
	return d.toDomain(), nil
}

// GetDelivery returns a delivery the caller may access.
func (s *Service) GetDelivery(ctx context.Context, caller delivery.Identity, deliveryID string) (*delivery.Delivery, error) {
	d, err := s.authorize(ctx, caller, deliveryID)
	if err != nil {
		return nil, err
	}
	return d.toDomain(), nil
}

// AssignAgent attaches an agent to a pending delivery and moves it to
// assigned. Administrators may assign anyone; agents may only claim it for
// themselves.
func (s *Service) AssignAgent(ctx context.Context, caller delivery.Identity, deliveryID, agentID string) (*StatusChange, error) {
	if agentID == "" {
		return nil, invalid("agentId is required")
	}
	if !caller.IsAdmin() && !(caller.Role == delivery.RoleAgent && caller.UserID == agentID) {
		return nil, ErrForbidden
	}

	d, err := s.repo.FindDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	previous := delivery.Status(d.Status)
	if !previous.CanTransition(delivery.StatusAssigned) {
		return nil, fmt.Errorf("%w: %s -> %s", delivery.ErrInvalidTransition, previous, delivery.StatusAssigned)
	}

	if err := s.repo.UpdateDelivery(ctx, d.ID, d.Status, map[string]any{
		"agent_id": agentID,
		"status":   string(delivery.StatusAssigned),
	}); err != nil {
		return nil, err
	}
	return s.reload(ctx, d.ID, previous)
}

// UpdateStatus moves a delivery along its lifecycle. The assigned agent and
// administrators drive it; the sender may only cancel.
func (s *Service) UpdateStatus(ctx context.Context, caller delivery.Identity, deliveryID string, next delivery.Status) (*StatusChange, error) {
	if !next.Valid() {
		return nil, invalid("unknown status %q", next)
	}

	d, err := s.authorize(ctx, caller, deliveryID)
	if err != nil {
		return nil, err
	}
	isAgent := d.AgentID != "" && caller.UserID == d.AgentID
	isSender := caller.UserID == d.SenderID
	switch {
	case caller.IsAdmin(), isAgent:
	case isSender && next == delivery.StatusCancelled:
	default:
		return nil, ErrForbidden
	}

	previous := delivery.Status(d.Status)
	if !previous.CanTransition(next) {
		return nil, fmt.Errorf("%w: %s -> %s", delivery.ErrInvalidTransition, previous, next)
	}
	if next == delivery.StatusAssigned {
		return nil, invalid("use agent assignment to move a delivery to assigned")
	}

	if err := s.repo.UpdateDelivery(ctx, d.ID, d.Status, map[string]any{"status": string(next)}); err != nil {
		return nil, err
	}
	return s.reload(ctx, d.ID, previous)
}

func (s *Service) reload(ctx context.Context, deliveryID string, previous delivery.Status) (*StatusChange, error) {
	d, err := s.repo.FindDelivery(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	return &StatusChange{Delivery: d.toDomain(), Previous: previous}, nil
}

// CreateMessage persists a chat message. The sender must be the caller
// unless the caller is an administrator.
func (s *Service) CreateMessage(ctx context.Context, caller delivery.Identity, deliveryID, senderID, content string) (*delivery.Message, error) {
	if strings.TrimSpace(content) == "" {
		return nil, invalid("content is required")
	}
	if len(content) > maxContentLength {
		return nil, invalid("content exceeds %d bytes", maxContentLength)
	}
	if senderID == "" {
		senderID = caller.UserID
	}
	if senderID != caller.UserID && !caller.IsAdmin() {
		return nil, ErrForbidden
	}
	if _, err := s.authorize(ctx, caller, deliveryID); err != nil {
		return nil, err
	}

	m := &Message{
		ID:         uuid.New().String(),
		DeliveryID: deliveryID,
		SenderID:   senderID,
		Content:    content,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateMessage(ctx, m); err != nil {
		return nil, err
	}
	out := m.toDomain()
	return &out, nil
}

// ListMessages returns a delivery's chat history, oldest first.
func (s *Service) ListMessages(ctx context.Context, caller delivery.Identity, deliveryID string) ([]delivery.Message, error) {
	if _, err := s.authorize(ctx, caller, deliveryID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListMessages(ctx, deliveryID)
	if err != nil {
		return nil, err
	}
	out := make([]delivery.Message, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDomain())
	}
	return out, nil
}

// CreateLocation records a position sample from the assigned agent.
func (s *Service) CreateLocation(ctx context.Context, caller delivery.Identity, deliveryID string, lat, lng float64) (*delivery.Location, error) {
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return nil, invalid("coordinates out of range")
	}
	d, err := s.authorize(ctx, caller, deliveryID)
	if err != nil {
		return nil, err
	}
	if !d.toDomain().CanWriteLocation(caller) {
		return nil, ErrForbidden
	}

	agentID := d.AgentID
	if agentID == "" {
		agentID = caller.UserID
	}
	l := &Location{
		ID:         uuid.New().String(),
		DeliveryID: deliveryID,
		AgentID:    agentID,
		Latitude:   lat,
		Longitude:  lng,
		CreatedAt:  time.Now().UTC(),
	}
	if err := s.repo.CreateLocation(ctx, l); err != nil {
		return nil, err
	}
	out := l.toDomain()
	return &out, nil
}

// ListLocations returns a delivery's location samples, newest first.
func (s *Service) ListLocations(ctx context.Context, caller delivery.Identity, deliveryID string, limit int) ([]delivery.Location, error) {
	if _, err := s.authorize(ctx, caller, deliveryID); err != nil {
		return nil, err
	}
	records, err := s.repo.ListLocations(ctx, deliveryID, limit)
	if err != nil {
		return nil, err
	}
	out := make([]delivery.Location, 0, len(records))
	for _, r := range records {
		out = append(out, r.toDomain())
	}
	return out, nil
}
