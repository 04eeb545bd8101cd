package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
)

// Session errors.
var (
	ErrSendQueueFull   = errors.New("send queue full")
	ErrSessionClosed   = errors.New("session closed")
	ErrJoinForbidden   = errors.New("join forbidden")
	ErrMissingDelivery = errors.New("deliveryId is required")
)

// Sink is the transport side of one live connection. Send must not block:
// implementations queue the frame and return ErrSendQueueFull when the
// receiver cannot keep up. Close must be idempotent.
type Sink interface {
	ID() string
	Send(frame []byte) error
	Close() error
}

// AccessChecker decides whether an identity may observe a delivery room.
type AccessChecker interface {
	CheckAccess(ctx context.Context, identity delivery.Identity, deliveryID string) error
}

// AccessCheckerFunc adapts a function to AccessChecker.
type AccessCheckerFunc func(ctx context.Context, identity delivery.Identity, deliveryID string) error

// CheckAccess calls f.
func (f AccessCheckerFunc) CheckAccess(ctx context.Context, identity delivery.Identity, deliveryID string) error {
	return f(ctx, identity, deliveryID)
}

// Session is the server-side state of one live connection.
type Session struct {
	sink        Sink
	identity    delivery.Identity
	hub         *Hub
	connectedAt time.Time
	closed      atomic.Bool
}

// ID returns the connection id.
func (s *Session) ID() string { return s.sink.ID() }

// Identity returns the authenticated principal.
func (s *Session) Identity() delivery.Identity { return s.identity }

// ConnectedAt returns when the session was registered.
func (s *Session) ConnectedAt() time.Time { return s.connectedAt }

// Alive reports whether the session has not been disconnected.
func (s *Session) Alive() bool { return !s.closed.Load() }

// Rooms returns the delivery rooms the session currently belongs to.
func (s *Session) Rooms() []string { return s.hub.registry.RoomsOf(s.ID()) }

// Send queues a frame for this session only.
func (s *Session) Send(frame []byte) error {
	if !s.Alive() {
		return ErrSessionClosed
	}
	return s.sink.Send(frame)
}

// OnJoinRequest authorizes the session's identity for deliveryID and adds
// it to the room. Joining a room twice is a no-op.
func (s *Session) OnJoinRequest(ctx context.Context, deliveryID string) error {
	if !s.Alive() {
		return ErrSessionClosed
	}
	if deliveryID == "" {
		return ErrMissingDelivery
	}
	if s.hub.access != nil {
		if err := s.hub.access.CheckAccess(ctx, s.identity, deliveryID); err != nil {
			return fmt.Errorf("%w: %v", ErrJoinForbidden, err)
		}
	}

	if s.hub.registry.Join(s.ID(), deliveryID) {
		s.hub.logger.Debug("Session joined room",
			"conn_id", s.ID(), "user_id", s.identity.UserID, "delivery_id", deliveryID)
	}

	// A concurrent disconnect may have swept rooms before this join landed.
	if !s.Alive() {
		s.hub.registry.Leave(s.ID(), deliveryID)
		return ErrSessionClosed
	}
	return nil
}

// OnLeaveRequest removes the session from the room of deliveryID.
func (s *Session) OnLeaveRequest(deliveryID string) error {
	if deliveryID == "" {
		return ErrMissingDelivery
	}
	if s.hub.registry.Leave(s.ID(), deliveryID) {
		s.hub.logger.Debug("Session left room", "conn_id", s.ID(), "delivery_id", deliveryID)
	}
	return nil
}

// OnDisconnect removes the session from every room it joined, unregisters
// it and closes the sink. Safe to call more than once.
func (s *Session) OnDisconnect() {
	if !s.closed.CompareAndSwap(false, true) {
		return
	}
	rooms := s.hub.registry.LeaveAll(s.ID())
	s.hub.unregister(s.ID())
	_ = s.sink.Close()

	s.hub.logger.Info("Session disconnected",
		"conn_id", s.ID(),
		"user_id", s.identity.UserID,
		"rooms", len(rooms),
		"duration", time.Since(s.connectedAt).Round(time.Millisecond).String())
}
