package realtime

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/go-monolith/mono/pkg/types"
)

// Options tune routing behaviour.
type Options struct {
	// EchoToSender delivers a routed event back to the connection that
	// emitted it. Other connections of the same user always receive it.
	EchoToSender bool
	// RequireMembership drops events a connection routes into a room it has
	// not joined.
	RequireMembership bool
}

// Stats is a point-in-time view of the hub.
type Stats struct {
	Connections int    `json:"connections"`
	Rooms       int    `json:"rooms"`
	Memberships int    `json:"memberships"`
	Routed      uint64 `json:"routed"`
	Delivered   uint64 `json:"delivered"`
	Dropped     uint64 `json:"dropped"`
	SlowClosed  uint64 `json:"slow_closed"`
	Backend     string `json:"backend"`
}

// Hub owns the live sessions of this process, the room registry and the
// fan-out backend that carries routed frames to room members.
type Hub struct {
	registry *Registry
	backend  Backend
	access   AccessChecker
	logger   types.Logger
	opts     Options

	mu       sync.RWMutex
	sessions map[string]*Session // connID -> Session

	routed     atomic.Uint64
	delivered  atomic.Uint64
	dropped    atomic.Uint64
	slowClosed atomic.Uint64
}

// NewHub creates a hub. A nil backend defaults to a LocalBackend; a nil
// access checker admits every join.
func NewHub(backend Backend, access AccessChecker, logger types.Logger, opts Options) *Hub {
	if backend == nil {
		backend = NewLocalBackend()
	}
	return &Hub{
		registry: NewRegistry(),
		backend:  backend,
		access:   access,
		logger:   logger,
		opts:     opts,
		sessions: make(map[string]*Session),
	}
}

// SetAccessChecker replaces the join authorizer. Call before serving.
func (h *Hub) SetAccessChecker(access AccessChecker) {
	h.access = access
}

// Registry exposes the room registry.
func (h *Hub) Registry() *Registry { return h.registry }

// Start attaches the hub to its fan-out backend.
func (h *Hub) Start(ctx context.Context) error {
	return h.backend.Start(ctx, h.Deliver)
}

// Connect registers a new live connection.
func (h *Hub) Connect(sink Sink, identity delivery.Identity) *Session {
	s := &Session{
		sink:        sink,
		identity:    identity,
		hub:         h,
		connectedAt: time.Now(),
	}

	h.mu.Lock()
	h.sessions[sink.ID()] = s
	h.mu.Unlock()

	h.logger.Info("Session connected", "conn_id", sink.ID(), "user_id", identity.UserID, "role", string(identity.Role))
	return s
}

// Session returns the live session with the given connection id.
func (h *Hub) Session(connID string) (*Session, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s, ok := h.sessions[connID]
	return s, ok
}

// Disconnect tears down a session by connection id. Unknown ids are ignored.
func (h *Hub) Disconnect(connID string) {
	if s, ok := h.Session(connID); ok {
		s.OnDisconnect()
	}
}

func (h *Hub) unregister(connID string) {
	h.mu.Lock()
	delete(h.sessions, connID)
	h.mu.Unlock()
}

// Deliver writes a framed event to every local member of the room except
// origin (unless echo is enabled). A receiver whose queue is full is
// disconnected; the remaining receivers are unaffected.
func (h *Hub) Deliver(deliveryID, origin string, frame []byte) {
	for _, connID := range h.registry.MembersOf(deliveryID) {
		if connID == origin && !h.opts.EchoToSender {
			continue
		}
		s, ok := h.Session(connID)
		if !ok {
			continue
		}
		if err := s.Send(frame); err != nil {
			h.slowClosed.Add(1)
			h.logger.Warn("Disconnecting receiver",
				"conn_id", connID, "delivery_id", deliveryID, "error", err.Error())
			s.OnDisconnect()
			continue
		}
		h.delivered.Add(1)
	}
}

// ConnectionCount returns the number of live sessions.
func (h *Hub) ConnectionCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.sessions)
}

// Stats returns current counters.
func (h *Hub) Stats() Stats {
	rooms, members := h.registry.Stats()
	return Stats{
		Connections: h.ConnectionCount(),
		Rooms:       rooms,
		Memberships: members,
		Routed:      h.routed.Load(),
		Delivered:   h.delivered.Load(),
		Dropped:     h.dropped.Load(),
		SlowClosed:  h.slowClosed.Load(),
		Backend:     h.backend.Name(),
	}
}

// Close disconnects every session and releases the backend.
func (h *Hub) Close() error {
	h.mu.RLock()
	sessions := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		sessions = append(sessions, s)
	}
	h.mu.RUnlock()

	for _, s := range sessions {
		s.OnDisconnect()
	}
	return h.backend.Close()
}
