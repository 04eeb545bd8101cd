package api

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/DevHoji/smart-Delivery-sub001/modules/store"
	"github.com/go-monolith/mono/pkg/types"
	"github.com/google/uuid"
)

// mockLogger implements types.Logger for testing
type mockLogger struct{}

func (m *mockLogger) Debug(_ string, _ ...any) {}
func (m *mockLogger) Info(_ string, _ ...any) {}
func (m *mockLogger) Warn(_ string, _ ...any) {}
func (m *mockLogger) Error(_ string, _ ...any) {}
func (m *mockLogger) With(_ ...any) types.Logger { return m }
func (m *mockLogger) WithError(_ error) types.Logger { return m }
func (m *mockLogger) WithModule(_ string) types.Logger { return m }

// fakeStore is an in-memory store.StorePort applying the same access rules
// as the real store.
type fakeStore struct {
	mu         sync.Mutex
	deliveries map[string]*delivery.Delivery
	messages   map[string][]delivery.Message
	locations  map[string][]delivery.Location
}

var _ store.StorePort = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		deliveries: make(map[string]*delivery.Delivery),
		messages:   make(map[string][]delivery.Message),
		locations:  make(map[string][]delivery.Location),
	}
}

func (s *fakeStore) add(d delivery.Delivery) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.deliveries[d.ID] = &d
}

func (s *fakeStore) lookup(caller delivery.Identity, id string) (*delivery.Delivery, error) {
	d, ok := s.deliveries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !d.CanAccess(caller) {
		return nil, store.ErrForbidden
	}
	return d, nil
}

func (s *fakeStore) CreateDelivery(_ context.Context, caller delivery.Identity, pickup, dropoff string) (*delivery.Delivery, error) {
	d := delivery.Delivery{
		ID:        uuid.New().String(),
		SenderID:  caller.UserID,
		Pickup:    pickup,
		Dropoff:   dropoff,
		Status:    delivery.StatusPending,
		CreatedAt: time.Now(),
	}
	s.add(d)
	return &d, nil
}

func (s *fakeStore) GetDelivery(_ context.Context, caller delivery.Identity, id string) (*delivery.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.lookup(caller, id)
	if err != nil {
		return nil, err
	}
	out := *d
	return &out, nil
}

func (s *fakeStore) AssignAgent(_ context.Context, caller delivery.Identity, id, agentID string) (*delivery.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, ok := s.deliveries[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	if !caller.IsAdmin() && caller.UserID != agentID {
		return nil, store.ErrForbidden
	}
	d.AgentID = agentID
	d.Status = delivery.StatusAssigned
	out := *d
	return &out, nil
}

func (s *fakeStore) UpdateStatus(_ context.Context, caller delivery.Identity, id string, status delivery.Status) (*delivery.Delivery, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.lookup(caller, id)
	if err != nil {
		return nil, err
	}
	if !d.Status.CanTransition(status) {
		return nil, fmt.Errorf("%w: %s -> %s", delivery.ErrInvalidTransition, d.Status, status)
	}
	d.Status = status
	out := *d
	return &out, nil
}

func (s *fakeStore) CheckAccess(_ context.Context, caller delivery.Identity, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.lookup(caller, id)
	return err
}

func (s *fakeStore) CreateMessage(_ context.Context, caller delivery.Identity, id, content string) (*delivery.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(caller, id); err != nil {
		return nil, err
	}
	msg := delivery.Message{
		ID:         uuid.New().String(),
		DeliveryID: id,
		SenderID:   caller.UserID,
		Content:    content,
		CreatedAt:  time.Now(),
	}
	s.messages[id] = append(s.messages[id], msg)
	return &msg, nil
}

func (s *fakeStore) ListMessages(_ context.Context, caller delivery.Identity, id string) ([]delivery.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(caller, id); err != nil {
		return nil, err
	}
	return append([]delivery.Message(nil), s.messages[id]...), nil
}

func (s *fakeStore) CreateLocation(_ context.Context, caller delivery.Identity, id string, lat, lng float64) (*delivery.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.lookup(caller, id)
	if err != nil {
		return nil, err
	}
	if !d.CanWriteLocation(caller) {
		return nil, store.ErrForbidden
	}
	loc := delivery.Location{
		ID:         uuid.New().String(),
		DeliveryID: id,
		AgentID:    caller.UserID,
		Latitude:   lat,
		Longitude:  lng,
		CreatedAt:  time.Now(),
	}
	s.locations[id] = append([]delivery.Location{loc}, s.locations[id]...)
	return &loc, nil
}

func (s *fakeStore) ListLocations(_ context.Context, caller delivery.Identity, id string, limit int) ([]delivery.Location, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.lookup(caller, id); err != nil {
		return nil, err
	}
	out := s.locations[id]
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return append([]delivery.Location(nil), out...), nil
}
