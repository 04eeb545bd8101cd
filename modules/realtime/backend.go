package realtime

import (
	"context"
	"errors"
	"sync"
)

// ErrBackendNotStarted is returned when publishing before Start.
var ErrBackendNotStarted = errors.New("fan-out backend not started")

// DeliverFunc hands a framed event to the local members of a room.
type DeliverFunc func(deliveryID, origin string, frame []byte)

// Backend carries routed frames to every process that may hold members of
// the target room. Publishes from one caller must reach each process in
// the order they were issued.
type Backend interface {
	Name() string
	Start(ctx context.Context, deliver DeliverFunc) error
	Publish(ctx context.Context, deliveryID, origin string, frame []byte) error
	Close() error
}

// LocalBackend delivers synchronously inside the current process.
type LocalBackend struct {
	mu      sync.RWMutex
	deliver DeliverFunc
}

var _ Backend = (*LocalBackend)(nil)

// NewLocalBackend creates a single-process backend.
func NewLocalBackend() *LocalBackend {
	return &LocalBackend{}
}

// Name returns the backend name.
func (b *LocalBackend) Name() string { return "local" }

// Start records the delivery callback.
func (b *LocalBackend) Start(_ context.Context, deliver DeliverFunc) error {
	b.mu.Lock()
	b.deliver = deliver
	b.mu.Unlock()
	return nil
}

// Publish delivers the frame before returning.
func (b *LocalBackend) Publish(_ context.Context, deliveryID, origin string, frame []byte) error {
	b.mu.RLock()
	deliver := b.deliver
	b.mu.RUnlock()
	if deliver == nil {
		return ErrBackendNotStarted
	}
	deliver(deliveryID, origin, frame)
	return nil
}

// Close detaches the delivery callback.
func (b *LocalBackend) Close() error {
	b.mu.Lock()
	b.deliver = nil
	b.mu.Unlock()
	return nil
}
