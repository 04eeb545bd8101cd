package client

import (
	"sync"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
)

// Presence keeps the latest known agent location per delivery. The last
// event to arrive wins, whatever its timestamp.
type Presence struct {
	mu     sync.RWMutex
	latest map[string]delivery.LocationUpdateEvent
}

// NewPresence creates an empty aggregator.
func NewPresence() *Presence {
	return &Presence{latest: make(map[string]delivery.LocationUpdateEvent)}
}

// OnLocationEvent records ev as the latest location of its delivery.
func (p *Presence) OnLocationEvent(ev delivery.LocationUpdateEvent) {
	if ev.DeliveryID == "" {
		return
	}
	p.mu.Lock()
	p.latest[ev.DeliveryID] = ev
	p.mu.Unlock()
}

// Latest returns the most recent location seen for deliveryID.
func (p *Presence) Latest(deliveryID string) (delivery.LocationUpdateEvent, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	ev, ok := p.latest[deliveryID]
	return ev, ok
}

// Forget drops the location kept for deliveryID.
func (p *Presence) Forget(deliveryID string) {
	p.mu.Lock()
	delete(p.latest, deliveryID)
	p.mu.Unlock()
}
