package realtime

import "sync"

type set map[string]struct{}

// Registry maps a delivery id to the connections currently observing it.
// Membership is process-local and rebuilt purely from live connections.
type Registry struct {
	mu          sync.RWMutex
	rooms       map[string]set // deliveryID -> connIDs
	memberships map[string]set // connID -> deliveryIDs
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		rooms:       make(map[string]set),
		memberships: make(map[string]set),
	}
}

// Join adds connID to the room of deliveryID, creating the room if needed.
// It reports whether membership changed; joining twice is a no-op.
func (r *Registry) Join(connID, deliveryID string) bool {
	if connID == "" || deliveryID == "" {
		return false
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	members, ok := r.rooms[deliveryID]
	if !ok {
		members = make(set)
		r.rooms[deliveryID] = members
	}
	if _, already := members[connID]; already {
		return false
	}
	members[connID] = struct{}{}

	joined, ok := r.memberships[connID]
	if !ok {
		joined = make(set)
		r.memberships[connID] = joined
	}
	joined[deliveryID] = struct{}{}
	return true
}

// Leave removes connID from the room of deliveryID. Empty rooms are
// discarded. Leaving a room that was never joined is not an error.
func (r *Registry) Leave(connID, deliveryID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.leaveLocked(connID, deliveryID)
}

func (r *Registry) leaveLocked(connID, deliveryID string) bool {
	members, ok := r.rooms[deliveryID]
	if !ok {
		return false
	}
	if _, ok := members[connID]; !ok {
		return false
	}
	delete(members, connID)
	if len(members) == 0 {
		delete(r.rooms, deliveryID)
	}

	if joined, ok := r.memberships[connID]; ok {
		delete(joined, deliveryID)
		if len(joined) == 0 {
			delete(r.memberships, connID)
		}
	}
	return true
}

// LeaveAll removes connID from every room it joined and returns those
// delivery ids.
func (r *Registry) LeaveAll(connID string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()

	joined := r.memberships[connID]
	left := make([]string, 0, len(joined))
	for deliveryID := range joined {
		left = append(left, deliveryID)
	}
	for _, deliveryID := range left {
		r.leaveLocked(connID, deliveryID)
	}
	return left
}

// MembersOf returns a snapshot of the connections in the room. The result
// is empty for unknown rooms.
func (r *Registry) MembersOf(deliveryID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := r.rooms[deliveryID]
	result := make([]string, 0, len(members))
	for connID := range members {
		result = append(result, connID)
	}
	return result
}

// IsMember reports whether connID is currently in the room of deliveryID.
func (r *Registry) IsMember(connID, deliveryID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.rooms[deliveryID][connID]
	return ok
}

// RoomsOf returns the delivery ids connID has joined.
func (r *Registry) RoomsOf(connID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	joined := r.memberships[connID]
	result := make([]string, 0, len(joined))
	for deliveryID := range joined {
		result = append(result, deliveryID)
	}
	return result
}

// Stats returns the number of live rooms and room memberships.
func (r *Registry) Stats() (rooms, members int) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms = len(r.rooms)
	for _, m := range r.rooms {
		members += len(m)
	}
	return rooms, members
}
