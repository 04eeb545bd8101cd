package delivery

import "time"

// Event names used on the live transport, in both directions.
const (
	EventJoinDelivery   = "join-delivery"
	EventLeaveDelivery  = "leave-delivery"
	EventLocationUpdate = "location-update"
	EventMessage        = "message"
	EventStatusUpdate   = "status-update"

	// Control frames sent by the server only.
	EventJoined = "joined"
	EventLeft   = "left"
	EventError  = "error"
)

// IsRoutable reports whether name is one of the three room events.
func IsRoutable(name string) bool {
	switch name {
	case EventLocationUpdate, EventMessage, EventStatusUpdate:
		return true
	}
	return false
}

// Role is the caller's role as carried in its access token.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
	RoleAdmin    Role = "admin"
)

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	switch r {
	case RoleCustomer, RoleAgent, RoleAdmin:
		return true
	}
	return false
}

// Identity is the authenticated principal behind a connection or request.
type Identity struct {
	UserID string `json:"user_id"`
	Role   Role   `json:"role"`
}

// IsAdmin reports whether the identity carries the administrator role.
func (i Identity) IsAdmin() bool {
	return i.Role == RoleAdmin
}

// LocationUpdateEvent is the live agent position for a delivery.
type LocationUpdateEvent struct {
	DeliveryID string    `json:"deliveryId"`
	AgentID    string    `json:"agentId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	Timestamp  time.Time `json:"timestamp"`
}

// MessageEvent is a chat line relayed inside a delivery room. ID and
// CreatedAt are set once the message has been persisted.
type MessageEvent struct {
	DeliveryID string     `json:"deliveryId"`
	SenderID   string     `json:"senderId"`
	Content    string     `json:"content"`
	ID         string     `json:"id,omitempty"`
	CreatedAt  *time.Time `json:"createdAt,omitempty"`
}

// StatusUpdateEvent announces a delivery status change.
type StatusUpdateEvent struct {
	DeliveryID string     `json:"deliveryId"`
	Status     Status     `json:"status"`
	Timestamp  *time.Time `json:"timestamp,omitempty"`
}

// RoomRequest is the payload of join-delivery and leave-delivery.
type RoomRequest struct {
	DeliveryID string `json:"deliveryId"`
}

// Message is a persisted chat message.
type Message struct {
	ID         string    `json:"id"`
	DeliveryID string    `json:"deliveryId"`
	SenderID   string    `json:"senderId"`
	Content    string    `json:"content"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Location is a persisted location sample.
type Location struct {
	ID         string    `json:"id"`
	DeliveryID string    `json:"deliveryId"`
	AgentID    string    `json:"agentId"`
	Latitude   float64   `json:"latitude"`
	Longitude  float64   `json:"longitude"`
	CreatedAt  time.Time `json:"createdAt"`
}

// Delivery is a delivery request as exposed outside the store.
type Delivery struct {
	ID        string    `json:"id"`
	SenderID  string    `json:"senderId"`
	AgentID   string    `json:"agentId,omitempty"`
	Pickup    string    `json:"pickup"`
	Dropoff   string    `json:"dropoff"`
	Status    Status    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// CanAccess applies the shared read rule: the delivery's sender, its
// assigned agent, or an administrator.
func (d *Delivery) CanAccess(id Identity) bool {
	if id.IsAdmin() {
		return true
	}
	if id.UserID == "" {
		return false
	}
	return id.UserID == d.SenderID || (d.AgentID != "" && id.UserID == d.AgentID)
}

// CanWriteLocation restricts location writes to the assigned agent or an
// administrator.
func (d *Delivery) CanWriteLocation(id Identity) bool {
	if id.IsAdmin() {
		return true
	}
	return d.AgentID != "" && id.UserID == d.AgentID
}
