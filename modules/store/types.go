package store

import "github.com/DevHoji/smart-Delivery-sub001/domain/delivery"

// Service names registered by the store module. The framework prefixes
// them with "services.store.".
const (
	ServiceCreateDelivery = "create-delivery"
	ServiceGetDelivery    = "get-delivery"
	ServiceAssignAgent    = "assign-agent"
	ServiceUpdateStatus   = "update-status"
	ServiceCheckAccess    = "check-access"
	ServiceCreateMessage  = "create-message"
	ServiceListMessages   = "list-messages"
	ServiceCreateLocation = "create-location"
	ServiceListLocations  = "list-locations"
)

// CreateDeliveryRequest is the request for opening a delivery.
type CreateDeliveryRequest struct {
	Caller  delivery.Identity `json:"caller"`
	Pickup  string            `json:"pickup"`
	Dropoff string            `json:"dropoff"`
}

// GetDeliveryRequest is the request for reading a delivery.
type GetDeliveryRequest struct {
	Caller     delivery.Identity `json:"caller"`
	DeliveryID string            `json:"deliveryId"`
}

// DeliveryResponse wraps a single delivery.
type DeliveryResponse struct {
	Delivery *delivery.Delivery `json:"delivery"`
}

// AssignAgentRequest is the request for assigning an agent.
type AssignAgentRequest struct {
	Caller     delivery.Identity `json:"caller"`
	DeliveryID string            `json:"deliveryId"`
	AgentID    string            `json:"agentId"`
}

// UpdateStatusRequest is the request for a status transition.
type UpdateStatusRequest struct {
	Caller     delivery.Identity `json:"caller"`
	DeliveryID string            `json:"deliveryId"`
	Status     delivery.Status   `json:"status"`
}

// StatusChangeResponse is returned by assign-agent and update-status.
type StatusChangeResponse struct {
	Delivery *delivery.Delivery `json:"delivery"`
	Previous delivery.Status    `json:"previous"`
}

// CheckAccessRequest asks whether caller may observe a delivery.
type CheckAccessRequest struct {
	Caller     delivery.Identity `json:"caller"`
	DeliveryID string            `json:"deliveryId"`
}

// CheckAccessResponse carries the access decision. Reason is set when
// Allowed is false.
type CheckAccessResponse struct {
	Allowed bool   `json:"allowed"`
	Reason  string `json:"reason,omitempty"`
}

// CreateMessageRequest is the request for persisting a chat message.
type CreateMessageRequest struct {
	Caller     delivery.Identity `json:"caller"`
	DeliveryID string            `json:"deliveryId"`
	SenderID   string            `json:"senderId"`
	Content    string            `json:"content"`
}

// MessageResponse wraps a persisted message.
type MessageResponse struct {
	Message *delivery.Message `json:"message"`
}

// ListMessagesRequest is the request for a delivery's chat history.
type ListMessagesRequest struct {
	Caller     delivery.Identity `json:"caller"`
	DeliveryID string            `json:"deliveryId"`
}

// ListMessagesResponse is the chat history, oldest first.
type ListMessagesResponse struct {
	Messages []delivery.Message `json:"messages"`
	Total    int                `json:"total"`
}

// CreateLocationRequest is the request for recording a location sample.
type CreateLocationRequest struct {
	Caller     delivery.Identity `json:"caller"`
	DeliveryID string            `json:"deliveryId"`
	Latitude   float64           `json:"latitude"`
	Longitude  float64           `json:"longitude"`
}

// LocationResponse wraps a persisted location sample.
type LocationResponse struct {
	Location *delivery.Location `json:"location"`
}

// ListLocationsRequest is the request for a delivery's location trail.
type ListLocationsRequest struct {
	Caller     delivery.Identity `json:"caller"`
	DeliveryID string            `json:"deliveryId"`
	Limit      int               `json:"limit,omitempty"`
}

// ListLocationsResponse is the location trail, newest first.
type ListLocationsResponse struct {
	Locations []delivery.Location `json:"locations"`
	Total     int                 `json:"total"`
}
