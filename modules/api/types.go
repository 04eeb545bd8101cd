package api

import (
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
)

// CreateDeliveryRequest is the API request to open a delivery.
type CreateDeliveryRequest struct {
	Pickup  string `json:"pickup"`
	Dropoff string `json:"dropoff"`
}

// UpdateStatusRequest is the API request for a status transition.
type UpdateStatusRequest struct {
	Status delivery.Status `json:"status"`
}

// AssignAgentRequest is the API request for assigning an agent.
type AssignAgentRequest struct {
	AgentID string `json:"agentId"`
}

// CreateMessageRequest is the API request for persisting a chat message.
type CreateMessageRequest struct {
	Content string `json:"content"`
}

// CreateLocationRequest is the API request for recording a location.
type CreateLocationRequest struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
}

// MessageListResponse is the API response for chat history.
type MessageListResponse struct {
	DeliveryID string             `json:"deliveryId"`
	Messages   []delivery.Message `json:"messages"`
	Total      int                `json:"total"`
}

// LocationListResponse is the API response for a location trail.
type LocationListResponse struct {
	DeliveryID string              `json:"deliveryId"`
	Locations  []delivery.Location `json:"locations"`
	Total      int                 `json:"total"`
}

// ErrorResponse is the API error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// HealthResponse is the API health check response.
type HealthResponse struct {
	Status  string         `json:"status"`
	Details map[string]any `json:"details,omitempty"`
}

// TransportConfig tunes live connections.
type TransportConfig struct {
	SendBuffer     int
	WriteWait      time.Duration
	PongWait       time.Duration
	MaxMessageSize int64
}

// DefaultTransportConfig returns the standard keep-alive settings.
func DefaultTransportConfig() TransportConfig {
	return TransportConfig{
		SendBuffer:     256,
		WriteWait:      10 * time.Second,
		PongWait:       60 * time.Second,
		MaxMessageSize: 4096,
	}
}

// withDefaults fills each unset field from DefaultTransportConfig.
func (c TransportConfig) withDefaults() TransportConfig {
	d := DefaultTransportConfig()
	if c.SendBuffer <= 0 {
		c.SendBuffer = d.SendBuffer
	}
	if c.WriteWait <= 0 {
		c.WriteWait = d.WriteWait
	}
	if c.PongWait <= 0 {
		c.PongWait = d.PongWait
	}
	if c.MaxMessageSize <= 0 {
		c.MaxMessageSize = d.MaxMessageSize
	}
	return c
}

func (c TransportConfig) pingPeriod() time.Duration {
	return (c.PongWait * 9) / 10
}
