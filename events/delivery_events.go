package events

import (
	"time"

	"github.com/go-monolith/mono/pkg/helper"
)

// DeliveryStatusChangedEvent is emitted by the store after a status change
// has been persisted.
type DeliveryStatusChangedEvent struct {
	DeliveryID string    `json:"delivery_id"`
	Previous   string    `json:"previous"`
	Status     string    `json:"status"`
	ChangedBy  string    `json:"changed_by"`
	Timestamp  time.Time `json:"timestamp"`
}

// Event definitions for the delivery domain.
var (
	DeliveryStatusChangedV1 = helper.EventDefinition[DeliveryStatusChangedEvent](
		"store",
		"DeliveryStatusChanged",
		"v1",
	)
)
