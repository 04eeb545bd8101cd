package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/DevHoji/smart-Delivery-sub001/events"
	"github.com/DevHoji/smart-Delivery-sub001/modules/store"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
)

// Module hosts the delivery-room hub. It authorizes joins through the store
// module and relays store status changes into the matching rooms.
type Module struct {
	hub       *Hub
	logger    types.Logger
	startTime time.Time
}

// Compile-time interface checks.
var _ mono.Module = (*Module)(nil)
var _ mono.DependentModule = (*Module)(nil)
var _ mono.EventConsumerModule = (*Module)(nil)
var _ mono.HealthCheckableModule = (*Module)(nil)

// NewModule creates the realtime module on top of the given fan-out backend.
func NewModule(backend Backend, logger types.Logger, opts Options) *Module {
	return &Module{
		hub:    NewHub(backend, nil, logger, opts),
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "realtime"
}

// Hub returns the hub served by the API module.
func (m *Module) Hub() *Hub {
	return m.hub
}

// Dependencies declares the store module for join authorization.
func (m *Module) Dependencies() []string {
	return []string{"store"}
}

// SetDependencyServiceContainer receives the store's service container.
func (m *Module) SetDependencyServiceContainer(dependency string, container mono.ServiceContainer) {
	if dependency == "store" {
		m.hub.SetAccessChecker(store.NewStoreAdapter(container))
	}
}

// Start attaches the hub to its fan-out backend.
func (m *Module) Start(ctx context.Context) error {
	if err := m.hub.Start(ctx); err != nil {
		return fmt.Errorf("failed to start %s fan-out: %w", m.hub.backend.Name(), err)
	}
	m.startTime = time.Now()
	log.Printf("[realtime] Module started - fan-out backend: %s", m.hub.backend.Name())
	return nil
}

// Stop disconnects every session and closes the backend.
func (m *Module) Stop(_ context.Context) error {
	connections := m.hub.ConnectionCount()
	if err := m.hub.Close(); err != nil {
		log.Printf("[realtime] Error closing fan-out backend: %v", err)
		return err
	}
	log.Printf("[realtime] Module stopped - %d sessions were connected", connections)
	return nil
}

// Health reports hub counters.
func (m *Module) Health(_ context.Context) mono.HealthStatus {
	if m.startTime.IsZero() {
		return mono.HealthStatus{Healthy: false, Message: "not started"}
	}
	stats := m.hub.Stats()
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"backend":     stats.Backend,
			"connections": stats.Connections,
			"rooms":       stats.Rooms,
			"uptime":      time.Since(m.startTime).Round(time.Second).String(),
		},
	}
}

// RegisterEventConsumers subscribes to store status changes.
func (m *Module) RegisterEventConsumers(registry mono.EventRegistry) error {
	if err := helper.RegisterTypedEventConsumer(
		registry, events.DeliveryStatusChangedV1, m.handleStatusChanged, m,
	); err != nil {
		return fmt.Errorf("failed to register DeliveryStatusChanged consumer: %w", err)
	}
	log.Println("[realtime] Registered event consumers: DeliveryStatusChanged")
	return nil
}

func (m *Module) handleStatusChanged(ctx context.Context, event events.DeliveryStatusChangedEvent, _ *mono.Msg) error {
	ts := event.Timestamp
	payload, err := json.Marshal(delivery.StatusUpdateEvent{
		DeliveryID: event.DeliveryID,
		Status:     delivery.Status(event.Status),
		Timestamp:  &ts,
	})
	if err != nil {
		return fmt.Errorf("encode status update: %w", err)
	}

	m.logger.Debug("Relaying status change",
		"delivery_id", event.DeliveryID, "from", event.Previous, "to", event.Status)
	m.hub.Route(ctx, "", delivery.EventStatusUpdate, payload)
	return nil
}
