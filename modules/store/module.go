package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/events"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	"github.com/go-monolith/mono/pkg/types"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// Module provides durable delivery, message and location services via
// GORM + SQLite and announces status changes on the EventBus.
type Module struct {
	db       *gorm.DB
	service  *Service
	eventBus mono.EventBus
	logger   types.Logger
	dbPath   string
	debug    bool
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*Module)(nil)
	_ mono.ServiceProviderModule = (*Module)(nil)
	_ mono.EventBusAwareModule   = (*Module)(nil)
	_ mono.EventEmitterModule    = (*Module)(nil)
	_ mono.HealthCheckableModule = (*Module)(nil)
)

// NewModule creates a store module backed by the SQLite file at dbPath.
// Use ":memory:" for an ephemeral database.
func NewModule(dbPath string, debug bool, logger types.Logger) *Module {
	if dbPath == "" {
		dbPath = "smartdelivery.db"
	}
	return &Module{
		dbPath: dbPath,
		debug:  debug,
		logger: logger,
	}
}

// Name returns the module name.
func (m *Module) Name() string {
	return "store"
}

// SetEventBus receives the EventBus from the framework.
func (m *Module) SetEventBus(bus mono.EventBus) {
	m.eventBus = bus
}

// EmitEvents declares the events this module can emit.
func (m *Module) EmitEvents() []mono.BaseEventDefinition {
	return []mono.BaseEventDefinition{
		events.DeliveryStatusChangedV1.ToBase(),
	}
}

// Health performs a health check on the database.
func (m *Module) Health(ctx context.Context) mono.HealthStatus {
	if m.db == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "database not initialized",
		}
	}

	sqlDB, err := m.db.DB()
	if err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("failed to get sql.DB: %v", err),
		}
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: fmt.Sprintf("database ping failed: %v", err),
		}
	}

	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"driver": "sqlite",
			"path":   m.dbPath,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *Module) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateDelivery, json.Unmarshal, json.Marshal, m.createDelivery,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateDelivery, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceGetDelivery, json.Unmarshal, json.Marshal, m.getDelivery,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceGetDelivery, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceAssignAgent, json.Unmarshal, json.Marshal, m.assignAgent,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceAssignAgent, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceUpdateStatus, json.Unmarshal, json.Marshal, m.updateStatus,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceUpdateStatus, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCheckAccess, json.Unmarshal, json.Marshal, m.checkAccess,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCheckAccess, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateMessage, json.Unmarshal, json.Marshal, m.createMessage,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateMessage, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListMessages, json.Unmarshal, json.Marshal, m.listMessages,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListMessages, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceCreateLocation, json.Unmarshal, json.Marshal, m.createLocation,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceCreateLocation, err)
	}
	if err := helper.RegisterTypedRequestReplyService(
		container, ServiceListLocations, json.Unmarshal, json.Marshal, m.listLocations,
	); err != nil {
		return fmt.Errorf("failed to register %s service: %w", ServiceListLocations, err)
	}

	log.Printf("[store] Registered services: services.store.{create-delivery,get-delivery,assign-agent,update-status,check-access,create-message,list-messages,create-location,list-locations}")
	return nil
}

// Start opens the database and runs migrations.
func (m *Module) Start(_ context.Context) error {
	log.Printf("[store] Connecting to SQLite database: %s", m.dbPath)

	db, err := Open(m.dbPath, m.debug)
	if err != nil {
		return err
	}
	m.db = db
	m.service = NewService(NewRepository(db))

	log.Println("[store] Module started successfully")
	return nil
}

// Stop closes the database connection.
func (m *Module) Stop(_ context.Context) error {
	if m.db == nil {
		return nil
	}

	log.Println("[store] Closing database connection...")
	sqlDB, err := m.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get sql.DB: %w", err)
	}
	if err := sqlDB.Close(); err != nil {
		return fmt.Errorf("failed to close database: %w", err)
	}

	log.Println("[store] Database connection closed")
	return nil
}

// Open connects to the SQLite database at path and migrates every table.
func Open(path string, debug bool) (*gorm.DB, error) {
	logLevel := logger.Silent
	if debug {
		logLevel = logger.Info
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if path == ":memory:" {
		// Each pooled connection would otherwise get its own empty database.
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.SetMaxOpenConns(1)
		}
	}
	if err := db.AutoMigrate(models()...); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, nil
}

// publishStatusChange announces a persisted transition. Publishing is best
// effort: the write has already been committed.
func (m *Module) publishStatusChange(change *StatusChange, changedBy string) {
	if m.eventBus == nil {
		return
	}
	event := events.DeliveryStatusChangedEvent{
		DeliveryID: change.Delivery.ID,
		Previous:   string(change.Previous),
		Status:     string(change.Delivery.Status),
		ChangedBy:  changedBy,
		Timestamp:  time.Now().UTC(),
	}
	if err := events.DeliveryStatusChangedV1.Publish(m.eventBus, event, nil); err != nil {
		m.logger.Warn("Failed to publish status change",
			"delivery_id", event.DeliveryID, "status", event.Status, "error", err.Error())
	}
}

// errorReason maps service errors to the short reason codes returned by
// check-access.
func errorReason(err error) string {
	switch {
	case errors.Is(err, ErrNotFound):
		return ErrNotFound.Error()
	case errors.Is(err, ErrForbidden):
		return ErrForbidden.Error()
	default:
		return err.Error()
	}
}
