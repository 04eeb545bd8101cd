package store

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// StorePort defines the interface for interacting with the store module.
// Consumers should use this interface instead of referencing the Module.
type StorePort interface {
	CreateDelivery(ctx context.Context, caller delivery.Identity, pickup, dropoff string) (*delivery.Delivery, error)
	GetDelivery(ctx context.Context, caller delivery.Identity, deliveryID string) (*delivery.Delivery, error)
	AssignAgent(ctx context.Context, caller delivery.Identity, deliveryID, agentID string) (*delivery.Delivery, error)
	UpdateStatus(ctx context.Context, caller delivery.Identity, deliveryID string, status delivery.Status) (*delivery.Delivery, error)
	CheckAccess(ctx context.Context, caller delivery.Identity, deliveryID string) error
	CreateMessage(ctx context.Context, caller delivery.Identity, deliveryID, content string) (*delivery.Message, error)
	ListMessages(ctx context.Context, caller delivery.Identity, deliveryID string) ([]delivery.Message, error)
	CreateLocation(ctx context.Context, caller delivery.Identity, deliveryID string, lat, lng float64) (*delivery.Location, error)
	ListLocations(ctx context.Context, caller delivery.Identity, deliveryID string, limit int) ([]delivery.Location, error)
}

// StoreAdapter implements StorePort using the service container.
type StoreAdapter struct {
	container mono.ServiceContainer
}

var _ StorePort = (*StoreAdapter)(nil)

// NewStoreAdapter creates a new StoreAdapter.
func NewStoreAdapter(container mono.ServiceContainer) *StoreAdapter {
	if container == nil {
		panic("store: ServiceContainer is nil")
	}
	return &StoreAdapter{container: container}
}

// call sends req to a store service and decodes the reply into resp.
func call[T any](ctx context.Context, container mono.ServiceContainer, service string, req any, resp *T) error {
	if err := helper.CallRequestReplyService(
		ctx,
		container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		resp,
	); err != nil {
		return mapServiceError(err)
	}
	return nil
}

// CreateDelivery opens a delivery owned by caller.
func (a *StoreAdapter) CreateDelivery(ctx context.Context, caller delivery.Identity, pickup, dropoff string) (*delivery.Delivery, error) {
	req := CreateDeliveryRequest{Caller: caller, Pickup: pickup, Dropoff: dropoff}
	var resp DeliveryResponse
	if err := call(ctx, a.container, ServiceCreateDelivery, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Delivery, nil
}

// GetDelivery reads a delivery.
func (a *StoreAdapter) GetDelivery(ctx context.Context, caller delivery.Identity, deliveryID string) (*delivery.Delivery, error) {
	req := GetDeliveryRequest{Caller: caller, DeliveryID: deliveryID}
	var resp DeliveryResponse
	if err := call(ctx, a.container, ServiceGetDelivery, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Delivery, nil
}

// AssignAgent attaches an agent to a pending delivery.
func (a *StoreAdapter) AssignAgent(ctx context.Context, caller delivery.Identity, deliveryID, agentID string) (*delivery.Delivery, error) {
	req := AssignAgentRequest{Caller: caller, DeliveryID: deliveryID, AgentID: agentID}
	var resp StatusChangeResponse
	if err := call(ctx, a.container, ServiceAssignAgent, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Delivery, nil
}

// UpdateStatus applies a status transition.
func (a *StoreAdapter) UpdateStatus(ctx context.Context, caller delivery.Identity, deliveryID string, status delivery.Status) (*delivery.Delivery, error) {
	req := UpdateStatusRequest{Caller: caller, DeliveryID: deliveryID, Status: status}
	var resp StatusChangeResponse
	if err := call(ctx, a.container, ServiceUpdateStatus, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Delivery, nil
}

// CheckAccess returns nil when caller may observe the delivery, and
// ErrForbidden or ErrNotFound otherwise.
func (a *StoreAdapter) CheckAccess(ctx context.Context, caller delivery.Identity, deliveryID string) error {
	req := CheckAccessRequest{Caller: caller, DeliveryID: deliveryID}
	var resp CheckAccessResponse
	if err := call(ctx, a.container, ServiceCheckAccess, &req, &resp); err != nil {
		return err
	}
	if !resp.Allowed {
		return mapServiceError(errors.New(resp.Reason))
	}
	return nil
}

// CreateMessage persists a chat message sent by caller.
func (a *StoreAdapter) CreateMessage(ctx context.Context, caller delivery.Identity, deliveryID, content string) (*delivery.Message, error) {
	req := CreateMessageRequest{Caller: caller, DeliveryID: deliveryID, SenderID: caller.UserID, Content: content}
	var resp MessageResponse
	if err := call(ctx, a.container, ServiceCreateMessage, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Message, nil
}

// ListMessages returns the chat history, oldest first.
func (a *StoreAdapter) ListMessages(ctx context.Context, caller delivery.Identity, deliveryID string) ([]delivery.Message, error) {
	req := ListMessagesRequest{Caller: caller, DeliveryID: deliveryID}
	var resp ListMessagesResponse
	if err := call(ctx, a.container, ServiceListMessages, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Messages, nil
}

// CreateLocation records a location sample.
func (a *StoreAdapter) CreateLocation(ctx context.Context, caller delivery.Identity, deliveryID string, lat, lng float64) (*delivery.Location, error) {
	req := CreateLocationRequest{Caller: caller, DeliveryID: deliveryID, Latitude: lat, Longitude: lng}
	var resp LocationResponse
	if err := call(ctx, a.container, ServiceCreateLocation, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Location, nil
}

// ListLocations returns the location trail, newest first.
func (a *StoreAdapter) ListLocations(ctx context.Context, caller delivery.Identity, deliveryID string, limit int) ([]delivery.Location, error) {
	req := ListLocationsRequest{Caller: caller, DeliveryID: deliveryID, Limit: limit}
	var resp ListLocationsResponse
	if err := call(ctx, a.container, ServiceListLocations, &req, &resp); err != nil {
		return nil, err
	}
	return resp.Locations, nil
}

// mapServiceError converts service errors back to sentinel errors by
// checking the message, since errors lose their type over NATS.
func mapServiceError(err error) error {
	if err == nil {
		return nil
	}
	msg := err.Error()

	switch {
	case strings.Contains(msg, ErrForbidden.Error()):
		return wrapRemote(ErrForbidden, msg)
	case strings.Contains(msg, ErrNotFound.Error()):
		return wrapRemote(ErrNotFound, msg)
	case strings.Contains(msg, delivery.ErrInvalidTransition.Error()):
		return wrapRemote(delivery.ErrInvalidTransition, msg)
	case strings.Contains(msg, ErrConflict.Error()):
		return wrapRemote(ErrConflict, msg)
	case strings.Contains(msg, ErrInvalidInput.Error()):
		return wrapRemote(ErrInvalidInput, msg)
	}
	return err
}

// remoteError keeps the original message while matching a sentinel.
type remoteError struct {
	sentinel error
	msg      string
}

func (e *remoteError) Error() string { return e.msg }
func (e *remoteError) Unwrap() error { return e.sentinel }

func wrapRemote(sentinel error, msg string) error {
	if msg == sentinel.Error() {
		return sentinel
	}
	return &remoteError{sentinel: sentinel, msg: msg}
}
