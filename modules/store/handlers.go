package store

import (
	"context"
	"errors"

	"github.com/go-monolith/mono"
)

var errNotStarted = errors.New("store not started")

func (m *Module) ready() error {
	if m.service == nil {
		return errNotStarted
	}
	return nil
}

// createDelivery handles the store.create-delivery service request.
func (m *Module) createDelivery(ctx context.Context, req CreateDeliveryRequest, _ *mono.Msg) (DeliveryResponse, error) {
	if err := m.ready(); err != nil {
		return DeliveryResponse{}, err
	}
	d, err := m.service.CreateDelivery(ctx, req.Caller, req.Pickup, req.Dropoff)
	if err != nil {
		return DeliveryResponse{}, err
	}
	m.logger.Info("Delivery created", "delivery_id", d.ID, "sender_id", d.SenderID)
	return DeliveryResponse{Delivery: d}, nil
}

// getDelivery handles the store.get-delivery service request.
func (m *Module) getDelivery(ctx context.Context, req GetDeliveryRequest, _ *mono.Msg) (DeliveryResponse, error) {
	if err := m.ready(); err != nil {
		return DeliveryResponse{}, err
	}
	d, err := m.service.GetDelivery(ctx, req.Caller, req.DeliveryID)
	if err != nil {
		return DeliveryResponse{}, err
	}
	return DeliveryResponse{Delivery: d}, nil
}

// assignAgent handles the store.assign-agent service request.
func (m *Module) assignAgent(ctx context.Context, req AssignAgentRequest, _ *mono.Msg) (StatusChangeResponse, error) {
	if err := m.ready(); err != nil {
		return StatusChangeResponse{}, err
	}
	change, err := m.service.AssignAgent(ctx, req.Caller, req.DeliveryID, req.AgentID)
	if err != nil {
		return StatusChangeResponse{}, err
	}
	m.logger.Info("Agent assigned", "delivery_id", req.DeliveryID, "agent_id", req.AgentID)
	m.publishStatusChange(change, req.Caller.UserID)
	return StatusChangeResponse{Delivery: change.Delivery, Previous: change.Previous}, nil
}

// updateStatus handles the store.update-status service request.
func (m *Module) updateStatus(ctx context.Context, req UpdateStatusRequest, _ *mono.Msg) (StatusChangeResponse, error) {
	if err := m.ready(); err != nil {
		return StatusChangeResponse{}, err
	}
	change, err := m.service.UpdateStatus(ctx, req.Caller, req.DeliveryID, req.Status)
	if err != nil {
		return StatusChangeResponse{}, err
	}
	m.logger.Info("Delivery status changed",
		"delivery_id", req.DeliveryID, "from", string(change.Previous), "to", string(change.Delivery.Status))
	m.publishStatusChange(change, req.Caller.UserID)
	return StatusChangeResponse{Delivery: change.Delivery, Previous: change.Previous}, nil
}

// checkAccess handles the store.check-access service request. Denials are
// reported in the response, not as errors.
func (m *Module) checkAccess(ctx context.Context, req CheckAccessRequest, _ *mono.Msg) (CheckAccessResponse, error) {
	if err := m.ready(); err != nil {
		return CheckAccessResponse{}, err
	}
	if err := m.service.CheckAccess(ctx, req.Caller, req.DeliveryID); err != nil {
		return CheckAccessResponse{Allowed: false, Reason: errorReason(err)}, nil
	}
	return CheckAccessResponse{Allowed: true}, nil
}

// createMessage handles the store.create-message service request.
func (m *Module) createMessage(ctx context.Context, req CreateMessageRequest, _ *mono.Msg) (MessageResponse, error) {
	if err := m.ready(); err != nil {
		return MessageResponse{}, err
	}
	msg, err := m.service.CreateMessage(ctx, req.Caller, req.DeliveryID, req.SenderID, req.Content)
	if err != nil {
		return MessageResponse{}, err
	}
	m.logger.Debug("Message stored", "delivery_id", msg.DeliveryID, "message_id", msg.ID)
	return MessageResponse{Message: msg}, nil
}

// listMessages handles the store.list-messages service request.
func (m *Module) listMessages(ctx context.Context, req ListMessagesRequest, _ *mono.Msg) (ListMessagesResponse, error) {
	if err := m.ready(); err != nil {
		return ListMessagesResponse{}, err
	}
	messages, err := m.service.ListMessages(ctx, req.Caller, req.DeliveryID)
	if err != nil {
		return ListMessagesResponse{}, err
	}
	return ListMessagesResponse{Messages: messages, Total: len(messages)}, nil
}

// createLocation handles the store.create-location service request.
func (m *Module) createLocation(ctx context.Context, req CreateLocationRequest, _ *mono.Msg) (LocationResponse, error) {
	if err := m.ready(); err != nil {
		return LocationResponse{}, err
	}
	loc, err := m.service.CreateLocation(ctx, req.Caller, req.DeliveryID, req.Latitude, req.Longitude)
	if err != nil {
		return LocationResponse{}, err
	}
	return LocationResponse{Location: loc}, nil
}

// listLocations handles the store.list-locations service request.
func (m *Module) listLocations(ctx context.Context, req ListLocationsRequest, _ *mono.Msg) (ListLocationsResponse, error) {
	if err := m.ready(); err != nil {
		return ListLocationsResponse{}, err
	}
	locations, err := m.service.ListLocations(ctx, req.Caller, req.DeliveryID, req.Limit)
	if err != nil {
		return ListLocationsResponse{}, err
	}
	return ListLocationsResponse{Locations: locations, Total: len(locations)}, nil
}
