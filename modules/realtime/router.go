package realtime

import (
	"context"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/tidwall/gjson"
)

// Route fans a room event out to every member of the delivery named by the
// payload's deliveryId. Only deliveryId is inspected; the payload reaches
// receivers verbatim. Invalid events are dropped without notifying the
// sender. senderID is empty for server-originated events.
func (h *Hub) Route(ctx context.Context, senderID, kind string, payload []byte) {
	if !delivery.IsRoutable(kind) {
		h.drop(senderID, kind, "unknown event")
		return
	}
	if !gjson.ValidBytes(payload) {
		h.drop(senderID, kind, "malformed payload")
		return
	}
	deliveryID := roomID(gjson.GetBytes(payload, "deliveryId"))
	if deliveryID == "" {
		h.drop(senderID, kind, "missing deliveryId")
		return
	}

	if senderID != "" && h.opts.RequireMembership && !h.registry.IsMember(senderID, deliveryID) {
		h.drop(senderID, kind, "sender not in room")
		return
	}

	frame, err := EncodeFrame(kind, payload)
	if err != nil {
		h.drop(senderID, kind, err.Error())
		return
	}

	h.routed.Add(1)
	if err := h.backend.Publish(ctx, deliveryID, senderID, frame); err != nil {
		h.logger.Warn("Fan-out publish failed",
			"delivery_id", deliveryID, "event", kind, "error", err.Error())
	}
}

// roomID returns the delivery id carried by v, or "" unless v is a JSON
// string. Join, leave and routing all read ids this way.
func roomID(v gjson.Result) string {
	if v.Type != gjson.String {
		return ""
	}
	return v.Str
}

func (h *Hub) drop(senderID, kind, reason string) {
	h.dropped.Add(1)
	h.logger.Debug("Dropping event", "conn_id", senderID, "event", kind, "reason", reason)
}

// HandleFrame dispatches one inbound envelope from a session. Join and
// leave are answered with a control frame; room events are routed.
func (h *Hub) HandleFrame(ctx context.Context, s *Session, raw []byte) {
	if !gjson.ValidBytes(raw) {
		h.drop(s.ID(), "", "malformed frame")
		return
	}
	event := gjson.GetBytes(raw, "event").String()
	data := gjson.GetBytes(raw, "data")

	switch event {
	case delivery.EventJoinDelivery:
		deliveryID := roomID(data.Get("deliveryId"))
		if err := s.OnJoinRequest(ctx, deliveryID); err != nil {
			h.reply(s, delivery.EventError, ControlError{Event: event, DeliveryID: deliveryID, Message: err.Error()})
			return
		}
		h.reply(s, delivery.EventJoined, delivery.RoomRequest{DeliveryID: deliveryID})

	case delivery.EventLeaveDelivery:
		deliveryID := roomID(data.Get("deliveryId"))
		if err := s.OnLeaveRequest(deliveryID); err != nil {
			h.reply(s, delivery.EventError, ControlError{Event: event, Message: err.Error()})
			return
		}
		h.reply(s, delivery.EventLeft, delivery.RoomRequest{DeliveryID: deliveryID})

	default:
		h.Route(ctx, s.ID(), event, []byte(data.Raw))
	}
}

func (h *Hub) reply(s *Session, event string, v any) {
	frame, err := EncodeControl(event, v)
	if err != nil {
		h.logger.Error("Failed to encode control frame", "event", event, "error", err.Error())
		return
	}
	if err := s.Send(frame); err != nil {
		h.logger.Warn("Failed to send control frame", "conn_id", s.ID(), "event", event, "error", err.Error())
		s.OnDisconnect()
	}
}
