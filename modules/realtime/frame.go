package realtime

import (
	"encoding/json"
	"fmt"
)

// Envelope is the wire frame in both directions: {"event": name, "data": {...}}.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// ControlError is the data of an "error" control frame.
type ControlError struct {
	Event      string `json:"event"`
	DeliveryID string `json:"deliveryId,omitempty"`
	Message    string `json:"message"`
}

// EncodeFrame wraps a raw JSON payload in an envelope without decoding it.
func EncodeFrame(event string, data []byte) ([]byte, error) {
	if len(data) == 0 {
		data = []byte("null")
	}
	frame, err := json.Marshal(Envelope{Event: event, Data: data})
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return frame, nil
}

// EncodeControl marshals v as the data of a server control frame.
func EncodeControl(event string, v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode %s frame: %w", event, err)
	}
	return EncodeFrame(event, data)
}
