package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/gorilla/websocket"
)

const writeWait = 10 * time.Second

// ErrClosed is returned when writing to a closed connection.
var ErrClosed = errors.New("client: connection closed")

// Handlers receive decoded server frames. Nil handlers are skipped.
type Handlers struct {
	OnMessage  func(delivery.MessageEvent)
	OnLocation func(delivery.LocationUpdateEvent)
	OnStatus   func(delivery.StatusUpdateEvent)
	// OnControl receives joined, left and error frames.
	OnControl func(event string, data json.RawMessage)
}

// RoomHandlers feeds relayed chat lines into bridge and locations into
// presence. Either may be nil.
func RoomHandlers(bridge *Bridge, presence *Presence) Handlers {
	var h Handlers
	if bridge != nil {
		h.OnMessage = func(ev delivery.MessageEvent) { bridge.Receive(ev) }
	}
	if presence != nil {
		h.OnLocation = presence.OnLocationEvent
	}
	return h
}

type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Conn is a live connection to the broker.
type Conn struct {
	ws       *websocket.Conn
	handlers Handlers
	logger   *slog.Logger

	writeMu   sync.Mutex
	done      chan struct{}
	closeOnce sync.Once
	err       error
}

var _ Emitter = (*Conn)(nil)

// Dial connects to the broker at baseURL (ws:// or wss://, or http(s):// which
// is mapped to the matching WebSocket scheme) with an access token, and
// starts the read loop.
func Dial(ctx context.Context, baseURL, token string, handlers Handlers, logger *slog.Logger) (*Conn, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("client: parse url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()

	ws, _, err := websocket.DefaultDialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		return nil, fmt.Errorf("client: dial: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}

	c := &Conn{
		ws:       ws,
		handlers: handlers,
		logger:   logger,
		done:     make(chan struct{}),
	}
	go c.readLoop()
	return c, nil
}

// Join subscribes the connection to a delivery room. The server answers
// with a joined or error control frame.
func (c *Conn) Join(ctx context.Context, deliveryID string) error {
	return c.Emit(ctx, delivery.EventJoinDelivery, delivery.RoomRequest{DeliveryID: deliveryID})
}

// Leave unsubscribes the connection from a delivery room.
func (c *Conn) Leave(ctx context.Context, deliveryID string) error {
	return c.Emit(ctx, delivery.EventLeaveDelivery, delivery.RoomRequest{DeliveryID: deliveryID})
}

// Emit sends one event frame. Writes are serialized.
func (c *Conn) Emit(ctx context.Context, event string, data any) error {
	raw, err := json.Marshal(data)
	if err != nil {
		return fmt.Errorf("client: encode %s: %w", event, err)
	}
	frame, err := json.Marshal(envelope{Event: event, Data: raw})
	if err != nil {
		return fmt.Errorf("client: encode %s: %w", event, err)
	}

	select {
	case <-c.done:
		return ErrClosed
	default:
	}

	deadline := time.Now().Add(writeWait)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_ = c.ws.SetWriteDeadline(deadline)
	if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("client: write %s: %w", event, err)
	}
	return nil
}

// Done is closed when the read loop ends.
func (c *Conn) Done() <-chan struct{} { return c.done }

// Err returns the error that ended the read loop, if any.
func (c *Conn) Err() error {
	select {
	case <-c.done:
		return c.err
	default:
		return nil
	}
}

// Close sends a close frame and tears the connection down.
func (c *Conn) Close() error {
	c.writeMu.Lock()
	_ = c.ws.SetWriteDeadline(time.Now().Add(writeWait))
	_ = c.ws.WriteMessage(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	c.writeMu.Unlock()

	err := c.ws.Close()
	<-c.done
	return err
}

func (c *Conn) readLoop() {
	defer c.closeOnce.Do(func() { close(c.done) })

	for {
		_, data, err := c.ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Error("read error", "error", err)
				c.err = err
			}
			return
		}
		c.dispatch(data)
	}
}

func (c *Conn) dispatch(data []byte) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		c.logger.Warn("malformed frame", "error", err)
		return
	}

	switch env.Event {
	case delivery.EventMessage:
		var ev delivery.MessageEvent
		if c.decode(env, &ev) && c.handlers.OnMessage != nil {
			c.handlers.OnMessage(ev)
		}
	case delivery.EventLocationUpdate:
		var ev delivery.LocationUpdateEvent
		if c.decode(env, &ev) && c.handlers.OnLocation != nil {
			c.handlers.OnLocation(ev)
		}
	case delivery.EventStatusUpdate:
		var ev delivery.StatusUpdateEvent
		if c.decode(env, &ev) && c.handlers.OnStatus != nil {
			c.handlers.OnStatus(ev)
		}
	case delivery.EventJoined, delivery.EventLeft, delivery.EventError:
		if c.handlers.OnControl != nil {
			c.handlers.OnControl(env.Event, env.Data)
		}
	default:
		c.logger.Debug("ignoring frame", "event", env.Event)
	}
}

func (c *Conn) decode(env envelope, v any) bool {
	if err := json.Unmarshal(env.Data, v); err != nil {
		c.logger.Warn("malformed event data", "event", env.Event, "error", err)
		return false
	}
	return true
}
