package client

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedBroker answers join-delivery with joined followed by a location
// and a chat line for the joined room, and records every frame it reads.
type scriptedBroker struct {
	mu       sync.Mutex
	received []envelope
	tokens   []string
}

func (b *scriptedBroker) frames() []envelope {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]envelope(nil), b.received...)
}

func (b *scriptedBroker) app() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use("/ws", func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return fiber.ErrUpgradeRequired
		}
		b.mu.Lock()
		b.tokens = append(b.tokens, c.Query("token"))
		b.mu.Unlock()
		return c.Next()
	})
	app.Get("/ws", websocket.New(func(ws *websocket.Conn) {
		for {
			_, data, err := ws.ReadMessage()
			if err != nil {
				return
			}
			var env envelope
			if json.Unmarshal(data, &env) != nil {
				continue
			}
			b.mu.Lock()
			b.received = append(b.received, env)
			b.mu.Unlock()

			if env.Event != delivery.EventJoinDelivery {
				continue
			}
			var req delivery.RoomRequest
			_ = json.Unmarshal(env.Data, &req)
			replies := []string{
				`{"event":"joined","data":{"deliveryId":"` + req.DeliveryID + `"}}`,
				`{"event":"location-update","data":{"deliveryId":"` + req.DeliveryID + `","agentId":"a1","latitude":37.0,"longitude":-122.0}}`,
				`{"event":"location-update","data":{"deliveryId":"` + req.DeliveryID + `","agentId":"a1","latitude":37.1,"longitude":-122.1}}`,
				`{"event":"message","data":{"deliveryId":"` + req.DeliveryID + `","senderId":"a1","content":"outside","id":"m1"}}`,
				`{"event":"status-update","data":{"deliveryId":"` + req.DeliveryID + `","status":"picked_up"}}`,
			}
			for _, r := range replies {
				if err := ws.WriteMessage(websocket.TextMessage, []byte(r)); err != nil {
					return
				}
			}
		}
	}))
	return app
}

func TestConnRoomFlow(t *testing.T) {
	broker := &scriptedBroker{}
	base := serveApp(t, broker.app())

	presence := NewPresence()
	bridge, err := NewBridge(NewChatList("D1"), &fakeStore{}, &fakeEmitter{}, discard)
	require.NoError(t, err)

	handlers := RoomHandlers(bridge, presence)
	statuses := make(chan delivery.StatusUpdateEvent, 1)
	controls := make(chan string, 4)
	handlers.OnStatus = func(ev delivery.StatusUpdateEvent) { statuses <- ev }
	handlers.OnControl = func(event string, _ json.RawMessage) { controls <- event }

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	conn, err := Dial(ctx, base, "tok-1", handlers, discard)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.Join(ctx, "D1"))

	select {
	case ev := <-controls:
		assert.Equal(t, delivery.EventJoined, ev)
	case <-ctx.Done():
		t.Fatal("no joined frame")
	}
	select {
	case ev := <-statuses:
		assert.Equal(t, delivery.StatusPickedUp, ev.Status)
	case <-ctx.Done():
		t.Fatal("no status frame")
	}

	// Frames are dispatched in order, so both locations and the message
	// have been handled by the time the status arrives.
	loc, ok := presence.Latest("D1")
	require.True(t, ok)
	assert.Equal(t, 37.1, loc.Latitude)
	assert.True(t, bridge.List().Has("m1"))

	require.NoError(t, conn.Emit(ctx, delivery.EventMessage, delivery.MessageEvent{DeliveryID: "D1", SenderID: "u1", Content: "hi"}))
	require.NoError(t, conn.Leave(ctx, "D1"))

	assert.Eventually(t, func() bool { return len(broker.frames()) == 3 }, 2*time.Second, 10*time.Millisecond)
	frames := broker.frames()
	assert.Equal(t, delivery.EventJoinDelivery, frames[0].Event)
	assert.Equal(t, delivery.EventMessage, frames[1].Event)
	assert.JSONEq(t, `{"deliveryId":"D1","senderId":"u1","content":"hi"}`, string(frames[1].Data))
	assert.Equal(t, delivery.EventLeaveDelivery, frames[2].Event)

	broker.mu.Lock()
	assert.Equal(t, []string{"tok-1"}, broker.tokens)
	broker.mu.Unlock()
}

func TestConnEmitAfterClose(t *testing.T) {
	base := serveApp(t, (&scriptedBroker{}).app())

	conn, err := Dial(context.Background(), base, "tok", Handlers{}, discard)
	require.NoError(t, err)
	require.NoError(t, conn.Close())

	<-conn.Done()
	assert.ErrorIs(t, conn.Emit(context.Background(), delivery.EventMessage, delivery.MessageEvent{}), ErrClosed)
}
