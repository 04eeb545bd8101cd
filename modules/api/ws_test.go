package api

import (
	"encoding/json"
	"net"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/DevHoji/smart-Delivery-sub001/modules/realtime"
	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// serve starts the env's app on a random local port and returns its address.
func (e *testEnv) serve(t *testing.T) string {
	t.Helper()

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = e.app.Listener(ln)
	}()
	t.Cleanup(func() { _ = e.app.Shutdown() })
	return ln.Addr().String()
}

func (e *testEnv) dial(t *testing.T, addr string, id delivery.Identity) *gws.Conn {
	t.Helper()

	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws", RawQuery: "token=" + e.token(t, id)}
	conn, _, err := gws.DefaultDialer.Dial(u.String(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func send(t *testing.T, conn *gws.Conn, event string, data any) {
	t.Helper()
	raw, err := json.Marshal(data)
	require.NoError(t, err)
	frame, err := json.Marshal(realtime.Envelope{Event: event, Data: raw})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(gws.TextMessage, frame))
}

func receive(t *testing.T, conn *gws.Conn) realtime.Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var env realtime.Envelope
	require.NoError(t, json.Unmarshal(data, &env))
	return env
}

func join(t *testing.T, conn *gws.Conn, deliveryID string) {
	t.Helper()
	send(t, conn, delivery.EventJoinDelivery, delivery.RoomRequest{DeliveryID: deliveryID})
	env := receive(t, conn)
	require.Equal(t, delivery.EventJoined, env.Event)
	assert.JSONEq(t, `{"deliveryId":"`+deliveryID+`"}`, string(env.Data))
}

func TestWebSocketRoomRelay(t *testing.T) {
	env := newTestEnv(t)
	addr := env.serve(t)

	customer := env.dial(t, addr, sender)
	agent := env.dial(t, addr, courier)

	join(t, customer, "D1")
	join(t, agent, "D1")

	payload := `{"deliveryId":"D1","senderId":"cust-1","content":"Gate is open","extra":[1,2]}`
	require.NoError(t, customer.WriteMessage(gws.TextMessage,
		[]byte(`{"event":"message","data":`+payload+`}`)))

	got := receive(t, agent)
	assert.Equal(t, delivery.EventMessage, got.Event)
	assert.JSONEq(t, payload, string(got.Data))

	location := delivery.LocationUpdateEvent{
		DeliveryID: "D1",
		AgentID:    courier.UserID,
		Latitude:   9.01,
		Longitude:  38.76,
		Timestamp:  time.Now().UTC(),
	}
	send(t, agent, delivery.EventLocationUpdate, location)

	got = receive(t, customer)
	assert.Equal(t, delivery.EventLocationUpdate, got.Event)
	var loc delivery.LocationUpdateEvent
	require.NoError(t, json.Unmarshal(got.Data, &loc))
	assert.Equal(t, location.AgentID, loc.AgentID)
	assert.InDelta(t, location.Latitude, loc.Latitude, 1e-9)

	// The sender's own chat line is not echoed back; the next frame the
	// customer sees is the agent's location.
	assert.Equal(t, 2, env.hub.ConnectionCount())
}

func TestWebSocketJoinForbidden(t *testing.T) {
	env := newTestEnv(t)
	addr := env.serve(t)

	conn := env.dial(t, addr, outsider)
	send(t, conn, delivery.EventJoinDelivery, delivery.RoomRequest{DeliveryID: "D1"})

	got := receive(t, conn)
	assert.Equal(t, delivery.EventError, got.Event)
	var ctrl realtime.ControlError
	require.NoError(t, json.Unmarshal(got.Data, &ctrl))
	assert.Equal(t, delivery.EventJoinDelivery, ctrl.Event)
	assert.Equal(t, "D1", ctrl.DeliveryID)
	assert.Empty(t, env.hub.Registry().MembersOf("D1"))
}

func TestWebSocketLeaveStopsDelivery(t *testing.T) {
	env := newTestEnv(t)
	addr := env.serve(t)

	customer := env.dial(t, addr, sender)
	agent := env.dial(t, addr, courier)
	join(t, customer, "D1")
	join(t, agent, "D1")

	send(t, customer, delivery.EventLeaveDelivery, delivery.RoomRequest{DeliveryID: "D1"})
	left := receive(t, customer)
	assert.Equal(t, delivery.EventLeft, left.Event)

	send(t, agent, delivery.EventStatusUpdate, delivery.StatusUpdateEvent{DeliveryID: "D1", Status: delivery.StatusPickedUp})

	require.NoError(t, customer.SetReadDeadline(time.Now().Add(200*time.Millisecond)))
	_, _, err := customer.ReadMessage()
	require.Error(t, err)
	var netErr net.Error
	if assert.ErrorAs(t, err, &netErr) {
		assert.True(t, netErr.Timeout())
	}
}

func TestWebSocketRejectsMissingToken(t *testing.T) {
	env := newTestEnv(t)
	addr := env.serve(t)

	u := url.URL{Scheme: "ws", Host: addr, Path: "/ws"}
	_, resp, err := gws.DefaultDialer.Dial(u.String(), nil)
	require.ErrorIs(t, err, gws.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestWebSocketDisconnectCleansUp(t *testing.T) {
	env := newTestEnv(t)
	addr := env.serve(t)

	conn := env.dial(t, addr, sender)
	join(t, conn, "D1")
	require.Equal(t, 1, env.hub.ConnectionCount())

	require.NoError(t, conn.Close())

	assert.Eventually(t, func() bool {
		return env.hub.ConnectionCount() == 0 && len(env.hub.Registry().MembersOf("D1")) == 0
	}, 2*time.Second, 20*time.Millisecond)
}
