package api

import (
	"context"
	"sync"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/DevHoji/smart-Delivery-sub001/modules/realtime"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

const frameTimeout = 5 * time.Second

// wsConn adapts a Fiber WebSocket connection to realtime.Sink. Frames are
// queued on a bounded channel and written by a single writer goroutine.
type wsConn struct {
	id   string
	ws   *websocket.Conn
	cfg  TransportConfig
	send chan []byte

	done       chan struct{}
	closeOnce  sync.Once
	writerDone chan struct{}
}

var _ realtime.Sink = (*wsConn)(nil)

func newWSConn(ws *websocket.Conn, cfg TransportConfig) *wsConn {
	return &wsConn{
		id:         uuid.New().String(),
		ws:         ws,
		cfg:        cfg,
		send:       make(chan []byte, cfg.SendBuffer),
		done:       make(chan struct{}),
		writerDone: make(chan struct{}),
	}
}

func (c *wsConn) ID() string { return c.id }

// Send queues a frame without blocking.
func (c *wsConn) Send(frame []byte) error {
	select {
	case <-c.done:
		return realtime.ErrSessionClosed
	default:
	}
	select {
	case c.send <- frame:
		return nil
	default:
		return realtime.ErrSendQueueFull
	}
}

// Close stops the writer, which closes the socket and ends the read loop.
func (c *wsConn) Close() error {
	c.closeOnce.Do(func() { close(c.done) })
	return nil
}

func (c *wsConn) writePump() {
	ticker := time.NewTicker(c.cfg.pingPeriod())
	defer func() {
		ticker.Stop()
		_ = c.ws.Close()
		close(c.writerDone)
	}()

	for {
		select {
		case frame := <-c.send:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.ws.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-c.done:
			_ = c.ws.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			_ = c.ws.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		}
	}
}

// handleWebSocket serves one authenticated live connection. Inbound frames
// are handled strictly in arrival order.
func (m *APIModule) handleWebSocket(ws *websocket.Conn) {
	identity, _ := ws.Locals(IdentityContextKey).(delivery.Identity)

	conn := newWSConn(ws, m.transport)
	session := m.hub.Connect(conn, identity)
	go conn.writePump()

	defer func() {
		session.OnDisconnect()
		<-conn.writerDone
	}()

	ws.SetReadLimit(m.transport.MaxMessageSize)
	_ = ws.SetReadDeadline(time.Now().Add(m.transport.PongWait))
	ws.SetPongHandler(func(string) error {
		return ws.SetReadDeadline(time.Now().Add(m.transport.PongWait))
	})

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseAbnormalClosure) {
				m.logger.Warn("WebSocket read error", "conn_id", conn.ID(), "error", err.Error())
			}
			return
		}
		// Any traffic proves the peer is alive.
		_ = ws.SetReadDeadline(time.Now().Add(m.transport.PongWait))

		ctx, cancel := context.WithTimeout(context.Background(), frameTimeout)
		m.hub.HandleFrame(ctx, session, data)
		cancel()
	}
}
