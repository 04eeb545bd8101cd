package client

import (
	"context"
	"net"
	"sync"
	"testing"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testToken = "good-token"

// serveApp runs app on a random local port and returns its base URL.
func serveApp(t *testing.T, app *fiber.App) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	go func() { _ = app.Listener(ln) }()
	t.Cleanup(func() { _ = app.Shutdown() })
	return "http://" + ln.Addr().String()
}

func newMessagesAPI() *fiber.App {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	var (
		mu     sync.Mutex
		stored []delivery.Message
	)

	app.Use(func(c *fiber.Ctx) error {
		if c.Get(fiber.HeaderAuthorization) != "Bearer "+testToken {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "unauthorized", "message": "bad token"})
		}
		return c.Next()
	})
	app.Post("/api/v1/deliveries/:id/messages", func(c *fiber.Ctx) error {
		if c.Params("id") == "locked" {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{"error": "forbidden", "message": "no"})
		}
		var body struct {
			Content string `json:"content"`
		}
		if err := c.BodyParser(&body); err != nil {
			return fiber.ErrBadRequest
		}
		mu.Lock()
		defer mu.Unlock()
		msg := delivery.Message{
			ID:         "m" + string(rune('1'+len(stored))),
			DeliveryID: c.Params("id"),
			SenderID:   "u1",
			Content:    body.Content,
			CreatedAt:  time.Now().UTC(),
		}
		stored = append(stored, msg)
		return c.Status(fiber.StatusCreated).JSON(msg)
	})
	app.Get("/api/v1/deliveries/:id/messages", func(c *fiber.Ctx) error {
		if c.Params("id") == "missing" {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_found", "message": "Delivery not found"})
		}
		mu.Lock()
		defer mu.Unlock()
		return c.JSON(fiber.Map{"deliveryId": c.Params("id"), "messages": stored, "total": len(stored)})
	})
	return app
}

func TestHTTPMessageStoreCreateAndList(t *testing.T) {
	base := serveApp(t, newMessagesAPI())
	s := NewHTTPMessageStore(base+"/", testToken)
	ctx := context.Background()

	m1, err := s.Create(ctx, "first", "u1", "D1")
	require.NoError(t, err)
	assert.Equal(t, "m1", m1.ID)
	assert.Equal(t, "first", m1.Content)

	_, err = s.Create(ctx, "second", "u1", "D1")
	require.NoError(t, err)

	list, err := s.List(ctx, "D1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "first", list[0].Content)
	assert.Equal(t, "second", list[1].Content)
}

func TestHTTPMessageStoreErrors(t *testing.T) {
	base := serveApp(t, newMessagesAPI())
	ctx := context.Background()

	_, err := NewHTTPMessageStore(base, "wrong").List(ctx, "D1")
	assert.ErrorIs(t, err, ErrUnauthorized)

	s := NewHTTPMessageStore(base, testToken)
	_, err = s.Create(ctx, "x", "u1", "locked")
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = s.List(ctx, "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestHTTPMessageStoreUnreachable(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()

	_, err = NewHTTPMessageStore("http://"+addr, testToken).List(ctx, "D1")
	assert.Error(t, err)
}

func TestHTTPMessageStoreHonoursContext(t *testing.T) {
	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Get("/api/v1/deliveries/:id/messages", func(c *fiber.Ctx) error {
		time.Sleep(500 * time.Millisecond)
		return c.JSON(fiber.Map{"messages": []delivery.Message{}})
	})
	s := NewHTTPMessageStore(serveApp(t, app), testToken)

	cancelled, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := s.List(cancelled, "D1")
	assert.ErrorIs(t, err, context.Canceled)

	expired, cancelExpired := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancelExpired()
	_, err = s.Create(expired, "late", "u1", "D1")
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	inflight, cancelInflight := context.WithCancel(context.Background())
	time.AfterFunc(50*time.Millisecond, cancelInflight)
	start := time.Now()
	_, err = s.List(inflight, "D1")
	assert.ErrorIs(t, err, context.Canceled)
	assert.Less(t, time.Since(start), 400*time.Millisecond)
}
