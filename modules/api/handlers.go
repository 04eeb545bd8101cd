package api

import (
	"errors"
	"log"
	"strings"
	"time"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/DevHoji/smart-Delivery-sub001/modules/store"
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
)

const (
	maxMessageLength     = 2000
	defaultLocationLimit = 50
	maxLocationLimit     = 500
)

// setupRoutes configures all HTTP routes.
func (m *APIModule) setupRoutes(app *fiber.App) {
	app.Get("/health", m.healthHandler)
	app.Get("/stats", m.statsHandler)

	// WebSocket endpoint
	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}, WebSocketAuthMiddleware(m.authPort))
	app.Get("/ws", websocket.New(m.handleWebSocket, websocket.Config{
		HandshakeTimeout: 10 * time.Second,
	}))

	// REST API v1
	api := app.Group("/api/v1", AuthMiddleware(m.authPort))

	api.Post("/deliveries", m.createDelivery)
	api.Get("/deliveries/:id", m.getDelivery)
	api.Patch("/deliveries/:id/status", m.updateStatus)
	api.Put("/deliveries/:id/agent", m.assignAgent)

	api.Post("/deliveries/:id/messages", m.createMessage)
	api.Get("/deliveries/:id/messages", m.listMessages)

	api.Post("/deliveries/:id/locations", m.createLocation)
	api.Get("/deliveries/:id/locations", m.listLocations)
}

// healthHandler handles GET /health.
func (m *APIModule) healthHandler(c *fiber.Ctx) error {
	details := map[string]any{
		"module":      "api",
		"connections": m.hub.ConnectionCount(),
	}
	if !m.startTime.IsZero() {
		details["uptime"] = time.Since(m.startTime).Round(time.Second).String()
	}
	return c.JSON(HealthResponse{
		Status:  "healthy",
		Details: details,
	})
}

// statsHandler handles GET /stats.
func (m *APIModule) statsHandler(c *fiber.Ctx) error {
	return c.JSON(m.hub.Stats())
}

// createDelivery handles POST /api/v1/deliveries.
func (m *APIModule) createDelivery(c *fiber.Ctx) error {
	var req CreateDeliveryRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Pickup) == "" || strings.TrimSpace(req.Dropoff) == "" {
		return badRequest(c, "pickup and dropoff are required")
	}

	d, err := m.storePort.CreateDelivery(c.UserContext(), callerFrom(c), req.Pickup, req.Dropoff)
	if err != nil {
		return m.handleStoreError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

// getDelivery handles GET /api/v1/deliveries/:id.
func (m *APIModule) getDelivery(c *fiber.Ctx) error {
	d, err := m.storePort.GetDelivery(c.UserContext(), callerFrom(c), c.Params("id"))
	if err != nil {
		return m.handleStoreError(c, err)
	}
	return c.JSON(d)
}

// updateStatus handles PATCH /api/v1/deliveries/:id/status.
func (m *APIModule) updateStatus(c *fiber.Ctx) error {
	var req UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if !req.Status.Valid() {
		return badRequest(c, "Unknown status")
	}

	d, err := m.storePort.UpdateStatus(c.UserContext(), callerFrom(c), c.Params("id"), req.Status)
	if err != nil {
		return m.handleStoreError(c, err)
	}
	return c.JSON(d)
}

// assignAgent handles PUT /api/v1/deliveries/:id/agent.
func (m *APIModule) assignAgent(c *fiber.Ctx) error {
	var req AssignAgentRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	caller := callerFrom(c)
	if req.AgentID == "" && caller.Role == delivery.RoleAgent {
		req.AgentID = caller.UserID
	}
	if req.AgentID == "" {
		return badRequest(c, "agentId is required")
	}

	d, err := m.storePort.AssignAgent(c.UserContext(), caller, c.Params("id"), req.AgentID)
	if err != nil {
		return m.handleStoreError(c, err)
	}
	return c.JSON(d)
}

// createMessage handles POST /api/v1/deliveries/:id/messages.
func (m *APIModule) createMessage(c *fiber.Ctx) error {
	var req CreateMessageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if strings.TrimSpace(req.Content) == "" {
		return badRequest(c, "content is required")
	}
	if len(req.Content) > maxMessageLength {
		return badRequest(c, "content is too long")
	}

	msg, err := m.storePort.CreateMessage(c.UserContext(), callerFrom(c), c.Params("id"), req.Content)
	if err != nil {
		return m.handleStoreError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(msg)
}

// listMessages handles GET /api/v1/deliveries/:id/messages.
func (m *APIModule) listMessages(c *fiber.Ctx) error {
	deliveryID := c.Params("id")
	messages, err := m.storePort.ListMessages(c.UserContext(), callerFrom(c), deliveryID)
	if err != nil {
		return m.handleStoreError(c, err)
	}
	if messages == nil {
		messages = []delivery.Message{}
	}
	return c.JSON(MessageListResponse{
		DeliveryID: deliveryID,
		Messages:   messages,
		Total:      len(messages),
	})
}

// createLocation handles POST /api/v1/deliveries/:id/locations.
func (m *APIModule) createLocation(c *fiber.Ctx) error {
	var req CreateLocationRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "Invalid request body")
	}
	if req.Latitude == nil || req.Longitude == nil {
		return badRequest(c, "latitude and longitude are required")
	}

	loc, err := m.storePort.CreateLocation(c.UserContext(), callerFrom(c), c.Params("id"), *req.Latitude, *req.Longitude)
	if err != nil {
		return m.handleStoreError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(loc)
}

// listLocations handles GET /api/v1/deliveries/:id/locations.
func (m *APIModule) listLocations(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultLocationLimit)
	if limit <= 0 || limit > maxLocationLimit {
		limit = defaultLocationLimit
	}

	deliveryID := c.Params("id")
	locations, err := m.storePort.ListLocations(c.UserContext(), callerFrom(c), deliveryID, limit)
	if err != nil {
		return m.handleStoreError(c, err)
	}
	if locations == nil {
		locations = []delivery.Location{}
	}
	return c.JSON(LocationListResponse{
		DeliveryID: deliveryID,
		Locations:  locations,
		Total:      len(locations),
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
		Error:   "bad_request",
		Message: message,
	})
}

// handleStoreError maps store errors to HTTP responses without exposing
// internals.
func (m *APIModule) handleStoreError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, store.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(ErrorResponse{
			Error:   "forbidden",
			Message: "You do not have access to this delivery",
		})
	case errors.Is(err, store.ErrNotFound):
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error:   "not_found",
			Message: "Delivery not found",
		})
	case errors.Is(err, delivery.ErrInvalidTransition):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "invalid_transition",
			Message: err.Error(),
		})
	case errors.Is(err, store.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error:   "conflict",
			Message: "Delivery was modified concurrently, retry",
		})
	case errors.Is(err, store.ErrInvalidInput):
		return badRequest(c, err.Error())
	default:
		log.Printf("[api] Internal error: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
			Error:   "internal_error",
			Message: "An internal error occurred",
		})
	}
}
