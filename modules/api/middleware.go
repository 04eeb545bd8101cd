package api

import (
	"errors"
	"log"
	"strings"

	"github.com/DevHoji/smart-Delivery-sub001/domain/delivery"
	"github.com/DevHoji/smart-Delivery-sub001/modules/auth"
	"github.com/gofiber/fiber/v2"
)

// IdentityContextKey is the key used to store the caller in the Fiber context.
const IdentityContextKey = "identity"

// AuthMiddleware validates the bearer token in the Authorization header.
func AuthMiddleware(authPort auth.AuthPort) fiber.Handler {
	return authenticate(authPort, false)
}

// WebSocketAuthMiddleware also accepts the token query parameter, for
// clients that cannot set headers on a WebSocket upgrade. Mount it on the
// upgrade route only.
func WebSocketAuthMiddleware(authPort auth.AuthPort) fiber.Handler {
	return authenticate(authPort, true)
}

func authenticate(authPort auth.AuthPort, allowQuery bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var token string
		if allowQuery {
			token = c.Query("token")
		}
		if authHeader := c.Get(fiber.HeaderAuthorization); authHeader != "" {
			if !strings.HasPrefix(authHeader, "Bearer ") {
				return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
					Error:   "unauthorized",
					Message: "Invalid authorization header format. Use: Bearer <token>",
				})
			}
			token = strings.TrimPrefix(authHeader, "Bearer ")
		}

		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Token is required",
			})
		}

		identity, err := authPort.ValidateToken(c.UserContext(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidToken) && !errors.Is(err, auth.ErrExpiredToken) {
				log.Printf("[api] Token validation error: %v", err)
			}
			return c.Status(fiber.StatusUnauthorized).JSON(ErrorResponse{
				Error:   "unauthorized",
				Message: "Invalid or expired token",
			})
		}

		c.Locals(IdentityContextKey, identity)
		return c.Next()
	}
}

// callerFrom returns the identity stored by AuthMiddleware.
func callerFrom(c *fiber.Ctx) delivery.Identity {
	identity, _ := c.Locals(IdentityContextKey).(delivery.Identity)
	return identity
}
