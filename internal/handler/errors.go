package handler

import (
	"errors"
	"log"

	"go-opname-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Helper untuk ambil User Info dari JWT Context (set by auth middleware)
func getActor(c *fiber.Ctx) service.Actor {
	actor := service.Actor{UserID: "system"}
	if v, ok := c.Locals("user_id").(string); ok {
		actor.UserID = v
	}
	if v, ok := c.Locals("user_name").(string); ok {
		actor.Name = v
	}
	if v, ok := c.Locals("user_email").(string); ok {
		actor.Email = v
	}
	if v, ok := c.Locals("user_team_id").(uuid.UUID); ok {
		actor.TeamID = v
	}
	return actor
}

// respondError maps service errors to HTTP status codes
func respondError(c *fiber.Ctx, err error) error {
	var vErr *service.ValidationError
	switch {
	case errors.As(err, &vErr):
		body := fiber.Map{"error": vErr.Error()}
		if vErr.Field != "" {
			body["field"] = vErr.Field
		}
		return c.Status(400).JSON(body)
	case errors.Is(err, service.ErrNotFound):
		return c.Status(404).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrInvalidState), errors.Is(err, service.ErrConflict):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	default:
		log.Printf("%s %s: %v", c.Method(), c.Path(), err)
		return c.Status(500).JSON(fiber.Map{"error": "Internal Server Error"})
	}
}
