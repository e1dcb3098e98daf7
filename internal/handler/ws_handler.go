package handler

import (
	"go-opname-ws/internal/model"
	"go-opname-ws/internal/repository"
	"go-opname-ws/internal/ws"
	"go-opname-ws/pkg/jwt"

	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// WebSocketGuard authenticates the upgrade request. Browsers cannot set
// headers on a websocket handshake, so the token comes as ?token=.
func WebSocketGuard(userRepo repository.UserRepository) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if !websocket.IsWebSocketUpgrade(c) {
			return c.SendStatus(fiber.StatusUpgradeRequired)
		}

		claims, err := jwt.ValidateToken(c.Query("token"))
		if err != nil {
			return c.Status(401).JSON(fiber.Map{"error": "Invalid or expired token"})
		}
		user, err := userRepo.FindByID(claims.UserID)
		if err != nil || user.TokenVersion != claims.TokenVersion || !user.IsActive {
			return c.Status(401).JSON(fiber.Map{"error": "Session expired"})
		}
		if !user.HasPrivilege(model.PrivOpnameView) && !user.HasPrivilege(model.PrivProductView) {
			return c.Status(403).JSON(fiber.Map{"error": "Forbidden: requires opname:view or product:view privilege"})
		}

		c.Locals("user_team_id", user.TeamID)
		return c.Next()
	}
}

// WebSocketHandler registers the connection on the hub for its team
func WebSocketHandler(hub *ws.Hub) fiber.Handler {
	return websocket.New(func(c *websocket.Conn) {
		teamID, _ := c.Locals("user_team_id").(uuid.UUID)
		hub.Register <- &ws.Client{Conn: c, TeamID: teamID}
		defer func() { hub.Unregister <- c }()

		for {
			// Keep alive loop
			if _, _, err := c.ReadMessage(); err != nil {
				break
			}
		}
	})
}
