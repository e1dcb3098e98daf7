package handler

import (
	"strconv"

	"go-opname-ws/internal/service"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

type OpnameHandler struct {
	service service.OpnameService
	export  service.ExportService
}

func NewOpnameHandler(s service.OpnameService, export service.ExportService) *OpnameHandler {
	return &OpnameHandler{service: s, export: export}
}

// sessionAndProduct parses :id and :product_id
func sessionAndProduct(c *fiber.Ctx) (uuid.UUID, uuid.UUID, string) {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, "Invalid session ID"
	}
	productID, err := uuid.Parse(c.Params("product_id"))
	if err != nil {
		return uuid.Nil, uuid.Nil, "Invalid product ID"
	}
	return sessionID, productID, ""
}

// GetSessions lists opname sessions of the team
// GET /api/v1/opname?status=
func (h *OpnameHandler) GetSessions(c *fiber.Ctx) error {
	sessions, err := h.service.ListSessions(getActor(c).TeamID, c.Query("status"))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sessions)
}

// CreateSession starts a new count and snapshots the catalog
// POST /api/v1/opname
func (h *OpnameHandler) CreateSession(c *fiber.Ctx) error {
	var req service.CreateOpnameRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	session, err := h.service.CreateSession(&req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.Status(201).JSON(fiber.Map{"message": "Opname session started", "data": session.ToResponse()})
}

// GET /api/v1/opname/:id
func (h *OpnameHandler) GetSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	session, err := h.service.GetSession(getActor(c).TeamID, sessionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(session.ToResponse())
}

// GET /api/v1/opname/:id/records?counted=true|false
func (h *OpnameHandler) GetRecords(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	var counted *bool
	if raw := c.Query("counted"); raw != "" {
		v, err := strconv.ParseBool(raw)
		if err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "counted must be true or false", "field": "counted"})
		}
		counted = &v
	}

	records, err := h.service.ListRecords(getActor(c).TeamID, sessionID, counted)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(records)
}

// GET /api/v1/opname/:id/summary
func (h *OpnameHandler) GetSummary(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	summary, err := h.service.GetSummary(c.UserContext(), getActor(c).TeamID, sessionID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summary)
}

// UpsertRecord saves a (partial) count for one product
// PUT /api/v1/opname/:id/records/:product_id
func (h *OpnameHandler) UpsertRecord(c *fiber.Ctx) error {
	sessionID, productID, msg := sessionAndProduct(c)
	if msg != "" {
		return c.Status(400).JSON(fiber.Map{"error": msg})
	}

	var req service.UpsertRecordRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	record, err := h.service.UpsertRecord(sessionID, productID, &req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Record saved", "data": record})
}

// POST /api/v1/opname/:id/records/:product_id/photos
func (h *OpnameHandler) AddPhoto(c *fiber.Ctx) error {
	sessionID, productID, msg := sessionAndProduct(c)
	if msg != "" {
		return c.Status(400).JSON(fiber.Map{"error": msg})
	}

	var req service.AddPhotoRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid JSON"})
	}

	photo, err := h.service.AddPhoto(sessionID, productID, &req, getActor(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(201).JSON(fiber.Map{"message": "Photo attached", "data": photo})
}

// DELETE /api/v1/opname/:id/records/:product_id/photos/:photo_id
func (h *OpnameHandler) RemovePhoto(c *fiber.Ctx) error {
	sessionID, productID, msg := sessionAndProduct(c)
	if msg != "" {
		return c.Status(400).JSON(fiber.Map{"error": msg})
	}
	photoID, err := uuid.Parse(c.Params("photo_id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid photo ID"})
	}

	if err := h.service.RemovePhoto(sessionID, productID, photoID, getActor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Photo removed"})
}

// CompleteSession finalizes the count and writes stock back
// POST /api/v1/opname/:id/complete
func (h *OpnameHandler) CompleteSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	result, err := h.service.CompleteSession(sessionID, getActor(c))
	if err != nil {
		return respondError(c, err)
	}

	return c.JSON(fiber.Map{
		"message":     "Opname session completed",
		"data":        result.Session.ToResponse(),
		"reconciled":  result.Reconciled,
		"uncounted":   result.Uncounted,
		"missing":     result.Missing,
		"adjustments": result.Adjustments,
	})
}

// GET /api/v1/opname/:id/export
func (h *OpnameHandler) ExportSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	file, err := h.export.ExportSession(getActor(c).TeamID, sessionID)
	if err != nil {
		return respondError(c, err)
	}

	c.Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Set("Content-Disposition", "attachment; filename="+file.Filename)
	return c.Send(file.Content)
}

// DELETE /api/v1/opname/:id
func (h *OpnameHandler) DeleteSession(c *fiber.Ctx) error {
	sessionID, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "Invalid session ID"})
	}

	if err := h.service.DeleteSession(sessionID, getActor(c)); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"message": "Opname session deleted"})
}
