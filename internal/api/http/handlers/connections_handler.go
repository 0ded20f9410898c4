package handlers

import (
	"bytes"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/utilityops/records-service/internal/api/dto"
	"github.com/utilityops/records-service/internal/service"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// ConnectionsHandler exposes connection endpoints.
type ConnectionsHandler struct {
	connections *service.ConnectionService
}

// NewConnectionsHandler constructs handler.
func NewConnectionsHandler(connectionService *service.ConnectionService) *ConnectionsHandler {
	return &ConnectionsHandler{connections: connectionService}
}

// Complete handles POST /connections/complete (multipart).
func (h *ConnectionsHandler) Complete(c *fiber.Ctx) error {
	var req dto.ConnectionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	files, err := uploadedFiles(c)
	if err != nil {
		return err
	}
	if _, _, err := h.connections.CreateComplete(c.UserContext(), req.ToDomain(), files); err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "Connection and documents created successfully",
	})
}

// Add handles POST /connections/add.
func (h *ConnectionsHandler) Add(c *fiber.Ctx) error {
	var req dto.ConnectionRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	conn, err := h.connections.Create(c.UserContext(), req.ToDomain())
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":    "Connection created successfully",
		"connection": conn,
	})
}

// List handles GET /connections.
func (h *ConnectionsHandler) List(c *fiber.Ctx) error {
	page, err := h.connections.List(c.UserContext(), listQuery(c))
	if err != nil {
		return err
	}
	return c.JSON(dto.ConnectionListResponse{
		Total:       page.Total,
		Page:        page.Page,
		Pages:       page.Pages,
		Connections: page.Items,
	})
}

// Export handles GET /connections/export.
func (h *ConnectionsHandler) Export(c *fiber.Ctx) error {
	var buf bytes.Buffer
	if err := h.connections.Export(c.UserContext(), &buf, listQuery(c)); err != nil {
		return err
	}
	c.Attachment("connections.xlsx")
	c.Set(fiber.HeaderContentType, xlsxContentType)
	return c.Send(buf.Bytes())
}

// Get handles GET /connections/:accountNumber.
func (h *ConnectionsHandler) Get(c *fiber.Ctx) error {
	conn, err := h.connections.Get(c.UserContext(), c.Params("accountNumber"))
	if err != nil {
		return err
	}
	return c.JSON(conn)
}

// Update handles PUT /connections/account/:accountNumber.
func (h *ConnectionsHandler) Update(c *fiber.Ctx) error {
	var req dto.ConnectionUpdateRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	conn, err := h.connections.Update(c.UserContext(), c.Params("accountNumber"), req.ToPatch())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":    "Connection updated successfully",
		"connection": conn,
	})
}

// Delete handles DELETE /connections/:accountNumber.
func (h *ConnectionsHandler) Delete(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.DeleteConnectionRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	if err := h.connections.Delete(c.UserContext(), principal.User, c.Params("accountNumber"), req.Password); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Connection and related documents deleted successfully"})
}

func listQuery(c *fiber.Ctx) service.ConnectionQuery {
	return service.ConnectionQuery{
		Search:  c.Query("search"),
		Area:    c.Query("area"),
		Purpose: c.Query("purpose"),
		Page:    queryInt(c, "page"),
		Limit:   queryInt(c, "limit"),
	}
}
