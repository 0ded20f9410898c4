package handlers

import (
	"bufio"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/utilityops/records-service/internal/service"
)

// DocumentsHandler exposes document bundle endpoints.
type DocumentsHandler struct {
	documents *service.DocumentService
	logger    *zap.Logger
}

// NewDocumentsHandler constructs handler.
func NewDocumentsHandler(documentService *service.DocumentService, logger *zap.Logger) *DocumentsHandler {
	return &DocumentsHandler{documents: documentService, logger: logger}
}

// Upload handles POST /documents/upload (multipart, accountNumber form value).
func (h *DocumentsHandler) Upload(c *fiber.Ctx) error {
	files, err := uploadedFiles(c)
	if err != nil {
		return err
	}
	bundle, err := h.documents.Upload(c.UserContext(), c.FormValue("accountNumber"), files)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":   "Documents uploaded successfully",
		"documents": bundle,
	})
}

// List handles GET /documents.
func (h *DocumentsHandler) List(c *fiber.Ctx) error {
	bundles, err := h.documents.List(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(bundles)
}

// Get handles GET /documents/:accountNumber.
func (h *DocumentsHandler) Get(c *fiber.Ctx) error {
	bundle, err := h.documents.Get(c.UserContext(), c.Params("accountNumber"))
	if err != nil {
		return err
	}
	return c.JSON(bundle)
}

// Update handles PUT /documents/:accountNumber (multipart).
func (h *DocumentsHandler) Update(c *fiber.Ctx) error {
	files, err := uploadedFiles(c)
	if err != nil {
		return err
	}
	bundle, err := h.documents.Update(c.UserContext(), c.Params("accountNumber"), files)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":   "Documents updated successfully",
		"documents": bundle,
	})
}

// Delete handles DELETE /documents/:accountNumber.
func (h *DocumentsHandler) Delete(c *fiber.Ctx) error {
	if err := h.documents.Delete(c.UserContext(), c.Params("accountNumber")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"message": "Documents deleted successfully"})
}

// Download handles GET /documents/:accountNumber/download, streaming a zip.
func (h *DocumentsHandler) Download(c *fiber.Ctx) error {
	accountNumber := c.Params("accountNumber")
	write, err := h.documents.Archive(c.UserContext(), accountNumber)
	if err != nil {
		return err
	}

	c.Attachment(accountNumber + "-documents.zip")
	c.Set(fiber.HeaderContentType, "application/zip")
	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		if err := write(w); err != nil {
			// Headers are already sent; the client sees a truncated archive.
			return
		}
		if err := w.Flush(); err != nil {
			h.logger.Debug("archive flush failed", zap.String("account_number", accountNumber), zap.Error(err))
		}
	})
	return nil
}
