package handlers

import (
	"fmt"
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/utilityops/records-service/internal/api/dto"
	"github.com/utilityops/records-service/internal/service"
)

// NameChangeHandler exposes the name-change workflow.
type NameChangeHandler struct {
	nameChanges *service.NameChangeService
}

// NewNameChangeHandler constructs handler.
func NewNameChangeHandler(nameChangeService *service.NameChangeService) *NameChangeHandler {
	return &NameChangeHandler{nameChanges: nameChangeService}
}

// Create handles POST /namechange/add.
func (h *NameChangeHandler) Create(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateNameChangeRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}

	input := service.CreateNameChangeInput{
		AccountNumber:  req.AccountNumber,
		CurrentName:    req.CurrentName,
		CurrentAddress: req.CurrentAddress,
		NewName:        req.NewName,
		ChangeMethod:   req.ChangeMethod,
	}
	for i, a := range req.Approvals {
		input.Approvers[i] = service.ApproverAssignment{Position: a.Position, EmployeeID: a.EmployeeID}
	}

	nameChange, err := h.nameChanges.Create(c.UserContext(), principal.User, input)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message":    "Name change form created successfully",
		"nameChange": nameChange,
	})
}

// SetApproval handles PUT /namechange/approval{level}/:id.
func (h *NameChangeHandler) SetApproval(level int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		principal, err := currentPrincipal(c)
		if err != nil {
			return err
		}
		var req dto.ApprovalStatusRequest
		if err := parseBody(c, &req); err != nil {
			return err
		}
		nameChange, err := h.nameChanges.SetApprovalStatus(c.UserContext(), principal.User, c.Params("id"), level, req.Status)
		if err != nil {
			return err
		}
		return c.JSON(fiber.Map{
			"message":    fmt.Sprintf("Approval %d status updated successfully", level),
			"nameChange": nameChange,
		})
	}
}

// Examine handles PUT /namechange/examine/:id.
func (h *NameChangeHandler) Examine(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	nameChange, err := h.nameChanges.Examine(c.UserContext(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{
		"message":    "Name change form examined successfully",
		"nameChange": nameChange,
	})
}

// List handles GET /namechange.
func (h *NameChangeHandler) List(c *fiber.Ctx) error {
	reqs, err := h.nameChanges.ListAll(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(reqs)
}

// Get handles GET /namechange/:id.
func (h *NameChangeHandler) Get(c *fiber.Ctx) error {
	req, err := h.nameChanges.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(req)
}

// ListByConnection handles GET /namechange/connection/:accountNumber.
func (h *NameChangeHandler) ListByConnection(c *fiber.Ctx) error {
	reqs, err := h.nameChanges.ListByAccountNumber(c.UserContext(), c.Params("accountNumber"))
	if err != nil {
		return err
	}
	return c.JSON(reqs)
}

// ListByApprover handles GET /namechange/approval{level}/:employeeId.
func (h *NameChangeHandler) ListByApprover(level int) fiber.Handler {
	return func(c *fiber.Ctx) error {
		reqs, err := h.nameChanges.ListByApproverAtLevel(c.UserContext(), level, c.Params("employeeId"))
		if err != nil {
			return err
		}
		return c.JSON(reqs)
	}
}

// MyApprovals handles GET /namechange/my-approvals.
func (h *NameChangeHandler) MyApprovals(c *fiber.Ctx) error {
	principal, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	reqs, err := h.nameChanges.ListMyApprovals(c.UserContext(), principal.Session.EmployeeID)
	if err != nil {
		return err
	}
	return c.JSON(reqs)
}

// PendingExamination handles GET /namechange/pending-examination.
func (h *NameChangeHandler) PendingExamination(c *fiber.Ctx) error {
	reqs, err := h.nameChanges.ListPendingExamination(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(reqs)
}

// ApprovedExamined handles GET /namechange/approved-examined.
func (h *NameChangeHandler) ApprovedExamined(c *fiber.Ctx) error {
	reqs, err := h.nameChanges.ListApprovedExamined(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(reqs)
}
