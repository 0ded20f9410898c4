package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/utilityops/records-service/internal/api/dto"
	"github.com/utilityops/records-service/internal/service"
)

// UsersHandler manages operator accounts and approver lookups.
type UsersHandler struct {
	users *service.UserService
}

// NewUsersHandler constructs handler.
func NewUsersHandler(userService *service.UserService) *UsersHandler {
	return &UsersHandler{users: userService}
}

// Create handles POST /users/create-user.
func (h *UsersHandler) Create(c *fiber.Ctx) error {
	var req dto.CreateUserRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	user, err := h.users.Create(c.UserContext(), service.CreateUserInput{
		FullName:   req.FullName,
		Position:   req.Position,
		EmployeeID: req.EmployeeID,
		Username:   req.Username,
		Password:   req.Password,
		Role:       req.Role,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{
		"message": "User created successfully",
		"user":    dto.NewUserResponse(user),
	})
}

// List handles GET /users?position=.
func (h *UsersHandler) List(c *fiber.Ctx) error {
	return h.respondByPosition(c, c.Query("position"))
}

// ByPosition serves a fixed approver lookup such as GET /users/area-engineers.
func (h *UsersHandler) ByPosition(position string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		return h.respondByPosition(c, position)
	}
}

func (h *UsersHandler) respondByPosition(c *fiber.Ctx, position string) error {
	users, err := h.users.ListByPosition(c.UserContext(), position)
	if err != nil {
		return err
	}
	return c.JSON(dto.NewUserResponses(users))
}
