package dto

import (
	"time"

	"github.com/utilityops/records-service/internal/domain"
)

// CreateUserRequest payload for POST /users/create-user.
type CreateUserRequest struct {
	FullName   string      `json:"fullname"`
	Position   string      `json:"position"`
	EmployeeID string      `json:"employeeID"`
	Username   string      `json:"username"`
	Password   string      `json:"password"`
	Role       domain.Role `json:"role"`
}

// UserResponse is a user without credentials.
type UserResponse struct {
	ID         string      `json:"id"`
	FullName   string      `json:"fullname"`
	Position   string      `json:"position"`
	EmployeeID string      `json:"employeeID"`
	Username   string      `json:"username"`
	Role       domain.Role `json:"role"`
	CreatedAt  time.Time   `json:"createdAt"`
}

// NewUserResponse strips the password hash.
func NewUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		ID:         u.ID,
		FullName:   u.FullName,
		Position:   u.Position,
		EmployeeID: u.EmployeeID,
		Username:   u.Username,
		Role:       u.Role,
		CreatedAt:  u.CreatedAt,
	}
}

// NewUserResponses converts a list.
func NewUserResponses(users []domain.User) []UserResponse {
	out := make([]UserResponse, 0, len(users))
	for i := range users {
		out = append(out, NewUserResponse(&users[i]))
	}
	return out
}
