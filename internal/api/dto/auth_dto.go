package dto

import "github.com/utilityops/records-service/internal/domain"

// LoginRequest payload for POST /auth/login.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// LoginResponse mirrors what the front end stores after login.
type LoginResponse struct {
	Token      string      `json:"token"`
	Role       domain.Role `json:"role"`
	FullName   string      `json:"fullname"`
	EmployeeID string      `json:"employeeID"`
}

// ChangePasswordRequest payload.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}
