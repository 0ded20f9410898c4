package domain

import "time"

// Session is the server-side state behind a session cookie.
type Session struct {
	ID         string    `json:"id"`
	UserID     string    `json:"userId"`
	Role       Role      `json:"role"`
	EmployeeID string    `json:"employeeId"`
	FullName   string    `json:"fullName"`
	CreatedAt  time.Time `json:"createdAt"`
	ExpiresAt  time.Time `json:"expiresAt"`
}
