package domain

import "time"

// Role enumerates operator roles.
type Role string

const (
	RoleDataEntry   Role = "data_entry"
	RoleDataViewing Role = "data_viewing"
)

// Valid reports whether r is one of the two supported roles.
func (r Role) Valid() bool {
	return r == RoleDataEntry || r == RoleDataViewing
}

// Positions used to look up approvers for the name-change form.
const (
	PositionCommercialOfficer = "Commercial Officer"
	PositionAreaEngineer      = "Area Engineer"
	PositionONMEngineer       = "ONM Engineer"
)

// User is an operator account.
type User struct {
	ID           string
	FullName     string
	Position     string
	EmployeeID   string
	Username     string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
