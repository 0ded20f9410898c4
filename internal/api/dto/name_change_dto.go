package dto

import "github.com/utilityops/records-service/internal/domain"

// ApproverRequest assigns one approval level.
type ApproverRequest struct {
	Position   string `json:"position"`
	EmployeeID string `json:"employeeID"`
}

// CreateNameChangeRequest payload for POST /namechange/add. The preparer is taken
// from the session.
type CreateNameChangeRequest struct {
	AccountNumber  string             `json:"accountNumber"`
	CurrentName    string             `json:"currentName"`
	CurrentAddress string             `json:"currentAddress"`
	NewName        string             `json:"newName"`
	ChangeMethod   string             `json:"changeMethod"`
	Approvals      [3]ApproverRequest `json:"approvals"`
}

// ApprovalStatusRequest payload for PUT /namechange/approvalN/:id.
type ApprovalStatusRequest struct {
	Status domain.ApprovalStatus `json:"status"`
}
