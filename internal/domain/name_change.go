package domain

import "time"

// ApprovalStatus is the state of one approval slot.
type ApprovalStatus string

const (
	ApprovalNotApproved ApprovalStatus = "NotApproved"
	ApprovalApproved    ApprovalStatus = "Approved"
	ApprovalRejected    ApprovalStatus = "Rejected"
)

// IsDecision reports whether s is a value an approver may submit.
func (s ApprovalStatus) IsDecision() bool {
	return s == ApprovalApproved || s == ApprovalRejected
}

// ApprovalLevels enumerates the three slots of a request.
var ApprovalLevels = []int{1, 2, 3}

// ValidApprovalLevel reports whether level addresses a slot.
func ValidApprovalLevel(level int) bool {
	return level >= 1 && level <= 3
}

// ApprovalSlot is one {position, approver, status, decision date} tuple.
type ApprovalSlot struct {
	Position     string         `json:"position"`
	EmployeeID   string         `json:"employeeID"`
	Status       ApprovalStatus `json:"status"`
	DecisionDate *time.Time     `json:"decisionDate,omitempty"`
}

// Signature captures who did something and when.
type Signature struct {
	EmployeeID string     `json:"employeeID,omitempty"`
	Name       string     `json:"name,omitempty"`
	Date       *time.Time `json:"date,omitempty"`
}

// Signed reports whether the signature has been recorded.
func (s Signature) Signed() bool {
	return s.EmployeeID != ""
}

// NameChangeRequest proposes a new account holder name.
type NameChangeRequest struct {
	ID             string          `json:"id"`
	AccountNumber  string          `json:"accountNumber"`
	CurrentName    string          `json:"currentName"`
	CurrentAddress string          `json:"currentAddress"`
	NewName        string          `json:"newName"`
	ChangeMethod   string          `json:"changeMethod"`
	Preparer       Signature       `json:"preparer"`
	Examiner       Signature       `json:"examiner"`
	Approvals      [3]ApprovalSlot `json:"approvals"`
	CreatedAt      time.Time       `json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// Approval returns the slot for a 1-based level.
func (r *NameChangeRequest) Approval(level int) *ApprovalSlot {
	if !ValidApprovalLevel(level) {
		return nil
	}
	return &r.Approvals[level-1]
}

// FullyApproved reports whether all three slots are Approved.
func (r *NameChangeRequest) FullyApproved() bool {
	for i := range r.Approvals {
		if r.Approvals[i].Status != ApprovalApproved {
			return false
		}
	}
	return true
}
