package events

import (
	"time"

	"github.com/utilityops/records-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventNameChangeCreated  EventType = "name_change_created"
	EventApprovalDecided    EventType = "approval_decided"
	EventNameChangeExamined EventType = "name_change_examined"
	EventConnectionDeleted  EventType = "connection_deleted"
)

// AllEventTypes lists every event the service publishes.
var AllEventTypes = []EventType{
	EventNameChangeCreated,
	EventApprovalDecided,
	EventNameChangeExamined,
	EventConnectionDeleted,
}

// Actor identifies the operator that caused an event.
type Actor struct {
	UserID     string `json:"userId"`
	EmployeeID string `json:"employeeId,omitempty"`
	FullName   string `json:"fullName,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID            string    `json:"id"`
	Type          EventType `json:"type"`
	AccountNumber string    `json:"accountNumber"`
	Actor         Actor     `json:"actor"`
	Timestamp     time.Time `json:"timestamp"`
	Payload       any       `json:"payload,omitempty"`
}

// NameChangeCreatedPayload payload.
type NameChangeCreatedPayload struct {
	RequestID string                 `json:"requestId"`
	NewName   string                 `json:"newName"`
	Approvers [3]domain.ApprovalSlot `json:"approvers"`
}

// ApprovalDecidedPayload payload.
type ApprovalDecidedPayload struct {
	RequestID     string                `json:"requestId"`
	Level         int                   `json:"level"`
	Status        domain.ApprovalStatus `json:"status"`
	FullyApproved bool                  `json:"fullyApproved"`
}

// NameChangeExaminedPayload payload.
type NameChangeExaminedPayload struct {
	RequestID string `json:"requestId"`
}

// ConnectionDeletedPayload payload.
type ConnectionDeletedPayload struct {
	HadDocuments bool `json:"hadDocuments"`
}
