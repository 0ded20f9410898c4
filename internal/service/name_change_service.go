package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/events"
	"github.com/utilityops/records-service/internal/observability"
	"github.com/utilityops/records-service/internal/repository"
	apperrors "github.com/utilityops/records-service/pkg/util/errorutil"
)

// NameChangeService runs the three-level approval workflow.
type NameChangeService struct {
	requests   repository.NameChangeRepository
	dispatcher events.Dispatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// NameChangeDependencies bundles collaborators for the workflow service.
type NameChangeDependencies struct {
	NameChangeRepo repository.NameChangeRepository
	Dispatcher     events.Dispatcher
	Metrics        *observability.Metrics
	Logger         *zap.Logger
}

// ApproverAssignment names who decides one approval level.
type ApproverAssignment struct {
	Position   string
	EmployeeID string
}

// CreateNameChangeInput describes a new request.
type CreateNameChangeInput struct {
	AccountNumber  string
	CurrentName    string
	CurrentAddress string
	NewName        string
	ChangeMethod   string
	Approvers      [3]ApproverAssignment
}

// NewNameChangeService constructs the service.
func NewNameChangeService(deps NameChangeDependencies) *NameChangeService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NameChangeService{
		requests:   deps.NameChangeRepo,
		dispatcher: deps.Dispatcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create records a request prepared by the caller. All slots start NotApproved.
func (s *NameChangeService) Create(ctx context.Context, preparer *domain.User, input CreateNameChangeInput) (*domain.NameChangeRequest, error) {
	if preparer == nil {
		return nil, apperrors.NewUnauthorized("Not authorized")
	}
	now := s.now()
	req := &domain.NameChangeRequest{
		AccountNumber:  strings.TrimSpace(input.AccountNumber),
		CurrentName:    strings.TrimSpace(input.CurrentName),
		CurrentAddress: strings.TrimSpace(input.CurrentAddress),
		NewName:        strings.TrimSpace(input.NewName),
		ChangeMethod:   strings.TrimSpace(input.ChangeMethod),
		Preparer: domain.Signature{
			EmployeeID: preparer.EmployeeID,
			Name:       preparer.FullName,
			Date:       &now,
		},
	}

	var missing []string
	require := func(name, val string) {
		if val == "" {
			missing = append(missing, name)
		}
	}
	require("accountNumber", req.AccountNumber)
	require("currentName", req.CurrentName)
	require("currentAddress", req.CurrentAddress)
	require("newName", req.NewName)
	require("changeMethod", req.ChangeMethod)
	require("preparerEmployeeID", req.Preparer.EmployeeID)
	require("preparerName", req.Preparer.Name)
	for i, a := range input.Approvers {
		level := i + 1
		slot := domain.ApprovalSlot{
			Position:   strings.TrimSpace(a.Position),
			EmployeeID: strings.TrimSpace(a.EmployeeID),
			Status:     domain.ApprovalNotApproved,
		}
		require(fmt.Sprintf("approval%dPosition", level), slot.Position)
		require(fmt.Sprintf("approval%dEmployeeID", level), slot.EmployeeID)
		req.Approvals[i] = slot
	}
	if len(missing) > 0 {
		return nil, apperrors.NewValidationError("Missing required fields: "+strings.Join(missing, ", "),
			map[string]any{"missing": missing})
	}

	if err := s.requests.Create(ctx, req); err != nil {
		return nil, storeError(err, "Name change form", nil)
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:          events.EventNameChangeCreated,
		AccountNumber: req.AccountNumber,
		Actor:         actorOf(preparer),
		Payload: events.NameChangeCreatedPayload{
			RequestID: req.ID,
			NewName:   req.NewName,
			Approvers: req.Approvals,
		},
	})
	return req, nil
}

// SetApprovalStatus records the decision of one level. The status is checked before
// anything is read, and only the approver assigned to that level may decide it.
func (s *NameChangeService) SetApprovalStatus(ctx context.Context, approver *domain.User, id string, level int, status domain.ApprovalStatus) (*domain.NameChangeRequest, error) {
	if !status.IsDecision() {
		return nil, apperrors.NewInvalidStatus(`Invalid status. Must be "Approved" or "Rejected"`)
	}
	if !domain.ValidApprovalLevel(level) {
		return nil, apperrors.NewValidationError("approval level must be 1, 2 or 3", map[string]any{"level": level})
	}
	if approver == nil {
		return nil, apperrors.NewUnauthorized("Not authorized")
	}

	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Approval(level).EmployeeID != approver.EmployeeID {
		return nil, apperrors.NewForbidden(fmt.Sprintf("Only the assigned approver may decide approval %d", level))
	}

	updated, err := s.requests.SetApprovalStatus(ctx, id, level, status, s.now())
	if err != nil {
		return nil, storeError(err, "Name change form", map[string]any{"id": id})
	}
	s.metrics.RecordApprovalDecision(level, string(status))

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:          events.EventApprovalDecided,
		AccountNumber: updated.AccountNumber,
		Actor:         actorOf(approver),
		Payload: events.ApprovalDecidedPayload{
			RequestID:     updated.ID,
			Level:         level,
			Status:        status,
			FullyApproved: updated.FullyApproved(),
		},
	})
	return updated, nil
}

// Examine stamps the caller as the examiner of a request.
func (s *NameChangeService) Examine(ctx context.Context, examiner *domain.User, id string) (*domain.NameChangeRequest, error) {
	if examiner == nil {
		return nil, apperrors.NewUnauthorized("Not authorized")
	}
	current, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if current.Examiner.Signed() {
		return nil, apperrors.NewValidationError("Name change form already examined",
			map[string]any{"id": id, "examiner": current.Examiner.EmployeeID})
	}

	now := s.now()
	updated, err := s.requests.SetExaminer(ctx, id, domain.Signature{
		EmployeeID: examiner.EmployeeID,
		Name:       examiner.FullName,
		Date:       &now,
	})
	if err != nil {
		return nil, storeError(err, "Name change form", map[string]any{"id": id})
	}

	publishEvent(ctx, s.dispatcher, s.logger, events.Event{
		Type:          events.EventNameChangeExamined,
		AccountNumber: updated.AccountNumber,
		Actor:         actorOf(examiner),
		Payload:       events.NameChangeExaminedPayload{RequestID: updated.ID},
	})
	return updated, nil
}

// Get fetches a request by id.
func (s *NameChangeService) Get(ctx context.Context, id string) (*domain.NameChangeRequest, error) {
	req, err := s.requests.GetByID(ctx, id)
	if err != nil {
		return nil, storeError(err, "Name change form", map[string]any{"id": id})
	}
	return req, nil
}

// ListAll returns every request, newest first.
func (s *NameChangeService) ListAll(ctx context.Context) ([]domain.NameChangeRequest, error) {
	return s.list(ctx, repository.NameChangeFilter{})
}

// ListByAccountNumber returns the requests for one account; none is NotFound.
func (s *NameChangeService) ListByAccountNumber(ctx context.Context, accountNumber string) ([]domain.NameChangeRequest, error) {
	reqs, err := s.list(ctx, repository.NameChangeFilter{AccountNumber: accountNumber})
	if err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, apperrors.NewNotFound("Name change forms", map[string]any{"accountNumber": accountNumber})
	}
	return reqs, nil
}

// ListByApproverAtLevel matches the employee on one level only.
func (s *NameChangeService) ListByApproverAtLevel(ctx context.Context, level int, employeeID string) ([]domain.NameChangeRequest, error) {
	if !domain.ValidApprovalLevel(level) {
		return nil, apperrors.NewValidationError("approval level must be 1, 2 or 3", map[string]any{"level": level})
	}
	if strings.TrimSpace(employeeID) == "" {
		return []domain.NameChangeRequest{}, nil
	}
	return s.list(ctx, repository.NameChangeFilter{ApproverLevel: level, ApproverEmployeeID: employeeID})
}

// ListMyApprovals returns every request on which the employee holds any level.
func (s *NameChangeService) ListMyApprovals(ctx context.Context, employeeID string) ([]domain.NameChangeRequest, error) {
	if strings.TrimSpace(employeeID) == "" {
		return []domain.NameChangeRequest{}, nil
	}
	return s.list(ctx, repository.NameChangeFilter{AnyApproverEmployeeID: employeeID})
}

// ListPendingExamination returns requests with no examiner yet.
func (s *NameChangeService) ListPendingExamination(ctx context.Context) ([]domain.NameChangeRequest, error) {
	examined := false
	return s.list(ctx, repository.NameChangeFilter{Examined: &examined})
}

// ListApprovedExamined returns fully approved requests that have been examined.
func (s *NameChangeService) ListApprovedExamined(ctx context.Context) ([]domain.NameChangeRequest, error) {
	examined := true
	return s.list(ctx, repository.NameChangeFilter{Examined: &examined, FullyApproved: true})
}

func (s *NameChangeService) list(ctx context.Context, filter repository.NameChangeFilter) ([]domain.NameChangeRequest, error) {
	reqs, err := s.requests.List(ctx, filter)
	if err != nil {
		return nil, apperrors.NewStoreError(err)
	}
	if reqs == nil {
		reqs = []domain.NameChangeRequest{}
	}
	return reqs, nil
}
