package service

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	promtest "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/utilityops/records-service/internal/domain"
	"github.com/utilityops/records-service/internal/events"
	"github.com/utilityops/records-service/internal/observability"
	"github.com/utilityops/records-service/internal/testutil"
	apperrors "github.com/utilityops/records-service/pkg/util/errorutil"
)

type nameChangeFixture struct {
	store    *testutil.Store
	registry *prometheus.Registry
	events   *recorder
	svc      *NameChangeService
	preparer *domain.User
	officer  *domain.User
	engineer *domain.User
	onm      *domain.User
}

func newNameChangeFixture(t *testing.T) *nameChangeFixture {
	t.Helper()
	store := testutil.NewStore()
	reg := prometheus.NewRegistry()
	dispatcher := events.NewInMemoryDispatcher()
	rec := &recorder{}
	rec.subscribe(dispatcher, events.EventNameChangeCreated, events.EventApprovalDecided, events.EventNameChangeExamined)

	return &nameChangeFixture{
		store:    store,
		registry: reg,
		events:   rec,
		svc: NewNameChangeService(NameChangeDependencies{
			NameChangeRepo: store.NameChanges(),
			Dispatcher:     dispatcher,
			Metrics:        observability.NewMetrics(reg),
		}),
		preparer: newUser(t, store, "prep", "P1", "x", domain.RoleDataEntry),
		officer:  newUser(t, store, "officer", "CO1", "x", domain.RoleDataViewing),
		engineer: newUser(t, store, "engineer", "AE1", "x", domain.RoleDataViewing),
		onm:      newUser(t, store, "onm", "ONM1", "x", domain.RoleDataViewing),
	}
}

func (f *nameChangeFixture) input(acc string) CreateNameChangeInput {
	return CreateNameChangeInput{
		AccountNumber:  acc,
		CurrentName:    "A. Perera",
		CurrentAddress: "12 Lake Road",
		NewName:        "B. Perera",
		ChangeMethod:   "Ownership transfer",
		Approvers: [3]ApproverAssignment{
			{Position: domain.PositionCommercialOfficer, EmployeeID: f.officer.EmployeeID},
			{Position: domain.PositionAreaEngineer, EmployeeID: f.engineer.EmployeeID},
			{Position: domain.PositionONMEngineer, EmployeeID: f.onm.EmployeeID},
		},
	}
}

func (f *nameChangeFixture) create(t *testing.T, acc string) *domain.NameChangeRequest {
	t.Helper()
	req, err := f.svc.Create(context.Background(), f.preparer, f.input(acc))
	require.NoError(t, err)
	return req
}

func TestCreateNameChange(t *testing.T) {
	f := newNameChangeFixture(t)
	req := f.create(t, "ACC-001")

	assert.NotEmpty(t, req.ID)
	assert.Equal(t, "P1", req.Preparer.EmployeeID)
	assert.Equal(t, "User prep", req.Preparer.Name)
	assert.NotNil(t, req.Preparer.Date)
	assert.False(t, req.Examiner.Signed())
	for _, slot := range req.Approvals {
		assert.Equal(t, domain.ApprovalNotApproved, slot.Status)
		assert.Nil(t, slot.DecisionDate)
	}
	assert.Equal(t, []events.EventType{events.EventNameChangeCreated}, f.events.types())
}

func TestCreateNameChangeMissingFields(t *testing.T) {
	f := newNameChangeFixture(t)
	in := f.input("ACC-001")
	in.NewName = " "
	in.Approvers[1].EmployeeID = ""

	_, err := f.svc.Create(context.Background(), f.preparer, in)
	require.Error(t, err)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
	assert.Contains(t, err.Error(), "newName")
	assert.Contains(t, err.Error(), "approval2EmployeeID")
}

func TestSetApprovalStatusRejectsUnknownStatus(t *testing.T) {
	f := newNameChangeFixture(t)
	req := f.create(t, "ACC-001")

	for _, id := range []string{req.ID, "does-not-exist"} {
		_, err := f.svc.SetApprovalStatus(context.Background(), f.officer, id, 1, domain.ApprovalStatus("Maybe"))
		require.Error(t, err)
		assert.True(t, apperrors.IsCode(err, apperrors.CodeInvalidStatus))
		assert.Equal(t, `Invalid status. Must be "Approved" or "Rejected"`, err.Error())
	}

	stored, err := f.svc.Get(context.Background(), req.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalNotApproved, stored.Approvals[0].Status)
}

func TestSetApprovalStatusTouchesOneLevel(t *testing.T) {
	f := newNameChangeFixture(t)
	req := f.create(t, "ACC-001")

	updated, err := f.svc.SetApprovalStatus(context.Background(), f.engineer, req.ID, 2, domain.ApprovalApproved)
	require.NoError(t, err)
	assert.Equal(t, domain.ApprovalNotApproved, updated.Approvals[0].Status)
	assert.Equal(t, domain.ApprovalApproved, updated.Approvals[1].Status)
	assert.NotNil(t, updated.Approvals[1].DecisionDate)
	assert.Equal(t, domain.ApprovalNotApproved, updated.Approvals[2].Status)
	assert.Nil(t, updated.Approvals[2].DecisionDate)

	count, err := promtest.GatherAndCount(f.registry, "records_approval_decisions_total")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestSetApprovalStatusOnlyAssignee(t *testing.T) {
	f := newNameChangeFixture(t)
	req := f.create(t, "ACC-001")

	_, err := f.svc.SetApprovalStatus(context.Background(), f.officer, req.ID, 2, domain.ApprovalRejected)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeForbidden))

	_, err = f.svc.SetApprovalStatus(context.Background(), f.officer, "missing", 1, domain.ApprovalApproved)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	_, err = f.svc.SetApprovalStatus(context.Background(), f.officer, req.ID, 4, domain.ApprovalApproved)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestExamineAndApprovedLists(t *testing.T) {
	f := newNameChangeFixture(t)
	ctx := context.Background()
	approved := f.create(t, "ACC-001")
	pending := f.create(t, "ACC-002")

	for level, who := range []*domain.User{f.officer, f.engineer, f.onm} {
		_, err := f.svc.SetApprovalStatus(ctx, who, approved.ID, level+1, domain.ApprovalApproved)
		require.NoError(t, err)
	}

	list, err := f.svc.ListPendingExamination(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	examined, err := f.svc.Examine(ctx, f.preparer, approved.ID)
	require.NoError(t, err)
	assert.Equal(t, "P1", examined.Examiner.EmployeeID)
	_, err = f.svc.Examine(ctx, f.preparer, pending.ID)
	require.NoError(t, err)

	list, err = f.svc.ListApprovedExamined(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, approved.ID, list[0].ID)

	list, err = f.svc.ListPendingExamination(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)

	_, err = f.svc.Examine(ctx, f.preparer, approved.ID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestListMyApprovalsDeduplicates(t *testing.T) {
	f := newNameChangeFixture(t)
	ctx := context.Background()

	in := f.input("ACC-001")
	in.Approvers[2].EmployeeID = f.officer.EmployeeID
	twice, err := f.svc.Create(ctx, f.preparer, in)
	require.NoError(t, err)
	other := f.create(t, "ACC-002")
	in = f.input("ACC-003")
	in.Approvers[0].EmployeeID = "X9"
	_, err = f.svc.Create(ctx, f.preparer, in)
	require.NoError(t, err)

	mine, err := f.svc.ListMyApprovals(ctx, f.officer.EmployeeID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, other.ID, mine[0].ID)
	assert.Equal(t, twice.ID, mine[1].ID)

	none, err := f.svc.ListMyApprovals(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListByApproverAtLevel(t *testing.T) {
	f := newNameChangeFixture(t)
	ctx := context.Background()
	f.create(t, "ACC-001")
	f.create(t, "ACC-002")

	list, err := f.svc.ListByApproverAtLevel(ctx, 1, f.officer.EmployeeID)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = f.svc.ListByApproverAtLevel(ctx, 2, f.officer.EmployeeID)
	require.NoError(t, err)
	assert.Empty(t, list)

	for _, blank := range []string{"", "  "} {
		list, err = f.svc.ListByApproverAtLevel(ctx, 1, blank)
		require.NoError(t, err)
		assert.Empty(t, list)
	}

	_, err = f.svc.ListByApproverAtLevel(ctx, 0, f.officer.EmployeeID)
	assert.True(t, apperrors.IsCode(err, apperrors.CodeValidationFailed))
}

func TestListByAccountNumber(t *testing.T) {
	f := newNameChangeFixture(t)
	ctx := context.Background()
	first := f.create(t, "ACC-001")
	second := f.create(t, "ACC-001")
	f.create(t, "ACC-002")

	list, err := f.svc.ListByAccountNumber(ctx, "ACC-001")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, second.ID, list[0].ID)
	assert.Equal(t, first.ID, list[1].ID)

	_, err = f.svc.ListByAccountNumber(ctx, "ACC-404")
	assert.True(t, apperrors.IsCode(err, apperrors.CodeNotFound))

	all, err := f.svc.ListAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
