package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utilityops/records-service/internal/domain"
)

// NameChangeFilter selects name-change requests. Zero fields are ignored; results
// are always newest first.
type NameChangeFilter struct {
	AccountNumber string
	// ApproverLevel and ApproverEmployeeID together match one slot exactly.
	ApproverLevel      int
	ApproverEmployeeID string
	// AnyApproverEmployeeID matches the employee on any of the three slots.
	AnyApproverEmployeeID string
	Examined              *bool
	FullyApproved         bool
}

// NameChangeRepository persists name-change requests.
type NameChangeRepository interface {
	Create(ctx context.Context, req *domain.NameChangeRequest) error
	GetByID(ctx context.Context, id string) (*domain.NameChangeRequest, error)
	List(ctx context.Context, filter NameChangeFilter) ([]domain.NameChangeRequest, error)
	SetApprovalStatus(ctx context.Context, id string, level int, status domain.ApprovalStatus, decidedAt time.Time) (*domain.NameChangeRequest, error)
	SetExaminer(ctx context.Context, id string, examiner domain.Signature) (*domain.NameChangeRequest, error)
}

type nameChangeRepository struct {
	pool *pgxpool.Pool
}

// NewNameChangeRepository constructs repository.
func NewNameChangeRepository(pool *pgxpool.Pool) NameChangeRepository {
	return &nameChangeRepository{pool: pool}
}

const nameChangeColumns = `id, account_number, current_name, current_address, new_name, change_method,
        preparer_emp_id, preparer_name, preparer_date,
        examiner_emp_id, examiner_name, examiner_date,
        approval1_position, approval1_emp_id, approval1_status, approval1_date,
        approval2_position, approval2_emp_id, approval2_status, approval2_date,
        approval3_position, approval3_emp_id, approval3_status, approval3_date,
        created_at, updated_at`

func (r *nameChangeRepository) Create(ctx context.Context, req *domain.NameChangeRequest) error {
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	const query = `
        INSERT INTO name_change_requests (id, account_number, current_name, current_address, new_name, change_method,
            preparer_emp_id, preparer_name, preparer_date,
            approval1_position, approval1_emp_id, approval1_status,
            approval2_position, approval2_emp_id, approval2_status,
            approval3_position, approval3_emp_id, approval3_status)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18)
        RETURNING created_at, updated_at`
	a := req.Approvals
	err := executor(ctx, r.pool).QueryRow(ctx, query,
		req.ID,
		req.AccountNumber,
		req.CurrentName,
		req.CurrentAddress,
		req.NewName,
		req.ChangeMethod,
		req.Preparer.EmployeeID,
		req.Preparer.Name,
		req.Preparer.Date,
		a[0].Position, a[0].EmployeeID, a[0].Status,
		a[1].Position, a[1].EmployeeID, a[1].Status,
		a[2].Position, a[2].EmployeeID, a[2].Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	return translateError(err)
}

func (r *nameChangeRepository) GetByID(ctx context.Context, id string) (*domain.NameChangeRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	return r.fetchSingle(ctx, `SELECT `+nameChangeColumns+` FROM name_change_requests WHERE id=$1`, id)
}

func (r *nameChangeRepository) List(ctx context.Context, filter NameChangeFilter) ([]domain.NameChangeRequest, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.AccountNumber != "" {
		args = append(args, filter.AccountNumber)
		clauses = append(clauses, fmt.Sprintf("account_number=$%d", len(args)))
	}
	if filter.ApproverEmployeeID != "" {
		if !domain.ValidApprovalLevel(filter.ApproverLevel) {
			return nil, fmt.Errorf("invalid approval level %d", filter.ApproverLevel)
		}
		args = append(args, filter.ApproverEmployeeID)
		clauses = append(clauses, fmt.Sprintf("approval%d_emp_id=$%d", filter.ApproverLevel, len(args)))
	}
	if filter.AnyApproverEmployeeID != "" {
		args = append(args, filter.AnyApproverEmployeeID)
		p := len(args)
		clauses = append(clauses, fmt.Sprintf("(approval1_emp_id=$%[1]d OR approval2_emp_id=$%[1]d OR approval3_emp_id=$%[1]d)", p))
	}
	if filter.Examined != nil {
		if *filter.Examined {
			clauses = append(clauses, "examiner_emp_id <> ''")
		} else {
			clauses = append(clauses, "examiner_emp_id = ''")
		}
	}
	if filter.FullyApproved {
		args = append(args, domain.ApprovalApproved)
		p := len(args)
		clauses = append(clauses, fmt.Sprintf("approval1_status=$%[1]d AND approval2_status=$%[1]d AND approval3_status=$%[1]d", p))
	}

	query := fmt.Sprintf(`SELECT %s FROM name_change_requests WHERE %s ORDER BY created_at DESC, id DESC`,
		nameChangeColumns, strings.Join(clauses, " AND "))

	rows, err := executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanNameChanges(rows)
}

// SetApprovalStatus writes one slot in a single conditional statement.
func (r *nameChangeRepository) SetApprovalStatus(ctx context.Context, id string, level int, status domain.ApprovalStatus, decidedAt time.Time) (*domain.NameChangeRequest, error) {
	if !domain.ValidApprovalLevel(level) {
		return nil, fmt.Errorf("invalid approval level %d", level)
	}
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := fmt.Sprintf(`
        UPDATE name_change_requests SET approval%[1]d_status=$1, approval%[1]d_date=$2, updated_at=NOW()
        WHERE id=$3
        RETURNING %[2]s`, level, nameChangeColumns)
	return r.fetchSingle(ctx, query, status, decidedAt, id)
}

func (r *nameChangeRepository) SetExaminer(ctx context.Context, id string, examiner domain.Signature) (*domain.NameChangeRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, ErrNotFound
	}
	query := `
        UPDATE name_change_requests SET examiner_emp_id=$1, examiner_name=$2, examiner_date=$3, updated_at=NOW()
        WHERE id=$4
        RETURNING ` + nameChangeColumns
	return r.fetchSingle(ctx, query, examiner.EmployeeID, examiner.Name, examiner.Date, id)
}

func (r *nameChangeRepository) fetchSingle(ctx context.Context, query string, args ...any) (*domain.NameChangeRequest, error) {
	rows, err := executor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	result, err := scanNameChanges(rows)
	if err != nil {
		return nil, err
	}
	if len(result) == 0 {
		return nil, ErrNotFound
	}
	return &result[0], nil
}

func scanNameChanges(rows pgx.Rows) ([]domain.NameChangeRequest, error) {
	result := []domain.NameChangeRequest{}
	for rows.Next() {
		var (
			req          domain.NameChangeRequest
			preparerDate time.Time
		)
		a := &req.Approvals
		if err := rows.Scan(
			&req.ID,
			&req.AccountNumber,
			&req.CurrentName,
			&req.CurrentAddress,
			&req.NewName,
			&req.ChangeMethod,
			&req.Preparer.EmployeeID,
			&req.Preparer.Name,
			&preparerDate,
			&req.Examiner.EmployeeID,
			&req.Examiner.Name,
			&req.Examiner.Date,
			&a[0].Position, &a[0].EmployeeID, &a[0].Status, &a[0].DecisionDate,
			&a[1].Position, &a[1].EmployeeID, &a[1].Status, &a[1].DecisionDate,
			&a[2].Position, &a[2].EmployeeID, &a[2].Status, &a[2].DecisionDate,
			&req.CreatedAt,
			&req.UpdatedAt,
		); err != nil {
			return nil, err
		}
		req.Preparer.Date = &preparerDate
		result = append(result, req)
	}
	return result, rows.Err()
}
