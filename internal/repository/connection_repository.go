package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utilityops/records-service/internal/domain"
)

// ConnectionFilter captures search parameters for connection listing.
type ConnectionFilter struct {
	Search  string
	Area    string
	Purpose string
	// Limit <= 0 returns every match.
	Limit  int
	Offset int
}

// ConnectionRepository encapsulates connection persistence.
type ConnectionRepository interface {
	Create(ctx context.Context, conn *domain.Connection) error
	Update(ctx context.Context, conn *domain.Connection) error
	GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Connection, error)
	Delete(ctx context.Context, accountNumber string) error
	List(ctx context.Context, filter ConnectionFilter) ([]domain.Connection, int, error)
}

type connectionRepository struct {
	pool *pgxpool.Pool
}

// NewConnectionRepository returns a Postgres-backed implementation.
func NewConnectionRepository(pool *pgxpool.Pool) ConnectionRepository {
	return &connectionRepository{pool: pool}
}

const connectionColumns = `account_number, owner_name, address, owner_nic, owner_phone, area,
        grama_niladhari_division, divisional_secretariat, purpose, created_at, updated_at`

func (r *connectionRepository) Create(ctx context.Context, conn *domain.Connection) error {
	const query = `
        INSERT INTO connections (account_number, owner_name, address, owner_nic, owner_phone, area,
            grama_niladhari_division, divisional_secretariat, purpose)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9)
        RETURNING created_at, updated_at`
	err := executor(ctx, r.pool).QueryRow(ctx, query,
		conn.AccountNumber,
		conn.OwnerName,
		conn.Address,
		conn.OwnerNIC,
		conn.OwnerPhone,
		conn.Area,
		conn.GramaNiladhariDivision,
		conn.DivisionalSecretariat,
		conn.Purpose,
	).Scan(&conn.CreatedAt, &conn.UpdatedAt)
	return translateError(err)
}

func (r *connectionRepository) Update(ctx context.Context, conn *domain.Connection) error {
	const query = `
        UPDATE connections SET owner_name=$1, address=$2, owner_nic=$3, owner_phone=$4, area=$5,
            grama_niladhari_division=$6, divisional_secretariat=$7, purpose=$8, updated_at=NOW()
        WHERE account_number=$9
        RETURNING updated_at`
	err := executor(ctx, r.pool).QueryRow(ctx, query,
		conn.OwnerName,
		conn.Address,
		conn.OwnerNIC,
		conn.OwnerPhone,
		conn.Area,
		conn.GramaNiladhariDivision,
		conn.DivisionalSecretariat,
		conn.Purpose,
		conn.AccountNumber,
	).Scan(&conn.UpdatedAt)
	return translateError(err)
}

func (r *connectionRepository) GetByAccountNumber(ctx context.Context, accountNumber string) (*domain.Connection, error) {
	query := `SELECT ` + connectionColumns + ` FROM connections WHERE account_number=$1`
	rows, err := executor(ctx, r.pool).Query(ctx, query, accountNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	conns, err := scanConnections(rows)
	if err != nil {
		return nil, err
	}
	if len(conns) == 0 {
		return nil, ErrNotFound
	}
	return &conns[0], nil
}

func (r *connectionRepository) Delete(ctx context.Context, accountNumber string) error {
	cmd, err := executor(ctx, r.pool).Exec(ctx, `DELETE FROM connections WHERE account_number=$1`, accountNumber)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *connectionRepository) List(ctx context.Context, filter ConnectionFilter) ([]domain.Connection, int, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if search := strings.TrimSpace(filter.Search); search != "" {
		args = append(args, containsPattern(search))
		p := fmt.Sprintf("$%d", len(args))
		clauses = append(clauses, fmt.Sprintf(
			"(account_number ILIKE %[1]s ESCAPE '\\' OR owner_name ILIKE %[1]s ESCAPE '\\' OR owner_nic ILIKE %[1]s ESCAPE '\\' OR owner_phone ILIKE %[1]s ESCAPE '\\')", p))
	}
	if area := strings.TrimSpace(filter.Area); area != "" {
		args = append(args, area)
		clauses = append(clauses, fmt.Sprintf("area=$%d", len(args)))
	}
	if purpose := strings.TrimSpace(filter.Purpose); purpose != "" {
		args = append(args, purpose)
		clauses = append(clauses, fmt.Sprintf("purpose=$%d", len(args)))
	}
	where := strings.Join(clauses, " AND ")

	db := executor(ctx, r.pool)
	var total int
	if err := db.QueryRow(ctx, `SELECT COUNT(*) FROM connections WHERE `+where, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := fmt.Sprintf(`SELECT %s FROM connections WHERE %s ORDER BY account_number ASC`, connectionColumns, where)
	if filter.Limit > 0 {
		offset := filter.Offset
		if offset < 0 {
			offset = 0
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.Limit, offset)
	}

	rows, err := db.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	conns, err := scanConnections(rows)
	if err != nil {
		return nil, 0, err
	}
	return conns, total, nil
}

func scanConnections(rows pgx.Rows) ([]domain.Connection, error) {
	result := []domain.Connection{}
	for rows.Next() {
		var c domain.Connection
		if err := rows.Scan(
			&c.AccountNumber,
			&c.OwnerName,
			&c.Address,
			&c.OwnerNIC,
			&c.OwnerPhone,
			&c.Area,
			&c.GramaNiladhariDivision,
			&c.DivisionalSecretariat,
			&c.Purpose,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, c)
	}
	return result, rows.Err()
}
