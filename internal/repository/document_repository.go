package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/utilityops/records-service/internal/domain"
)

// DocumentRepository persists document bundles. Slots are stored as JSONB.
type DocumentRepository interface {
	Create(ctx context.Context, bundle *domain.DocumentBundle) error
	Update(ctx context.Context, bundle *domain.DocumentBundle) error
	Get(ctx context.Context, accountNumber string) (*domain.DocumentBundle, error)
	List(ctx context.Context) ([]domain.DocumentBundle, error)
	Delete(ctx context.Context, accountNumber string) error
}

type documentRepository struct {
	pool *pgxpool.Pool
}

// NewDocumentRepository constructs repository.
func NewDocumentRepository(pool *pgxpool.Pool) DocumentRepository {
	return &documentRepository{pool: pool}
}

func (r *documentRepository) Create(ctx context.Context, bundle *domain.DocumentBundle) error {
	const query = `
        INSERT INTO document_bundles (account_number, required, other)
        VALUES ($1,$2,$3)
        RETURNING created_at, updated_at`
	err := executor(ctx, r.pool).QueryRow(ctx, query,
		bundle.AccountNumber,
		bundle.Required,
		otherOrEmpty(bundle.Other),
	).Scan(&bundle.CreatedAt, &bundle.UpdatedAt)
	return translateError(err)
}

func (r *documentRepository) Update(ctx context.Context, bundle *domain.DocumentBundle) error {
	const query = `
        UPDATE document_bundles SET required=$1, other=$2, updated_at=NOW()
        WHERE account_number=$3
        RETURNING updated_at`
	err := executor(ctx, r.pool).QueryRow(ctx, query,
		bundle.Required,
		otherOrEmpty(bundle.Other),
		bundle.AccountNumber,
	).Scan(&bundle.UpdatedAt)
	return translateError(err)
}

func (r *documentRepository) Get(ctx context.Context, accountNumber string) (*domain.DocumentBundle, error) {
	const query = `
        SELECT account_number, required, other, created_at, updated_at
        FROM document_bundles WHERE account_number=$1`
	rows, err := executor(ctx, r.pool).Query(ctx, query, accountNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	bundles, err := scanBundles(rows)
	if err != nil {
		return nil, err
	}
	if len(bundles) == 0 {
		return nil, ErrNotFound
	}
	return &bundles[0], nil
}

func (r *documentRepository) List(ctx context.Context) ([]domain.DocumentBundle, error) {
	const query = `
        SELECT account_number, required, other, created_at, updated_at
        FROM document_bundles ORDER BY account_number ASC`
	rows, err := executor(ctx, r.pool).Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanBundles(rows)
}

func (r *documentRepository) Delete(ctx context.Context, accountNumber string) error {
	cmd, err := executor(ctx, r.pool).Exec(ctx, `DELETE FROM document_bundles WHERE account_number=$1`, accountNumber)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func scanBundles(rows pgx.Rows) ([]domain.DocumentBundle, error) {
	result := []domain.DocumentBundle{}
	for rows.Next() {
		var b domain.DocumentBundle
		if err := rows.Scan(
			&b.AccountNumber,
			&b.Required,
			&b.Other,
			&b.CreatedAt,
			&b.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, b)
	}
	return result, rows.Err()
}

func otherOrEmpty(files []domain.StoredFile) []domain.StoredFile {
	if files == nil {
		return []domain.StoredFile{}
	}
	return files
}
