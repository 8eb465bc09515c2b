package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"solana-stake-desk/internal/domain"
	"solana-stake-desk/internal/storage"
)

// OperationStore implements storage.OperationStore using PostgreSQL.
type OperationStore struct {
	pool *Pool
}

// NewOperationStore creates a new OperationStore.
func NewOperationStore(pool *Pool) *OperationStore {
	return &OperationStore{pool: pool}
}

// Compile-time interface check.
var _ storage.OperationStore = (*OperationStore)(nil)

const operationColumns = `
	id, kind, pool, wallet, signature, status,
	error_class, error_message, amount, net_output,
	started_at, finished_at, created_at
`

// Insert adds a new record. Returns ErrDuplicateKey if id exists.
func (s *OperationStore) Insert(ctx context.Context, r *domain.OperationRecord) (err error) {
	if r == nil || r.ID == "" || !r.Kind.IsValid() {
		return storage.ErrInvalidInput
	}
	start := time.Now()
	defer func() { observe("insert_operation", start, err) }()

	query := `
		INSERT INTO operation_journal (` + operationColumns + `) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13
		)
	`

	_, err = s.pool.Exec(ctx, query,
		r.ID, string(r.Kind), r.Pool, r.Wallet, r.Signature, string(r.Status),
		r.ErrorClass, r.ErrorMessage, r.Amount, r.NetOutput,
		r.StartedAt, r.FinishedAt, r.CreatedAt,
	)
	if err != nil {
		if uniqueViolation(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert operation record: %w", err)
	}
	return nil
}

// GetByID retrieves a record by its ID. Returns ErrNotFound if not exists.
func (s *OperationStore) GetByID(ctx context.Context, id string) (*domain.OperationRecord, error) {
	query := `SELECT ` + operationColumns + ` FROM operation_journal WHERE id = $1`

	r, err := scanOperation(s.pool.QueryRow(ctx, query, id))
	if err != nil {
		if noRows(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get operation record: %w", err)
	}
	return r, nil
}

// ListByWallet retrieves the newest records for a wallet.
func (s *OperationStore) ListByWallet(ctx context.Context, wallet string, limit int) ([]*domain.OperationRecord, error) {
	return s.list(ctx, "wallet", wallet, limit)
}

// ListByPool retrieves the newest records for a pool.
func (s *OperationStore) ListByPool(ctx context.Context, pool string, limit int) ([]*domain.OperationRecord, error) {
	return s.list(ctx, "pool", pool, limit)
}

// list filters on a fixed column name; column is never user input.
func (s *OperationStore) list(ctx context.Context, column, value string, limit int) (result []*domain.OperationRecord, err error) {
	start := time.Now()
	defer func() { observe("list_operations_by_"+column, start, err) }()

	query := `SELECT ` + operationColumns + ` FROM operation_journal
		WHERE ` + column + ` = $1
		ORDER BY started_at DESC, id ASC`
	args := []any{value}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query operations by %s: %w", column, err)
	}
	defer rows.Close()

	for rows.Next() {
		r, err := scanOperation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan operation record: %w", err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate operation records: %w", err)
	}
	return result, nil
}

func scanOperation(row pgx.Row) (*domain.OperationRecord, error) {
	var r domain.OperationRecord
	var kind, status string
	err := row.Scan(
		&r.ID, &kind, &r.Pool, &r.Wallet, &r.Signature, &status,
		&r.ErrorClass, &r.ErrorMessage, &r.Amount, &r.NetOutput,
		&r.StartedAt, &r.FinishedAt, &r.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Kind = domain.OperationKind(kind)
	r.Status = domain.OperationStatus(status)
	return &r, nil
}
