/**
 * @description
 * This file provides the PostgreSQL implementation of the `Repository`
 * interface over a pgx connection pool. A batch acquires one pooled
 * connection and runs both its dedup lookup and its insert on it; no
 * cross-batch transaction or lock is held, so concurrent batches stay
 * independent and the primary key constraint arbitrates insert races.
 *
 * @dependencies
 * - context, fmt, strings: Standard Go libraries.
 * - github.com/jackc/pgx/v5: The PostgreSQL driver.
 * - internal/domain: The transaction record model.
 */

package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/contodemo/account-service/internal/domain"
)

// PostgresRepository is the PostgreSQL-backed transaction store.
type PostgresRepository struct {
	db *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgresRepository over the pool.
func NewPostgresRepository(db *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// AcquireBatch pins one pooled connection for a persistence batch.
func (r *PostgresRepository) AcquireBatch(ctx context.Context) (Batch, error) {
	conn, err := r.db.Acquire(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection for persistence batch: %w", err)
	}
	return &postgresBatch{conn: conn}, nil
}

// postgresBatch runs every statement of one persistence batch on the same
// pinned connection.
type postgresBatch struct {
	conn *pgxpool.Conn
}

// Release returns the pinned connection to the pool.
func (b *postgresBatch) Release() {
	b.conn.Release()
}

// FindExistingTransactionIDs checks all ids with a single SELECT.
func (b *postgresBatch) FindExistingTransactionIDs(ctx context.Context, ids []string) (map[string]struct{}, error) {
	existing := make(map[string]struct{})
	if len(ids) == 0 {
		return existing, nil
	}

	rows, err := b.conn.Query(ctx,
		`SELECT transaction_id FROM account_transactions WHERE transaction_id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("query existing transaction ids: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan existing transaction id: %w", err)
		}
		existing[id] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate existing transaction ids: %w", err)
	}

	return existing, nil
}

// InsertTransactions writes all records with a single multi-row INSERT. The
// ON CONFLICT clause makes a concurrent duplicate of one row an ignorable
// outcome for that row instead of a batch failure.
func (b *postgresBatch) InsertTransactions(ctx context.Context, records []domain.TransactionRecord) (int64, error) {
	if len(records) == 0 {
		return 0, nil
	}

	const columns = 9
	var (
		valuesClauses = make([]string, 0, len(records))
		args          = make([]any, 0, len(records)*columns)
	)
	for i, record := range records {
		base := i * columns
		valuesClauses = append(valuesClauses, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9))

		var typeEnumeration, typeValue *string
		if record.Type != nil {
			typeEnumeration = &record.Type.Enumeration
			typeValue = &record.Type.Value
		}
		args = append(args,
			record.TransactionID,
			record.OperationID,
			record.AccountingDate,
			record.ValueDate,
			typeEnumeration,
			typeValue,
			record.Amount,
			record.Currency,
			record.Description,
		)
	}

	query := `
		INSERT INTO account_transactions (
			transaction_id, operation_id, accounting_date, value_date,
			type_enumeration, type_value, amount, currency, description
		)
		VALUES ` + strings.Join(valuesClauses, ", ") + `
		ON CONFLICT (transaction_id) DO NOTHING
	`

	tag, err := b.conn.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("batch insert transactions: %w", err)
	}

	return tag.RowsAffected(), nil
}
