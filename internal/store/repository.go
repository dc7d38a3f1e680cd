/**
 * @description
 * This file defines the `Repository` interface for the transaction store. The
 * interface decouples the persistence worker from the PostgreSQL
 * implementation and lets tests substitute an in-memory stub.
 *
 * @dependencies
 * - context: Standard Go library.
 * - internal/domain: The transaction record model.
 */

package store

import (
	"context"

	"github.com/contodemo/account-service/internal/domain"
)

// Repository defines the data access operations of the transaction store.
// The store is append-only: rows are never updated or deleted.
type Repository interface {
	// AcquireBatch pins one store connection for the duration of a
	// persistence batch, so the dedup lookup and the insert of a batch do
	// not each draw a fresh connection from the pool. The caller must
	// Release the batch when done.
	AcquireBatch(ctx context.Context) (Batch, error)
}

// Batch is the scope of one persistence batch. All its statements run on the
// same store connection.
type Batch interface {
	// FindExistingTransactionIDs returns, as a set, the subset of ids that
	// already have a stored row.
	FindExistingTransactionIDs(ctx context.Context, ids []string) (map[string]struct{}, error)

	// InsertTransactions writes all records in a single batch statement and
	// returns the number of rows actually inserted. A row that loses a
	// concurrent insert race on its primary key is silently skipped, not an
	// error: the key constraint is the final backstop against duplication.
	InsertTransactions(ctx context.Context, records []domain.TransactionRecord) (int64, error)

	// Release returns the pinned connection to the pool.
	Release()
}
