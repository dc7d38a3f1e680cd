/**
 * @description
 * This file implements the persistence worker: the fire-and-forget consumer
 * that records fetched transactions without duplicating rows. It deduplicates
 * each batch against the store with a single id-set lookup, then writes the
 * remainder in one batch insert; both statements run on one store connection
 * pinned for the batch. Every error is logged and swallowed: the read that
 * produced the batch has already been answered, so persistence is a
 * best-effort side channel.
 *
 * @dependencies
 * - context, log: Standard Go libraries.
 * - internal/bus, internal/domain, internal/metrics, internal/store.
 */

package worker

import (
	"context"
	"fmt"
	"log"

	"github.com/contodemo/account-service/internal/bus"
	"github.com/contodemo/account-service/internal/domain"
	"github.com/contodemo/account-service/internal/errcode"
	"github.com/contodemo/account-service/internal/metrics"
	"github.com/contodemo/account-service/internal/store"
)

// PersistenceWorker serves TopicPersistence.
type PersistenceWorker struct {
	repo store.Repository
}

// NewPersistenceWorker creates a persistence worker over the given
// repository.
func NewPersistenceWorker(repo store.Repository) *PersistenceWorker {
	return &PersistenceWorker{repo: repo}
}

// Register subscribes the worker on the bus.
func (w *PersistenceWorker) Register(b *bus.Bus) error {
	return b.Subscribe(TopicPersistence, w.handle)
}

func (w *PersistenceWorker) handle(ctx context.Context, d *bus.Delivery) {
	batch, ok := d.Body.(domain.PersistenceBatch)
	if !ok {
		// Deliveries arrive via Send, so Fail is invisible to any sender;
		// it still terminates the delivery for symmetry with other workers.
		d.Fail(errcode.Internal, fmt.Sprintf("ErrorCode %d - unexpected payload type for %s", errcode.Internal, d.Topic))
		return
	}
	if len(batch.Records) == 0 {
		log.Printf("level=debug component=persistence_worker msg=\"empty batch\" request_id=%s", d.CorrelationID)
		return
	}

	log.Printf("level=info component=persistence_worker msg=\"processing batch\" count=%d request_id=%s", len(batch.Records), d.CorrelationID)

	ids := make([]string, 0, len(batch.Records))
	for _, record := range batch.Records {
		ids = append(ids, record.TransactionID)
	}

	storeBatch, err := w.repo.AcquireBatch(ctx)
	if err != nil {
		log.Printf("level=error component=persistence_worker msg=\"store connection unavailable\" request_id=%s err=%v", d.CorrelationID, err)
		return
	}
	defer storeBatch.Release()

	existing, err := storeBatch.FindExistingTransactionIDs(ctx, ids)
	if err != nil {
		log.Printf("level=error component=persistence_worker msg=\"dedup lookup failed\" request_id=%s err=%v", d.CorrelationID, err)
		return
	}

	fresh := make([]domain.TransactionRecord, 0, len(batch.Records))
	for _, record := range batch.Records {
		if _, found := existing[record.TransactionID]; !found {
			fresh = append(fresh, record)
		}
	}
	metrics.TransactionsSkipped.Add(float64(len(batch.Records) - len(fresh)))

	if len(fresh) == 0 {
		log.Printf("level=info component=persistence_worker msg=\"all transactions already stored, skipping insert\" count=%d request_id=%s", len(batch.Records), d.CorrelationID)
		return
	}

	inserted, err := storeBatch.InsertTransactions(ctx, fresh)
	if err != nil {
		log.Printf("level=error component=persistence_worker msg=\"batch insert failed\" count=%d request_id=%s err=%v", len(fresh), d.CorrelationID, err)
		return
	}

	metrics.TransactionsPersisted.Add(float64(inserted))
	log.Printf("level=info component=persistence_worker msg=\"batch insert completed\" inserted=%d skipped=%d request_id=%s", inserted, len(batch.Records)-len(fresh), d.CorrelationID)
}
