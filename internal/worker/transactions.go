/**
 * @description
 * This file implements the transactions worker: it fetches the account
 * transaction list from the external banking API, replies with the normalized
 * list, and then fires a non-blocking persistence request so every fetched
 * transaction is recorded. The persistence side effect runs strictly after
 * the reply and can never affect it.
 *
 * @dependencies
 * - context, encoding/json, log: Standard Go libraries.
 * - internal/bus, internal/domain, internal/errcode, pkg/fabrickclient.
 */

package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/contodemo/account-service/internal/bus"
	"github.com/contodemo/account-service/internal/domain"
	"github.com/contodemo/account-service/internal/errcode"
	"github.com/contodemo/account-service/pkg/fabrickclient"
)

// TransactionsWorker serves TopicTransactions.
type TransactionsWorker struct {
	client *fabrickclient.Client
	bus    *bus.Bus
}

// NewTransactionsWorker creates a transactions worker backed by the given
// client.
func NewTransactionsWorker(client *fabrickclient.Client) *TransactionsWorker {
	return &TransactionsWorker{client: client}
}

// Register subscribes the worker on the bus and keeps the bus reference for
// the fire-and-forget persistence trigger.
func (w *TransactionsWorker) Register(b *bus.Bus) error {
	w.bus = b
	return b.Subscribe(TopicTransactions, w.handle)
}

func (w *TransactionsWorker) handle(ctx context.Context, d *bus.Delivery) {
	req, ok := d.Body.(domain.FetchRequest)
	if !ok {
		d.Fail(errcode.Internal, fmt.Sprintf("ErrorCode %d - unexpected payload type for %s", errcode.Internal, d.Topic))
		return
	}

	log.Printf("level=info component=transactions_worker msg=\"calling provider\" endpoint=%s request_id=%s", req.Endpoint, d.CorrelationID)

	resp, err := w.client.Get(ctx, req.Endpoint)
	if err != nil {
		message := fmt.Sprintf("ErrorCode %d - Unable to call Fabrick API, service may be down: %v", errcode.APIConnectionFailed, err)
		log.Printf("level=error component=transactions_worker msg=\"provider unreachable\" request_id=%s err=%v", d.CorrelationID, err)
		d.Fail(errcode.APIConnectionFailed, message)
		return
	}

	log.Printf("level=info component=transactions_worker msg=\"provider responded\" status=%d request_id=%s", resp.StatusCode, d.CorrelationID)

	if resp.Kind() != fabrickclient.OutcomeSuccess {
		message := providerFailureMessage(resp)
		log.Printf("level=error component=transactions_worker msg=\"provider error\" status=%d request_id=%s detail=%q", resp.StatusCode, d.CorrelationID, message)
		d.Fail(errcode.APIError, message)
		return
	}

	var envelope domain.TransactionsEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		log.Printf("level=error component=transactions_worker msg=\"failed to parse provider response\" request_id=%s err=%v", d.CorrelationID, err)
		d.Fail(errcode.APIParseError, fmt.Sprintf("ErrorCode %d - Error parsing JSON response", errcode.APIParseError))
		return
	}

	payload, err := json.Marshal(domain.TransactionsReply{List: envelope.Payload.List})
	if err != nil {
		log.Printf("level=error component=transactions_worker msg=\"failed to serialize reply\" request_id=%s err=%v", d.CorrelationID, err)
		d.Fail(errcode.InternalSerialization, fmt.Sprintf("ErrorCode %d - Error serializing response", errcode.InternalSerialization))
		return
	}

	d.Reply(payload)

	// The caller already has its reply; persistence is a best-effort side
	// channel and must never surface back.
	w.triggerPersistence(envelope.Payload.List, d.CorrelationID)
}

func (w *TransactionsWorker) triggerPersistence(records []domain.TransactionRecord, correlationID string) {
	if len(records) == 0 {
		log.Printf("level=debug component=transactions_worker msg=\"no transactions to persist\" request_id=%s", correlationID)
		return
	}
	if w.bus == nil {
		log.Printf("level=warn component=transactions_worker msg=\"persistence trigger skipped, worker not registered on a bus\" request_id=%s", correlationID)
		return
	}

	log.Printf("level=info component=transactions_worker msg=\"triggering async persistence\" count=%d request_id=%s", len(records), correlationID)
	w.bus.Send(TopicPersistence, correlationID, domain.PersistenceBatch{Records: records})
}
