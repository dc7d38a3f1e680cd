/**
 * @description
 * This file implements the balance worker: a stateless bus subscriber that
 * fetches the account balance from the external banking API and replies with
 * the normalized balance object.
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

// BalanceWorker serves TopicBalance. It holds only immutable configuration
// (the provider client) and is safe for concurrent deliveries.
type BalanceWorker struct {
	client *fabrickclient.Client
}

// NewBalanceWorker creates a balance worker backed by the given client.
func NewBalanceWorker(client *fabrickclient.Client) *BalanceWorker {
	return &BalanceWorker{client: client}
}

// Register subscribes the worker on the bus.
func (w *BalanceWorker) Register(b *bus.Bus) error {
	return b.Subscribe(TopicBalance, w.handle)
}

func (w *BalanceWorker) handle(ctx context.Context, d *bus.Delivery) {
	req, ok := d.Body.(domain.FetchRequest)
	if !ok {
		d.Fail(errcode.Internal, fmt.Sprintf("ErrorCode %d - unexpected payload type for %s", errcode.Internal, d.Topic))
		return
	}

	log.Printf("level=info component=balance_worker msg=\"calling provider\" endpoint=%s request_id=%s", req.Endpoint, d.CorrelationID)

	resp, err := w.client.Get(ctx, req.Endpoint)
	if err != nil {
		message := fmt.Sprintf("ErrorCode %d - Unable to call Fabrick API, service may be down: %v", errcode.APIConnectionFailed, err)
		log.Printf("level=error component=balance_worker msg=\"provider unreachable\" request_id=%s err=%v", d.CorrelationID, err)
		d.Fail(errcode.APIConnectionFailed, message)
		return
	}

	log.Printf("level=info component=balance_worker msg=\"provider responded\" status=%d request_id=%s", resp.StatusCode, d.CorrelationID)

	if resp.Kind() != fabrickclient.OutcomeSuccess {
		message := providerFailureMessage(resp)
		log.Printf("level=error component=balance_worker msg=\"provider error\" status=%d request_id=%s detail=%q", resp.StatusCode, d.CorrelationID, message)
		d.Fail(errcode.APIError, message)
		return
	}

	var envelope domain.BalanceEnvelope
	if err := json.Unmarshal(resp.Body, &envelope); err != nil {
		log.Printf("level=error component=balance_worker msg=\"failed to parse provider response\" request_id=%s err=%v", d.CorrelationID, err)
		d.Fail(errcode.APIParseError, fmt.Sprintf("ErrorCode %d - Error parsing JSON response", errcode.APIParseError))
		return
	}

	reply := domain.BalanceReply{
		Balance:          envelope.Payload.Balance,
		AvailableBalance: envelope.Payload.AvailableBalance,
		Currency:         envelope.Payload.Currency,
	}
	payload, err := json.Marshal(reply)
	if err != nil {
		log.Printf("level=error component=balance_worker msg=\"failed to serialize reply\" request_id=%s err=%v", d.CorrelationID, err)
		d.Fail(errcode.InternalSerialization, fmt.Sprintf("ErrorCode %d - Error serializing response", errcode.InternalSerialization))
		return
	}

	d.Reply(payload)
}

// providerFailureMessage renders a non-success provider response into the
// failure message reported to the caller. An undecodable or empty error
// envelope falls back to the raw HTTP detail.
func providerFailureMessage(resp *fabrickclient.Response) string {
	envelope, err := fabrickclient.ParseErrorEnvelope(resp.Body)
	if err == nil && len(envelope.Errors) > 0 {
		return fabrickclient.FormatErrors(errcode.APIError, envelope.Errors)
	}
	return fmt.Sprintf("ErrorCode %d - API returned HTTP %d: %s", errcode.APIError, resp.StatusCode, string(resp.Body))
}
