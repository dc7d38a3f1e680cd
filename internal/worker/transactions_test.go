package worker

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/contodemo/account-service/internal/bus"
	"github.com/contodemo/account-service/internal/domain"
	"github.com/contodemo/account-service/internal/errcode"
	"github.com/contodemo/account-service/pkg/fabrickclient"
)

type capturedBatch struct {
	correlationID string
	batch         domain.PersistenceBatch
}

func newTransactionsFixture(t *testing.T, server *httptest.Server) (*bus.Bus, *fabrickclient.Client, chan capturedBatch) {
	t.Helper()

	client := fabrickclient.NewClient(server.URL, "test-key", "S2S")
	b := bus.New(5 * time.Second)
	if err := NewTransactionsWorker(client).Register(b); err != nil {
		t.Fatalf("Register returned error: %v", err)
	}

	captured := make(chan capturedBatch, 1)
	err := b.Subscribe(TopicPersistence, func(ctx context.Context, d *bus.Delivery) {
		batch, _ := d.Body.(domain.PersistenceBatch)
		captured <- capturedBatch{correlationID: d.CorrelationID, batch: batch}
	})
	if err != nil {
		t.Fatalf("Subscribe returned error: %v", err)
	}

	return b, client, captured
}

func TestTransactionsWorker_RepliesListAndTriggersPersistence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{
			"status": "OK",
			"payload": {"list": [
				{"transactionId": "tx-1", "operationId": "op-1", "accountingDate": "2019-04-01", "valueDate": "2019-04-01", "type": {"enumeration": "GBS_TRANSACTION_TYPE", "value": "GBS_ACCOUNT_TRANSACTION_TYPE_0050"}, "amount": -800, "currency": "EUR", "description": "BONIFICO SEPA"},
				{"transactionId": "tx-2", "operationId": "op-2", "accountingDate": "2019-04-01", "valueDate": "2019-04-01", "amount": 12.5, "currency": "EUR", "description": "ACCREDITO"}
			]}
		}`))
	}))
	t.Cleanup(server.Close)

	b, client, captured := newTransactionsFixture(t, server)

	raw, err := b.Request(context.Background(), TopicTransactions, "req-99", domain.FetchRequest{
		Endpoint: client.TransactionsURL("acc-123", "2019-04-01", "2019-04-01"),
	})
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}

	var reply domain.TransactionsReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		t.Fatalf("reply is not valid JSON: %v", err)
	}
	if len(reply.List) != 2 {
		t.Fatalf("expected 2 transactions, got %d", len(reply.List))
	}
	if reply.List[0].TransactionID != "tx-1" || reply.List[0].Type == nil {
		t.Fatalf("unexpected first record: %+v", reply.List[0])
	}

	select {
	case got := <-captured:
		if got.correlationID != "req-99" {
			t.Fatalf("persistence batch lost the correlation id: %q", got.correlationID)
		}
		if len(got.batch.Records) != 2 {
			t.Fatalf("expected 2 records in batch, got %d", len(got.batch.Records))
		}
	case <-time.After(2 * time.Second):
		t.Fatal("persistence was never triggered")
	}
}

func TestTransactionsWorker_EmptyListSkipsPersistence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"status":"OK","payload":{"list":[]}}`))
	}))
	t.Cleanup(server.Close)

	b, client, captured := newTransactionsFixture(t, server)

	raw, err := b.Request(context.Background(), TopicTransactions, "req-1", domain.FetchRequest{
		Endpoint: client.TransactionsURL("acc-123", "2019-04-01", "2019-04-01"),
	})
	if err != nil {
		t.Fatalf("Request returned error: %v", err)
	}

	var reply domain.TransactionsReply
	if err := json.Unmarshal(raw, &reply); err != nil {
		t.Fatalf("reply is not valid JSON: %v", err)
	}
	if len(reply.List) != 0 {
		t.Fatalf("expected empty list, got %d records", len(reply.List))
	}

	select {
	case <-captured:
		t.Fatal("empty fetch must not trigger persistence")
	case <-time.After(100 * time.Millisecond):
	}
}

func TestTransactionsWorker_ProviderErrorFails(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"status":"KO","errors":[{"code":"REQ004","description":"Invalid date format"}]}`))
	}))
	t.Cleanup(server.Close)

	b, client, captured := newTransactionsFixture(t, server)

	_, err := b.Request(context.Background(), TopicTransactions, "req-1", domain.FetchRequest{
		Endpoint: client.TransactionsURL("acc-123", "bad", "worse"),
	})

	var failure *bus.Failure
	if !errors.As(err, &failure) {
		t.Fatalf("expected *bus.Failure, got %v", err)
	}
	if failure.Code != errcode.APIError {
		t.Fatalf("expected code %d, got %d", errcode.APIError, failure.Code)
	}

	select {
	case <-captured:
		t.Fatal("failed fetch must not trigger persistence")
	case <-time.After(100 * time.Millisecond):
	}
}
