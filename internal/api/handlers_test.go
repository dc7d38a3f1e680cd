package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/contodemo/account-service/internal/app"
	"github.com/contodemo/account-service/internal/bus"
	"github.com/contodemo/account-service/internal/domain"
	"github.com/contodemo/account-service/internal/worker"
	"github.com/contodemo/account-service/pkg/fabrickclient"
)

func newRouterFixture(t *testing.T, timeout time.Duration) (http.Handler, *bus.Bus) {
	t.Helper()
	b := bus.New(timeout)
	client := fabrickclient.NewClient("https://provider.local", "key", "S2S")
	svc := app.NewService(b, client, "acc-1", nil, 0)
	return AccountRoutes(NewAccountHandlers(svc)), b
}

func doRequest(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, reader)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorResponse {
	t.Helper()
	var resp errorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("error body is not valid JSON: %v (%s)", err, rec.Body.String())
	}
	return resp
}

func TestBalanceEndpoint_PassesReplyThrough(t *testing.T) {
	router, b := newRouterFixture(t, time.Second)
	_ = b.Subscribe(worker.TopicBalance, func(ctx context.Context, d *bus.Delivery) {
		d.Reply(json.RawMessage(`{"balance":29.64,"availableBalance":29.64,"currency":"EUR"}`))
	})

	rec := doRequest(router, http.MethodGet, "/api/accounts/balance", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if rec.Body.String() != `{"balance":29.64,"availableBalance":29.64,"currency":"EUR"}` {
		t.Fatalf("worker reply was re-encoded: %s", rec.Body.String())
	}
	if rec.Header().Get(RequestIDHeader) == "" {
		t.Fatal("response must carry a request id")
	}
}

func TestBalanceEndpoint_ReusesCallerRequestID(t *testing.T) {
	router, b := newRouterFixture(t, time.Second)

	var gotCorrelation string
	_ = b.Subscribe(worker.TopicBalance, func(ctx context.Context, d *bus.Delivery) {
		gotCorrelation = d.CorrelationID
		d.Reply(json.RawMessage(`{}`))
	})

	req := httptest.NewRequest(http.MethodGet, "/api/accounts/balance", nil)
	req.Header.Set(RequestIDHeader, "caller-supplied-id")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if gotCorrelation != "caller-supplied-id" {
		t.Fatalf("expected the caller's id on the bus, got %q", gotCorrelation)
	}
	if rec.Header().Get(RequestIDHeader) != "caller-supplied-id" {
		t.Fatalf("expected the caller's id echoed back, got %q", rec.Header().Get(RequestIDHeader))
	}
}

func TestBalanceEndpoint_NoSubscriberIs503(t *testing.T) {
	router, _ := newRouterFixture(t, time.Second)

	rec := doRequest(router, http.MethodGet, "/api/accounts/balance", "")

	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", rec.Code)
	}
}

func TestBalanceEndpoint_TimeoutIs504(t *testing.T) {
	router, b := newRouterFixture(t, 30*time.Millisecond)

	release := make(chan struct{})
	defer close(release)
	_ = b.Subscribe(worker.TopicBalance, func(ctx context.Context, d *bus.Delivery) {
		<-release
	})

	rec := doRequest(router, http.MethodGet, "/api/accounts/balance", "")

	if rec.Code != http.StatusGatewayTimeout {
		t.Fatalf("expected 504, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if !strings.Contains(resp.Message, "unknown") {
		t.Fatalf("timeout message must state the outcome is unknown: %q", resp.Message)
	}
}

func TestBalanceEndpoint_FailureCodeMapping(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		wantStatus int
	}{
		{"validation failure maps to 400", 400, http.StatusBadRequest},
		{"provider failure maps to 502", 500, http.StatusBadGateway},
		{"internal failure maps to 500", 601, http.StatusInternalServerError},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			router, b := newRouterFixture(t, time.Second)
			_ = b.Subscribe(worker.TopicBalance, func(ctx context.Context, d *bus.Delivery) {
				d.Fail(tc.code, "boom")
			})

			rec := doRequest(router, http.MethodGet, "/api/accounts/balance", "")
			if rec.Code != tc.wantStatus {
				t.Fatalf("expected %d, got %d", tc.wantStatus, rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Status != "ERROR" || resp.Message != "boom" || resp.RequestID == "" {
				t.Fatalf("unexpected error envelope: %+v", resp)
			}
		})
	}
}

func TestTransactionsEndpoint_ParameterValidation(t *testing.T) {
	tests := []struct {
		name        string
		query       string
		wantMessage string
	}{
		{
			name:        "missing from date",
			query:       "?toAccountingDate=2019-04-09",
			wantMessage: "Missing required parameter: fromAccountingDate",
		},
		{
			name:        "missing to date",
			query:       "?fromAccountingDate=2019-04-01",
			wantMessage: "Missing required parameter: toAccountingDate",
		},
		{
			name:        "malformed from date",
			query:       "?fromAccountingDate=01-04-2019&toAccountingDate=2019-04-09",
			wantMessage: "Invalid date format for fromAccountingDate, expected YYYY-MM-DD",
		},
		{
			name:        "malformed to date",
			query:       "?fromAccountingDate=2019-04-01&toAccountingDate=tomorrow",
			wantMessage: "Invalid date format for toAccountingDate, expected YYYY-MM-DD",
		},
	}

	router, _ := newRouterFixture(t, time.Second)

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			rec := doRequest(router, http.MethodGet, "/api/accounts/transactions"+tc.query, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			resp := decodeError(t, rec)
			if resp.Message != tc.wantMessage {
				t.Fatalf("expected message %q, got %q", tc.wantMessage, resp.Message)
			}
		})
	}
}

func TestTransactionsEndpoint_ValidWindowIsDispatched(t *testing.T) {
	router, b := newRouterFixture(t, time.Second)
	_ = b.Subscribe(worker.TopicTransactions, func(ctx context.Context, d *bus.Delivery) {
		d.Reply(json.RawMessage(`{"list":[]}`))
	})

	rec := doRequest(router, http.MethodGet, "/api/accounts/transactions?fromAccountingDate=2019-04-01&toAccountingDate=2019-04-09", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
}

func TestTransferEndpoint_RejectsInvalidJSON(t *testing.T) {
	router, _ := newRouterFixture(t, time.Second)

	rec := doRequest(router, http.MethodPost, "/api/accounts/payments/money-transfers", `{"creditor":`)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if resp := decodeError(t, rec); resp.Message != "Invalid JSON in request body" {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
}

func TestTransferEndpoint_RejectsInvalidRequest(t *testing.T) {
	router, _ := newRouterFixture(t, time.Second)

	body := `{"creditor":{"name":"","account":{"accountCode":"not-an-iban"}},"description":"","amount":0,"currency":"euro"}`
	rec := doRequest(router, http.MethodPost, "/api/accounts/payments/money-transfers", body)
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	resp := decodeError(t, rec)
	if !strings.HasPrefix(resp.Message, "Validation failed: ") {
		t.Fatalf("unexpected message: %q", resp.Message)
	}
	for _, fragment := range []string{"Creditor name is required", "valid IBAN", "Description is required", "Amount must be at least 0.01", "ISO 4217"} {
		if !strings.Contains(resp.Message, fragment) {
			t.Fatalf("expected %q in message %q", fragment, resp.Message)
		}
	}
}

func TestTransferEndpoint_ValidRequestIsDispatchedVerbatim(t *testing.T) {
	router, b := newRouterFixture(t, time.Second)

	var gotPayload string
	_ = b.Subscribe(worker.TopicTransfer, func(ctx context.Context, d *bus.Delivery) {
		dispatch, _ := d.Body.(domain.TransferDispatch)
		gotPayload = string(dispatch.Payload)
		d.Reply(json.RawMessage(`{"status":"OK","message":"Transfer executed successfully","transferId":"PENDING"}`))
	})

	body := `{"creditor":{"name":"John Doe","account":{"accountCode":"IT23A0336844430152923804660"}},"description":"Payment invoice 75/2017","amount":800,"currency":"EUR"}`
	rec := doRequest(router, http.MethodPost, "/api/accounts/payments/money-transfers", body)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if gotPayload != body {
		t.Fatalf("payload was modified at ingress: %s", gotPayload)
	}
	if !strings.Contains(rec.Body.String(), `"transferId":"PENDING"`) {
		t.Fatalf("unexpected body: %s", rec.Body.String())
	}
}

func TestHealthEndpoint(t *testing.T) {
	router, _ := newRouterFixture(t, time.Second)

	rec := doRequest(router, http.MethodGet, "/health", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
}
