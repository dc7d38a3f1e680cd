package worker

import (
	"testing"

	"github.com/shopspring/decimal"

	"github.com/contodemo/account-service/internal/domain"
)

func transferRequest(amount, currency string) *domain.TransferRequest {
	return &domain.TransferRequest{
		Description: "Payment invoice 75/2017",
		Amount:      decimal.RequireFromString(amount),
		Currency:    currency,
	}
}

func candidate(id, amount, currency, description string) domain.TransactionRecord {
	return domain.TransactionRecord{
		TransactionID: id,
		Amount:        decimal.RequireFromString(amount),
		Currency:      currency,
		Description:   description,
	}
}

func TestMatchTransfer(t *testing.T) {
	tests := []struct {
		name       string
		request    *domain.TransferRequest
		candidates []domain.TransactionRecord
		wantID     string
	}{
		{
			name:    "exact outgoing amount matches",
			request: transferRequest("100.50", "EUR"),
			candidates: []domain.TransactionRecord{
				candidate("tx-1", "-100.50", "EUR", "Payment invoice 75/2017"),
			},
			wantID: "tx-1",
		},
		{
			name:    "difference below tolerance matches",
			request: transferRequest("100.50", "EUR"),
			candidates: []domain.TransactionRecord{
				candidate("tx-1", "-100.505", "EUR", "anything"),
			},
			wantID: "tx-1",
		},
		{
			name:    "difference of exactly one cent does not match",
			request: transferRequest("100.50", "EUR"),
			candidates: []domain.TransactionRecord{
				candidate("tx-1", "-100.51", "EUR", "Payment invoice 75/2017"),
			},
			wantID: "",
		},
		{
			name:    "incoming transaction never matches",
			request: transferRequest("100.50", "EUR"),
			candidates: []domain.TransactionRecord{
				candidate("tx-1", "100.50", "EUR", "Payment invoice 75/2017"),
			},
			wantID: "",
		},
		{
			name:    "currency must match exactly",
			request: transferRequest("100.50", "EUR"),
			candidates: []domain.TransactionRecord{
				candidate("tx-1", "-100.50", "USD", "Payment invoice 75/2017"),
			},
			wantID: "",
		},
		{
			name:    "description difference does not prevent a match",
			request: transferRequest("100.50", "EUR"),
			candidates: []domain.TransactionRecord{
				candidate("tx-1", "-100.50", "EUR", "BONIFICO SEPA rewritten by bank"),
			},
			wantID: "tx-1",
		},
		{
			name:       "empty candidate list",
			request:    transferRequest("100.50", "EUR"),
			candidates: nil,
			wantID:     "",
		},
		{
			name:    "first matching candidate wins",
			request: transferRequest("100.50", "EUR"),
			candidates: []domain.TransactionRecord{
				candidate("tx-1", "-999.00", "EUR", "unrelated"),
				candidate("tx-2", "-100.50", "EUR", "Payment invoice 75/2017"),
				candidate("tx-3", "-100.50", "EUR", "another candidate"),
			},
			wantID: "tx-2",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			match := MatchTransfer(tc.request, tc.candidates)
			if tc.wantID == "" {
				if match != nil {
					t.Fatalf("expected no match, got %s", match.TransactionID)
				}
				return
			}
			if match == nil {
				t.Fatal("expected a match, got none")
			}
			if match.TransactionID != tc.wantID {
				t.Fatalf("expected match %s, got %s", tc.wantID, match.TransactionID)
			}
		})
	}
}
