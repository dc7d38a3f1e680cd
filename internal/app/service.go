/**
 * @description
 * This file contains the request dispatch logic for the account-service. The
 * `Service` struct is the bridge between the HTTP layer and the workers on the
 * dispatch bus: it builds the provider endpoint for the configured account and
 * issues a bus request (or send) carrying the caller's correlation id.
 *
 * Key features:
 * - Implements the main use cases: balance read, transaction list read, and
 *   money transfer initiation.
 * - Optionally rate limits transfer initiations per caller via Redis; the
 *   limiter owns its fail-open policy so a Redis outage never blocks payments.
 *
 * @dependencies
 * - internal/bus, internal/domain, internal/worker: dispatch plumbing.
 * - pkg/fabrickclient: provider endpoint construction.
 */

package app

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/contodemo/account-service/internal/bus"
	"github.com/contodemo/account-service/internal/domain"
	"github.com/contodemo/account-service/internal/worker"
	"github.com/contodemo/account-service/pkg/fabrickclient"
)

// ErrRateLimited is returned by InitiateTransfer when the caller has exhausted
// its transfer budget for the current window.
var ErrRateLimited = errors.New("transfer rate limit exceeded")

// RateLimiter decides whether a caller may initiate one more transfer in the
// current window. Implementations own their availability policy; the service
// only honors the verdict.
type RateLimiter interface {
	AllowTransfer(ctx context.Context, caller string, limit int) (allowed bool, retryAfterSeconds int)
}

// Service dispatches API operations onto the bus workers.
type Service struct {
	bus                        *bus.Bus
	client                     *fabrickclient.Client
	accountID                  string
	limiter                    RateLimiter
	transferRateLimitPerMinute int
}

// NewService creates a new dispatch service for the configured account.
// limiter may be nil when rate limiting is disabled.
func NewService(b *bus.Bus, client *fabrickclient.Client, accountID string, limiter RateLimiter, transferRateLimitPerMinute int) *Service {
	return &Service{
		bus:                        b,
		client:                     client,
		accountID:                  accountID,
		limiter:                    limiter,
		transferRateLimitPerMinute: transferRateLimitPerMinute,
	}
}

// GetBalance fetches the current balance of the configured account.
func (s *Service) GetBalance(ctx context.Context, correlationID string) (json.RawMessage, error) {
	return s.bus.Request(ctx, worker.TopicBalance, correlationID, domain.FetchRequest{
		Endpoint: s.client.BalanceURL(s.accountID),
	})
}

// ListTransactions fetches the account movements inside the given accounting
// date range. Dates are expected to be validated by the caller.
func (s *Service) ListTransactions(ctx context.Context, correlationID, fromDate, toDate string) (json.RawMessage, error) {
	return s.bus.Request(ctx, worker.TopicTransactions, correlationID, domain.FetchRequest{
		Endpoint: s.client.TransactionsURL(s.accountID, fromDate, toDate),
	})
}

// InitiateTransfer submits a money transfer request. The raw body is handed to
// the transfer executor unparsed; malformed JSON comes back as a validation
// failure on the bus rather than being rejected here.
func (s *Service) InitiateTransfer(ctx context.Context, correlationID, caller string, body json.RawMessage) (json.RawMessage, int, error) {
	if s.limiter != nil && s.transferRateLimitPerMinute > 0 {
		if allowed, retryAfter := s.limiter.AllowTransfer(ctx, caller, s.transferRateLimitPerMinute); !allowed {
			return nil, retryAfter, ErrRateLimited
		}
	}

	reply, err := s.bus.Request(ctx, worker.TopicTransfer, correlationID, domain.TransferDispatch{
		Endpoint: s.client.MoneyTransferURL(s.accountID),
		Payload:  body,
	})
	return reply, 0, err
}
