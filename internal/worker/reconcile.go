/**
 * @description
 * This file implements the reconciliation search: matching a submitted money
 * transfer against the transactions observed on the account, to decide
 * whether an ambiguously failed transfer was in fact executed.
 */

package worker

import (
	"log"

	"github.com/shopspring/decimal"

	"github.com/contodemo/account-service/internal/domain"
)

// amountTolerance absorbs provider-side rounding quirks. The comparison is
// strict: a difference of exactly 0.01 does not match.
var amountTolerance = decimal.RequireFromString("0.01")

// MatchTransfer returns the first transaction matching the transfer request,
// or nil when none does. A candidate matches iff it is outgoing (negative
// amount), its absolute amount is within the tolerance of the requested
// amount, and its currency equals the requested currency exactly.
// Description equality is evaluated for diagnostics only: providers may
// rewrite free-text descriptions, so it is never required.
func MatchTransfer(request *domain.TransferRequest, candidates []domain.TransactionRecord) *domain.TransactionRecord {
	expectedAmount := request.Amount.Abs()

	for i := range candidates {
		candidate := &candidates[i]

		outgoing := candidate.Amount.IsNegative()
		difference := candidate.Amount.Abs().Sub(expectedAmount).Abs()
		amountMatches := difference.LessThan(amountTolerance)
		currencyMatches := candidate.Currency == request.Currency
		descriptionMatches := request.Description != "" && request.Description == candidate.Description

		log.Printf("level=debug component=reconciliation msg=\"checking candidate\" transaction_id=%s amount=%s currency=%s description_matches=%t matches=%t",
			candidate.TransactionID, candidate.Amount, candidate.Currency, descriptionMatches, outgoing && amountMatches && currencyMatches)

		if outgoing && amountMatches && currencyMatches {
			return candidate
		}
	}

	return nil
}
