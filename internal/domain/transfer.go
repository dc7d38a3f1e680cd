/**
 * @description
 * This file defines the money transfer domain models: the inbound REST request
 * shape, its validation rules, the closed set of terminal transfer outcomes,
 * and the normalized reply returned to the HTTP layer.
 *
 * @notes
 * - Amounts are decimal.Decimal so the reconciliation tolerance comparison is
 *   exact; float64 cannot represent the 0.01 boundary faithfully.
 */

package domain

import (
	"regexp"

	"github.com/shopspring/decimal"
)

var (
	ibanPattern     = regexp.MustCompile(`^[A-Z]{2}[0-9]{2}[A-Z0-9]{11,30}$`)
	bicPattern      = regexp.MustCompile(`^[A-Z]{6}[A-Z0-9]{2}([A-Z0-9]{3})?$`)
	currencyPattern = regexp.MustCompile(`^[A-Z]{3}$`)

	minTransferAmount = decimal.RequireFromString("0.01")
)

// TransferRequest is the inbound money transfer request body. It is immutable
// once submitted.
type TransferRequest struct {
	Creditor     Creditor        `json:"creditor"`
	Description  string          `json:"description"`
	Amount       decimal.Decimal `json:"amount"`
	Currency     string          `json:"currency"`
	FeeType      string          `json:"feeType,omitempty"`
	FeeAccountID string          `json:"feeAccountId,omitempty"`
	TaxRelief    *TaxRelief      `json:"taxRelief,omitempty"`
}

// Creditor identifies the transfer beneficiary.
type Creditor struct {
	Name    string          `json:"name"`
	Account CreditorAccount `json:"account"`
}

// CreditorAccount holds the beneficiary account coordinates.
type CreditorAccount struct {
	AccountCode string `json:"accountCode"`
	BicCode     string `json:"bicCode,omitempty"`
}

// TaxRelief is the optional tax relief block of a transfer request.
type TaxRelief struct {
	TaxReliefID              string                    `json:"taxReliefId,omitempty"`
	IsCondoUpgrade           *bool                     `json:"isCondoUpgrade,omitempty"`
	CreditorFiscalCode       string                    `json:"creditorFiscalCode,omitempty"`
	BeneficiaryType          string                    `json:"beneficiaryType,omitempty"`
	NaturalPersonBeneficiary *NaturalPersonBeneficiary `json:"naturalPersonBeneficiary,omitempty"`
}

// NaturalPersonBeneficiary carries the fiscal code of a natural person
// benefiting from the tax relief.
type NaturalPersonBeneficiary struct {
	FiscalCode1 string `json:"fiscalCode1,omitempty"`
}

// Validate checks the request against the ingress rules and returns one
// message per violation. An empty slice means the request is well formed.
func (r *TransferRequest) Validate() []string {
	var problems []string

	if r.Creditor.Name == "" {
		problems = append(problems, "Creditor name is required")
	} else if len(r.Creditor.Name) > 70 {
		problems = append(problems, "Creditor name must be between 1 and 70 characters")
	}
	if r.Creditor.Account.AccountCode == "" {
		problems = append(problems, "Account code (IBAN) is required")
	} else if !ibanPattern.MatchString(r.Creditor.Account.AccountCode) {
		problems = append(problems, "Account code must be a valid IBAN")
	}
	if r.Creditor.Account.BicCode != "" && !bicPattern.MatchString(r.Creditor.Account.BicCode) {
		problems = append(problems, "BIC code must be a valid SWIFT/BIC code")
	}
	if r.Description == "" {
		problems = append(problems, "Description is required")
	} else if len(r.Description) > 140 {
		problems = append(problems, "Description must be between 1 and 140 characters")
	}
	if r.Amount.LessThan(minTransferAmount) {
		problems = append(problems, "Amount must be at least 0.01")
	}
	if !currencyPattern.MatchString(r.Currency) {
		problems = append(problems, "Currency must be a valid ISO 4217 code (3 uppercase letters)")
	}

	return problems
}

// TransferOutcome enumerates the terminal states of a money transfer. The set
// is closed so the reply encoding can switch over it exhaustively.
type TransferOutcome int

const (
	// TransferPending: the provider accepted the transfer but its bank-side
	// settlement status is not yet known.
	TransferPending TransferOutcome = iota

	// TransferExecuted: reconciliation found a matching outgoing transaction.
	TransferExecuted

	// TransferFailed: the provider rejected the transfer, or reconciliation
	// ran and found no match (the caller may retry).
	TransferFailed

	// TransferUnknown: reconciliation itself could not be completed; the
	// outcome is indeterminate and the caller must NOT assume failure.
	TransferUnknown
)

// Label returns the wire label reported in the transfer reply.
func (o TransferOutcome) Label() string {
	switch o {
	case TransferPending:
		return "PENDING"
	case TransferExecuted:
		return "EXECUTED"
	case TransferFailed:
		return "FAILED"
	default:
		return "UNKNOWN"
	}
}

// Reply status values.
const (
	StatusOK    = "OK"
	StatusError = "ERROR"
)

// TransferReply is the normalized reply for a money transfer operation.
type TransferReply struct {
	Status     string `json:"status"`
	Message    string `json:"message"`
	TransferID string `json:"transferId,omitempty"`
}

// NewTransferSuccess builds the reply for a transfer that reached a positive
// terminal state (pending acceptance or confirmed execution).
func NewTransferSuccess(outcome TransferOutcome) TransferReply {
	return TransferReply{
		Status:     StatusOK,
		Message:    "Transfer executed successfully",
		TransferID: outcome.Label(),
	}
}

// NewTransferError builds the reply for a transfer that terminated with an
// error or an indeterminate outcome.
func NewTransferError(message string) TransferReply {
	return TransferReply{
		Status:  StatusError,
		Message: message,
	}
}
