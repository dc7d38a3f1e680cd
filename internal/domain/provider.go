/**
 * @description
 * This file defines the provider-side wire shapes: the money transfer payload
 * the external banking API expects, the success envelopes for balance and
 * transaction list reads, and the transaction record persisted by the
 * persistence worker. All of them mirror the provider's JSON contract.
 */

package domain

import "github.com/shopspring/decimal"

// MoneyTransferRequest is the provider wire format for a transfer initiation.
type MoneyTransferRequest struct {
	Creditor      ProviderCreditor  `json:"creditor"`
	ExecutionDate string            `json:"executionDate"`
	URI           string            `json:"uri"`
	Description   string            `json:"description"`
	Amount        decimal.Decimal   `json:"amount"`
	Currency      string            `json:"currency"`
	IsUrgent      bool              `json:"isUrgent"`
	IsInstant     bool              `json:"isInstant"`
	FeeType       string            `json:"feeType,omitempty"`
	FeeAccountID  string            `json:"feeAccountId,omitempty"`
	TaxRelief     ProviderTaxRelief `json:"taxRelief"`
}

// ProviderCreditor is the creditor block of the provider transfer payload.
type ProviderCreditor struct {
	Name    string                  `json:"name"`
	Account ProviderCreditorAccount `json:"account"`
}

type ProviderCreditorAccount struct {
	AccountCode string `json:"accountCode"`
	BicCode     string `json:"bicCode,omitempty"`
}

// ProviderTaxRelief must always be present in the provider payload, with
// empty beneficiary objects when the inbound request carries none.
type ProviderTaxRelief struct {
	TaxReliefID              string                   `json:"taxReliefId,omitempty"`
	IsCondoUpgrade           bool                     `json:"isCondoUpgrade"`
	CreditorFiscalCode       string                   `json:"creditorFiscalCode,omitempty"`
	BeneficiaryType          string                   `json:"beneficiaryType,omitempty"`
	NaturalPersonBeneficiary ProviderNaturalPerson    `json:"naturalPersonBeneficiary"`
	LegalPersonBeneficiary   ProviderLegalBeneficiary `json:"legalPersonBeneficiary"`
}

type ProviderNaturalPerson struct {
	FiscalCode1 string `json:"fiscalCode1,omitempty"`
}

type ProviderLegalBeneficiary struct{}

// BalanceEnvelope is the provider success envelope for a balance read.
type BalanceEnvelope struct {
	Status  string         `json:"status"`
	Payload BalancePayload `json:"payload"`
}

// BalancePayload carries the balance figures for an account.
type BalancePayload struct {
	Date             string          `json:"date"`
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	Currency         string          `json:"currency"`
}

// BalanceReply is the normalized balance object returned to the HTTP layer.
type BalanceReply struct {
	Balance          decimal.Decimal `json:"balance"`
	AvailableBalance decimal.Decimal `json:"availableBalance"`
	Currency         string          `json:"currency"`
}

// TransactionsEnvelope is the provider success envelope for a transaction
// list read.
type TransactionsEnvelope struct {
	Status  string              `json:"status"`
	Payload TransactionsPayload `json:"payload"`
}

type TransactionsPayload struct {
	List []TransactionRecord `json:"list"`
}

// TransactionsReply is the normalized transaction list returned to the HTTP
// layer.
type TransactionsReply struct {
	List []TransactionRecord `json:"list"`
}

// TransactionRecord is one account transaction as reported by the provider.
// Its identity is TransactionID; every other field is immutable once
// observed.
type TransactionRecord struct {
	TransactionID  string           `json:"transactionId"`
	OperationID    string           `json:"operationId"`
	AccountingDate string           `json:"accountingDate"`
	ValueDate      string           `json:"valueDate"`
	Type           *TransactionType `json:"type,omitempty"`
	Amount         decimal.Decimal  `json:"amount"`
	Currency       string           `json:"currency"`
	Description    string           `json:"description"`
}

// TransactionType is the provider's nested transaction classification.
type TransactionType struct {
	Enumeration string `json:"enumeration"`
	Value       string `json:"value"`
}
