package domain

import "encoding/json"

// FetchRequest is the bus payload for balance and transaction list reads: the
// fully built provider endpoint to call.
type FetchRequest struct {
	Endpoint string
}

// TransferDispatch is the bus payload for a money transfer: the provider
// endpoint (account id already substituted) and the raw request body as
// received at ingress. The executor parses the body itself so a malformed
// payload is classified as a validation failure without any external call.
type TransferDispatch struct {
	Endpoint string
	Payload  json.RawMessage
}

// PersistenceBatch is the fire-and-forget bus payload carrying the
// transaction records fetched by a read, to be stored without duplicates.
type PersistenceBatch struct {
	Records []TransactionRecord
}
