package fabrickclient

import (
	"encoding/json"
	"fmt"
	"strings"
)

// APIError is one entry of the provider's error envelope.
type APIError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
	Params      string `json:"params,omitempty"`
}

// ErrorEnvelope is the provider's error response shape.
type ErrorEnvelope struct {
	Status  string          `json:"status"`
	Errors  []APIError      `json:"errors"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// ParseErrorEnvelope decodes a provider error body. The caller decides how an
// undecodable body is classified.
func ParseErrorEnvelope(body []byte) (*ErrorEnvelope, error) {
	var envelope ErrorEnvelope
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("failed to decode error envelope: %w", err)
	}
	return &envelope, nil
}

// FormatErrors renders the provider's error list into one message,
// "ErrorCode <code> - code: X, description: Y; " for each entry, prefixed
// with the given classification code.
func FormatErrors(code int, errs []APIError) string {
	var builder strings.Builder
	fmt.Fprintf(&builder, "ErrorCode %d - ", code)
	for _, e := range errs {
		fmt.Fprintf(&builder, "code: %s, description: %s; ", e.Code, e.Description)
	}
	return builder.String()
}
