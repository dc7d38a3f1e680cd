/**
 * @description
 * This package provides a client for the external banking API. It encapsulates
 * authenticated HTTP access (auth schema and API key headers), endpoint URL
 * construction, and the classification of call outcomes by HTTP status.
 *
 * @dependencies
 * - bytes, context, fmt, io, net/http, time: Standard Go libraries.
 */
package fabrickclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Client is a client for the banking provider API.
type Client struct {
	BaseURL    string
	APIKey     string
	AuthSchema string
	HTTPClient *http.Client
}

// NewClient creates a new provider API client.
func NewClient(baseURL, apiKey, authSchema string) *Client {
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		AuthSchema: authSchema,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// BalanceURL returns the balance endpoint for an account.
func (c *Client) BalanceURL(accountID string) string {
	return fmt.Sprintf("%s/accounts/%s/balance", c.BaseURL, accountID)
}

// TransactionsURL returns the transaction list endpoint for an account and
// accounting date window.
func (c *Client) TransactionsURL(accountID, fromDate, toDate string) string {
	return fmt.Sprintf("%s/accounts/%s/transactions?fromAccountingDate=%s&toAccountingDate=%s",
		c.BaseURL, accountID, fromDate, toDate)
}

// MoneyTransferURL returns the money transfer endpoint for an account.
func (c *Client) MoneyTransferURL(accountID string) string {
	return fmt.Sprintf("%s/accounts/%s/payments/money-transfers", c.BaseURL, accountID)
}

// OutcomeKind classifies an external call response by its HTTP status.
type OutcomeKind int

const (
	// OutcomeSuccess: status below 300.
	OutcomeSuccess OutcomeKind = iota

	// OutcomeError: a non-success status that definitely reflects the
	// provider's state (the request was processed and rejected).
	OutcomeError

	// OutcomeAmbiguous: HTTP 500 or 504, after which the provider's actual
	// state cannot be inferred from the response alone.
	OutcomeAmbiguous
)

// Response is the raw result of a completed external call. Transport failures
// never produce a Response; they surface as errors from Get/Post.
type Response struct {
	StatusCode int
	Body       []byte
}

// Kind classifies the response. Classification is purely a function of the
// HTTP status code.
func (r *Response) Kind() OutcomeKind {
	switch {
	case r.StatusCode < 300:
		return OutcomeSuccess
	case r.StatusCode == 500 || r.StatusCode == 504:
		return OutcomeAmbiguous
	default:
		return OutcomeError
	}
}

// Get issues an authenticated GET against url. A non-nil error means the call
// never reached the provider or never returned.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.do(ctx, http.MethodGet, url, nil)
}

// Post issues an authenticated POST with a JSON body against url.
func (c *Client) Post(ctx context.Context, url string, body []byte) (*Response, error) {
	return c.do(ctx, http.MethodPost, url, body)
}

func (c *Client) do(ctx context.Context, method, url string, body []byte) (*Response, error) {
	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reader)
	if err != nil {
		return nil, fmt.Errorf("failed to create %s request: %w", method, err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Auth-Schema", c.AuthSchema)
	req.Header.Set("Api-Key", c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s request: %w", method, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}

	return &Response{StatusCode: resp.StatusCode, Body: respBody}, nil
}
