/**
 * @description
 * This file contains the HTTP handlers for the account-service's API endpoints.
 * Handlers are responsible for parsing and validating incoming requests, calling
 * the dispatch service, and writing the HTTP response. Worker replies are passed
 * through verbatim; handler-signaled failures are translated into an error
 * envelope carrying the correlation id.
 *
 * @dependencies
 * - encoding/json, errors, log, net, net/http: Standard Go libraries.
 * - internal/app, internal/bus, internal/domain, internal/errcode: For dispatch,
 *   failure classification, and request models.
 */

package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/contodemo/account-service/internal/app"
	"github.com/contodemo/account-service/internal/bus"
	"github.com/contodemo/account-service/internal/domain"
	"github.com/contodemo/account-service/internal/errcode"
)

var accountingDatePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// AccountHandlers holds the dispatch service that handlers will use.
type AccountHandlers struct {
	service *app.Service
}

// NewAccountHandlers creates the handler set around the dispatch service.
func NewAccountHandlers(service *app.Service) *AccountHandlers {
	return &AccountHandlers{service: service}
}

// errorResponse is the envelope returned for every failed request so clients
// can always correlate a failure with the request id they observed.
type errorResponse struct {
	Status    string `json:"status"`
	RequestID string `json:"requestId"`
	Message   string `json:"message"`
}

// BalanceHandler serves GET /api/accounts/balance.
func (h *AccountHandlers) BalanceHandler(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())

	reply, err := h.service.GetBalance(r.Context(), requestID)
	if err != nil {
		h.writeDispatchError(w, requestID, err)
		return
	}
	h.writeRaw(w, http.StatusOK, reply)
}

// TransactionsHandler serves GET /api/accounts/transactions. Both accounting
// date bounds are required and must be YYYY-MM-DD.
func (h *AccountHandlers) TransactionsHandler(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())

	fromDate := strings.TrimSpace(r.URL.Query().Get("fromAccountingDate"))
	toDate := strings.TrimSpace(r.URL.Query().Get("toAccountingDate"))

	for _, param := range []struct{ name, value string }{
		{"fromAccountingDate", fromDate},
		{"toAccountingDate", toDate},
	} {
		if param.value == "" {
			h.writeError(w, http.StatusBadRequest, requestID, "Missing required parameter: "+param.name)
			return
		}
		if !accountingDatePattern.MatchString(param.value) {
			h.writeError(w, http.StatusBadRequest, requestID, fmt.Sprintf("Invalid date format for %s, expected YYYY-MM-DD", param.name))
			return
		}
	}

	reply, err := h.service.ListTransactions(r.Context(), requestID, fromDate, toDate)
	if err != nil {
		h.writeDispatchError(w, requestID, err)
		return
	}
	h.writeRaw(w, http.StatusOK, reply)
}

// MoneyTransferHandler serves POST /api/accounts/payments/money-transfers.
// The body is validated here so obviously broken requests never reach the
// external provider, then handed to the transfer executor unmodified.
func (h *AccountHandlers) MoneyTransferHandler(w http.ResponseWriter, r *http.Request) {
	requestID := RequestIDFromContext(r.Context())

	body, err := io.ReadAll(r.Body)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, requestID, "Unable to read request body")
		return
	}

	var request domain.TransferRequest
	if err := json.Unmarshal(body, &request); err != nil {
		h.writeError(w, http.StatusBadRequest, requestID, "Invalid JSON in request body")
		return
	}
	if problems := request.Validate(); len(problems) > 0 {
		h.writeError(w, http.StatusBadRequest, requestID, "Validation failed: "+strings.Join(problems, "; "))
		return
	}

	reply, retryAfter, err := h.service.InitiateTransfer(r.Context(), requestID, callerKey(r), body)
	if err != nil {
		if errors.Is(err, app.ErrRateLimited) {
			w.Header().Set("Retry-After", strconv.Itoa(retryAfter))
			h.writeError(w, http.StatusTooManyRequests, requestID, "Too many transfer requests. Please retry later.")
			return
		}
		h.writeDispatchError(w, requestID, err)
		return
	}
	h.writeRaw(w, http.StatusOK, reply)
}

// writeDispatchError maps a bus error onto an HTTP status. Handler-signaled
// failures follow their classification; a timeout means the outcome is
// unknown, which is not the same thing as a failed call.
func (h *AccountHandlers) writeDispatchError(w http.ResponseWriter, requestID string, err error) {
	var failure *bus.Failure
	switch {
	case errors.As(err, &failure):
		h.writeError(w, errcode.ToHTTPStatus(failure.Code), requestID, failure.Message)
	case errors.Is(err, bus.ErrTimeout):
		h.writeError(w, http.StatusGatewayTimeout, requestID, "Request timed out. The operation outcome is unknown.")
	case errors.Is(err, bus.ErrNoSubscriber):
		h.writeError(w, http.StatusServiceUnavailable, requestID, "Service is not ready to handle this operation")
	default:
		log.Printf("level=error component=api msg=\"unexpected dispatch error\" request_id=%s err=%v", requestID, err)
		h.writeError(w, http.StatusInternalServerError, requestID, "Internal server error")
	}
}

func (h *AccountHandlers) writeError(w http.ResponseWriter, status int, requestID, message string) {
	h.writeJSON(w, status, errorResponse{
		Status:    domain.StatusError,
		RequestID: requestID,
		Message:   message,
	})
}

func (h *AccountHandlers) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("level=error component=api msg=\"failed to write response\" err=%v", err)
	}
}

// writeRaw passes a worker reply through without re-encoding it.
func (h *AccountHandlers) writeRaw(w http.ResponseWriter, status int, payload json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(payload); err != nil {
		log.Printf("level=error component=api msg=\"failed to write response\" err=%v", err)
	}
}

// callerKey identifies the caller for rate limiting purposes. The remote host
// is the best stable key available without end-user authentication.
func callerKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
