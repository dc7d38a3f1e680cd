/**
 * @description
 * This file sets up the HTTP router for the account-service. It defines the API
 * endpoints, associates them with their corresponding handlers, and applies any
 * necessary middleware, such as request correlation and panic recovery.
 *
 * @dependencies
 * - net/http: Standard Go library for HTTP functionality.
 * - github.com/go-chi/chi/v5: A lightweight and idiomatic router for Go.
 * - github.com/prometheus/client_golang: Exposes the /metrics endpoint.
 */

package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// AccountRoutes creates and returns a new router for the account service.
func AccountRoutes(h *AccountHandlers) http.Handler {
	r := chi.NewRouter()

	// Add standard middleware for logging, panic recovery, and correlation.
	// The account API carries no request timeout middleware: the dispatch bus
	// bounds every operation with its own deadline.
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(RequestIDMiddleware)

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("healthy"))
	})

	// Prometheus metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/accounts", func(r chi.Router) {
		r.Get("/balance", h.BalanceHandler)
		r.Get("/transactions", h.TransactionsHandler)
		r.Post("/payments/money-transfers", h.MoneyTransferHandler)
	})

	return r
}
