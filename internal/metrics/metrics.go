package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BusRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conto_bus_requests_total",
		Help: "Total dispatch bus requests, labelled by topic and outcome.",
	}, []string{"topic", "status"})

	TransferOutcomes = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "conto_transfer_outcomes_total",
		Help: "Total money transfer outcomes, labelled by terminal state.",
	}, []string{"outcome"})

	ReconciliationRuns = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conto_reconciliation_runs_total",
		Help: "Total reconciliation lookups triggered by ambiguous transfer failures.",
	})

	TransactionsPersisted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conto_transactions_persisted_total",
		Help: "Total transaction rows written by the persistence worker.",
	})

	TransactionsSkipped = promauto.NewCounter(prometheus.CounterOpts{
		Name: "conto_transactions_skipped_total",
		Help: "Total transaction rows skipped because they were already stored.",
	})
)
