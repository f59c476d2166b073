// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Ledger operation counters, exported on /metrics
var (
	ConsumptionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseledger_consumptions_total",
		Help: "Number of FIFO consumption calls processed",
	})

	ShortfallsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseledger_shortfalls_total",
		Help: "Number of consumption calls that ended with a shortfall",
	})

	ReconciliationsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseledger_reconciliations_total",
		Help: "Number of physical count reconciliations applied",
	})

	CutoffRejectionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseledger_cutoff_rejections_total",
		Help: "Number of physical counts rejected for cutoff violations",
	})

	FulfillmentsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseledger_fulfillments_total",
		Help: "Number of order fulfillment matching calls processed",
	})

	OrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "caseledger_orders_completed_total",
		Help: "Number of orders transitioned to completed",
	})

	AuditsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "caseledger_audits_total",
		Help: "Number of discrepancy audits run, by resulting severity",
	}, []string{"severity"})
)
