package businessflow

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Receipts handled, partitioned by payload shape and reconciliation result
	receiptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_receipts_total",
			Help: "Total number of delivery receipts received",
		},
		[]string{"shape", "result"},
	)

	// Canonical outcomes applied to message records
	receiptOutcomesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_receipt_outcomes_total",
			Help: "Total number of delivery outcomes applied to message records",
		},
		[]string{"outcome"},
	)

	// Outbound submissions
	sendsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "sms_sends_total",
			Help: "Total number of SMS submissions to the aggregator",
		},
		[]string{"result"},
	)
)

// Reconciliation results used as metric labels
const (
	resultApplied      = "applied"
	resultNotFound     = "not_found"
	resultUnparseable  = "unparseable"
	resultStoreFailure = "store_failure"
	resultPanic        = "panic"
)
