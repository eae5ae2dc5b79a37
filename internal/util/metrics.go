package util

import (
	"errors"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RepairOrdersCreatedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repair_orders_created_total",
		Help: "Total number of repair orders created",
	})

	RepairOrdersCompletedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repair_orders_completed_total",
		Help: "Total number of repair orders completed",
	})

	RepairOrdersCancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "repair_orders_cancelled_total",
		Help: "Total number of repair orders cancelled",
	})

	RepairOrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "repair_orders_failed_total",
		Help: "Total number of rejected repair order requests",
	}, []string{"reason"})

	PurchaseOrdersTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "purchase_orders_total",
		Help: "Total number of purchase orders received",
	})

	PurchaseOrdersFailedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_orders_failed_total",
		Help: "Total number of rejected purchase order requests",
	}, []string{"reason"})

	StockUnitsMovedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "stock_units_moved_total",
		Help: "Units of stock moved, by direction",
	}, []string{"direction"})

	LowStockAlertsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "low_stock_alerts_total",
		Help: "Total number of parts that dropped to or below their minimum",
	})

	TransactionLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shop_transaction_latency_seconds",
		Help:    "Latency of order and purchase units of work",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})

	BackupsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "backups_total",
		Help: "Backup operations, by outcome",
	}, []string{"outcome"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "http_request_duration_seconds",
		Help:    "HTTP request latency",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "path", "status"})

	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

// FailureReason maps an error to a low-cardinality metric label.
func FailureReason(err error, reasons map[error]string) string {
	for target, label := range reasons {
		if errors.Is(err, target) {
			return label
		}
	}
	return "internal"
}
