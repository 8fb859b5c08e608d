package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsTotal tracks terminal record outcomes
	RecordsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_records_total",
			Help: "Total number of records that reached a terminal state",
		},
		[]string{"result"},
	)

	// RecordAttempts tracks record-level attempts (including the first)
	RecordAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loader_record_attempts_total",
			Help: "Total number of record-level submission attempts",
		},
	)

	// GasPriceBumps tracks underpriced rejections answered with a higher gas price
	GasPriceBumps = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loader_gas_price_bumps_total",
			Help: "Total number of gas price increases after underpriced rejections",
		},
	)

	// NonceRefreshes tracks stale nonce rejections
	NonceRefreshes = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loader_nonce_refreshes_total",
			Help: "Total number of nonce re-fetches after nonce too low rejections",
		},
	)

	// ReceiptPolls tracks receipt polls that found nothing yet
	ReceiptPolls = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "loader_receipt_pending_polls_total",
			Help: "Total number of receipt polls that returned no receipt",
		},
	)

	// GasPriceWei is the gas price of the last signed transaction
	GasPriceWei = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loader_gas_price_wei",
			Help: "Gas price used for the most recent signed transaction",
		},
	)

	// AccountNonce is the nonce of the last signed transaction
	AccountNonce = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loader_account_nonce",
			Help: "Nonce used for the most recent signed transaction",
		},
	)

	// BatchRecords tracks batch size and progress
	BatchRecords = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "loader_batch_records",
			Help: "Records in the current batch by stage (total, processed)",
		},
		[]string{"stage"},
	)

	// RPCCallsTotal tracks RPC calls per method
	RPCCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_rpc_calls_total",
			Help: "Total number of RPC calls",
		},
		[]string{"chain", "method"},
	)

	// RPCErrorsTotal tracks RPC errors per method
	RPCErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "loader_rpc_errors_total",
			Help: "Total number of RPC errors",
		},
		[]string{"chain", "method", "error_type"},
	)

	// RPCLatency tracks RPC call latency
	RPCLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "loader_rpc_latency_seconds",
			Help:    "RPC call latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"chain", "method"},
	)

	// DBConnectionPoolUsage tracks outcome database pool usage
	DBConnectionPoolUsage = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "loader_db_connection_pool_usage_percent",
			Help: "Percentage of the outcome database pool in use",
		},
	)
)
