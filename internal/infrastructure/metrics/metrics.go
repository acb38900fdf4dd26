package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds all Prometheus metrics
type Metrics struct {
	// Ledger metrics
	Deposits          *prometheus.CounterVec
	Withdrawals       *prometheus.CounterVec
	Sweeps            prometheus.Counter
	CapUpdates        prometheus.Counter
	OperationErrors   *prometheus.CounterVec
	OperationDuration *prometheus.HistogramVec

	// Cap metrics
	OraclePrice     prometheus.Gauge
	NativeCap       prometheus.Gauge
	NativeDeposited prometheus.Gauge

	// Interaction metrics
	TransferFailures *prometheus.CounterVec
	PendingTransfers *prometheus.CounterVec
	CommitFailures   prometheus.Counter

	// Outbox metrics
	EventsPublished *prometheus.CounterVec
}

// New creates and registers all metrics on the default registerer.
func New() *Metrics {
	return NewWithRegisterer(prometheus.DefaultRegisterer)
}

// NewWithRegisterer creates and registers all metrics on reg.
func NewWithRegisterer(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		Deposits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_deposits_total",
				Help: "Total number of successful deposits by asset kind",
			},
			[]string{"asset_kind"},
		),
		Withdrawals: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_withdrawals_total",
				Help: "Total number of successful withdrawals by asset kind",
			},
			[]string{"asset_kind"},
		),
		Sweeps: factory.NewCounter(prometheus.CounterOpts{
			Name: "vaultledger_sweeps_total",
			Help: "Total number of owner sweeps",
		}),
		CapUpdates: factory.NewCounter(prometheus.CounterOpts{
			Name: "vaultledger_withdrawal_cap_updates_total",
			Help: "Total number of withdrawal cap changes",
		}),
		OperationErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_operation_errors_total",
				Help: "Total number of rejected operations by error kind",
			},
			[]string{"operation", "error_type"},
		),
		OperationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "vaultledger_operation_duration_seconds",
				Help:    "Duration of ledger operations",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),

		OraclePrice: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vaultledger_oracle_price_usd",
			Help: "Last accepted oracle price in USD per native unit",
		}),
		NativeCap: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vaultledger_native_cap",
			Help: "Last computed native deposit cap in whole native units",
		}),
		NativeDeposited: factory.NewGauge(prometheus.GaugeOpts{
			Name: "vaultledger_native_deposited",
			Help: "Native value credited to users in whole native units",
		}),

		TransferFailures: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_transfer_failures_total",
				Help: "External transfers that reported failure",
			},
			[]string{"direction", "asset_kind"},
		),
		PendingTransfers: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_pending_transfers_total",
				Help: "Payouts committed after broadcast without a receipt",
			},
			[]string{"asset_kind"},
		),
		CommitFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "vaultledger_commit_failures_total",
			Help: "Commits that failed after a successful transfer interaction",
		}),

		EventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "vaultledger_events_published_total",
				Help: "Outbox events handed to a sink",
			},
			[]string{"event_type", "status"},
		),
	}
}

// AssetKind returns the label value for an asset.
func AssetKind(native bool) string {
	if native {
		return "native"
	}
	return "token"
}
