package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Pool metrics
	PoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stakedex_pool_count",
		Help: "Total number of registered stake pools",
	})

	SyncedPoolCount = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stakedex_synced_pool_count",
		Help: "Number of pools updated for the current epoch",
	})

	TrackedAccounts = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stakedex_tracked_accounts",
		Help: "Number of accounts fetched on each refresh",
	})

	CurrentEpoch = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stakedex_current_epoch",
		Help: "Epoch reported by the RPC node at the last refresh",
	})

	// Refresh metrics
	Refreshes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakedex_refreshes_total",
			Help: "Total number of refresh cycles",
		},
		[]string{"status"},
	)

	PoolUpdateFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakedex_pool_update_failures_total",
			Help: "Total number of failed pool state updates",
		},
		[]string{"pool"},
	)

	RefreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "stakedex_refresh_duration_seconds",
		Help:    "Refresh cycle duration in seconds",
		Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
	})

	RPCFetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "stakedex_rpc_fetch_retries_total",
		Help: "Total number of retried account batch fetches",
	})

	// Quote metrics
	QuoteRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakedex_quote_requests_total",
			Help: "Total number of quote requests",
		},
		[]string{"kind", "status"},
	)

	QuoteDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stakedex_quote_duration_seconds",
			Help:    "Quote request duration in seconds",
			Buckets: []float64{0.00001, 0.00005, 0.0001, 0.0005, 0.001, 0.005, 0.01, 0.05},
		},
		[]string{"kind"},
	)

	RouteCacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakedex_route_cache_lookups_total",
			Help: "Total number of route cache lookups",
		},
		[]string{"result"},
	)

	// Prefund metrics
	SlumdogTargetLamports = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "stakedex_slumdog_target_lamports",
		Help: "Lamports the slumdog stake must hold to repay the prefund flash loan",
	})

	PrefundFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakedex_prefund_failures_total",
			Help: "Total number of failed prefund sizings",
		},
		[]string{"reason"},
	)

	// HTTP metrics
	HTTPRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "stakedex_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	HTTPDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "stakedex_http_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path"},
	)
)
