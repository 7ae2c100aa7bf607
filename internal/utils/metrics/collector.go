// internal/utils/metrics/collector.go
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "solana_profit"

// MetricType представляет тип метрики
type MetricType string

const (
	SnapshotCounterType      MetricType = "snapshots_total"
	ReloadFailureCounterType MetricType = "reload_failures_total"
	ProfitGaugeType          MetricType = "profit_lamports"
	WalletBalanceGaugeType   MetricType = "wallet_balance"
	RPCLatencyType           MetricType = "rpc_latency"
)

// Collector управляет набором метрик. У каждого коллектора свой registry,
// поэтому несколько экземпляров не конфликтуют при регистрации.
type Collector struct {
	metrics  sync.Map
	registry *prometheus.Registry

	snapshots      *prometheus.CounterVec
	reloadFailures *prometheus.CounterVec
	profit         *prometheus.GaugeVec
	walletBalance  *prometheus.GaugeVec
	rpcLatency     *prometheus.HistogramVec
}

// NewCollector создает новый экземпляр коллектора метрик
func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		snapshots: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "snapshots_total",
				Help:      "Total number of wallet snapshots collected",
			},
			[]string{"wallet"},
		),
		reloadFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reload_failures_total",
				Help:      "Token account reloads that failed and fell back to cached data",
			},
			[]string{"asset"},
		),
		profit: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "profit_lamports",
				Help:      "Last computed profit in lamports",
			},
			[]string{"wallet", "window"},
		),
		walletBalance: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "wallet_balance",
				Help:      "Last collected wallet balance in the asset's smallest unit",
			},
			[]string{"wallet", "asset"},
		),
		rpcLatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "rpc_latency_seconds",
				Help:      "RPC request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
	}
	c.initializeMetrics()
	return c
}

func (c *Collector) initializeMetrics() {
	metricsMap := map[MetricType]prometheus.Collector{
		SnapshotCounterType:      c.snapshots,
		ReloadFailureCounterType: c.reloadFailures,
		ProfitGaugeType:          c.profit,
		WalletBalanceGaugeType:   c.walletBalance,
		RPCLatencyType:           c.rpcLatency,
	}

	for metricType, metric := range metricsMap {
		c.metrics.Store(metricType, metric)
		c.registry.MustRegister(metric)
	}
}

// Registry возвращает registry коллектора.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// Handler возвращает HTTP handler для /metrics.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// Reset сбрасывает все метрики (полезно для тестирования)
func (c *Collector) Reset() {
	c.metrics.Range(func(_, value interface{}) bool {
		switch m := value.(type) {
		case *prometheus.CounterVec:
			m.Reset()
		case *prometheus.GaugeVec:
			m.Reset()
		case *prometheus.HistogramVec:
			m.Reset()
		}
		return true
	})
}
