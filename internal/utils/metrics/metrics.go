// internal/utils/metrics/metrics.go
package metrics

import (
	"math/big"
	"time"

	"github.com/rovshanmuradov/solana-profit/internal/snapshot"
)

// Окна, для которых публикуется профит
const (
	WindowBaseline = "baseline"
	WindowTick     = "tick"
	WindowMeasure  = "measure"
)

// RecordSnapshot записывает факт снятия снапшота и текущие балансы
func (c *Collector) RecordSnapshot(wallet string, snap snapshot.WalletSnapshot) {
	c.snapshots.WithLabelValues(wallet).Inc()
	c.walletBalance.WithLabelValues(wallet, "sol").Set(float64(snap.NativeBalance))
	c.walletBalance.WithLabelValues(wallet, snapshot.AssetWrapped).Set(float64(snap.WrappedBalance))
	c.walletBalance.WithLabelValues(wallet, snapshot.AssetStable).Set(float64(snap.StableBalance))
}

// RecordProfit публикует последний профит в лампортах
func (c *Collector) RecordProfit(wallet, window string, lamports *big.Int) {
	if lamports == nil {
		return
	}
	value, _ := new(big.Float).SetInt(lamports).Float64()
	c.profit.WithLabelValues(wallet, window).Set(value)
}

// ReloadFailed реализует snapshot.ReloadObserver
func (c *Collector) ReloadFailed(asset string, _ error) {
	c.reloadFailures.WithLabelValues(asset).Inc()
}

// RecordRPCLatency записывает метрики RPC-запроса
func (c *Collector) RecordRPCLatency(method, endpoint string, duration time.Duration) {
	c.rpcLatency.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}
