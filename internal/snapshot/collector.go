// internal/snapshot/collector.go
package snapshot

import (
	"context"

	"go.uber.org/zap"
)

// Метки активов для логов и метрик
const (
	AssetWrapped = "wsol"
	AssetStable  = "usdc"
)

// ReloadObserver получает уведомления о неудачном обновлении кеша аккаунта.
type ReloadObserver interface {
	ReloadFailed(asset string, err error)
}

// Collector снимает снапшоты балансов кошелька. Состояния между вызовами не хранит,
// поэтому один и тот же Collector используется и для "до", и для "после".
type Collector struct {
	logger   *zap.Logger
	observer ReloadObserver
}

// NewCollector создаёт коллектор. observer может быть nil.
func NewCollector(logger *zap.Logger, observer ReloadObserver) *Collector {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Collector{
		logger:   logger.Named("snapshot"),
		observer: observer,
	}
}

// Collect снимает снапшот трёх балансов. Ошибок наружу не отдаёт:
// отсутствующий или закрытый аккаунт даёт 0, ошибка Reload проглатывается.
func (c *Collector) Collect(
	ctx context.Context,
	native NativeBalanceHolder,
	wrapped TokenBalanceSource,
	stable TokenBalanceSource,
) WalletSnapshot {
	var nativeBalance uint64
	if native != nil {
		nativeBalance = native.Lamports()
	}

	snap := WalletSnapshot{
		NativeBalance:  nativeBalance,
		WrappedBalance: c.readOrZero(ctx, AssetWrapped, wrapped),
		StableBalance:  c.readOrZero(ctx, AssetStable, stable),
	}

	c.logger.Debug("Wallet snapshot collected",
		zap.Uint64("native_lamports", snap.NativeBalance),
		zap.Uint64("wsol_amount", snap.WrappedBalance),
		zap.Uint64("usdc_amount", snap.StableBalance))

	return snap
}

// CollectSources то же самое, что Collect, но принимает набор Sources.
func (c *Collector) CollectSources(ctx context.Context, src Sources) WalletSnapshot {
	return c.Collect(ctx, src.Native, src.Wrapped, src.Stable)
}

// readOrZero читает баланс токен-аккаунта, предварительно обновив кеш.
func (c *Collector) readOrZero(ctx context.Context, asset string, src TokenBalanceSource) uint64 {
	if src == nil {
		return 0
	}
	if src.Lamports() == 0 {
		// аккаунт закрыт
		return 0
	}

	// Аккаунт мог измениться в рамках той же операции, кеш обязательно обновляем
	if err := src.Reload(ctx); err != nil {
		c.logger.Debug("Token account reload failed, using cached amount",
			zap.String("asset", asset),
			zap.Error(err))
		if c.observer != nil {
			c.observer.ReloadFailed(asset, err)
		}
	}

	return src.Amount()
}
