// internal/monitor/watch.go
package monitor

import (
	"context"
	"errors"
	"math/big"
	"time"

	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-profit/internal/snapshot"
	"github.com/rovshanmuradov/solana-profit/internal/utils/metrics"
)

// Update очередной снапшот и профит относительно базового и предыдущего.
type Update struct {
	Time          time.Time
	Snapshot      snapshot.WalletSnapshot
	SinceBaseline *big.Int
	SinceLast     *big.Int
}

// UpdateCallback вызывается на каждый снапшот, включая базовый.
type UpdateCallback func(Update)

// Watch снимает базовый снапшот и затем периодически считает профит.
// Ошибка базового снапшота возвращается сразу, ошибки на тиках логируются
// и тик пропускается. Завершается без ошибки при отмене контекста.
func (s *Service) Watch(ctx context.Context, interval time.Duration, callback UpdateCallback) error {
	if interval <= 0 {
		return errors.New("watch interval must be positive")
	}

	baseline, err := s.Snapshot(ctx)
	if err != nil {
		return err
	}
	s.logger.Info("Watching wallet",
		zap.Duration("interval", interval),
		zap.Uint64("native_lamports", baseline.NativeBalance),
		zap.Uint64("wsol_amount", baseline.WrappedBalance),
		zap.Uint64("usdc_amount", baseline.StableBalance))

	callback(Update{
		Time:          time.Now(),
		Snapshot:      baseline,
		SinceBaseline: new(big.Int),
		SinceLast:     new(big.Int),
	})

	last := baseline
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Wallet watch stopped")
			return nil
		case <-ticker.C:
			if ctx.Err() != nil {
				s.logger.Info("Wallet watch stopped")
				return nil
			}
			current, err := s.Snapshot(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return nil
				}
				s.logger.Warn("Failed to take snapshot, skipping tick", zap.Error(err))
				continue
			}

			update := Update{
				Time:          time.Now(),
				Snapshot:      current,
				SinceBaseline: snapshot.ComputeProfitLamports(baseline, current),
				SinceLast:     snapshot.ComputeProfitLamports(last, current),
			}
			last = current

			if s.metrics != nil {
				s.metrics.RecordProfit(s.wallet.String(), metrics.WindowBaseline, update.SinceBaseline)
				s.metrics.RecordProfit(s.wallet.String(), metrics.WindowTick, update.SinceLast)
			}
			if update.SinceLast.Sign() != 0 {
				s.logger.Info("Wallet balance changed",
					zap.String("profit_lamports", update.SinceLast.String()),
					zap.String("total_profit_sol", snapshot.FormatLamportsAsSOL(update.SinceBaseline)))
			}

			callback(update)
		}
	}
}
