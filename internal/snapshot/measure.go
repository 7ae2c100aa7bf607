// internal/snapshot/measure.go
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"math/big"
)

// Measurement результат замера: снапшоты до/после и профит в лампортах.
type Measurement struct {
	Before WalletSnapshot
	After  WalletSnapshot
	Profit *big.Int
}

// SourceLoader возвращает актуальные источники балансов.
type SourceLoader func(ctx context.Context) (Sources, error)

// StaticSources оборачивает уже полученные источники в SourceLoader.
func StaticSources(src Sources) SourceLoader {
	return func(context.Context) (Sources, error) {
		return src, nil
	}
}

// Measure снимает снапшот, выполняет op, снимает второй снапшот и считает профит.
//
// Если op вернула ошибку, замер всё равно возвращается вместе с этой ошибкой:
// комиссия за неудачную операцию тоже отражается в профите.
// Если после op не удалось загрузить источники, возвращается замер только
// с Before (Profit == nil), а ошибка op сохраняется в общей ошибке.
func Measure(ctx context.Context, c *Collector, load SourceLoader, op func(ctx context.Context) error) (Measurement, error) {
	src, err := load(ctx)
	if err != nil {
		return Measurement{}, fmt.Errorf("failed to load sources before operation: %w", err)
	}
	before := c.CollectSources(ctx, src)

	opErr := op(ctx)

	src, err = load(ctx)
	if err != nil {
		err = fmt.Errorf("failed to load sources after operation: %w", err)
		if opErr != nil {
			err = errors.Join(fmt.Errorf("operation failed: %w", opErr), err)
		}
		return Measurement{Before: before}, err
	}
	after := c.CollectSources(ctx, src)

	m := Measurement{
		Before: before,
		After:  after,
		Profit: ComputeProfitLamports(before, after),
	}
	if opErr != nil {
		return m, fmt.Errorf("operation failed: %w", opErr)
	}
	return m, nil
}
