// internal/snapshot/profit.go
package snapshot

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// StableToLamportsRate переводит минимальную единицу USDC в лампорты.
//
// SOL и WSOL имеют 9 знаков, USDC 6. При курсе 1 SOL ≈ 200 USDC
// 1 USDC (1e6) ≈ 5_000_000 лампортов, т.е. 1 micro-USDC ≈ 5 лампортов.
// Это фиксированная эвристика, а не живая цена: смена константы меняет смысл профита.
const StableToLamportsRate = 5

// NativeDecimals количество знаков у SOL/WSOL.
const NativeDecimals = 9

// StableDecimals количество знаков у USDC.
const StableDecimals = 6

var stableRate = big.NewInt(StableToLamportsRate)

// ComputeProfitLamports считает профит в лампортах между двумя снапшотами:
//
//	profit = ΔSOL + ΔWSOL + ΔUSDC * 5
//
// Порядок аргументов фиксирован (before, after). Результат знаковый и не
// переполняется для любых uint64 входов.
func ComputeProfitLamports(before, after WalletSnapshot) *big.Int {
	deltaNative := delta(before.NativeBalance, after.NativeBalance)
	deltaWrapped := delta(before.WrappedBalance, after.WrappedBalance)
	deltaStable := delta(before.StableBalance, after.StableBalance)

	profit := new(big.Int).Add(deltaNative, deltaWrapped)
	return profit.Add(profit, deltaStable.Mul(deltaStable, stableRate))
}

// delta возвращает after - before как знаковое число.
func delta(before, after uint64) *big.Int {
	d := new(big.Int).SetUint64(after)
	return d.Sub(d, new(big.Int).SetUint64(before))
}

// FormatLamportsAsSOL форматирует количество лампортов как сумму в SOL.
func FormatLamportsAsSOL(lamports *big.Int) string {
	if lamports == nil {
		return "0"
	}
	return decimal.NewFromBigInt(lamports, -NativeDecimals).String()
}
