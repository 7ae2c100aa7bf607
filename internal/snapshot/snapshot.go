// internal/snapshot/snapshot.go
package snapshot

import (
	"context"
)

// WalletSnapshot фиксирует балансы кошелька в один момент времени.
// После создания не изменяется: "до" и "после" всегда два независимых значения.
type WalletSnapshot struct {
	NativeBalance  uint64 `json:"native_balance"`  // SOL в лампортах (9 знаков)
	WrappedBalance uint64 `json:"wrapped_balance"` // WSOL, тот же масштаб что и у SOL (9 знаков)
	StableBalance  uint64 `json:"stable_balance"`  // USDC в минимальных единицах (6 знаков)
}

// NativeBalanceHolder отдаёт текущий нативный баланс. Чтение никогда не падает.
type NativeBalanceHolder interface {
	Lamports() uint64
}

// TokenBalanceSource представляет токен-аккаунт с кешированными данными.
//
// nil означает, что аккаунта нет (никогда не существовал). Аккаунт с нулевым
// Lamports() считается закрытым. Оба случая дают нулевой вклад в снапшот.
type TokenBalanceSource interface {
	// Lamports возвращает выделенный под аккаунт баланс (0 для закрытого аккаунта).
	Lamports() uint64
	// Reload перечитывает кешированные поля из хранилища.
	Reload(ctx context.Context) error
	// Amount возвращает баланс токена из кеша.
	Amount() uint64
}

// Sources объединяет три источника балансов одного кошелька.
type Sources struct {
	Native  NativeBalanceHolder
	Wrapped TokenBalanceSource // WSOL ATA, может быть nil
	Stable  TokenBalanceSource // USDC ATA, может быть nil
}
