// internal/blockchain/solbc/account.go
package solbc

import (
	"context"
	"fmt"

	bin "github.com/gagliardetto/binary"
	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/programs/token"
	"github.com/gagliardetto/solana-go/rpc"
)

// TokenAccountSize размер данных SPL токен-аккаунта (без расширений Token-2022).
const TokenAccountSize = 165

// AccountFetcher читает аккаунт из блокчейна.
type AccountFetcher interface {
	GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error)
}

// BalanceFetcher читает нативный баланс аккаунта.
type BalanceFetcher interface {
	GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error)
}

////////////////////////////////////////////////////////////////////////////////
// Нативный аккаунт
////////////////////////////////////////////////////////////////////////////////

// NativeAccount хранит последний прочитанный баланс SOL кошелька.
type NativeAccount struct {
	address  solana.PublicKey
	fetcher  BalanceFetcher
	lamports uint64
}

// LoadNativeAccount читает баланс кошелька. Несуществующий кошелёк имеет баланс 0.
func LoadNativeAccount(ctx context.Context, fetcher BalanceFetcher, address solana.PublicKey) (*NativeAccount, error) {
	acc := &NativeAccount{address: address, fetcher: fetcher}
	if err := acc.Reload(ctx); err != nil {
		return nil, err
	}
	return acc, nil
}

// Address возвращает адрес кошелька.
func (a *NativeAccount) Address() solana.PublicKey { return a.address }

// Lamports возвращает закешированный баланс.
func (a *NativeAccount) Lamports() uint64 {
	if a == nil {
		return 0
	}
	return a.lamports
}

// Reload перечитывает баланс кошелька.
func (a *NativeAccount) Reload(ctx context.Context) error {
	lamports, err := a.fetcher.GetBalance(ctx, a.address)
	if err != nil {
		return fmt.Errorf("failed to get balance for %s: %w", a.address, err)
	}
	a.lamports = lamports
	return nil
}

////////////////////////////////////////////////////////////////////////////////
// Токен-аккаунт
////////////////////////////////////////////////////////////////////////////////

// TokenAccount кеширует lamports и декодированные данные SPL токен-аккаунта.
// Методы безопасны для nil-получателя: такой аккаунт ведёт себя как закрытый.
type TokenAccount struct {
	address  solana.PublicKey
	fetcher  AccountFetcher
	lamports uint64
	data     token.Account
}

// LoadTokenAccount читает токен-аккаунт. Если аккаунта нет, возвращает ErrAccountNotFound.
func LoadTokenAccount(ctx context.Context, fetcher AccountFetcher, address solana.PublicKey) (*TokenAccount, error) {
	acc := &TokenAccount{address: address, fetcher: fetcher}
	if err := acc.Reload(ctx); err != nil {
		return nil, err
	}
	return acc, nil
}

// Address возвращает адрес токен-аккаунта.
func (a *TokenAccount) Address() solana.PublicKey { return a.address }

// Lamports возвращает rent-баланс аккаунта; 0 означает, что аккаунт закрыт.
func (a *TokenAccount) Lamports() uint64 {
	if a == nil {
		return 0
	}
	return a.lamports
}

// Amount возвращает закешированный баланс токена.
func (a *TokenAccount) Amount() uint64 {
	if a == nil {
		return 0
	}
	return a.data.Amount
}

// Mint возвращает mint токена.
func (a *TokenAccount) Mint() solana.PublicKey {
	if a == nil {
		return solana.PublicKey{}
	}
	return a.data.Mint
}

// Owner возвращает владельца токен-аккаунта.
func (a *TokenAccount) Owner() solana.PublicKey {
	if a == nil {
		return solana.PublicKey{}
	}
	return a.data.Owner
}

// Reload перечитывает аккаунт и обновляет кеш.
// Если аккаунт исчез, lamports обнуляются, а кешированные данные сохраняются.
func (a *TokenAccount) Reload(ctx context.Context) error {
	if a == nil {
		return ErrAccountNotFound
	}

	info, err := a.fetcher.GetAccountInfo(ctx, a.address)
	if err != nil {
		if IsAccountNotFoundError(err) {
			a.lamports = 0
			return fmt.Errorf("%w: %s", ErrAccountNotFound, a.address)
		}
		return fmt.Errorf("failed to get account info for %s: %w", a.address, err)
	}
	if info == nil || info.Value == nil {
		a.lamports = 0
		return fmt.Errorf("%w: %s", ErrAccountNotFound, a.address)
	}

	var raw []byte
	if info.Value.Data != nil {
		raw = info.Value.Data.GetBinary()
	}
	data, err := decodeTokenAccount(raw)
	if err != nil {
		return fmt.Errorf("account %s: %w", a.address, err)
	}

	a.lamports = info.Value.Lamports
	a.data = data
	return nil
}

// decodeTokenAccount декодирует бинарные данные SPL токен-аккаунта.
func decodeTokenAccount(raw []byte) (token.Account, error) {
	var acc token.Account
	if len(raw) < TokenAccountSize {
		return acc, fmt.Errorf("%w: expected at least %d bytes, got %d", ErrInvalidAccountData, TokenAccountSize, len(raw))
	}
	if err := bin.NewBinDecoder(raw[:TokenAccountSize]).Decode(&acc); err != nil {
		return acc, fmt.Errorf("%w: %v", ErrInvalidAccountData, err)
	}
	return acc, nil
}
