package solbc

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rovshanmuradov/solana-profit/internal/snapshot"
)

var (
	_ snapshot.NativeBalanceHolder = (*NativeAccount)(nil)
	_ snapshot.TokenBalanceSource  = (*TokenAccount)(nil)
)

// encodeTokenAccount собирает минимальные данные SPL токен-аккаунта.
func encodeTokenAccount(mint, owner solana.PublicKey, amount uint64) []byte {
	data := make([]byte, TokenAccountSize)
	copy(data[0:32], mint[:])
	copy(data[32:64], owner[:])
	binary.LittleEndian.PutUint64(data[64:72], amount)
	data[108] = 1 // initialized
	return data
}

type fakeAccountFetcher struct {
	lamports uint64
	data     []byte
	err      error
	missing  bool
	calls    int
}

func (f *fakeAccountFetcher) GetAccountInfo(_ context.Context, _ solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	if f.missing {
		return nil, rpc.ErrNotFound
	}
	return &rpc.GetAccountInfoResult{
		Value: &rpc.Account{
			Lamports: f.lamports,
			Owner:    solana.TokenProgramID,
			Data:     rpc.DataBytesOrJSONFromBytes(f.data),
		},
	}, nil
}

type fakeBalanceFetcher struct {
	balance uint64
	err     error
}

func (f *fakeBalanceFetcher) GetBalance(context.Context, solana.PublicKey) (uint64, error) {
	return f.balance, f.err
}

func TestLoadTokenAccount(t *testing.T) {
	mint := solana.WrappedSol
	owner := solana.NewWallet().PublicKey()
	fetcher := &fakeAccountFetcher{lamports: 2039280, data: encodeTokenAccount(mint, owner, 1_234_567)}

	acc, err := LoadTokenAccount(context.Background(), fetcher, solana.NewWallet().PublicKey())
	require.NoError(t, err)

	assert.Equal(t, uint64(2039280), acc.Lamports())
	assert.Equal(t, uint64(1_234_567), acc.Amount())
	assert.Equal(t, mint, acc.Mint())
	assert.Equal(t, owner, acc.Owner())
}

func TestLoadTokenAccount_Missing(t *testing.T) {
	fetcher := &fakeAccountFetcher{missing: true}

	acc, err := LoadTokenAccount(context.Background(), fetcher, solana.NewWallet().PublicKey())

	assert.Nil(t, acc)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLoadTokenAccount_InvalidData(t *testing.T) {
	fetcher := &fakeAccountFetcher{lamports: 1, data: []byte{1, 2, 3}}

	_, err := LoadTokenAccount(context.Background(), fetcher, solana.NewWallet().PublicKey())

	assert.ErrorIs(t, err, ErrInvalidAccountData)
}

func TestTokenAccount_ReloadPicksUpNewAmount(t *testing.T) {
	mint := solana.WrappedSol
	owner := solana.NewWallet().PublicKey()
	fetcher := &fakeAccountFetcher{lamports: 10, data: encodeTokenAccount(mint, owner, 100)}

	acc, err := LoadTokenAccount(context.Background(), fetcher, solana.NewWallet().PublicKey())
	require.NoError(t, err)

	fetcher.data = encodeTokenAccount(mint, owner, 250)
	require.NoError(t, acc.Reload(context.Background()))

	assert.Equal(t, uint64(250), acc.Amount())
	assert.Equal(t, 2, fetcher.calls)
}

func TestTokenAccount_ReloadAfterClose(t *testing.T) {
	fetcher := &fakeAccountFetcher{lamports: 10, data: encodeTokenAccount(solana.WrappedSol, solana.PublicKey{}, 100)}
	acc, err := LoadTokenAccount(context.Background(), fetcher, solana.NewWallet().PublicKey())
	require.NoError(t, err)

	fetcher.missing = true
	err = acc.Reload(context.Background())

	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.Zero(t, acc.Lamports())
	assert.Equal(t, uint64(100), acc.Amount(), "cached amount is kept")
}

func TestTokenAccount_ReloadRPCErrorKeepsCache(t *testing.T) {
	fetcher := &fakeAccountFetcher{lamports: 10, data: encodeTokenAccount(solana.WrappedSol, solana.PublicKey{}, 77)}
	acc, err := LoadTokenAccount(context.Background(), fetcher, solana.NewWallet().PublicKey())
	require.NoError(t, err)

	fetcher.err = errors.New("429 too many requests")
	err = acc.Reload(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, uint64(10), acc.Lamports())
	assert.Equal(t, uint64(77), acc.Amount())
}

func TestTokenAccount_ReloadNodeErrorIsNotMissing(t *testing.T) {
	fetcher := &fakeAccountFetcher{lamports: 10, data: encodeTokenAccount(solana.WrappedSol, solana.PublicKey{}, 77)}
	acc, err := LoadTokenAccount(context.Background(), fetcher, solana.NewWallet().PublicKey())
	require.NoError(t, err)

	fetcher.err = errors.New("rpc call getAccountInfo() on node: (-32601) Method not found")
	err = acc.Reload(context.Background())

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAccountNotFound)
	assert.Equal(t, uint64(10), acc.Lamports(), "account must not be marked closed")
	assert.Equal(t, uint64(77), acc.Amount())
}

func TestIsAccountNotFoundError(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"sentinel", ErrAccountNotFound, true},
		{"wrapped sentinel", fmt.Errorf("load: %w", ErrAccountNotFound), true},
		{"rpc not found", rpc.ErrNotFound, true},
		{"method not found", errors.New("(-32601) Method not found"), false},
		{"proxy 404", errors.New("404 page not found"), false},
		{"rpc error wrapping node error", &Error{Err: errors.New("Method not found"), Method: "getAccountInfo"}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsAccountNotFoundError(tt.err))
		})
	}
}

func TestTokenAccount_NilReceiver(t *testing.T) {
	var acc *TokenAccount

	assert.Zero(t, acc.Lamports())
	assert.Zero(t, acc.Amount())
	assert.True(t, acc.Mint().IsZero())
	assert.ErrorIs(t, acc.Reload(context.Background()), ErrAccountNotFound)
}

func TestLoadNativeAccount(t *testing.T) {
	fetcher := &fakeBalanceFetcher{balance: 42_000}
	addr := solana.NewWallet().PublicKey()

	acc, err := LoadNativeAccount(context.Background(), fetcher, addr)
	require.NoError(t, err)
	assert.Equal(t, uint64(42_000), acc.Lamports())
	assert.Equal(t, addr, acc.Address())

	fetcher.balance = 41_000
	require.NoError(t, acc.Reload(context.Background()))
	assert.Equal(t, uint64(41_000), acc.Lamports())

	fetcher.err = errors.New("boom")
	_, err = LoadNativeAccount(context.Background(), fetcher, addr)
	assert.Error(t, err)
}

func TestCollectorWithRPCAccounts(t *testing.T) {
	ctx := context.Background()
	owner := solana.NewWallet().PublicKey()
	usdcMint := solana.MustPublicKeyFromBase58("EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v")

	native, err := LoadNativeAccount(ctx, &fakeBalanceFetcher{balance: 1_000_000_000}, owner)
	require.NoError(t, err)

	usdcFetcher := &fakeAccountFetcher{lamports: 2039280, data: encodeTokenAccount(usdcMint, owner, 0)}
	usdc, err := LoadTokenAccount(ctx, usdcFetcher, solana.NewWallet().PublicKey())
	require.NoError(t, err)

	c := snapshot.NewCollector(nil, nil)

	// Закрытый WSOL (nil *TokenAccount) и отсутствующий дают одинаковый результат
	var closedWSOL *TokenAccount
	withClosed := c.Collect(ctx, native, closedWSOL, usdc)
	withAbsent := c.Collect(ctx, native, nil, usdc)
	assert.Equal(t, withAbsent, withClosed)

	usdcFetcher.data = encodeTokenAccount(usdcMint, owner, 2_000_000)
	after := c.Collect(ctx, native, nil, usdc)
	assert.Equal(t, uint64(2_000_000), after.StableBalance)
}
