package solbc

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type rpcRequest struct {
	ID     json.RawMessage `json:"id"`
	Method string          `json:"method"`
}

// newRPCServer поднимает JSON-RPC сервер, отвечающий результатами из handler.
func newRPCServer(t *testing.T, handler func(method string) (interface{}, int)) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		result, status := handler(req.Method)
		if status != http.StatusOK {
			http.Error(w, "unavailable", status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0",
			"id":      req.ID,
			"result":  result,
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}

type latencyRecorder struct {
	mu    sync.Mutex
	calls []string
}

func (l *latencyRecorder) RecordRPCLatency(method, endpoint string, _ time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, fmt.Sprintf("%s@%s", method, endpoint))
}

func contextResult(value interface{}) map[string]interface{} {
	return map[string]interface{}{
		"context": map[string]interface{}{"slot": 1},
		"value":   value,
	}
}

func TestNewClient_NoEndpoints(t *testing.T) {
	_, err := NewClient(nil, rpc.CommitmentConfirmed, zap.NewNop())
	assert.ErrorIs(t, err, ErrNoEndpoints)
}

func TestClient_GetBalanceFailover(t *testing.T) {
	down := newRPCServer(t, func(string) (interface{}, int) {
		return nil, http.StatusServiceUnavailable
	})
	up := newRPCServer(t, func(method string) (interface{}, int) {
		assert.Equal(t, "getBalance", method)
		return contextResult(1_500_000_000), http.StatusOK
	})

	rec := &latencyRecorder{}
	client, err := NewClient([]string{down.URL, up.URL}, rpc.CommitmentConfirmed, zap.NewNop(), WithLatencyRecorder(rec))
	require.NoError(t, err)

	balance, err := client.GetBalance(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(1_500_000_000), balance)
	assert.Equal(t, []string{"getBalance@" + down.URL, "getBalance@" + up.URL}, rec.calls)

	// Следующий вызов начинается с рабочего узла
	_, err = client.GetBalance(context.Background(), solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, "getBalance@"+up.URL, rec.calls[2])
}

func TestClient_GetAccountInfo(t *testing.T) {
	owner := solana.NewWallet().PublicKey()
	data := encodeTokenAccount(solana.WrappedSol, owner, 5_000)

	srv := newRPCServer(t, func(string) (interface{}, int) {
		return contextResult(map[string]interface{}{
			"lamports":   2039280,
			"owner":      solana.TokenProgramID.String(),
			"data":       []string{base64.StdEncoding.EncodeToString(data), "base64"},
			"executable": false,
			"rentEpoch":  0,
		}), http.StatusOK
	})

	client, err := NewClient([]string{srv.URL}, "", zap.NewNop())
	require.NoError(t, err)

	acc, err := LoadTokenAccount(context.Background(), client, solana.NewWallet().PublicKey())
	require.NoError(t, err)
	assert.Equal(t, uint64(2039280), acc.Lamports())
	assert.Equal(t, uint64(5_000), acc.Amount())
	assert.Equal(t, owner, acc.Owner())
}

func TestClient_GetAccountInfoNotFound(t *testing.T) {
	srv := newRPCServer(t, func(string) (interface{}, int) {
		return contextResult(nil), http.StatusOK
	})

	client, err := NewClient([]string{srv.URL}, rpc.CommitmentConfirmed, zap.NewNop())
	require.NoError(t, err)

	_, err = client.GetAccountInfo(context.Background(), solana.NewWallet().PublicKey())
	assert.ErrorIs(t, err, ErrAccountNotFound)
	assert.True(t, IsAccountNotFoundError(err))
}

func TestClient_WaitForTransactionConfirmation(t *testing.T) {
	var (
		mu    sync.Mutex
		polls int
	)
	srv := newRPCServer(t, func(string) (interface{}, int) {
		mu.Lock()
		defer mu.Unlock()
		polls++
		if polls < 3 {
			return contextResult([]interface{}{nil}), http.StatusOK
		}
		return contextResult([]interface{}{map[string]interface{}{
			"slot":               10,
			"confirmations":      nil,
			"err":                nil,
			"confirmationStatus": "confirmed",
		}}), http.StatusOK
	})

	client, err := NewClient([]string{srv.URL}, rpc.CommitmentConfirmed, zap.NewNop(), WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)

	err = client.WaitForTransactionConfirmation(context.Background(), solana.Signature{1}, time.Second)
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	assert.GreaterOrEqual(t, polls, 3)
}

func TestClient_WaitForTransactionConfirmationFailed(t *testing.T) {
	srv := newRPCServer(t, func(string) (interface{}, int) {
		return contextResult([]interface{}{map[string]interface{}{
			"slot":               10,
			"confirmations":      nil,
			"err":                map[string]interface{}{"InstructionError": []interface{}{0, "Custom"}},
			"confirmationStatus": "confirmed",
		}}), http.StatusOK
	})

	client, err := NewClient([]string{srv.URL}, rpc.CommitmentConfirmed, zap.NewNop(), WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)

	err = client.WaitForTransactionConfirmation(context.Background(), solana.Signature{2}, time.Second)
	assert.ErrorIs(t, err, ErrTransactionFailed)
}

func TestClient_WaitForTransactionConfirmationTimeout(t *testing.T) {
	srv := newRPCServer(t, func(string) (interface{}, int) {
		return contextResult([]interface{}{nil}), http.StatusOK
	})

	client, err := NewClient([]string{srv.URL}, rpc.CommitmentConfirmed, zap.NewNop(), WithPollInterval(5*time.Millisecond))
	require.NoError(t, err)

	err = client.WaitForTransactionConfirmation(context.Background(), solana.Signature{3}, 30*time.Millisecond)
	assert.ErrorIs(t, err, ErrConfirmationTimeout)
}
