// internal/blockchain/solbc/client.go
package solbc

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-profit/internal/blockchain"
)

const defaultPollInterval = 500 * time.Millisecond

// LatencyRecorder принимает замеры длительности RPC-вызовов.
type LatencyRecorder interface {
	RecordRPCLatency(method, endpoint string, duration time.Duration)
}

type endpoint struct {
	url    string
	client *rpc.Client
}

// Client – тонкий адаптер для чтения состояния Solana через solana-go.
// При ошибке запрос повторяется на следующем RPC из списка.
type Client struct {
	endpoints    []endpoint
	current      atomic.Uint32
	commitment   rpc.CommitmentType
	pollInterval time.Duration
	latency      LatencyRecorder
	logger       *zap.Logger
}

// Option настраивает Client.
type Option func(*Client)

// WithLatencyRecorder подключает запись латентности RPC.
func WithLatencyRecorder(r LatencyRecorder) Option {
	return func(c *Client) { c.latency = r }
}

// WithPollInterval задаёт интервал опроса статуса транзакции.
func WithPollInterval(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.pollInterval = d
		}
	}
}

// NewClient создаёт новый клиент, принимая список RPC URL и логгер через dependency injection.
func NewClient(rpcURLs []string, commitment rpc.CommitmentType, logger *zap.Logger, opts ...Option) (*Client, error) {
	if len(rpcURLs) == 0 {
		return nil, ErrNoEndpoints
	}
	if commitment == "" {
		commitment = rpc.CommitmentConfirmed
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	c := &Client{
		commitment:   commitment,
		pollInterval: defaultPollInterval,
		logger:       logger.Named("solbc-client"),
	}
	for _, u := range rpcURLs {
		c.endpoints = append(c.endpoints, endpoint{url: u, client: rpc.New(u)})
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// call выполняет fn на текущем RPC, при ошибке переключается на следующий.
// "not found" не считается ошибкой узла и возвращается сразу.
func call[T any](ctx context.Context, c *Client, method string, fn func(*rpc.Client) (T, error)) (T, error) {
	var (
		zero    T
		lastErr error
	)
	start := int(c.current.Load())
	for i := 0; i < len(c.endpoints); i++ {
		idx := (start + i) % len(c.endpoints)
		ep := c.endpoints[idx]

		begin := time.Now()
		res, err := fn(ep.client)
		if c.latency != nil {
			c.latency.RecordRPCLatency(method, ep.url, time.Since(begin))
		}
		if err == nil {
			c.current.Store(uint32(idx))
			return res, nil
		}
		if errors.Is(err, rpc.ErrNotFound) {
			return zero, err
		}

		lastErr = &Error{Err: err, Endpoint: ep.url, Method: method}
		c.logger.Debug("RPC call failed, switching endpoint",
			zap.String("method", method),
			zap.String("endpoint", ep.url),
			zap.Error(err))

		if ctx.Err() != nil {
			return zero, ctx.Err()
		}
	}
	return zero, lastErr
}

// GetAccountInfo получает информацию об аккаунте.
func (c *Client) GetAccountInfo(ctx context.Context, pubkey solana.PublicKey) (*rpc.GetAccountInfoResult, error) {
	result, err := call(ctx, c, "getAccountInfo", func(r *rpc.Client) (*rpc.GetAccountInfoResult, error) {
		return r.GetAccountInfoWithOpts(ctx, pubkey, &rpc.GetAccountInfoOpts{
			Commitment: c.commitment,
			Encoding:   solana.EncodingBase64,
		})
	})
	if err != nil {
		if errors.Is(err, rpc.ErrNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, pubkey)
		}
		c.logger.Debug("GetAccountInfo error",
			zap.String("pubkey", pubkey.String()),
			zap.Error(err))
		return nil, err
	}
	return result, nil
}

// GetBalance получает баланс аккаунта.
func (c *Client) GetBalance(ctx context.Context, pubkey solana.PublicKey) (uint64, error) {
	result, err := call(ctx, c, "getBalance", func(r *rpc.Client) (*rpc.GetBalanceResult, error) {
		return r.GetBalance(ctx, pubkey, c.commitment)
	})
	if err != nil {
		c.logger.Error("GetBalance error", zap.String("pubkey", pubkey.String()), zap.Error(err))
		return 0, err
	}
	return result.Value, nil
}

// GetSignatureStatuses получает статусы транзакций.
func (c *Client) GetSignatureStatuses(ctx context.Context, signatures ...solana.Signature) (*rpc.GetSignatureStatusesResult, error) {
	result, err := call(ctx, c, "getSignatureStatuses", func(r *rpc.Client) (*rpc.GetSignatureStatusesResult, error) {
		return r.GetSignatureStatuses(ctx, true, signatures...)
	})
	if err != nil {
		c.logger.Error("GetSignatureStatuses error", zap.Error(err))
		return nil, err
	}
	return result, nil
}

// WaitForTransactionConfirmation ожидает подтверждения транзакции (с простым polling‑механизмом).
func (c *Client) WaitForTransactionConfirmation(ctx context.Context, signature solana.Signature, timeout time.Duration) error {
	ticker := time.NewTicker(c.pollInterval)
	defer ticker.Stop()
	deadline := time.After(timeout)
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-deadline:
			return fmt.Errorf("%w: %s", ErrConfirmationTimeout, signature)
		case <-ticker.C:
			statuses, err := c.GetSignatureStatuses(ctx, signature)
			if err != nil {
				c.logger.Warn("Error getting signature statuses", zap.Error(err))
				continue
			}
			if statuses == nil || len(statuses.Value) == 0 || statuses.Value[0] == nil {
				continue
			}
			status := statuses.Value[0]
			if status.Err != nil {
				return fmt.Errorf("%w: %s: %v", ErrTransactionFailed, signature, status.Err)
			}
			if status.ConfirmationStatus == rpc.ConfirmationStatusFinalized ||
				status.ConfirmationStatus == rpc.ConfirmationStatusConfirmed {
				return nil
			}
		}
	}
}

// Гарантируем, что Client реализует интерфейс blockchain.Client.
var _ blockchain.Client = (*Client)(nil)
