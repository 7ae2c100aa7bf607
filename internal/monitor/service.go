// internal/monitor/service.go
package monitor

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/rovshanmuradov/solana-profit/internal/blockchain"
	"github.com/rovshanmuradov/solana-profit/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-profit/internal/snapshot"
	"github.com/rovshanmuradov/solana-profit/internal/utils/metrics"
	"github.com/rovshanmuradov/solana-profit/internal/wallet"
)

const (
	defaultRetries             = 3
	defaultRetryInterval       = 300 * time.Millisecond
	defaultConfirmationTimeout = time.Minute
)

// ServiceConfig содержит зависимости и настройки сервиса.
type ServiceConfig struct {
	Client              blockchain.Client
	Wallet              *wallet.Wallet
	WSOLMint            solana.PublicKey
	USDCMint            solana.PublicKey
	Metrics             *metrics.Collector // может быть nil
	Logger              *zap.Logger
	Retries             int
	RetryInterval       time.Duration
	ConfirmationTimeout time.Duration
}

// Operation выполняется между снапшотами в Measure. Если операция вернула
// непустую подпись, сервис дожидается подтверждения транзакции.
type Operation func(ctx context.Context) (solana.Signature, error)

// Service снимает снапшоты кошелька через RPC и считает профит.
type Service struct {
	client              blockchain.Client
	wallet              *wallet.Wallet
	wsolATA             solana.PublicKey
	usdcATA             solana.PublicKey
	collector           *snapshot.Collector
	metrics             *metrics.Collector
	retries             int
	retryInterval       time.Duration
	confirmationTimeout time.Duration
	logger              *zap.Logger
}

// NewService создаёт сервис и заранее вычисляет ATA для WSOL и USDC.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Client == nil {
		return nil, errors.New("blockchain client is required")
	}
	if cfg.Wallet == nil {
		return nil, errors.New("wallet is required")
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := cfg.Wallet.PrecomputeATAs([]solana.PublicKey{cfg.WSOLMint, cfg.USDCMint}); err != nil {
		return nil, err
	}
	wsolATA, _ := cfg.Wallet.CachedATA(cfg.WSOLMint)
	usdcATA, _ := cfg.Wallet.CachedATA(cfg.USDCMint)

	s := &Service{
		client:              cfg.Client,
		wallet:              cfg.Wallet,
		wsolATA:             wsolATA,
		usdcATA:             usdcATA,
		metrics:             cfg.Metrics,
		retries:             cfg.Retries,
		retryInterval:       cfg.RetryInterval,
		confirmationTimeout: cfg.ConfirmationTimeout,
		logger:              logger.Named("monitor").With(zap.String("wallet", cfg.Wallet.String())),
	}
	if s.retries <= 0 {
		s.retries = defaultRetries
	}
	if s.retryInterval <= 0 {
		s.retryInterval = defaultRetryInterval
	}
	if s.confirmationTimeout <= 0 {
		s.confirmationTimeout = defaultConfirmationTimeout
	}

	// nil-интерфейс важен: иначе коллектор получит typed nil
	var observer snapshot.ReloadObserver
	if cfg.Metrics != nil {
		observer = cfg.Metrics
	}
	s.collector = snapshot.NewCollector(logger, observer)

	return s, nil
}

// LoadSources параллельно читает нативный аккаунт и ATA для WSOL/USDC.
// Несуществующий ATA становится отсутствующим источником (nil).
// Чтение здесь решает только, есть ли аккаунт: балансы для снапшота
// коллектор перечитывает через Reload, так что на каждый существующий ATA
// приходится два getAccountInfo за снапшот.
func (s *Service) LoadSources(ctx context.Context) (snapshot.Sources, error) {
	var (
		native     *solbc.NativeAccount
		wsol, usdc *solbc.TokenAccount
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		acc, err := retry(gctx, s, func() (*solbc.NativeAccount, error) {
			return solbc.LoadNativeAccount(gctx, s.client, s.wallet.PublicKey)
		})
		if err != nil {
			return fmt.Errorf("failed to load native balance: %w", err)
		}
		native = acc
		return nil
	})
	g.Go(func() error {
		acc, err := s.loadTokenAccount(gctx, s.wsolATA)
		if err != nil {
			return fmt.Errorf("failed to load WSOL account: %w", err)
		}
		wsol = acc
		return nil
	})
	g.Go(func() error {
		acc, err := s.loadTokenAccount(gctx, s.usdcATA)
		if err != nil {
			return fmt.Errorf("failed to load USDC account: %w", err)
		}
		usdc = acc
		return nil
	})
	if err := g.Wait(); err != nil {
		return snapshot.Sources{}, err
	}

	src := snapshot.Sources{Native: native}
	if wsol != nil {
		src.Wrapped = wsol
	}
	if usdc != nil {
		src.Stable = usdc
	}
	return src, nil
}

// loadTokenAccount возвращает (nil, nil), если аккаунта нет.
// Любая другая ошибка RPC, в том числе с "not found" в тексте, ретраится
// и возвращается вызывающему.
func (s *Service) loadTokenAccount(ctx context.Context, address solana.PublicKey) (*solbc.TokenAccount, error) {
	acc, err := retry(ctx, s, func() (*solbc.TokenAccount, error) {
		acc, err := solbc.LoadTokenAccount(ctx, s.client, address)
		if errors.Is(err, solbc.ErrAccountNotFound) {
			return nil, backoff.Permanent(err)
		}
		return acc, err
	})
	if err != nil {
		if errors.Is(err, solbc.ErrAccountNotFound) {
			s.logger.Debug("Token account does not exist, treating as absent",
				zap.String("account", address.String()))
			return nil, nil
		}
		return nil, err
	}
	return acc, nil
}

func retry[T any](ctx context.Context, s *Service, op func() (T, error)) (T, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryInterval
	return backoff.Retry(ctx, op,
		backoff.WithBackOff(b),
		backoff.WithMaxTries(uint(s.retries)),
	)
}

// Snapshot загружает источники и снимает один снапшот.
func (s *Service) Snapshot(ctx context.Context) (snapshot.WalletSnapshot, error) {
	src, err := s.LoadSources(ctx)
	if err != nil {
		return snapshot.WalletSnapshot{}, err
	}
	snap := s.collector.CollectSources(ctx, src)
	if s.metrics != nil {
		s.metrics.RecordSnapshot(s.wallet.String(), snap)
	}
	return snap, nil
}

// Measure снимает снапшот, выполняет операцию, дожидается подтверждения
// её транзакции (если есть подпись) и снимает второй снапшот.
func (s *Service) Measure(ctx context.Context, op Operation) (snapshot.Measurement, error) {
	load := func(ctx context.Context) (snapshot.Sources, error) {
		return s.LoadSources(ctx)
	}
	run := func(ctx context.Context) error {
		sig, err := op(ctx)
		if err != nil {
			return err
		}
		if sig.IsZero() {
			return nil
		}
		s.logger.Info("Waiting for transaction confirmation", zap.String("signature", sig.String()))
		return s.client.WaitForTransactionConfirmation(ctx, sig, s.confirmationTimeout)
	}

	m, err := snapshot.Measure(ctx, s.collector, load, run)
	if m.Profit == nil {
		return m, err
	}

	if s.metrics != nil {
		s.metrics.RecordSnapshot(s.wallet.String(), m.Before)
		s.metrics.RecordSnapshot(s.wallet.String(), m.After)
		s.metrics.RecordProfit(s.wallet.String(), metrics.WindowMeasure, m.Profit)
	}
	s.logger.Info("Measurement completed",
		zap.String("profit_lamports", m.Profit.String()),
		zap.String("profit_sol", snapshot.FormatLamportsAsSOL(m.Profit)),
		zap.Error(err))
	return m, err
}
