// internal/app/runner.go
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go/rpc"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-profit/internal/blockchain"
	"github.com/rovshanmuradov/solana-profit/internal/blockchain/solbc"
	"github.com/rovshanmuradov/solana-profit/internal/config"
	"github.com/rovshanmuradov/solana-profit/internal/export"
	"github.com/rovshanmuradov/solana-profit/internal/monitor"
	"github.com/rovshanmuradov/solana-profit/internal/report"
	"github.com/rovshanmuradov/solana-profit/internal/snapshot"
	"github.com/rovshanmuradov/solana-profit/internal/utils/metrics"
	"github.com/rovshanmuradov/solana-profit/internal/wallet"
)

// Runner собирает зависимости из конфигурации и выполняет команды CLI.
type Runner struct {
	cfg      *config.Config
	logger   *zap.Logger
	out      io.Writer
	client   blockchain.Client
	metrics  *metrics.Collector
	wallet   *wallet.Wallet
	service  *monitor.Service
	shutdown *ShutdownHandler

	metricsAddr string

	mu      sync.Mutex
	records []export.Record
}

// RunnerOption настраивает Runner.
type RunnerOption func(*Runner)

// WithClient подменяет RPC-клиент, собираемый из rpc_list.
func WithClient(client blockchain.Client) RunnerOption {
	return func(r *Runner) { r.client = client }
}

// NewRunner создаёт Runner. Вывод отчётов идёт в out, логи в logger.
func NewRunner(cfg *config.Config, logger *zap.Logger, out io.Writer, opts ...RunnerOption) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}

	r := &Runner{
		cfg:      cfg,
		logger:   logger,
		out:      out,
		metrics:  metrics.NewCollector(),
		shutdown: NewShutdownHandler(logger, 0),
	}
	for _, opt := range opts {
		opt(r)
	}

	w, err := wallet.Parse(cfg.Wallet)
	if err != nil {
		return nil, fmt.Errorf("failed to load wallet: %w", err)
	}
	r.wallet = w

	if r.client == nil {
		client, err := solbc.NewClient(cfg.RPCList, rpc.CommitmentType(cfg.Commitment), logger,
			solbc.WithLatencyRecorder(r.metrics))
		if err != nil {
			return nil, fmt.Errorf("failed to create RPC client: %w", err)
		}
		r.client = client
	}

	wsolMint, usdcMint, err := cfg.Mints()
	if err != nil {
		return nil, err
	}

	r.service, err = monitor.NewService(monitor.ServiceConfig{
		Client:              r.client,
		Wallet:              w,
		WSOLMint:            wsolMint,
		USDCMint:            usdcMint,
		Metrics:             r.metrics,
		Logger:              logger,
		Retries:             cfg.Retries,
		ConfirmationTimeout: cfg.ConfirmationTimeoutDuration(),
	})
	if err != nil {
		return nil, err
	}

	if cfg.ExportDir != "" {
		format, err := export.ParseFormat(cfg.ExportFormat)
		if err != nil {
			return nil, err
		}
		exporter := export.NewExporter(logger)
		r.shutdown.AddFunc("export", func() error {
			return r.exportRecords(exporter, format)
		})
	}

	logger.Info("Runner initialized",
		zap.String("wallet", w.String()),
		zap.Bool("watch_only", w.IsWatchOnly()),
		zap.Int("rpc_endpoints", len(cfg.RPCList)))

	return r, nil
}

// Metrics возвращает коллектор метрик раннера.
func (r *Runner) Metrics() *metrics.Collector {
	return r.metrics
}

// ServeMetrics поднимает HTTP-сервер с /metrics, если задан metrics_addr.
// Сервер закрывается в Close.
func (r *Runner) ServeMetrics() error {
	if r.cfg.MetricsAddr == "" {
		return nil
	}

	listener, err := net.Listen("tcp", r.cfg.MetricsAddr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", r.cfg.MetricsAddr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", r.metrics.Handler())
	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			r.logger.Error("Metrics server stopped", zap.Error(err))
		}
	}()
	r.metricsAddr = listener.Addr().String()
	r.logger.Info("Serving metrics", zap.String("addr", r.metricsAddr))

	r.shutdown.AddFunc("metrics_server", func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return server.Shutdown(ctx)
	})
	return nil
}

// MetricsAddr адрес запущенного сервера метрик, пусто если он не запущен.
func (r *Runner) MetricsAddr() string {
	return r.metricsAddr
}

// Snapshot печатает текущие балансы кошелька.
func (r *Runner) Snapshot(ctx context.Context) error {
	snap, err := r.service.Snapshot(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintln(r.out, report.RenderSnapshot(r.wallet.String(), snap))
	return nil
}

// Watch печатает строку на каждый снапшот до отмены контекста.
func (r *Runner) Watch(ctx context.Context) error {
	var last *snapshot.WalletSnapshot
	return r.service.Watch(ctx, r.cfg.WatchIntervalDuration(), func(u monitor.Update) {
		fmt.Fprintln(r.out, report.RenderUpdate(u.Time, u.Snapshot, u.SinceBaseline, u.SinceLast))
		if last != nil {
			r.record(export.Record{
				Timestamp: u.Time,
				Kind:      export.KindWatch,
				Before:    *last,
				After:     u.Snapshot,
				Profit:    u.SinceLast,
				Success:   true,
			})
		}
		current := u.Snapshot
		last = &current
	})
}

// Measure выполняет внешнюю команду между двумя снапшотами и печатает профит.
// Отчёт печатается и при неуспешной команде, если оба снапшота сняты.
func (r *Runner) Measure(ctx context.Context, argv []string) error {
	op, err := CommandOperation(argv, r.out, r.logger)
	if err != nil {
		return err
	}

	m, err := r.service.Measure(ctx, op)
	if m.Profit != nil {
		fmt.Fprintln(r.out, report.RenderMeasurement(r.wallet.String(), m))

		rec := export.Record{
			Timestamp: time.Now(),
			Kind:      export.KindMeasure,
			Before:    m.Before,
			After:     m.After,
			Profit:    m.Profit,
			Success:   err == nil,
		}
		if err != nil {
			rec.Error = err.Error()
		}
		r.record(rec)
	}
	return err
}

// Records возвращает копию накопленных записей профита.
func (r *Runner) Records() []export.Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]export.Record(nil), r.records...)
}

func (r *Runner) record(rec export.Record) {
	rec.Wallet = r.wallet.String()
	r.mu.Lock()
	r.records = append(r.records, rec)
	r.mu.Unlock()
}

func (r *Runner) exportRecords(exporter *export.Exporter, format export.ExportFormat) error {
	records := r.Records()
	if len(records) == 0 {
		return nil
	}
	path, err := exporter.Export(records, export.ExportOptions{
		Format:    format,
		OutputDir: r.cfg.ExportDir,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(r.out, "Exported %d records to %s\n", len(records), path)
	return nil
}

// Close освобождает ресурсы раннера.
func (r *Runner) Close(ctx context.Context) error {
	return r.shutdown.Shutdown(ctx)
}
