// ====================================
// File: cmd/profit/main.go
// ====================================
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-profit/internal/app"
	"github.com/rovshanmuradov/solana-profit/internal/config"
	"github.com/rovshanmuradov/solana-profit/internal/utils/logger"
)

const usage = `Usage:
  profit [flags] snapshot
  profit [flags] watch
  profit [flags] measure -- <command> [args...]

Flags:
`

func main() {
	os.Exit(run())
}

func run() int {
	flags := pflag.NewFlagSet("profit", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to config file (yaml/json/toml)")
	flags.StringSlice("rpc", nil, "RPC endpoints, comma separated")
	flags.StringP("wallet", "w", "", "wallet address or base58 private key")
	flags.String("metrics-addr", "", "serve Prometheus metrics on this address")
	flags.Bool("debug", false, "enable debug logging")
	flags.String("export-dir", "", "write measurement and watch records to this directory on exit")
	flags.Usage = func() {
		fmt.Fprint(os.Stderr, usage)
		flags.PrintDefaults()
	}

	if err := flags.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	args := flags.Args()
	if len(args) == 0 {
		flags.Usage()
		return 2
	}
	command := args[0]

	cfg, err := config.LoadConfig(*configPath, flags)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		return 1
	}

	logCfg := logger.DefaultConfig()
	logCfg.LogFile = cfg.LogFile
	logCfg.Level = cfg.LogLevel
	logCfg.Development = cfg.DebugLogging
	log, err := logger.New(logCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create logger: %v\n", err)
		return 1
	}
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner, err := app.NewRunner(cfg, log.WithComponent("profit"), os.Stdout)
	if err != nil {
		log.Error("Failed to initialize", zap.Error(err))
		return 1
	}
	defer func() {
		if err := runner.Close(context.Background()); err != nil {
			log.Warn("Shutdown completed with errors", zap.Error(err))
		}
	}()

	if err := runner.ServeMetrics(); err != nil {
		log.Error("Failed to start metrics server", zap.Error(err))
		return 1
	}

	done := log.TrackPerformance(command)
	defer done()

	switch command {
	case "snapshot":
		err = runner.Snapshot(ctx)
	case "watch":
		err = runner.Watch(ctx)
	case "measure":
		err = runner.Measure(ctx, measureArgs(flags, args))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", command)
		flags.Usage()
		return 2
	}

	if err != nil {
		log.Error("Command failed", zap.String("command", command), zap.Error(err))
		return 1
	}
	return 0
}

// measureArgs возвращает команду после "--" или всё, что идёт за "measure".
func measureArgs(flags *pflag.FlagSet, args []string) []string {
	if dash := flags.ArgsLenAtDash(); dash >= 1 {
		return args[dash:]
	}
	return args[1:]
}
