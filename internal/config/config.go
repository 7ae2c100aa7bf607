// =================================
// File: internal/config/config.go
// =================================
package config

import (
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Mainnet USDC mint
const DefaultUSDCMint = "EPjFWdd5AufqSSqeM2qN1xzybapC8G4wEGGkZwyTDt1v"

type Config struct {
	RPCList             []string `mapstructure:"rpc_list"`
	Wallet              string   `mapstructure:"wallet"`
	WSOLMint            string   `mapstructure:"wsol_mint"`
	USDCMint            string   `mapstructure:"usdc_mint"`
	Commitment          string   `mapstructure:"commitment"`
	Retries             int      `mapstructure:"retries"`
	WatchInterval       int      `mapstructure:"watch_interval_ms"`
	ConfirmationTimeout int      `mapstructure:"confirmation_timeout_ms"`
	DebugLogging        bool     `mapstructure:"debug_logging"`
	LogFile             string   `mapstructure:"log_file"`
	LogLevel            string   `mapstructure:"log_level"`
	MetricsAddr         string   `mapstructure:"metrics_addr"`
	ExportDir           string   `mapstructure:"export_dir"`
	ExportFormat        string   `mapstructure:"export_format"`
}

const (
	DefaultCommitment          = string(rpc.CommitmentConfirmed)
	DefaultRetries             = 3
	DefaultWatchInterval       = 5000
	DefaultConfirmationTimeout = 60000
	DefaultLogFile             = "profit.log"
	DefaultExportFormat        = "csv"
)

// LoadConfig читает конфигурацию из файла (если path не пуст), переменных
// окружения SOLANA_PROFIT_* и флагов командной строки (если flags не nil).
func LoadConfig(path string, flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()

	defaults := map[string]interface{}{
		"rpc_list":                []string{},
		"wallet":                  "",
		"metrics_addr":            "",
		"debug_logging":           false,
		"wsol_mint":               solana.WrappedSol.String(),
		"usdc_mint":               DefaultUSDCMint,
		"commitment":              DefaultCommitment,
		"retries":                 DefaultRetries,
		"watch_interval_ms":       DefaultWatchInterval,
		"confirmation_timeout_ms": DefaultConfirmationTimeout,
		"log_file":                DefaultLogFile,
		"log_level":               "",
		"export_dir":              "",
		"export_format":           DefaultExportFormat,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	v.SetEnvPrefix("SOLANA_PROFIT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	if flags != nil {
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if err := loadEnvironmentVariables(v, &cfg); err != nil {
		return nil, err
	}

	return &cfg, validateConfig(&cfg)
}

// bindFlags связывает флаги командной строки с ключами конфигурации.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	bindings := map[string]string{
		"rpc_list":      "rpc",
		"wallet":        "wallet",
		"metrics_addr":  "metrics-addr",
		"debug_logging": "debug",
		"export_dir":    "export-dir",
	}
	for key, name := range bindings {
		flag := flags.Lookup(name)
		if flag == nil {
			continue
		}
		if err := v.BindPFlag(key, flag); err != nil {
			return fmt.Errorf("failed to bind flag --%s: %w", name, err)
		}
	}
	return nil
}

// WatchIntervalDuration интервал опроса в режиме watch.
func (c *Config) WatchIntervalDuration() time.Duration {
	return time.Duration(c.WatchInterval) * time.Millisecond
}

// ConfirmationTimeoutDuration таймаут ожидания подтверждения транзакции.
func (c *Config) ConfirmationTimeoutDuration() time.Duration {
	return time.Duration(c.ConfirmationTimeout) * time.Millisecond
}

// Mints возвращает распарсенные mint-адреса WSOL и USDC.
func (c *Config) Mints() (wsol, usdc solana.PublicKey, err error) {
	wsol, err = solana.PublicKeyFromBase58(c.WSOLMint)
	if err != nil {
		return wsol, usdc, fmt.Errorf("invalid wsol_mint: %w", err)
	}
	usdc, err = solana.PublicKeyFromBase58(c.USDCMint)
	if err != nil {
		return wsol, usdc, fmt.Errorf("invalid usdc_mint: %w", err)
	}
	return wsol, usdc, nil
}

func validateConfig(cfg *Config) error {
	if len(cfg.RPCList) == 0 {
		return errors.New("rpc_list is empty")
	}
	for _, rpcURL := range cfg.RPCList {
		if err := validateURLWithCache(rpcURL, "http"); err != nil {
			return errors.New("invalid RPC URL protocol")
		}
	}
	if strings.TrimSpace(cfg.Wallet) == "" {
		return errors.New("missing wallet in configuration")
	}
	if _, _, err := cfg.Mints(); err != nil {
		return err
	}
	switch rpc.CommitmentType(cfg.Commitment) {
	case rpc.CommitmentProcessed, rpc.CommitmentConfirmed, rpc.CommitmentFinalized:
	default:
		return fmt.Errorf("invalid commitment %q", cfg.Commitment)
	}
	if cfg.ExportDir != "" && cfg.ExportFormat != "csv" && cfg.ExportFormat != "json" {
		return fmt.Errorf("invalid export_format %q", cfg.ExportFormat)
	}
	return validateNumericParams(cfg)
}

func validateNumericParams(cfg *Config) error {
	if cfg.WatchInterval <= 0 {
		return errors.New("invalid watch_interval_ms")
	}
	if cfg.ConfirmationTimeout <= 0 {
		return errors.New("invalid confirmation_timeout_ms")
	}
	if cfg.Retries < 0 {
		return errors.New("invalid retries count")
	}
	return nil
}

var urlCache sync.Map

func validateURLWithCache(rawURL string, protocol string) error {
	if _, ok := urlCache.Load(rawURL); ok {
		return nil
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return errors.New("invalid URL format")
	}
	if !strings.HasPrefix(parsed.Scheme, protocol) {
		return errors.New("invalid URL protocol")
	}
	urlCache.Store(rawURL, parsed)
	return nil
}

// loadEnvironmentVariables разбирает SOLANA_PROFIT_RPC_LIST (URL через запятую).
func loadEnvironmentVariables(v *viper.Viper, cfg *Config) error {
	envRPCList := v.GetString("RPC_LIST")
	if envRPCList == "" {
		return nil
	}
	var cleanRPCs []string
	for _, rpcURL := range strings.Split(envRPCList, ",") {
		clean := strings.TrimSpace(rpcURL)
		if clean != "" {
			cleanRPCs = append(cleanRPCs, clean)
		}
	}
	if len(cleanRPCs) > 0 {
		cfg.RPCList = cleanRPCs
	}
	return nil
}
