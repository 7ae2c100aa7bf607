// internal/utils/logger/config.go
package logger

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap/zapcore"
)

// Rotation параметры ротации файла логов.
type Rotation struct {
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
	Compress   bool
}

// Config настройки логгера.
type Config struct {
	// Level: debug, info, warn, error. Пусто: debug в Development, иначе info.
	Level       string
	Development bool
	// LogFile пуст: пишем только в консоль.
	LogFile  string
	Rotation Rotation
	// Console куда пишется консольный вывод, по умолчанию os.Stderr.
	Console io.Writer
}

// DefaultConfig возвращает конфигурацию по умолчанию
func DefaultConfig() *Config {
	return &Config{
		LogFile: "profit.log",
		Rotation: Rotation{
			MaxSizeMB:  50,
			MaxAgeDays: 14,
			MaxBackups: 5,
			Compress:   true,
		},
	}
}

func (c *Config) level() (zapcore.Level, error) {
	if c.Level == "" {
		if c.Development {
			return zapcore.DebugLevel, nil
		}
		return zapcore.InfoLevel, nil
	}
	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(strings.ToLower(c.Level))); err != nil {
		return lvl, fmt.Errorf("invalid log level %q: %w", c.Level, err)
	}
	return lvl, nil
}
