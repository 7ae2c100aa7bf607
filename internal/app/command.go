// internal/app/command.go
package app

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"

	"github.com/gagliardetto/solana-go"
	"go.uber.org/zap"

	"github.com/rovshanmuradov/solana-profit/internal/monitor"
)

// CommandOperation запускает внешнюю команду как операцию для Measure.
// Stdout команды дублируется в out. Если последняя непустая строка вывода
// является подписью транзакции, она возвращается и сервис дождётся подтверждения.
func CommandOperation(argv []string, out io.Writer, logger *zap.Logger) (monitor.Operation, error) {
	if len(argv) == 0 {
		return nil, errors.New("command is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if out == nil {
		out = io.Discard
	}

	return func(ctx context.Context) (solana.Signature, error) {
		var captured bytes.Buffer
		cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
		cmd.Stdout = io.MultiWriter(out, &captured)
		cmd.Stderr = out

		logger.Debug("Running command", zap.Strings("argv", argv))
		runErr := cmd.Run()

		sig := ParseSignature(captured.String())
		if !sig.IsZero() {
			logger.Info("Command reported transaction", zap.String("signature", sig.String()))
		}
		if runErr != nil {
			return sig, fmt.Errorf("command %q failed: %w", argv[0], runErr)
		}
		return sig, nil
	}, nil
}

// ParseSignature достаёт подпись из последней непустой строки вывода.
// Возвращает нулевую подпись, если строка подписью не является.
func ParseSignature(output string) solana.Signature {
	var last string
	scanner := bufio.NewScanner(strings.NewReader(output))
	for scanner.Scan() {
		if line := strings.TrimSpace(scanner.Text()); line != "" {
			last = line
		}
	}
	if last == "" {
		return solana.Signature{}
	}

	sig, err := solana.SignatureFromBase58(last)
	if err != nil {
		return solana.Signature{}
	}
	return sig
}
