// internal/blockchain/solbc/errors.go
package solbc

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go/rpc"
)

var (
	// ErrAccountNotFound аккаунт отсутствует в блокчейне
	ErrAccountNotFound = errors.New("account not found")

	// ErrNoEndpoints в конфигурации нет ни одного RPC
	ErrNoEndpoints = errors.New("no RPC endpoints configured")

	// ErrConfirmationTimeout транзакция не подтвердилась за отведённое время
	ErrConfirmationTimeout = errors.New("confirmation timeout")

	// ErrTransactionFailed транзакция попала в блок, но завершилась ошибкой
	ErrTransactionFailed = errors.New("transaction failed")

	// ErrInvalidAccountData данные аккаунта не разбираются как токен-аккаунт
	ErrInvalidAccountData = errors.New("invalid token account data")
)

// Error представляет ошибку RPC с дополнительным контекстом
type Error struct {
	Err      error
	Endpoint string
	Method   string
}

// Error реализует интерфейс error
func (e *Error) Error() string {
	return fmt.Sprintf("RPC error [%s] at %s: %v", e.Method, e.Endpoint, e.Err)
}

// Unwrap возвращает оригинальную ошибку
func (e *Error) Unwrap() error {
	return e.Err
}

// IsAccountNotFoundError сообщает, что аккаунта нет в блокчейне.
// Учитываются только ErrAccountNotFound и rpc.ErrNotFound: текст ошибки узла
// ("Method not found", "404 page not found") отсутствием аккаунта не считается.
func IsAccountNotFoundError(err error) bool {
	return errors.Is(err, ErrAccountNotFound) || errors.Is(err, rpc.ErrNotFound)
}
