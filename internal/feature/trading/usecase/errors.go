// Package usecase implements market order execution and portfolio queries for the trading feature.
package usecase

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidQuantity is returned when the requested quantity is not positive
	// or the order value does not fit in the cash representation.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrMarketClosed is returned when an order arrives outside the trading session.
	ErrMarketClosed = errors.New("market is closed")

	// ErrPriceUnavailable is returned when no usable latest price exists for the symbol.
	ErrPriceUnavailable = errors.New("price unavailable")

	// ErrInsufficientFunds is matched by *InsufficientFundsError.
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrInsufficientQuantity is matched by *InsufficientQuantityError.
	ErrInsufficientQuantity = errors.New("insufficient quantity")

	// ErrNoSuchPosition is returned when selling a symbol the member does not hold.
	ErrNoSuchPosition = errors.New("no such position")

	// ErrAccountNotFound is returned when the member has no cash account.
	ErrAccountNotFound = errors.New("account not found")

	// ErrConflict is returned by a Ledger when a concurrent commit changed the account first.
	ErrConflict = errors.New("concurrent update conflict")

	// ErrOrderFailed wraps lock or storage failures. Nothing of the order was applied.
	ErrOrderFailed = errors.New("order failed")
)

// InsufficientFundsError は買付代金が残高を上回る場合のエラーです。現在の残高を保持します。
type InsufficientFundsError struct {
	Balance  int64
	Required int64
}

func (e *InsufficientFundsError) Error() string {
	return fmt.Sprintf("insufficient funds: balance %d, required %d", e.Balance, e.Required)
}

// Is reports whether target is ErrInsufficientFunds.
func (e *InsufficientFundsError) Is(target error) bool {
	return target == ErrInsufficientFunds
}

// InsufficientQuantityError は売却数量が保有数量を上回る場合のエラーです。現在の保有数量を保持します。
type InsufficientQuantityError struct {
	Held      int64
	Requested int64
}

func (e *InsufficientQuantityError) Error() string {
	return fmt.Sprintf("insufficient quantity: held %d, requested %d", e.Held, e.Requested)
}

// Is reports whether target is ErrInsufficientQuantity.
func (e *InsufficientQuantityError) Is(target error) bool {
	return target == ErrInsufficientQuantity
}
