package ledger

import (
	"errors"
	"fmt"

	"github.com/rovshanmuradov/sipzy/internal/curve"
)

var (
	ErrTokenNotFound       = errors.New("token not found")
	ErrActorNotFound       = errors.New("actor not found")
	ErrInsufficientFunds   = errors.New("insufficient SOL balance")
	ErrInsufficientBalance = errors.New("insufficient token balance")
	ErrDuplicateToken      = errors.New("token already exists")
	ErrInvalidRequest      = errors.New("invalid request")
	ErrNegativeSOLBalance  = errors.New("SOL balance must not be negative")

	// The following wrap their curve counterparts so errors.Is matches both.
	ErrInvalidAmount     = fmt.Errorf("ledger: %w", curve.ErrInvalidAmount)
	ErrSupplyUnderflow   = fmt.Errorf("ledger: %w", curve.ErrSupplyUnderflow)
	ErrSupplyCapExceeded = fmt.Errorf("ledger: %w", curve.ErrSupplyCapExceeded)
	ErrInvalidTokenType  = fmt.Errorf("ledger: %w", curve.ErrUnknownTokenType)
)

// translate maps curve errors onto ledger sentinels, keeping the detail message.
func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, curve.ErrInvalidAmount):
		return ErrInvalidAmount
	case errors.Is(err, curve.ErrSupplyUnderflow):
		return fmt.Errorf("%w: %v", ErrSupplyUnderflow, err)
	case errors.Is(err, curve.ErrSupplyCapExceeded):
		return fmt.Errorf("%w: %v", ErrSupplyCapExceeded, err)
	case errors.Is(err, curve.ErrUnknownTokenType):
		return fmt.Errorf("%w: %v", ErrInvalidTokenType, err)
	default:
		return err
	}
}

// RejectReason returns a short machine-readable label for a trade error.
func RejectReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenNotFound):
		return "token_not_found"
	case errors.Is(err, ErrActorNotFound):
		return "actor_not_found"
	case errors.Is(err, curve.ErrInvalidAmount):
		return "invalid_amount"
	case errors.Is(err, ErrInsufficientFunds):
		return "insufficient_funds"
	case errors.Is(err, ErrInsufficientBalance):
		return "insufficient_balance"
	case errors.Is(err, curve.ErrSupplyUnderflow):
		return "supply_underflow"
	case errors.Is(err, curve.ErrSupplyCapExceeded):
		return "supply_cap_exceeded"
	case errors.Is(err, curve.ErrUnknownTokenType):
		return "invalid_token_type"
	default:
		return "internal"
	}
}
