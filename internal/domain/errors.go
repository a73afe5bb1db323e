package domain

import (
	"errors"
	"fmt"

	"github.com/gagliardetto/solana-go"
)

var (
	ErrMissingAccount        = errors.New("missing account")
	ErrDeserialize           = errors.New("failed to deserialize account")
	ErrMath                  = errors.New("math error")
	ErrInsufficientLiquidity = errors.New("insufficient liquidity")
	ErrInvalidValidatorState = errors.New("invalid validator state")
	ErrWithdrawalTooSmall    = errors.New("withdrawal too small")
	ErrValidatorNotFound     = errors.New("validator not found")
	ErrPoolNotUpdated        = errors.New("pool not updated this epoch")

	// ErrInconsistentInstructionInput is returned by instruction builders when the
	// quote and the participant accounts do not describe a realizable instruction.
	ErrInconsistentInstructionInput = errors.New("inconsistent instruction input")
)

// AccountError ties a refresh failure to the address that caused it.
type AccountError struct {
	Kind    error
	Address solana.PublicKey
	Cause   error
}

func (e *AccountError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s %s: %v", e.Kind, e.Address, e.Cause)
	}
	return fmt.Sprintf("%s %s", e.Kind, e.Address)
}

func (e *AccountError) Unwrap() []error {
	if e.Cause != nil {
		return []error{e.Kind, e.Cause}
	}
	return []error{e.Kind}
}

func MissingAccount(address solana.PublicKey) error {
	return &AccountError{Kind: ErrMissingAccount, Address: address}
}

func Deserialize(address solana.PublicKey, cause error) error {
	return &AccountError{Kind: ErrDeserialize, Address: address, Cause: cause}
}

// ErrorAddress extracts the offending address from a refresh error.
func ErrorAddress(err error) (solana.PublicKey, bool) {
	var accErr *AccountError
	if errors.As(err, &accErr) {
		return accErr.Address, true
	}
	return solana.PublicKey{}, false
}
