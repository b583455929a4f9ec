package domain

import (
	"errors"
	"fmt"
)

// Exit codes reported for rejected messages
const (
	ExitMalformedBody      = 9
	ExitNoSuchMethod       = 11
	ExitAccessDenied       = 401
	ExitIndexOutOfRange    = 402
	ExitInitSenderMismatch = 405
	ExitAlreadyDeployed    = 409
	ExitNotTransferable    = 413
	ExitInsufficientFunds  = 37
	ExitNotAccepted        = 0xfffd
	ExitUnexpectedBounce   = 0xfffe
	ExitUnknownOperation   = 0xffff
)

var (
	// ErrAccessDenied is returned when the sender is not the principal the operation requires
	ErrAccessDenied = errors.New("access denied")

	// ErrNotTransferable is returned for every transfer attempt
	ErrNotTransferable = errors.New("token is not transferable")

	// ErrUnknownOperation is returned for op codes the item does not handle
	ErrUnknownOperation = errors.New("unknown operation")

	// ErrUnexpectedBounce is returned when a bounced message is not a bounced ownership proof
	ErrUnexpectedBounce = errors.New("unexpected bounced message")

	// ErrExternalMessage is returned for messages that did not come from the internal message layer
	ErrExternalMessage = errors.New("external messages are not accepted")

	// ErrInitSenderMismatch is returned when an uninitialized item hears from anyone but its collection
	ErrInitSenderMismatch = errors.New("only the collection may initialize the item")

	// ErrMalformedBody is returned when a body cannot be parsed
	ErrMalformedBody = errors.New("malformed message body")

	// ErrInsufficientFunds is returned when outbound value exceeds the account balance
	ErrInsufficientFunds = errors.New("insufficient funds")

	// ErrNoSuchMethod is returned by get-methods an item does not implement
	ErrNoSuchMethod = errors.New("no such get-method")

	// ErrAccountNotFound is returned when no account lives at an address
	ErrAccountNotFound = errors.New("account not found")

	// ErrItemNotFound is returned when no item record exists for an address
	ErrItemNotFound = errors.New("item not found")

	// ErrNotInitialized is returned when reading content of an item that has no owner yet
	ErrNotInitialized = errors.New("item is not initialized")

	// ErrIndexOutOfRange is returned when minting past the collection's next item index
	ErrIndexOutOfRange = errors.New("item index out of range")

	// ErrItemAlreadyExists is returned when minting an index that is already deployed
	ErrItemAlreadyExists = errors.New("item already exists")
)

// ExitError is a rejected message: a numeric exit code plus the sentinel it stands for
type ExitError struct {
	Code int
	Err  error
}

// NewExitError wraps err with code
func NewExitError(code int, err error) *ExitError {
	return &ExitError{Code: code, Err: err}
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("exit code %d: %v", e.Code, e.Err)
}

func (e *ExitError) Unwrap() error {
	return e.Err
}

// Malformed wraps a parse failure as ExitMalformedBody
func Malformed(err error) *ExitError {
	return NewExitError(ExitMalformedBody, fmt.Errorf("%w: %w", ErrMalformedBody, err))
}

// ExitCode returns the exit code carried by err: 0 for nil, 1 for errors that are not ExitErrors
func ExitCode(err error) int {
	if err == nil {
		return 0
	}
	var exitErr *ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code
	}
	return 1
}
