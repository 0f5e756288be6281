package ledger

import "errors"

// Rejection errors. Each one signals an invalid operation that was
// refused before any state change; none of them ever accompanies a
// partial mutation. Callers match with errors.Is.
var (
	// ErrInvalidQuantity rejects orders with a non-positive quantity.
	ErrInvalidQuantity = errors.New("quantity must be positive")

	// ErrMissingLimitPrice rejects limit orders submitted without a
	// limit price.
	ErrMissingLimitPrice = errors.New("limit order requires a limit price")

	// ErrInsufficientBalance rejects a buy (market or limit) that would
	// overdraw the account.
	ErrInsufficientBalance = errors.New("insufficient balance")

	// ErrInsufficientPosition rejects a limit sell whose quantity
	// exceeds what is held minus what earlier resting sells already
	// committed.
	ErrInsufficientPosition = errors.New("insufficient position")

	// ErrNoMatchingPosition rejects a sell when no single open lot for
	// the symbol holds the full requested quantity. Lots are never
	// aggregated to cover a sell.
	ErrNoMatchingPosition = errors.New("no matching position")
)
