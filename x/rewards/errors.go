package rewards

import (
	"github.com/iov-one/drip/errors"
)

var (
	// ErrTooManyHolders is when a registry update carries more entries
	// than the pool policy allows.
	ErrTooManyHolders = errors.Register(1200, "too many holders")

	// ErrInsufficientAccounts is when a distribution names fewer
	// recipients than the registry has entries.
	ErrInsufficientAccounts = errors.Register(1201, "insufficient accounts")

	// ErrInvalidRecipient is when a recipient does not match the registry
	// entry at the same position.
	ErrInvalidRecipient = errors.Register(1202, "invalid recipient")

	// ErrInvalidMint is when an asset does not match the pool token.
	ErrInvalidMint = errors.Register(1203, "invalid mint")

	// ErrInvalidTokenProgram is when a recipient account is not a token
	// holding.
	ErrInvalidTokenProgram = errors.Register(1204, "invalid token program")

	// ErrInsufficientBalance is when a withdrawal asks for more than the
	// vault holds.
	ErrInsufficientBalance = errors.Register(1205, "insufficient balance")

	// ErrStaleRegistry is when a distribution pins a registry version that
	// is no longer current.
	ErrStaleRegistry = errors.Register(1206, "stale registry")
)
