package utils

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
)

// Recovery is a decorator to recover from panics in transactions,
// so we can log them as errors
type Recovery struct{}

var _ drip.Decorator = Recovery{}

// NewRecovery creates a Recovery decorator
func NewRecovery() Recovery {
	return Recovery{}
}

// Check turns panics into normal errors
func (r Recovery) Check(ctx drip.Context, store drip.KVStore, tx drip.Tx, next drip.Checker) (_ *drip.CheckResult, err error) {
	defer errors.Recover(&err)
	return next.Check(ctx, store, tx)
}

// Deliver turns panics into normal errors
func (r Recovery) Deliver(ctx drip.Context, store drip.KVStore, tx drip.Tx, next drip.Deliverer) (_ *drip.DeliverResult, err error) {
	defer errors.Recover(&err)
	return next.Deliver(ctx, store, tx)
}
