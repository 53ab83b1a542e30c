package sigs

import (
	"github.com/iov-one/drip/errors"
)

var (
	// ErrInvalidSequence is when the sequence number does not match the
	// expected value.
	ErrInvalidSequence = errors.Register(1000, "invalid sequence")
)
