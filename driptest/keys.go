package driptest

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/crypto"
)

// NewKey returns a newly generated private key.
func NewKey() crypto.Signer {
	return crypto.GenPrivKeyEd25519()
}

// NewCondition returns the condition of a newly generated key.
func NewCondition() drip.Condition {
	return NewKey().PublicKey().Condition()
}
