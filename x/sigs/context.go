package sigs

import (
	"context"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/x"
)

//------------------- Context --------
// Add context information specific to this package

type contextKey int // local to the sigs module

const (
	contextKeySigners contextKey = iota
)

// withSigners is a private method, as only this module
// can add a signer
func withSigners(ctx drip.Context, signers []drip.Condition) drip.Context {
	return context.WithValue(ctx, contextKeySigners, signers)
}

// Authenticate implements x.Authenticator and provides
// authentication based on signatures that were validated
// on the transaction.
type Authenticate struct{}

var _ x.Authenticator = Authenticate{}

// GetConditions returns who signed the current Context.
// May be empty
func (a Authenticate) GetConditions(ctx drip.Context) []drip.Condition {
	// (val, ok) form to return nil instead of panic if unset
	val, _ := ctx.Value(contextKeySigners).([]drip.Condition)
	// if we were paranoid about our own code, we would deep-copy
	// the signers here
	return val
}

// HasAddress returns true iff this address signed the current Context.
func (a Authenticate) HasAddress(ctx drip.Context, addr drip.Address) bool {
	signers := a.GetConditions(ctx)
	for _, s := range signers {
		if addr.Equals(s.Address()) {
			return true
		}
	}
	return false
}
