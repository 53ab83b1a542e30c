package driptest

import (
	"context"

	"github.com/iov-one/drip"
)

// Auth is a mock implementing x.Authenticator interface. It authenticates
// any of the configured conditions, ignoring the context content.
type Auth struct {
	// Signer represents the main signer. When set it is returned as the
	// last condition.
	Signer drip.Condition

	// Signers represents any number of additional signers.
	Signers []drip.Condition
}

func (a *Auth) GetConditions(drip.Context) []drip.Condition {
	if a.Signer == nil {
		return a.Signers
	}
	return append(a.Signers, a.Signer)
}

func (a *Auth) HasAddress(ctx drip.Context, addr drip.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if c.Address().Equals(addr) {
			return true
		}
	}
	return false
}

// CtxAuth is a mock implementing x.Authenticator interface. It uses the
// context to manage the conditions, so unlike Auth the set of authenticated
// signers can differ per call.
type CtxAuth struct {
	// Key used to set and read conditions from the context.
	Key string
}

func (a *CtxAuth) SetConditions(ctx drip.Context, perms ...drip.Condition) drip.Context {
	return context.WithValue(ctx, a.Key, perms)
}

func (a *CtxAuth) GetConditions(ctx drip.Context) []drip.Condition {
	val := ctx.Value(a.Key)
	if val == nil {
		return nil
	}
	perms, ok := val.([]drip.Condition)
	if !ok {
		panic("conditions not stored for this context key")
	}
	return perms
}

func (a *CtxAuth) HasAddress(ctx drip.Context, addr drip.Address) bool {
	for _, c := range a.GetConditions(ctx) {
		if c.Address().Equals(addr) {
			return true
		}
	}
	return false
}
