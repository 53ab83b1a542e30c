package driptest

import (
	"crypto/rand"
	"encoding/hex"
	"testing"

	"github.com/iov-one/drip"
)

// RandomAddr returns a valid random address generated on the fly.
func RandomAddr(t testing.TB) drip.Address {
	raw := make([]byte, drip.AddressLength)
	if _, err := rand.Read(raw); err != nil {
		t.Fatalf("cannot generate a random address: %s", err)
	}
	a := drip.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("generated address is not valid: %s", err)
	}
	return a
}

// DecodeAddr takes a hex encoded address string and returns its raw
// representation. This function ensures that the returned value is a valid
// address.
func DecodeAddr(t testing.TB, encoded string) drip.Address {
	t.Helper()
	raw, err := hex.DecodeString(encoded)
	if err != nil {
		t.Fatalf("cannot decode hex string: %s", err)
	}
	a := drip.Address(raw)
	if err := a.Validate(); err != nil {
		t.Fatalf("decoded string is not a valid address: %s", err)
	}
	return a
}
