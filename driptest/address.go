package driptest

import (
	"testing"

	"github.com/iov-one/drip"
)

// ParseAddress takes an address in a human readable format and returns its
// binary representation. This function fails the test on a malformed input.
func ParseAddress(t testing.TB, encodedAddress string) drip.Address {
	t.Helper()

	addr, err := drip.ParseAddress(encodedAddress)
	if err != nil {
		t.Fatalf("cannot parse %q address: %s", encodedAddress, err)
	}
	return addr
}
