package driptest

import (
	"encoding/hex"
	"testing"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/crypto"
	"github.com/stellar/go/exp/crypto/derivation"
)

// DeriveKey derives a private key from a hex encoded seed and the given
// bip44 path, for example "m/44'/234'/0'". An empty path uses the seed
// directly. The seed must decode to 32 bytes.
func DeriveKey(t testing.TB, hexSeed, path string) crypto.Signer {
	t.Helper()

	seed, err := hex.DecodeString(hexSeed)
	if err != nil {
		t.Fatalf("cannot decode seed: %s", err)
	}
	if len(path) == 0 {
		return crypto.PrivKeyEd25519FromSeed(seed)
	}
	k, err := derivation.DeriveForPath(path, seed)
	if err != nil {
		t.Fatalf("cannot derive a private key using path %q: %s", path, err)
	}
	return crypto.PrivKeyEd25519FromSeed(k.Key)
}

// DeriveCondition returns the condition of a key derived from the given
// seed and path. Deriving twice with the same arguments gives the same
// condition, which makes test fixtures reproducible.
func DeriveCondition(t testing.TB, hexSeed, path string) drip.Condition {
	t.Helper()
	return DeriveKey(t, hexSeed, path).PublicKey().Condition()
}
