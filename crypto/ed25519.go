package crypto

import (
	"golang.org/x/crypto/ed25519"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
)

// PublicKey is an ed25519 public key.
type PublicKey struct {
	Ed25519 []byte
}

// PrivateKey is an ed25519 private key.
type PrivateKey struct {
	Ed25519 []byte
}

// Signature is an ed25519 signature over the signed payload.
type Signature struct {
	Ed25519 []byte
}

var _ PubKey = (*PublicKey)(nil)

// Verify verifies the signature was created with this message and public key
func (p *PublicKey) Verify(message []byte, sig *Signature) bool {
	if sig == nil || len(sig.Ed25519) != ed25519.SignatureSize {
		return false
	}
	if len(p.Ed25519) != ed25519.PublicKeySize {
		return false
	}
	publicKey := ed25519.PublicKey(p.Ed25519)
	return ed25519.Verify(publicKey, message, sig.Ed25519)
}

// Condition encodes the public key into a signature condition.
//    p.Condition().Address()
// will return an Address if needed.
func (p *PublicKey) Condition() drip.Condition {
	if p == nil || len(p.Ed25519) == 0 {
		return nil
	}
	return drip.NewCondition(ExtensionName, "ed25519", p.Ed25519)
}

// Address is a shortcut to get the address of the condition represented by
// this public key.
func (p *PublicKey) Address() drip.Address {
	return p.Condition().Address()
}

// Validate returns an error if this is not a well formed public key.
func (p *PublicKey) Validate() error {
	if p == nil || len(p.Ed25519) != ed25519.PublicKeySize {
		return errors.Wrap(errors.ErrInput, "invalid ed25519 public key")
	}
	return nil
}

// Marshal returns the raw public key bytes.
func (p *PublicKey) Marshal() ([]byte, error) {
	return append([]byte(nil), p.Ed25519...), nil
}

// Unmarshal reads raw public key bytes.
func (p *PublicKey) Unmarshal(raw []byte) error {
	if len(raw) != ed25519.PublicKeySize {
		return errors.Wrapf(errors.ErrInput, "public key size: %d", len(raw))
	}
	p.Ed25519 = append([]byte(nil), raw...)
	return nil
}

// Marshal returns the raw signature bytes.
func (s *Signature) Marshal() ([]byte, error) {
	return append([]byte(nil), s.Ed25519...), nil
}

// Unmarshal reads raw signature bytes.
func (s *Signature) Unmarshal(raw []byte) error {
	if len(raw) != ed25519.SignatureSize {
		return errors.Wrapf(errors.ErrInput, "signature size: %d", len(raw))
	}
	s.Ed25519 = append([]byte(nil), raw...)
	return nil
}

var _ Signer = (*PrivateKey)(nil)

// Sign returns a matching signature for this private key
func (p *PrivateKey) Sign(message []byte) (*Signature, error) {
	if len(p.Ed25519) != ed25519.PrivateKeySize {
		return nil, errors.Wrap(errors.ErrInput, "invalid ed25519 private key")
	}
	privateKey := ed25519.PrivateKey(p.Ed25519)
	bz := ed25519.Sign(privateKey, message)
	return &Signature{Ed25519: bz}, nil
}

// PublicKey returns the corresponding PublicKey
func (p *PrivateKey) PublicKey() *PublicKey {
	privateKey := ed25519.PrivateKey(p.Ed25519)
	pub := privateKey.Public().(ed25519.PublicKey)
	return &PublicKey{Ed25519: pub}
}

// Marshal returns the raw private key bytes.
func (p *PrivateKey) Marshal() ([]byte, error) {
	return append([]byte(nil), p.Ed25519...), nil
}

// Unmarshal reads raw private key bytes.
func (p *PrivateKey) Unmarshal(raw []byte) error {
	if len(raw) != ed25519.PrivateKeySize {
		return errors.Wrapf(errors.ErrInput, "private key size: %d", len(raw))
	}
	p.Ed25519 = append([]byte(nil), raw...)
	return nil
}

// GenPrivKeyEd25519 returns a random new private key
func GenPrivKeyEd25519() *PrivateKey {
	_, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		panic(err)
	}
	return &PrivateKey{Ed25519: priv}
}

// PrivKeyEd25519FromSeed will deterministically generate a private key from
// a given seed. Use if you have a strong source of external randomness,
// or for deterministic keys in test cases.
func PrivKeyEd25519FromSeed(seed []byte) *PrivateKey {
	priv := ed25519.NewKeyFromSeed(seed)
	return &PrivateKey{Ed25519: priv}
}
