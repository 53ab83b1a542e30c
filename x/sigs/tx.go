package sigs

import (
	"encoding/binary"

	"golang.org/x/crypto/ed25519"

	"github.com/iov-one/drip/crypto"
	"github.com/iov-one/drip/errors"
)

// SignedTx represents a transaction that contains signatures,
// which can be verified by the auth.Decorator
type SignedTx interface {
	// GetSignBytes returns the canonical byte representation of the Msg.
	// Helpful to store original, unparsed bytes here, just in case.
	GetSignBytes() ([]byte, error)

	// GetSignatures returns the signature of signers who signed the Msg.
	GetSignatures() []*StdSignature
}

// StdSignature represents the signature, the identity of the signer
// (the Pubkey), and a sequence number to prevent replay attacks.
//
// A given signer must submit transactions with the sequence number
// increasing by 1 each time (starting at 0)
type StdSignature struct {
	Sequence  int64
	Pubkey    *crypto.PublicKey
	Signature *crypto.Signature
}

// stdSignatureSize is the fixed size of a serialized StdSignature:
// big endian sequence, raw public key, raw signature.
const stdSignatureSize = 8 + ed25519.PublicKeySize + ed25519.SignatureSize

// Validate ensures the StdSignature meets basic standards
func (s *StdSignature) Validate() error {
	if s.Sequence < 0 {
		return errors.Wrap(ErrInvalidSequence, "negative")
	}
	if s.Pubkey == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing public key")
	}
	if s.Signature == nil {
		return errors.Wrap(errors.ErrUnauthorized, "missing signature")
	}

	return nil
}

// Marshal returns the fixed-size binary representation.
func (s *StdSignature) Marshal() ([]byte, error) {
	if s.Pubkey == nil || s.Signature == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "incomplete signature")
	}
	raw := make([]byte, 0, stdSignatureSize)
	var seq [8]byte
	binary.BigEndian.PutUint64(seq[:], uint64(s.Sequence))
	raw = append(raw, seq[:]...)
	pub, err := s.Pubkey.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal pubkey")
	}
	raw = append(raw, pub...)
	sig, err := s.Signature.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal signature")
	}
	return append(raw, sig...), nil
}

// Unmarshal restores the signature from its binary representation.
func (s *StdSignature) Unmarshal(raw []byte) error {
	if len(raw) != stdSignatureSize {
		return errors.Wrapf(errors.ErrInput, "signature record size: %d", len(raw))
	}
	s.Sequence = int64(binary.BigEndian.Uint64(raw[:8]))
	pub := new(crypto.PublicKey)
	if err := pub.Unmarshal(raw[8 : 8+ed25519.PublicKeySize]); err != nil {
		return errors.Wrap(err, "unmarshal pubkey")
	}
	s.Pubkey = pub
	sig := new(crypto.Signature)
	if err := sig.Unmarshal(raw[8+ed25519.PublicKeySize:]); err != nil {
		return errors.Wrap(err, "unmarshal signature")
	}
	s.Signature = sig
	return nil
}
