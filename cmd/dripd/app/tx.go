package app

import (
	"encoding/binary"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/x/cash"
	"github.com/iov-one/drip/x/rewards"
	"github.com/iov-one/drip/x/sigs"
	"github.com/iov-one/drip/x/token"
)

//-------------------
// Implement Tx

var _ drip.Tx = (*Tx)(nil)
var _ sigs.SignedTx = (*Tx)(nil)

// Tx is the transaction envelope. It carries exactly one message together
// with the signatures authorizing it.
type Tx struct {
	Signatures []*sigs.StdSignature
	Msg        drip.Msg
}

// Message kind markers on the wire. A released value must never be
// reassigned to a different message type.
const (
	kindSendMsg byte = iota + 1
	kindRegisterTokenMsg
	kindTransferMsg
	kindUpdateConfigurationMsg
	kindCreatePoolMsg
	kindUpdateTopHoldersMsg
	kindDepositMsg
	kindDistributeMsg
	kindWithdrawMsg
)

func msgKind(msg drip.Msg) (byte, error) {
	switch msg.(type) {
	case *cash.SendMsg:
		return kindSendMsg, nil
	case *token.RegisterTokenMsg:
		return kindRegisterTokenMsg, nil
	case *token.TransferMsg:
		return kindTransferMsg, nil
	case *token.UpdateConfigurationMsg:
		return kindUpdateConfigurationMsg, nil
	case *rewards.CreatePoolMsg:
		return kindCreatePoolMsg, nil
	case *rewards.UpdateTopHoldersMsg:
		return kindUpdateTopHoldersMsg, nil
	case *rewards.DepositMsg:
		return kindDepositMsg, nil
	case *rewards.DistributeMsg:
		return kindDistributeMsg, nil
	case *rewards.WithdrawMsg:
		return kindWithdrawMsg, nil
	}
	return 0, errors.Wrapf(errors.ErrType, "unsupported message %T", msg)
}

func newMsg(kind byte) (drip.Msg, error) {
	switch kind {
	case kindSendMsg:
		return &cash.SendMsg{}, nil
	case kindRegisterTokenMsg:
		return &token.RegisterTokenMsg{}, nil
	case kindTransferMsg:
		return &token.TransferMsg{}, nil
	case kindUpdateConfigurationMsg:
		return &token.UpdateConfigurationMsg{}, nil
	case kindCreatePoolMsg:
		return &rewards.CreatePoolMsg{}, nil
	case kindUpdateTopHoldersMsg:
		return &rewards.UpdateTopHoldersMsg{}, nil
	case kindDepositMsg:
		return &rewards.DepositMsg{}, nil
	case kindDistributeMsg:
		return &rewards.DistributeMsg{}, nil
	case kindWithdrawMsg:
		return &rewards.WithdrawMsg{}, nil
	}
	return nil, errors.Wrapf(errors.ErrType, "unknown message kind %d", kind)
}

// GetMsg returns the message the envelope carries.
func (tx *Tx) GetMsg() (drip.Msg, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrState, "transaction without a message")
	}
	return tx.Msg, nil
}

// GetSignatures returns the signature of signers who signed the Msg.
func (tx *Tx) GetSignatures() []*sigs.StdSignature {
	return tx.Signatures
}

// GetSignBytes returns the bytes to sign.
func (tx *Tx) GetSignBytes() ([]byte, error) {
	// temporarily unset the signatures, as the sign bytes
	// should only come from the data itself, not previous signatures
	sigs := tx.Signatures
	tx.Signatures = nil

	bz, err := tx.Marshal()

	// reset the signatures after calculating the bytes
	tx.Signatures = sigs
	return bz, err
}

// Marshal serializes the envelope as the message kind, the length prefixed
// message and one length prefixed record per signature.
func (tx *Tx) Marshal() ([]byte, error) {
	if tx.Msg == nil {
		return nil, errors.Wrap(errors.ErrState, "transaction without a message")
	}
	kind, err := msgKind(tx.Msg)
	if err != nil {
		return nil, err
	}
	msg, err := tx.Msg.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal message")
	}
	raw := make([]byte, 0, 1+4+len(msg))
	raw = append(raw, kind)
	var ln [4]byte
	binary.BigEndian.PutUint32(ln[:], uint32(len(msg)))
	raw = append(raw, ln[:]...)
	raw = append(raw, msg...)
	for i, sig := range tx.Signatures {
		rec, err := sig.Marshal()
		if err != nil {
			return nil, errors.Wrapf(err, "signature #%d", i)
		}
		binary.BigEndian.PutUint32(ln[:], uint32(len(rec)))
		raw = append(raw, ln[:]...)
		raw = append(raw, rec...)
	}
	return raw, nil
}

// Unmarshal restores the envelope from its binary representation.
func (tx *Tx) Unmarshal(raw []byte) error {
	if len(raw) < 5 {
		return errors.Wrapf(errors.ErrInput, "transaction too short: %d bytes", len(raw))
	}
	msg, err := newMsg(raw[0])
	if err != nil {
		return err
	}
	msgLen := int(binary.BigEndian.Uint32(raw[1:5]))
	raw = raw[5:]
	if len(raw) < msgLen {
		return errors.Wrap(errors.ErrInput, "truncated message")
	}
	if err := msg.Unmarshal(raw[:msgLen]); err != nil {
		return errors.Wrap(err, "unmarshal message")
	}
	tx.Msg = msg
	raw = raw[msgLen:]

	tx.Signatures = nil
	for len(raw) > 0 {
		if len(raw) < 4 {
			return errors.Wrap(errors.ErrInput, "truncated signature record")
		}
		recLen := int(binary.BigEndian.Uint32(raw[:4]))
		raw = raw[4:]
		if len(raw) < recLen {
			return errors.Wrap(errors.ErrInput, "truncated signature record")
		}
		var sig sigs.StdSignature
		if err := sig.Unmarshal(raw[:recLen]); err != nil {
			return errors.Wrap(err, "unmarshal signature")
		}
		tx.Signatures = append(tx.Signatures, &sig)
		raw = raw[recLen:]
	}
	return nil
}

// TxDecoder creates a Tx and unmarshals bytes into it
func TxDecoder(bz []byte) (drip.Tx, error) {
	tx := new(Tx)
	err := tx.Unmarshal(bz)
	if err != nil {
		return nil, err
	}
	return tx, nil
}
