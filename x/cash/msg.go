package cash

import (
	"encoding/binary"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/migration"
)

func init() {
	migration.MustRegister(1, &SendMsg{}, migration.NoModification)
}

const (
	pathSendMsg = "cash/send"

	maxMemoSize = 128
)

var _ drip.Msg = (*SendMsg)(nil)

// SendMsg moves native funds from the source to the destination account.
type SendMsg struct {
	Metadata    *drip.Metadata
	Source      drip.Address
	Destination drip.Address
	Amount      coin.Coin
	// Memo is a free text annotation, visible in the transaction history.
	Memo string
}

// Path returns the routing path for this message.
func (SendMsg) Path() string {
	return pathSendMsg
}

// GetMetadata returns the schema header.
func (m *SendMsg) GetMetadata() *drip.Metadata {
	return m.Metadata
}

// Validate makes sure that this is sensible.
func (m *SendMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if err := m.Amount.Validate(); err != nil {
		errs = errors.AppendField(errs, "Amount", err)
	} else if !m.Amount.IsPositive() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be positive"))
	}
	if len(m.Memo) > maxMemoSize {
		errs = errors.Append(errs, errors.Field("Memo", errors.ErrInput, "memo too long"))
	}
	return errs
}

// Marshal serializes the message as metadata, both addresses, big endian
// amount, ticker length, ticker and the memo.
func (m *SendMsg) Marshal() ([]byte, error) {
	if m.Metadata == nil {
		return nil, errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	meta, err := m.Metadata.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	if len(m.Source) != drip.AddressLength || len(m.Destination) != drip.AddressLength {
		return nil, errors.Wrap(errors.ErrInput, "address size")
	}
	raw := make([]byte, 0, len(meta)+2*drip.AddressLength+8+1+len(m.Amount.Ticker)+len(m.Memo))
	raw = append(raw, meta...)
	raw = append(raw, m.Source...)
	raw = append(raw, m.Destination...)
	var amount [8]byte
	binary.BigEndian.PutUint64(amount[:], m.Amount.Amount)
	raw = append(raw, amount[:]...)
	raw = append(raw, uint8(len(m.Amount.Ticker)))
	raw = append(raw, m.Amount.Ticker...)
	return append(raw, m.Memo...), nil
}

// Unmarshal restores the message from its binary representation.
func (m *SendMsg) Unmarshal(raw []byte) error {
	if len(raw) < 4+2*drip.AddressLength+8+1 {
		return errors.Wrapf(errors.ErrInput, "send message too short: %d bytes", len(raw))
	}
	var meta drip.Metadata
	if err := meta.Unmarshal(raw[:4]); err != nil {
		return errors.Wrap(err, "unmarshal metadata")
	}
	m.Metadata = &meta
	raw = raw[4:]
	m.Source = append(drip.Address(nil), raw[:drip.AddressLength]...)
	raw = raw[drip.AddressLength:]
	m.Destination = append(drip.Address(nil), raw[:drip.AddressLength]...)
	raw = raw[drip.AddressLength:]
	m.Amount.Amount = binary.BigEndian.Uint64(raw[:8])
	tickerLen := int(raw[8])
	raw = raw[9:]
	if len(raw) < tickerLen {
		return errors.Wrap(errors.ErrInput, "truncated ticker")
	}
	m.Amount.Ticker = string(raw[:tickerLen])
	m.Memo = string(raw[tickerLen:])
	return nil
}
