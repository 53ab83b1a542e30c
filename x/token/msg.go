package token

import (
	"encoding/binary"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/migration"
)

func init() {
	migration.MustRegister(1, &RegisterTokenMsg{}, migration.NoModification)
	migration.MustRegister(1, &TransferMsg{}, migration.NoModification)
	migration.MustRegister(1, &UpdateConfigurationMsg{}, migration.NoModification)
}

const (
	pathRegisterTokenMsg       = "token/register"
	pathTransferMsg            = "token/transfer"
	pathUpdateConfigurationMsg = "token/update_configuration"
)

var _ drip.Msg = (*RegisterTokenMsg)(nil)

// RegisterTokenMsg registers a new token under its ticker. Only the
// configuration owner is authorized to register tokens.
type RegisterTokenMsg struct {
	Metadata *drip.Metadata
	Ticker   string
	Name     string
}

func (RegisterTokenMsg) Path() string {
	return pathRegisterTokenMsg
}

// GetMetadata returns the schema header.
func (m *RegisterTokenMsg) GetMetadata() *drip.Metadata {
	return m.Metadata
}

func (m *RegisterTokenMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if !coin.IsCC(m.Ticker) {
		errs = errors.Append(errs, errors.Field("Ticker", errors.ErrCurrency, "invalid ticker: %s", m.Ticker))
	}
	if !isTokenName(m.Name) {
		errs = errors.Append(errs, errors.Field("Name", errors.ErrInput, "invalid token name %q", m.Name))
	}
	return errs
}

// Marshal serializes the message as metadata, ticker length, ticker and the
// name.
func (m *RegisterTokenMsg) Marshal() ([]byte, error) {
	if m.Metadata == nil {
		return nil, errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	meta, err := m.Metadata.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	raw := make([]byte, 0, len(meta)+1+len(m.Ticker)+len(m.Name))
	raw = append(raw, meta...)
	raw = append(raw, uint8(len(m.Ticker)))
	raw = append(raw, m.Ticker...)
	return append(raw, m.Name...), nil
}

// Unmarshal restores the message from its binary representation.
func (m *RegisterTokenMsg) Unmarshal(raw []byte) error {
	if len(raw) < 5 {
		return errors.Wrapf(errors.ErrInput, "register message too short: %d bytes", len(raw))
	}
	var meta drip.Metadata
	if err := meta.Unmarshal(raw[:4]); err != nil {
		return errors.Wrap(err, "unmarshal metadata")
	}
	m.Metadata = &meta
	tickerLen := int(raw[4])
	raw = raw[5:]
	if len(raw) < tickerLen {
		return errors.Wrap(errors.ErrInput, "truncated ticker")
	}
	m.Ticker = string(raw[:tickerLen])
	m.Name = string(raw[tickerLen:])
	return nil
}

var _ drip.Msg = (*TransferMsg)(nil)

// TransferMsg moves tokens between the holdings of the source and the
// destination owner.
type TransferMsg struct {
	Metadata    *drip.Metadata
	Source      drip.Address
	Destination drip.Address
	Amount      coin.Coin
}

func (TransferMsg) Path() string {
	return pathTransferMsg
}

// GetMetadata returns the schema header.
func (m *TransferMsg) GetMetadata() *drip.Metadata {
	return m.Metadata
}

func (m *TransferMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Source", m.Source.Validate())
	errs = errors.AppendField(errs, "Destination", m.Destination.Validate())
	if err := m.Amount.Validate(); err != nil {
		errs = errors.AppendField(errs, "Amount", err)
	} else if !m.Amount.IsPositive() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be positive"))
	}
	return errs
}

// Marshal serializes the message as metadata, both addresses, big endian
// amount and the ticker.
func (m *TransferMsg) Marshal() ([]byte, error) {
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
	raw := make([]byte, 0, len(meta)+2*drip.AddressLength+8+len(m.Amount.Ticker))
	raw = append(raw, meta...)
	raw = append(raw, m.Source...)
	raw = append(raw, m.Destination...)
	var amount [8]byte
	binary.BigEndian.PutUint64(amount[:], m.Amount.Amount)
	raw = append(raw, amount[:]...)
	return append(raw, m.Amount.Ticker...), nil
}

// Unmarshal restores the message from its binary representation.
func (m *TransferMsg) Unmarshal(raw []byte) error {
	if len(raw) < 4+2*drip.AddressLength+8 {
		return errors.Wrapf(errors.ErrInput, "transfer message too short: %d bytes", len(raw))
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
	m.Amount.Ticker = string(raw[8:])
	return nil
}

var _ drip.Msg = (*UpdateConfigurationMsg)(nil)

// UpdateConfigurationMsg updates the package configuration. Zero value
// fields of the patch keep the current configuration value.
type UpdateConfigurationMsg struct {
	Metadata *drip.Metadata
	Patch    *Configuration
}

func (UpdateConfigurationMsg) Path() string {
	return pathUpdateConfigurationMsg
}

// GetMetadata returns the schema header.
func (m *UpdateConfigurationMsg) GetMetadata() *drip.Metadata {
	return m.Metadata
}

func (m *UpdateConfigurationMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	if m.Patch == nil {
		errs = errors.Append(errs, errors.Field("Patch", errors.ErrEmpty, "patch is required"))
	} else if len(m.Patch.Owner) != 0 {
		errs = errors.AppendField(errs, "Patch.Owner", m.Patch.Owner.Validate())
	}
	return errs
}

// Marshal serializes the message as metadata and the patch.
func (m *UpdateConfigurationMsg) Marshal() ([]byte, error) {
	if m.Metadata == nil {
		return nil, errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	if m.Patch == nil {
		return nil, errors.Wrap(errors.ErrEmpty, "missing patch")
	}
	meta, err := m.Metadata.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	patch, err := m.Patch.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal patch")
	}
	return append(meta, patch...), nil
}

// Unmarshal restores the message from its binary representation.
func (m *UpdateConfigurationMsg) Unmarshal(raw []byte) error {
	if len(raw) < 4 {
		return errors.Wrapf(errors.ErrInput, "update message too short: %d bytes", len(raw))
	}
	var meta drip.Metadata
	if err := meta.Unmarshal(raw[:4]); err != nil {
		return errors.Wrap(err, "unmarshal metadata")
	}
	m.Metadata = &meta
	var conf Configuration
	if err := conf.Unmarshal(raw[4:]); err != nil {
		return errors.Wrap(err, "unmarshal patch")
	}
	m.Patch = &conf
	return nil
}
