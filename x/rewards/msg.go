package rewards

import (
	"encoding/binary"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/migration"
)

func init() {
	migration.MustRegister(1, &CreatePoolMsg{}, migration.NoModification)
	migration.MustRegister(1, &UpdateTopHoldersMsg{}, migration.NoModification)
	migration.MustRegister(1, &DepositMsg{}, migration.NoModification)
	migration.MustRegister(1, &DistributeMsg{}, migration.NoModification)
	migration.MustRegister(1, &WithdrawMsg{}, migration.NoModification)
}

const (
	pathCreatePoolMsg       = "rewards/create_pool"
	pathUpdateTopHoldersMsg = "rewards/update_top_holders"
	pathDepositMsg          = "rewards/deposit"
	pathDistributeMsg       = "rewards/distribute"
	pathWithdrawMsg         = "rewards/withdraw"
)

var _ drip.Msg = (*CreatePoolMsg)(nil)

// CreatePoolMsg creates a reward pool together with its vault. Anyone can
// create a pool, only the declared owner can manage it afterwards. An empty
// ticker creates a pool paying out the chain's own coin, any other ticker
// must name a registered token.
type CreatePoolMsg struct {
	Metadata       *drip.Metadata
	Owner          drip.Address
	Ticker         string
	Policy         Policy
	AutoDistribute bool
}

func (CreatePoolMsg) Path() string {
	return pathCreatePoolMsg
}

// GetMetadata returns the schema header.
func (m *CreatePoolMsg) GetMetadata() *drip.Metadata {
	return m.Metadata
}

func (m *CreatePoolMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", m.Owner.Validate())
	if m.Ticker != "" && !coin.IsCC(m.Ticker) {
		errs = errors.Append(errs, errors.Field("Ticker", errors.ErrCurrency, "invalid ticker: %s", m.Ticker))
	}
	errs = errors.AppendField(errs, "Policy", m.Policy.Validate())
	return errs
}

// Marshal serializes the message as metadata, owner, policy, auto distribute
// flag and the ticker.
func (m *CreatePoolMsg) Marshal() ([]byte, error) {
	if m.Metadata == nil {
		return nil, errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	meta, err := m.Metadata.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	if len(m.Owner) != drip.AddressLength {
		return nil, errors.Wrap(errors.ErrInput, "owner address size")
	}
	raw := make([]byte, 0, len(meta)+drip.AddressLength+2+len(m.Ticker))
	raw = append(raw, meta...)
	raw = append(raw, m.Owner...)
	var auto byte
	if m.AutoDistribute {
		auto = 1
	}
	raw = append(raw, byte(m.Policy), auto)
	return append(raw, m.Ticker...), nil
}

// Unmarshal restores the message from its binary representation.
func (m *CreatePoolMsg) Unmarshal(raw []byte) error {
	if len(raw) < 4+drip.AddressLength+2 {
		return errors.Wrapf(errors.ErrInput, "create message too short: %d bytes", len(raw))
	}
	var meta drip.Metadata
	if err := meta.Unmarshal(raw[:4]); err != nil {
		return errors.Wrap(err, "unmarshal metadata")
	}
	m.Metadata = &meta
	raw = raw[4:]
	m.Owner = append(drip.Address(nil), raw[:drip.AddressLength]...)
	raw = raw[drip.AddressLength:]
	m.Policy = Policy(raw[0])
	m.AutoDistribute = raw[1] == 1
	m.Ticker = string(raw[2:])
	return nil
}

var _ drip.Msg = (*UpdateTopHoldersMsg)(nil)

// UpdateTopHoldersMsg replaces the registry of the pool in full. Only the
// pool owner can update the registry. The entries do not have to arrive
// sorted, the stored registry always is.
type UpdateTopHoldersMsg struct {
	Metadata *drip.Metadata
	PoolKey  drip.Address
	Holders  []TopHolder
}

func (UpdateTopHoldersMsg) Path() string {
	return pathUpdateTopHoldersMsg
}

// GetMetadata returns the schema header.
func (m *UpdateTopHoldersMsg) GetMetadata() *drip.Metadata {
	return m.Metadata
}

func (m *UpdateTopHoldersMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "PoolKey", m.PoolKey.Validate())
	// No pool accepts more entries than the biggest capacity. The pool's
	// own capacity is checked by the handler.
	if len(m.Holders) > equalSplitCapacity {
		errs = errors.Append(errs, errors.Field("Holders", ErrTooManyHolders, "%d entries", len(m.Holders)))
	}
	if err := validateHolders(m.Holders, errors.ErrMsg); err != nil {
		errs = errors.AppendField(errs, "Holders", err)
	}
	return errs
}

// Marshal serializes the message as metadata, pool key, entry count and the
// registry entries.
func (m *UpdateTopHoldersMsg) Marshal() ([]byte, error) {
	if m.Metadata == nil {
		return nil, errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	meta, err := m.Metadata.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	if len(m.PoolKey) != drip.AddressLength {
		return nil, errors.Wrap(errors.ErrInput, "pool key size")
	}
	raw := make([]byte, 0, len(meta)+drip.AddressLength+2+len(m.Holders)*holderSlotSize)
	raw = append(raw, meta...)
	raw = append(raw, m.PoolKey...)
	var count [2]byte
	binary.BigEndian.PutUint16(count[:], uint16(len(m.Holders)))
	raw = append(raw, count[:]...)
	return appendHolders(raw, m.Holders)
}

// Unmarshal restores the message from its binary representation.
func (m *UpdateTopHoldersMsg) Unmarshal(raw []byte) error {
	if len(raw) < 4+drip.AddressLength+2 {
		return errors.Wrapf(errors.ErrInput, "update message too short: %d bytes", len(raw))
	}
	var meta drip.Metadata
	if err := meta.Unmarshal(raw[:4]); err != nil {
		return errors.Wrap(err, "unmarshal metadata")
	}
	m.Metadata = &meta
	raw = raw[4:]
	m.PoolKey = append(drip.Address(nil), raw[:drip.AddressLength]...)
	raw = raw[drip.AddressLength:]
	count := int(binary.BigEndian.Uint16(raw[:2]))
	holders, rest, err := parseHolders(raw[2:], count)
	if err != nil {
		return err
	}
	if len(rest) != 0 {
		return errors.Wrapf(errors.ErrInput, "%d trailing bytes", len(rest))
	}
	m.Holders = holders
	return nil
}

var _ drip.Msg = (*DepositMsg)(nil)

// DepositMsg moves tokens from the depositor's holding into the pool vault
// and accounts them as rewards. Only pools paying out a registered token
// take deposits, pools paying out the chain's own coin are funded by plain
// cash sends to the vault address.
type DepositMsg struct {
	Metadata *drip.Metadata
	PoolKey  drip.Address
	Amount   coin.Coin
}

func (DepositMsg) Path() string {
	return pathDepositMsg
}

// GetMetadata returns the schema header.
func (m *DepositMsg) GetMetadata() *drip.Metadata {
	return m.Metadata
}

func (m *DepositMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "PoolKey", m.PoolKey.Validate())
	if err := m.Amount.Validate(); err != nil {
		errs = errors.AppendField(errs, "Amount", err)
	} else if !m.Amount.IsPositive() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be positive"))
	}
	return errs
}

// Marshal serializes the message as metadata, pool key, big endian amount
// and the ticker.
func (m *DepositMsg) Marshal() ([]byte, error) {
	return marshalPoolAmount(m.Metadata, m.PoolKey, m.Amount)
}

// Unmarshal restores the message from its binary representation.
func (m *DepositMsg) Unmarshal(raw []byte) error {
	return unmarshalPoolAmount(raw, &m.Metadata, &m.PoolKey, &m.Amount)
}

var _ drip.Msg = (*DistributeMsg)(nil)

// DistributeMsg runs one distribution pass over the pool. Anyone can
// distribute. The recipients must match the pool registry position by
// position and the registry version must be the one the caller inspected,
// so that a payout can never follow a registry it has not seen.
type DistributeMsg struct {
	Metadata        *drip.Metadata
	PoolKey         drip.Address
	RegistryVersion uint32
	Recipients      []drip.Address
}

func (DistributeMsg) Path() string {
	return pathDistributeMsg
}

// GetMetadata returns the schema header.
func (m *DistributeMsg) GetMetadata() *drip.Metadata {
	return m.Metadata
}

func (m *DistributeMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "PoolKey", m.PoolKey.Validate())
	if m.RegistryVersion == 0 {
		errs = errors.Append(errs, errors.Field("RegistryVersion", errors.ErrEmpty, "version is required"))
	}
	for i, r := range m.Recipients {
		if err := r.Validate(); err != nil {
			errs = errors.Append(errs, errors.Field("Recipients", err, "recipient %d", i))
		}
	}
	return errs
}

// Marshal serializes the message as metadata, pool key, registry version,
// recipient count and the recipient addresses.
func (m *DistributeMsg) Marshal() ([]byte, error) {
	if m.Metadata == nil {
		return nil, errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	meta, err := m.Metadata.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	if len(m.PoolKey) != drip.AddressLength {
		return nil, errors.Wrap(errors.ErrInput, "pool key size")
	}
	raw := make([]byte, 0, len(meta)+drip.AddressLength+6+len(m.Recipients)*drip.AddressLength)
	raw = append(raw, meta...)
	raw = append(raw, m.PoolKey...)
	var buf [4]byte
	binary.BigEndian.PutUint32(buf[:], m.RegistryVersion)
	raw = append(raw, buf[:]...)
	binary.BigEndian.PutUint16(buf[:2], uint16(len(m.Recipients)))
	raw = append(raw, buf[:2]...)
	for i, r := range m.Recipients {
		if len(r) != drip.AddressLength {
			return nil, errors.Wrapf(errors.ErrInput, "recipient %d address size", i)
		}
		raw = append(raw, r...)
	}
	return raw, nil
}

// Unmarshal restores the message from its binary representation.
func (m *DistributeMsg) Unmarshal(raw []byte) error {
	if len(raw) < 4+drip.AddressLength+6 {
		return errors.Wrapf(errors.ErrInput, "distribute message too short: %d bytes", len(raw))
	}
	var meta drip.Metadata
	if err := meta.Unmarshal(raw[:4]); err != nil {
		return errors.Wrap(err, "unmarshal metadata")
	}
	m.Metadata = &meta
	raw = raw[4:]
	m.PoolKey = append(drip.Address(nil), raw[:drip.AddressLength]...)
	raw = raw[drip.AddressLength:]
	m.RegistryVersion = binary.BigEndian.Uint32(raw[:4])
	count := int(binary.BigEndian.Uint16(raw[4:6]))
	raw = raw[6:]
	if len(raw) != count*drip.AddressLength {
		return errors.Wrapf(errors.ErrInput, "%d recipients do not fit %d bytes", count, len(raw))
	}
	m.Recipients = nil
	if count > 0 {
		m.Recipients = make([]drip.Address, count)
		for i := range m.Recipients {
			m.Recipients[i] = append(drip.Address(nil), raw[:drip.AddressLength]...)
			raw = raw[drip.AddressLength:]
		}
	}
	return nil
}

var _ drip.Msg = (*WithdrawMsg)(nil)

// WithdrawMsg moves funds out of the pool vault back to the pool owner.
// Only the pool owner can withdraw. The reward counters keep their values,
// withdrawing does not undo the reward accounting.
type WithdrawMsg struct {
	Metadata *drip.Metadata
	PoolKey  drip.Address
	Amount   coin.Coin
}

func (WithdrawMsg) Path() string {
	return pathWithdrawMsg
}

// GetMetadata returns the schema header.
func (m *WithdrawMsg) GetMetadata() *drip.Metadata {
	return m.Metadata
}

func (m *WithdrawMsg) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", m.Metadata.Validate())
	errs = errors.AppendField(errs, "PoolKey", m.PoolKey.Validate())
	if err := m.Amount.Validate(); err != nil {
		errs = errors.AppendField(errs, "Amount", err)
	} else if !m.Amount.IsPositive() {
		errs = errors.Append(errs, errors.Field("Amount", errors.ErrAmount, "must be positive"))
	}
	return errs
}

// Marshal serializes the message as metadata, pool key, big endian amount
// and the ticker.
func (m *WithdrawMsg) Marshal() ([]byte, error) {
	return marshalPoolAmount(m.Metadata, m.PoolKey, m.Amount)
}

// Unmarshal restores the message from its binary representation.
func (m *WithdrawMsg) Unmarshal(raw []byte) error {
	return unmarshalPoolAmount(raw, &m.Metadata, &m.PoolKey, &m.Amount)
}

// marshalPoolAmount writes the layout the deposit and the withdraw message
// share: metadata, pool key, big endian amount and the ticker.
func marshalPoolAmount(metadata *drip.Metadata, poolKey drip.Address, amount coin.Coin) ([]byte, error) {
	if metadata == nil {
		return nil, errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	meta, err := metadata.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	if len(poolKey) != drip.AddressLength {
		return nil, errors.Wrap(errors.ErrInput, "pool key size")
	}
	raw := make([]byte, 0, len(meta)+drip.AddressLength+8+len(amount.Ticker))
	raw = append(raw, meta...)
	raw = append(raw, poolKey...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], amount.Amount)
	raw = append(raw, buf[:]...)
	return append(raw, amount.Ticker...), nil
}

func unmarshalPoolAmount(raw []byte, metadata **drip.Metadata, poolKey *drip.Address, amount *coin.Coin) error {
	if len(raw) < 4+drip.AddressLength+8 {
		return errors.Wrapf(errors.ErrInput, "message too short: %d bytes", len(raw))
	}
	var meta drip.Metadata
	if err := meta.Unmarshal(raw[:4]); err != nil {
		return errors.Wrap(err, "unmarshal metadata")
	}
	*metadata = &meta
	raw = raw[4:]
	*poolKey = append(drip.Address(nil), raw[:drip.AddressLength]...)
	raw = raw[drip.AddressLength:]
	amount.Amount = binary.BigEndian.Uint64(raw[:8])
	amount.Ticker = string(raw[8:])
	return nil
}
