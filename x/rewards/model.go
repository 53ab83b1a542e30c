package rewards

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/migration"
	"github.com/iov-one/drip/orm"
	"github.com/iov-one/drip/x/token"
)

func init() {
	migration.MustRegister(1, &Pool{}, migration.NoModification)
}

// Policy determines how a distribution pass splits the vault balance between
// the registered top holders.
type Policy byte

const (
	// EqualSplit pays every registry entry the same amount.
	EqualSplit Policy = 1
	// ProportionalSplit weights every payout by the reported balance.
	ProportionalSplit Policy = 2
)

const (
	equalSplitCapacity        = 20
	proportionalSplitCapacity = 10
)

// Capacity returns the maximum number of registry entries a pool using this
// policy can hold. An unknown policy has no capacity.
func (p Policy) Capacity() int {
	switch p {
	case EqualSplit:
		return equalSplitCapacity
	case ProportionalSplit:
		return proportionalSplitCapacity
	}
	return 0
}

func (p Policy) Validate() error {
	if p.Capacity() == 0 {
		return errors.Wrapf(errors.ErrInput, "unknown policy %d", byte(p))
	}
	return nil
}

func (p Policy) String() string {
	switch p {
	case EqualSplit:
		return "equal"
	case ProportionalSplit:
		return "proportional"
	}
	return fmt.Sprintf("invalid(%d)", byte(p))
}

// MarshalJSON writes the policy name so that genesis declarations stay
// readable.
func (p Policy) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Policy) UnmarshalJSON(raw []byte) error {
	var name string
	if err := json.Unmarshal(raw, &name); err != nil {
		return err
	}
	switch name {
	case "equal":
		*p = EqualSplit
	case "proportional":
		*p = ProportionalSplit
	default:
		return errors.Wrapf(errors.ErrInput, "unknown policy %q", name)
	}
	return nil
}

// TopHolder is a single registry entry: a holder address together with the
// balance reported for it. The balance is a caller supplied snapshot and is
// never checked against the actual chain state.
type TopHolder struct {
	Address drip.Address
	Balance uint64
}

var _ orm.CloneableData = (*Pool)(nil)
var _ migration.Migratable = (*Pool)(nil)

// Pool is a reward pool: an owner curated registry of top holders together
// with the bookkeeping of the funds escrowed for them. The record is stored
// under the pool address derived from the policy, the ticker and the pool
// bump. A pool with an empty ticker pays out the chain's own coin, any other
// pool pays out the registered token named by the ticker.
type Pool struct {
	Metadata         *drip.Metadata
	Owner            drip.Address
	Ticker           string
	Policy           Policy
	AutoDistribute   bool
	PoolBump         byte
	VaultBump        byte
	TotalRewards     uint64
	TotalDistributed uint64
	RegistryVersion  uint32
	Holders          []TopHolder
}

// GetMetadata returns the schema header.
func (p *Pool) GetMetadata() *drip.Metadata {
	return p.Metadata
}

func (p *Pool) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", p.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", p.Owner.Validate())
	if p.Ticker != "" && !coin.IsCC(p.Ticker) {
		errs = errors.Append(errs, errors.Field("Ticker", errors.ErrCurrency, "invalid ticker: %s", p.Ticker))
	}
	if err := p.Policy.Validate(); err != nil {
		errs = errors.AppendField(errs, "Policy", err)
	} else if len(p.Holders) > p.Policy.Capacity() {
		errs = errors.Append(errs, errors.Field("Holders", ErrTooManyHolders, "%d entries, capacity %d", len(p.Holders), p.Policy.Capacity()))
	}
	if err := validateHolders(p.Holders, errors.ErrModel); err != nil {
		errs = errors.AppendField(errs, "Holders", err)
	} else if !sortedHolders(p.Holders) {
		errs = errors.Append(errs, errors.Field("Holders", errors.ErrModel, "registry entries out of order"))
	}
	if p.RegistryVersion == 0 {
		errs = errors.Append(errs, errors.Field("RegistryVersion", errors.ErrModel, "must not be zero"))
	}
	if p.TotalDistributed > p.TotalRewards {
		errs = errors.Append(errs, errors.Field("TotalDistributed", errors.ErrModel, "greater than total rewards"))
	}
	return errs
}

// validateHolders returns an error when the given registry entries cannot be
// used. Both the message and the model validation rely on it, each reporting
// a different error class.
func validateHolders(hs []TopHolder, baseErr *errors.Error) error {
	// A holder address must not repeat. A duplicate entry would simply
	// collect twice, but unique addresses keep a registry readable.
	addresses := make(map[string]struct{}, len(hs))

	for i, h := range hs {
		if err := h.Address.Validate(); err != nil {
			return errors.Wrapf(err, "holder %d address", i)
		}
		addr := h.Address.String()
		if _, ok := addresses[addr]; ok {
			return errors.Wrapf(baseErr, "holder address %q is not unique", addr)
		}
		addresses[addr] = struct{}{}
	}
	return nil
}

// sortedHolders returns true when the registry keeps the documented order:
// balances descending, ties broken by address bytes ascending.
func sortedHolders(hs []TopHolder) bool {
	for i := 1; i < len(hs); i++ {
		if !holderLess(hs[i-1], hs[i]) {
			return false
		}
	}
	return true
}

// holderLess returns true when entry a must be ordered before entry b.
func holderLess(a, b TopHolder) bool {
	if a.Balance != b.Balance {
		return a.Balance > b.Balance
	}
	return bytes.Compare(a.Address, b.Address) < 0
}

// IsNative returns true when the pool pays out the chain's own coin rather
// than a registered token.
func (p *Pool) IsNative() bool {
	return p.Ticker == ""
}

// Vault returns the address controlling the pool funds. For a native pool
// this is also the wallet the funds sit in. Token pool funds sit in the
// holding account returned by VaultHolding.
func (p *Pool) Vault() drip.Address {
	return VaultAccount(p.Policy, p.Ticker, p.VaultBump)
}

// VaultHolding returns the holding account keeping the funds of a token
// pool.
func (p *Pool) VaultHolding() drip.Address {
	return token.HoldingAccount(p.Vault(), p.Ticker)
}

func (p *Pool) Copy() orm.CloneableData {
	cpy := &Pool{
		Metadata:         p.Metadata.Copy(),
		Owner:            p.Owner.Clone(),
		Ticker:           p.Ticker,
		Policy:           p.Policy,
		AutoDistribute:   p.AutoDistribute,
		PoolBump:         p.PoolBump,
		VaultBump:        p.VaultBump,
		TotalRewards:     p.TotalRewards,
		TotalDistributed: p.TotalDistributed,
		RegistryVersion:  p.RegistryVersion,
		Holders:          make([]TopHolder, len(p.Holders)),
	}
	for i, h := range p.Holders {
		cpy.Holders[i] = TopHolder{
			Address: h.Address.Clone(),
			Balance: h.Balance,
		}
	}
	return cpy
}

const (
	tickerSlotSize = 4
	holderSlotSize = drip.AddressLength + 8
	poolHeaderSize = 4 + 4 + tickerSlotSize + drip.AddressLength + 8 + 8 + 4 + 2
)

// poolSize returns the serialized size of a pool record. All registry slots
// are reserved up front, so records of pools sharing a policy are equally
// big no matter how full the registry is.
func poolSize(capacity int) int {
	return poolHeaderSize + capacity*holderSlotSize
}

// Marshal serializes the pool as a fixed layout record: metadata, policy,
// auto distribute flag, both bumps, the zero padded ticker, the owner, both
// counters, the registry version and the registry slots padded out to the
// full policy capacity.
func (p *Pool) Marshal() ([]byte, error) {
	if p.Metadata == nil {
		return nil, errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	meta, err := p.Metadata.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	capacity := p.Policy.Capacity()
	if capacity == 0 {
		return nil, errors.Wrapf(errors.ErrInput, "unknown policy %d", byte(p.Policy))
	}
	if len(p.Holders) > capacity {
		return nil, errors.Wrapf(errors.ErrInput, "%d registry entries, capacity %d", len(p.Holders), capacity)
	}
	if len(p.Owner) != drip.AddressLength {
		return nil, errors.Wrap(errors.ErrInput, "owner address size")
	}
	if len(p.Ticker) > tickerSlotSize {
		return nil, errors.Wrapf(errors.ErrInput, "ticker %q too long", p.Ticker)
	}

	raw := make([]byte, 0, poolSize(capacity))
	raw = append(raw, meta...)
	var auto byte
	if p.AutoDistribute {
		auto = 1
	}
	raw = append(raw, byte(p.Policy), auto, p.PoolBump, p.VaultBump)
	var ticker [tickerSlotSize]byte
	copy(ticker[:], p.Ticker)
	raw = append(raw, ticker[:]...)
	raw = append(raw, p.Owner...)
	var buf [8]byte
	binary.BigEndian.PutUint64(buf[:], p.TotalRewards)
	raw = append(raw, buf[:]...)
	binary.BigEndian.PutUint64(buf[:], p.TotalDistributed)
	raw = append(raw, buf[:]...)
	binary.BigEndian.PutUint32(buf[:4], p.RegistryVersion)
	raw = append(raw, buf[:4]...)
	binary.BigEndian.PutUint16(buf[:2], uint16(len(p.Holders)))
	raw = append(raw, buf[:2]...)
	raw, err = appendHolders(raw, p.Holders)
	if err != nil {
		return nil, err
	}
	return append(raw, make([]byte, (capacity-len(p.Holders))*holderSlotSize)...), nil
}

// Unmarshal restores the pool from its binary representation.
func (p *Pool) Unmarshal(raw []byte) error {
	if len(raw) < poolHeaderSize {
		return errors.Wrapf(errors.ErrInput, "pool too short: %d bytes", len(raw))
	}
	var meta drip.Metadata
	if err := meta.Unmarshal(raw[:4]); err != nil {
		return errors.Wrap(err, "unmarshal metadata")
	}
	p.Metadata = &meta
	raw = raw[4:]
	p.Policy = Policy(raw[0])
	p.AutoDistribute = raw[1] == 1
	p.PoolBump = raw[2]
	p.VaultBump = raw[3]
	raw = raw[4:]
	p.Ticker = string(bytes.TrimRight(raw[:tickerSlotSize], "\x00"))
	raw = raw[tickerSlotSize:]
	p.Owner = append(drip.Address(nil), raw[:drip.AddressLength]...)
	raw = raw[drip.AddressLength:]
	p.TotalRewards = binary.BigEndian.Uint64(raw[:8])
	p.TotalDistributed = binary.BigEndian.Uint64(raw[8:16])
	p.RegistryVersion = binary.BigEndian.Uint32(raw[16:20])
	count := int(binary.BigEndian.Uint16(raw[20:22]))
	raw = raw[22:]

	capacity := p.Policy.Capacity()
	if capacity == 0 {
		return errors.Wrapf(errors.ErrInput, "unknown policy %d", byte(p.Policy))
	}
	if count > capacity {
		return errors.Wrapf(errors.ErrInput, "%d registry entries, capacity %d", count, capacity)
	}
	if len(raw) != capacity*holderSlotSize {
		return errors.Wrapf(errors.ErrInput, "pool record size mismatch: %d trailing bytes", len(raw))
	}
	holders, _, err := parseHolders(raw, count)
	if err != nil {
		return err
	}
	p.Holders = holders
	return nil
}

// appendHolders writes registry entries as fixed size address and balance
// slots.
func appendHolders(raw []byte, hs []TopHolder) ([]byte, error) {
	var buf [8]byte
	for i, h := range hs {
		if len(h.Address) != drip.AddressLength {
			return nil, errors.Wrapf(errors.ErrInput, "holder %d address size", i)
		}
		raw = append(raw, h.Address...)
		binary.BigEndian.PutUint64(buf[:], h.Balance)
		raw = append(raw, buf[:]...)
	}
	return raw, nil
}

// parseHolders reads n fixed size registry slots and returns the remaining
// bytes.
func parseHolders(raw []byte, n int) ([]TopHolder, []byte, error) {
	if len(raw) < n*holderSlotSize {
		return nil, nil, errors.Wrapf(errors.ErrInput, "%d registry entries do not fit %d bytes", n, len(raw))
	}
	if n == 0 {
		return nil, raw, nil
	}
	hs := make([]TopHolder, n)
	for i := range hs {
		hs[i] = TopHolder{
			Address: append(drip.Address(nil), raw[:drip.AddressLength]...),
			Balance: binary.BigEndian.Uint64(raw[drip.AddressLength:holderSlotSize]),
		}
		raw = raw[holderSlotSize:]
	}
	return hs, raw, nil
}

// poolSeed is the condition data both derived pool addresses are built from:
// the policy byte, the ticker and a bump byte.
func poolSeed(policy Policy, ticker string, bump byte) []byte {
	seed := make([]byte, 0, 2+len(ticker))
	seed = append(seed, byte(policy))
	seed = append(seed, ticker...)
	return append(seed, bump)
}

// PoolAccount returns the address a pool record is stored under.
func PoolAccount(policy Policy, ticker string, bump byte) drip.Address {
	return drip.NewCondition("rewards", "pool", poolSeed(policy, ticker, bump)).Address()
}

// VaultAccount returns the address controlling the funds of a pool. It is
// derived, no key can sign for it.
func VaultAccount(policy Policy, ticker string, bump byte) drip.Address {
	return drip.NewCondition("rewards", "vault", poolSeed(policy, ticker, bump)).Address()
}

// AsPool safely extracts a Pool value from the object.
func AsPool(obj orm.Object) *Pool {
	if obj == nil || obj.Value() == nil {
		return nil
	}
	return obj.Value().(*Pool)
}

// PoolBucket stores reward pools under their derived pool address.
type PoolBucket struct {
	migration.Bucket
}

func NewPoolBucket() PoolBucket {
	return PoolBucket{
		Bucket: migration.NewBucket("rewards", "pool", orm.NewSimpleObj(nil, &Pool{})),
	}
}

// GetPool loads the pool stored under the given key. A missing pool is
// reported as errors.ErrNotFound.
func (b PoolBucket) GetPool(db drip.ReadOnlyKVStore, key drip.Address) (*Pool, error) {
	obj, err := b.Get(db, key)
	if err != nil {
		return nil, err
	}
	if obj == nil || obj.Value() == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no pool at %s", key)
	}
	return AsPool(obj), nil
}

func (b PoolBucket) Save(db drip.KVStore, obj orm.Object) error {
	if _, ok := obj.Value().(*Pool); !ok {
		return errors.Wrapf(errors.ErrType, "invalid type: %T", obj.Value())
	}
	return b.Bucket.Save(db, obj)
}
