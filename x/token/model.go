package token

import (
	"encoding/binary"
	"regexp"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/migration"
	"github.com/iov-one/drip/orm"
)

func init() {
	migration.MustRegister(1, &TokenInfo{}, migration.NoModification)
	migration.MustRegister(1, &Holding{}, migration.NoModification)
}

var isTokenName = regexp.MustCompile(`^[A-Za-z0-9 \-_:]{3,32}$`).MatchString

var _ orm.CloneableData = (*TokenInfo)(nil)
var _ migration.Migratable = (*TokenInfo)(nil)

// TokenInfo is the description of a registered token. It is stored using the
// ticker (currency symbol) as the key, so a ticker can be registered only
// once.
type TokenInfo struct {
	Metadata *drip.Metadata
	Name     string
}

// GetMetadata returns the schema header.
func (t *TokenInfo) GetMetadata() *drip.Metadata {
	return t.Metadata
}

func (t *TokenInfo) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", t.Metadata.Validate())
	if !isTokenName(t.Name) {
		errs = errors.Append(errs, errors.Field("Name", errors.ErrInput, "invalid token name %q", t.Name))
	}
	return errs
}

func (t *TokenInfo) Copy() orm.CloneableData {
	return &TokenInfo{
		Metadata: t.Metadata.Copy(),
		Name:     t.Name,
	}
}

// Marshal serializes the token info as metadata and the name.
func (t *TokenInfo) Marshal() ([]byte, error) {
	if t.Metadata == nil {
		return nil, errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	meta, err := t.Metadata.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	return append(meta, t.Name...), nil
}

// Unmarshal restores the token info from its binary representation.
func (t *TokenInfo) Unmarshal(raw []byte) error {
	if len(raw) < 4 {
		return errors.Wrapf(errors.ErrInput, "token info too short: %d bytes", len(raw))
	}
	var meta drip.Metadata
	if err := meta.Unmarshal(raw[:4]); err != nil {
		return errors.Wrap(err, "unmarshal metadata")
	}
	t.Metadata = &meta
	t.Name = string(raw[4:])
	return nil
}

// NewTokenInfo returns a token info as represented by an orm object, keyed by
// the ticker.
func NewTokenInfo(ticker, name string) orm.Object {
	return orm.NewSimpleObj([]byte(ticker), &TokenInfo{
		Metadata: &drip.Metadata{Schema: 1},
		Name:     name,
	})
}

// AsTokenInfo safely extracts a TokenInfo value from the object.
func AsTokenInfo(obj orm.Object) *TokenInfo {
	if obj == nil || obj.Value() == nil {
		return nil
	}
	return obj.Value().(*TokenInfo)
}

// TokenInfoBucket stores TokenInfo instances, using the ticker as the key.
type TokenInfoBucket struct {
	migration.Bucket
}

func NewTokenInfoBucket() TokenInfoBucket {
	return TokenInfoBucket{
		Bucket: migration.NewBucket("token", "tokeninfo", NewTokenInfo("", "")),
	}
}

func (b TokenInfoBucket) Get(db drip.ReadOnlyKVStore, ticker string) (orm.Object, error) {
	return b.Bucket.Get(db, []byte(ticker))
}

func (b TokenInfoBucket) Save(db drip.KVStore, obj orm.Object) error {
	if _, ok := obj.Value().(*TokenInfo); !ok {
		return errors.Wrapf(errors.ErrType, "invalid type: %T", obj.Value())
	}
	if ticker := string(obj.Key()); !coin.IsCC(ticker) {
		return errors.Wrapf(errors.ErrCurrency, "invalid ticker: %s", ticker)
	}
	return b.Bucket.Save(db, obj)
}

var _ orm.CloneableData = (*Holding)(nil)
var _ migration.Migratable = (*Holding)(nil)

// Holding is a single account of a registered token. It is stored under an
// address derived from the owning identity and the ticker, so every owner
// has at most one holding per token. The Owner and Ticker fields repeat the
// derivation input so that a holding loaded by its account address alone
// reveals who owns it and which token it carries.
type Holding struct {
	Metadata *drip.Metadata
	Owner    drip.Address
	Ticker   string
	Balance  uint64
}

// GetMetadata returns the schema header.
func (h *Holding) GetMetadata() *drip.Metadata {
	return h.Metadata
}

func (h *Holding) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", h.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", h.Owner.Validate())
	if !coin.IsCC(h.Ticker) {
		errs = errors.Append(errs, errors.Field("Ticker", errors.ErrCurrency, "invalid ticker: %s", h.Ticker))
	}
	return errs
}

func (h *Holding) Copy() orm.CloneableData {
	return &Holding{
		Metadata: h.Metadata.Copy(),
		Owner:    h.Owner.Clone(),
		Ticker:   h.Ticker,
		Balance:  h.Balance,
	}
}

// Marshal serializes the holding as metadata, owner address, big endian
// balance and the ticker string.
func (h *Holding) Marshal() ([]byte, error) {
	if h.Metadata == nil {
		return nil, errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	meta, err := h.Metadata.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	if len(h.Owner) != drip.AddressLength {
		return nil, errors.Wrap(errors.ErrInput, "owner address size")
	}
	raw := make([]byte, 0, len(meta)+drip.AddressLength+8+len(h.Ticker))
	raw = append(raw, meta...)
	raw = append(raw, h.Owner...)
	var balance [8]byte
	binary.BigEndian.PutUint64(balance[:], h.Balance)
	raw = append(raw, balance[:]...)
	return append(raw, h.Ticker...), nil
}

// Unmarshal restores the holding from its binary representation.
func (h *Holding) Unmarshal(raw []byte) error {
	if len(raw) < 4+drip.AddressLength+8 {
		return errors.Wrapf(errors.ErrInput, "holding too short: %d bytes", len(raw))
	}
	var meta drip.Metadata
	if err := meta.Unmarshal(raw[:4]); err != nil {
		return errors.Wrap(err, "unmarshal metadata")
	}
	h.Metadata = &meta
	raw = raw[4:]
	h.Owner = append(drip.Address(nil), raw[:drip.AddressLength]...)
	raw = raw[drip.AddressLength:]
	h.Balance = binary.BigEndian.Uint64(raw[:8])
	h.Ticker = string(raw[8:])
	return nil
}

// HoldingAccount returns the address of the holding account that keeps the
// given ticker for the given owner. The address is derived, no key can sign
// for it directly.
func HoldingAccount(owner drip.Address, ticker string) drip.Address {
	return drip.NewCondition("token", "holding", append(owner.Clone(), ticker...)).Address()
}

// NewHolding returns an empty holding object for the given owner and ticker,
// keyed by the derived holding account address.
func NewHolding(owner drip.Address, ticker string) orm.Object {
	return orm.NewSimpleObj(HoldingAccount(owner, ticker), &Holding{
		Metadata: &drip.Metadata{Schema: 1},
		Owner:    owner,
		Ticker:   ticker,
	})
}

// AsHolding safely extracts a Holding value from the object.
func AsHolding(obj orm.Object) *Holding {
	if obj == nil || obj.Value() == nil {
		return nil
	}
	return obj.Value().(*Holding)
}

// HoldingBucket stores token holdings keyed by the derived account address.
type HoldingBucket struct {
	migration.Bucket
}

func NewHoldingBucket() HoldingBucket {
	return HoldingBucket{
		Bucket: migration.NewBucket("token", "holding", orm.NewSimpleObj(nil, &Holding{})),
	}
}
