package cash

import (
	"encoding/binary"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/migration"
	"github.com/iov-one/drip/orm"
)

func init() {
	migration.MustRegister(1, &Wallet{}, migration.NoModification)
}

// BucketName is where we store the balances
const BucketName = "cash"

var _ orm.CloneableData = (*Wallet)(nil)
var _ migration.Migratable = (*Wallet)(nil)

// Wallet is the native coin balance of a single account. The chain uses one
// native currency, so a wallet holds a single coin. An account without a
// wallet stored holds nothing.
type Wallet struct {
	Metadata *drip.Metadata
	Coin     coin.Coin
}

// GetMetadata returns the schema header.
func (w *Wallet) GetMetadata() *drip.Metadata {
	return w.Metadata
}

// Validate ensures this wallet can be stored.
func (w *Wallet) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", w.Metadata.Validate())
	if w.Coin.Ticker != "" || !w.Coin.IsZero() {
		errs = errors.AppendField(errs, "Coin", w.Coin.Validate())
	}
	return errs
}

// Copy makes a new wallet with the same coin.
func (w *Wallet) Copy() orm.CloneableData {
	return &Wallet{
		Metadata: w.Metadata.Copy(),
		Coin:     w.Coin,
	}
}

// Marshal serializes the wallet as metadata, big endian amount and the
// ticker string.
func (w *Wallet) Marshal() ([]byte, error) {
	if w.Metadata == nil {
		return nil, errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	meta, err := w.Metadata.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	raw := make([]byte, len(meta)+8, len(meta)+8+len(w.Coin.Ticker))
	copy(raw, meta)
	binary.BigEndian.PutUint64(raw[len(meta):], w.Coin.Amount)
	return append(raw, w.Coin.Ticker...), nil
}

// Unmarshal restores the wallet from its binary representation.
func (w *Wallet) Unmarshal(raw []byte) error {
	if len(raw) < 12 {
		return errors.Wrapf(errors.ErrInput, "wallet content too short: %d bytes", len(raw))
	}
	var meta drip.Metadata
	if err := meta.Unmarshal(raw[:4]); err != nil {
		return errors.Wrap(err, "unmarshal metadata")
	}
	w.Metadata = &meta
	w.Coin = coin.Coin{
		Amount: binary.BigEndian.Uint64(raw[4:12]),
		Ticker: string(raw[12:]),
	}
	return nil
}

// AsWallet safely extracts a Wallet value from the object
func AsWallet(obj orm.Object) *Wallet {
	if obj == nil || obj.Value() == nil {
		return nil
	}
	return obj.Value().(*Wallet)
}

// NewWallet constructs an empty wallet object with the given key
func NewWallet(key drip.Address) orm.Object {
	return orm.NewSimpleObj(key, &Wallet{
		Metadata: &drip.Metadata{Schema: 1},
	})
}

// WalletWith constructs a wallet object with the given funds
func WalletWith(key drip.Address, c coin.Coin) orm.Object {
	return orm.NewSimpleObj(key, &Wallet{
		Metadata: &drip.Metadata{Schema: 1},
		Coin:     c,
	})
}

//--- cash.Bucket - type-safe bucket

// Bucket is a type-safe wrapper around the schema aware bucket
type Bucket struct {
	migration.Bucket
}

// NewBucket initializes a cash.Bucket with default name
func NewBucket() Bucket {
	return Bucket{
		Bucket: migration.NewBucket("cash", BucketName, NewWallet(nil)),
	}
}

// GetOrCreate returns the wallet for the given address, creating an empty
// one in memory if none is stored yet.
func (b Bucket) GetOrCreate(db drip.KVStore, key drip.Address) (orm.Object, error) {
	obj, err := b.Get(db, key)
	if err == nil && obj == nil {
		obj = NewWallet(key)
	}
	return obj, err
}
