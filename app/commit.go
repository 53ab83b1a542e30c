package app

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
)

// CommitStore handles loading from a KVCommitStore, maintaining different
// CacheWraps for Deliver and Check, and returning useful state info.
type CommitStore struct {
	committed drip.CommitKVStore
	deliver   drip.KVCacheWrap
	check     drip.KVCacheWrap
}

// NewCommitStore loads the CommitKVStore from disk or panics. It sets up the
// deliver and check caches.
func NewCommitStore(store drip.CommitKVStore) *CommitStore {
	err := store.LoadLatestVersion()
	if err != nil {
		panic(err)
	}
	return &CommitStore{
		committed: store,
		deliver:   store.CacheWrap(),
		check:     store.CacheWrap(),
	}
}

// CommitInfo returns the current height and hash
func (cs *CommitStore) CommitInfo() (drip.CommitID, error) {
	return cs.committed.LatestVersion()
}

// Commit will flush deliver to the underlying store and commit it
// to disk. It then regenerates new deliver/check caches
//
// TODO: this should probably be protected by a mutex....
// need to think what concurrency we expect
func (cs *CommitStore) Commit() (drip.CommitID, error) {
	// flush deliver to store and discard check
	if err := cs.deliver.Write(); err != nil {
		return drip.CommitID{}, err
	}
	cs.check.Discard()

	// write the store to disk
	res, err := cs.committed.Commit()
	if err != nil {
		return res, err
	}

	// set up new caches
	cs.deliver = cs.committed.CacheWrap()
	cs.check = cs.committed.CacheWrap()
	return res, nil
}

// CheckStore returns a store implementation that must be used during the
// checking phase.
func (cs *CommitStore) CheckStore() drip.CacheableKVStore {
	return cs.check
}

// DeliverStore returns a store implementation that must be used during the
// delivery phase.
func (cs *CommitStore) DeliverStore() drip.CacheableKVStore {
	return cs.deliver
}

var chainIDKey = []byte("_wv:chainID")

// loadChainID returns the chain id stored if any
func loadChainID(kv drip.KVStore) (string, error) {
	v, err := kv.Get(chainIDKey)
	if err != nil {
		return "", errors.Wrap(err, "cannot load chain ID")
	}
	return string(v), nil
}

// mustLoadChainID returns the chain id stored if any, panics on db errors
func mustLoadChainID(kv drip.KVStore) string {
	chainID, err := loadChainID(kv)
	if err != nil {
		panic(err)
	}
	return chainID
}

// saveChainID stores a chain id in the kv store.
// Returns error if already set, or invalid name
func saveChainID(kv drip.KVStore, chainID string) error {
	if !drip.IsValidChainID(chainID) {
		return errors.Wrapf(errors.ErrInput, "chain id: %v", chainID)
	}
	cleared, err := isEmpty(kv, chainIDKey)
	if err != nil {
		return err
	}
	if !cleared {
		return errors.Wrap(errors.ErrUnauthorized, "chain ID already set and cannot be overwritten")
	}
	err = kv.Set(chainIDKey, []byte(chainID))
	if err != nil {
		return errors.Wrap(err, "cannot save chain ID")
	}
	return nil
}

func isEmpty(kv drip.KVStore, key []byte) (bool, error) {
	ok, err := kv.Has(key)
	if err != nil {
		return false, errors.Wrapf(err, "cannot check %q existence", key)
	}
	return !ok, nil
}
