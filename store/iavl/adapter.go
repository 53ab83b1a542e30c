package iavl

import (
	"github.com/tendermint/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"

	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/store"
)

const (
	// defaultCacheSize is the number of inner nodes the tree keeps in memory
	defaultCacheSize = 10000
	// defaultHistory is the number of old versions kept on disk
	defaultHistory = 20
)

// CommitStore manages a iavl committed state
type CommitStore struct {
	numHistory int64
	tree       *iavl.MutableTree
}

var _ store.CommitKVStore = CommitStore{}

// NewCommitStore creates a new store backed by the given database
func NewCommitStore(db dbm.DB) CommitStore {
	tree := iavl.NewMutableTree(db, defaultCacheSize)
	return CommitStore{
		tree:       tree,
		numHistory: defaultHistory,
	}
}

// NewCommitStoreFromTree wraps an already loaded working tree. Used by
// debug tooling that rolls a tree back before replaying a block.
func NewCommitStoreFromTree(tree *iavl.MutableTree) CommitStore {
	return CommitStore{
		tree:       tree,
		numHistory: defaultHistory,
	}
}

// MockCommitStore returns a store backed by an in-memory database, useful
// for tests
func MockCommitStore() CommitStore {
	return NewCommitStore(dbm.NewMemDB())
}

// Get returns the value at last committed state
// returns nil iff key doesn't exist. Errors on nil key.
func (s CommitStore) Get(key []byte) ([]byte, error) {
	if key == nil {
		return nil, errors.Wrap(errors.ErrDatabase, "nil key")
	}
	_, value := s.tree.GetVersioned(key, s.tree.Version())
	return value, nil
}

// Adapter returns the working tree as a cacheable kv store
func (s CommitStore) Adapter() store.CacheableKVStore {
	return treeState{tree: s.tree}
}

// CacheWrap gives us a savepoint to perform actions on the working state
func (s CommitStore) CacheWrap() store.KVCacheWrap {
	return s.Adapter().CacheWrap()
}

// Commit saves the next version to disk, and returns info
func (s CommitStore) Commit() (store.CommitID, error) {
	hash, version, err := s.tree.SaveVersion()
	if err != nil {
		return store.CommitID{}, errors.Wrap(errors.ErrDatabase, err.Error())
	}

	// release an old version of data
	if s.numHistory > 0 && s.numHistory < version {
		last := version - s.numHistory
		// the version may have been removed on an earlier commit
		_ = s.tree.DeleteVersion(last)
	}

	return store.CommitID{
		Version: version,
		Hash:    hash,
	}, nil
}

// LoadLatestVersion loads the latest persisted version.
// If there was a crash during the last commit, it is guaranteed
// to return a stable state, even if older.
func (s CommitStore) LoadLatestVersion() error {
	if _, err := s.tree.Load(); err != nil {
		return errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return nil
}

// LatestVersion returns info on the latest version saved to disk
func (s CommitStore) LatestVersion() (store.CommitID, error) {
	return store.CommitID{
		Version: s.tree.Version(),
		Hash:    s.tree.Hash(),
	}, nil
}

// treeState exposes the working tree as a mutable kv store
type treeState struct {
	tree *iavl.MutableTree
}

var _ store.CacheableKVStore = treeState{}

// Get returns the value stored under the key in the working tree
func (t treeState) Get(key []byte) ([]byte, error) {
	_, value := t.tree.Get(key)
	return value, nil
}

// Has returns true if the key is present in the working tree
func (t treeState) Has(key []byte) (bool, error) {
	return t.tree.Has(key), nil
}

// Set updates the working tree
func (t treeState) Set(key, value []byte) error {
	t.tree.Set(key, value)
	return nil
}

// Delete removes the key from the working tree
func (t treeState) Delete(key []byte) error {
	t.tree.Remove(key)
	return nil
}

// NewBatch collects write operations to apply to the working tree at once
func (t treeState) NewBatch() store.Batch {
	return store.NewNonAtomicBatch(t)
}

// CacheWrap layers a cache on the working tree so changes can be
// written or discarded as one
func (t treeState) CacheWrap() store.KVCacheWrap {
	return store.NewBTreeCacheWrap(t, t.NewBatch(), nil)
}

// Iterator over a domain of keys in ascending order. End is exclusive.
func (t treeState) Iterator(start, end []byte) (store.Iterator, error) {
	iter := newLazyIterator()
	go func() {
		t.tree.IterateRange(start, end, true, iter.add)
		iter.finish()
	}()
	return iter, nil
}

// ReverseIterator over a domain of keys in descending order. End is exclusive.
func (t treeState) ReverseIterator(start, end []byte) (store.Iterator, error) {
	iter := newLazyIterator()
	go func() {
		t.tree.IterateRange(start, end, false, iter.add)
		iter.finish()
	}()
	return iter, nil
}
