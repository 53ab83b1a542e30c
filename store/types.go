//nolint
package store

import "github.com/iov-one/drip"

// Move references for all storage types into this package
// for shorter names everywhere

type ReadOnlyKVStore = drip.ReadOnlyKVStore
type KVStore = drip.KVStore
type SetDeleter = drip.SetDeleter
type Batch = drip.Batch
type Iterator = drip.Iterator
type CacheableKVStore = drip.CacheableKVStore
type KVCacheWrap = drip.KVCacheWrap
type CommitKVStore = drip.CommitKVStore
type CommitID = drip.CommitID
type Model = drip.Model

// Pair is a shortcut to create a Model
var Pair = drip.Pair
