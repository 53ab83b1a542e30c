package driptest

import (
	"io/ioutil"
	"os"
	"testing"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/store/iavl"
	dbm "github.com/tendermint/tendermint/libs/db"
)

// CommitKVStore returns a store instance that is using a filesystem backend
// engine to store the data.
// This implementation should be used instead of MemStore when you want the
// exact same storage implementation as the production instance is using.
func CommitKVStore(t testing.TB) (db drip.CommitKVStore, cleanup func()) {
	dbpath, err := ioutil.TempDir("", "driptest")
	if err != nil {
		t.Fatalf("cannot create a temporary directory: %s", err)
	}

	db = iavl.NewCommitStore(dbm.NewDB("db", dbm.GoLevelDBBackend, dbpath))
	return db, func() { os.RemoveAll(dbpath) }
}
