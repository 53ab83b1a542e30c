package driptest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/app"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/store"
	abci "github.com/tendermint/tendermint/abci/types"
)

// Tester is implemented by both *testing.T and *testing.B. Use it instead of
// the pointer type to allow notation to accept both objects.
type Tester interface {
	Helper()
	Errorf(string, ...interface{})
	Fatalf(string, ...interface{})
	Logf(string, ...interface{})
}

// DripRunner provides a translation layer between an ABCI interface and a
// drip application. It takes care of serializing messages and creating
// blocks.
type DripRunner struct {
	chainID string
	height  int64
	t       Tester
	app     abci.Application
}

// NewDripRunner creates a DripRunner instance that can be used to process
// deliver and check transaction requests using the drip API. This runner
// expects all operations to succeed. Any error results in test failure.
func NewDripRunner(t Tester, app abci.Application, chainID string) *DripRunner {
	return &DripRunner{
		chainID: chainID,
		height:  0,
		t:       t,
		app:     app,
	}
}

// DripApp is implemented by a drip application. This is the minimal
// interface required by the DripRunner to be able to connect ABCI and drip
// APIs together.
type DripApp interface {
	DeliverTx(drip.Tx) error
	CheckTx(drip.Tx) error
	// we also allow standard queries... wrap into a bucket for ease of use
	drip.ReadOnlyKVStore
}

var _ DripApp = (*DripRunner)(nil)

// InitChain serializes to JSON the given genesis and loads it. Loading a
// genesis is causing a block creation.
func (w *DripRunner) InitChain(genesis interface{}) {
	raw, err := json.MarshalIndent(genesis, "", "  ")
	if err != nil {
		w.t.Fatalf("cannot JSON serialize genesis: %s", err)
	}

	// Load the genesis in a separate block.
	changed := w.InBlock(func(DripApp) error {
		w.app.InitChain(abci.RequestInitChain{
			Time:          time.Now(),
			ChainId:       w.chainID,
			AppStateBytes: raw,
		})
		return nil
	})

	if !changed {
		w.t.Fatalf("genesis did not change the state")
	}
}

// CheckTx translates given drip transaction into ABCI interface and executes.
func (w *DripRunner) CheckTx(tx drip.Tx) error {
	raw, err := tx.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot marshal transaction")
	}
	if resp := w.app.CheckTx(raw); resp.Code != 0 {
		return fmt.Errorf("%d: %s", resp.Code, resp.Log)
	}
	return nil
}

// DeliverTx translates given drip transaction into ABCI interface and
// executes.
func (w *DripRunner) DeliverTx(tx drip.Tx) error {
	raw, err := tx.Marshal()
	if err != nil {
		return errors.Wrap(err, "cannot marshal transaction")
	}
	if resp := w.app.DeliverTx(raw); resp.Code != 0 {
		return fmt.Errorf("%d: %s", resp.Code, resp.Log)
	}
	return nil
}

// InBlock begins a block and runs given function. All transactions executed
// within given function are part of the newly created block. Upon success the
// block is finished and changes committed.
// InBlock returns true if the application state was modified.
//
// Any failure is ending the test instantly.
func (w *DripRunner) InBlock(executeTx func(DripApp) error) bool {
	w.t.Helper()

	w.height++

	initialHash := w.app.Info(abci.RequestInfo{}).LastBlockAppHash

	// BeginBlock will panic on error.
	w.app.BeginBlock(abci.RequestBeginBlock{
		Header: abci.Header{
			ChainID: w.chainID,
			Height:  w.height,
		},
	})

	if err := executeTx(w); err != nil {
		w.t.Fatalf("operation failed with %+v", err)
	}

	w.app.EndBlock(abci.RequestEndBlock{
		Height: w.height,
	})

	// Commit data contains the new app hash. It differs from the initial
	// hash only if the state was modified.
	finalHash := w.app.Commit().Data
	return !bytes.Equal(initialHash, finalHash)
}

var _ drip.ReadOnlyKVStore = (*DripRunner)(nil)

func (w *DripRunner) Get(key []byte) ([]byte, error) {
	query := w.app.Query(abci.RequestQuery{
		Path: "/",
		Data: key,
	})
	if query.Code != 0 {
		return nil, errors.Wrapf(errors.ErrDatabase, "query failed: %s", query.Log)
	}
	var value app.ResultSet
	if err := value.Unmarshal(query.Value); err != nil {
		return nil, errors.Wrap(err, "cannot parse values")
	}

	if len(value.Results) == 0 {
		return nil, nil
	}
	return value.Results[0], nil
}

func (w *DripRunner) Has(key []byte) (bool, error) {
	value, err := w.Get(key)
	if err != nil {
		return false, err
	}
	return len(value) > 0, nil
}

func (w *DripRunner) Iterator(start, end []byte) (drip.Iterator, error) {
	// While ABCI queries support only the prefix mode, the whole range is
	// the only iteration this runner can serve.
	if start != nil || end != nil {
		return nil, errors.Wrap(errors.ErrHuman, "iterator only implemented for the entire range")
	}

	query := w.app.Query(abci.RequestQuery{
		Path: "/?prefix",
		Data: nil,
	})
	if query.Code != 0 {
		return nil, errors.Wrapf(errors.ErrDatabase, "query failed: %s", query.Log)
	}
	models, err := toModels(query.Key, query.Value)
	if err != nil {
		return nil, errors.Wrap(err, "cannot parse values")
	}

	return store.NewSliceIterator(models), nil
}

func (w *DripRunner) ReverseIterator(start, end []byte) (drip.Iterator, error) {
	return nil, errors.Wrap(errors.ErrHuman, "reverse iteration not implemented")
}

func toModels(keys []byte, values []byte) ([]drip.Model, error) {
	var k, v app.ResultSet
	if err := k.Unmarshal(keys); err != nil {
		return nil, errors.Wrap(err, "cannot parse keys")
	}
	if err := v.Unmarshal(values); err != nil {
		return nil, errors.Wrap(err, "cannot parse values")
	}
	return app.JoinResults(&k, &v)
}
