package drip

import (
	"bytes"
	"encoding/json"

	abci "github.com/tendermint/tendermint/abci/types"

	"github.com/iov-one/drip/errors"
)

// Options are the app options
// Each extension can look up it's key and parse the json as desired
type Options map[string]json.RawMessage

// ReadOptions reads the values stored under a given key,
// and parses the json into the given obj.
// Returns an error if it cannot parse.
// Noop and no error if key is missing
func (o Options) ReadOptions(key string, obj interface{}) error {
	msg := o[key]
	if len(msg) == 0 {
		return nil
	}
	if err := json.Unmarshal(msg, obj); err != nil {
		return errors.Wrapf(errors.ErrInput, "read options %q: %s", key, err)
	}
	return nil
}

// Stream expects an array of json elements under the given key and returns
// a function that parses them one at a time. Each call parses the next
// element into the given obj. When the collection is exhausted
// errors.ErrIteratorDone is returned.
func (o Options) Stream(key string) func(obj interface{}) error {
	var dec *json.Decoder
	return func(obj interface{}) error {
		if dec == nil {
			dec = json.NewDecoder(bytes.NewReader(o[key]))
			if _, err := dec.Token(); err != nil {
				return errors.Wrapf(errors.ErrInput, "stream %q: open: %s", key, err)
			}
		}
		if !dec.More() {
			if _, err := dec.Token(); err != nil {
				return errors.Wrapf(errors.ErrInput, "stream %q: close: %s", key, err)
			}
			return errors.ErrIteratorDone
		}
		if err := dec.Decode(obj); err != nil {
			return errors.Wrapf(errors.ErrInput, "stream %q: %s", key, err)
		}
		return nil
	}
}

// GenesisParams represents parameters set in genesis that could be useful
// for some of the extensions.
type GenesisParams struct {
	Validators []abci.ValidatorUpdate
}

// FromInitChain initialises GenesisParams from abci.RequestInitChain data.
func FromInitChain(req abci.RequestInitChain) GenesisParams {
	return GenesisParams{
		Validators: req.Validators,
	}
}

// Initializer implementations are used to initialize
// extensions from genesis file contents
type Initializer interface {
	FromGenesis(Options, GenesisParams, KVStore) error
}
