package app

import (
	"github.com/iov-one/drip"
)

// ChainInitializers lets you initialize many extensions with one function
func ChainInitializers(inits ...drip.Initializer) drip.Initializer {
	return chainInitializer{inits: inits}
}

type chainInitializer struct {
	inits []drip.Initializer
}

// FromGenesis will pass opts to all Initializers in the list,
// aborting at the first error.
func (c chainInitializer) FromGenesis(opts drip.Options, params drip.GenesisParams, kv drip.KVStore) error {
	for _, i := range c.inits {
		err := i.FromGenesis(opts, params, kv)
		if err != nil {
			return err
		}
	}
	return nil
}
