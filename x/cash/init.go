package cash

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/errors"
)

// Initializer fulfils the Initializer interface to load data from the genesis
// file
type Initializer struct{}

var _ drip.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial account info from genesis and save it to the
// database
func (Initializer) FromGenesis(opts drip.Options, params drip.GenesisParams, kv drip.KVStore) error {
	accounts := []struct {
		Address drip.Address `json:"address"`
		Coin    coin.Coin    `json:"coin"`
	}{}
	if err := opts.ReadOptions("cash", &accounts); err != nil {
		return err
	}
	bucket := NewBucket()
	for i, a := range accounts {
		if err := a.Address.Validate(); err != nil {
			return errors.Wrapf(err, "account #%d address", i)
		}
		if err := a.Coin.Validate(); err != nil {
			return errors.Wrapf(err, "account #%d coin", i)
		}
		wallet := WalletWith(a.Address, a.Coin)
		if err := bucket.Save(kv, wallet); err != nil {
			return errors.Wrapf(err, "save account #%d", i)
		}
	}
	return nil
}
