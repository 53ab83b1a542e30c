package token

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/gconf"
)

// Initializer fulfils the Initializer interface to load data from the genesis
// file
type Initializer struct{}

var _ drip.Initializer = (*Initializer)(nil)

// FromGenesis will parse the configuration, initial token infos and holdings
// from genesis and save it to the database
func (Initializer) FromGenesis(opts drip.Options, params drip.GenesisParams, kv drip.KVStore) error {
	if err := gconf.InitConfig(kv, opts, "token", &Configuration{}); err != nil {
		return errors.Wrap(err, "init config")
	}

	var tokens []struct {
		Ticker string `json:"ticker"`
		Name   string `json:"name"`
	}
	if err := opts.ReadOptions("tokens", &tokens); err != nil {
		return errors.Wrap(err, "read tokens")
	}
	infos := NewTokenInfoBucket()
	for i, t := range tokens {
		obj := NewTokenInfo(t.Ticker, t.Name)
		if err := obj.Value().(*TokenInfo).Validate(); err != nil {
			return errors.Wrapf(err, "token #%d", i)
		}
		if err := infos.Save(kv, obj); err != nil {
			return errors.Wrapf(err, "save token #%d", i)
		}
	}

	var holdings []struct {
		Owner drip.Address `json:"owner"`
		Coin  coin.Coin    `json:"coin"`
	}
	if err := opts.ReadOptions("holdings", &holdings); err != nil {
		return errors.Wrap(err, "read holdings")
	}
	control := NewController(infos, NewHoldingBucket())
	for i, h := range holdings {
		if err := h.Owner.Validate(); err != nil {
			return errors.Wrapf(err, "holding #%d owner", i)
		}
		if err := control.Issue(kv, h.Owner, h.Coin); err != nil {
			return errors.Wrapf(err, "issue holding #%d", i)
		}
	}
	return nil
}
