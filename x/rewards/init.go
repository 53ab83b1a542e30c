package rewards

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/x/cash"
	"github.com/iov-one/drip/x/token"
)

// Initializer fulfils the Initializer interface to load data from the genesis
// file
type Initializer struct{}

var _ drip.Initializer = (*Initializer)(nil)

// FromGenesis will parse initial reward pools from genesis and save them to
// the database. Declared pools take the same creation path as the create
// message, including vault setup, so tickers they reference must be
// registered by the token initializer first.
func (Initializer) FromGenesis(opts drip.Options, params drip.GenesisParams, kv drip.KVStore) error {
	var pools []struct {
		Owner          drip.Address `json:"owner"`
		Ticker         string       `json:"ticker"`
		Policy         Policy       `json:"policy"`
		AutoDistribute bool         `json:"auto_distribute"`
	}
	if err := opts.ReadOptions("rewards", &pools); err != nil {
		return errors.Wrap(err, "read pools")
	}
	if len(pools) == 0 {
		return nil
	}

	bucket := NewPoolBucket()
	cashctrl := cash.NewController(cash.NewBucket())
	tokenctrl := token.NewController(token.NewTokenInfoBucket(), token.NewHoldingBucket())
	for i, p := range pools {
		msg := CreatePoolMsg{
			Metadata:       &drip.Metadata{Schema: 1},
			Owner:          p.Owner,
			Ticker:         p.Ticker,
			Policy:         p.Policy,
			AutoDistribute: p.AutoDistribute,
		}
		if err := msg.Validate(); err != nil {
			return errors.Wrapf(err, "pool #%d", i)
		}
		if _, err := createPool(kv, bucket, cashctrl, tokenctrl, &msg); err != nil {
			return errors.Wrapf(err, "create pool #%d", i)
		}
	}
	return nil
}
