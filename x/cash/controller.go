package cash

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/errors"
)

// CoinMover is an interface for moving coins between accounts.
type CoinMover interface {
	// Moving coins must happen from the source to the destination
	// address. Zero value or unknown currency must result in an error.
	MoveCoins(store drip.KVStore, src drip.Address, dest drip.Address, amount coin.Coin) error
}

// Balancer is an interface to query the amount of coins.
type Balancer interface {
	// Balance returns the coin stored under given address. A missing
	// account is reported as errors.ErrEmpty.
	Balance(drip.KVStore, drip.Address) (coin.Coin, error)
}

// Controller is the functionality needed by the handlers of this and of
// other extensions that settle in the native currency. BaseController
// should work plenty fine.
type Controller interface {
	CoinMover
	Balancer

	// EnsureWallet creates an empty wallet under the address when none
	// exists yet.
	EnsureWallet(store drip.KVStore, addr drip.Address) error
}

// BaseController implements Controller.
type BaseController struct {
	bucket Bucket
}

var _ Controller = BaseController{}

// NewController returns a base controller implementation.
func NewController(bucket Bucket) BaseController {
	return BaseController{bucket: bucket}
}

// Balance returns the amount of funds stored under given address.
func (c BaseController) Balance(store drip.KVStore, src drip.Address) (coin.Coin, error) {
	state, err := c.bucket.Get(store, src)
	if err != nil {
		return coin.Coin{}, errors.Wrap(err, "cannot get account state")
	}
	if state == nil {
		return coin.Coin{}, errors.Wrap(errors.ErrEmpty, "no account")
	}
	return AsWallet(state).Coin, nil
}

// EnsureWallet creates an empty wallet under the given address when none
// exists yet. An existing wallet is left alone.
func (c BaseController) EnsureWallet(store drip.KVStore, addr drip.Address) error {
	obj, err := c.bucket.Get(store, addr)
	if err != nil {
		return err
	}
	if obj != nil {
		return nil
	}
	return c.bucket.Save(store, NewWallet(addr))
}

// MoveCoins moves the given amount from src to dest. If src doesn't exist,
// or doesn't have sufficient funds, it fails.
func (c BaseController) MoveCoins(store drip.KVStore, src drip.Address, dest drip.Address, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive transfer: %v", amount.Amount)
	}
	if err := amount.Validate(); err != nil {
		return errors.Wrap(err, "invalid amount")
	}
	if src.Equals(dest) {
		return errors.Wrap(errors.ErrInput, "source and destination are the same")
	}

	sender, err := c.bucket.Get(store, src)
	if err != nil {
		return err
	}
	if sender == nil {
		return errors.Wrapf(errors.ErrEmpty, "empty account %s", src)
	}
	wallet := AsWallet(sender)
	remainder, err := wallet.Coin.Subtract(amount)
	if err != nil {
		return err
	}
	wallet.Coin = remainder

	recipient, err := c.bucket.GetOrCreate(store, dest)
	if err != nil {
		return err
	}
	target := AsWallet(recipient)
	total, err := target.Coin.Add(amount)
	if err != nil {
		return err
	}
	target.Coin = total

	if err := c.bucket.Save(store, sender); err != nil {
		return err
	}
	return c.bucket.Save(store, recipient)
}

// CoinMint attempts to add the given amount of coins to the destination
// address. Fails if it overflows the wallet.
func (c BaseController) CoinMint(store drip.KVStore, dest drip.Address, amount coin.Coin) error {
	recipient, err := c.bucket.GetOrCreate(store, dest)
	if err != nil {
		return err
	}
	target := AsWallet(recipient)
	total, err := target.Coin.Add(amount)
	if err != nil {
		return err
	}
	target.Coin = total
	return c.bucket.Save(store, recipient)
}
