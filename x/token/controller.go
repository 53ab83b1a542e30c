package token

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/orm"
)

// Mover moves token balances between two existing holding accounts. Both
// accounts are referenced by their derived holding address.
type Mover interface {
	Move(db drip.KVStore, src drip.Address, dest drip.Address, amount coin.Coin) error
}

// Viewer provides read access to holding accounts. Holding returns
// errors.ErrNotFound when no account is stored under the given address.
type Viewer interface {
	Holding(db drip.ReadOnlyKVStore, account drip.Address) (*Holding, error)
	Balance(db drip.ReadOnlyKVStore, account drip.Address) (coin.Coin, error)
}

// Controller is the full permission-free token ledger API. Authentication
// checks are the responsibility of the caller.
type Controller interface {
	Mover
	Viewer

	// Issue mints the given amount into the owner's holding, creating the
	// holding if needed. The ticker must be registered.
	Issue(db drip.KVStore, owner drip.Address, amount coin.Coin) error

	// Transfer moves the given amount between the holdings of two owners.
	// The destination holding is created when missing.
	Transfer(db drip.KVStore, src drip.Address, dest drip.Address, amount coin.Coin) error

	// EnsureHolding creates an empty holding of the ticker for the owner
	// when none exists yet. The ticker must be registered.
	EnsureHolding(db drip.KVStore, owner drip.Address, ticker string) error
}

// BaseController implements the token ledger on top of the token info and
// holding buckets.
type BaseController struct {
	tokens   TokenInfoBucket
	holdings HoldingBucket
}

var _ Controller = BaseController{}

// NewController returns a controller using the given buckets.
func NewController(tokens TokenInfoBucket, holdings HoldingBucket) BaseController {
	return BaseController{
		tokens:   tokens,
		holdings: holdings,
	}
}

// Holding returns the holding account stored under the given derived
// address. Missing accounts return errors.ErrNotFound.
func (c BaseController) Holding(db drip.ReadOnlyKVStore, account drip.Address) (*Holding, error) {
	obj, err := c.holdings.Get(db, account)
	if err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "no holding at %s", account)
	}
	return AsHolding(obj), nil
}

// Balance returns the funds of the holding stored under the given derived
// address. Missing accounts return errors.ErrNotFound.
func (c BaseController) Balance(db drip.ReadOnlyKVStore, account drip.Address) (coin.Coin, error) {
	h, err := c.Holding(db, account)
	if err != nil {
		return coin.Coin{}, err
	}
	return coin.NewCoin(h.Balance, h.Ticker), nil
}

// Issue mints new tokens into the owner's holding. The ticker must be
// registered and the resulting balance must not overflow.
func (c BaseController) Issue(db drip.KVStore, owner drip.Address, amount coin.Coin) error {
	if err := amount.Validate(); err != nil {
		return err
	}
	switch info, err := c.tokens.Get(db, amount.Ticker); {
	case err != nil:
		return errors.Wrap(err, "token info")
	case info == nil:
		return errors.Wrapf(errors.ErrCurrency, "unknown ticker %s", amount.Ticker)
	}

	obj, err := c.holdings.Get(db, HoldingAccount(owner, amount.Ticker))
	if err != nil {
		return err
	}
	if obj == nil {
		obj = NewHolding(owner, amount.Ticker)
	}
	return c.credit(db, obj, amount.Amount)
}

// EnsureHolding creates an empty holding of the ticker for the owner when
// none exists yet. An existing holding is left alone.
func (c BaseController) EnsureHolding(db drip.KVStore, owner drip.Address, ticker string) error {
	switch info, err := c.tokens.Get(db, ticker); {
	case err != nil:
		return errors.Wrap(err, "token info")
	case info == nil:
		return errors.Wrapf(errors.ErrCurrency, "unknown ticker %s", ticker)
	}

	obj, err := c.holdings.Get(db, HoldingAccount(owner, ticker))
	if err != nil {
		return err
	}
	if obj != nil {
		return nil
	}
	return c.holdings.Save(db, NewHolding(owner, ticker))
}

// Move transfers the amount between two existing holding accounts. Both
// holdings must carry the same token as the amount.
func (c BaseController) Move(db drip.KVStore, src drip.Address, dest drip.Address, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount: %v", amount)
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if src.Equals(dest) {
		return errors.Wrap(errors.ErrInput, "source and destination are the same")
	}

	sender, err := c.Holding(db, src)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	recipient, err := c.Holding(db, dest)
	if err != nil {
		return errors.Wrap(err, "destination")
	}
	if sender.Ticker != amount.Ticker {
		return errors.Wrapf(errors.ErrCurrency, "source holds %s", sender.Ticker)
	}
	if recipient.Ticker != amount.Ticker {
		return errors.Wrapf(errors.ErrCurrency, "destination holds %s", recipient.Ticker)
	}

	if err := c.debit(db, src, sender, amount.Amount); err != nil {
		return err
	}
	return c.credit(db, orm.NewSimpleObj(dest, recipient), amount.Amount)
}

// Transfer moves the amount between the holdings of two owners, creating the
// destination holding when it does not exist yet.
func (c BaseController) Transfer(db drip.KVStore, src drip.Address, dest drip.Address, amount coin.Coin) error {
	if !amount.IsPositive() {
		return errors.Wrapf(errors.ErrAmount, "non-positive amount: %v", amount)
	}
	if err := amount.Validate(); err != nil {
		return err
	}
	if src.Equals(dest) {
		return errors.Wrap(errors.ErrInput, "source and destination are the same")
	}

	srcAccount := HoldingAccount(src, amount.Ticker)
	sender, err := c.Holding(db, srcAccount)
	if err != nil {
		return errors.Wrap(err, "source")
	}
	if err := c.debit(db, srcAccount, sender, amount.Amount); err != nil {
		return err
	}

	obj, err := c.holdings.Get(db, HoldingAccount(dest, amount.Ticker))
	if err != nil {
		return err
	}
	if obj == nil {
		obj = NewHolding(dest, amount.Ticker)
	}
	return c.credit(db, obj, amount.Amount)
}

func (c BaseController) debit(db drip.KVStore, account drip.Address, h *Holding, amount uint64) error {
	bal, err := coin.NewCoin(h.Balance, h.Ticker).Subtract(coin.NewCoin(amount, h.Ticker))
	if err != nil {
		return err
	}
	h.Balance = bal.Amount
	return c.holdings.Save(db, orm.NewSimpleObj(account, h))
}

func (c BaseController) credit(db drip.KVStore, obj orm.Object, amount uint64) error {
	h := AsHolding(obj)
	bal, err := coin.NewCoin(h.Balance, h.Ticker).Add(coin.NewCoin(amount, h.Ticker))
	if err != nil {
		return err
	}
	h.Balance = bal.Amount
	return c.holdings.Save(db, obj)
}
