package rewards

import (
	"sort"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/coin"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/migration"
	"github.com/iov-one/drip/orm"
	"github.com/iov-one/drip/x"
	"github.com/iov-one/drip/x/token"
	"github.com/tendermint/go-amino"
	"github.com/tendermint/tendermint/libs/common"
)

const (
	createPoolCost     int64 = 100
	updateHoldersCost  int64 = 100
	depositCost        int64 = 100
	withdrawCost       int64 = 100
	distributeBaseCost int64 = 100
	// Every registry entry of a distribution pass costs extra.
	distributeEntryCost int64 = 10

	// firstBump is where the walk over derived account candidates starts.
	firstBump = 255
)

// CashController is the part of the native coin ledger the reward handlers
// use. The x/cash extension provides the implementation.
type CashController interface {
	Balance(store drip.KVStore, src drip.Address) (coin.Coin, error)
	MoveCoins(store drip.KVStore, src drip.Address, dest drip.Address, amount coin.Coin) error
	EnsureWallet(store drip.KVStore, addr drip.Address) error
}

// TokenController is the part of the token ledger the reward handlers use.
// The x/token extension provides the implementation.
type TokenController interface {
	Holding(db drip.ReadOnlyKVStore, account drip.Address) (*token.Holding, error)
	Move(db drip.KVStore, src drip.Address, dest drip.Address, amount coin.Coin) error
	Transfer(db drip.KVStore, src drip.Address, dest drip.Address, amount coin.Coin) error
	EnsureHolding(db drip.KVStore, owner drip.Address, ticker string) error
}

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r drip.Registry, auth x.Authenticator, cashctrl CashController, tokenctrl TokenController) {
	pools := NewPoolBucket()
	r.Handle(pathCreatePoolMsg, migration.SchemaMigratingHandler("rewards", &createPoolHandler{
		auth:  auth,
		pools: pools,
		cash:  cashctrl,
		token: tokenctrl,
	}))
	r.Handle(pathUpdateTopHoldersMsg, migration.SchemaMigratingHandler("rewards", &updateTopHoldersHandler{
		auth:  auth,
		pools: pools,
	}))
	r.Handle(pathDepositMsg, migration.SchemaMigratingHandler("rewards", &depositHandler{
		auth:  auth,
		pools: pools,
		token: tokenctrl,
	}))
	r.Handle(pathDistributeMsg, migration.SchemaMigratingHandler("rewards", &distributeHandler{
		auth:  auth,
		pools: pools,
		cash:  cashctrl,
		token: tokenctrl,
	}))
	r.Handle(pathWithdrawMsg, migration.SchemaMigratingHandler("rewards", &withdrawHandler{
		auth:  auth,
		pools: pools,
		cash:  cashctrl,
		token: tokenctrl,
	}))
}

// RegisterQuery will register the pool bucket as "/rewards/pools".
func RegisterQuery(qr drip.QueryRouter) {
	NewPoolBucket().Register("rewards/pools", qr)
}

var _ drip.Handler = (*createPoolHandler)(nil)

type createPoolHandler struct {
	auth  x.Authenticator
	pools PoolBucket
	cash  CashController
	token TokenController
}

func (h *createPoolHandler) Check(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	if _, err := h.validate(ctx, store, tx); err != nil {
		return nil, err
	}
	return &drip.CheckResult{GasAllocated: createPoolCost}, nil
}

func (h *createPoolHandler) Deliver(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	msg, err := h.validate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	key, err := createPool(store, h.pools, h.cash, h.token, msg)
	if err != nil {
		return nil, err
	}
	return &drip.DeliverResult{Data: key}, nil
}

func (h *createPoolHandler) validate(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*CreatePoolMsg, error) {
	var msg CreatePoolMsg
	if err := drip.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	return &msg, nil
}

// createPool writes a new pool record and brings its vault to life. Genesis
// declared pools take the same path as the create message. The returned key
// is the address the pool record is stored under.
func createPool(db drip.KVStore, pools PoolBucket, cashctrl CashController, tokenctrl TokenController, msg *CreatePoolMsg) (drip.Address, error) {
	poolBump := byte(firstBump)
	key := PoolAccount(msg.Policy, msg.Ticker, poolBump)
	// Only pool records live under pool addresses, so a taken first
	// candidate means this policy and ticker combination is already
	// served.
	switch obj, err := pools.Get(db, key); {
	case err != nil:
		return nil, err
	case obj != nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "pool %s", key)
	}

	vaultBump, err := findVaultBump(db, cashctrl, tokenctrl, msg.Policy, msg.Ticker)
	if err != nil {
		return nil, err
	}
	vault := VaultAccount(msg.Policy, msg.Ticker, vaultBump)
	if msg.Ticker == "" {
		err = cashctrl.EnsureWallet(db, vault)
	} else {
		err = tokenctrl.EnsureHolding(db, vault, msg.Ticker)
	}
	if err != nil {
		return nil, err
	}

	pool := &Pool{
		Metadata:        &drip.Metadata{Schema: 1},
		Owner:           msg.Owner,
		Ticker:          msg.Ticker,
		Policy:          msg.Policy,
		AutoDistribute:  msg.AutoDistribute,
		PoolBump:        poolBump,
		VaultBump:       vaultBump,
		RegistryVersion: 1,
	}
	if err := pools.Save(db, orm.NewSimpleObj(key, pool)); err != nil {
		return nil, err
	}
	return key, nil
}

// findVaultBump walks the candidate bytes from the top down and returns the
// first one whose derived vault account nobody occupies yet. Anyone can fund
// an arbitrary address ahead of time, so a squatted candidate is skipped
// rather than fought over.
func findVaultBump(db drip.KVStore, cashctrl CashController, tokenctrl TokenController, policy Policy, ticker string) (byte, error) {
	for c := firstBump; c >= 0; c-- {
		vault := VaultAccount(policy, ticker, byte(c))
		var err error
		if ticker == "" {
			_, err = cashctrl.Balance(db, vault)
			if errors.ErrEmpty.Is(err) {
				return byte(c), nil
			}
		} else {
			_, err = tokenctrl.Holding(db, token.HoldingAccount(vault, ticker))
			if errors.ErrNotFound.Is(err) {
				return byte(c), nil
			}
		}
		if err != nil {
			return 0, err
		}
	}
	return 0, errors.Wrap(errors.ErrState, "no free vault account")
}

var _ drip.Handler = (*updateTopHoldersHandler)(nil)

type updateTopHoldersHandler struct {
	auth  x.Authenticator
	pools PoolBucket
}

func (h *updateTopHoldersHandler) Check(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	if _, err := h.validate(ctx, store, tx); err != nil {
		return nil, err
	}
	return &drip.CheckResult{GasAllocated: updateHoldersCost}, nil
}

func (h *updateTopHoldersHandler) Deliver(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	msg, err := h.validate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	pool, err := h.pools.GetPool(store, msg.PoolKey)
	if err != nil {
		return nil, err
	}

	holders := make([]TopHolder, len(msg.Holders))
	copy(holders, msg.Holders)
	sort.Slice(holders, func(i, j int) bool {
		return holderLess(holders[i], holders[j])
	})
	pool.Holders = holders
	pool.RegistryVersion++
	if err := h.pools.Save(store, orm.NewSimpleObj(msg.PoolKey, pool)); err != nil {
		return nil, err
	}
	return &drip.DeliverResult{}, nil
}

func (h *updateTopHoldersHandler) validate(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*UpdateTopHoldersMsg, error) {
	var msg UpdateTopHoldersMsg
	if err := drip.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	pool, err := h.pools.GetPool(store, msg.PoolKey)
	if err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, pool.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "owner did not sign")
	}
	// The whole input is measured against the capacity. An oversized
	// registry is refused, never truncated.
	if len(msg.Holders) > pool.Policy.Capacity() {
		return nil, errors.Wrapf(ErrTooManyHolders, "%d entries, capacity %d", len(msg.Holders), pool.Policy.Capacity())
	}
	return &msg, nil
}

var _ drip.Handler = (*depositHandler)(nil)

type depositHandler struct {
	auth  x.Authenticator
	pools PoolBucket
	token TokenController
}

func (h *depositHandler) Check(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	if _, err := h.validate(ctx, store, tx); err != nil {
		return nil, err
	}
	return &drip.CheckResult{GasAllocated: depositCost}, nil
}

func (h *depositHandler) Deliver(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	msg, err := h.validate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	pool, err := h.pools.GetPool(store, msg.PoolKey)
	if err != nil {
		return nil, err
	}

	sender := x.MainSigner(ctx, h.auth).Address()
	if err := h.token.Transfer(store, sender, pool.Vault(), msg.Amount); err != nil {
		return nil, err
	}
	total, err := coin.NewCoin(pool.TotalRewards, pool.Ticker).Add(msg.Amount)
	if err != nil {
		return nil, err
	}
	pool.TotalRewards = total.Amount
	if err := h.pools.Save(store, orm.NewSimpleObj(msg.PoolKey, pool)); err != nil {
		return nil, err
	}

	res := drip.DeliverResult{}
	if pool.AutoDistribute && len(pool.Holders) > 0 {
		plan, err := h.payoutPlan(store, pool)
		if err != nil {
			return nil, err
		}
		if len(plan) > 0 {
			data, err := amino.MarshalBinary(plan)
			if err != nil {
				return nil, errors.Wrap(err, "marshal plan")
			}
			res.Data = data
			res.Tags = []common.KVPair{
				{Key: []byte("pool"), Value: []byte(msg.PoolKey.String())},
			}
		}
	}
	return &res, nil
}

// payoutPlan computes the shares a distribution pass would currently pay
// out. The plan is only announced, no funds move with the deposit.
func (h *depositHandler) payoutPlan(store drip.KVStore, pool *Pool) ([]Share, error) {
	holding, err := h.token.Holding(store, pool.VaultHolding())
	if err != nil {
		return nil, errors.Wrap(err, "vault holding")
	}
	amounts, err := shareAmounts(pool.Policy, pool.Holders, coin.NewCoin(holding.Balance, holding.Ticker))
	if err != nil {
		return nil, err
	}
	return sharePlan(pool.Holders, amounts), nil
}

func (h *depositHandler) validate(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*DepositMsg, error) {
	var msg DepositMsg
	if err := drip.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	pool, err := h.pools.GetPool(store, msg.PoolKey)
	if err != nil {
		return nil, err
	}
	if pool.IsNative() {
		return nil, errors.Wrap(errors.ErrState, "native pools take plain coin sends")
	}
	if msg.Amount.Ticker != pool.Ticker {
		return nil, errors.Wrapf(ErrInvalidMint, "pool pays out %s", pool.Ticker)
	}
	if x.MainSigner(ctx, h.auth) == nil {
		return nil, errors.Wrap(errors.ErrUnauthorized, "no depositor signature")
	}
	return &msg, nil
}

var _ drip.Handler = (*distributeHandler)(nil)

type distributeHandler struct {
	auth  x.Authenticator
	pools PoolBucket
	cash  CashController
	token TokenController
}

func (h *distributeHandler) Check(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	msg, err := h.validate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	pool, err := h.pools.GetPool(store, msg.PoolKey)
	if err != nil {
		return nil, err
	}
	res := drip.CheckResult{
		GasAllocated: distributeBaseCost + distributeEntryCost*int64(len(pool.Holders)),
	}
	return &res, nil
}

func (h *distributeHandler) Deliver(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	msg, err := h.validate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	pool, err := h.pools.GetPool(store, msg.PoolKey)
	if err != nil {
		return nil, err
	}
	if msg.RegistryVersion != pool.RegistryVersion {
		return nil, errors.Wrapf(ErrStaleRegistry, "registry at version %d", pool.RegistryVersion)
	}
	if len(msg.Recipients) < len(pool.Holders) {
		return nil, errors.Wrapf(ErrInsufficientAccounts, "%d recipients for %d entries", len(msg.Recipients), len(pool.Holders))
	}
	if err := h.verifyRecipients(store, pool, msg.Recipients); err != nil {
		return nil, err
	}

	balance, err := h.vaultBalance(store, pool)
	if err != nil {
		return nil, err
	}
	amounts, err := shareAmounts(pool.Policy, pool.Holders, balance)
	if err != nil {
		return nil, err
	}
	if len(amounts) == 0 {
		// An empty registry or an empty vault is not a failure, the
		// pass simply moves nothing.
		return &drip.DeliverResult{}, nil
	}

	source := pool.Vault()
	if !pool.IsNative() {
		source = pool.VaultHolding()
	}
	var moved uint64
	for i, amount := range amounts {
		// Too small a cut this pass.
		if amount.IsZero() {
			continue
		}
		if pool.IsNative() {
			err = h.cash.MoveCoins(store, source, msg.Recipients[i], amount)
		} else {
			err = h.token.Move(store, source, msg.Recipients[i], amount)
		}
		if err != nil {
			return nil, errors.Wrapf(err, "payout %d", i)
		}
		moved += amount.Amount
	}

	distributed, err := coin.NewCoin(pool.TotalDistributed, balance.Ticker).Add(coin.NewCoin(moved, balance.Ticker))
	if err != nil {
		return nil, err
	}
	pool.TotalDistributed = distributed.Amount
	// The vault observation is a lower bound on everything ever deposited.
	// Plain sends bypass the deposit bookkeeping, so ratchet up when the
	// observation outgrows the recorded value.
	observed, err := distributed.Add(coin.NewCoin(balance.Amount-moved, balance.Ticker))
	if err != nil {
		return nil, err
	}
	if observed.Amount > pool.TotalRewards {
		pool.TotalRewards = observed.Amount
	}
	if err := h.pools.Save(store, orm.NewSimpleObj(msg.PoolKey, pool)); err != nil {
		return nil, err
	}
	return &drip.DeliverResult{}, nil
}

// verifyRecipients checks every recipient against the registry entry at the
// same position. Any mismatch aborts the whole pass before funds move.
func (h *distributeHandler) verifyRecipients(store drip.KVStore, pool *Pool, recipients []drip.Address) error {
	for i, holder := range pool.Holders {
		if pool.IsNative() {
			if !recipients[i].Equals(holder.Address) {
				return errors.Wrapf(ErrInvalidRecipient, "recipient %d is not the registered holder", i)
			}
			continue
		}
		holding, err := h.token.Holding(store, recipients[i])
		switch {
		case errors.ErrNotFound.Is(err):
			return errors.Wrapf(ErrInvalidTokenProgram, "recipient %d is not a holding account", i)
		case err != nil:
			return errors.Wrapf(err, "recipient %d", i)
		}
		if holding.Ticker != pool.Ticker {
			return errors.Wrapf(ErrInvalidMint, "recipient %d holds %s", i, holding.Ticker)
		}
		if !holding.Owner.Equals(holder.Address) {
			return errors.Wrapf(ErrInvalidRecipient, "recipient %d is not owned by the registered holder", i)
		}
	}
	return nil
}

// vaultBalance returns the funds the pool vault currently holds. A vault
// that was never funded reports a zero balance.
func (h *distributeHandler) vaultBalance(store drip.KVStore, pool *Pool) (coin.Coin, error) {
	if pool.IsNative() {
		c, err := h.cash.Balance(store, pool.Vault())
		if errors.ErrEmpty.Is(err) {
			return coin.Coin{}, nil
		}
		return c, err
	}
	holding, err := h.token.Holding(store, pool.VaultHolding())
	if errors.ErrNotFound.Is(err) {
		return coin.Coin{}, nil
	}
	if err != nil {
		return coin.Coin{}, err
	}
	return coin.NewCoin(holding.Balance, holding.Ticker), nil
}

func (h *distributeHandler) validate(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*DistributeMsg, error) {
	var msg DistributeMsg
	if err := drip.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if _, err := h.pools.GetPool(store, msg.PoolKey); err != nil {
		return nil, err
	}
	return &msg, nil
}

var _ drip.Handler = (*withdrawHandler)(nil)

type withdrawHandler struct {
	auth  x.Authenticator
	pools PoolBucket
	cash  CashController
	token TokenController
}

func (h *withdrawHandler) Check(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	if _, err := h.validate(ctx, store, tx); err != nil {
		return nil, err
	}
	return &drip.CheckResult{GasAllocated: withdrawCost}, nil
}

func (h *withdrawHandler) Deliver(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	msg, err := h.validate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	pool, err := h.pools.GetPool(store, msg.PoolKey)
	if err != nil {
		return nil, err
	}

	if pool.IsNative() {
		var balance coin.Coin
		switch c, err := h.cash.Balance(store, pool.Vault()); {
		case err == nil:
			balance = c
		case !errors.ErrEmpty.Is(err):
			return nil, err
		}
		if balance.Amount < msg.Amount.Amount {
			return nil, errors.Wrapf(ErrInsufficientBalance, "vault holds only %d", balance.Amount)
		}
		if balance.Ticker != msg.Amount.Ticker {
			return nil, errors.Wrapf(errors.ErrCurrency, "vault holds %s", balance.Ticker)
		}
		if err := h.cash.MoveCoins(store, pool.Vault(), pool.Owner, msg.Amount); err != nil {
			return nil, err
		}
		return &drip.DeliverResult{}, nil
	}

	var available uint64
	switch holding, err := h.token.Holding(store, pool.VaultHolding()); {
	case err == nil:
		available = holding.Balance
	case !errors.ErrNotFound.Is(err):
		return nil, err
	}
	if available < msg.Amount.Amount {
		return nil, errors.Wrapf(ErrInsufficientBalance, "vault holds only %d", available)
	}
	if err := h.token.Transfer(store, pool.Vault(), pool.Owner, msg.Amount); err != nil {
		return nil, err
	}
	return &drip.DeliverResult{}, nil
}

func (h *withdrawHandler) validate(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*WithdrawMsg, error) {
	var msg WithdrawMsg
	if err := drip.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	pool, err := h.pools.GetPool(store, msg.PoolKey)
	if err != nil {
		return nil, err
	}
	if !h.auth.HasAddress(ctx, pool.Owner) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "owner did not sign")
	}
	if !pool.IsNative() && msg.Amount.Ticker != pool.Ticker {
		return nil, errors.Wrapf(ErrInvalidMint, "pool pays out %s", pool.Ticker)
	}
	return &msg, nil
}
