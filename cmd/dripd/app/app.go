/*
Package app links together all the various components
to construct the dripd app.
*/
package app

import (
	"context"
	"path/filepath"
	"strings"

	dbm "github.com/tendermint/tendermint/libs/db"
	"github.com/tendermint/tendermint/libs/log"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/app"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/migration"
	"github.com/iov-one/drip/orm"
	"github.com/iov-one/drip/store/iavl"
	"github.com/iov-one/drip/x"
	"github.com/iov-one/drip/x/cash"
	"github.com/iov-one/drip/x/rewards"
	"github.com/iov-one/drip/x/sigs"
	"github.com/iov-one/drip/x/token"
	"github.com/iov-one/drip/x/utils"
	abci "github.com/tendermint/tendermint/abci/types"
)

// Authenticator returns the typical authentication,
// just using public key signatures
func Authenticator() x.Authenticator {
	return x.ChainAuth(sigs.Authenticate{})
}

// Chain returns a chain of decorators, to handle authentication,
// logging, and recovery
func Chain(authFn x.Authenticator) app.Decorators {
	return app.ChainDecorators(
		utils.NewLogging(),
		utils.NewRecovery(),
		// on CheckTx, bad tx don't affect state
		utils.NewSavepoint().OnCheck(),
		sigs.NewDecorator(),
		utils.NewActionTagger(),
		// on DeliverTx, bad tx will increment nonce
		// even if the message fails
		utils.NewSavepoint().OnDeliver(),
	)
}

// Router returns a default router, dispatching to the
// cash, token and rewards handlers
func Router(authFn x.Authenticator) *app.Router {
	r := app.NewRouter()
	cashctrl := cash.NewController(cash.NewBucket())
	tokenctrl := token.NewController(token.NewTokenInfoBucket(), token.NewHoldingBucket())
	cash.RegisterRoutes(r, authFn, cashctrl)
	token.RegisterRoutes(r, authFn, tokenctrl)
	rewards.RegisterRoutes(r, authFn, cashctrl, tokenctrl)
	return r
}

// QueryRouter returns a default query router, allowing access to
// "/wallets", "/tokens", "/holdings", "/rewards/pools", "/auth",
// "/schemas", and "/"
func QueryRouter() drip.QueryRouter {
	r := drip.NewQueryRouter()
	r.RegisterAll(
		cash.RegisterQuery,
		token.RegisterQuery,
		rewards.RegisterQuery,
		sigs.RegisterQuery,
		migration.RegisterQuery,
		orm.RegisterQuery,
	)
	return r
}

// Stack wires up a standard router with a standard decorator
// chain. This can be passed into BaseApp.
func Stack() drip.Handler {
	authFn := Authenticator()
	return Chain(authFn).WithHandler(Router(authFn))
}

// Application constructs a basic ABCI application with
// the given arguments. If you are not sure what to use
// for the Handler, just use Stack().
func Application(name string, h drip.Handler,
	tx drip.TxDecoder, dbPath string, debug bool) (app.BaseApp, error) {

	ctx := context.Background()
	kv, err := CommitKVStore(dbPath)
	if err != nil {
		return app.BaseApp{}, err
	}
	store := app.NewStoreApp(name, kv, QueryRouter(), ctx)
	base := app.NewBaseApp(store, tx, h, debug)
	return base, nil
}

// InlineApp instantiates the application over an already opened commit
// store. Used by debug commands that replay blocks against a copy of
// the production database.
func InlineApp(kv drip.CommitKVStore, logger log.Logger, debug bool) abci.Application {
	ctx := context.Background()
	store := app.NewStoreApp("drip", kv, QueryRouter(), ctx)
	base := app.NewBaseApp(store, TxDecoder, Stack(), debug)
	base.WithLogger(logger)
	return base
}

// CommitKVStore returns an initialized KVStore that persists
// the data to the named path.
func CommitKVStore(dbPath string) (drip.CommitKVStore, error) {
	// memory backed case, just for testing
	if dbPath == "" {
		return iavl.MockCommitStore(), nil
	}

	// Expand the path fully
	path, err := filepath.Abs(dbPath)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInput, "invalid database name: %s", dbPath)
	}

	// Some external calls accidently add a ".db", which is now removed
	path = strings.TrimSuffix(path, filepath.Ext(path))

	// Split the database name into it's components (dir, name)
	dir := filepath.Dir(path)
	name := filepath.Base(path)
	db, err := dbm.NewGoLevelDB(name, dir)
	if err != nil {
		return nil, errors.Wrap(errors.ErrDatabase, err.Error())
	}
	return iavl.NewCommitStore(db), nil
}
