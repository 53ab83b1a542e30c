package token

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/gconf"
	"github.com/iov-one/drip/migration"
	"github.com/iov-one/drip/x"
)

const (
	registerTokenCost int64 = 100
	transferTokenCost int64 = 100
)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r drip.Registry, auth x.Authenticator, control Controller) {
	r.Handle(pathRegisterTokenMsg, migration.SchemaMigratingHandler("token", &registerTokenHandler{
		auth:   auth,
		tokens: NewTokenInfoBucket(),
	}))
	r.Handle(pathTransferMsg, migration.SchemaMigratingHandler("token", &transferHandler{
		auth:    auth,
		control: control,
	}))
	r.Handle(pathUpdateConfigurationMsg, migration.SchemaMigratingHandler("token",
		gconf.NewUpdateConfigurationHandler("token", &Configuration{}, auth)))
}

// RegisterQuery will register the token info bucket as "/tokens" and the
// holding bucket as "/holdings".
func RegisterQuery(qr drip.QueryRouter) {
	NewTokenInfoBucket().Register("tokens", qr)
	NewHoldingBucket().Register("holdings", qr)
}

var _ drip.Handler = (*registerTokenHandler)(nil)

type registerTokenHandler struct {
	auth   x.Authenticator
	tokens TokenInfoBucket
}

func (h *registerTokenHandler) Check(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	if _, err := h.validate(ctx, store, tx); err != nil {
		return nil, err
	}
	return &drip.CheckResult{GasAllocated: registerTokenCost}, nil
}

func (h *registerTokenHandler) Deliver(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	msg, err := h.validate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	obj := NewTokenInfo(msg.Ticker, msg.Name)
	if err := h.tokens.Save(store, obj); err != nil {
		return nil, err
	}
	return &drip.DeliverResult{}, nil
}

func (h *registerTokenHandler) validate(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*RegisterTokenMsg, error) {
	var msg RegisterTokenMsg
	if err := drip.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}

	conf := mustLoadConf(store)
	if !h.auth.HasAddress(ctx, conf.Owner) {
		return nil, errors.Wrapf(errors.ErrUnauthorized, "tokens are registered by %s", conf.Owner)
	}

	// A token can be registered only once and is never updated.
	switch obj, err := h.tokens.Get(store, msg.Ticker); {
	case err != nil:
		return nil, err
	case obj != nil:
		return nil, errors.Wrapf(errors.ErrDuplicate, "ticker %s", msg.Ticker)
	}

	return &msg, nil
}

var _ drip.Handler = (*transferHandler)(nil)

type transferHandler struct {
	auth    x.Authenticator
	control Controller
}

func (h *transferHandler) Check(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	if _, err := h.validate(ctx, store, tx); err != nil {
		return nil, err
	}
	return &drip.CheckResult{GasAllocated: transferTokenCost}, nil
}

func (h *transferHandler) Deliver(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	msg, err := h.validate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	if err := h.control.Transfer(store, msg.Source, msg.Destination, msg.Amount); err != nil {
		return nil, err
	}
	return &drip.DeliverResult{}, nil
}

func (h *transferHandler) validate(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*TransferMsg, error) {
	var msg TransferMsg
	if err := drip.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "source did not sign")
	}
	return &msg, nil
}
