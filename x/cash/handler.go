package cash

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/migration"
	"github.com/iov-one/drip/x"
)

const (
	sendTxCost int64 = 100
)

// RegisterRoutes will instantiate and register all handlers in this package.
func RegisterRoutes(r drip.Registry, auth x.Authenticator, control CoinMover) {
	r.Handle(pathSendMsg, migration.SchemaMigratingHandler("cash", &sendHandler{
		auth:    auth,
		control: control,
	}))
}

// RegisterQuery will register the wallet bucket as "/wallets".
func RegisterQuery(qr drip.QueryRouter) {
	NewBucket().Register("wallets", qr)
}

var _ drip.Handler = (*sendHandler)(nil)

type sendHandler struct {
	auth    x.Authenticator
	control CoinMover
}

func (h *sendHandler) Check(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	if _, err := h.validate(ctx, store, tx); err != nil {
		return nil, err
	}
	return &drip.CheckResult{GasAllocated: sendTxCost}, nil
}

func (h *sendHandler) Deliver(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	msg, err := h.validate(ctx, store, tx)
	if err != nil {
		return nil, err
	}
	if err := h.control.MoveCoins(store, msg.Source, msg.Destination, msg.Amount); err != nil {
		return nil, err
	}
	return &drip.DeliverResult{}, nil
}

func (h *sendHandler) validate(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*SendMsg, error) {
	var msg SendMsg
	if err := drip.LoadMsg(tx, &msg); err != nil {
		return nil, errors.Wrap(err, "load msg")
	}
	if !h.auth.HasAddress(ctx, msg.Source) {
		return nil, errors.Wrap(errors.ErrUnauthorized, "source did not sign")
	}
	return &msg, nil
}
