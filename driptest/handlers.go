package driptest

import "github.com/iov-one/drip"

// Handler is a mock implementation of the drip.Handler interface. It returns
// the configured results and counts every call.
type Handler struct {
	checkCall   int
	CheckResult drip.CheckResult
	CheckErr    error

	deliverCall   int
	DeliverResult drip.DeliverResult
	DeliverErr    error
}

var _ drip.Handler = (*Handler)(nil)

func (h *Handler) Check(ctx drip.Context, db drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	h.checkCall++
	return &h.CheckResult, h.CheckErr
}

func (h *Handler) Deliver(ctx drip.Context, db drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	h.deliverCall++
	return &h.DeliverResult, h.DeliverErr
}

func (h *Handler) CheckCallCount() int {
	return h.checkCall
}

func (h *Handler) DeliverCallCount() int {
	return h.deliverCall
}

func (h *Handler) CallCount() int {
	return h.checkCall + h.deliverCall
}
