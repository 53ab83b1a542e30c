package driptest

import "github.com/iov-one/drip"

// Decorator is a mock implementation of the drip.Decorator interface.
//
// Set CheckErr or DeliverErr to force an error response for the
// corresponding method. If error attributes are not set then the wrapped
// handler method is called and its result returned.
// Each method call is counted. Regardless of the method call result the
// counter is incremented.
type Decorator struct {
	checkCall int
	// CheckErr if set is returned by the Check method before calling
	// the wrapped handler.
	CheckErr error

	deliverCall int
	// DeliverErr if set is returned by the Deliver method before calling
	// the wrapped handler.
	DeliverErr error
}

var _ drip.Decorator = (*Decorator)(nil)

func (d *Decorator) Check(ctx drip.Context, db drip.KVStore, tx drip.Tx, next drip.Checker) (*drip.CheckResult, error) {
	d.checkCall++

	if d.CheckErr != nil {
		return &drip.CheckResult{}, d.CheckErr
	}
	return next.Check(ctx, db, tx)
}

func (d *Decorator) Deliver(ctx drip.Context, db drip.KVStore, tx drip.Tx, next drip.Deliverer) (*drip.DeliverResult, error) {
	d.deliverCall++

	if d.DeliverErr != nil {
		return &drip.DeliverResult{}, d.DeliverErr
	}
	return next.Deliver(ctx, db, tx)
}

func (d *Decorator) CheckCallCount() int {
	return d.checkCall
}

func (d *Decorator) DeliverCallCount() int {
	return d.deliverCall
}

func (d *Decorator) CallCount() int {
	return d.checkCall + d.deliverCall
}

// Decorate combines a decorator with a handler into a single handler.
func Decorate(h drip.Handler, d drip.Decorator) drip.Handler {
	return &decoratedHandler{hn: h, dc: d}
}

type decoratedHandler struct {
	hn drip.Handler
	dc drip.Decorator
}

var _ drip.Handler = (*decoratedHandler)(nil)

func (d *decoratedHandler) Check(ctx drip.Context, db drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	return d.dc.Check(ctx, db, tx, d.hn)
}

func (d *decoratedHandler) Deliver(ctx drip.Context, db drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	return d.dc.Deliver(ctx, db, tx, d.hn)
}
