package app

import (
	"fmt"
	"regexp"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
)

// Router allows us to register many handlers with different
// paths and then direct each message to the registered handler.
type Router struct {
	handlers map[string]drip.Handler
}

var _ drip.Registry = (*Router)(nil)
var _ drip.Handler = (*Router)(nil)

// NewRouter initializes a router with no routes
func NewRouter() *Router {
	return &Router{
		handlers: make(map[string]drip.Handler),
	}
}

// path may contain lowercase letters, numbers, underscores and
// a single slash separating the extension from the action
var isPath = regexp.MustCompile(`^[a-z0-9_]+(/[a-z0-9_]+)?$`).MatchString

// Handle adds a new handler for the given path. This function panics if a
// handler for given path is already registered or if the path is invalid.
func (r *Router) Handle(path string, h drip.Handler) {
	if !isPath(path) {
		panic(fmt.Sprintf("invalid path: %q", path))
	}
	if _, ok := r.handlers[path]; ok {
		panic(fmt.Sprintf("re-registering route: %q", path))
	}
	r.handlers[path] = h
}

// handler returns the registered Handler for this message path.
// If no path is found, returns a notFoundHandler.
func (r *Router) handler(m drip.Msg) drip.Handler {
	path := m.Path()
	if h, ok := r.handlers[path]; ok {
		return h
	}
	return notFoundHandler(path)
}

// Check dispatches to the proper handler based on path
func (r *Router) Check(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrState, "transaction without a message")
	}
	return r.handler(msg).Check(ctx, store, tx)
}

// Deliver dispatches to the proper handler based on path
func (r *Router) Deliver(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	msg, err := tx.GetMsg()
	if err != nil {
		return nil, errors.Wrap(err, "cannot load msg")
	}
	if msg == nil {
		return nil, errors.Wrap(errors.ErrState, "transaction without a message")
	}
	return r.handler(msg).Deliver(ctx, store, tx)
}

// notFoundHandler always returns ErrNotFound error regardless of the
// arguments. It is to be used as the default handler in the router.
type notFoundHandler string

var _ drip.Handler = notFoundHandler("")

func (path notFoundHandler) Check(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}

func (path notFoundHandler) Deliver(ctx drip.Context, store drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	return nil, errors.Wrapf(errors.ErrNotFound, "no handler for message path %q", string(path))
}
