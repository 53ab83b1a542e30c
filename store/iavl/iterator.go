package iavl

import (
	"sync"

	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/store"
)

// lazyIterator feeds key-value pairs from a tree walk running in its
// own goroutine. The walk blocks until the consumer asks for the next
// pair, so only a constant amount of state is buffered.
type lazyIterator struct {
	read chan store.Model
	stop chan struct{}
	done chan struct{}
	once sync.Once
}

var _ store.Iterator = (*lazyIterator)(nil)

func newLazyIterator() *lazyIterator {
	return &lazyIterator{
		read: make(chan store.Model),
		stop: make(chan struct{}),
		done: make(chan struct{}),
	}
}

// add hands one pair to the consumer. It is passed as the callback to
// the tree's range scan and its return value signals the scan to halt
// once the iterator was released.
func (i *lazyIterator) add(key []byte, value []byte) bool {
	select {
	case i.read <- store.Model{Key: key, Value: value}:
		return false
	case <-i.stop:
		return true
	}
}

// finish marks the end of the walk, it must be called exactly once
// after the range scan returned.
func (i *lazyIterator) finish() {
	close(i.read)
	close(i.done)
}

// Next returns the next key-value pair, or ErrIteratorDone after the
// walk ran out of items or the iterator was released.
func (i *lazyIterator) Next() ([]byte, []byte, error) {
	select {
	case data, hasMore := <-i.read:
		if !hasMore {
			return nil, nil, errors.ErrIteratorDone
		}
		return data.Key, data.Value, nil
	case <-i.stop:
		return nil, nil, errors.ErrIteratorDone
	}
}

// Release frees the walking goroutine. Safe to call multiple times.
// It blocks until the walk has halted, so the tree can be modified as
// soon as this call returns.
func (i *lazyIterator) Release() {
	i.once.Do(func() {
		close(i.stop)
		<-i.done
	})
}
