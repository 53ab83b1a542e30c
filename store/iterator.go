package store

import (
	"bytes"
	"sync"

	"github.com/google/btree"

	"github.com/iov-one/drip/errors"
)

///////////////////////////////////////////////////////
// From Items to Iterator

type btreeIter struct {
	data    btree.Item
	hasMore bool
	read    <-chan btree.Item
	stop    chan struct{}
	done    <-chan struct{}
	once    sync.Once
}

// source marks where the current item comes from
type source int32

const (
	us source = iota
	parent
	both
	none
)

// ascendBtree streams the btree content in ascending order over the
// given range.
func ascendBtree(bt *btree.BTree, start, end []byte) *btreeIter {
	read := make(chan btree.Item)
	stop := make(chan struct{})
	done := make(chan struct{})
	iter := &btreeIter{
		read: read,
		stop: stop,
		done: done,
	}

	insert := func(item btree.Item) bool {
		select {
		case read <- item:
			return true
		case <-stop:
			return false
		}
	}

	go func() {
		if start == nil && end == nil {
			bt.Ascend(insert)
		} else if start == nil { // end != nil
			bt.AscendLessThan(bkey{end}, insert)
		} else if end == nil { // start != nil
			bt.AscendGreaterOrEqual(bkey{start}, insert)
		} else { // both != nil
			bt.AscendRange(bkey{start}, bkey{end}, insert)
		}
		close(read)
		close(done)
	}()

	iter.next()
	return iter
}

// descendBtree streams the btree content in descending order over the
// given range.
func descendBtree(bt *btree.BTree, start, end []byte) *btreeIter {
	read := make(chan btree.Item)
	stop := make(chan struct{})
	done := make(chan struct{})
	iter := &btreeIter{
		read: read,
		stop: stop,
		done: done,
	}

	insert := func(item btree.Item) bool {
		select {
		case read <- item:
			return true
		case <-stop:
			return false
		}
	}

	go func() {
		if start == nil && end == nil {
			bt.Descend(insert)
		} else if start == nil { // end != nil
			bt.DescendLessOrEqual(bkeyLess{end}, insert)
		} else if end == nil { // start != nil
			bt.DescendGreaterThan(bkeyLess{start}, insert)
		} else { // both != nil
			bt.DescendRange(bkeyLess{end}, bkeyLess{start}, insert)
		}
		close(read)
		close(done)
	}()

	iter.next()
	return iter
}

// wrap combines this iterator with the parent one. The merged result honors
// cache overwrites and deletes. Since the parent only exposes a destructive
// Next call, its head element is cached locally.
func (b *btreeIter) wrap(parent Iterator, reverse bool) (Iterator, error) {
	iter := &itemIter{
		wrap:    b,
		parent:  parent,
		reverse: reverse,
	}
	if err := iter.parentNext(); err != nil {
		b.close()
		return nil, err
	}
	return iter, nil
}

func (b *btreeIter) next() {
	b.data, b.hasMore = <-b.read
}

func (b *btreeIter) close() {
	b.once.Do(func() {
		close(b.stop)
		// Block until the producer exits, so that the tree can be
		// modified as soon as this call returns.
		<-b.done
	})
}

// get requires this is valid, gets what we are pointing at
func (b *btreeIter) get() keyer {
	return b.data.(keyer)
}

func (b *btreeIter) valid() bool {
	return b.hasMore
}

type itemIter struct {
	wrap *btreeIter
	// if we are iterating in a cache-wrap (and who isn't),
	// we need to combine this iterator with the parent
	parent Iterator
	// head element of the parent iterator. A nil key means the parent
	// is exhausted. Keys written to a store are never empty.
	parentKey   []byte
	parentValue []byte
	reverse     bool
}

//------- public facing interface ------
var _ Iterator = (*itemIter)(nil)

// Next returns the next key/value pair of the merged iteration, or
// errors.ErrIteratorDone when both sources are exhausted. Deleted cache
// entries shadow the backing store content.
func (i *itemIter) Next() ([]byte, []byte, error) {
	for {
		switch i.firstKey() {
		case none:
			i.Release()
			return nil, nil, errors.ErrIteratorDone
		case us:
			item := i.wrap.get()
			i.wrap.next()
			if set, ok := item.(setItem); ok {
				return set.key, set.value, nil
			}
			// A delete of an entry that the backing store never
			// had. Skip it.
		case both:
			item := i.wrap.get()
			i.wrap.next()
			if err := i.parentNext(); err != nil {
				return nil, nil, err
			}
			if set, ok := item.(setItem); ok {
				return set.key, set.value, nil
			}
			// Deleted in the cache, shadows the parent entry.
		case parent:
			key, value := i.parentKey, i.parentValue
			if err := i.parentNext(); err != nil {
				return nil, nil, err
			}
			return key, value, nil
		}
	}
}

// Release frees both iterators. It is safe to call it more than once.
func (i *itemIter) Release() {
	if i.parent != nil {
		i.parent.Release()
	}
	i.wrap.close()
}

// parentNext advances the parent iterator, caching its head element.
func (i *itemIter) parentNext() error {
	if i.parent == nil {
		return nil
	}
	key, value, err := i.parent.Next()
	switch {
	case err == nil:
		i.parentKey, i.parentValue = key, value
	case errors.ErrIteratorDone.Is(err):
		i.parentKey, i.parentValue = nil, nil
	default:
		return err
	}
	return nil
}

// firstKey selects the iterator holding the lowest next key, or the highest
// one when iterating in reverse
func (i *itemIter) firstKey() source {
	// if only one or none is valid, it is clear which to use
	if i.parentKey == nil {
		if !i.wrap.valid() {
			return none
		}
		return us
	}
	if !i.wrap.valid() {
		return parent
	}

	// both are valid... compare keys....
	cmp := bytes.Compare(i.parentKey, i.wrap.get().Key())
	if i.reverse {
		cmp = -cmp
	}
	if cmp < 0 {
		return parent
	} else if cmp > 0 {
		return us
	}
	return both
}
