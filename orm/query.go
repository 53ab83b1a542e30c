package orm

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
)

// RegisterQuery will register a root query that allows access
// to any raw key in the database
func RegisterQuery(qr drip.QueryRouter) {
	qr.Register("/", rawQuery{})
}

// rawQuery gives direct access to the database. The request data is the
// full database key, no bucket prefix is applied.
type rawQuery struct{}

var _ drip.QueryHandler = rawQuery{}

func (rawQuery) Query(db drip.ReadOnlyKVStore, mod string, data []byte) ([]drip.Model, error) {
	switch mod {
	case drip.KeyQueryMod:
		value, err := db.Get(data)
		if err != nil {
			return nil, err
		}
		// return nothing on miss
		if value == nil {
			return nil, nil
		}
		return []drip.Model{{Key: data, Value: value}}, nil
	case drip.PrefixQueryMod:
		return queryPrefix(db, data)
	default:
		return nil, errors.Wrapf(errors.ErrInput, "unknown mod: %s", mod)
	}
}

// queryPrefix returns all models with keys matching the given prefix, in
// ascending key order.
func queryPrefix(db drip.ReadOnlyKVStore, prefix []byte) ([]drip.Model, error) {
	var res []drip.Model
	start, end := prefixRange(prefix)
	iter, err := db.Iterator(start, end)
	if err != nil {
		return nil, errors.Wrap(err, "prefix iterator")
	}
	defer iter.Release()

	for {
		switch key, value, err := iter.Next(); {
		case err == nil:
			res = append(res, drip.Model{Key: key, Value: value})
		case errors.ErrIteratorDone.Is(err):
			return res, nil
		default:
			return nil, errors.Wrap(err, "iterator next")
		}
	}
}

// prefixRange turns a prefix into (start, end) to create
// an iterator
func prefixRange(prefix []byte) ([]byte, []byte) {
	// special case: no prefix is whole range
	if len(prefix) == 0 {
		return nil, nil
	}

	// copy the prefix and update last byte
	end := make([]byte, len(prefix))
	copy(end, prefix)
	l := len(end) - 1
	end[l]++

	// wait, what if that overflowed?....
	for end[l] == 0 && l > 0 {
		l--
		end[l]++
	}

	// okay, funny guy, you gave us FFF, no end to this range...
	if l == 0 && end[0] == 0 {
		end = nil
	}
	return prefix, end
}
