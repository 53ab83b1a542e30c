package app

import (
	"encoding/binary"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
)

// ResultSet contains a list of keys or values, ordered to match
// the counterpart set. It is the wire format for query responses,
// where len(Key.Results) must equal len(Value.Results).
type ResultSet struct {
	Results [][]byte
}

// Marshal encodes the result set as a sequence of length
// prefixed chunks. Each chunk is a big endian uint32 size
// followed by that many bytes.
func (rs *ResultSet) Marshal() ([]byte, error) {
	size := 0
	for _, r := range rs.Results {
		size += 4 + len(r)
	}
	raw := make([]byte, 0, size)
	var head [4]byte
	for _, r := range rs.Results {
		binary.BigEndian.PutUint32(head[:], uint32(len(r)))
		raw = append(raw, head[:]...)
		raw = append(raw, r...)
	}
	return raw, nil
}

// Unmarshal parses a sequence of length prefixed chunks,
// replacing any results stored so far.
func (rs *ResultSet) Unmarshal(raw []byte) error {
	var res [][]byte
	for len(raw) > 0 {
		if len(raw) < 4 {
			return errors.Wrapf(errors.ErrInput, "incomplete chunk header: %d bytes", len(raw))
		}
		size := int(binary.BigEndian.Uint32(raw))
		raw = raw[4:]
		if len(raw) < size {
			return errors.Wrapf(errors.ErrInput, "chunk of %d bytes truncated to %d", size, len(raw))
		}
		res = append(res, raw[:size:size])
		raw = raw[size:]
	}
	rs.Results = res
	return nil
}

// ResultsFromKeys returns a ResultSet of all keys
// given a set of models
func ResultsFromKeys(models []drip.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Key
	}
	return &ResultSet{Results: res}
}

// ResultsFromValues returns a ResultSet of all values
// given a set of models
func ResultsFromValues(models []drip.Model) *ResultSet {
	res := make([][]byte, len(models))
	for i, m := range models {
		res[i] = m.Value
	}
	return &ResultSet{Results: res}
}

// JoinResults inverts ResultsFromKeys and ResultsFromValues
// and makes then a consistent whole again
func JoinResults(keys, values *ResultSet) ([]drip.Model, error) {
	kref, vref := keys.Results, values.Results
	if len(kref) != len(vref) {
		return nil, errors.Wrapf(errors.ErrInput, "mismatched result set size: %d keys, %d values", len(kref), len(vref))
	}
	mods := make([]drip.Model, len(kref))
	for i := range mods {
		mods[i] = drip.Model{
			Key:   kref[i],
			Value: vref[i],
		}
	}
	return mods, nil
}

// UnmarshalOneResult will parse a resultset, and
// it if is not empty, unmarshal the first result into o
func UnmarshalOneResult(bz []byte, o drip.Persistent) error {
	// get the resultset
	var res ResultSet
	err := res.Unmarshal(bz)
	if err != nil {
		return err
	}

	// no results, do nothing
	if len(res.Results) == 0 {
		return nil
	}

	err = o.Unmarshal(res.Results[0])
	return err
}
