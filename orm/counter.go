package orm

import (
	"encoding/binary"

	"github.com/iov-one/drip/errors"
)

var _ Model = (*Counter)(nil)

// Counter is a trivial model, mostly for tests. The state is stored as
// 8 big-endian bytes.
type Counter struct {
	Count int64
}

// NewCounter returns a counter at the given state
func NewCounter(count int64) *Counter {
	return &Counter{Count: count}
}

func (c *Counter) Marshal() ([]byte, error) {
	bz := make([]byte, 8)
	binary.BigEndian.PutUint64(bz, uint64(c.Count))
	return bz, nil
}

func (c *Counter) Unmarshal(raw []byte) error {
	if len(raw) != 8 {
		return errors.Wrapf(errors.ErrInput, "counter is %d bytes", len(raw))
	}
	c.Count = int64(binary.BigEndian.Uint64(raw))
	return nil
}

// Validate rejects a negative counter state
func (c *Counter) Validate() error {
	if c.Count < 0 {
		return errors.Wrapf(errors.ErrState, "negative counter: %d", c.Count)
	}
	return nil
}

// Copy produces a new copy to fulfill the Model interface
func (c *Counter) Copy() CloneableData {
	return &Counter{Count: c.Count}
}
