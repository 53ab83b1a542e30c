package driptest

import (
	"encoding/binary"

	"github.com/iov-one/drip"
)

// Tx represents a drip transaction carrying a single message.
type Tx struct {
	// Msg is the message that is to be processed by this transaction.
	Msg drip.Msg
	// Err if set is returned by any method call.
	Err error
}

var _ drip.Tx = (*Tx)(nil)

func (tx *Tx) GetMsg() (drip.Msg, error) {
	return tx.Msg, tx.Err
}

func (tx *Tx) Unmarshal([]byte) error {
	panic("not implemented")
}

func (tx *Tx) Marshal() ([]byte, error) {
	panic("not implemented")
}

// Msg represents a drip message, a request processed within a single
// transaction.
type Msg struct {
	// Path returned by the path method, consumed by the router.
	RoutePath string
	// Serialized represents the serialized form of this message.
	Serialized []byte
	// Err if set is returned by any method call.
	Err error
}

var _ drip.Msg = (*Msg)(nil)

func (m *Msg) Path() string {
	return m.RoutePath
}

func (m *Msg) Unmarshal(b []byte) error {
	m.Serialized = b
	return m.Err
}

func (m *Msg) Marshal() ([]byte, error) {
	return m.Serialized, m.Err
}

func (m *Msg) Validate() error {
	return m.Err
}

// SequenceID returns an ID encoded the same way the orm sequence does it.
func SequenceID(n uint64) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, n)
	return b
}
