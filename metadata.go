package drip

import (
	"encoding/binary"

	"github.com/iov-one/drip/errors"
)

// Metadata is carried by every persistent entity and message. It holds the
// schema version that the payload was created with, so that the application
// can migrate data on load.
type Metadata struct {
	Schema uint32
}

// metadataSize is the size of the serialized Metadata header.
const metadataSize = 4

// Validate returns an error if the metadata is incomplete.
func (m *Metadata) Validate() error {
	if m == nil {
		return errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	if m.Schema < 1 {
		return errors.Wrap(errors.ErrMetadata, "schema version must be greater than zero")
	}
	return nil
}

// Copy returns a copy of this object. This method is helpful when
// implementing orm.CloneableData interface to make a copy of the header.
func (m *Metadata) Copy() *Metadata {
	if m == nil {
		return nil
	}
	cpy := *m
	return &cpy
}

// Marshal returns the fixed-size binary representation.
func (m *Metadata) Marshal() ([]byte, error) {
	raw := make([]byte, metadataSize)
	binary.BigEndian.PutUint32(raw, m.Schema)
	return raw, nil
}

// Unmarshal reads the fixed-size binary representation.
func (m *Metadata) Unmarshal(raw []byte) error {
	if len(raw) != metadataSize {
		return errors.Wrapf(errors.ErrInput, "metadata size: %d", len(raw))
	}
	m.Schema = binary.BigEndian.Uint32(raw)
	return nil
}
