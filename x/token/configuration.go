package token

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
	"github.com/iov-one/drip/gconf"
	"github.com/iov-one/drip/migration"
)

func init() {
	migration.MustRegister(1, &Configuration{}, migration.NoModification)
}

var _ gconf.OwnedConfig = (*Configuration)(nil)

// Configuration is the runtime configuration of this package. The owner is
// the only identity authorized to register tokens and to change this
// configuration. It must be set during the genesis.
type Configuration struct {
	Metadata *drip.Metadata
	Owner    drip.Address
}

// GetMetadata returns the schema header.
func (c *Configuration) GetMetadata() *drip.Metadata {
	return c.Metadata
}

// GetOwner returns the address authorized to change the configuration.
func (c *Configuration) GetOwner() drip.Address {
	return c.Owner
}

func (c *Configuration) Validate() error {
	var errs error
	errs = errors.AppendField(errs, "Metadata", c.Metadata.Validate())
	errs = errors.AppendField(errs, "Owner", c.Owner.Validate())
	return errs
}

// Marshal serializes the configuration as metadata and the owner address.
func (c *Configuration) Marshal() ([]byte, error) {
	if c.Metadata == nil {
		return nil, errors.Wrap(errors.ErrMetadata, "missing metadata")
	}
	meta, err := c.Metadata.Marshal()
	if err != nil {
		return nil, errors.Wrap(err, "marshal metadata")
	}
	if len(c.Owner) != drip.AddressLength {
		return nil, errors.Wrap(errors.ErrInput, "owner address size")
	}
	return append(meta, c.Owner...), nil
}

// Unmarshal restores the configuration from its binary representation.
func (c *Configuration) Unmarshal(raw []byte) error {
	if len(raw) != 4+drip.AddressLength {
		return errors.Wrapf(errors.ErrInput, "configuration size: %d bytes", len(raw))
	}
	var meta drip.Metadata
	if err := meta.Unmarshal(raw[:4]); err != nil {
		return errors.Wrap(err, "unmarshal metadata")
	}
	c.Metadata = &meta
	c.Owner = append(drip.Address(nil), raw[4:]...)
	return nil
}

// mustLoadConf returns the package configuration. This function panics when
// the configuration was not initialized, which means a broken genesis.
func mustLoadConf(db gconf.ReadStore) Configuration {
	var conf Configuration
	if err := gconf.Load(db, "token", &conf); err != nil {
		err = errors.Wrap(err, "load configuration")
		panic(err)
	}
	return conf
}
