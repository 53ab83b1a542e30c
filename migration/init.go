package migration

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
)

// Initializer fulfils the Initializer interface to load data from the
// genesis file
type Initializer struct{}

var _ drip.Initializer = Initializer{}

// FromGenesis will parse initial schema information from genesis and save
// it in the database
func (Initializer) FromGenesis(opts drip.Options, params drip.GenesisParams, kv drip.KVStore) error {
	var pkgs []string
	if err := opts.ReadOptions("initialize_schema", &pkgs); err != nil {
		return errors.Wrap(err, "cannot load schema initialization declaration")
	}

	// This package schema must always be initialized so that the schema
	// versioning functionality itself can be used.
	pkgs = append(pkgs, "migration")

	bucket := NewSchemaBucket()
	for _, pkg := range pkgs {
		schema := Schema{
			Metadata: &drip.Metadata{Schema: 1},
			Pkg:      pkg,
			Version:  1,
		}
		if _, err := bucket.Create(kv, &schema); err != nil && !errors.ErrDuplicate.Is(err) {
			return errors.Wrapf(err, "initialize %q schema", pkg)
		}
	}
	return nil
}
