package migration

import (
	"reflect"

	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
)

// Migratable is implemented by both messages and models that support schema
// versioning. Every migratable entity must carry its schema version inside
// of the metadata.
type Migratable interface {
	// GetMetadata returns metadata of this entity. It is not allowed for
	// an entity to return nil metadata.
	GetMetadata() *drip.Metadata

	// Validate returns an error if the entity is not in a valid state.
	Validate() error
}

// Migrator is a function that migrates an entity in place, from the previous
// version to the one the function was registered with.
type Migrator func(db drip.ReadOnlyKVStore, msgOrModel Migratable) error

// NoModification is a migration function that migrates data that requires no
// change. It should be used to register migrations that do not require any
// modifications.
func NoModification(db drip.ReadOnlyKVStore, msgOrModel Migratable) error {
	return nil
}

func newRegister() *register {
	return &register{
		migrations: make(map[payloadVersion]Migrator),
	}
}

// register maintains a collection of migration functions, indexed by the
// payload type and the schema version they migrate to.
type register struct {
	migrations map[payloadVersion]Migrator
}

// payloadVersion references a message or a model at a given schema version.
type payloadVersion struct {
	payload reflect.Type
	version uint32
}

func (r *register) MustRegister(migrationTo uint32, msgOrModel Migratable, fn Migrator) {
	if err := r.Register(migrationTo, msgOrModel, fn); err != nil {
		panic(err)
	}
}

func (r *register) Register(migrationTo uint32, msgOrModel Migratable, fn Migrator) error {
	if migrationTo < 1 {
		return errors.Wrap(errors.ErrInput, "minimal allowed version is 1")
	}

	tp := reflect.TypeOf(msgOrModel)
	for tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	if tp.Kind() != reflect.Struct {
		return errors.Wrapf(errors.ErrInput, "only struct can be migrated, got %T", msgOrModel)
	}

	// Migrations must be registered sequentially, starting with version
	// one.
	if migrationTo > 1 {
		prev := payloadVersion{payload: tp, version: migrationTo - 1}
		if _, ok := r.migrations[prev]; !ok {
			return errors.Wrapf(errors.ErrInput, "missing %d version migration", migrationTo-1)
		}
	}

	pv := payloadVersion{payload: tp, version: migrationTo}
	if _, ok := r.migrations[pv]; ok {
		return errors.Wrapf(errors.ErrDuplicate, "already registered: %s.%s:%d", tp.PkgPath(), tp.Name(), migrationTo)
	}
	r.migrations[pv] = fn
	return nil
}

// Apply updates an entity by applying all missing migrations. Even a no
// modification migration is updating the metadata to point to the latest
// schema version.
//
// Because changes are applied directly on the passed entity, even if this
// function fails some of the migrations might have been applied.
//
// Validation method is called only on the final version of the entity.
func (r *register) Apply(db drip.ReadOnlyKVStore, msgOrModel Migratable, migrateTo uint32) error {
	if migrateTo < 1 {
		return errors.Wrap(errors.ErrInput, "minimal allowed version is 1")
	}

	tp := reflect.TypeOf(msgOrModel)
	for tp.Kind() == reflect.Ptr {
		tp = tp.Elem()
	}
	if tp.Kind() != reflect.Struct {
		return errors.Wrapf(errors.ErrInput, "only struct can be migrated, got %T", msgOrModel)
	}

	meta := msgOrModel.GetMetadata()
	if meta == nil {
		return errors.Wrapf(errors.ErrMetadata, "%T metadata is nil", msgOrModel)
	}

	for v := meta.Schema + 1; v <= migrateTo; v++ {
		migrate, ok := r.migrations[payloadVersion{payload: tp, version: v}]
		if !ok {
			return errors.Wrapf(errors.ErrSchema, "migration to version %d missing", v)
		}
		if err := migrate(db, msgOrModel); err != nil {
			return errors.Wrapf(err, "migration to version %d", v)
		}
		meta.Schema = v
	}

	if err := msgOrModel.Validate(); err != nil {
		return errors.Wrap(err, "validation")
	}
	return nil
}

// reg is a globally available register instance that must be used during the
// runtime to register migrations.
// Register is declared as a separate type so that it can be tested without
// worrying about the global state.
var reg = newRegister()

// MustRegister registers a migration function for a given message or model.
// Migrations must be registered sequentially, starting with version one.
// This function panics if the migration cannot be registered.
func MustRegister(migrationTo uint32, msgOrModel Migratable, fn Migrator) {
	reg.MustRegister(migrationTo, msgOrModel, fn)
}
