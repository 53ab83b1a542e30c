package migration

import (
	"github.com/iov-one/drip"
	"github.com/iov-one/drip/errors"
)

// SchemaMigratingHandler returns a handler that will ensure incoming
// messages are in the current schema version format. If a message in an
// older schema is handled then it is first migrated. Messages that cannot
// be migrated to the current schema version are returning a migration
// error. This functionality is executed before the decorated handler and it
// is completely transparent to the wrapped handler.
func SchemaMigratingHandler(packageName string, h drip.Handler) drip.Handler {
	return &schemaMigratingHandler{
		handler:     h,
		packageName: packageName,
		schema:      NewSchemaBucket(),
		migrations:  reg,
	}
}

type schemaMigratingHandler struct {
	handler     drip.Handler
	packageName string
	schema      *SchemaBucket
	migrations  *register
}

var _ drip.Handler = (*schemaMigratingHandler)(nil)

func (h *schemaMigratingHandler) Check(ctx drip.Context, db drip.KVStore, tx drip.Tx) (*drip.CheckResult, error) {
	if err := h.migrate(db, tx); err != nil {
		return nil, errors.Wrap(err, "migration")
	}
	return h.handler.Check(ctx, db, tx)
}

func (h *schemaMigratingHandler) Deliver(ctx drip.Context, db drip.KVStore, tx drip.Tx) (*drip.DeliverResult, error) {
	if err := h.migrate(db, tx); err != nil {
		return nil, errors.Wrap(err, "migration")
	}
	return h.handler.Deliver(ctx, db, tx)
}

func (h *schemaMigratingHandler) migrate(db drip.ReadOnlyKVStore, tx drip.Tx) error {
	msg, err := tx.GetMsg()
	if err != nil {
		return errors.Wrap(err, "get msg")
	}

	m, ok := msg.(Migratable)
	if !ok {
		return errors.Wrap(errors.ErrMsg, "message cannot be migrated")
	}
	currSchemaVer, err := h.schema.CurrentSchema(db, h.packageName)
	if err != nil {
		return errors.Wrap(err, "current message schema")
	}

	// Migration is applied in place, directly modifying the instance.
	if err := h.migrations.Apply(db, m, currSchemaVer); err != nil {
		return errors.Wrap(err, "schema migration")
	}
	return nil
}
