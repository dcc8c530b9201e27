package executor

import (
	"context"

	"github.com/satishbabariya/cqlmigrate/migrate/cqlgen"
	"github.com/satishbabariya/cqlmigrate/migrate/cqltype"
	"github.com/satishbabariya/cqlmigrate/migrate/schemaerr"
)

// CreateCompositeType creates a user-defined type from an entity descriptor,
// one field per declared field in order. Non-scalar fields are always frozen.
// No-op if the type exists.
func (e *Executor) CreateCompositeType(ctx context.Context, entity cqltype.Entity) error {
	name := entity.TableName()
	exists, err := e.inspect.CompositeTypeExists(ctx, name)
	if err != nil {
		return err
	}
	if exists {
		e.logger.Debug("type already exists", "type", name)
		return nil
	}
	if len(entity.Fields) == 0 {
		return schemaerr.Invalid("create type", "type %q declares no fields", name)
	}

	fields := make([]cqlgen.Field, 0, len(entity.Fields))
	for _, f := range entity.Fields {
		cqlType, err := e.resolver.Resolve(f.Type, true)
		if err != nil {
			return err
		}
		fields = append(fields, cqlgen.Field{Name: normalize(f.Name), Type: cqlType})
	}
	return e.Execute(ctx, cqlgen.CreateType(name, fields), BenignCreateType)
}

// DeleteCompositeType drops a user-defined type. No-op if it is absent.
func (e *Executor) DeleteCompositeType(ctx context.Context, name string) error {
	name = normalize(name)
	exists, err := e.inspect.CompositeTypeExists(ctx, name)
	if err != nil {
		return err
	}
	if !exists {
		e.logger.Debug("type to drop is absent", "type", name)
		return nil
	}
	return e.Execute(ctx, cqlgen.DropType(name), BenignDropType)
}

// AlterCompositeTypeAddColumn adds a field to a user-defined type. A
// non-scalar field is always frozen. No-op if the field exists; fails with
// ErrObjectNotFound when the type is absent.
func (e *Executor) AlterCompositeTypeAddColumn(ctx context.Context, typeName, field string, t cqltype.HostType) error {
	typeName, field = normalize(typeName), normalize(field)

	exists, err := e.inspect.CompositeColumnExists(ctx, typeName, field)
	if err != nil {
		return err
	}
	if exists {
		e.logger.Debug("type field already exists", "type", typeName, "field", field)
		return nil
	}

	cqlType, err := e.resolver.Resolve(t, true)
	if err != nil {
		return err
	}
	return e.Execute(ctx, cqlgen.AlterTypeAdd(typeName, field, cqlType), BenignAlterTypeAdd)
}

// AlterCompositeTypeRenameColumn renames a field of a user-defined type.
// No-op if oldField is absent; fails with ErrInvalidOperation when newField
// already exists.
func (e *Executor) AlterCompositeTypeRenameColumn(ctx context.Context, typeName, oldField, newField string) error {
	typeName, oldField, newField = normalize(typeName), normalize(oldField), normalize(newField)

	oldExists, err := e.inspect.CompositeColumnExists(ctx, typeName, oldField)
	if err != nil {
		return err
	}
	if !oldExists {
		e.logger.Debug("type field to rename is absent", "type", typeName, "field", oldField)
		return nil
	}

	newExists, err := e.inspect.CompositeColumnExists(ctx, typeName, newField)
	if err != nil {
		return err
	}
	if newExists {
		return schemaerr.Invalid("rename field", "cannot rename %q to %q on type %q: field %q already exists", oldField, newField, typeName, newField)
	}

	return e.Execute(ctx, cqlgen.AlterTypeRename(typeName, oldField, newField), BenignAlterTypeRename)
}
