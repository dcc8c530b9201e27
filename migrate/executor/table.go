package executor

import (
	"context"

	"github.com/satishbabariya/cqlmigrate/migrate/cqlgen"
	"github.com/satishbabariya/cqlmigrate/migrate/cqltype"
	"github.com/satishbabariya/cqlmigrate/migrate/schemaerr"
)

// CreateTable creates a table from an entity descriptor. Key columns come
// from the entity's partition and clustering flags. No-op if the table exists.
func (e *Executor) CreateTable(ctx context.Context, entity cqltype.Entity) error {
	table := entity.TableName()
	exists, err := e.inspect.TableExists(ctx, table)
	if err != nil {
		return err
	}
	if exists {
		e.logger.Debug("table already exists", "table", table)
		return nil
	}

	columns := make([]cqlgen.Field, 0, len(entity.Fields))
	for _, f := range entity.Fields {
		cqlType, err := e.resolver.Resolve(f.Type, f.Frozen)
		if err != nil {
			return err
		}
		columns = append(columns, cqlgen.Field{Name: normalize(f.Name), Type: cqlType})
	}

	stmt, err := cqlgen.CreateTable(table, columns, entity.PartitionKeys(), entity.ClusteringKeys())
	if err != nil {
		return err
	}
	return e.Execute(ctx, stmt, BenignCreateTable)
}

// AddColumn adds a column whose type is resolved from a host type. No-op if
// the column exists.
func (e *Executor) AddColumn(ctx context.Context, table, column string, t cqltype.HostType, frozen bool) error {
	cqlType, err := e.resolver.Resolve(t, frozen)
	if err != nil {
		return err
	}
	return e.AddColumnType(ctx, table, column, cqlType)
}

// AddEntityColumn adds a column declared on entity, resolving its type from
// the entity's field descriptor.
func (e *Executor) AddEntityColumn(ctx context.Context, table string, entity cqltype.Entity, column string, frozen bool) error {
	cqlType, err := e.resolver.ResolveField(entity.HostType(), column, frozen)
	if err != nil {
		return err
	}
	return e.AddColumnType(ctx, table, column, cqlType)
}

// AddColumnType adds a column with an already rendered CQL type.
func (e *Executor) AddColumnType(ctx context.Context, table, column, cqlType string) error {
	table, column = normalize(table), normalize(column)

	exists, err := e.inspect.ColumnExists(ctx, table, column)
	if err != nil {
		return err
	}
	if exists {
		e.logger.Debug("column already exists", "table", table, "column", column)
		return nil
	}
	return e.Execute(ctx, cqlgen.AddColumn(table, column, cqlType), BenignAddColumn)
}

// AlterColumnType changes the type of an existing column.
func (e *Executor) AlterColumnType(ctx context.Context, table, column string, t cqltype.HostType, frozen bool) error {
	table, column = normalize(table), normalize(column)

	exists, err := e.inspect.ColumnExists(ctx, table, column)
	if err != nil {
		return err
	}
	if !exists {
		return &schemaerr.NotFoundError{Kind: schemaerr.KindColumn, Name: column, Parent: table, Keyspace: e.Keyspace()}
	}

	cqlType, err := e.resolver.Resolve(t, frozen)
	if err != nil {
		return err
	}
	return e.Execute(ctx, cqlgen.AlterColumnType(table, column, cqlType), nil)
}

// RenamePrimaryColumn renames a partition key column. No-op if oldName is
// absent. Fails with ErrInvalidOperation, without issuing DDL, when newName
// already exists or oldName is not part of the partition key.
func (e *Executor) RenamePrimaryColumn(ctx context.Context, table, oldName, newName string) error {
	table, oldName, newName = normalize(table), normalize(oldName), normalize(newName)

	oldExists, err := e.inspect.ColumnExists(ctx, table, oldName)
	if err != nil {
		return err
	}
	if !oldExists {
		e.logger.Debug("column to rename is absent", "table", table, "column", oldName)
		return nil
	}

	newExists, err := e.inspect.ColumnExists(ctx, table, newName)
	if err != nil {
		return err
	}
	if newExists {
		return schemaerr.Invalid("rename column", "cannot rename %q to %q on table %q: column %q already exists", oldName, newName, table, newName)
	}

	isKey, err := e.inspect.IsPartitionKey(ctx, table, oldName)
	if err != nil {
		return err
	}
	if !isKey {
		return schemaerr.Invalid("rename column", "column %q on table %q is not a partition key", oldName, table)
	}

	return e.Execute(ctx, cqlgen.RenameColumn(table, oldName, newName), BenignRenameColumn)
}

// DropColumn drops a column. No-op if the column is absent; fails with
// ErrObjectNotFound when the table is absent.
func (e *Executor) DropColumn(ctx context.Context, table, column string) error {
	table, column = normalize(table), normalize(column)

	exists, err := e.inspect.ColumnExists(ctx, table, column)
	if err != nil {
		return err
	}
	if !exists {
		e.logger.Debug("column to drop is absent", "table", table, "column", column)
		return nil
	}
	return e.Execute(ctx, cqlgen.DropColumn(table, column), BenignDropColumn)
}
