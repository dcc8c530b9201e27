// Package introspect answers existence questions about the schema of the
// configured keyspace.
package introspect

import (
	"context"
	"fmt"

	"github.com/satishbabariya/cqlmigrate/migrate/cqltype"
	"github.com/satishbabariya/cqlmigrate/migrate/schemaerr"
)

// MetadataReader reads schema metadata for one keyspace. Single object lookups
// return nil without error when the object does not exist.
type MetadataReader interface {
	Keyspace() string
	Table(ctx context.Context, name string) (*TableMetadata, error)
	CompositeType(ctx context.Context, name string) (*TypeMetadata, error)
	MaterializedView(ctx context.Context, name string) (*ViewMetadata, error)
	Tables(ctx context.Context) ([]TableMetadata, error)
	CompositeTypes(ctx context.Context) ([]TypeMetadata, error)
	MaterializedViews(ctx context.Context) ([]ViewMetadata, error)
}

// ObjectRef identifies a schema object. It is what ObjectNotFound errors carry.
type ObjectRef struct {
	Kind     schemaerr.ObjectKind
	Name     string
	Keyspace string
}

// NotFound returns the ObjectNotFound error for the referenced object.
func (r ObjectRef) NotFound() error {
	return schemaerr.NotFound(r.Kind, r.Name, r.Keyspace)
}

func (r ObjectRef) String() string {
	return fmt.Sprintf("%s %s.%s", r.Kind, r.Keyspace, r.Name)
}

// Introspector answers existence questions by reading metadata synchronously.
// Identifiers are compared trimmed and lowercased.
type Introspector struct {
	reader MetadataReader
}

// New creates an introspector over reader.
func New(reader MetadataReader) *Introspector {
	return &Introspector{reader: reader}
}

// Keyspace returns the keyspace being inspected.
func (i *Introspector) Keyspace() string {
	return normalize(i.reader.Keyspace())
}

func (i *Introspector) ref(kind schemaerr.ObjectKind, name string) ObjectRef {
	return ObjectRef{Kind: kind, Name: normalize(name), Keyspace: i.Keyspace()}
}

// TableExists reports whether the table exists in the keyspace.
func (i *Introspector) TableExists(ctx context.Context, table string) (bool, error) {
	t, err := i.reader.Table(ctx, normalize(table))
	if err != nil {
		return false, fmt.Errorf("failed to read table %q: %w", table, err)
	}
	return t != nil, nil
}

// ColumnExists reports whether the table has the column. It fails with
// ErrObjectNotFound when the table itself is absent.
func (i *Introspector) ColumnExists(ctx context.Context, table, column string) (bool, error) {
	t, err := i.table(ctx, table)
	if err != nil {
		return false, err
	}
	_, ok := t.Column(column)
	return ok, nil
}

// IsPartitionKey reports whether column is part of the table's partition key.
func (i *Introspector) IsPartitionKey(ctx context.Context, table, column string) (bool, error) {
	t, err := i.table(ctx, table)
	if err != nil {
		return false, err
	}
	c, ok := t.Column(column)
	return ok && c.Kind == KindPartitionKey, nil
}

// CompositeTypeExists reports whether the user-defined type exists.
func (i *Introspector) CompositeTypeExists(ctx context.Context, name string) (bool, error) {
	t, err := i.reader.CompositeType(ctx, normalize(name))
	if err != nil {
		return false, fmt.Errorf("failed to read type %q: %w", name, err)
	}
	return t != nil, nil
}

// CompositeColumnExists reports whether the user-defined type has the field.
// It fails with ErrObjectNotFound when the type is absent.
func (i *Introspector) CompositeColumnExists(ctx context.Context, typeName, field string) (bool, error) {
	t, err := i.reader.CompositeType(ctx, normalize(typeName))
	if err != nil {
		return false, fmt.Errorf("failed to read type %q: %w", typeName, err)
	}
	if t == nil {
		return false, i.ref(schemaerr.KindCompositeType, typeName).NotFound()
	}
	return t.HasField(field), nil
}

// MaterializedViewExists reports whether the view exists.
func (i *Introspector) MaterializedViewExists(ctx context.Context, view string) (bool, error) {
	v, err := i.reader.MaterializedView(ctx, normalize(view))
	if err != nil {
		return false, fmt.Errorf("failed to read materialized view %q: %w", view, err)
	}
	return v != nil, nil
}

// MaterializedViewColumnExists reports whether the view has the column. It
// fails with ErrObjectNotFound when the view is absent.
func (i *Introspector) MaterializedViewColumnExists(ctx context.Context, view, column string) (bool, error) {
	v, err := i.reader.MaterializedView(ctx, normalize(view))
	if err != nil {
		return false, fmt.Errorf("failed to read materialized view %q: %w", view, err)
	}
	if v == nil {
		return false, i.ref(schemaerr.KindMaterializedView, view).NotFound()
	}
	_, ok := findColumn(v.Columns, column)
	return ok, nil
}

// Table returns the table metadata or ErrObjectNotFound.
func (i *Introspector) Table(ctx context.Context, table string) (*TableMetadata, error) {
	return i.table(ctx, table)
}

func (i *Introspector) table(ctx context.Context, table string) (*TableMetadata, error) {
	t, err := i.reader.Table(ctx, normalize(table))
	if err != nil {
		return nil, fmt.Errorf("failed to read table %q: %w", table, err)
	}
	if t == nil {
		return nil, i.ref(schemaerr.KindTable, table).NotFound()
	}
	return t, nil
}

// Snapshot reads every table, type and view of the keyspace.
func (i *Introspector) Snapshot(ctx context.Context) (*KeyspaceSchema, error) {
	keyspace := i.Keyspace()
	if keyspace == "" {
		return nil, ErrNoKeyspace
	}

	schema := &KeyspaceSchema{Name: keyspace}

	tables, err := i.reader.Tables(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: tables: %w", ErrIntrospectionFailed, err)
	}
	schema.Tables = tables

	types, err := i.reader.CompositeTypes(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: types: %w", ErrIntrospectionFailed, err)
	}
	schema.Types = types

	views, err := i.reader.MaterializedViews(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: views: %w", ErrIntrospectionFailed, err)
	}
	schema.Views = views

	schema.sort()
	return schema, nil
}

func normalize(s string) string {
	return cqltype.Normalize(s)
}
