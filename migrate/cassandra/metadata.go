package cassandra

import (
	"context"
	"errors"
	"fmt"

	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/satishbabariya/cqlmigrate/migrate/introspect"
)

const (
	selectTable   = "SELECT table_name FROM system_schema.tables WHERE keyspace_name = ? AND table_name = ?"
	selectTables  = "SELECT table_name FROM system_schema.tables WHERE keyspace_name = ?"
	selectColumns = `SELECT table_name, column_name, type, kind, position, clustering_order
		FROM system_schema.columns WHERE keyspace_name = ?`
	selectTableColumns = `SELECT table_name, column_name, type, kind, position, clustering_order
		FROM system_schema.columns WHERE keyspace_name = ? AND table_name = ?`
	selectType  = "SELECT type_name, field_names, field_types FROM system_schema.types WHERE keyspace_name = ? AND type_name = ?"
	selectTypes = "SELECT type_name, field_names, field_types FROM system_schema.types WHERE keyspace_name = ?"
	selectView  = "SELECT view_name, base_table_name FROM system_schema.views WHERE keyspace_name = ? AND view_name = ?"
	selectViews = "SELECT view_name, base_table_name FROM system_schema.views WHERE keyspace_name = ?"
)

// Table implements introspect.MetadataReader.
func (s *Session) Table(ctx context.Context, name string) (*introspect.TableMetadata, error) {
	var found string
	err := s.admin.Query(selectTable, s.keyspace, name).ScanContext(ctx, &found)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read table %s.%s: %w", s.keyspace, name, err)
	}

	columns, err := s.columns(ctx, selectTableColumns, s.keyspace, name)
	if err != nil {
		return nil, err
	}
	return &introspect.TableMetadata{Name: found, Columns: columns[found]}, nil
}

// Tables implements introspect.MetadataReader.
func (s *Session) Tables(ctx context.Context) ([]introspect.TableMetadata, error) {
	iter := s.admin.Query(selectTables, s.keyspace).IterContext(ctx)
	var names []string
	var name string
	for iter.Scan(&name) {
		names = append(names, name)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to fetch tables: %w", err)
	}

	columns, err := s.columns(ctx, selectColumns, s.keyspace)
	if err != nil {
		return nil, err
	}

	tables := make([]introspect.TableMetadata, 0, len(names))
	for _, n := range names {
		tables = append(tables, introspect.TableMetadata{Name: n, Columns: columns[n]})
	}
	return tables, nil
}

// columns reads system_schema.columns rows grouped by table or view name.
func (s *Session) columns(ctx context.Context, stmt string, args ...any) (map[string][]introspect.Column, error) {
	out := make(map[string][]introspect.Column)

	iter := s.admin.Query(stmt, args...).IterContext(ctx)
	var table, name, colType, kind, order string
	var position int
	for iter.Scan(&table, &name, &colType, &kind, &position, &order) {
		col := introspect.Column{
			Name:     name,
			Type:     colType,
			Kind:     introspect.ParseColumnKind(kind),
			Position: position,
		}
		if col.Kind == introspect.KindClustering && order != "none" {
			col.Order = order
		}
		out[table] = append(out[table], col)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to fetch columns: %w", err)
	}
	return out, nil
}

// CompositeType implements introspect.MetadataReader.
func (s *Session) CompositeType(ctx context.Context, name string) (*introspect.TypeMetadata, error) {
	var t introspect.TypeMetadata
	err := s.admin.Query(selectType, s.keyspace, name).ScanContext(ctx, &t.Name, &t.FieldNames, &t.FieldTypes)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read type %s.%s: %w", s.keyspace, name, err)
	}
	return &t, nil
}

// CompositeTypes implements introspect.MetadataReader.
func (s *Session) CompositeTypes(ctx context.Context) ([]introspect.TypeMetadata, error) {
	iter := s.admin.Query(selectTypes, s.keyspace).IterContext(ctx)
	var types []introspect.TypeMetadata
	var name string
	var fieldNames, fieldTypes []string
	for iter.Scan(&name, &fieldNames, &fieldTypes) {
		types = append(types, introspect.TypeMetadata{
			Name:       name,
			FieldNames: append([]string(nil), fieldNames...),
			FieldTypes: append([]string(nil), fieldTypes...),
		})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to fetch types: %w", err)
	}
	return types, nil
}

// MaterializedView implements introspect.MetadataReader.
func (s *Session) MaterializedView(ctx context.Context, name string) (*introspect.ViewMetadata, error) {
	var v introspect.ViewMetadata
	err := s.admin.Query(selectView, s.keyspace, name).ScanContext(ctx, &v.Name, &v.BaseTable)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read view %s.%s: %w", s.keyspace, name, err)
	}

	columns, err := s.columns(ctx, selectTableColumns, s.keyspace, v.Name)
	if err != nil {
		return nil, err
	}
	v.Columns = columns[v.Name]
	return &v, nil
}

// MaterializedViews implements introspect.MetadataReader.
func (s *Session) MaterializedViews(ctx context.Context) ([]introspect.ViewMetadata, error) {
	iter := s.admin.Query(selectViews, s.keyspace).IterContext(ctx)
	var views []introspect.ViewMetadata
	var name, base string
	for iter.Scan(&name, &base) {
		views = append(views, introspect.ViewMetadata{Name: name, BaseTable: base})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to fetch views: %w", err)
	}
	if len(views) == 0 {
		return views, nil
	}

	columns, err := s.columns(ctx, selectColumns, s.keyspace)
	if err != nil {
		return nil, err
	}
	for i := range views {
		views[i].Columns = columns[views[i].Name]
	}
	return views, nil
}
