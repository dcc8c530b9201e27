package introspect

import (
	"sort"
	"strings"
)

// ColumnKind is the role of a column in its table, as reported by
// system_schema.columns.
type ColumnKind string

const (
	KindPartitionKey ColumnKind = "partition_key"
	KindClustering   ColumnKind = "clustering"
	KindRegular      ColumnKind = "regular"
	KindStatic       ColumnKind = "static"
)

// Column represents a table or view column
type Column struct {
	Name     string     `json:"name"`
	Type     string     `json:"type"`
	Kind     ColumnKind `json:"kind"`
	Position int        `json:"position"`
	// Order is the clustering order, "asc" or "desc". Empty for other kinds.
	Order string `json:"order,omitempty"`
}

// TableMetadata represents a table
type TableMetadata struct {
	Name    string   `json:"name"`
	Columns []Column `json:"columns"`
}

// Column returns the named column.
func (t *TableMetadata) Column(name string) (Column, bool) {
	return findColumn(t.Columns, name)
}

// PartitionKey returns the partition key column names ordered by position.
func (t *TableMetadata) PartitionKey() []string {
	return keyColumns(t.Columns, KindPartitionKey)
}

// ClusteringKey returns the clustering column names ordered by position.
func (t *TableMetadata) ClusteringKey() []string {
	return keyColumns(t.Columns, KindClustering)
}

// TypeMetadata represents a user-defined type. FieldNames and FieldTypes are parallel.
type TypeMetadata struct {
	Name       string   `json:"name"`
	FieldNames []string `json:"field_names"`
	FieldTypes []string `json:"field_types"`
}

// HasField reports whether the type declares the field.
func (t *TypeMetadata) HasField(name string) bool {
	want := normalize(name)
	for _, f := range t.FieldNames {
		if normalize(f) == want {
			return true
		}
	}
	return false
}

// ViewMetadata represents a materialized view
type ViewMetadata struct {
	Name      string   `json:"name"`
	BaseTable string   `json:"base_table"`
	Columns   []Column `json:"columns"`
}

// KeyspaceSchema is a point in time snapshot of a keyspace.
type KeyspaceSchema struct {
	Name   string          `json:"keyspace"`
	Tables []TableMetadata `json:"tables"`
	Types  []TypeMetadata  `json:"types"`
	Views  []ViewMetadata  `json:"views"`
}

// Table returns the named table from the snapshot.
func (s *KeyspaceSchema) Table(name string) *TableMetadata {
	want := normalize(name)
	for i := range s.Tables {
		if normalize(s.Tables[i].Name) == want {
			return &s.Tables[i]
		}
	}
	return nil
}

func (s *KeyspaceSchema) sort() {
	sort.Slice(s.Tables, func(i, j int) bool { return s.Tables[i].Name < s.Tables[j].Name })
	sort.Slice(s.Types, func(i, j int) bool { return s.Types[i].Name < s.Types[j].Name })
	sort.Slice(s.Views, func(i, j int) bool { return s.Views[i].Name < s.Views[j].Name })
	for i := range s.Tables {
		SortColumns(s.Tables[i].Columns)
	}
	for i := range s.Views {
		SortColumns(s.Views[i].Columns)
	}
}

var kindRank = map[ColumnKind]int{
	KindPartitionKey: 0,
	KindClustering:   1,
	KindStatic:       2,
	KindRegular:      3,
}

// SortColumns orders columns the way DESCRIBE does: partition key, clustering
// columns, then the rest by name.
func SortColumns(cols []Column) {
	sort.SliceStable(cols, func(i, j int) bool {
		a, b := cols[i], cols[j]
		if kindRank[a.Kind] != kindRank[b.Kind] {
			return kindRank[a.Kind] < kindRank[b.Kind]
		}
		if a.Kind == KindPartitionKey || a.Kind == KindClustering {
			return a.Position < b.Position
		}
		return a.Name < b.Name
	})
}

func findColumn(cols []Column, name string) (Column, bool) {
	want := normalize(name)
	for _, c := range cols {
		if normalize(c.Name) == want {
			return c, true
		}
	}
	return Column{}, false
}

func keyColumns(cols []Column, kind ColumnKind) []string {
	var keyed []Column
	for _, c := range cols {
		if c.Kind == kind {
			keyed = append(keyed, c)
		}
	}
	sort.SliceStable(keyed, func(i, j int) bool { return keyed[i].Position < keyed[j].Position })

	names := make([]string, len(keyed))
	for i, c := range keyed {
		names[i] = c.Name
	}
	return names
}

// ParseColumnKind maps a system_schema kind string to a ColumnKind.
func ParseColumnKind(s string) ColumnKind {
	switch strings.ToLower(s) {
	case "partition_key":
		return KindPartitionKey
	case "clustering":
		return KindClustering
	case "static":
		return KindStatic
	default:
		return KindRegular
	}
}
