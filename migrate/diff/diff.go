// Package diff compares keyspace snapshots.
package diff

import (
	"fmt"
	"sort"
	"strings"

	"github.com/satishbabariya/cqlmigrate/migrate/introspect"
)

// ChangeType represents the type of change
type ChangeType string

const (
	ChangeTypeCreateTable ChangeType = "CreateTable"
	ChangeTypeDropTable   ChangeType = "DropTable"
	ChangeTypeAddColumn   ChangeType = "AddColumn"
	ChangeTypeDropColumn  ChangeType = "DropColumn"
	ChangeTypeAlterColumn ChangeType = "AlterColumn"
	ChangeTypeCreateType  ChangeType = "CreateType"
	ChangeTypeDropType    ChangeType = "DropType"
	ChangeTypeAddField    ChangeType = "AddField"
	ChangeTypeDropField   ChangeType = "DropField"
	ChangeTypeAlterField  ChangeType = "AlterField"
	ChangeTypeCreateView  ChangeType = "CreateView"
	ChangeTypeDropView    ChangeType = "DropView"
)

// Change is one difference between two snapshots, phrased as what would turn
// the first into the second.
type Change struct {
	Type ChangeType
	// Object is the table, type or view name.
	Object string
	// Member is the column or field name, empty for whole-object changes.
	Member      string
	Description string
}

func (c Change) String() string {
	return c.Description
}

// DiffResult holds the changes between two snapshots
type DiffResult struct {
	Changes []Change
}

// Empty reports whether the snapshots match.
func (r *DiffResult) Empty() bool {
	return len(r.Changes) == 0
}

// Objects returns the names of the changed objects, sorted.
func (r *DiffResult) Objects() []string {
	seen := make(map[string]bool)
	var out []string
	for _, c := range r.Changes {
		if !seen[c.Object] {
			seen[c.Object] = true
			out = append(out, c.Object)
		}
	}
	sort.Strings(out)
	return out
}

// Diff returns the changes that turn from into to. Names are compared
// case-insensitively. Changes are ordered by kind (types, tables, views), then
// by object and member name.
func Diff(from, to *introspect.KeyspaceSchema) *DiffResult {
	if from == nil {
		from = &introspect.KeyspaceSchema{}
	}
	if to == nil {
		to = &introspect.KeyspaceSchema{}
	}

	r := &DiffResult{}
	r.diffTypes(from.Types, to.Types)
	r.diffTables(from.Tables, to.Tables)
	r.diffViews(from.Views, to.Views)
	return r
}

func (r *DiffResult) add(t ChangeType, object, member, format string, args ...any) {
	r.Changes = append(r.Changes, Change{
		Type:        t,
		Object:      object,
		Member:      member,
		Description: fmt.Sprintf(format, args...),
	})
}

func (r *DiffResult) diffTypes(from, to []introspect.TypeMetadata) {
	prev := indexBy(from, func(t introspect.TypeMetadata) string { return t.Name })
	next := indexBy(to, func(t introspect.TypeMetadata) string { return t.Name })

	for _, name := range unionKeys(prev, next) {
		p, inPrev := prev[name]
		n, inNext := next[name]
		switch {
		case !inPrev:
			r.add(ChangeTypeCreateType, name, "", "type %s is created", name)
		case !inNext:
			r.add(ChangeTypeDropType, name, "", "type %s is dropped", name)
		default:
			pf := fieldMap(p)
			nf := fieldMap(n)
			for _, field := range unionKeys(pf, nf) {
				pt, ok1 := pf[field]
				nt, ok2 := nf[field]
				switch {
				case !ok1:
					r.add(ChangeTypeAddField, name, field, "type %s gains field %s %s", name, field, nt)
				case !ok2:
					r.add(ChangeTypeDropField, name, field, "type %s loses field %s", name, field)
				case pt != nt:
					r.add(ChangeTypeAlterField, name, field, "type %s field %s changes from %s to %s", name, field, pt, nt)
				}
			}
		}
	}
}

func (r *DiffResult) diffTables(from, to []introspect.TableMetadata) {
	prev := indexBy(from, func(t introspect.TableMetadata) string { return t.Name })
	next := indexBy(to, func(t introspect.TableMetadata) string { return t.Name })

	for _, name := range unionKeys(prev, next) {
		p, inPrev := prev[name]
		n, inNext := next[name]
		switch {
		case !inPrev:
			r.add(ChangeTypeCreateTable, name, "", "table %s is created", name)
		case !inNext:
			r.add(ChangeTypeDropTable, name, "", "table %s is dropped", name)
		default:
			r.diffColumns("table", name, p.Columns, n.Columns)
		}
	}
}

func (r *DiffResult) diffViews(from, to []introspect.ViewMetadata) {
	prev := indexBy(from, func(v introspect.ViewMetadata) string { return v.Name })
	next := indexBy(to, func(v introspect.ViewMetadata) string { return v.Name })

	for _, name := range unionKeys(prev, next) {
		p, inPrev := prev[name]
		n, inNext := next[name]
		switch {
		case !inPrev:
			r.add(ChangeTypeCreateView, name, "", "materialized view %s on %s is created", name, n.BaseTable)
		case !inNext:
			r.add(ChangeTypeDropView, name, "", "materialized view %s is dropped", name)
		default:
			r.diffColumns("materialized view", name, p.Columns, n.Columns)
		}
	}
}

func (r *DiffResult) diffColumns(kind, object string, from, to []introspect.Column) {
	prev := indexBy(from, func(c introspect.Column) string { return c.Name })
	next := indexBy(to, func(c introspect.Column) string { return c.Name })

	for _, name := range unionKeys(prev, next) {
		p, inPrev := prev[name]
		n, inNext := next[name]
		switch {
		case !inPrev:
			r.add(ChangeTypeAddColumn, object, name, "%s %s gains column %s %s", kind, object, name, n.Type)
		case !inNext:
			r.add(ChangeTypeDropColumn, object, name, "%s %s loses column %s", kind, object, name)
		default:
			if desc := columnChange(p, n); desc != "" {
				r.add(ChangeTypeAlterColumn, object, name, "%s %s column %s %s", kind, object, name, desc)
			}
		}
	}
}

// columnChange describes how a column changed, or returns "".
func columnChange(prev, next introspect.Column) string {
	var parts []string
	if normalize(prev.Type) != normalize(next.Type) {
		parts = append(parts, fmt.Sprintf("changes type from %s to %s", prev.Type, next.Type))
	}
	if prev.Kind != next.Kind {
		parts = append(parts, fmt.Sprintf("changes kind from %s to %s", prev.Kind, next.Kind))
	} else if prev.Kind != introspect.KindRegular && prev.Kind != introspect.KindStatic && prev.Position != next.Position {
		parts = append(parts, fmt.Sprintf("moves from key position %d to %d", prev.Position, next.Position))
	}
	if prev.Order != next.Order {
		parts = append(parts, fmt.Sprintf("changes clustering order from %s to %s", orDefault(prev.Order), orDefault(next.Order)))
	}
	return strings.Join(parts, ", ")
}

func fieldMap(t introspect.TypeMetadata) map[string]string {
	out := make(map[string]string, len(t.FieldNames))
	for i, f := range t.FieldNames {
		typ := ""
		if i < len(t.FieldTypes) {
			typ = t.FieldTypes[i]
		}
		out[normalize(f)] = typ
	}
	return out
}

func indexBy[T any](items []T, name func(T) string) map[string]T {
	out := make(map[string]T, len(items))
	for _, item := range items {
		out[normalize(name(item))] = item
	}
	return out
}

func unionKeys[T any](a, b map[string]T) []string {
	keys := make([]string, 0, len(a)+len(b))
	for k := range a {
		keys = append(keys, k)
	}
	for k := range b {
		if _, ok := a[k]; !ok {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func orDefault(order string) string {
	if order == "" {
		return "none"
	}
	return order
}
