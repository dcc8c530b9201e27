// Package cqlgen renders the CQL DDL statements issued by the executor.
package cqlgen

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/satishbabariya/cqlmigrate/migrate/schemaerr"
)

// Field is a column or user-defined type field with its rendered CQL type.
type Field struct {
	Name string
	Type string
}

// AddColumn renders ALTER TABLE ... ADD.
func AddColumn(table, column, cqlType string) string {
	return fmt.Sprintf("ALTER TABLE %s ADD %s %s;", Ident(table), Ident(column), cqlType)
}

// AlterColumnType renders ALTER TABLE ... ALTER ... TYPE.
func AlterColumnType(table, column, cqlType string) string {
	return fmt.Sprintf("ALTER TABLE %s ALTER %s TYPE %s;", Ident(table), Ident(column), cqlType)
}

// RenameColumn renders ALTER TABLE ... RENAME ... TO.
func RenameColumn(table, oldName, newName string) string {
	return fmt.Sprintf("ALTER TABLE %s RENAME %s TO %s", Ident(table), Ident(oldName), Ident(newName))
}

// DropColumn renders ALTER TABLE ... DROP.
func DropColumn(table, column string) string {
	return fmt.Sprintf("ALTER TABLE %s DROP %s;", Ident(table), Ident(column))
}

// CreateType renders CREATE TYPE IF NOT EXISTS with its fields in order.
func CreateType(name string, fields []Field) string {
	return fmt.Sprintf("CREATE TYPE IF NOT EXISTS %s ( %s );", Ident(name), joinFields(fields))
}

// DropType renders DROP TYPE IF EXISTS.
func DropType(name string) string {
	return fmt.Sprintf("DROP TYPE IF EXISTS %s;", Ident(name))
}

// AlterTypeAdd renders ALTER TYPE ... ADD.
func AlterTypeAdd(name, field, cqlType string) string {
	return fmt.Sprintf("ALTER TYPE %s ADD %s %s;", Ident(name), Ident(field), cqlType)
}

// AlterTypeRename renders ALTER TYPE ... RENAME ... TO.
func AlterTypeRename(name, oldField, newField string) string {
	return fmt.Sprintf("ALTER TYPE %s RENAME %s TO %s", Ident(name), Ident(oldField), Ident(newField))
}

// CreateTable renders CREATE TABLE IF NOT EXISTS. At least one partition key
// column is required and every key column must be declared.
func CreateTable(name string, columns []Field, partitionKey, clusteringKey []string) (string, error) {
	if len(columns) == 0 {
		return "", schemaerr.Invalid("create table", "table %q declares no columns", name)
	}
	if len(partitionKey) == 0 {
		return "", schemaerr.Invalid("create table", "table %q declares no partition key", name)
	}

	declared := make(map[string]bool, len(columns))
	for _, c := range columns {
		declared[strings.ToLower(c.Name)] = true
	}
	for _, k := range append(append([]string(nil), partitionKey...), clusteringKey...) {
		if !declared[strings.ToLower(k)] {
			return "", schemaerr.Invalid("create table", "key column %q is not declared on table %q", k, name)
		}
	}

	key := "(" + joinIdents(partitionKey) + ")"
	if len(clusteringKey) > 0 {
		key += ", " + joinIdents(clusteringKey)
	}
	return fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s ( %s, PRIMARY KEY (%s) );", Ident(name), joinFields(columns), key), nil
}

func joinFields(fields []Field) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = Ident(f.Name) + " " + f.Type
	}
	return strings.Join(parts, ", ")
}

func joinIdents(names []string) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = Ident(n)
	}
	return strings.Join(parts, ", ")
}

var plainIdent = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

var reserved = map[string]bool{
	"add": true, "allow": true, "alter": true, "and": true, "apply": true,
	"asc": true, "authorize": true, "batch": true, "begin": true, "by": true,
	"columnfamily": true, "create": true, "delete": true, "desc": true, "drop": true,
	"from": true, "grant": true, "in": true, "index": true, "infinity": true,
	"insert": true, "into": true, "keyspace": true, "limit": true, "modify": true,
	"nan": true, "norecursive": true, "not": true, "of": true, "on": true,
	"order": true, "primary": true, "rename": true, "revoke": true, "schema": true,
	"select": true, "set": true, "table": true, "to": true, "token": true,
	"truncate": true, "unlogged": true, "update": true, "use": true, "using": true,
	"where": true, "with": true,
}

// Ident renders an identifier, double quoting it only when it is not a plain
// lowercase name or collides with a reserved word.
func Ident(name string) string {
	if plainIdent.MatchString(name) && !reserved[name] {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
