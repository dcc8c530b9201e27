// Package schemaerr defines the error taxonomy shared by the resolver, the
// introspector, the DDL executor and the migration engine.
package schemaerr

import (
	"errors"
	"fmt"
)

var (
	// ErrObjectNotFound is returned when a table, composite type, materialized
	// view, column or entity field does not exist where existence is required.
	ErrObjectNotFound = errors.New("object not found")

	// ErrInvalidOperation is returned when a schema change is rejected before
	// any DDL is issued (rename collisions, renaming non partition key columns).
	ErrInvalidOperation = errors.New("invalid operation")

	// ErrUnsupportedType is returned when a host type cannot be mapped to a column type.
	ErrUnsupportedType = errors.New("unsupported type")
)

// ObjectKind identifies the kind of schema object an error refers to.
type ObjectKind string

const (
	KindTable            ObjectKind = "table"
	KindCompositeType    ObjectKind = "type"
	KindMaterializedView ObjectKind = "materialized view"
	KindColumn           ObjectKind = "column"
	KindField            ObjectKind = "field"
)

// NotFoundError describes a missing schema object.
type NotFoundError struct {
	Kind     ObjectKind
	Name     string
	Keyspace string
	// Parent is set for columns and fields: the table, type or entity they belong to.
	Parent string
}

func (e *NotFoundError) Error() string {
	switch {
	case e.Parent != "" && e.Keyspace != "":
		return fmt.Sprintf("%s %q not found in %q (keyspace %q)", e.Kind, e.Name, e.Parent, e.Keyspace)
	case e.Parent != "":
		return fmt.Sprintf("%s %q not found in %q", e.Kind, e.Name, e.Parent)
	case e.Keyspace != "":
		return fmt.Sprintf("%s %q not found in keyspace %q", e.Kind, e.Name, e.Keyspace)
	default:
		return fmt.Sprintf("%s %q not found", e.Kind, e.Name)
	}
}

// Is makes NotFoundError match ErrObjectNotFound.
func (e *NotFoundError) Is(target error) bool {
	return target == ErrObjectNotFound
}

// NotFound builds a NotFoundError for a keyspace level object.
func NotFound(kind ObjectKind, name, keyspace string) error {
	return &NotFoundError{Kind: kind, Name: name, Keyspace: keyspace}
}

// InvalidOperationError describes a rejected schema change.
type InvalidOperationError struct {
	Op     string
	Reason string
}

func (e *InvalidOperationError) Error() string {
	return fmt.Sprintf("invalid operation %s: %s", e.Op, e.Reason)
}

// Is makes InvalidOperationError match ErrInvalidOperation.
func (e *InvalidOperationError) Is(target error) bool {
	return target == ErrInvalidOperation
}

// Invalid builds an InvalidOperationError.
func Invalid(op, format string, args ...any) error {
	return &InvalidOperationError{Op: op, Reason: fmt.Sprintf(format, args...)}
}

// Unsupported wraps ErrUnsupportedType with the offending type name.
func Unsupported(typeName, reason string) error {
	if reason == "" {
		return fmt.Errorf("%w: %q", ErrUnsupportedType, typeName)
	}
	return fmt.Errorf("%w: %q: %s", ErrUnsupportedType, typeName, reason)
}
