package schemaerr

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNotFoundMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("drop column: %w", NotFound(KindTable, "doesnotexist", "app"))

	assert.True(t, errors.Is(err, ErrObjectNotFound))
	assert.False(t, errors.Is(err, ErrInvalidOperation))
	assert.Contains(t, err.Error(), `table "doesnotexist" not found in keyspace "app"`)

	var nf *NotFoundError
	assert.True(t, errors.As(err, &nf))
	assert.Equal(t, KindTable, nf.Kind)
	assert.Equal(t, "app", nf.Keyspace)
}

func TestNotFoundWithParent(t *testing.T) {
	err := &NotFoundError{Kind: KindField, Name: "missing", Parent: "users"}
	assert.Equal(t, `field "missing" not found in "users"`, err.Error())
}

func TestInvalidMatchesSentinel(t *testing.T) {
	err := Invalid("rename column", "column %q is not a partition key", "id")

	assert.True(t, errors.Is(err, ErrInvalidOperation))
	assert.Contains(t, err.Error(), `"id"`)
}

func TestUnsupported(t *testing.T) {
	err := Unsupported("tuple", "generic arity 3")
	assert.True(t, errors.Is(err, ErrUnsupportedType))
	assert.Contains(t, err.Error(), "tuple")
}
