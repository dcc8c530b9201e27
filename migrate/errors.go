package migrate

import (
	"errors"

	"github.com/satishbabariya/cqlmigrate/migrate/schemaerr"
)

var (
	// ErrInvalidCatalog is returned by New when two migrations share a name or
	// a version.
	ErrInvalidCatalog = errors.New("invalid migration catalog")

	ErrObjectNotFound   = schemaerr.ErrObjectNotFound
	ErrInvalidOperation = schemaerr.ErrInvalidOperation
	ErrUnsupportedType  = schemaerr.ErrUnsupportedType
)
