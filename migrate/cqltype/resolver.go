package cqltype

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/satishbabariya/cqlmigrate/migrate/schemaerr"
)

// Placeholders returned by the scalar table for collection names. They mean
// "not a scalar" and make resolution fall through to the collection tier.
const (
	placeholderList = "list"
	placeholderMap  = "map"
)

// scalarTypes maps normalized host type names to CQL types.
var scalarTypes = map[string]string{
	// text
	"string": "text",
	"text":   "text",
	"ascii":  "ascii",

	// integers
	"int":      "int",
	"int32":    "int",
	"rune":     "int",
	"int64":    "bigint",
	"long":     "bigint",
	"bigint":   "bigint",
	"counter":  "counter",
	"int16":    "smallint",
	"short":    "smallint",
	"smallint": "smallint",
	"int8":     "tinyint",
	"sbyte":    "tinyint",
	"tinyint":  "tinyint",

	// arbitrary precision
	"decimal":    "decimal",
	"inf.dec":    "decimal",
	"biginteger": "varint",
	"big.int":    "varint",
	"varint":     "varint",

	// floating point
	"float":   "float",
	"float32": "float",
	"single":  "float",
	"double":  "double",
	"float64": "double",

	// boolean
	"bool":    "boolean",
	"boolean": "boolean",

	// identifiers
	"uuid":       "uuid",
	"guid":       "uuid",
	"uuid.uuid":  "uuid",
	"gocql.uuid": "uuid",
	"timeuuid":   "timeuuid",

	// date and time
	"timestamp":      "timestamp",
	"datetime":       "timestamp",
	"datetimeoffset": "timestamp",
	"time.time":      "timestamp",
	"localdate":      "date",
	"date":           "date",
	"localtime":      "time",
	"time":           "time",
	"duration":       "duration",
	"time.duration":  "duration",

	// binary
	"blob":    "blob",
	"byte":    "blob",
	"byte[]":  "blob",
	"[]byte":  "blob",
	"[]uint8": "blob",

	// network
	"inet":      "inet",
	"ipaddress": "inet",
	"net.ip":    "inet",

	// collection shapes
	"list":        placeholderList,
	"ilist":       placeholderList,
	"hashset":     placeholderList,
	"ienumerable": placeholderList,
	"icollection": placeholderList,
	"slice":       placeholderList,
	"array":       placeholderList,
	"set":         placeholderList,
	"map":         placeholderMap,
	"idictionary": placeholderMap,
	"dictionary":  placeholderMap,
}

var arityMarker = regexp.MustCompile("`\\d+")

// Resolver maps host types to CQL column types.
type Resolver struct {
	scalars map[string]string
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithScalar registers an additional scalar alias, e.g. a domain specific type
// that is stored as text.
func WithScalar(hostName, cqlType string) Option {
	return func(r *Resolver) {
		r.scalars[normalizeTypeName(hostName)] = Normalize(cqlType)
	}
}

// NewResolver creates a resolver with the built-in scalar table.
func NewResolver(opts ...Option) *Resolver {
	r := &Resolver{scalars: make(map[string]string, len(scalarTypes))}
	for k, v := range scalarTypes {
		r.scalars[k] = v
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

var defaultResolver = NewResolver()

// Resolve maps t with the default resolver.
func Resolve(t HostType, frozen bool) (string, error) {
	return defaultResolver.Resolve(t, frozen)
}

// ResolveField resolves a named field of t with the default resolver.
func ResolveField(t HostType, column string, frozen bool) (string, error) {
	return defaultResolver.ResolveField(t, column, frozen)
}

// Resolve maps t to its CQL type string.
func (r *Resolver) Resolve(t HostType, frozen bool) (string, error) {
	ct, err := r.ColumnType(t, frozen)
	if err != nil {
		return "", err
	}
	return ct.String(), nil
}

// ResolveField looks up column on t's fields and resolves that field's type.
func (r *Resolver) ResolveField(t HostType, column string, frozen bool) (string, error) {
	field, ok := lookupField(t.Fields, column)
	if !ok {
		return "", &schemaerr.NotFoundError{
			Kind:   schemaerr.KindField,
			Name:   Normalize(column),
			Parent: Normalize(t.Name),
		}
	}
	return r.Resolve(field.Type, frozen || field.Frozen)
}

// IsScalar reports whether t resolves through the scalar tier.
func (r *Resolver) IsScalar(t HostType) bool {
	cql, ok := r.scalars[normalizeTypeName(t.Name)]
	return ok && cql != placeholderList && cql != placeholderMap
}

type tier func(r *Resolver, name string, t HostType, frozen bool) (ColumnType, bool, error)

// ColumnType resolves t to a structured column type.
func (r *Resolver) ColumnType(t HostType, frozen bool) (ColumnType, error) {
	name := normalizeTypeName(t.Name)
	if name == "" {
		return ColumnType{}, schemaerr.Unsupported(t.Name, "empty type name")
	}

	// the composite tier always yields for a valid name
	tiers := [...]tier{
		(*Resolver).scalarTier,
		(*Resolver).collectionTier,
		(*Resolver).compositeTier,
	}
	for _, try := range tiers {
		ct, ok, err := try(r, name, t, frozen)
		if err != nil {
			return ColumnType{}, err
		}
		if ok {
			return ct, nil
		}
	}
	return ColumnType{}, schemaerr.Unsupported(t.Name, "")
}

func (r *Resolver) scalarTier(name string, t HostType, _ bool) (ColumnType, bool, error) {
	cql, ok := r.scalars[name]
	if !ok || cql == "" || cql == placeholderList || cql == placeholderMap {
		return ColumnType{}, false, nil
	}
	if len(t.Args) > 0 {
		return ColumnType{}, false, schemaerr.Unsupported(t.Name, "scalar types take no type arguments")
	}
	return Scalar(cql), true, nil
}

func (r *Resolver) collectionTier(name string, t HostType, frozen bool) (ColumnType, bool, error) {
	switch r.scalars[name] {
	case placeholderList:
		if len(t.Args) != 1 {
			return ColumnType{}, false, schemaerr.Unsupported(t.Name, fmt.Sprintf("list-like types take exactly 1 type argument, got %d", len(t.Args)))
		}
		elem, err := r.ColumnType(t.Args[0], true)
		if err != nil {
			return ColumnType{}, false, err
		}
		ct := List(elem)
		ct.Frozen = frozen
		return ct, true, nil

	case placeholderMap:
		if len(t.Args) != 2 {
			return ColumnType{}, false, schemaerr.Unsupported(t.Name, fmt.Sprintf("map-like types take exactly 2 type arguments, got %d", len(t.Args)))
		}
		key, err := r.ColumnType(t.Args[0], true)
		if err != nil {
			return ColumnType{}, false, err
		}
		value, err := r.ColumnType(t.Args[1], true)
		if err != nil {
			return ColumnType{}, false, err
		}
		ct := Map(key, value)
		ct.Frozen = frozen
		return ct, true, nil
	}
	return ColumnType{}, false, nil
}

func (r *Resolver) compositeTier(name string, t HostType, frozen bool) (ColumnType, bool, error) {
	if len(t.Args) > 0 {
		return ColumnType{}, false, schemaerr.Unsupported(t.Name, fmt.Sprintf("generic type with %d arguments is not a collection", len(t.Args)))
	}
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		name = name[i+1:]
	}
	if name == "" || strings.ContainsAny(name, "[]<>, ") {
		return ColumnType{}, false, schemaerr.Unsupported(t.Name, "not a valid composite type name")
	}
	return Composite(name, frozen), true, nil
}

// normalizeTypeName lowercases and trims a host type name and strips arity
// markers ("List`1"), Go type parameter lists ("Set[T]") and pointer stars.
func normalizeTypeName(name string) string {
	name = strings.TrimLeft(strings.TrimSpace(name), "*")
	name = arityMarker.ReplaceAllString(name, "")
	if i := strings.IndexByte(name, '['); i > 0 {
		name = name[:i]
	}
	return Normalize(name)
}
