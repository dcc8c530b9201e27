// Package cqltype maps host value types to CQL column types.
//
// Host types are described statically with HostType values (or built once from
// Go structs with Describe) instead of being reflected on every call.
package cqltype

import "strings"

// HostType describes a host value type: its name, its generic arguments and,
// for structured types, the fields it declares.
type HostType struct {
	Name   string
	Args   []HostType
	Fields []FieldDescriptor
}

// FieldDescriptor is the declared structure of one field of an entity.
type FieldDescriptor struct {
	Name          string
	Type          HostType
	PartitionKey  bool
	ClusteringKey bool
	Frozen        bool
}

// Entity is a named set of fields used as a table or composite type definition.
type Entity struct {
	Name   string
	Fields []FieldDescriptor
}

// Well known host types.
var (
	String    = Named("string")
	Bool      = Named("bool")
	Int       = Named("int")
	Int8      = Named("int8")
	Int16     = Named("int16")
	Int32     = Named("int32")
	Int64     = Named("int64")
	Float32   = Named("float32")
	Float64   = Named("float64")
	Decimal   = Named("decimal")
	Varint    = Named("biginteger")
	UUID      = Named("uuid")
	TimeUUID  = Named("timeuuid")
	Timestamp = Named("timestamp")
	Date      = Named("localdate")
	Time      = Named("localtime")
	Duration  = Named("duration")
	Blob      = Named("[]byte")
	Inet      = Named("inet")
)

// Named returns a host type with the given name and optional fields.
func Named(name string, fields ...FieldDescriptor) HostType {
	return HostType{Name: name, Fields: fields}
}

// ListOf returns a list shaped host type.
func ListOf(elem HostType) HostType {
	return HostType{Name: "list", Args: []HostType{elem}}
}

// SetOf returns a set shaped host type. Sets are stored as CQL lists.
func SetOf(elem HostType) HostType {
	return HostType{Name: "set", Args: []HostType{elem}}
}

// MapOf returns a map shaped host type.
func MapOf(key, value HostType) HostType {
	return HostType{Name: "map", Args: []HostType{key, value}}
}

// Generic returns a host type with arbitrary generic arguments.
func Generic(name string, args ...HostType) HostType {
	return HostType{Name: name, Args: args}
}

// Field declares a regular field.
func Field(name string, t HostType) FieldDescriptor {
	return FieldDescriptor{Name: name, Type: t}
}

// Partition returns a copy of the field marked as partition key.
func (f FieldDescriptor) Partition() FieldDescriptor {
	f.PartitionKey = true
	return f
}

// Clustering returns a copy of the field marked as clustering key.
func (f FieldDescriptor) Clustering() FieldDescriptor {
	f.ClusteringKey = true
	return f
}

// AsFrozen returns a copy of the field whose type is always frozen.
func (f FieldDescriptor) AsFrozen() FieldDescriptor {
	f.Frozen = true
	return f
}

// NewEntity creates an entity descriptor.
func NewEntity(name string, fields ...FieldDescriptor) Entity {
	return Entity{Name: name, Fields: fields}
}

// HostType returns the entity as a structured host type.
func (e Entity) HostType() HostType {
	return HostType{Name: e.Name, Fields: e.Fields}
}

// TableName returns the normalized name of the entity.
func (e Entity) TableName() string {
	return Normalize(e.Name)
}

// WithName returns a copy of the entity with a different name.
func (e Entity) WithName(name string) Entity {
	e.Name = name
	return e
}

// PartitionKeys returns the normalized names of the partition key fields, in declaration order.
func (e Entity) PartitionKeys() []string {
	var keys []string
	for _, f := range e.Fields {
		if f.PartitionKey {
			keys = append(keys, Normalize(f.Name))
		}
	}
	return keys
}

// ClusteringKeys returns the normalized names of the clustering key fields, in declaration order.
func (e Entity) ClusteringKeys() []string {
	var keys []string
	for _, f := range e.Fields {
		if f.ClusteringKey {
			keys = append(keys, Normalize(f.Name))
		}
	}
	return keys
}

// Lookup finds a field by case-insensitive name.
func (e Entity) Lookup(name string) (FieldDescriptor, bool) {
	return lookupField(e.Fields, name)
}

func lookupField(fields []FieldDescriptor, name string) (FieldDescriptor, bool) {
	want := Normalize(name)
	for _, f := range fields {
		if Normalize(f.Name) == want {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// Normalize trims and lowercases an identifier the way the database does.
func Normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
