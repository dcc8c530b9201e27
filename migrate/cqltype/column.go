package cqltype

import "strings"

// Kind is the variant tag of a ColumnType.
type Kind int

const (
	KindScalar Kind = iota
	KindList
	KindMap
	KindComposite
)

func (k Kind) String() string {
	switch k {
	case KindScalar:
		return "scalar"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	case KindComposite:
		return "composite"
	default:
		return "unknown"
	}
}

// ColumnType is a resolved CQL column type.
type ColumnType struct {
	Kind   Kind
	Name   string
	Elem   *ColumnType
	Key    *ColumnType
	Value  *ColumnType
	Frozen bool
}

// Scalar returns a scalar column type.
func Scalar(name string) ColumnType {
	return ColumnType{Kind: KindScalar, Name: name}
}

// List returns a list column type.
func List(elem ColumnType) ColumnType {
	return ColumnType{Kind: KindList, Name: "list", Elem: &elem}
}

// Map returns a map column type.
func Map(key, value ColumnType) ColumnType {
	return ColumnType{Kind: KindMap, Name: "map", Key: &key, Value: &value}
}

// Composite returns a user-defined type reference.
func Composite(name string, frozen bool) ColumnType {
	return ColumnType{Kind: KindComposite, Name: name, Frozen: frozen}
}

// Freeze returns a copy marked frozen. Scalars are never frozen.
func (c ColumnType) Freeze() ColumnType {
	if c.Kind != KindScalar {
		c.Frozen = true
	}
	return c
}

// IsScalar reports whether the type is a primitive.
func (c ColumnType) IsScalar() bool {
	return c.Kind == KindScalar
}

// String renders the type in CQL grammar.
func (c ColumnType) String() string {
	var b strings.Builder
	c.write(&b)
	return b.String()
}

func (c ColumnType) write(b *strings.Builder) {
	if c.Frozen && c.Kind != KindScalar {
		b.WriteString("frozen<")
		defer b.WriteString(">")
	}

	switch c.Kind {
	case KindList:
		b.WriteString("list<")
		c.Elem.write(b)
		b.WriteString(">")
	case KindMap:
		b.WriteString("map<")
		c.Key.write(b)
		b.WriteString(",")
		c.Value.write(b)
		b.WriteString(">")
	default:
		b.WriteString(c.Name)
	}
}
