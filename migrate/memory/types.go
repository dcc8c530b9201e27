package memory

import (
	"strings"

	"github.com/satishbabariya/cqlmigrate/migrate/cqlgen"
)

var nativeTypes = map[string]string{
	"ascii":     "ascii",
	"bigint":    "bigint",
	"blob":      "blob",
	"boolean":   "boolean",
	"counter":   "counter",
	"date":      "date",
	"decimal":   "decimal",
	"double":    "double",
	"duration":  "duration",
	"float":     "float",
	"inet":      "inet",
	"int":       "int",
	"smallint":  "smallint",
	"text":      "text",
	"varchar":   "text",
	"time":      "time",
	"timestamp": "timestamp",
	"timeuuid":  "timeuuid",
	"tinyint":   "tinyint",
	"uuid":      "uuid",
	"varint":    "varint",
}

// collectionArity is the number of type arguments each parameterized type takes.
// Zero means any positive number.
var collectionArity = map[string]int{
	"list":  1,
	"set":   1,
	"map":   2,
	"tuple": 0,
}

func (t *typeRef) name() string {
	return ident(t.Name)
}

func (t *typeRef) isNative() bool {
	if t.Frozen != nil || len(t.Args) > 0 {
		return false
	}
	_, ok := nativeTypes[strings.ToLower(t.Name)]
	return ok && !strings.HasPrefix(t.Name, `"`)
}

func (t *typeRef) isCollection() bool {
	_, ok := collectionArity[strings.ToLower(t.Name)]
	return t.Frozen == nil && ok && !strings.HasPrefix(t.Name, `"`)
}

func (t *typeRef) isUDT() bool {
	return t.Frozen == nil && !t.isNative() && !t.isCollection()
}

// needsFreezing reports whether the type must be frozen when nested.
// Tuples are always frozen.
func (t *typeRef) needsFreezing() bool {
	if t.Frozen != nil {
		return false
	}
	if t.isCollection() {
		return strings.ToLower(t.Name) != "tuple"
	}
	return t.isUDT()
}

// String renders the type the way system_schema reports it.
func (t *typeRef) String() string {
	if t.Frozen != nil {
		return "frozen<" + t.Frozen.String() + ">"
	}
	if t.isNative() {
		return nativeTypes[strings.ToLower(t.Name)]
	}
	name := strings.ToLower(t.Name)
	if !t.isCollection() {
		name = cqlgen.Ident(t.name())
	}
	if len(t.Args) == 0 {
		return name
	}
	args := make([]string, len(t.Args))
	for i, a := range t.Args {
		args[i] = a.String()
	}
	return name + "<" + strings.Join(args, ", ") + ">"
}

// referencedTypes appends every user-defined type name t mentions.
func (t *typeRef) referencedTypes(out []string) []string {
	switch {
	case t.Frozen != nil:
		return t.Frozen.referencedTypes(out)
	case t.isUDT():
		return append(out, t.name())
	}
	for _, a := range t.Args {
		out = a.referencedTypes(out)
	}
	return out
}

// parseType parses a stored type string back into a typeRef.
func parseType(s string) (*typeRef, error) {
	doc, err := typeParser.ParseString("", s)
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// compatibleTypes lists the type changes ALTER ... TYPE accepts.
var compatibleTypes = map[string][]string{
	"ascii":    {"text", "blob"},
	"text":     {"blob"},
	"bigint":   {"varint", "blob"},
	"int":      {"varint", "blob"},
	"timeuuid": {"uuid", "blob"},
	"smallint": {"varint", "blob"},
	"tinyint":  {"varint", "blob"},
}

func compatible(from, to string) bool {
	if from == to {
		return true
	}
	for _, t := range compatibleTypes[from] {
		if t == to {
			return true
		}
	}
	return false
}
