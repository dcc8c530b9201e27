package cqltype

import (
	"errors"
	"sort"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/satishbabariya/cqlmigrate/migrate/schemaerr"
)

func TestResolveScalars(t *testing.T) {
	tests := []struct {
		host string
		want string
	}{
		{"string", "text"},
		{"String", "text"},
		{"bool", "boolean"},
		{"Boolean", "boolean"},
		{"int", "int"},
		{"int32", "int"},
		{"Int32", "int"},
		{"int64", "bigint"},
		{"long", "bigint"},
		{"int16", "smallint"},
		{"int8", "tinyint"},
		{"sbyte", "tinyint"},
		{"float32", "float"},
		{"single", "float"},
		{"float64", "double"},
		{"double", "double"},
		{"decimal", "decimal"},
		{"BigInteger", "varint"},
		{"guid", "uuid"},
		{"uuid", "uuid"},
		{"timeuuid", "timeuuid"},
		{"datetime", "timestamp"},
		{"time.Time", "timestamp"},
		{"localdate", "date"},
		{"localtime", "time"},
		{"[]byte", "blob"},
		{"byte[]", "blob"},
		{"IPAddress", "inet"},
		{"  *string ", "text"},
	}

	for _, tt := range tests {
		t.Run(tt.host, func(t *testing.T) {
			got, err := Resolve(Named(tt.host), false)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)

			// frozen has no effect on scalars
			frozen, err := Resolve(Named(tt.host), true)
			require.NoError(t, err)
			assert.Equal(t, tt.want, frozen)
		})
	}
}

func TestResolveCollections(t *testing.T) {
	address := Named("Address", Field("street", String))

	tests := []struct {
		name   string
		host   HostType
		frozen bool
		want   string
	}{
		{"list of text", ListOf(String), false, "list<text>"},
		{"frozen list of text", ListOf(String), true, "frozen<list<text>>"},
		{"set is a list", SetOf(Int32), false, "list<int>"},
		{"hashset arity marker", Generic("HashSet`1", String), false, "list<text>"},
		{"go generic set", Generic("Set[T]", String), false, "list<text>"},
		{"ienumerable", Generic("IEnumerable", Bool), false, "list<boolean>"},
		{"map", MapOf(String, Int32), false, "map<text,int>"},
		{"frozen map", MapOf(String, Int32), true, "frozen<map<text,int>>"},
		{"idictionary", Generic("IDictionary`2", Int64, Float64), false, "map<bigint,double>"},
		{"list of composite", ListOf(address), false, "list<frozen<address>>"},
		{"frozen list of composite", ListOf(address), true, "frozen<list<frozen<address>>>"},
		{"nested list", ListOf(ListOf(String)), false, "list<frozen<list<text>>>"},
		{"map of composite", MapOf(String, address), false, "map<text,frozen<address>>"},
		{"map with list value", MapOf(UUID, ListOf(String)), false, "map<uuid,frozen<list<text>>>"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.host, tt.frozen)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveComposite(t *testing.T) {
	got, err := Resolve(Named("Address"), false)
	require.NoError(t, err)
	assert.Equal(t, "address", got)

	got, err = Resolve(Named("Address"), true)
	require.NoError(t, err)
	assert.Equal(t, "frozen<address>", got)

	got, err = Resolve(Named("models.Address"), false)
	require.NoError(t, err)
	assert.Equal(t, "address", got)
}

func TestResolveUnsupported(t *testing.T) {
	tests := []struct {
		name string
		host HostType
	}{
		{"empty name", Named("")},
		{"list without args", Named("list")},
		{"list with two args", Generic("list", String, String)},
		{"map with one arg", Generic("map", String)},
		{"tuple", Generic("Tuple`3", String, Int32, Bool)},
		{"scalar with args", Generic("string", Int32)},
		{"unsupported element", ListOf(Named(""))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve(tt.host, false)
			require.Error(t, err)
			assert.True(t, errors.Is(err, schemaerr.ErrUnsupportedType), "got %v", err)
		})
	}
}

func TestResolveField(t *testing.T) {
	users := NewEntity("users",
		Field("id", UUID).Partition(),
		Field("Name", String),
		Field("addresses", ListOf(Named("address"))),
		Field("meta", MapOf(String, String)).AsFrozen(),
	)

	got, err := ResolveField(users.HostType(), "name", false)
	require.NoError(t, err)
	assert.Equal(t, "text", got)

	got, err = ResolveField(users.HostType(), "addresses", true)
	require.NoError(t, err)
	assert.Equal(t, "frozen<list<frozen<address>>>", got)

	got, err = ResolveField(users.HostType(), "meta", false)
	require.NoError(t, err)
	assert.Equal(t, "frozen<map<text,text>>", got)

	_, err = ResolveField(users.HostType(), "missing", false)
	require.Error(t, err)
	assert.True(t, errors.Is(err, schemaerr.ErrObjectNotFound))
	assert.Contains(t, err.Error(), `"missing"`)
	assert.Contains(t, err.Error(), `"users"`)
}

func TestWithScalar(t *testing.T) {
	r := NewResolver(WithScalar("Email", "text"))

	got, err := r.Resolve(ListOf(Named("email")), false)
	require.NoError(t, err)
	assert.Equal(t, "list<text>", got)

	// the default resolver still treats it as a composite type
	got, err = Resolve(Named("email"), false)
	require.NoError(t, err)
	assert.Equal(t, "email", got)
}

func scalarHostGen() *rapid.Generator[HostType] {
	names := make([]string, 0, len(scalarTypes))
	for k, v := range scalarTypes {
		if v != placeholderList && v != placeholderMap {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return rapid.Custom(func(t *rapid.T) HostType {
		return Named(rapid.SampledFrom(names).Draw(t, "scalar"))
	})
}

func compositeHostGen() *rapid.Generator[HostType] {
	return rapid.Custom(func(t *rapid.T) HostType {
		name := rapid.StringMatching(`[a-z][a-z0-9_]{2,12}`).Filter(func(s string) bool {
			_, taken := scalarTypes[s]
			return !taken
		}).Draw(t, "composite")
		return Named(name)
	})
}

func hostTypeGen(depth int) *rapid.Generator[HostType] {
	return rapid.Custom(func(t *rapid.T) HostType {
		if depth == 0 {
			return rapid.OneOf(scalarHostGen(), compositeHostGen()).Draw(t, "leaf")
		}
		switch rapid.IntRange(0, 3).Draw(t, "shape") {
		case 0:
			return scalarHostGen().Draw(t, "scalar")
		case 1:
			return compositeHostGen().Draw(t, "composite")
		case 2:
			return ListOf(hostTypeGen(depth - 1).Draw(t, "elem"))
		default:
			return MapOf(scalarHostGen().Draw(t, "key"), hostTypeGen(depth-1).Draw(t, "value"))
		}
	})
}

// Every non-scalar operand of a collection is frozen, and the outer type is
// frozen exactly when requested.
func TestResolveFreezesNestedOperands(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		host := hostTypeGen(3).Draw(t, "host")
		frozen := rapid.Bool().Draw(t, "frozen")

		ct, err := defaultResolver.ColumnType(host, frozen)
		if err != nil {
			t.Fatalf("resolve %+v: %v", host, err)
		}

		if ct.Kind != KindScalar && ct.Frozen != frozen {
			t.Fatalf("outer frozen = %v, want %v", ct.Frozen, frozen)
		}

		var walk func(c ColumnType, nested bool)
		walk = func(c ColumnType, nested bool) {
			if nested && c.Kind != KindScalar && !c.Frozen {
				t.Fatalf("nested %s operand %q is not frozen", c.Kind, c.String())
			}
			switch c.Kind {
			case KindList:
				walk(*c.Elem, true)
			case KindMap:
				walk(*c.Key, true)
				walk(*c.Value, true)
			}
		}
		walk(ct, false)

		rendered := ct.String()
		if strings.Count(rendered, "<") != strings.Count(rendered, ">") {
			t.Fatalf("unbalanced rendering %q", rendered)
		}
	})
}

// Collections recurse back through the full tier chain for their operands.
func TestColumnTypeRecursesThroughTiers(t *testing.T) {
	ct, err := defaultResolver.ColumnType(MapOf(String, ListOf(Named("Models.Address"))), false)
	require.NoError(t, err)

	assert.Equal(t, KindMap, ct.Kind)
	assert.Equal(t, KindScalar, ct.Key.Kind)
	require.Equal(t, KindList, ct.Value.Kind)
	assert.True(t, ct.Value.Frozen)
	assert.Equal(t, KindComposite, ct.Value.Elem.Kind)
	assert.Equal(t, "address", ct.Value.Elem.Name)
	assert.Equal(t, "map<text,frozen<list<frozen<address>>>>", ct.String())

	_, err = defaultResolver.ColumnType(ListOf(Generic("map", String)), false)
	assert.ErrorIs(t, err, schemaerr.ErrUnsupportedType)
}
