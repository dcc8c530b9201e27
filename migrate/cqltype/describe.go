package cqltype

import (
	"fmt"
	"path"
	"reflect"
	"strings"
	"sync"
)

// descriptors caches entities built by Describe, keyed by struct type.
var descriptors sync.Map

// Describe builds an entity descriptor from a Go struct (or pointer to one).
// Fields are read from `cql` struct tags:
//
//	type User struct {
//		ID    gocql.UUID `cql:"id,partition"`
//		Email string     `cql:"email,clustering"`
//		Tags  []string   `cql:"tags,frozen"`
//		Notes string     `cql:"-"`
//	}
//
// Untagged exported fields use their lowercased Go name. The result is
// computed once per type.
func Describe(v any) (Entity, error) {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil || t.Kind() != reflect.Struct {
		return Entity{}, fmt.Errorf("describe: expected a struct, got %T", v)
	}

	if cached, ok := descriptors.Load(t); ok {
		return cached.(Entity), nil
	}

	host, err := describeStruct(t, map[reflect.Type]bool{})
	if err != nil {
		return Entity{}, err
	}
	entity := Entity{Name: host.Name, Fields: host.Fields}
	descriptors.Store(t, entity)
	return entity, nil
}

// MustDescribe is like Describe but panics on error.
func MustDescribe(v any) Entity {
	e, err := Describe(v)
	if err != nil {
		panic(err)
	}
	return e
}

func describeStruct(t reflect.Type, seen map[reflect.Type]bool) (HostType, error) {
	if seen[t] {
		return HostType{}, fmt.Errorf("describe: recursive type %s", t)
	}
	seen[t] = true
	defer delete(seen, t)

	host := HostType{Name: strings.ToLower(t.Name())}
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if !sf.IsExported() {
			continue
		}

		tag := sf.Tag.Get("cql")
		if tag == "-" {
			continue
		}

		field := FieldDescriptor{Name: strings.ToLower(sf.Name)}
		parts := strings.Split(tag, ",")
		if parts[0] != "" {
			field.Name = parts[0]
		}
		for _, opt := range parts[1:] {
			switch strings.TrimSpace(opt) {
			case "partition":
				field.PartitionKey = true
			case "clustering":
				field.ClusteringKey = true
			case "frozen":
				field.Frozen = true
			case "":
			default:
				return HostType{}, fmt.Errorf("describe: %s.%s: unknown tag option %q", t.Name(), sf.Name, opt)
			}
		}

		ft, err := hostTypeOf(sf.Type, seen)
		if err != nil {
			return HostType{}, fmt.Errorf("describe: %s.%s: %w", t.Name(), sf.Name, err)
		}
		field.Type = ft
		host.Fields = append(host.Fields, field)
	}
	return host, nil
}

func hostTypeOf(t reflect.Type, seen map[reflect.Type]bool) (HostType, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	// Named library types such as time.Time, gocql.UUID or net.IP.
	if t.Name() != "" && t.PkgPath() != "" {
		qualified := packageName(t.PkgPath()) + "." + t.Name()
		if defaultResolver.IsScalar(Named(qualified)) {
			return Named(qualified), nil
		}
	}

	switch t.Kind() {
	case reflect.String:
		return String, nil
	case reflect.Bool:
		return Bool, nil
	case reflect.Int, reflect.Int64:
		return Int64, nil
	case reflect.Int32:
		return Int32, nil
	case reflect.Int16:
		return Int16, nil
	case reflect.Int8:
		return Int8, nil
	case reflect.Float32:
		return Float32, nil
	case reflect.Float64:
		return Float64, nil
	case reflect.Slice, reflect.Array:
		if t.Elem().Kind() == reflect.Uint8 {
			return Blob, nil
		}
		elem, err := hostTypeOf(t.Elem(), seen)
		if err != nil {
			return HostType{}, err
		}
		return ListOf(elem), nil
	case reflect.Map:
		key, err := hostTypeOf(t.Key(), seen)
		if err != nil {
			return HostType{}, err
		}
		value, err := hostTypeOf(t.Elem(), seen)
		if err != nil {
			return HostType{}, err
		}
		return MapOf(key, value), nil
	case reflect.Struct:
		return describeStruct(t, seen)
	default:
		return HostType{}, fmt.Errorf("no column type for Go kind %s", t.Kind())
	}
}

// packageName guesses the package identifier from an import path, skipping
// major version suffixes ("github.com/apache/cassandra-gocql-driver/v2" is
// imported as gocql by convention, its directory is cassandra-gocql-driver).
func packageName(importPath string) string {
	name := path.Base(importPath)
	if len(name) > 1 && name[0] == 'v' && strings.Trim(name[1:], "0123456789") == "" {
		name = path.Base(path.Dir(importPath))
	}
	if name == "cassandra-gocql-driver" {
		return "gocql"
	}
	return name
}
