package introspect

import "context"

// Static serves metadata from a snapshot. It is safe for concurrent reads only
// while the snapshot is not modified.
type Static struct {
	Schema *KeyspaceSchema
}

// NewStatic returns a reader over schema.
func NewStatic(schema *KeyspaceSchema) *Static {
	return &Static{Schema: schema}
}

func (s *Static) Keyspace() string { return s.Schema.Name }

func (s *Static) Table(_ context.Context, name string) (*TableMetadata, error) {
	t := s.Schema.Table(name)
	if t == nil {
		return nil, nil
	}
	cp := *t
	cp.Columns = append([]Column(nil), t.Columns...)
	return &cp, nil
}

func (s *Static) CompositeType(_ context.Context, name string) (*TypeMetadata, error) {
	want := normalize(name)
	for _, t := range s.Schema.Types {
		if normalize(t.Name) == want {
			cp := t
			cp.FieldNames = append([]string(nil), t.FieldNames...)
			cp.FieldTypes = append([]string(nil), t.FieldTypes...)
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Static) MaterializedView(_ context.Context, name string) (*ViewMetadata, error) {
	want := normalize(name)
	for _, v := range s.Schema.Views {
		if normalize(v.Name) == want {
			cp := v
			cp.Columns = append([]Column(nil), v.Columns...)
			return &cp, nil
		}
	}
	return nil, nil
}

func (s *Static) Tables(context.Context) ([]TableMetadata, error) {
	out := make([]TableMetadata, len(s.Schema.Tables))
	for i, t := range s.Schema.Tables {
		out[i] = TableMetadata{Name: t.Name, Columns: append([]Column(nil), t.Columns...)}
	}
	return out, nil
}

func (s *Static) CompositeTypes(context.Context) ([]TypeMetadata, error) {
	return append([]TypeMetadata(nil), s.Schema.Types...), nil
}

func (s *Static) MaterializedViews(context.Context) ([]ViewMetadata, error) {
	out := make([]ViewMetadata, len(s.Schema.Views))
	for i, v := range s.Schema.Views {
		v.Columns = append([]Column(nil), v.Columns...)
		out[i] = v
	}
	return out, nil
}
