package diff_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/cqlmigrate/migrate/diff"
	"github.com/satishbabariya/cqlmigrate/migrate/introspect"
	"github.com/satishbabariya/cqlmigrate/migrate/memory"
)

func snapshot(t *testing.T, k *memory.Keyspace) *introspect.KeyspaceSchema {
	t.Helper()
	s, err := introspect.New(k).Snapshot(context.Background())
	require.NoError(t, err)
	return s
}

func exec(t *testing.T, k *memory.Keyspace, stmts ...string) {
	t.Helper()
	for _, stmt := range stmts {
		require.NoError(t, k.ExecuteStatement(context.Background(), stmt), stmt)
	}
}

func TestDiffIdentical(t *testing.T) {
	k := memory.New("app", memory.Created())
	exec(t, k,
		"CREATE TYPE address (street text)",
		"CREATE TABLE users (id uuid PRIMARY KEY, home frozen<address>)",
	)
	s := snapshot(t, k)

	r := diff.Diff(s, snapshot(t, k))
	assert.True(t, r.Empty())
	assert.Empty(t, r.Objects())
}

func TestDiffChanges(t *testing.T) {
	k := memory.New("app", memory.Created())
	exec(t, k,
		"CREATE TYPE address (street text, city text)",
		"CREATE TABLE users (id uuid, email text, name text, age int, PRIMARY KEY (id, email))",
		"CREATE TABLE legacy (id int PRIMARY KEY)",
	)
	before := snapshot(t, k)

	exec(t, k,
		"ALTER TYPE address ADD zip text",
		"ALTER TYPE address RENAME city TO town",
		"ALTER TABLE users RENAME email TO mail",
		"ALTER TABLE users DROP age",
		"ALTER TABLE users ADD active boolean",
		"DROP TABLE legacy",
		"CREATE TABLE events (id timeuuid PRIMARY KEY)",
		"CREATE MATERIALIZED VIEW users_by_mail AS SELECT id, mail FROM users WHERE id IS NOT NULL AND mail IS NOT NULL PRIMARY KEY (mail, id)",
	)
	after := snapshot(t, k)

	r := diff.Diff(before, after)
	require.False(t, r.Empty())

	type change struct {
		typ    diff.ChangeType
		object string
		member string
	}
	var got []change
	for _, c := range r.Changes {
		got = append(got, change{c.Type, c.Object, c.Member})
	}

	assert.Equal(t, []change{
		{diff.ChangeTypeDropField, "address", "city"},
		{diff.ChangeTypeAddField, "address", "town"},
		{diff.ChangeTypeAddField, "address", "zip"},
		{diff.ChangeTypeCreateTable, "events", ""},
		{diff.ChangeTypeDropTable, "legacy", ""},
		{diff.ChangeTypeAddColumn, "users", "active"},
		{diff.ChangeTypeDropColumn, "users", "age"},
		{diff.ChangeTypeDropColumn, "users", "email"},
		{diff.ChangeTypeAddColumn, "users", "mail"},
		{diff.ChangeTypeCreateView, "users_by_mail", ""},
	}, got)

	assert.Equal(t, []string{"address", "events", "legacy", "users", "users_by_mail"}, r.Objects())
	assert.Equal(t, "table users gains column active boolean", r.Changes[5].String())

	reverse := diff.Diff(after, before)
	assert.Len(t, reverse.Changes, len(r.Changes))
}

func TestDiffColumnChange(t *testing.T) {
	prev := &introspect.KeyspaceSchema{Name: "app", Tables: []introspect.TableMetadata{{
		Name: "events",
		Columns: []introspect.Column{
			{Name: "id", Type: "int", Kind: introspect.KindPartitionKey},
			{Name: "at", Type: "timestamp", Kind: introspect.KindClustering, Order: "asc"},
			{Name: "payload", Type: "text", Kind: introspect.KindRegular, Position: -1},
		},
	}}}
	next := &introspect.KeyspaceSchema{Name: "app", Tables: []introspect.TableMetadata{{
		Name: "Events",
		Columns: []introspect.Column{
			{Name: "id", Type: "int", Kind: introspect.KindPartitionKey},
			{Name: "at", Type: "timestamp", Kind: introspect.KindClustering, Order: "desc"},
			{Name: "payload", Type: "blob", Kind: introspect.KindRegular, Position: -1},
		},
	}}}

	r := diff.Diff(prev, next)
	require.Len(t, r.Changes, 2)
	assert.Equal(t, "table events column at changes clustering order from asc to desc", r.Changes[0].Description)
	assert.Equal(t, "table events column payload changes type from text to blob", r.Changes[1].Description)
}

func TestDiffNil(t *testing.T) {
	assert.True(t, diff.Diff(nil, nil).Empty())

	s := &introspect.KeyspaceSchema{Name: "app", Types: []introspect.TypeMetadata{{Name: "t", FieldNames: []string{"a"}, FieldTypes: []string{"int"}}}}
	r := diff.Diff(nil, s)
	require.Len(t, r.Changes, 1)
	assert.Equal(t, diff.ChangeTypeCreateType, r.Changes[0].Type)
}
