package memory

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCreateTable(t *testing.T) {
	s, err := parse(`CREATE TABLE IF NOT EXISTS app.users (
		id uuid,
		tenant text,
		"Email" text,
		tags set<text>,
		home frozen<address>,
		PRIMARY KEY ((id, tenant), "Email")
	) WITH CLUSTERING ORDER BY ("Email" DESC) AND comment = 'users';`)
	require.NoError(t, err)
	require.NotNil(t, s.Create)

	ct := s.Create.Table
	require.NotNil(t, ct)
	assert.True(t, ct.IfNotExists)

	ks, name := ct.Name.split()
	assert.Equal(t, "app", ks)
	assert.Equal(t, "users", name)

	require.Len(t, ct.Elements, 6)
	assert.Equal(t, "set<text>", ct.Elements[3].Column.Type.String())
	assert.Equal(t, "frozen<address>", ct.Elements[4].Column.Type.String())

	pk := ct.Elements[5].PrimaryKey
	require.NotNil(t, pk)
	assert.Equal(t, []string{"id", "tenant"}, pk.Partition)
	assert.Equal(t, []string{`"Email"`}, pk.Clustering)

	require.Len(t, ct.Options, 2)
	require.Len(t, ct.Options[0].ClusteringOrder, 1)
	assert.True(t, ct.Options[0].ClusteringOrder[0].Desc)
	assert.Equal(t, "users", options([]*option{ct.Options[1].Option})["comment"])
}

func TestParseInlinePrimaryKey(t *testing.T) {
	s, err := parse("create table t (id int primary key, v text static)")
	require.NoError(t, err)

	els := s.Create.Table.Elements
	require.Len(t, els, 2)
	assert.True(t, els[0].Column.Primary)
	assert.True(t, els[1].Column.Static)
}

func TestParseCreateKeyspaceOptions(t *testing.T) {
	s, err := parse(`CREATE KEYSPACE IF NOT EXISTS app WITH replication = {'class': 'NetworkTopologyStrategy', 'dc1': 3} AND durable_writes = false;`)
	require.NoError(t, err)

	ck := s.Create.Keyspace
	require.NotNil(t, ck)
	assert.True(t, ck.IfNotExists)

	opts := options(ck.Options)
	assert.Equal(t, "NetworkTopologyStrategy", opts["replication.class"])
	assert.Equal(t, "3", opts["replication.dc1"])
	assert.Equal(t, "false", opts["durable_writes"])
}

func TestParseAlterStatements(t *testing.T) {
	tests := []struct {
		stmt  string
		check func(t *testing.T, s *statement)
	}{
		{
			stmt: "ALTER TABLE users ADD active boolean;",
			check: func(t *testing.T, s *statement) {
				require.Len(t, s.Alter.Table.Action.Add, 1)
				assert.Equal(t, "active", s.Alter.Table.Action.Add[0].Name)
				assert.Equal(t, "boolean", s.Alter.Table.Action.Add[0].Type.String())
			},
		},
		{
			stmt: "ALTER TABLE users ADD (a int, b map<text,int>)",
			check: func(t *testing.T, s *statement) {
				require.Len(t, s.Alter.Table.Action.Add, 2)
				assert.Equal(t, "map<text, int>", s.Alter.Table.Action.Add[1].Type.String())
			},
		},
		{
			stmt: "ALTER TABLE users ALTER age TYPE varint;",
			check: func(t *testing.T, s *statement) {
				require.NotNil(t, s.Alter.Table.Action.Alter)
				assert.Equal(t, "age", s.Alter.Table.Action.Alter.Column)
				assert.Equal(t, "varint", s.Alter.Table.Action.Alter.Type.String())
			},
		},
		{
			stmt: "ALTER TABLE users RENAME id TO user_id",
			check: func(t *testing.T, s *statement) {
				require.Len(t, s.Alter.Table.Action.Rename, 1)
				assert.Equal(t, "id", s.Alter.Table.Action.Rename[0].From)
				assert.Equal(t, "user_id", s.Alter.Table.Action.Rename[0].To)
			},
		},
		{
			stmt: "ALTER TABLE users DROP active;",
			check: func(t *testing.T, s *statement) {
				assert.Equal(t, []string{"active"}, s.Alter.Table.Action.Drop)
			},
		},
		{
			stmt: "ALTER TYPE address ADD zip text;",
			check: func(t *testing.T, s *statement) {
				require.NotNil(t, s.Alter.Type.Action.Add)
				assert.Equal(t, "zip", s.Alter.Type.Action.Add.Name)
			},
		},
		{
			stmt: "ALTER TYPE address RENAME zip TO postcode",
			check: func(t *testing.T, s *statement) {
				require.Len(t, s.Alter.Type.Action.Rename, 1)
				assert.Equal(t, "postcode", s.Alter.Type.Action.Rename[0].To)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.stmt, func(t *testing.T) {
			s, err := parse(tt.stmt)
			require.NoError(t, err)
			require.NotNil(t, s.Alter)
			tt.check(t, s)
		})
	}
}

func TestParseCreateView(t *testing.T) {
	s, err := parse(`CREATE MATERIALIZED VIEW users_by_email AS
		SELECT * FROM users
		WHERE email IS NOT NULL AND id IS NOT NULL
		PRIMARY KEY (email, id);`)
	require.NoError(t, err)

	v := s.Create.View
	require.NotNil(t, v)
	assert.Equal(t, []string{"*"}, v.Columns)
	assert.Equal(t, []string{"email", "id"}, v.NotNull)
	assert.Equal(t, []string{"email"}, v.Key.Partition)
	assert.Equal(t, []string{"id"}, v.Key.Clustering)
}

func TestParseDrop(t *testing.T) {
	s, err := parse("DROP TYPE IF EXISTS address;")
	require.NoError(t, err)
	require.NotNil(t, s.Drop.Type)
	assert.True(t, s.Drop.Type.IfExists)

	s, err = parse("-- comment\nDROP MATERIALIZED VIEW app.v")
	require.NoError(t, err)
	require.NotNil(t, s.Drop.View)
}

func TestParseRejectsGarbage(t *testing.T) {
	for _, stmt := range []string{
		"SELECT * FROM users",
		"CREATE TABLE t (id int",
		"ALTER TABLE t EXPLODE",
	} {
		_, err := parse(stmt)
		assert.Error(t, err, stmt)
	}
}

func TestTypeRefRendering(t *testing.T) {
	tests := []struct{ in, want string }{
		{"VARCHAR", "text"},
		{"frozen<list<frozen<address>>>", "frozen<list<frozen<address>>>"},
		{"map<text,frozen<set<int>>>", "map<text, frozen<set<int>>>"},
		{`frozen<"Address">`, `frozen<"Address">`},
		{"tuple<int,text>", "tuple<int, text>"},
		{"LIST<Address>", "list<address>"},
	}
	for _, tt := range tests {
		ref, err := parseType(tt.in)
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, ref.String(), tt.in)
	}
}

func TestReferencedTypes(t *testing.T) {
	ref, err := parseType("map<frozen<address>, frozen<list<frozen<phone>>>>")
	require.NoError(t, err)
	assert.Equal(t, []string{"address", "phone"}, ref.referencedTypes(nil))

	ref, err = parseType("list<int>")
	require.NoError(t, err)
	assert.Empty(t, ref.referencedTypes(nil))
}

func TestCompatible(t *testing.T) {
	assert.True(t, compatible("int", "int"))
	assert.True(t, compatible("int", "varint"))
	assert.True(t, compatible("ascii", "text"))
	assert.False(t, compatible("text", "int"))
	assert.False(t, compatible("varint", "int"))
}
