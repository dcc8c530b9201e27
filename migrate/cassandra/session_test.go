package cassandra

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/cqlmigrate/migrate"
	"github.com/satishbabariya/cqlmigrate/migrate/cqltype"
	"github.com/satishbabariya/cqlmigrate/migrate/executor"
	"github.com/satishbabariya/cqlmigrate/migrate/version"
)

func TestParseConsistency(t *testing.T) {
	cases := []struct {
		in   string
		want gocql.Consistency
	}{
		{"", gocql.Quorum},
		{"quorum", gocql.Quorum},
		{"ONE", gocql.One},
		{"local_quorum", gocql.LocalQuorum},
		{"local-one", gocql.LocalOne},
		{" all ", gocql.All},
	}
	for _, c := range cases {
		got, err := ParseConsistency(c.in)
		require.NoError(t, err, c.in)
		assert.Equal(t, c.want, got, c.in)
	}

	_, err := ParseConsistency("most")
	assert.Error(t, err)
}

func TestConfigValidate(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Keyspace = "app"
	require.NoError(t, cfg.Validate())

	bad := Config{Port: 0, Username: "cassandra", Consistency: "most"}
	err := bad.Validate()
	require.Error(t, err)
	for _, want := range []string{"contact point", "invalid port", "keyspace is required", "password is required", "unknown consistency"} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestIsKeyspaceStatement(t *testing.T) {
	assert.True(t, isKeyspaceStatement("CREATE KEYSPACE IF NOT EXISTS app WITH replication = {}"))
	assert.True(t, isKeyspaceStatement("drop keyspace app"))
	assert.False(t, isKeyspaceStatement("CREATE TABLE keyspace (id int PRIMARY KEY)"))
	assert.False(t, isKeyspaceStatement("ALTER TABLE users ADD x int"))
}

// TestLiveCluster runs against the cluster listed in CQLMIGRATE_TEST_HOSTS.
func TestLiveCluster(t *testing.T) {
	hosts := os.Getenv("CQLMIGRATE_TEST_HOSTS")
	if hosts == "" {
		t.Skip("CQLMIGRATE_TEST_HOSTS not set")
	}

	cfg := DefaultConfig()
	cfg.Hosts = strings.Split(hosts, ",")
	cfg.Keyspace = "cqlmigrate_it_" + time.Now().UTC().Format("20060102150405")
	cfg.Consistency = "one"

	s, err := Connect(cfg, nil)
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = s.ExecuteStatement(context.Background(), "DROP KEYSPACE IF EXISTS "+s.Keyspace())
		s.Close()
	})

	ctx := context.Background()
	users := cqltype.NewEntity("users",
		cqltype.Field("id", cqltype.UUID).Partition(),
		cqltype.Field("email", cqltype.String).Clustering(),
	)
	migrations := []migrate.Migration{
		migrate.Define("create users", version.New(1, 0, 0), "", func(ctx context.Context, x *executor.Executor) error {
			return x.CreateTable(ctx, users)
		}),
		migrate.Define("add active", version.New(1, 0, 1), "", func(ctx context.Context, x *executor.Executor) error {
			if err := x.AddColumn(ctx, "users", "active", cqltype.Bool, false); err != nil {
				return err
			}
			return x.RenamePrimaryColumn(ctx, "users", "email", "mail")
		}),
	}

	engine, err := migrate.New(ctx, s, migrate.WithMigrations(migrations...))
	require.NoError(t, err)
	applied, err := engine.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	table, err := s.Table(ctx, "users")
	require.NoError(t, err)
	require.NotNil(t, table)
	assert.Equal(t, []string{"id"}, table.PartitionKey())
	assert.Equal(t, []string{"mail"}, table.ClusteringKey())
	_, ok := table.Column("active")
	assert.True(t, ok)

	records, err := s.History().List(ctx)
	require.NoError(t, err)
	assert.Len(t, records, 2)

	applied, err = engine.Migrate(ctx)
	require.NoError(t, err)
	assert.Zero(t, applied)
}
