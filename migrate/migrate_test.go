package migrate_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/cqlmigrate/migrate"
	"github.com/satishbabariya/cqlmigrate/migrate/cqltype"
	"github.com/satishbabariya/cqlmigrate/migrate/executor"
	"github.com/satishbabariya/cqlmigrate/migrate/history"
	"github.com/satishbabariya/cqlmigrate/migrate/memory"
	"github.com/satishbabariya/cqlmigrate/migrate/version"
)

type recorder struct {
	applied []string
}

func (r *recorder) migration(name, v string) migrate.Migration {
	return migrate.Define(name, version.MustParse(v), "migration "+name, func(context.Context, *executor.Executor) error {
		r.applied = append(r.applied, name)
		return nil
	})
}

func fixedClock() func() time.Time {
	t := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		t = t.Add(time.Minute)
		return t
	}
}

func TestNewBootstrapsKeyspaceAndHistory(t *testing.T) {
	ctx := context.Background()
	k := memory.New("app")

	_, err := migrate.New(ctx, k)
	require.NoError(t, err)
	assert.True(t, k.Exists())

	table, err := k.Table(ctx, "migration_history")
	require.NoError(t, err)
	require.NotNil(t, table)

	// a second engine on the same keyspace finds everything in place
	_, err = migrate.New(ctx, k)
	require.NoError(t, err)
}

func TestMigrateAppliesOnlyNewerVersions(t *testing.T) {
	ctx := context.Background()
	k := memory.New("app")
	r := &recorder{}

	first, err := migrate.New(ctx, k, migrate.WithMigrations(r.migration("init", "1.0.0")), migrate.WithClock(fixedClock()))
	require.NoError(t, err)
	n, err := first.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	engine, err := migrate.New(ctx, k,
		migrate.WithMigrations(
			r.migration("second", "1.0.2"),
			r.migration("init", "1.0.0"),
			r.migration("first", "1.0.1"),
		),
		migrate.WithClock(fixedClock()),
	)
	require.NoError(t, err)

	n, err = engine.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"init", "first", "second"}, r.applied)

	records, err := engine.AppliedMigrations(ctx)
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, "1.0.2", records[0].Version)
	assert.Equal(t, "1.0.1", records[1].Version)
	assert.Equal(t, "1.0.0", records[2].Version)
	assert.Equal(t, "migration second", records[0].Description)

	n, err = engine.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	again, err := engine.AppliedMigrations(ctx)
	require.NoError(t, err)
	assert.Equal(t, records, again)
}

func TestMigrateSkipsOlderUnappliedMigrations(t *testing.T) {
	ctx := context.Background()
	k := memory.New("app")
	require.NoError(t, k.ExecuteStatement(ctx, "CREATE KEYSPACE app WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}"))
	require.NoError(t, k.History().EnsureTable(ctx))
	require.NoError(t, k.History().Insert(ctx, history.MigrationRecord{Name: "later", Version: "2.0.0", AppliedAt: time.Now()}))

	r := &recorder{}
	engine, err := migrate.New(ctx, k, migrate.WithMigrations(
		r.migration("old", "1.5.0"),
		r.migration("later", "2.0.0"),
		r.migration("next", "2.1.0"),
	))
	require.NoError(t, err)

	statuses, err := engine.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 3)
	assert.Equal(t, migrate.StateSkipped, statuses[0].State)
	assert.Nil(t, statuses[0].Record)
	assert.Equal(t, migrate.StateApplied, statuses[1].State)
	require.NotNil(t, statuses[1].Record)
	assert.Equal(t, "later", statuses[1].Record.Name)
	assert.Equal(t, migrate.StatePending, statuses[2].State)

	pending, err := engine.Pending(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, "next", pending[0].Name())

	n, err := engine.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"next"}, r.applied)
}

func TestStatusMatchesShortStoredVersions(t *testing.T) {
	ctx := context.Background()
	k := memory.New("app")
	require.NoError(t, k.ExecuteStatement(ctx, "CREATE KEYSPACE app WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}"))
	require.NoError(t, k.History().EnsureTable(ctx))
	require.NoError(t, k.History().Insert(ctx, history.MigrationRecord{Name: "init", Version: "1.0", AppliedAt: time.Now()}))

	r := &recorder{}
	engine, err := migrate.New(ctx, k, migrate.WithMigrations(
		r.migration("init", "1.0.0"),
		r.migration("next", "1.0.1"),
	))
	require.NoError(t, err)

	statuses, err := engine.Status(ctx)
	require.NoError(t, err)
	require.Len(t, statuses, 2)
	assert.Equal(t, migrate.StateApplied, statuses[0].State)
	require.NotNil(t, statuses[0].Record)
	assert.Equal(t, "1.0", statuses[0].Record.Version)
	assert.Equal(t, migrate.StatePending, statuses[1].State)
}

func TestMigrateAbortsOnFailure(t *testing.T) {
	ctx := context.Background()
	k := memory.New("app")
	r := &recorder{}
	boom := errors.New("boom")

	engine, err := migrate.New(ctx, k, migrate.WithMigrations(
		r.migration("one", "1.0.0"),
		migrate.Define("two", version.MustParse("1.0.1"), "fails", func(context.Context, *executor.Executor) error {
			return boom
		}),
		r.migration("three", "1.0.2"),
	))
	require.NoError(t, err)

	n, err := engine.Migrate(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "two")
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"one"}, r.applied)

	latest, err := engine.LatestMigration(ctx)
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, "1.0.0", latest.Version)
}

func TestMigrateFailsWhenHistoryWriteFails(t *testing.T) {
	ctx := context.Background()
	k := memory.New("app")
	r := &recorder{}

	engine, err := migrate.New(ctx, k, migrate.WithMigrations(r.migration("one", "1.0.0"), r.migration("two", "1.0.1")))
	require.NoError(t, err)

	unavailable := errors.New("no hosts available")
	k.Intercept(func(stmt string) error {
		if strings.HasPrefix(stmt, "INSERT INTO") {
			return unavailable
		}
		return nil
	})

	n, err := engine.Migrate(ctx)
	assert.ErrorIs(t, err, unavailable)
	assert.Equal(t, 0, n)
	// applied but not recorded; there is no rollback
	assert.Equal(t, []string{"one"}, r.applied)
}

func TestLatestMigrationEmpty(t *testing.T) {
	engine, err := migrate.New(context.Background(), memory.New("app"))
	require.NoError(t, err)

	latest, err := engine.LatestMigration(context.Background())
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestRegisteredMigrationsAreSorted(t *testing.T) {
	r := &recorder{}
	engine, err := migrate.New(context.Background(), memory.New("app"), migrate.WithMigrations(
		r.migration("c", "1.10.0"),
		r.migration("a", "1.2.0"),
		r.migration("b", "1.9.9"),
	))
	require.NoError(t, err)

	var names []string
	for _, m := range engine.RegisteredMigrations() {
		names = append(names, m.Name())
	}
	assert.Equal(t, []string{"a", "b", "c"}, names)
}

func TestInvalidCatalog(t *testing.T) {
	r := &recorder{}
	tests := map[string][]migrate.Migration{
		"duplicate name":    {r.migration("a", "1.0.0"), r.migration("a", "1.0.1")},
		"duplicate version": {r.migration("a", "1.0.0"), r.migration("b", "1.0")},
		"missing name":      {r.migration("", "1.0.0")},
	}
	for name, migrations := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := migrate.New(context.Background(), memory.New("app"), migrate.WithMigrations(migrations...))
			assert.ErrorIs(t, err, migrate.ErrInvalidCatalog)
		})
	}
}

func TestEndToEndEntityMigrations(t *testing.T) {
	ctx := context.Background()
	k := memory.New("app")

	users := cqltype.NewEntity("users",
		cqltype.Field("id", cqltype.Int).Partition(),
		cqltype.Field("values", cqltype.String),
	)

	engine, err := migrate.New(ctx, k, migrate.WithMigrations(
		migrate.Define("create users", version.New(1, 0, 0), "", func(ctx context.Context, x *executor.Executor) error {
			return x.CreateTable(ctx, users)
		}),
		migrate.Define("add active", version.New(1, 0, 1), "", func(ctx context.Context, x *executor.Executor) error {
			return x.AddColumn(ctx, "users", "active", cqltype.Bool, false)
		}),
	))
	require.NoError(t, err)

	n, err := engine.Migrate(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	inspect := engine.Executor().Introspector()
	ok, err := inspect.ColumnExists(ctx, "users", "active")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, engine.Executor().DropColumn(ctx, "users", "active"))
	ok, err = inspect.ColumnExists(ctx, "users", "active")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestMissingTableSurfacesNotFound(t *testing.T) {
	ctx := context.Background()
	engine, err := migrate.New(ctx, memory.New("app"), migrate.WithMigrations(
		migrate.Define("drop", version.New(1, 0, 0), "", func(ctx context.Context, x *executor.Executor) error {
			return x.DropColumn(ctx, "doesnotexist", "c")
		}),
	))
	require.NoError(t, err)

	_, err = engine.Migrate(ctx)
	assert.ErrorIs(t, err, migrate.ErrObjectNotFound)
	assert.Contains(t, err.Error(), `"doesnotexist"`)
	assert.Contains(t, err.Error(), `"app"`)
}
