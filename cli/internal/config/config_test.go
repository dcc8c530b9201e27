package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chdir(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	t.Chdir(dir)
	t.Setenv("HOME", dir)
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdir(t)

	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, DriverCassandra, cfg.Driver)
	assert.Equal(t, []string{"127.0.0.1"}, cfg.Hosts)
	assert.Equal(t, 9042, cfg.Port)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.Equal(t, "migration_history", cfg.HistoryTable)
	assert.True(t, cfg.DurableWrites)

	// Keyspace has no default
	assert.Error(t, cfg.Validate())
}

func TestLoadPrecedence(t *testing.T) {
	dir := chdir(t)

	file := "keyspace: from_file\nport: 9043\nhosts: [a, b]\ndatacenters:\n  dc1: 3\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte(file), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("CQLMIGRATE_PORT=9044\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("CQLMIGRATE_PORT") })
	t.Setenv("CQLMIGRATE_HOSTS", "c1,c2")

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("keyspace", "", "")
	require.NoError(t, flags.Parse([]string{"--keyspace", "from_flag"}))

	cfg, err := LoadConfig(flags)
	require.NoError(t, err)

	assert.Equal(t, "from_flag", cfg.Keyspace)
	assert.Equal(t, 9044, cfg.Port)
	assert.Equal(t, []string{"c1", "c2"}, cfg.Hosts)
	assert.Equal(t, map[string]int{"dc1": 3}, cfg.Datacenters)
	require.NoError(t, cfg.Validate())
}

func TestExplicitConfigFile(t *testing.T) {
	dir := chdir(t)
	path := filepath.Join(dir, "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("driver: memory\nkeyspace: app\n"), 0644))

	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	flags.String("config", "", "")
	require.NoError(t, flags.Parse([]string{"--config", path}))

	cfg, err := LoadConfig(flags)
	require.NoError(t, err)
	assert.Equal(t, DriverMemory, cfg.Driver)
	assert.NoError(t, cfg.Validate())

	require.NoError(t, flags.Set("config", filepath.Join(dir, "missing.yaml")))
	_, err = LoadConfig(flags)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	cfg := &Config{Driver: "postgres", Keyspace: "app"}
	assert.ErrorContains(t, cfg.Validate(), "unknown driver")

	cfg = &Config{Driver: DriverMemory, Keyspace: "app", ReplicationClass: "SimpleStrategy"}
	assert.Error(t, cfg.Validate(), "replication factor 0")

	cfg.ReplicationFactor = 1
	assert.NoError(t, cfg.Validate())
}

func TestSaveConfig(t *testing.T) {
	old := AppFs
	AppFs = afero.NewMemMapFs()
	t.Cleanup(func() { AppFs = old })

	cfg := &Config{
		Driver:   DriverCassandra,
		Hosts:    []string{"10.0.0.1"},
		Keyspace: "app",
		Password: "secret",
		Timeout:  5 * time.Second,
	}
	require.NoError(t, SaveConfig(cfg, "conf/"+FileName))

	data, err := afero.ReadFile(AppFs, "conf/"+FileName)
	require.NoError(t, err)
	assert.Contains(t, string(data), "keyspace: app")
	assert.Contains(t, string(data), "timeout: 5s")
	assert.NotContains(t, string(data), "secret")
}
