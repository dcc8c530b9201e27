package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/go-homedir"
	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"go.yaml.in/yaml/v3"

	"github.com/satishbabariya/cqlmigrate/migrate/cassandra"
	"github.com/satishbabariya/cqlmigrate/migrate/cqlgen"
)

var AppFs = afero.NewOsFs()

const (
	// FileName is the project configuration file, looked up in the working
	// directory, the home directory and ~/.config/cqlmigrate.
	FileName  = ".cqlmigrate.yaml"
	envPrefix = "CQLMIGRATE"

	DriverCassandra = "cassandra"
	DriverMemory    = "memory"
)

// Config holds the application configuration
type Config struct {
	Driver            string         `yaml:"driver"`
	Hosts             []string       `yaml:"hosts"`
	Port              int            `yaml:"port"`
	Keyspace          string         `yaml:"keyspace"`
	Username          string         `yaml:"username,omitempty"`
	Password          string         `yaml:"-"`
	Consistency       string         `yaml:"consistency"`
	ProtoVersion      int            `yaml:"proto_version,omitempty"`
	Timeout           time.Duration  `yaml:"timeout"`
	HistoryTable      string         `yaml:"history_table"`
	ReplicationClass  string         `yaml:"replication_class"`
	ReplicationFactor int            `yaml:"replication_factor"`
	Datacenters       map[string]int `yaml:"datacenters,omitempty"`
	DurableWrites     bool           `yaml:"durable_writes"`
	LogLevel          string         `yaml:"log_level"`
	LogFormat         string         `yaml:"log_format"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("driver", DriverCassandra)
	v.SetDefault("hosts", []string{"127.0.0.1"})
	v.SetDefault("port", 9042)
	v.SetDefault("consistency", "quorum")
	v.SetDefault("timeout", 10*time.Second)
	v.SetDefault("history_table", cqlgen.HistoryTable)
	v.SetDefault("replication_class", cqlgen.SimpleStrategy)
	v.SetDefault("replication_factor", 1)
	v.SetDefault("durable_writes", true)
	v.SetDefault("log_level", "warn")
	v.SetDefault("log_format", "text")
}

// LoadConfig loads configuration from, in increasing priority: defaults, the
// config file, .env and .env.local, CQLMIGRATE_* environment variables and
// flags. A "config" flag names an explicit config file.
func LoadConfig(flags *pflag.FlagSet) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	// Load .env first so its values are visible to AutomaticEnv
	if _, err := AppFs.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, fmt.Errorf("failed to load .env: %w", err)
		}
	}
	if _, err := AppFs.Stat(".env.local"); err == nil {
		if err := godotenv.Overload(".env.local"); err != nil {
			return nil, fmt.Errorf("failed to load .env.local: %w", err)
		}
	}

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	explicit := ""
	if flags != nil {
		if f := flags.Lookup("config"); f != nil {
			explicit = f.Value.String()
		}
		if err := bindFlags(v, flags); err != nil {
			return nil, err
		}
	}

	if explicit != "" {
		v.SetConfigFile(explicit)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config %s: %w", explicit, err)
		}
	} else {
		home, err := homedir.Dir()
		if err != nil {
			return nil, err
		}
		v.SetConfigName(strings.TrimSuffix(FileName, ".yaml"))
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath(home)
		v.AddConfigPath(filepath.Join(home, ".config", "cqlmigrate"))

		var notFound viper.ConfigFileNotFoundError
		if err := v.ReadInConfig(); err != nil && !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	datacenters := make(map[string]int)
	for dc, rf := range v.GetStringMap("datacenters") {
		n, err := cast.ToIntE(rf)
		if err != nil {
			return nil, fmt.Errorf("invalid replication factor for datacenter %s: %w", dc, err)
		}
		datacenters[dc] = n
	}

	cfg := &Config{
		Driver:            strings.ToLower(v.GetString("driver")),
		Hosts:             splitHosts(v.GetStringSlice("hosts")),
		Port:              v.GetInt("port"),
		Keyspace:          v.GetString("keyspace"),
		Username:          v.GetString("username"),
		Password:          v.GetString("password"),
		Consistency:       v.GetString("consistency"),
		ProtoVersion:      v.GetInt("proto_version"),
		Timeout:           v.GetDuration("timeout"),
		HistoryTable:      v.GetString("history_table"),
		ReplicationClass:  v.GetString("replication_class"),
		ReplicationFactor: v.GetInt("replication_factor"),
		Datacenters:       datacenters,
		DurableWrites:     v.GetBool("durable_writes"),
		LogLevel:          v.GetString("log_level"),
		LogFormat:         v.GetString("log_format"),
	}
	return cfg, nil
}

// bindFlags binds every flag except config to the key of the same name,
// with dashes turned into underscores.
func bindFlags(v *viper.Viper, flags *pflag.FlagSet) error {
	var err error
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Name == "config" || err != nil {
			return
		}
		err = v.BindPFlag(strings.ReplaceAll(f.Name, "-", "_"), f)
	})
	return err
}

// splitHosts accepts both repeated values and comma separated lists.
func splitHosts(values []string) []string {
	var hosts []string
	for _, v := range values {
		for _, h := range strings.Split(v, ",") {
			if h = strings.TrimSpace(h); h != "" {
				hosts = append(hosts, h)
			}
		}
	}
	return hosts
}

// Validate checks the configuration for the selected driver.
func (c *Config) Validate() error {
	switch c.Driver {
	case DriverCassandra:
		if err := c.Cassandra().Validate(); err != nil {
			return err
		}
	case DriverMemory:
		if strings.TrimSpace(c.Keyspace) == "" {
			return errors.New("keyspace is required")
		}
	default:
		return fmt.Errorf("unknown driver %q (want %s or %s)", c.Driver, DriverCassandra, DriverMemory)
	}
	return c.Replication().Validate()
}

// Cassandra returns the connection settings.
func (c *Config) Cassandra() cassandra.Config {
	return cassandra.Config{
		Hosts:          c.Hosts,
		Port:           c.Port,
		Keyspace:       c.Keyspace,
		Username:       c.Username,
		Password:       c.Password,
		Consistency:    c.Consistency,
		ProtoVersion:   c.ProtoVersion,
		Timeout:        c.Timeout,
		ConnectTimeout: c.Timeout,
		HistoryTable:   c.HistoryTable,
	}
}

// Replication returns the replication used when the keyspace is created.
func (c *Config) Replication() cqlgen.Replication {
	return cqlgen.Replication{
		Class:             c.ReplicationClass,
		ReplicationFactor: c.ReplicationFactor,
		Datacenters:       c.Datacenters,
	}
}

// SaveConfig writes cfg as YAML to path. The password is never written.
func SaveConfig(cfg *Config, path string) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := AppFs.MkdirAll(dir, 0755); err != nil {
			return err
		}
	}
	return afero.WriteFile(AppFs, path, data, 0644)
}
