// Package cassandra connects the migration engine to a Cassandra cluster.
package cassandra

import (
	"errors"
	"fmt"
	"strings"
	"time"

	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/satishbabariya/cqlmigrate/migrate/cqlgen"
)

// Config holds the connection settings.
type Config struct {
	Hosts          []string
	Port           int
	Keyspace       string
	Username       string
	Password       string
	Consistency    string
	ProtoVersion   int
	Timeout        time.Duration
	ConnectTimeout time.Duration
	// HistoryTable overrides the migration ledger table name.
	HistoryTable string
}

// DefaultConfig returns the settings for a local single node cluster.
func DefaultConfig() Config {
	return Config{
		Hosts:          []string{"127.0.0.1"},
		Port:           9042,
		Consistency:    "quorum",
		Timeout:        10 * time.Second,
		ConnectTimeout: 10 * time.Second,
		HistoryTable:   cqlgen.HistoryTable,
	}
}

// Validate checks that the configuration can be used to connect.
func (c Config) Validate() error {
	var errs []error
	if len(c.Hosts) == 0 {
		errs = append(errs, errors.New("at least one contact point is required"))
	}
	for _, h := range c.Hosts {
		if strings.TrimSpace(h) == "" {
			errs = append(errs, errors.New("contact points must not be empty"))
			break
		}
	}
	if c.Port <= 0 || c.Port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d", c.Port))
	}
	if strings.TrimSpace(c.Keyspace) == "" {
		errs = append(errs, errors.New("keyspace is required"))
	}
	if c.Username != "" && c.Password == "" {
		errs = append(errs, errors.New("password is required when a username is set"))
	}
	if _, err := ParseConsistency(c.Consistency); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// ParseConsistency maps a consistency level name to the driver constant.
// The empty string means QUORUM.
func ParseConsistency(s string) (gocql.Consistency, error) {
	switch strings.ToUpper(strings.ReplaceAll(strings.TrimSpace(s), "-", "_")) {
	case "", "QUORUM":
		return gocql.Quorum, nil
	case "ANY":
		return gocql.Any, nil
	case "ONE":
		return gocql.One, nil
	case "TWO":
		return gocql.Two, nil
	case "THREE":
		return gocql.Three, nil
	case "ALL":
		return gocql.All, nil
	case "LOCAL_QUORUM":
		return gocql.LocalQuorum, nil
	case "EACH_QUORUM":
		return gocql.EachQuorum, nil
	case "LOCAL_ONE":
		return gocql.LocalOne, nil
	default:
		return 0, fmt.Errorf("unknown consistency level %q", s)
	}
}

func (c Config) cluster(keyspace string) (*gocql.ClusterConfig, error) {
	consistency, err := ParseConsistency(c.Consistency)
	if err != nil {
		return nil, err
	}

	cluster := gocql.NewCluster(c.Hosts...)
	cluster.Port = c.Port
	cluster.Keyspace = keyspace
	cluster.Consistency = consistency
	if c.ProtoVersion > 0 {
		cluster.ProtoVersion = c.ProtoVersion
	}
	if c.Timeout > 0 {
		cluster.Timeout = c.Timeout
	}
	if c.ConnectTimeout > 0 {
		cluster.ConnectTimeout = c.ConnectTimeout
	}
	if c.Username != "" {
		cluster.Authenticator = gocql.PasswordAuthenticator{
			Username: c.Username,
			Password: c.Password,
		}
	}
	return cluster, nil
}
