package cqlgen

import (
	"fmt"
	"sort"
	"strings"

	"github.com/satishbabariya/cqlmigrate/migrate/schemaerr"
)

const (
	SimpleStrategy          = "SimpleStrategy"
	NetworkTopologyStrategy = "NetworkTopologyStrategy"
)

// Replication is the replication setting of a keyspace.
type Replication struct {
	Class             string
	ReplicationFactor int
	// Datacenters maps datacenter name to replication factor
	// (NetworkTopologyStrategy only).
	Datacenters map[string]int
}

// DefaultReplication is SimpleStrategy with a single replica.
func DefaultReplication() Replication {
	return Replication{Class: SimpleStrategy, ReplicationFactor: 1}
}

// Validate checks that the class has the options it needs.
func (r Replication) Validate() error {
	switch r.Class {
	case SimpleStrategy:
		if r.ReplicationFactor < 1 {
			return schemaerr.Invalid("replication", "%s requires a replication_factor of at least 1", SimpleStrategy)
		}
	case NetworkTopologyStrategy:
		if len(r.Datacenters) == 0 {
			return schemaerr.Invalid("replication", "%s requires at least one datacenter", NetworkTopologyStrategy)
		}
		for dc, rf := range r.Datacenters {
			if strings.TrimSpace(dc) == "" || rf < 1 {
				return schemaerr.Invalid("replication", "invalid datacenter %q with replication factor %d", dc, rf)
			}
		}
	default:
		return schemaerr.Invalid("replication", "unknown replication class %q", r.Class)
	}
	return nil
}

// String renders the replication map, e.g.
// {'class': 'SimpleStrategy', 'replication_factor': 1}.
func (r Replication) String() string {
	parts := []string{fmt.Sprintf("'class': '%s'", r.Class)}
	switch r.Class {
	case NetworkTopologyStrategy:
		dcs := make([]string, 0, len(r.Datacenters))
		for dc := range r.Datacenters {
			dcs = append(dcs, dc)
		}
		sort.Strings(dcs)
		for _, dc := range dcs {
			parts = append(parts, fmt.Sprintf("'%s': %d", dc, r.Datacenters[dc]))
		}
	default:
		parts = append(parts, fmt.Sprintf("'replication_factor': %d", r.ReplicationFactor))
	}
	return "{" + strings.Join(parts, ", ") + "}"
}

// CreateKeyspace renders CREATE KEYSPACE IF NOT EXISTS.
func CreateKeyspace(name string, r Replication, durableWrites bool) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	return fmt.Sprintf("CREATE KEYSPACE IF NOT EXISTS %s WITH replication = %s AND durable_writes = %t;", Ident(name), r, durableWrites), nil
}
