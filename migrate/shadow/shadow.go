// Package shadow provides shadow keyspace management for safe migration rehearsal.
package shadow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/satishbabariya/cqlmigrate/internal/debug"
	"github.com/satishbabariya/cqlmigrate/migrate"
	"github.com/satishbabariya/cqlmigrate/migrate/introspect"
	"github.com/satishbabariya/cqlmigrate/migrate/memory"
)

// ShadowDB is an in-memory copy of a live keyspace, including its migration
// history. Statements run against the copy never reach the cluster.
type ShadowDB struct {
	live     migrate.Session
	keyspace *memory.Keyspace
	logger   *slog.Logger
}

// NewShadowDB creates a shadow manager for live. Nil logger means the global logger.
func NewShadowDB(live migrate.Session, logger *slog.Logger) *ShadowDB {
	return &ShadowDB{
		live:   live,
		logger: debug.Or(logger).With("shadow", live.Keyspace()),
	}
}

// Create copies the live schema and history into a fresh shadow keyspace.
// Calling Create again discards the previous copy.
func (s *ShadowDB) Create(ctx context.Context) error {
	inspect := introspect.New(s.live)

	snapshot, err := inspect.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("failed to snapshot keyspace %s: %w", s.live.Keyspace(), err)
	}

	ledger := s.live.History()
	k := memory.New(s.live.Keyspace(), memory.WithHistoryTable(ledger.Table()))
	k.Seed(snapshot)

	hasHistory, err := inspect.TableExists(ctx, ledger.Table())
	if err != nil {
		return fmt.Errorf("failed to check migration history: %w", err)
	}
	if hasHistory {
		records, err := ledger.List(ctx)
		if err != nil {
			return fmt.Errorf("failed to copy migration history: %w", err)
		}
		k.SeedHistory(records)
		s.logger.Debug("copied migration history", "records", len(records))
	}

	s.logger.Debug("created shadow keyspace",
		"tables", len(snapshot.Tables),
		"types", len(snapshot.Types),
		"views", len(snapshot.Views))
	s.keyspace = k
	return nil
}

// Session returns the shadow keyspace, or nil before Create.
func (s *ShadowDB) Session() *memory.Keyspace {
	return s.keyspace
}

// Drop discards the shadow keyspace.
func (s *ShadowDB) Drop() {
	s.keyspace = nil
}
