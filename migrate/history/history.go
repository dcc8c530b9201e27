// Package history manages the append-only ledger of applied migrations.
package history

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/satishbabariya/cqlmigrate/internal/debug"
	"github.com/satishbabariya/cqlmigrate/migrate/version"
)

// MigrationRecord represents a migration in the history
type MigrationRecord struct {
	Name        string
	Version     string
	AppliedAt   time.Time
	Description string
}

// ParsedVersion parses the stored version string.
func (r MigrationRecord) ParsedVersion() (version.Version, error) {
	v, err := version.Parse(r.Version)
	if err != nil {
		return version.Version{}, fmt.Errorf("history record %q: %w", r.Name, err)
	}
	return v, nil
}

// Store persists migration records. Records are never updated or deleted.
type Store interface {
	// Table returns the name of the ledger table.
	Table() string
	// EnsureTable creates the ledger table if it does not exist.
	EnsureTable(ctx context.Context) error
	// Insert appends a record.
	Insert(ctx context.Context, record MigrationRecord) error
	// List returns every record in storage order.
	List(ctx context.Context) ([]MigrationRecord, error)
}

// Manager manages migration history
type Manager struct {
	store  Store
	logger *slog.Logger
	now    func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithLogger sets the logger. Nil means the global logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides the time source for AppliedAt.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a new migration history manager
func NewManager(store Store, opts ...Option) *Manager {
	m := &Manager{store: store, now: time.Now}
	for _, opt := range opts {
		opt(m)
	}
	m.logger = debug.Or(m.logger)
	return m
}

// InitTable creates the migrations history table
func (m *Manager) InitTable(ctx context.Context) error {
	if err := m.store.EnsureTable(ctx); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// Record appends a record for a successfully applied migration. AppliedAt is
// stamped in UTC.
func (m *Manager) Record(ctx context.Context, name string, v version.Version, description string) (MigrationRecord, error) {
	record := MigrationRecord{
		Name:        name,
		Version:     v.String(),
		AppliedAt:   m.now().UTC(),
		Description: description,
	}
	if err := m.store.Insert(ctx, record); err != nil {
		return MigrationRecord{}, fmt.Errorf("failed to record migration %s (%s): %w", name, record.Version, err)
	}
	m.logger.Debug("recorded migration", "migration", name, "version", record.Version)
	return record, nil
}

// GetAll returns all migration records, newest version first. Duplicate
// records for a version (written by racing engines) are all returned, most
// recently applied first.
func (m *Manager) GetAll(ctx context.Context) ([]MigrationRecord, error) {
	records, err := m.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to query migrations: %w", err)
	}

	versions := make([]version.Version, len(records))
	for i, r := range records {
		v, err := r.ParsedVersion()
		if err != nil {
			return nil, err
		}
		versions[i] = v
	}

	idx := make([]int, len(records))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		va, vb := versions[idx[a]], versions[idx[b]]
		if c := va.Compare(vb); c != 0 {
			return c > 0
		}
		return records[idx[a]].AppliedAt.After(records[idx[b]].AppliedAt)
	})

	sorted := make([]MigrationRecord, len(records))
	for i, j := range idx {
		sorted[i] = records[j]
	}
	return sorted, nil
}

// Latest returns the record with the highest version, or nil when the
// ledger is empty.
func (m *Manager) Latest(ctx context.Context) (*MigrationRecord, error) {
	records, err := m.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, nil
	}
	return &records[0], nil
}

// LatestVersion returns the highest recorded version and whether any exists.
func (m *Manager) LatestVersion(ctx context.Context) (version.Version, bool, error) {
	latest, err := m.Latest(ctx)
	if err != nil || latest == nil {
		return version.Version{}, false, err
	}
	v, err := latest.ParsedVersion()
	if err != nil {
		return version.Version{}, false, err
	}
	return v, true, nil
}

// ByVersion indexes records by their parsed version, so "1.0" and "1.0.0"
// land on the same key. Records with an unparsable version are left out.
func ByVersion(records []MigrationRecord) map[version.Version]MigrationRecord {
	out := make(map[version.Version]MigrationRecord, len(records))
	// records are newest first; keep the most recent duplicate
	for i := len(records) - 1; i >= 0; i-- {
		v, err := records[i].ParsedVersion()
		if err != nil {
			continue
		}
		out[v] = records[i]
	}
	return out
}
