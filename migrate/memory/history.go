package memory

import (
	"context"

	"github.com/satishbabariya/cqlmigrate/migrate/cqlgen"
	"github.com/satishbabariya/cqlmigrate/migrate/history"
)

// History returns the ledger store backed by this keyspace.
func (k *Keyspace) History() history.Store {
	return &historyStore{k: k}
}

// Records returns a copy of the ledger contents in insertion order.
func (k *Keyspace) Records() []history.MigrationRecord {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]history.MigrationRecord(nil), k.records...)
}

type historyStore struct {
	k *Keyspace
}

func (s *historyStore) Table() string {
	return s.k.historyTable
}

func (s *historyStore) EnsureTable(ctx context.Context) error {
	return s.k.ExecuteStatement(ctx, cqlgen.CreateHistoryTable(s.k.historyTable))
}

func (s *historyStore) Insert(ctx context.Context, record history.MigrationRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k := s.k
	k.mu.Lock()
	defer k.mu.Unlock()

	stmt := cqlgen.InsertHistory(k.historyTable)
	k.statements = append(k.statements, stmt)
	for _, fn := range k.interceptors {
		if err := fn(stmt); err != nil {
			return err
		}
	}
	if !k.created {
		return invalid("Keyspace '%s' does not exist", k.name)
	}
	if k.tableIndex(k.historyTable) < 0 {
		return invalid("unconfigured table %s", k.historyTable)
	}
	record.AppliedAt = record.AppliedAt.UTC()
	k.records = append(k.records, record)
	return nil
}

func (s *historyStore) List(ctx context.Context) ([]history.MigrationRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	k := s.k
	k.mu.RLock()
	defer k.mu.RUnlock()

	if !k.created {
		return nil, invalid("Keyspace '%s' does not exist", k.name)
	}
	if k.tableIndex(k.historyTable) < 0 {
		return nil, invalid("unconfigured table %s", k.historyTable)
	}
	return append([]history.MigrationRecord(nil), k.records...), nil
}
