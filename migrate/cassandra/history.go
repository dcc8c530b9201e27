package cassandra

import (
	"context"
	"fmt"
	"time"

	"github.com/satishbabariya/cqlmigrate/migrate/cqlgen"
	"github.com/satishbabariya/cqlmigrate/migrate/history"
)

type historyStore struct {
	s     *Session
	table string
}

func (h *historyStore) Table() string {
	return h.table
}

func (h *historyStore) EnsureTable(ctx context.Context) error {
	return h.s.ExecuteStatement(ctx, cqlgen.CreateHistoryTable(h.table))
}

func (h *historyStore) Insert(ctx context.Context, record history.MigrationRecord) error {
	session, err := h.s.session()
	if err != nil {
		return err
	}
	return session.Query(cqlgen.InsertHistory(h.table),
		record.Name, record.Version, record.AppliedAt.UTC(), record.Description,
	).ExecContext(ctx)
}

func (h *historyStore) List(ctx context.Context) ([]history.MigrationRecord, error) {
	session, err := h.s.session()
	if err != nil {
		return nil, err
	}

	iter := session.Query(cqlgen.SelectHistory(h.table)).IterContext(ctx)
	var records []history.MigrationRecord
	var name, version, description string
	var appliedAt time.Time
	for iter.Scan(&name, &version, &appliedAt, &description) {
		records = append(records, history.MigrationRecord{
			Name:        name,
			Version:     version,
			AppliedAt:   appliedAt.UTC(),
			Description: description,
		})
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", h.table, err)
	}
	return records, nil
}
