package migrate

import (
	"context"

	"github.com/satishbabariya/cqlmigrate/migrate/history"
)

// State is the state of a registered migration relative to the history.
type State string

const (
	// StateApplied means a history record exists for the migration's version.
	StateApplied State = "applied"
	// StatePending means the next Migrate call applies the migration.
	StatePending State = "pending"
	// StateSkipped means the migration was never applied but its version is at
	// or below the latest applied version, so Migrate never applies it.
	StateSkipped State = "skipped"
)

// MigrationStatus pairs a registered migration with its state and, when
// applied, its most recent history record.
type MigrationStatus struct {
	Migration Migration
	State     State
	Record    *history.MigrationRecord
}

// Status reports the state of every registered migration in ascending order.
func (e *Engine) Status(ctx context.Context) ([]MigrationStatus, error) {
	records, err := e.history.GetAll(ctx)
	if err != nil {
		return nil, err
	}
	byVersion := history.ByVersion(records)

	var latest *history.MigrationRecord
	if len(records) > 0 {
		latest = &records[0]
	}

	out := make([]MigrationStatus, 0, len(e.migrations))
	for _, m := range e.migrations {
		status := MigrationStatus{Migration: m, State: StatePending}
		if r, ok := byVersion[m.Version()]; ok {
			status.State = StateApplied
			status.Record = &r
		} else if latest != nil {
			lv, err := latest.ParsedVersion()
			if err != nil {
				return nil, err
			}
			if m.Version().LessOrEqual(lv) {
				status.State = StateSkipped
			}
		}
		out = append(out, status)
	}
	return out, nil
}

// Pending returns the migrations the next Migrate call would apply, in order.
func (e *Engine) Pending(ctx context.Context) ([]Migration, error) {
	statuses, err := e.Status(ctx)
	if err != nil {
		return nil, err
	}
	var pending []Migration
	for _, s := range statuses {
		if s.State == StatePending {
			pending = append(pending, s.Migration)
		}
	}
	return pending, nil
}
