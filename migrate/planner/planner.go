// Package planner generates migration plans by rehearsing migrations against
// a shadow keyspace.
package planner

import (
	"context"
	"fmt"

	"github.com/satishbabariya/cqlmigrate/migrate"
	"github.com/satishbabariya/cqlmigrate/migrate/executor"
	"github.com/satishbabariya/cqlmigrate/migrate/memory"
	"github.com/satishbabariya/cqlmigrate/migrate/shadow"
)

// MigrationPlan represents a planned migration run
type MigrationPlan struct {
	Keyspace string
	// Bootstrap holds the keyspace and history table statements issued
	// before any migration.
	Bootstrap []string
	Steps     []MigrationStep
}

// MigrationStep represents one migration the run would apply
type MigrationStep struct {
	Name        string
	Version     string
	Description string
	// Statements are the DDL statements the migration issued on the shadow
	// keyspace. Empty when every operation was already satisfied.
	Statements []string
}

// Statements returns every statement of the plan in execution order,
// excluding history bookkeeping.
func (p *MigrationPlan) Statements() []string {
	out := append([]string(nil), p.Bootstrap...)
	for _, step := range p.Steps {
		out = append(out, step.Statements...)
	}
	return out
}

// Planner generates migration plans
type Planner struct {
	shadow     *shadow.ShadowDB
	migrations []migrate.Migration
	opts       []migrate.Option
}

// NewPlanner creates a planner for migrations. opts are passed to the engine
// that runs on the shadow keyspace and must not include WithMigrations.
func NewPlanner(s *shadow.ShadowDB, migrations []migrate.Migration, opts ...migrate.Option) *Planner {
	return &Planner{shadow: s, migrations: migrations, opts: opts}
}

// Plan refreshes the shadow keyspace and runs the migrations on it. When a
// migration fails, the plan up to the failure is returned with the error.
func (p *Planner) Plan(ctx context.Context) (*MigrationPlan, error) {
	if err := p.shadow.Create(ctx); err != nil {
		return nil, err
	}
	k := p.shadow.Session()
	plan := &MigrationPlan{Keyspace: k.Keyspace()}

	wrapped := make([]migrate.Migration, len(p.migrations))
	for i, m := range p.migrations {
		wrapped[i] = &recording{Migration: m, keyspace: k, plan: plan}
	}

	opts := append(append([]migrate.Option(nil), p.opts...), migrate.WithMigrations(wrapped...))
	engine, err := migrate.New(ctx, k, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to start shadow engine: %w", err)
	}
	plan.Bootstrap = k.Statements()

	if _, err := engine.Migrate(ctx); err != nil {
		return plan, err
	}
	return plan, nil
}

// recording captures the statements a migration issues.
type recording struct {
	migrate.Migration
	keyspace *memory.Keyspace
	plan     *MigrationPlan
}

func (r *recording) Apply(ctx context.Context, x *executor.Executor) error {
	before := len(r.keyspace.Statements())
	err := r.Migration.Apply(ctx, x)

	step := MigrationStep{
		Name:        r.Name(),
		Version:     r.Version().String(),
		Description: r.Description(),
	}
	if issued := r.keyspace.Statements(); len(issued) > before {
		step.Statements = issued[before:]
	}
	r.plan.Steps = append(r.plan.Steps, step)
	return err
}
