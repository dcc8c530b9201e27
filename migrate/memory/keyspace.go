// Package memory provides an in-memory shadow keyspace. It parses and applies
// CQL schema statements to in-memory metadata and fails the way a cluster
// does, which makes it usable both as a test double and for dry runs.
package memory

import (
	"context"
	"sync"

	"github.com/satishbabariya/cqlmigrate/migrate/cqlgen"
	"github.com/satishbabariya/cqlmigrate/migrate/history"
	"github.com/satishbabariya/cqlmigrate/migrate/introspect"
)

// Interceptor inspects a statement before it is applied. A non-nil error is
// returned to the caller and the statement is not applied.
type Interceptor func(stmt string) error

// Keyspace is an in-memory keyspace. It is safe for concurrent use.
type Keyspace struct {
	mu           sync.RWMutex
	name         string
	created      bool
	schema       *introspect.KeyspaceSchema
	others       map[string]bool
	statements   []string
	interceptors []Interceptor
	historyTable string
	records      []history.MigrationRecord
}

// Option configures a Keyspace.
type Option func(*Keyspace)

// Created makes the keyspace exist from the start, as if CREATE KEYSPACE had
// already run.
func Created() Option {
	return func(k *Keyspace) { k.created = true }
}

// WithHistoryTable overrides the ledger table name.
func WithHistoryTable(name string) Option {
	return func(k *Keyspace) { k.historyTable = ident(name) }
}

// New creates an empty keyspace named name. The keyspace does not exist until
// it is created with CREATE KEYSPACE, unless Created is passed.
func New(name string, opts ...Option) *Keyspace {
	k := &Keyspace{
		name:         ident(name),
		others:       make(map[string]bool),
		historyTable: cqlgen.HistoryTable,
	}
	k.schema = &introspect.KeyspaceSchema{Name: k.name}
	for _, opt := range opts {
		opt(k)
	}
	return k
}

// Seed replaces the keyspace contents with a copy of snapshot and marks the
// keyspace as created.
func (k *Keyspace) Seed(snapshot *introspect.KeyspaceSchema) {
	k.mu.Lock()
	defer k.mu.Unlock()

	k.schema = cloneSchema(snapshot)
	k.schema.Name = k.name
	k.created = true
}

// SeedHistory replaces the ledger contents.
func (k *Keyspace) SeedHistory(records []history.MigrationRecord) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.records = append([]history.MigrationRecord(nil), records...)
}

// Intercept registers an interceptor run before every statement.
func (k *Keyspace) Intercept(fn Interceptor) {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.interceptors = append(k.interceptors, fn)
}

// Statements returns every statement passed to ExecuteStatement, including
// failed ones, in order.
func (k *Keyspace) Statements() []string {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return append([]string(nil), k.statements...)
}

// ResetStatements clears the statement log.
func (k *Keyspace) ResetStatements() {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.statements = nil
}

// ExecuteStatement parses and applies one schema statement.
func (k *Keyspace) ExecuteStatement(ctx context.Context, stmt string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	k.mu.Lock()
	defer k.mu.Unlock()

	k.statements = append(k.statements, stmt)
	for _, fn := range k.interceptors {
		if err := fn(stmt); err != nil {
			return err
		}
	}

	parsed, err := parse(stmt)
	if err != nil {
		return syntaxError(err)
	}
	return k.apply(parsed)
}

// Keyspace returns the keyspace name.
func (k *Keyspace) Keyspace() string {
	return k.name
}

// Exists reports whether the keyspace has been created.
func (k *Keyspace) Exists() bool {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.created
}

func (k *Keyspace) reader() *introspect.Static {
	return introspect.NewStatic(k.schema)
}

// Table implements introspect.MetadataReader.
func (k *Keyspace) Table(ctx context.Context, name string) (*introspect.TableMetadata, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.reader().Table(ctx, name)
}

// CompositeType implements introspect.MetadataReader.
func (k *Keyspace) CompositeType(ctx context.Context, name string) (*introspect.TypeMetadata, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.reader().CompositeType(ctx, name)
}

// MaterializedView implements introspect.MetadataReader.
func (k *Keyspace) MaterializedView(ctx context.Context, name string) (*introspect.ViewMetadata, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.reader().MaterializedView(ctx, name)
}

// Tables implements introspect.MetadataReader.
func (k *Keyspace) Tables(ctx context.Context) ([]introspect.TableMetadata, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.reader().Tables(ctx)
}

// CompositeTypes implements introspect.MetadataReader.
func (k *Keyspace) CompositeTypes(ctx context.Context) ([]introspect.TypeMetadata, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.reader().CompositeTypes(ctx)
}

// MaterializedViews implements introspect.MetadataReader.
func (k *Keyspace) MaterializedViews(ctx context.Context) ([]introspect.ViewMetadata, error) {
	k.mu.RLock()
	defer k.mu.RUnlock()
	return k.reader().MaterializedViews(ctx)
}

func cloneSchema(s *introspect.KeyspaceSchema) *introspect.KeyspaceSchema {
	out := &introspect.KeyspaceSchema{Name: s.Name}
	for _, t := range s.Tables {
		t.Columns = append([]introspect.Column(nil), t.Columns...)
		out.Tables = append(out.Tables, t)
	}
	for _, t := range s.Types {
		t.FieldNames = append([]string(nil), t.FieldNames...)
		t.FieldTypes = append([]string(nil), t.FieldTypes...)
		out.Types = append(out.Types, t)
	}
	for _, v := range s.Views {
		v.Columns = append([]introspect.Column(nil), v.Columns...)
		out.Views = append(out.Views, v)
	}
	return out
}
