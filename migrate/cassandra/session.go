package cassandra

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	gocql "github.com/apache/cassandra-gocql-driver/v2"

	"github.com/satishbabariya/cqlmigrate/internal/debug"
	"github.com/satishbabariya/cqlmigrate/migrate/cqlgen"
	"github.com/satishbabariya/cqlmigrate/migrate/cqltype"
	"github.com/satishbabariya/cqlmigrate/migrate/history"
)

// Session executes schema statements against one keyspace. It holds a
// keyspace-less admin session, used for keyspace creation and metadata reads,
// and opens a keyspace-bound session on first use, once the keyspace exists.
type Session struct {
	cfg      Config
	keyspace string
	admin    *gocql.Session
	logger   *slog.Logger

	mu    sync.Mutex
	bound *gocql.Session
}

// Connect opens the admin session.
func Connect(cfg Config, logger *slog.Logger) (*Session, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid cassandra config: %w", err)
	}
	if cfg.HistoryTable == "" {
		cfg.HistoryTable = cqlgen.HistoryTable
	}

	cluster, err := cfg.cluster("")
	if err != nil {
		return nil, err
	}
	admin, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", strings.Join(cfg.Hosts, ","), err)
	}

	s := &Session{
		cfg:      cfg,
		keyspace: cqltype.Normalize(cfg.Keyspace),
		admin:    admin,
		logger:   debug.Or(logger).With("keyspace", cqltype.Normalize(cfg.Keyspace)),
	}
	s.logger.Debug("connected", "hosts", cfg.Hosts, "port", cfg.Port)
	return s, nil
}

// Keyspace returns the keyspace the session is scoped to.
func (s *Session) Keyspace() string {
	return s.keyspace
}

// ExecuteStatement runs one statement. Keyspace level statements go through
// the admin session, everything else through the keyspace-bound session.
func (s *Session) ExecuteStatement(ctx context.Context, stmt string) error {
	if isKeyspaceStatement(stmt) {
		return s.admin.Query(stmt).ExecContext(ctx)
	}

	bound, err := s.session()
	if err != nil {
		return err
	}
	return bound.Query(stmt).ExecContext(ctx)
}

func isKeyspaceStatement(stmt string) bool {
	fields := strings.Fields(strings.ToUpper(stmt))
	return len(fields) >= 2 && fields[1] == "KEYSPACE" &&
		(fields[0] == "CREATE" || fields[0] == "ALTER" || fields[0] == "DROP")
}

func (s *Session) session() (*gocql.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.bound != nil {
		return s.bound, nil
	}
	cluster, err := s.cfg.cluster(s.keyspace)
	if err != nil {
		return nil, err
	}
	bound, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("failed to open session for keyspace %s: %w", s.keyspace, err)
	}
	s.bound = bound
	return bound, nil
}

// History returns the ledger store of the keyspace.
func (s *Session) History() history.Store {
	return &historyStore{s: s, table: cqltype.Normalize(s.cfg.HistoryTable)}
}

// Close closes both sessions.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound != nil {
		s.bound.Close()
		s.bound = nil
	}
	s.admin.Close()
}
