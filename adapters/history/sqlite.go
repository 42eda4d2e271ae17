package history

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/leonw111/mac-ai-toolkit/domain/entities"
	"github.com/leonw111/mac-ai-toolkit/domain/repositories"
)

// Store persists one row per capability invocation in a local SQLite file.
// Record is fire-and-forget: entries go through a buffered channel to a
// single writer goroutine and are dropped with a warning when the buffer is
// full, never blocking a capability wrapper.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
	queue  chan entities.HistoryEntry
	done   chan struct{}
	clock  func() time.Time

	closeMu sync.RWMutex
	closed  bool
}

// Open initializes the history store at path, creating parent directories
// and the schema as needed.
func Open(ctx context.Context, path string, logger *zap.Logger) (*Store, error) {
	dir := filepath.Dir(path)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	ddl := `
CREATE TABLE IF NOT EXISTS invocations (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    capability TEXT NOT NULL,
    operation TEXT NOT NULL,
    ok INTEGER NOT NULL,
    error_kind TEXT,
    detail TEXT,
    created_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_invocations_created_at ON invocations(created_at);`
	if _, err := db.ExecContext(ctx, ddl); err != nil {
		db.Close()
		return nil, fmt.Errorf("init history schema: %w", err)
	}

	s := &Store{
		db:     db,
		logger: logger,
		queue:  make(chan entities.HistoryEntry, 256),
		done:   make(chan struct{}),
		clock:  time.Now,
	}
	go s.writer()
	return s, nil
}

// Record implements repositories.HistoryRecorder. Entries arriving after
// Close are dropped.
func (s *Store) Record(_ context.Context, entry entities.HistoryEntry) {
	s.closeMu.RLock()
	defer s.closeMu.RUnlock()
	if s.closed {
		return
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.clock()
	}
	select {
	case s.queue <- entry:
	default:
		s.logger.Warn("history queue full, dropping entry",
			zap.String("capability", entry.Capability),
			zap.String("operation", entry.Operation))
	}
}

func (s *Store) writer() {
	defer close(s.done)
	for entry := range s.queue {
		_, err := s.db.Exec(
			`INSERT INTO invocations (capability, operation, ok, error_kind, detail, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
			entry.Capability, entry.Operation, entry.OK, entry.ErrorKind, entry.Detail, entry.CreatedAt.UTC(),
		)
		if err != nil {
			s.logger.Warn("history insert failed", zap.Error(err))
		}
	}
}

// Recent returns up to limit entries, newest first. Consumed by the UI.
func (s *Store) Recent(ctx context.Context, limit int) ([]entities.HistoryEntry, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, capability, operation, ok, error_kind, detail, created_at
		 FROM invocations ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var entries []entities.HistoryEntry
	for rows.Next() {
		var entry entities.HistoryEntry
		var errorKind, detail sql.NullString
		if err := rows.Scan(&entry.ID, &entry.Capability, &entry.Operation, &entry.OK, &errorKind, &detail, &entry.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		entry.ErrorKind = errorKind.String
		entry.Detail = detail.String
		entries = append(entries, entry)
	}
	return entries, rows.Err()
}

// Close drains pending writes and closes the database. Idempotent.
func (s *Store) Close() error {
	s.closeMu.Lock()
	if s.closed {
		s.closeMu.Unlock()
		return nil
	}
	s.closed = true
	s.closeMu.Unlock()

	close(s.queue)
	<-s.done
	return s.db.Close()
}

var _ repositories.HistoryRecorder = (*Store)(nil)

// NopRecorder discards every entry. Used when history is disabled and in
// tests.
type NopRecorder struct{}

func (NopRecorder) Record(context.Context, entities.HistoryEntry) {}

var _ repositories.HistoryRecorder = NopRecorder{}
