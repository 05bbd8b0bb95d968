package frecency

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// Store persists the visit history between sessions.
type Store interface {
	Load(ctx context.Context) (Map, error)
	Save(ctx context.Context, m Map) error
}

// SQLiteStore keeps the history in a single sqlite table.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (or creates) the database at dbPath.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("creating frecency directory: %w", err)
		}
	}
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	schema := `
	CREATE TABLE IF NOT EXISTS frecency (
		path TEXT PRIMARY KEY,
		count INTEGER,
		last_access INTEGER
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load reads every row. A row with a missing or negative value makes the
// whole history malformed.
func (s *SQLiteStore) Load(ctx context.Context) (Map, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT path, count, last_access FROM frecency")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	m := Map{}
	for rows.Next() {
		var path string
		var count, last sql.NullInt64
		if err := rows.Scan(&path, &count, &last); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if !count.Valid || !last.Valid {
			return nil, fmt.Errorf("%w: incomplete row for %q", ErrMalformed, path)
		}
		m[path] = Entry{Count: count.Int64, LastAccess: last.Int64}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(m) == 0 {
		return nil, nil
	}
	if err := Validate(m); err != nil {
		return nil, err
	}
	return m, nil
}

// Save replaces the stored history with m.
func (s *SQLiteStore) Save(ctx context.Context, m Map) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, "DELETE FROM frecency"); err != nil {
		return err
	}
	for p, e := range m {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO frecency (path, count, last_access) VALUES (?, ?, ?)",
			p, e.Count, e.LastAccess)
		if err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Reset drops every stored entry.
func (s *SQLiteStore) Reset(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, "DELETE FROM frecency")
	return err
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// MemoryStore holds the history as encoded JSON, the way a browser key-value
// store would.
type MemoryStore struct {
	mu   sync.Mutex
	data []byte
}

// NewMemoryStore returns a store preloaded with raw, which may be nil.
func NewMemoryStore(raw []byte) *MemoryStore {
	return &MemoryStore{data: raw}
}

func (s *MemoryStore) Load(context.Context) (Map, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.data == nil {
		return nil, nil
	}
	return Decode(s.data)
}

func (s *MemoryStore) Save(_ context.Context, m Map) error {
	data, err := Encode(m)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.data = data
	s.mu.Unlock()
	return nil
}

// Raw returns the stored bytes.
func (s *MemoryStore) Raw() []byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]byte(nil), s.data...)
}

// Writer serializes saves to a Store. Every snapshot carries a sequence
// number, and a snapshot older than the last one written is dropped.
type Writer struct {
	store Store
	mu    sync.Mutex
	last  uint64
}

// NewWriter wraps store.
func NewWriter(store Store) *Writer {
	return &Writer{store: store}
}

// Save writes m unless a snapshot with a higher seq was already written. It
// reports whether m reached the store.
func (w *Writer) Save(ctx context.Context, seq uint64, m Map) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if seq <= w.last {
		return false, nil
	}
	if err := w.store.Save(ctx, m); err != nil {
		return false, err
	}
	w.last = seq
	return true, nil
}

// LoadOrSeed reads the history from store. An empty, unreadable, or malformed
// history is replaced by Seed. The required roots are always present in the
// result.
func LoadOrSeed(ctx context.Context, store Store, now time.Time, log *logrus.Entry) Map {
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = logrus.NewEntry(l)
	}
	log = log.WithField("component", "frecency")

	var m Map
	var err error
	if store != nil {
		m, err = store.Load(ctx)
	}
	switch {
	case errors.Is(err, ErrMalformed):
		log.WithError(err).Warn("Discarding malformed frecency history")
		m = nil
	case err != nil:
		log.WithError(err).Warn("Failed to load frecency history")
		m = nil
	}
	if len(m) == 0 {
		log.Debug("Using seeded frecency history")
		m = Seed(now)
	}
	return EnsureRoots(m, now)
}
