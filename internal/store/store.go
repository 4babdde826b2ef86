// Package store executes validated read-only SQL against the analytical
// database. The connection pool is created lazily, at most once per process;
// a failed creation is reset so the next request retries it.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/lib/pq"
)

// Row is one result record, keyed by column name.
type Row map[string]interface{}

// ExecutionError wraps any store-side failure (connectivity, timeout, engine
// rejection). Its message is for logs only and must never reach a response.
type ExecutionError struct {
	Err error
}

func (e *ExecutionError) Error() string { return fmt.Sprintf("query execution failed: %v", e.Err) }
func (e *ExecutionError) Unwrap() error { return e.Err }

// Config configures the pool. Pool bounds mirror the upstream defaults: at
// most 10 open connections, 30s idle lifetime, 30s per-query timeout.
type Config struct {
	Driver       string
	URL          string
	MaxOpenConns int
	MaxIdleConns int
	ConnMaxIdle  time.Duration
	QueryTimeout time.Duration
}

// Store owns the shared, memoized connection pool. Safe for concurrent use;
// the pool itself multiplexes requests once created.
type Store struct {
	cfg    Config
	logger *log.Logger

	mu sync.Mutex
	db *sql.DB
}

// New returns a Store that will open its pool on first use.
func New(cfg Config) *Store {
	if cfg.Driver == "" {
		cfg.Driver = "postgres"
	}
	if cfg.MaxOpenConns == 0 {
		cfg.MaxOpenConns = 10
	}
	if cfg.ConnMaxIdle == 0 {
		cfg.ConnMaxIdle = 30 * time.Second
	}
	if cfg.QueryTimeout == 0 {
		cfg.QueryTimeout = 30 * time.Second
	}
	return &Store{cfg: cfg, logger: log.New(log.Writer(), "[STORE] ", log.LstdFlags)}
}

// NewWithDB wraps an existing handle; used by tests and by callers that
// manage the pool themselves.
func NewWithDB(db *sql.DB) *Store {
	return &Store{
		cfg:    Config{QueryTimeout: 30 * time.Second},
		logger: log.New(log.Writer(), "[STORE] ", log.LstdFlags),
		db:     db,
	}
}

// pool returns the shared handle, creating it on first call. On creation
// failure the memoized state is reset so a later request can retry.
func (s *Store) pool(ctx context.Context) (*sql.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db != nil {
		return s.db, nil
	}
	if s.cfg.URL == "" {
		return nil, fmt.Errorf("database url not configured (databases.sql.url)")
	}
	db, err := sql.Open(s.cfg.Driver, s.cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open %s pool: %w", s.cfg.Driver, err)
	}
	db.SetMaxOpenConns(s.cfg.MaxOpenConns)
	db.SetMaxIdleConns(s.cfg.MaxIdleConns)
	db.SetConnMaxIdleTime(s.cfg.ConnMaxIdle)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		s.logger.Printf("connection attempt failed: %v", err)
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	s.db = db
	return s.db, nil
}

// Query runs an admitted SQL string and scans every row into a Row map. The
// caller guarantees the text already passed the safety validator; nothing
// here re-checks it. All failures come back as *ExecutionError.
func (s *Store) Query(ctx context.Context, sqlText string) ([]Row, error) {
	db, err := s.pool(ctx)
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.QueryTimeout)
	defer cancel()

	rows, err := db.QueryContext(ctx, sqlText)
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, &ExecutionError{Err: err}
	}

	out := []Row{}
	for rows.Next() {
		values := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, &ExecutionError{Err: err}
		}
		rec := make(Row, len(cols))
		for i, col := range cols {
			v := values[i]
			if b, ok := v.([]byte); ok {
				v = string(b)
			}
			rec[col] = v
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &ExecutionError{Err: err}
	}
	return out, nil
}

// Close releases the pool if it was ever created.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}
