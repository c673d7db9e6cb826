package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "modernc.org/sqlite"

	"github.com/lox/climateapi/internal/metrics"
)

var (
	ErrEmptyDataset   = errors.New("dataset has no measurements")
	ErrNoMatchingRows = errors.New("no measurements in range")
	ErrUnknownColumn  = errors.New("unknown measurement column")
	ErrSchemaMismatch = errors.New("dataset schema mismatch")
)

// Store gives read access to a pre-populated climate dataset. Queries are
// issued through a Session so each request holds its own connection.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// OpenTimeout bounds how long Open keeps retrying the initial ping.
var OpenTimeout = 30 * time.Second

// Open opens the SQLite dataset at path read-only and waits for it to
// answer a ping, retrying with exponential backoff.
func Open(ctx context.Context, path string) (*Store, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}

	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}

	operation := func() error {
		return db.PingContext(ctx)
	}
	bo := backoff.NewExponentialBackOff()
	bo.MaxElapsedTime = OpenTimeout
	if err := backoff.Retry(operation, backoff.WithContext(bo, ctx)); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping dataset: %w", err)
	}
	return New(db), nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Session is a read handle pinned to one pooled connection. It must be
// closed to return the connection to the pool.
type Session struct {
	conn *sql.Conn
}

func (s *Store) Session(ctx context.Context) (*Session, error) {
	conn, err := s.db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire connection: %w", err)
	}
	return &Session{conn: conn}, nil
}

func (ss *Session) Close() error {
	return ss.conn.Close()
}

// WithSession runs fn with a fresh Session and releases it afterwards,
// whether or not fn succeeds.
func (s *Store) WithSession(ctx context.Context, fn func(*Session) error) error {
	ss, err := s.Session(ctx)
	if err != nil {
		return err
	}
	defer ss.Close()
	return fn(ss)
}

func observe(query string, start time.Time, err error) {
	metrics.QueryLatency.WithLabelValues(query).Observe(time.Since(start).Seconds())
	if err != nil && !errors.Is(err, ErrNoMatchingRows) && !errors.Is(err, ErrEmptyDataset) {
		metrics.QueryErrors.WithLabelValues(query).Inc()
	}
}
