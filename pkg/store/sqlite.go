package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"
)

// SQLiteStore is a local single-file backend with the same key semantics as
// the redis one: list keys (ordered by an integer seq) and scalar keys.
// It exists so the bot can run without any external service.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite store path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	// Single-process store. One shared connection avoids writer lock
	// contention with SQLite under concurrent goroutines.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	s := &SQLiteStore{db: db}
	if err := s.init(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) init() error {
	stmts := []string{
		`PRAGMA journal_mode=WAL;`,
		`PRAGMA synchronous=NORMAL;`,
		`PRAGMA busy_timeout=5000;`,
		`CREATE TABLE IF NOT EXISTS list_entries (
			k TEXT NOT NULL,
			seq INTEGER NOT NULL,
			v TEXT NOT NULL,
			PRIMARY KEY (k, seq)
		);`,
		`CREATE TABLE IF NOT EXISTS scalar_entries (
			k TEXT PRIMARY KEY,
			v TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("init store schema: %w", err)
		}
	}
	return nil
}

func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *SQLiteStore) Append(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO list_entries (k, seq, v)
		 SELECT ?1, COALESCE(MAX(seq), 0) + 1, ?2 FROM list_entries WHERE k = ?1`,
		key, value)
	if err != nil {
		return unavailable("append", key, err)
	}
	return nil
}

func (s *SQLiteStore) Prepend(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO list_entries (k, seq, v)
		 SELECT ?1, COALESCE(MIN(seq), 0) - 1, ?2 FROM list_entries WHERE k = ?1`,
		key, value)
	if err != nil {
		return unavailable("prepend", key, err)
	}
	return nil
}

func (s *SQLiteStore) Range(ctx context.Context, key string, start, stop int64) ([]string, error) {
	n, err := s.Len(ctx, key)
	if err != nil {
		return nil, err
	}
	offset, limit, empty := normalizeRange(n, start, stop)
	if empty {
		return nil, nil
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT v FROM list_entries WHERE k = ? ORDER BY seq LIMIT ? OFFSET ?`,
		key, limit, offset)
	if err != nil {
		return nil, unavailable("range", key, err)
	}
	defer rows.Close()

	var values []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, unavailable("range", key, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("range", key, err)
	}
	return values, nil
}

func (s *SQLiteStore) Trim(ctx context.Context, key string, start, stop int64) error {
	n, err := s.Len(ctx, key)
	if err != nil {
		return err
	}
	offset, limit, empty := normalizeRange(n, start, stop)
	if empty {
		offset, limit = 0, 0
	}

	_, err = s.db.ExecContext(ctx,
		`DELETE FROM list_entries WHERE k = ?1 AND seq NOT IN (
			SELECT seq FROM list_entries WHERE k = ?1 ORDER BY seq LIMIT ?2 OFFSET ?3
		)`,
		key, limit, offset)
	if err != nil {
		return unavailable("trim", key, err)
	}
	return nil
}

func (s *SQLiteStore) Len(ctx context.Context, key string) (int64, error) {
	var n int64
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM list_entries WHERE k = ?`, key).Scan(&n)
	if err != nil {
		return 0, unavailable("len", key, err)
	}
	return n, nil
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.db.QueryRowContext(ctx,
		`SELECT v FROM scalar_entries WHERE k = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, unavailable("get", key, err)
	}
	return v, true, nil
}

func (s *SQLiteStore) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO scalar_entries (k, v) VALUES (?, ?)
		 ON CONFLICT (k) DO UPDATE SET v = excluded.v`,
		key, value)
	if err != nil {
		return unavailable("set", key, err)
	}
	return nil
}

// Keys matches against both scalar and list keys. SQLite GLOB uses the same
// '*' wildcard as redis KEYS patterns.
func (s *SQLiteStore) Keys(ctx context.Context, pattern string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT k FROM scalar_entries WHERE k GLOB ?1
		 UNION
		 SELECT DISTINCT k FROM list_entries WHERE k GLOB ?1`,
		pattern)
	if err != nil {
		return nil, unavailable("keys", pattern, err)
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, unavailable("keys", pattern, err)
		}
		keys = append(keys, k)
	}
	if err := rows.Err(); err != nil {
		return nil, unavailable("keys", pattern, err)
	}
	return keys, nil
}

// normalizeRange maps redis-style [start, stop] (stop inclusive, negatives
// from the tail) onto an OFFSET/LIMIT pair over n entries.
func normalizeRange(n, start, stop int64) (offset, limit int64, empty bool) {
	if n == 0 {
		return 0, 0, true
	}
	if start < 0 {
		start = n + start
	}
	if start < 0 {
		start = 0
	}
	if stop < 0 {
		stop = n + stop
	}
	if stop >= n {
		stop = n - 1
	}
	if start > stop || start >= n || stop < 0 {
		return 0, 0, true
	}
	return start, stop - start + 1, false
}
