package kvstore

import (
	"database/sql"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"
)

// SQLite is a Store backed by a single-table SQLite database.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the state database at file.
func OpenSQLite(file string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", fmt.Sprintf("%s?_busy_timeout=2000&_journal_mode=WAL", file))
	if err != nil {
		return nil, err
	}
	// One connection serializes Incr transactions.
	db.SetMaxOpenConns(1)

	if _, err = db.Exec("CREATE TABLE IF NOT EXISTS kv (key TEXT PRIMARY KEY NOT NULL, value TEXT NOT NULL)"); err != nil {
		db.Close()
		return nil, fmt.Errorf("kvstore: create schema: %w", err)
	}

	return &SQLite{
		db: db,
	}, nil
}

func (s *SQLite) Get(key string) (string, bool, error) {
	if err := checkKey(key); err != nil {
		return "", false, err
	}
	var v string
	switch err := s.db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&v); err {
	case sql.ErrNoRows:
		return "", false, nil
	case nil:
		return v, true, nil
	default:
		return "", false, fmt.Errorf("kvstore: get %s: %w", key, err)
	}
}

func (s *SQLite) Set(key, value string) error {
	if err := checkKey(key); err != nil {
		return err
	}
	if _, err := s.db.Exec("INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", key, value); err != nil {
		return fmt.Errorf("kvstore: set %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Incr(key string) (uint64, error) {
	if err := checkKey(key); err != nil {
		return 0, err
	}
	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("kvstore: incr %s: %w", key, err)
	}
	defer tx.Rollback()

	var cur string
	ok := true
	switch err := tx.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&cur); err {
	case sql.ErrNoRows:
		ok = false
	case nil:
	default:
		return 0, fmt.Errorf("kvstore: incr %s: %w", key, err)
	}

	n, err := nextCounter(cur, ok, key)
	if err != nil {
		return 0, err
	}
	if _, err := tx.Exec("INSERT INTO kv (key, value) VALUES (?, ?) ON CONFLICT(key) DO UPDATE SET value = excluded.value", key, strconv.FormatUint(n, 10)); err != nil {
		return 0, fmt.Errorf("kvstore: incr %s: %w", key, err)
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("kvstore: incr %s: %w", key, err)
	}
	return n, nil
}

func (s *SQLite) Close() error {
	return s.db.Close()
}
