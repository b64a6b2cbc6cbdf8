package evcache

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog/log"
	_ "modernc.org/sqlite"
)

const (
	putAttempts   = 4
	putRetryDelay = 20 * time.Millisecond
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS ev_cache (
	key TEXT PRIMARY KEY,
	ev  BLOB NOT NULL
)`

// SQLiteStore keeps the same 8-byte payloads as the file store in a single
// SQLite table.
type SQLiteStore struct {
	db  *sql.DB
	get *sql.Stmt
	put *sql.Stmt
}

func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open ev cache db: %w", err)
	}
	db.SetMaxOpenConns(1)
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA synchronous=NORMAL",
		sqliteSchema,
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("init ev cache db: %w", err)
		}
	}
	s := &SQLiteStore{db: db}
	if s.get, err = db.Prepare("SELECT ev FROM ev_cache WHERE key = ?"); err != nil {
		db.Close()
		return nil, err
	}
	if s.put, err = db.Prepare("INSERT OR REPLACE INTO ev_cache (key, ev) VALUES (?, ?)"); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) Get(key string) (float64, bool) {
	var b []byte
	err := s.get.QueryRow(key).Scan(&b)
	if err != nil {
		if !errors.Is(err, sql.ErrNoRows) {
			log.Debug().Err(err).Str("key", key).Msg("ev-cache-read-failed")
		}
		return 0, false
	}
	ev, err := DecodeEV(b)
	if err != nil {
		log.Debug().Err(err).Str("key", key).Msg("ev-cache-corrupt-entry")
		return 0, false
	}
	return ev, true
}

// Put retries writes that fail while another process holds the database
// lock.
func (s *SQLiteStore) Put(key string, ev float64) error {
	payload := EncodeEV(ev)
	return retry.Do(
		func() error {
			_, err := s.put.Exec(key, payload)
			return err
		},
		retry.Attempts(putAttempts),
		retry.Delay(putRetryDelay),
		retry.LastErrorOnly(true),
		retry.DelayType(func(n uint, err error, config *retry.Config) time.Duration {
			log.Debug().Err(err).Uint("n", n).Str("key", key).Msg("ev-cache-write-retry")
			return retry.BackOffDelay(n, err, config)
		}),
	)
}

// Len returns the number of stored entries.
func (s *SQLiteStore) Len() (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM ev_cache").Scan(&n)
	return n, err
}

func (s *SQLiteStore) Close() error {
	s.get.Close()
	s.put.Close()
	return s.db.Close()
}
