// This package contains a [cache.Storage] backed by SQLite.
package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"

	"github.com/teenjuna/rolling/cache"
)

const (
	memory = ":memory:"
)

var _ cache.Storage = (*Storage)(nil)

// Storage is a persistent snapshot storage backed by SQLite.
type Storage struct {
	cfg *Config
	db  *sql.DB
}

// New creates a new Storage with the provided configuration functions.
//
// Default configuration:
//   - File: ":memory:" (in-memory database)
//   - Durable: false
//   - Conns: 1
//
// Returns an error if the SQLite database cannot be opened or initialized.
func New(configFuncs ...ConfigFunc) (*Storage, error) {
	cfg := &Config{}
	cfg.File(memory)
	cfg.Conns(1)
	for _, cf := range configFuncs {
		cf(cfg)
	}

	db, err := open(cfg)
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	if err := setup(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("setup: %w", err)
	}

	storage := Storage{
		cfg: cfg,
		db:  db,
	}

	return &storage, nil
}

// Get returns the entry stored under key.
//
// Returns [cache.ErrClosed] if the storage has been closed.
func (s *Storage) Get(key string) (cache.Entry, bool, error) {
	var (
		data     []byte
		storedAt int64
	)
	err := s.db.QueryRow(
		`
		select data, stored_at
		from entry
		where key = :key
		`,
		sql.Named("key", key),
	).Scan(&data, &storedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return cache.Entry{}, false, nil
	} else if err != nil {
		return cache.Entry{}, false, wrapErr(err)
	}

	entry := cache.Entry{
		Data:     data,
		StoredAt: fromTimestamp(storedAt),
	}

	return entry, true, nil
}

// Set inserts or overwrites the entry stored under key.
//
// Returns [cache.ErrClosed] if the storage has been closed.
func (s *Storage) Set(key string, entry cache.Entry) error {
	data := entry.Data
	if data == nil {
		data = []byte{}
	}
	_, err := s.db.Exec(
		`
		insert into entry (
			key,
			data,
			stored_at
		) values (
			:key,
			:data,
			:stored_at
		)
		on conflict (key) do update set
			data = excluded.data,
			stored_at = excluded.stored_at
		`,
		sql.Named("key", key),
		sql.Named("data", data),
		sql.Named("stored_at", toTimestamp(entry.StoredAt)),
	)
	return wrapErr(err)
}

// Delete removes the entry stored under key.
func (s *Storage) Delete(key string) error {
	_, err := s.db.Exec(
		`
		delete from entry
		where key = :key
		`,
		sql.Named("key", key),
	)
	return wrapErr(err)
}

// Clear removes all entries.
func (s *Storage) Clear() error {
	_, err := s.db.Exec("delete from entry")
	return wrapErr(err)
}

// Stats returns current storage statistics.
func (s *Storage) Stats() (*Stats, error) {
	var (
		entries int
		bytes   int
	)
	err := s.db.QueryRow(
		`
		select
			coalesce(count(*), 0) as entries,
			coalesce(sum(length(data)), 0) as bytes
		from
			entry
		`,
	).Scan(
		&entries,
		&bytes,
	)
	if err != nil {
		return nil, wrapErr(err)
	}

	stats := Stats{
		Entries: entries,
		Bytes:   bytes,
	}

	return &stats, nil
}

// Close closes the underlying SQLite database.
//
// After closing, all methods on Storage will return [cache.ErrClosed].
func (s *Storage) Close() error {
	return s.db.Close()
}

// Stats represents statistics about the storage.
type Stats struct {
	// Entries is the number of stored entries.
	Entries int
	// Bytes is the total size of stored data.
	Bytes int
}

func open(cfg *Config) (*sql.DB, error) {
	params := url.Values{}
	params.Add("_txlock", "immediate")
	params.Add("_timeout", "5000") // 5s

	file := cfg.file
	if file == memory {
		file = uuid.NewString()
		params.Add("mode", "memory")
		params.Add("cache", "shared")
	} else {
		params.Add("_journal", "wal")
		params.Add("_cache_size", "-20000") // 20mb
		if cfg.durable {
			params.Add("_sync", "full")
		} else {
			params.Add("_sync", "normal")
		}
	}

	uri := url.URL{Scheme: "file", Opaque: file, RawQuery: params.Encode()}

	db, err := sql.Open("sqlite3", uri.String())
	if err != nil {
		return nil, err
	}

	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)
	if params.Get("mode") == "memory" {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
	} else {
		db.SetMaxOpenConns(cfg.conns)
		db.SetMaxIdleConns(cfg.conns)
	}

	return db, nil
}

func setup(db *sql.DB) error {
	if _, err := db.Exec(
		`
		create table if not exists entry (
			key       text primary key,
			data      blob not null,
			stored_at int not null
		) strict
		`,
	); err != nil {
		return fmt.Errorf("create table: %w", err)
	}

	return nil
}

func wrapErr(err error) error {
	if err != nil && err.Error() == "sql: database is closed" {
		return cache.ErrClosed
	}
	return err
}

func toTimestamp(time time.Time) int64 {
	return time.UnixNano()
}

func fromTimestamp(timestamp int64) time.Time {
	return time.Unix(0, timestamp)
}
