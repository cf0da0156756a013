// This package contains a [cache.Storage] backed by bbolt.
package bolt

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.etcd.io/bbolt"

	"github.com/teenjuna/rolling/cache"
)

var _ cache.Storage = (*Storage)(nil)

var bucket = []byte("snapshots")

// Storage keeps entries in a single bbolt bucket. Every value is an 8-byte big-endian UnixNano
// timestamp followed by the data.
type Storage struct {
	db *bbolt.DB
}

// Open opens (creating if needed) the database file.
func Open(file string, timeout time.Duration) (*Storage, error) {
	file = strings.TrimSpace(file)
	if file == "" {
		panic("file can't be blank")
	}
	if timeout < 0 {
		panic("timeout can't be < 0")
	}

	db, err := bbolt.Open(file, 0o600, &bbolt.Options{Timeout: timeout})
	if err != nil {
		return nil, fmt.Errorf("open: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &Storage{db: db}, nil
}

func (s *Storage) Get(key string) (cache.Entry, bool, error) {
	var (
		entry cache.Entry
		ok    bool
	)
	err := s.db.View(func(tx *bbolt.Tx) error {
		v := tx.Bucket(bucket).Get([]byte(key))
		if v == nil {
			return nil
		}
		decoded, err := decode(v)
		if err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		entry, ok = decoded, true
		return nil
	})
	if err != nil {
		return cache.Entry{}, false, wrapErr(err)
	}
	return entry, ok, nil
}

func (s *Storage) Set(key string, entry cache.Entry) error {
	return wrapErr(s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Put([]byte(key), encode(entry))
	}))
}

func (s *Storage) Delete(key string) error {
	return wrapErr(s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucket).Delete([]byte(key))
	}))
}

func (s *Storage) Clear() error {
	return wrapErr(s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucket); err != nil {
			return err
		}
		_, err := tx.CreateBucket(bucket)
		return err
	}))
}

func (s *Storage) Close() error {
	return s.db.Close()
}

func encode(entry cache.Entry) []byte {
	v := make([]byte, 8, 8+len(entry.Data))
	binary.BigEndian.PutUint64(v, uint64(entry.StoredAt.UnixNano()))
	return append(v, entry.Data...)
}

func decode(v []byte) (cache.Entry, error) {
	if len(v) < 8 {
		return cache.Entry{}, fmt.Errorf("value is %d bytes long", len(v))
	}
	// Values are only valid inside the transaction.
	entry := cache.Entry{
		Data:     bytes.Clone(v[8:]),
		StoredAt: time.Unix(0, int64(binary.BigEndian.Uint64(v[:8]))),
	}
	if entry.Data == nil {
		entry.Data = []byte{}
	}
	return entry, nil
}

func wrapErr(err error) error {
	if errors.Is(err, bbolt.ErrDatabaseNotOpen) {
		return cache.ErrClosed
	}
	return err
}
