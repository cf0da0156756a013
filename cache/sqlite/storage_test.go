package sqlite_test

import (
	"path"
	"testing"
	"time"

	"github.com/teenjuna/rolling/cache"
	"github.com/teenjuna/rolling/cache/sqlite"
	"github.com/teenjuna/rolling/internal/testing/require"
)

func TestNew(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		storage, err := sqlite.New(func(c *sqlite.Config) { c.File(file) })
		require.Nil(t, err)
		require.NotNil(t, storage)
		deferClose(t, storage)
	})
}

func TestSetGet(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		storage, err := sqlite.New(func(c *sqlite.Config) {
			c.File(file)
			c.Durable(true)
		})
		require.Nil(t, err)
		deferClose(t, storage)

		_, ok, err := storage.Get("missing")
		require.Nil(t, err)
		require.Equal(t, ok, false)

		storedAt := time.Unix(1700000000, 123)
		require.Nil(t, storage.Set("k", cache.Entry{Data: []byte{1, 2}, StoredAt: storedAt}))

		entry, ok, err := storage.Get("k")
		require.Nil(t, err)
		require.Equal(t, ok, true)
		require.Equal(t, entry.Data, []byte{1, 2})
		require.Equal(t, entry.StoredAt.Equal(storedAt), true)

		require.Nil(t, storage.Set("k", cache.Entry{Data: []byte{3}, StoredAt: storedAt}))
		entry, _, _ = storage.Get("k")
		require.Equal(t, entry.Data, []byte{3})

		require.Nil(t, storage.Set("empty", cache.Entry{}))
		entry, ok, err = storage.Get("empty")
		require.Nil(t, err)
		require.Equal(t, ok, true)
		require.Equal(t, len(entry.Data), 0)

		stats, err := storage.Stats()
		require.Nil(t, err)
		require.Equal(t, stats.Entries, 2)
		require.Equal(t, stats.Bytes, 1)
	})
}

func TestDeleteClear(t *testing.T) {
	run(t, func(t *testing.T, file string) {
		storage, err := sqlite.New(func(c *sqlite.Config) { c.File(file) })
		require.Nil(t, err)
		deferClose(t, storage)

		require.Nil(t, storage.Set("a", cache.Entry{Data: []byte{1}}))
		require.Nil(t, storage.Set("b", cache.Entry{Data: []byte{2}}))

		require.Nil(t, storage.Delete("a"))
		require.Nil(t, storage.Delete("a"))
		_, ok, _ := storage.Get("a")
		require.Equal(t, ok, false)

		require.Nil(t, storage.Clear())
		stats, err := storage.Stats()
		require.Nil(t, err)
		require.Equal(t, stats.Entries, 0)
	})
}

func TestPersistence(t *testing.T) {
	file := path.Join(t.TempDir(), "cache.db")

	storage, err := sqlite.New(func(c *sqlite.Config) { c.File(file) })
	require.Nil(t, err)
	require.Nil(t, storage.Set("k", cache.Entry{Data: []byte("v"), StoredAt: time.Now()}))
	require.Nil(t, storage.Close())

	storage, err = sqlite.New(func(c *sqlite.Config) { c.File(file) })
	require.Nil(t, err)
	deferClose(t, storage)

	entry, ok, err := storage.Get("k")
	require.Nil(t, err)
	require.Equal(t, ok, true)
	require.Equal(t, entry.Data, []byte("v"))
}

func TestClosed(t *testing.T) {
	storage, err := sqlite.New()
	require.Nil(t, err)
	require.Nil(t, storage.Close())

	err = storage.Set("k", cache.Entry{Data: []byte{1}})
	require.Equal(t, err, cache.ErrClosed)
}

func TestCacheOnSQLite(t *testing.T) {
	storage, err := sqlite.New()
	require.Nil(t, err)

	c := cache.New(storage, time.Hour)
	defer func() { require.Nil(t, c.Close()) }()

	require.Nil(t, c.Set("twap", []byte("[]")))
	data, ok, err := c.Get("twap")
	require.Nil(t, err)
	require.Equal(t, ok, true)
	require.Equal(t, data, []byte("[]"))
}

func TestOptionValidation(t *testing.T) {
	cfg := &sqlite.Config{}

	require.PanicWithError(t, "file can't be blank", func() {
		cfg.File(" ")
	})

	require.PanicWithError(t, "file can't contain ?", func() {
		cfg.File("file?key=value")
	})

	require.PanicWithError(t, "conns can't be < 1", func() {
		cfg.Conns(0)
	})
}

func run(t *testing.T, fn func(t *testing.T, file string)) {
	t.Helper()
	t.Run("In file", func(t *testing.T) {
		t.Helper()
		fn(t, path.Join(t.TempDir(), "file"))
	})
	t.Run("In memory", func(t *testing.T) {
		t.Helper()
		fn(t, ":memory:")
	})
}

func deferClose(t *testing.T, storage *sqlite.Storage) {
	t.Cleanup(func() {
		if err := storage.Close(); err != nil {
			t.Fatalf("close storage: %v", err)
		}
	})
}
