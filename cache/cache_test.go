package cache_test

import (
	"testing"
	"testing/synctest"
	"time"

	"github.com/teenjuna/rolling/cache"
	"github.com/teenjuna/rolling/internal/testing/require"
)

func TestCache(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		storage := cache.Memory()
		c := cache.New(storage, time.Minute)

		data, ok, err := c.Get("twap")
		require.Nil(t, err)
		require.Equal(t, ok, false)
		require.Nil(t, data)

		require.Nil(t, c.Set(" twap ", []byte("snapshot")))

		data, ok, err = c.Get("twap")
		require.Nil(t, err)
		require.Equal(t, ok, true)
		require.Equal(t, data, []byte("snapshot"))

		time.Sleep(time.Minute)

		data, ok, err = c.Get("twap")
		require.Nil(t, err)
		require.Equal(t, ok, false)
		require.Nil(t, data)

		_, ok, err = storage.Get("twap")
		require.Nil(t, err)
		require.Equal(t, ok, false)
	})
}

func TestCacheWithoutTTL(t *testing.T) {
	synctest.Test(t, func(t *testing.T) {
		c := cache.New(cache.Memory(), 0)
		require.Nil(t, c.Set("a", []byte{1}))
		require.Nil(t, c.Set("b", []byte{2}))

		time.Sleep(time.Hour * 24 * 365)

		data, ok, err := c.Get("a")
		require.Nil(t, err)
		require.Equal(t, ok, true)
		require.Equal(t, data, []byte{1})

		require.Nil(t, c.Delete("a"))
		_, ok, _ = c.Get("a")
		require.Equal(t, ok, false)

		require.Nil(t, c.Clear())
		_, ok, _ = c.Get("b")
		require.Equal(t, ok, false)

		require.Nil(t, c.Close())
		require.Equal(t, c.Set("a", nil) != nil, true)
	})
}

func TestFresh(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	entry := cache.Entry{StoredAt: now.Add(-time.Second)}

	require.Equal(t, cache.Fresh(entry, 0, now), true)
	require.Equal(t, cache.Fresh(entry, time.Minute, now), true)
	require.Equal(t, cache.Fresh(entry, time.Second, now), false)
}

func TestMemoryStorageCopies(t *testing.T) {
	s := cache.Memory()
	data := []byte{1, 2, 3}
	require.Nil(t, s.Set("k", cache.Entry{Data: data}))
	data[0] = 9

	entry, ok, err := s.Get("k")
	require.Nil(t, err)
	require.Equal(t, ok, true)
	require.Equal(t, entry.Data, []byte{1, 2, 3})

	require.Nil(t, s.Close())
	_, _, err = s.Get("k")
	require.Equal(t, err, cache.ErrClosed)
}

func TestOptions(t *testing.T) {
	require.PanicWithError(t, "storage can't be nil", func() {
		_ = cache.New(nil, 0)
	})
	require.PanicWithError(t, "ttl can't be < 0", func() {
		_ = cache.New(cache.Memory(), -1)
	})
	require.PanicWithError(t, "key can't be blank", func() {
		_, _, _ = cache.New(cache.Memory(), 0).Get(" ")
	})
}
