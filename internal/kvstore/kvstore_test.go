package kvstore

import (
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func stores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := OpenSQLite(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return map[string]Store{
		"memory": NewMemory(),
		"sqlite": db,
	}
}

func TestGetSet(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, ok, err := s.Get("rotation")
			require.NoError(t, err)
			assert.False(t, ok)

			require.NoError(t, s.Set("rotation", "90"))
			require.NoError(t, s.Set("rotation", "270"))
			v, ok, err := s.Get("rotation")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, "270", v)

			require.NoError(t, s.Set("current_image", ""))
			v, ok, err = s.Get("current_image")
			require.NoError(t, err)
			assert.True(t, ok, "empty values are still present")
			assert.Equal(t, "", v)
		})
	}
}

func TestKeyLimit(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, s.Set("a_key_that_is_too_long", "x"), ErrKeyTooLong)
			_, _, err := s.Get("")
			assert.ErrorIs(t, err, ErrKeyTooLong)
			_, err = s.Incr("another_overlong_key")
			assert.ErrorIs(t, err, ErrKeyTooLong)
		})
	}
}

func TestIncr(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			n, err := s.Incr("photo_seq")
			require.NoError(t, err)
			assert.Equal(t, uint64(1), n)

			require.NoError(t, s.Set("photo_seq", "41"))
			n, err = s.Incr("photo_seq")
			require.NoError(t, err)
			assert.Equal(t, uint64(42), n)

			require.NoError(t, s.Set("photo_seq", "oops"))
			_, err = s.Incr("photo_seq")
			assert.ErrorIs(t, err, ErrNotNumber)
		})
	}
}

func TestIncrConcurrent(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			const workers, each = 8, 25
			var wg sync.WaitGroup
			seen := make(chan uint64, workers*each)
			for i := 0; i < workers; i++ {
				wg.Add(1)
				go func() {
					defer wg.Done()
					for j := 0; j < each; j++ {
						n, err := s.Incr("seq")
						if err != nil {
							t.Error(err)
							return
						}
						seen <- n
					}
				}()
			}
			wg.Wait()
			close(seen)

			unique := map[uint64]bool{}
			for n := range seen {
				assert.False(t, unique[n], "duplicate counter value %d", n)
				unique[n] = true
			}
			assert.Len(t, unique, workers*each)
		})
	}
}

func TestTypedHelpers(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			require.NoError(t, SetInt(s, "slideshow_int_s", 3600))
			n, ok, err := GetInt(s, "slideshow_int_s")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.Equal(t, 3600, n)

			require.NoError(t, SetBool(s, "slideshow_en", true))
			b, ok, err := GetBool(s, "slideshow_en")
			require.NoError(t, err)
			assert.True(t, ok)
			assert.True(t, b)

			require.NoError(t, s.Set("rotation", "sideways"))
			_, _, err = GetInt(s, "rotation")
			assert.ErrorIs(t, err, ErrNotNumber)

			_, ok, err = GetBool(s, "missing")
			require.NoError(t, err)
			assert.False(t, ok)
		})
	}
}

func TestSQLitePersists(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	db, err := OpenSQLite(path)
	require.NoError(t, err)
	require.NoError(t, db.Set("current_photo", "img_000007"))
	_, err = db.Incr("photo_seq")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	db, err = OpenSQLite(path)
	require.NoError(t, err)
	defer db.Close()

	v, ok, err := db.Get("current_photo")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "img_000007", v)

	n, err := db.Incr("photo_seq")
	require.NoError(t, err)
	assert.Equal(t, uint64(2), n)
}

func TestMemoryClosed(t *testing.T) {
	s := NewMemory()
	require.NoError(t, s.Close())
	assert.ErrorIs(t, s.Set("k", "v"), ErrClosed)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", Truncate("abcdef", 3))
	assert.Equal(t, "ab", Truncate("ab", 3))
}
