// Package kvstore keeps the frame's small persistent state (current photo,
// rotation, slideshow settings, id counter) as string key/value pairs.
package kvstore

import (
	"errors"
	"fmt"
	"strconv"
)

// MaxKeyLen matches the key limit of the flash key-value stores the frame
// state originally lived in.
const MaxKeyLen = 15

var (
	ErrKeyTooLong = errors.New("kvstore: key too long")
	ErrNotNumber  = errors.New("kvstore: value is not a number")
	ErrClosed     = errors.New("kvstore: closed")
)

// Store is a persistent string map. Implementations are safe for concurrent
// use.
type Store interface {
	// Get returns the value for key and whether it was present.
	Get(key string) (string, bool, error)
	// Set stores value under key.
	Set(key, value string) error
	// Incr atomically increments the unsigned counter under key (absent
	// counts as 0) and returns the new value.
	Incr(key string) (uint64, error)
	Close() error
}

func checkKey(key string) error {
	if key == "" || len(key) > MaxKeyLen {
		return fmt.Errorf("%w: %q", ErrKeyTooLong, key)
	}
	return nil
}

// GetInt reads an integer value. A present but non-numeric value is an error.
func GetInt(s Store, key string) (int, bool, error) {
	v, ok, err := s.Get(key)
	if err != nil || !ok {
		return 0, false, err
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, false, fmt.Errorf("%w: %s=%q", ErrNotNumber, key, v)
	}
	return n, true, nil
}

// SetInt stores an integer value.
func SetInt(s Store, key string, v int) error {
	return s.Set(key, strconv.Itoa(v))
}

// GetBool reads a boolean stored as "0" or "1".
func GetBool(s Store, key string) (bool, bool, error) {
	n, ok, err := GetInt(s, key)
	if err != nil || !ok {
		return false, ok, err
	}
	return n != 0, true, nil
}

// SetBool stores a boolean as "0" or "1".
func SetBool(s Store, key string, v bool) error {
	if v {
		return s.Set(key, "1")
	}
	return s.Set(key, "0")
}

// Truncate cuts v to at most max bytes.
func Truncate(v string, max int) string {
	if len(v) > max {
		return v[:max]
	}
	return v
}

func nextCounter(cur string, ok bool, key string) (uint64, error) {
	if !ok || cur == "" {
		return 1, nil
	}
	n, err := strconv.ParseUint(cur, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s=%q", ErrNotNumber, key, cur)
	}
	return n + 1, nil
}
