// Package hasher fingerprints framebuffers and photo files with xxHash64.
package hasher

import (
	"encoding/hex"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"
)

// Sum is a 64-bit content fingerprint.
type Sum uint64

// Hex renders the sum as big-endian hex truncated to n characters.
// n <= 0 or n >= 16 returns all 16.
func (s Sum) Hex(n int) string {
	full := hex.EncodeToString(uint64ToBytes(uint64(s)))
	if n > 0 && n < len(full) {
		return full[:n]
	}
	return full
}

func (s Sum) String() string { return s.Hex(0) }

// Bytes hashes an in-memory buffer such as a packed framebuffer.
func Bytes(data []byte) Sum {
	return Sum(xxhash.Sum64(data))
}

// Reader hashes a stream without buffering it.
func Reader(r io.Reader) (Sum, error) {
	h := xxhash.New()
	if _, err := io.Copy(h, r); err != nil {
		return 0, err
	}
	return Sum(h.Sum64()), nil
}

// File hashes the contents of path.
func File(path string) (Sum, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return Reader(f)
}

func uint64ToBytes(v uint64) []byte {
	b := make([]byte, 8)
	b[0] = byte(v >> 56)
	b[1] = byte(v >> 48)
	b[2] = byte(v >> 40)
	b[3] = byte(v >> 32)
	b[4] = byte(v >> 24)
	b[5] = byte(v >> 16)
	b[6] = byte(v >> 8)
	b[7] = byte(v)
	return b
}
