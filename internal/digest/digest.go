// Package digest fingerprints field vectors with BLAKE3 so that transform
// outputs can be compared across runs, devices and processes without
// shipping the vectors themselves.
package digest

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"

	"github.com/agbru/nttgpu/internal/field"
)

const chunk = 512

// Size is the digest length in bytes.
const Size = 32

// Sum returns the BLAKE3-256 digest of data, each element encoded as
// 8 little-endian bytes.
func Sum(data []field.Element) [Size]byte {
	h := blake3.New()
	var buf [chunk * 8]byte
	for len(data) > 0 {
		n := min(len(data), chunk)
		for i, v := range data[:n] {
			binary.LittleEndian.PutUint64(buf[i*8:], uint64(v))
		}
		_, _ = h.Write(buf[:n*8])
		data = data[n:]
	}
	var out [Size]byte
	h.Sum(out[:0])
	return out
}

// Hex returns Sum as a lower-case hexadecimal string.
func Hex(data []field.Element) string {
	sum := Sum(data)
	return hex.EncodeToString(sum[:])
}

// Short returns the first 12 hexadecimal digits of the digest, for tables.
func Short(hexDigest string) string {
	if len(hexDigest) <= 12 {
		return hexDigest
	}
	return hexDigest[:12]
}
