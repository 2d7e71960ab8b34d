package device

import (
	"math/bits"
	"sync"
	"sync/atomic"

	"github.com/agbru/nttgpu/internal/field"
)

// ─────────────────────────────────────────────────────────────────────────────
// Element Slice Pools
// ─────────────────────────────────────────────────────────────────────────────

// Device memory and kernel scratch tiles come from power-of-two size
// classes, 2^minPooledLog .. 2^maxPooledLog elements. Transform lengths are
// powers of two, so a class always fits a buffer exactly.
const (
	minPooledLog = 4
	maxPooledLog = 24 // 16M elements = 128MB
)

var elementPools [maxPooledLog + 1]sync.Pool

var (
	poolAcquires atomic.Uint64
	poolMisses   atomic.Uint64
)

func init() {
	for i := minPooledLog; i <= maxPooledLog; i++ {
		size := 1 << uint(i)
		elementPools[i].New = func() any {
			poolMisses.Add(1)
			s := make([]field.Element, size)
			return &s
		}
	}
}

// poolClass returns the size class for n elements, or -1 when n is too
// large for pooling.
func poolClass(n int) int {
	if n <= 1<<minPooledLog {
		return minPooledLog
	}
	c := bits.Len(uint(n - 1))
	if c > maxPooledLog {
		return -1
	}
	return c
}

// acquireElements returns a slice of exactly n elements. The contents are
// unspecified; callers overwrite them (Upload, tile load).
func acquireElements(n int) []field.Element {
	poolAcquires.Add(1)
	c := poolClass(n)
	if c < 0 {
		poolMisses.Add(1)
		return make([]field.Element, n)
	}
	s := *(elementPools[c].Get().(*[]field.Element))
	return s[:n]
}

// releaseElements returns a slice obtained from acquireElements.
// Safe to call with nil.
func releaseElements(s []field.Element) {
	if s == nil {
		return
	}
	c := cap(s)
	if c < 1<<minPooledLog || c&(c-1) != 0 || c > 1<<maxPooledLog {
		return
	}
	s = s[:c]
	elementPools[bits.TrailingZeros(uint(c))].Put(&s)
}

// AcquireShared returns a scratch tile of n elements for use inside a
// kernel, the CPU analogue of on-chip shared memory. Release it with
// ReleaseShared before the kernel returns.
func AcquireShared(n int) []field.Element { return acquireElements(n) }

// ReleaseShared returns a tile obtained from AcquireShared.
func ReleaseShared(s []field.Element) { releaseElements(s) }

// PoolStats reports reuse of pooled device memory.
type PoolStats struct {
	Acquires uint64
	Misses   uint64
}

// GetPoolStats returns the pool counters accumulated since process start.
func GetPoolStats() PoolStats {
	return PoolStats{Acquires: poolAcquires.Load(), Misses: poolMisses.Load()}
}

// PreWarm seeds the pool of the class holding n elements with count slices,
// so the first transforms of a benchmark do not pay for allocation.
func PreWarm(n, count int) {
	c := poolClass(n)
	if c < 0 {
		return
	}
	for i := 0; i < count; i++ {
		s := make([]field.Element, 1<<uint(c))
		elementPools[c].Put(&s)
	}
}
