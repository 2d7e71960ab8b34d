// Package permute implements the bit-reversal permutation used to move a
// vector between natural and bit-reversed order.
package permute

import (
	"math/bits"

	"golang.org/x/exp/constraints"
)

// Reverse reverses the low logN bits of i. Bits above logN are discarded.
// Example: Reverse(6, 3) = Reverse(0b110, 3) = 0b011 = 3.
func Reverse[T constraints.Unsigned](i T, logN int) T {
	if logN <= 0 {
		return 0
	}
	return T(bits.Reverse64(uint64(i)) >> (64 - uint(logN)))
}

// Log2 returns log2(n) and whether n is a power of two (n >= 1).
func Log2(n int) (int, bool) {
	if n <= 0 || n&(n-1) != 0 {
		return 0, false
	}
	return bits.TrailingZeros64(uint64(n)), true
}

// Indices returns the permutation table i -> Reverse(i, logN) for a
// vector of length 2^logN.
func Indices(logN int) []uint32 {
	n := 1 << uint(logN)
	idx := make([]uint32, n)
	for i := range idx {
		idx[i] = Reverse(uint32(i), logN)
	}
	return idx
}

// SwapRange applies the permutation to the indices [lo, hi) of data, whose
// length is 2^logN. Each pair (i, r) is swapped only by the work item that
// owns the smaller index, and self-paired indices are skipped, so disjoint
// ranges may run concurrently.
func SwapRange[E any](data []E, logN, lo, hi int) {
	for i := lo; i < hi; i++ {
		r := int(Reverse(uint(i), logN))
		if i < r {
			data[i], data[r] = data[r], data[i]
		}
	}
}

// InPlace permutes data (length a power of two) serially. It panics if the
// length is not a power of two.
func InPlace[E any](data []E) {
	logN, ok := Log2(len(data))
	if !ok {
		panic("permute: length is not a power of two")
	}
	SwapRange(data, logN, 0, len(data))
}
