package testutil

import (
	"math/rand/v2"
	"testing"

	"github.com/agbru/nttgpu/internal/field"
)

// RandomVector returns n canonical elements of f drawn from a PCG seeded
// with seed.
func RandomVector(f *field.Field, n int, seed uint64) []field.Element {
	r := rand.New(rand.NewPCG(seed, seed^0x5bd1e995))
	v := make([]field.Element, n)
	for i := range v {
		v[i] = field.Element(r.Uint64N(f.Modulus()))
	}
	return v
}

// NaiveTransform evaluates X[k] = Σ x[j]·root^(jk) directly in O(n²).
func NaiveTransform(f *field.Field, x []field.Element, root field.Element) []field.Element {
	n := len(x)
	out := make([]field.Element, n)
	for k := 0; k < n; k++ {
		wk := f.Exp(root, uint64(k))
		w := field.Element(1)
		var acc field.Element
		for j := 0; j < n; j++ {
			acc = f.Add(acc, f.Mul(x[j], w))
			w = f.Mul(w, wk)
		}
		out[k] = acc
	}
	return out
}

// RequireEqualVectors fails the test at the first differing index.
func RequireEqualVectors(t testing.TB, want, got []field.Element) {
	t.Helper()
	if len(want) != len(got) {
		t.Fatalf("Expected length %d, got %d", len(want), len(got))
	}
	for i := range want {
		if want[i] != got[i] {
			t.Fatalf("Mismatch at index %d: expected %d, got %d", i, want[i], got[i])
		}
	}
}
