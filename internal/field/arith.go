package field

import (
	"math/bits"

	apperrors "github.com/agbru/nttgpu/internal/errors"
)

// epsilon is 2^64 mod p for Goldilocks, i.e. 2^32 - 1.
const epsilon uint64 = 0xFFFFFFFF

// Add returns a + b mod p.
func (f *Field) Add(a, b Element) Element {
	s, carry := bits.Add64(uint64(a), uint64(b), 0)
	if carry != 0 || s >= f.modulus {
		s -= f.modulus
	}
	return Element(s)
}

// Sub returns a - b mod p.
func (f *Field) Sub(a, b Element) Element {
	d, borrow := bits.Sub64(uint64(a), uint64(b), 0)
	if borrow != 0 {
		d += f.modulus
	}
	return Element(d)
}

// Neg returns -a mod p.
func (f *Field) Neg(a Element) Element {
	if a == 0 {
		return 0
	}
	return Element(f.modulus - uint64(a))
}

// Double returns 2a mod p.
func (f *Field) Double(a Element) Element { return f.Add(a, a) }

// Mul returns a·b mod p.
func (f *Field) Mul(a, b Element) Element {
	switch f.kind {
	case reduceGoldilocks:
		hi, lo := bits.Mul64(uint64(a), uint64(b))
		return Element(reduceGoldilocks128(hi, lo))
	case reduceBarrett:
		// a, b < 2^32 so the product fits one word.
		return Element(barrettReduce(uint64(a)*uint64(b), f.modulus, f.barrett))
	default:
		hi, lo := bits.Mul64(uint64(a), uint64(b))
		return Element(bits.Rem64(hi, lo, f.modulus))
	}
}

// Square returns a² mod p.
func (f *Field) Square(a Element) Element { return f.Mul(a, a) }

// Exp returns a^e mod p by square-and-multiply. Exp(0, 0) is 1.
func (f *Field) Exp(a Element, e uint64) Element {
	result := Element(1)
	base := a
	for e > 0 {
		if e&1 == 1 {
			result = f.Mul(result, base)
		}
		base = f.Square(base)
		e >>= 1
	}
	return result
}

// Inv returns a⁻¹ mod p using Fermat's little theorem (a^(p-2)).
//
// Returns:
//   - Element: The inverse.
//   - error: ErrInversionOfZero (wrapped in a TransformError) when a is zero.
func (f *Field) Inv(a Element) (Element, error) {
	if a == 0 {
		return 0, apperrors.NewTransformError("inverse", apperrors.ErrInversionOfZero, nil, "field %s", f.name)
	}
	return f.Exp(a, f.modulus-2), nil
}

// Div returns a / b mod p.
func (f *Field) Div(a, b Element) (Element, error) {
	inv, err := f.Inv(b)
	if err != nil {
		return 0, err
	}
	return f.Mul(a, inv), nil
}

// Reduce maps an arbitrary 64-bit value into [0, p).
func (f *Field) Reduce(x uint64) Element {
	if x < f.modulus {
		return Element(x)
	}
	return Element(x % f.modulus)
}

// FromInt64 maps a signed integer into the field.
func (f *Field) FromInt64(x int64) Element {
	if x >= 0 {
		return f.Reduce(uint64(x))
	}
	return f.Neg(f.Reduce(uint64(-(x + 1)) + 1))
}

// IsValid reports whether x is a canonical field element.
func (f *Field) IsValid(x uint64) bool { return x < f.modulus }

// RootOfUnity returns a primitive 2^logN-th root of unity, g^((p-1)/2^logN).
//
// Returns:
//   - Element: The root.
//   - error: ErrInvalidDomainSize when 2^logN does not divide p-1.
func (f *Field) RootOfUnity(logN int) (Element, error) {
	if logN < 0 || logN > f.twoAdicity {
		return 0, apperrors.NewTransformError("root", apperrors.ErrInvalidDomainSize, nil,
			"domain size 2^%d unsupported for field %s (two-adicity %d)", logN, f.name, f.twoAdicity)
	}
	return f.Exp(f.generator, (f.modulus-1)>>uint(logN)), nil
}

// ─── Reductions ─────────────────────────────────────────────────────────────

// reduceGoldilocks128 reduces hi·2^64 + lo modulo 2^64 - 2^32 + 1.
// Writing hi = hiHi·2^32 + hiLo, the value is congruent to
// lo - hiHi + hiLo·(2^32 - 1).
func reduceGoldilocks128(hi, lo uint64) uint64 {
	hiHi := hi >> 32
	hiLo := hi & epsilon

	t0, borrow := bits.Sub64(lo, hiHi, 0)
	if borrow != 0 {
		t0 -= epsilon
	}
	t1 := hiLo * epsilon
	t2, carry := bits.Add64(t0, t1, 0)
	if carry != 0 {
		t2 += epsilon
	}
	if t2 >= GoldilocksModulus {
		t2 -= GoldilocksModulus
	}
	return t2
}

// barrettReduce returns x mod q for q < 2^32 given u = floor(2^64 / q).
// The quotient estimate is at most one below the true quotient, so a
// single conditional subtraction suffices.
func barrettReduce(x, q, u uint64) uint64 {
	s, _ := bits.Mul64(x, u)
	r := x - s*q
	if r >= q {
		r -= q
	}
	return r
}
