// Package field implements arithmetic in the prime fields supported by the
// transform engine.
//
// A Field is a descriptor (modulus, multiplicative generator, two-adicity)
// paired with the reduction strategy best suited to the modulus:
//
//   - Goldilocks (p = 2^64 - 2^32 + 1) reduces 128-bit products using
//     2^64 ≡ 2^32 - 1 and 2^96 ≡ -1 (mod p).
//   - Moduli below 2^32 (BabyBear, p = 15·2^27 + 1) use Barrett reduction
//     with a precomputed floor(2^64 / p).
//   - Any other odd modulus falls back to a 128-by-64 bit remainder.
//
// Every operation takes and returns values in [0, p).
package field

import (
	"fmt"
	"math/bits"
	"strings"

	apperrors "github.com/agbru/nttgpu/internal/errors"
)

// Element is a residue modulo the field prime, stored canonically in [0, p).
type Element uint64

const (
	// GoldilocksModulus is 2^64 - 2^32 + 1.
	GoldilocksModulus uint64 = 0xFFFFFFFF00000001
	// BabyBearModulus is 15·2^27 + 1.
	BabyBearModulus uint64 = 0x78000001
)

type reduction uint8

const (
	reduceGeneric reduction = iota
	reduceGoldilocks
	reduceBarrett
)

// Field describes a prime field with a large power-of-two subgroup.
// A Field is immutable after construction and safe for concurrent use.
type Field struct {
	name       string
	modulus    uint64
	generator  Element
	twoAdicity int

	kind    reduction
	barrett uint64 // floor(2^64 / modulus), only for kind == reduceBarrett
}

var (
	goldilocks = mustNew("goldilocks", GoldilocksModulus, 7, 32)
	babyBear   = mustNew("babybear", BabyBearModulus, 31, 27)
)

// Goldilocks returns the field of order 2^64 - 2^32 + 1 (generator 7,
// two-adicity 32).
func Goldilocks() *Field { return goldilocks }

// BabyBear returns the field of order 15·2^27 + 1 (generator 31,
// two-adicity 27).
func BabyBear() *Field { return babyBear }

// New builds a field descriptor.
//
// Parameters:
//   - name: A display name, used in logs and metrics labels.
//   - modulus: An odd prime p > 2. Primality is not checked.
//   - generator: A generator of the multiplicative group of order p-1.
//   - twoAdicity: The largest s such that 2^s divides p-1.
//
// Returns:
//   - *Field: The descriptor.
//   - error: A ConfigError if the parameters are inconsistent.
func New(name string, modulus, generator uint64, twoAdicity int) (*Field, error) {
	if modulus < 3 || modulus&1 == 0 {
		return nil, apperrors.NewConfigError("field %s: modulus %d must be an odd prime", name, modulus)
	}
	if generator == 0 || generator >= modulus {
		return nil, apperrors.NewConfigError("field %s: generator %d out of range", name, generator)
	}
	if twoAdicity < 1 || twoAdicity > 63 || bits.TrailingZeros64(modulus-1) < twoAdicity {
		return nil, apperrors.NewConfigError("field %s: 2^%d does not divide p-1", name, twoAdicity)
	}

	f := &Field{
		name:       name,
		modulus:    modulus,
		generator:  Element(generator),
		twoAdicity: twoAdicity,
	}
	switch {
	case modulus == GoldilocksModulus:
		f.kind = reduceGoldilocks
	case modulus < 1<<32:
		f.kind = reduceBarrett
		f.barrett, _ = bits.Div64(1, 0, modulus)
	default:
		f.kind = reduceGeneric
	}
	return f, nil
}

func mustNew(name string, modulus, generator uint64, twoAdicity int) *Field {
	f, err := New(name, modulus, generator, twoAdicity)
	if err != nil {
		panic(err)
	}
	return f
}

// ByName resolves a field from its name or short alias
// ("goldilocks", "gl64", "babybear", "bb31").
func ByName(name string) (*Field, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "goldilocks", "gl64", "gl":
		return goldilocks, nil
	case "babybear", "baby_bear", "bb31", "bb":
		return babyBear, nil
	}
	return nil, apperrors.NewConfigError("unknown field %q (want goldilocks or babybear)", name)
}

// Name returns the display name of the field.
func (f *Field) Name() string { return f.name }

// Modulus returns p.
func (f *Field) Modulus() uint64 { return f.modulus }

// Generator returns the multiplicative generator.
func (f *Field) Generator() Element { return f.generator }

// TwoAdicity returns the largest s with 2^s | p-1.
func (f *Field) TwoAdicity() int { return f.twoAdicity }

// Bits returns the bit length of p.
func (f *Field) Bits() int { return bits.Len64(f.modulus) }

func (f *Field) String() string {
	return fmt.Sprintf("%s(p=%#x)", f.name, f.modulus)
}
