package field

import (
	"errors"
	"testing"

	apperrors "github.com/agbru/nttgpu/internal/errors"
)

// ─── Descriptors ────────────────────────────────────────────────────────────

func TestPresetFields(t *testing.T) {
	t.Parallel()
	tests := []struct {
		f          *Field
		name       string
		modulus    uint64
		generator  Element
		twoAdicity int
		bits       int
	}{
		{Goldilocks(), "goldilocks", GoldilocksModulus, 7, 32, 64},
		{BabyBear(), "babybear", BabyBearModulus, 31, 27, 31},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if tt.f.Name() != tt.name || tt.f.Modulus() != tt.modulus {
				t.Errorf("Expected %s/%#x, got %s/%#x", tt.name, tt.modulus, tt.f.Name(), tt.f.Modulus())
			}
			if tt.f.Generator() != tt.generator || tt.f.TwoAdicity() != tt.twoAdicity {
				t.Errorf("Expected generator %d two-adicity %d, got %d %d",
					tt.generator, tt.twoAdicity, tt.f.Generator(), tt.f.TwoAdicity())
			}
			if tt.f.Bits() != tt.bits {
				t.Errorf("Expected %d bits, got %d", tt.bits, tt.f.Bits())
			}
		})
	}
}

func TestNewRejectsInconsistentParameters(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name       string
		modulus    uint64
		generator  uint64
		twoAdicity int
	}{
		{"even modulus", 16, 3, 2},
		{"tiny modulus", 2, 1, 1},
		{"zero generator", 17, 0, 4},
		{"generator too large", 17, 17, 4},
		{"two-adicity too large", 17, 3, 5},
		{"two-adicity zero", 17, 3, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := New(tt.name, tt.modulus, tt.generator, tt.twoAdicity)
			var cfgErr apperrors.ConfigError
			if !errors.As(err, &cfgErr) {
				t.Errorf("Expected ConfigError, got %v", err)
			}
		})
	}
}

func TestByName(t *testing.T) {
	t.Parallel()
	for _, name := range []string{"goldilocks", "GL64", " gl "} {
		if f, err := ByName(name); err != nil || f != Goldilocks() {
			t.Errorf("ByName(%q) = %v, %v", name, f, err)
		}
	}
	for _, name := range []string{"babybear", "bb31", "BabyBear"} {
		if f, err := ByName(name); err != nil || f != BabyBear() {
			t.Errorf("ByName(%q) = %v, %v", name, f, err)
		}
	}
	if _, err := ByName("mersenne31"); err == nil {
		t.Error("Expected error for unknown field")
	}
}

// ─── Arithmetic ─────────────────────────────────────────────────────────────

func TestGoldilocksMulKnownValues(t *testing.T) {
	t.Parallel()
	f := Goldilocks()
	p := Element(GoldilocksModulus)
	tests := []struct {
		a, b, want Element
	}{
		{p - 1, p - 1, 1},
		{p - 1, p - 2, 2},
		{0xFFFFFFFF00000000, 0xFFFFFFFF00000000, 1},
		{1 << 32, 1 << 32, 0xFFFFFFFF},
		{12345678901234567, 98765432109876543, 7440463762708928755},
		{0, p - 1, 0},
	}
	for _, tt := range tests {
		if got := f.Mul(tt.a, tt.b); got != tt.want {
			t.Errorf("Mul(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestBabyBearMulKnownValues(t *testing.T) {
	t.Parallel()
	f := BabyBear()
	if got := f.Mul(2013265920, 1234567); got != 2012031354 {
		t.Errorf("Expected 2012031354, got %d", got)
	}
	if got := f.Mul(2013265920, 2013265920); got != 1 {
		t.Errorf("Expected 1, got %d", got)
	}
}

func TestAddSubWrap(t *testing.T) {
	t.Parallel()
	for _, f := range []*Field{Goldilocks(), BabyBear()} {
		p := Element(f.Modulus())
		if got := f.Add(p-1, 1); got != 0 {
			t.Errorf("%s: (p-1)+1 = %d, want 0", f.Name(), got)
		}
		if got := f.Add(p-1, p-1); got != p-2 {
			t.Errorf("%s: (p-1)+(p-1) = %d, want p-2", f.Name(), got)
		}
		if got := f.Sub(0, 1); got != p-1 {
			t.Errorf("%s: 0-1 = %d, want p-1", f.Name(), got)
		}
		if got := f.Neg(0); got != 0 {
			t.Errorf("%s: -0 = %d, want 0", f.Name(), got)
		}
		if got := f.Double(p - 1); got != p-2 {
			t.Errorf("%s: 2(p-1) = %d, want p-2", f.Name(), got)
		}
	}
}

func TestInv(t *testing.T) {
	t.Parallel()
	tests := []struct {
		f    *Field
		a    Element
		want Element
	}{
		{Goldilocks(), 123456789, 2348054723721534454},
		{BabyBear(), 123456789, 266041062},
		{Goldilocks(), 1, 1},
	}
	for _, tt := range tests {
		got, err := tt.f.Inv(tt.a)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.f.Name(), err)
		}
		if got != tt.want {
			t.Errorf("%s: Inv(%d) = %d, want %d", tt.f.Name(), tt.a, got, tt.want)
		}
	}
}

func TestInvZero(t *testing.T) {
	t.Parallel()
	for _, f := range []*Field{Goldilocks(), BabyBear()} {
		if _, err := f.Inv(0); !errors.Is(err, apperrors.ErrInversionOfZero) {
			t.Errorf("%s: expected ErrInversionOfZero, got %v", f.Name(), err)
		}
		if _, err := f.Div(1, 0); !errors.Is(err, apperrors.ErrInversionOfZero) {
			t.Errorf("%s: expected ErrInversionOfZero from Div, got %v", f.Name(), err)
		}
	}
}

func TestReduceAndFromInt64(t *testing.T) {
	t.Parallel()
	f := BabyBear()
	if got := f.Reduce(BabyBearModulus + 5); got != 5 {
		t.Errorf("Reduce(p+5) = %d, want 5", got)
	}
	if got := f.FromInt64(-1); got != Element(BabyBearModulus-1) {
		t.Errorf("FromInt64(-1) = %d, want p-1", got)
	}
	if got := f.FromInt64(7); got != 7 {
		t.Errorf("FromInt64(7) = %d, want 7", got)
	}
	if !f.IsValid(BabyBearModulus-1) || f.IsValid(BabyBearModulus) {
		t.Error("IsValid boundary is wrong")
	}
}

func TestExp(t *testing.T) {
	t.Parallel()
	f := Goldilocks()
	if f.Exp(0, 0) != 1 || f.Exp(5, 0) != 1 || f.Exp(5, 1) != 5 {
		t.Error("Exp base cases are wrong")
	}
	if got := f.Exp(3, 5); got != 243 {
		t.Errorf("Exp(3, 5) = %d, want 243", got)
	}
}

func TestSquare(t *testing.T) {
	t.Parallel()
	gl, bb := Goldilocks(), BabyBear()
	tests := []struct {
		name string
		f    *Field
		a    Element
		want Element
	}{
		{"goldilocks small", gl, 3, 9},
		{"goldilocks minus one", gl, Element(GoldilocksModulus - 1), 1},
		{"goldilocks 2^32", gl, 1 << 32, 1<<32 - 1},
		{"babybear minus one", bb, Element(BabyBearModulus - 1), 1},
		{"babybear small", bb, 1 << 15, 1 << 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.f.Square(tt.a); got != tt.want {
				t.Errorf("Expected %d, got %d", tt.want, got)
			}
			if got := tt.f.Mul(tt.a, tt.a); got != tt.f.Square(tt.a) {
				t.Errorf("Expected Square to agree with Mul, got %d and %d", tt.f.Square(tt.a), got)
			}
		})
	}
}

// ─── Roots of unity ─────────────────────────────────────────────────────────

func TestRootOfUnity(t *testing.T) {
	t.Parallel()
	tests := []struct {
		f    *Field
		logN int
		want Element
	}{
		{Goldilocks(), 32, 0x185629dcda58878c},
		{Goldilocks(), 1, Element(GoldilocksModulus - 1)},
		{Goldilocks(), 0, 1},
		{BabyBear(), 27, 440564289},
		{BabyBear(), 3, 1592366214},
	}
	for _, tt := range tests {
		got, err := tt.f.RootOfUnity(tt.logN)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", tt.f.Name(), err)
		}
		if got != tt.want {
			t.Errorf("%s: RootOfUnity(%d) = %#x, want %#x", tt.f.Name(), tt.logN, got, tt.want)
		}
	}
}

func TestRootOfUnityIsPrimitive(t *testing.T) {
	t.Parallel()
	for _, f := range []*Field{Goldilocks(), BabyBear()} {
		for _, logN := range []int{1, 4, 10, f.TwoAdicity()} {
			w, err := f.RootOfUnity(logN)
			if err != nil {
				t.Fatal(err)
			}
			n := uint64(1) << uint(logN)
			if f.Exp(w, n) != 1 {
				t.Errorf("%s: ω^n != 1 for logN=%d", f.Name(), logN)
			}
			if f.Exp(w, n/2) == 1 {
				t.Errorf("%s: ω^(n/2) == 1 for logN=%d", f.Name(), logN)
			}
		}
	}
}

func TestRootOfUnityRejectsLargeDomains(t *testing.T) {
	t.Parallel()
	for _, f := range []*Field{Goldilocks(), BabyBear()} {
		_, err := f.RootOfUnity(f.TwoAdicity() + 1)
		if !errors.Is(err, apperrors.ErrInvalidDomainSize) {
			t.Errorf("%s: expected ErrInvalidDomainSize, got %v", f.Name(), err)
		}
	}
}

// ─── Generic reducers ───────────────────────────────────────────────────────

func TestCustomFields(t *testing.T) {
	t.Parallel()
	small, err := New("ntt32", 3221225473, 5, 30) // 3·2^30 + 1
	if err != nil {
		t.Fatal(err)
	}
	if small.kind != reduceBarrett {
		t.Errorf("Expected Barrett reducer for a 32-bit modulus")
	}
	large, err := New("ntt62", 4179340454199820289, 3, 57) // 29·2^57 + 1
	if err != nil {
		t.Fatal(err)
	}
	if large.kind != reduceGeneric {
		t.Errorf("Expected generic reducer for a 62-bit modulus")
	}
	for _, f := range []*Field{small, large} {
		w, err := f.RootOfUnity(f.TwoAdicity())
		if err != nil {
			t.Fatal(err)
		}
		if f.Exp(w, 1<<uint(f.TwoAdicity()-1)) != Element(f.Modulus()-1) {
			t.Errorf("%s: maximal root does not have the expected order", f.Name())
		}
	}
}
