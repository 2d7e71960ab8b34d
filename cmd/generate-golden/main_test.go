package main

import "testing"

func TestNaiveForwardSmallField(t *testing.T) {
	// p = 17, g = 3, n = 4: ω = 3^4 = 13.
	x := []uint64{1, 2, 3, 4}
	got := naiveForward(17, 3, 2, x)
	// X[k] = 1 + 2·13^k + 3·13^(2k) + 4·13^(3k) mod 17
	want := []uint64{10, 6, 15, 7}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Expected %v, got %v", want, got)
		}
	}
}

func TestGoldenInputIsCanonical(t *testing.T) {
	x := goldenInput(0x78000001, 64)
	for i, v := range x {
		if v >= 0x78000001 {
			t.Fatalf("input[%d] = %d is not reduced", i, v)
		}
	}
	if x[0] != inputMultiplier%0x78000001 {
		t.Errorf("Expected first input to be the multiplier mod p")
	}
}
