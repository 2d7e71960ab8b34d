//go:build gmp

// GMP oracle, compiled with the "gmp" build tag. Requires libgmp
// (apt-get install libgmp-dev, brew install gmp).

package main

import "github.com/ncw/gmp"

const oracleName = "gmp"

// naiveForward evaluates X[k] = Σ x[j]·ω^(jk) mod p with ω = g^((p-1)/2^logN).
func naiveForward(p, g uint64, logN int, x []uint64) []uint64 {
	mod := new(gmp.Int).SetUint64(p)
	exp := new(gmp.Int).SetUint64((p - 1) >> uint(logN))
	omega := new(gmp.Int).Exp(new(gmp.Int).SetUint64(g), exp, mod)

	out := make([]uint64, len(x))
	wk := gmp.NewInt(1)
	acc, w, term := gmp.NewInt(0), gmp.NewInt(0), gmp.NewInt(0)
	for k := range out {
		acc.SetInt64(0)
		w.SetInt64(1)
		for j := range x {
			term.SetUint64(x[j])
			term.Mul(term, w)
			acc.Add(acc, term)
			w.Mul(w, wk)
			w.Mod(w, mod)
		}
		acc.Mod(acc, mod)
		out[k] = acc.Uint64()
		wk.Mul(wk, omega)
		wk.Mod(wk, mod)
	}
	return out
}
