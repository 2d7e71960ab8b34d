//go:build !gmp

package main

import "math/big"

const oracleName = "math/big"

// naiveForward evaluates X[k] = Σ x[j]·ω^(jk) mod p with ω = g^((p-1)/2^logN).
func naiveForward(p, g uint64, logN int, x []uint64) []uint64 {
	mod := new(big.Int).SetUint64(p)
	exp := new(big.Int).SetUint64((p - 1) >> uint(logN))
	omega := new(big.Int).Exp(new(big.Int).SetUint64(g), exp, mod)

	out := make([]uint64, len(x))
	wk := big.NewInt(1)
	acc, w, term := new(big.Int), new(big.Int), new(big.Int)
	for k := range out {
		acc.SetInt64(0)
		w.SetInt64(1)
		for j := range x {
			term.SetUint64(x[j])
			term.Mul(term, w)
			acc.Add(acc, term)
			w.Mul(w, wk).Mod(w, mod)
		}
		out[k] = acc.Mod(acc, mod).Uint64()
		wk.Mul(wk, omega).Mod(wk, mod)
	}
	return out
}
