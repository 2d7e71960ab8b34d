// Package twiddle computes and caches the powers of a primitive root of
// unity ("twiddle factors") consumed by the butterfly network.
package twiddle

import (
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"

	apperrors "github.com/agbru/nttgpu/internal/errors"
	"github.com/agbru/nttgpu/internal/field"
)

// Direction selects the root used by a transform.
type Direction uint8

const (
	// Forward uses ω.
	Forward Direction = iota
	// Inverse uses ω⁻¹ and scales by n⁻¹.
	Inverse
)

func (d Direction) String() string {
	switch d {
	case Forward:
		return "forward"
	case Inverse:
		return "inverse"
	}
	return fmt.Sprintf("Direction(%d)", uint8(d))
}

// Domain is the evaluation domain of size n = 2^LogN.
type Domain struct {
	Field    *field.Field
	LogN     int
	N        int
	Omega    field.Element // primitive n-th root of unity
	OmegaInv field.Element
	NInv     field.Element
}

// NewDomain computes ω, ω⁻¹ and n⁻¹ for n = 2^logN.
//
// Returns:
//   - Domain: The domain.
//   - error: ErrInvalidDomainSize when 2^logN does not divide p-1.
func NewDomain(f *field.Field, logN int) (Domain, error) {
	omega, err := f.RootOfUnity(logN)
	if err != nil {
		return Domain{}, err
	}
	omegaInv, err := f.Inv(omega)
	if err != nil {
		return Domain{}, err
	}
	nInv, err := f.Inv(f.Reduce(uint64(1) << uint(logN)))
	if err != nil {
		return Domain{}, err
	}
	return Domain{
		Field:    f,
		LogN:     logN,
		N:        1 << uint(logN),
		Omega:    omega,
		OmegaInv: omegaInv,
		NInv:     nInv,
	}, nil
}

// Table holds root^0 .. root^(n/2-1) for one (field, size, direction).
// Stage s of the network reads it with stride n / 2^(s+1).
// A Table is read-only once built.
type Table struct {
	Field     *field.Field
	LogN      int
	Direction Direction
	// Root is ω for Forward, ω⁻¹ for Inverse.
	Root field.Element
	// NInv is n⁻¹, applied by the inverse scaler.
	NInv   field.Element
	Powers []field.Element
}

// At returns the twiddle of pairing j in stage s, root^(j · n / 2^(s+1)).
func (t *Table) At(s, j int) field.Element {
	return t.Powers[j<<uint(t.LogN-s-1)]
}

// parallelThreshold is the table length above which generation is split
// across goroutines.
const parallelThreshold = 1 << 14

// Generate builds the table for f, logN and dir without caching.
func Generate(f *field.Field, logN int, dir Direction) (*Table, error) {
	if logN < 0 {
		return nil, apperrors.NewTransformError("twiddle", apperrors.ErrInvalidDomainSize, nil, "negative log size %d", logN)
	}
	d, err := NewDomain(f, logN)
	if err != nil {
		return nil, err
	}
	root := d.Omega
	if dir == Inverse {
		root = d.OmegaInv
	}

	t := &Table{
		Field:     f,
		LogN:      logN,
		Direction: dir,
		Root:      root,
		NInv:      d.NInv,
		Powers:    make([]field.Element, d.N/2),
	}
	fillPowers(f, root, t.Powers)
	return t, nil
}

// fillPowers writes root^i into dst[i]. Long tables are split into chunks,
// each seeded with root^start.
func fillPowers(f *field.Field, root field.Element, dst []field.Element) {
	if len(dst) < parallelThreshold {
		powersFrom(f, root, 1, dst)
		return
	}

	workers := runtime.GOMAXPROCS(0)
	chunk := max(len(dst)/workers, parallelThreshold/4)
	var g errgroup.Group
	for start := 0; start < len(dst); start += chunk {
		start, end := start, min(start+chunk, len(dst))
		g.Go(func() error {
			powersFrom(f, root, f.Exp(root, uint64(start)), dst[start:end])
			return nil
		})
	}
	_ = g.Wait()
}

func powersFrom(f *field.Field, root, first field.Element, dst []field.Element) {
	w := first
	for i := range dst {
		dst[i] = w
		w = f.Mul(w, root)
	}
}
