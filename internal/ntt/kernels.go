package ntt

import (
	"github.com/agbru/nttgpu/internal/device"
	"github.com/agbru/nttgpu/internal/field"
	"github.com/agbru/nttgpu/internal/permute"
)

// Kernel bodies. Every butterfly kernel addresses work item i as pairing
// j = i mod 2^s inside block i / 2^s of stage s, so all items of a launch
// touch disjoint pairs of slots.

// ditStage is one Cooley–Tukey stage:
//
//	top' = top + w·bottom
//	bottom' = top − w·bottom
//
// Items: n/2.
func ditStage(f *field.Field, a, tw []field.Element, logN, s int) device.Kernel {
	half := 1 << uint(s)
	mask := half - 1
	shift := uint(logN - s - 1)
	return func(lo, hi int) {
		for i := lo; i < hi; i++ {
			j := i & mask
			top := (i>>uint(s))<<uint(s+1) | j
			bot := top + half
			t := f.Mul(tw[j<<shift], a[bot])
			a[top], a[bot] = f.Add(a[top], t), f.Sub(a[top], t)
		}
	}
}

// difStage is one Gentleman–Sande stage:
//
//	top' = top + bottom
//	bottom' = (top − bottom)·w
//
// Items: n/2.
func difStage(f *field.Field, a, tw []field.Element, logN, s int) device.Kernel {
	half := 1 << uint(s)
	mask := half - 1
	shift := uint(logN - s - 1)
	return func(lo, hi int) {
		for i := lo; i < hi; i++ {
			j := i & mask
			top := (i>>uint(s))<<uint(s+1) | j
			bot := top + half
			u, v := a[top], a[bot]
			a[top] = f.Add(u, v)
			a[bot] = f.Mul(f.Sub(u, v), tw[j<<shift])
		}
	}
}

// butterflies runs stage s of the network on the tile x, which starts at
// a multiple of 2^(s+1) in the full vector. Twiddle indices do not depend
// on the tile offset.
func butterflies(f *field.Field, net network, x, tw []field.Element, logN, s int) {
	half := 1 << uint(s)
	shift := uint(logN - s - 1)
	for block := 0; block < len(x); block += 2 * half {
		for j := 0; j < half; j++ {
			top, bot := block+j, block+j+half
			w := tw[j<<shift]
			if net == ditNetwork {
				t := f.Mul(w, x[bot])
				x[top], x[bot] = f.Add(x[top], t), f.Sub(x[top], t)
			} else {
				u, v := x[top], x[bot]
				x[top] = f.Add(u, v)
				x[bot] = f.Mul(f.Sub(u, v), w)
			}
		}
	}
}

// tiledStages fuses the stages whose blocks fit in a tile of 2^tileLog
// elements: DIT runs stages 0 .. tileLog-1 ascending, DIF runs them
// descending. Each work item loads one tile into scratch memory, runs the
// stages there and stores it back.
//
// Items: n / 2^tileLog.
func tiledStages(f *field.Field, net network, a, tw []field.Element, logN, tileLog int) device.Kernel {
	tile := 1 << uint(tileLog)
	return func(lo, hi int) {
		scratch := device.AcquireShared(tile)
		defer device.ReleaseShared(scratch)
		for t := lo; t < hi; t++ {
			src := a[t*tile : (t+1)*tile]
			copy(scratch, src)
			if net == ditNetwork {
				for s := 0; s < tileLog; s++ {
					butterflies(f, net, scratch, tw, logN, s)
				}
			} else {
				for s := tileLog - 1; s >= 0; s-- {
					butterflies(f, net, scratch, tw, logN, s)
				}
			}
			copy(src, scratch)
		}
	}
}

// scale multiplies every element by factor (n⁻¹ for inverse transforms).
//
// Items: n.
func scale(f *field.Field, a []field.Element, factor field.Element) device.Kernel {
	return func(lo, hi int) {
		for i := lo; i < hi; i++ {
			a[i] = f.Mul(a[i], factor)
		}
	}
}

// bitReverse swaps every pair (i, rev(i)) once, from the smaller index.
//
// Items: n.
func bitReverse(a []field.Element, logN int) device.Kernel {
	return func(lo, hi int) {
		permute.SwapRange(a, logN, lo, hi)
	}
}
