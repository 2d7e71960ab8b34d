// Package sampling generates deterministic pseudo-random field vectors for
// benchmarks and tests. Bytes come from a keyed BLAKE2b XOF and are mapped
// to field elements by rejection sampling, so every element is uniform in
// [0, p).
package sampling

import (
	"encoding/binary"
	"math/bits"
	"sync"

	"golang.org/x/crypto/blake2b"

	"github.com/agbru/nttgpu/internal/field"
)

const bufferSize = 1024

// KeyedPRNG is a deterministic byte stream keyed by a seed. Two PRNGs with
// the same seed and stream label produce the same bytes.
type KeyedPRNG struct {
	mu  sync.Mutex
	key [32]byte
	xof blake2b.XOF
}

// NewKeyedPRNG derives a PRNG from seed. The stream label separates
// independent streams under the same seed (one per benchmark case, for
// instance).
func NewKeyedPRNG(seed string, stream string) (*KeyedPRNG, error) {
	p := &KeyedPRNG{key: blake2b.Sum256([]byte(seed))}
	xof, err := blake2b.NewXOF(blake2b.OutputLengthUnknown, p.key[:])
	if err != nil {
		return nil, err
	}
	if _, err := xof.Write([]byte(stream)); err != nil {
		return nil, err
	}
	p.xof = xof
	return p, nil
}

// Read fills buf with the next bytes of the stream.
func (p *KeyedPRNG) Read(buf []byte) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.xof.Read(buf)
}

// UniformSampler draws field elements uniformly from a PRNG.
// It is not safe for concurrent use.
type UniformSampler struct {
	field *field.Field
	prng  *KeyedPRNG
	mask  uint64
	buf   []byte
	ptr   int
}

// NewUniformSampler creates a sampler over f.
func NewUniformSampler(f *field.Field, prng *KeyedPRNG) *UniformSampler {
	return &UniformSampler{
		field: f,
		prng:  prng,
		mask:  maskFor(f.Modulus()),
		buf:   make([]byte, bufferSize),
		ptr:   bufferSize,
	}
}

// maskFor returns 2^bits(p-1) - 1, the smallest all-ones mask covering
// every residue.
func maskFor(p uint64) uint64 {
	n := bits.Len64(p - 1)
	if n == 64 {
		return ^uint64(0)
	}
	return 1<<n - 1
}

// Element returns the next uniform element.
func (u *UniformSampler) Element() (field.Element, error) {
	p := u.field.Modulus()
	for {
		if u.ptr == len(u.buf) {
			if _, err := u.prng.Read(u.buf); err != nil {
				return 0, err
			}
			u.ptr = 0
		}
		v := binary.LittleEndian.Uint64(u.buf[u.ptr:u.ptr+8]) & u.mask
		u.ptr += 8
		if v < p {
			return field.Element(v), nil
		}
	}
}

// Read overwrites dst with uniform elements.
func (u *UniformSampler) Read(dst []field.Element) error {
	for i := range dst {
		v, err := u.Element()
		if err != nil {
			return err
		}
		dst[i] = v
	}
	return nil
}

// Vector returns n uniform elements of f drawn from the stream (seed, label).
func Vector(f *field.Field, seed, label string, n int) ([]field.Element, error) {
	prng, err := NewKeyedPRNG(seed, label)
	if err != nil {
		return nil, err
	}
	out := make([]field.Element, n)
	if err := NewUniformSampler(f, prng).Read(out); err != nil {
		return nil, err
	}
	return out, nil
}
