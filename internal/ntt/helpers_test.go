package ntt

import (
	"slices"
	"testing"

	"github.com/agbru/nttgpu/internal/device"
	"github.com/agbru/nttgpu/internal/field"
	"github.com/agbru/nttgpu/internal/permute"
	"github.com/agbru/nttgpu/internal/twiddle"
)

var testFields = []*field.Field{field.Goldilocks(), field.BabyBear()}

// newTestEngine builds an engine with a private cache and a small grain,
// so that launches fan out even for short vectors.
func newTestEngine(t *testing.T, f *field.Field, opts ...Option) *Engine {
	t.Helper()
	base := []Option{
		WithBackend(device.NewCPUBackend(device.CPUConfig{DeviceCount: 2, Workers: 4, Grain: 8})),
		WithTwiddleCache(twiddle.NewCache(twiddle.DefaultCacheConfig())),
	}
	return New(f, append(base, opts...)...)
}

func reversed(v []field.Element) []field.Element {
	out := slices.Clone(v)
	permute.InPlace(out)
	return out
}
