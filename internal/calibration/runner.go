package calibration

import (
	"context"
	"time"

	"github.com/agbru/nttgpu/internal/device"
	"github.com/agbru/nttgpu/internal/field"
	"github.com/agbru/nttgpu/internal/ntt"
	"github.com/agbru/nttgpu/internal/sampling"
	"github.com/agbru/nttgpu/internal/twiddle"
)

const maxDuration = time.Duration(1<<63 - 1)

// calibrationRunner times forward transforms of one fixed input under
// different tuning parameters.
type calibrationRunner struct {
	ctx      context.Context
	field    *field.Field
	input    []field.Element
	work     []field.Element
	trials   int
	perTrial time.Duration
	cache    *twiddle.Cache
}

func newCalibrationRunner(ctx context.Context, f *field.Field, logN, trials int, seed string, timeout time.Duration) (*calibrationRunner, error) {
	input, err := sampling.Vector(f, seed, "calibration", 1<<logN)
	if err != nil {
		return nil, err
	}
	perTrial := max(timeout/20, 2*time.Second)
	return &calibrationRunner{
		ctx:      ctx,
		field:    f,
		input:    input,
		work:     make([]field.Element, len(input)),
		trials:   max(trials, 1),
		perTrial: perTrial,
		// Shared so that trials measure the butterflies, not table generation.
		cache: twiddle.NewCache(twiddle.DefaultCacheConfig()),
	}, nil
}

// runTrial returns the best of r.trials timed transforms with the given
// tile log and grain, after one untimed warmup.
func (r *calibrationRunner) runTrial(tileLog, grain int) (time.Duration, error) {
	ctx, cancel := context.WithTimeout(r.ctx, r.perTrial)
	defer cancel()

	backend := device.NewCPUBackend(device.CPUConfig{Grain: grain})
	eng := ntt.New(r.field,
		ntt.WithBackend(backend),
		ntt.WithTwiddleCache(r.cache),
		ntt.WithTileLog(tileLog))

	best := maxDuration
	for i := 0; i <= r.trials; i++ {
		copy(r.work, r.input)
		start := time.Now()
		if err := eng.Forward(ctx, 0, r.work, ntt.NaturalNatural); err != nil {
			return 0, err
		}
		if d := time.Since(start); i > 0 && d < best {
			best = d
		}
	}
	return best, nil
}
