// Package orchestration runs benchmark cases against the transform engine:
// devices work concurrently, cases on one device run in sequence, and each
// case is warmed up, timed, fingerprinted and optionally verified by a round
// trip.
package orchestration

import (
	"context"
	"fmt"
	"io"
	"slices"
	"sync"
	"time"

	"github.com/montanaflynn/stats"
	"golang.org/x/sync/errgroup"

	"github.com/agbru/nttgpu/internal/cli"
	"github.com/agbru/nttgpu/internal/config"
	"github.com/agbru/nttgpu/internal/digest"
	apperrors "github.com/agbru/nttgpu/internal/errors"
	"github.com/agbru/nttgpu/internal/field"
	"github.com/agbru/nttgpu/internal/ntt"
	"github.com/agbru/nttgpu/internal/sampling"
)

// ProgressBufferMultiplier sizes the progress channel per lane so that slow
// rendering rarely blocks a device goroutine.
const ProgressBufferMultiplier = 5

// Transformer is the part of *ntt.Engine the benchmarks need.
type Transformer interface {
	Field() *field.Field
	Execute(ctx context.Context, req ntt.Request) error
}

// Case is one benchmark configuration.
type Case struct {
	LogN      int
	Device    int
	Direction ntt.Direction
	Order     ntt.OrderMode
}

// Name identifies the case in reports.
func (c Case) Name() string {
	return fmt.Sprintf("2^%d/dev%d/%s/%s", c.LogN, c.Device, c.Direction, c.Order)
}

// inputLabel names the input stream. Cases of the same size share their
// input, so outputs can be compared across devices.
func (c Case) inputLabel() string {
	return fmt.Sprintf("input/2^%d", c.LogN)
}

// Summary holds the statistics of the timed iterations.
type Summary struct {
	Mean   time.Duration
	Median time.Duration
	StdDev time.Duration
	P95    time.Duration
	Min    time.Duration
}

// BenchmarkResult is the outcome of one case.
type BenchmarkResult struct {
	Case    Case
	Samples []time.Duration
	Summary Summary
	// Throughput is elements per second at the median duration.
	Throughput float64
	// Digest is the BLAKE3 hex digest of the transform output.
	Digest string
	// Verified reports a successful round-trip check.
	Verified bool
	Err      error
}

// BuildCases expands the configuration into cases, ordered by device, then
// size, then direction.
func BuildCases(cfg config.AppConfig) ([]Case, error) {
	order, err := cfg.OrderMode()
	if err != nil {
		return nil, err
	}
	var cases []Case
	for _, dev := range cfg.DeviceIDs {
		for _, logN := range cfg.Sizes {
			for _, dir := range cfg.Directions() {
				cases = append(cases, Case{LogN: logN, Device: dev, Direction: dir, Order: order})
			}
		}
	}
	return cases, nil
}

// lanes groups case indices by device, preserving order.
func lanes(cases []Case) [][]int {
	var devices []int
	byDevice := map[int][]int{}
	for i, c := range cases {
		if _, ok := byDevice[c.Device]; !ok {
			devices = append(devices, c.Device)
		}
		byDevice[c.Device] = append(byDevice[c.Device], i)
	}
	out := make([][]int, len(devices))
	for i, d := range devices {
		out[i] = byDevice[d]
	}
	return out
}

// ExecuteBenchmarks runs cases and returns one result per case, in the
// order of cases. Failures are recorded in the results; a canceled context
// marks the remaining cases with the context error.
//
// Parameters:
//   - ctx: The context for cancellation and deadlines.
//   - eng: The engine under test.
//   - cases: The cases to run (see BuildCases).
//   - cfg: Iterations, warmup, seed and verification settings.
//   - out: The io.Writer for progress rendering.
func ExecuteBenchmarks(ctx context.Context, eng Transformer, cases []Case, cfg config.AppConfig, out io.Writer) []BenchmarkResult {
	results := make([]BenchmarkResult, len(cases))
	groups := lanes(cases)
	progressChan := make(chan cli.ProgressUpdate, len(groups)*ProgressBufferMultiplier)

	var displayWg sync.WaitGroup
	displayWg.Add(1)
	go cli.DisplayProgress(&displayWg, progressChan, len(groups), out)

	// Lanes do not cancel each other: a failing device still lets the
	// others finish their cases.
	var g errgroup.Group
	for lane, idxs := range groups {
		g.Go(func() error {
			for k, idx := range idxs {
				results[idx] = runCase(ctx, eng, cases[idx], cfg)
				progressChan <- cli.ProgressUpdate{Lane: lane, Value: float64(k+1) / float64(len(idxs))}
			}
			return nil
		})
	}

	_ = g.Wait()
	close(progressChan)
	displayWg.Wait()
	return results
}

func runCase(ctx context.Context, eng Transformer, c Case, cfg config.AppConfig) BenchmarkResult {
	res := BenchmarkResult{Case: c}
	if err := ctx.Err(); err != nil {
		res.Err = err
		return res
	}

	n := 1 << c.LogN
	input, err := sampling.Vector(eng.Field(), cfg.Seed, c.inputLabel(), n)
	if err != nil {
		res.Err = apperrors.WrapError(err, "sampling input for %s", c.Name())
		return res
	}
	work := make([]field.Element, n)
	req := ntt.Request{Device: c.Device, Direction: c.Direction, Order: c.Order, Data: work}

	for range cfg.Warmup {
		copy(work, input)
		if err := eng.Execute(ctx, req); err != nil {
			res.Err = err
			return res
		}
	}

	res.Samples = make([]time.Duration, 0, cfg.Iterations)
	for i := range cfg.Iterations {
		copy(work, input)
		start := time.Now()
		if err := eng.Execute(ctx, req); err != nil {
			res.Err = err
			return res
		}
		res.Samples = append(res.Samples, time.Since(start))
		if i == 0 {
			res.Digest = digest.Hex(work)
		}
	}
	res.Summary = summarize(res.Samples)
	if res.Summary.Median > 0 {
		res.Throughput = float64(n) / res.Summary.Median.Seconds()
	}

	if cfg.Verify {
		back := ntt.Request{Device: c.Device, Direction: opposite(c.Direction), Order: c.Order.Inverted(), Data: work}
		if err := eng.Execute(ctx, back); err != nil {
			res.Err = err
			return res
		}
		if i := firstDifference(input, work); i >= 0 {
			res.Err = apperrors.MismatchError{Case: c.Name(), Index: i}
			return res
		}
		res.Verified = true
	}
	return res
}

func opposite(d ntt.Direction) ntt.Direction {
	if d == ntt.Forward {
		return ntt.Inverse
	}
	return ntt.Forward
}

func firstDifference(a, b []field.Element) int {
	for i := range a {
		if a[i] != b[i] {
			return i
		}
	}
	return -1
}

// summarize computes the statistics of samples with montanaflynn/stats.
func summarize(samples []time.Duration) Summary {
	if len(samples) == 0 {
		return Summary{}
	}
	data := make(stats.Float64Data, len(samples))
	for i, s := range samples {
		data[i] = float64(s)
	}
	stat := func(f func() (float64, error)) time.Duration {
		v, err := f()
		if err != nil {
			return 0
		}
		return time.Duration(v)
	}
	return Summary{
		Mean:   stat(data.Mean),
		Median: stat(data.Median),
		StdDev: stat(data.StandardDeviation),
		P95:    stat(func() (float64, error) { return data.Percentile(95) }),
		Min:    stat(data.Min),
	}
}

// SortResults orders results by device, then size, then direction.
func SortResults(results []BenchmarkResult) {
	slices.SortStableFunc(results, func(a, b BenchmarkResult) int {
		if a.Case.Device != b.Case.Device {
			return a.Case.Device - b.Case.Device
		}
		if a.Case.LogN != b.Case.LogN {
			return a.Case.LogN - b.Case.LogN
		}
		return int(a.Case.Direction) - int(b.Case.Direction)
	})
}
