package orchestration

import (
	"bytes"
	"context"
	"errors"
	"io"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/agbru/nttgpu/internal/config"
	"github.com/agbru/nttgpu/internal/device"
	apperrors "github.com/agbru/nttgpu/internal/errors"
	"github.com/agbru/nttgpu/internal/field"
	"github.com/agbru/nttgpu/internal/ntt"
	"github.com/agbru/nttgpu/internal/twiddle"
)

func benchConfig() config.AppConfig {
	return config.AppConfig{
		Field:      "goldilocks",
		Sizes:      []int{4, 6},
		Iterations: 3,
		Warmup:     1,
		DeviceIDs:  []int{0, 1},
		Devices:    2,
		Order:      "NR",
		Direction:  "both",
		Seed:       "test",
		Verify:     true,
		Timeout:    time.Minute,
	}
}

func newEngine(t *testing.T, devices int) *ntt.Engine {
	t.Helper()
	backend := device.NewCPUBackend(device.CPUConfig{DeviceCount: devices, Workers: 2, Grain: 8})
	return ntt.New(field.Goldilocks(),
		ntt.WithBackend(backend),
		ntt.WithTwiddleCache(twiddle.NewCache(twiddle.DefaultCacheConfig())),
		ntt.WithTileLog(3))
}

// MockTransformer delegates to ExecuteFunc.
type MockTransformer struct {
	ExecuteFunc func(ctx context.Context, req ntt.Request) error
	calls       atomic.Int64
}

func (m *MockTransformer) Field() *field.Field { return field.BabyBear() }

func (m *MockTransformer) Execute(ctx context.Context, req ntt.Request) error {
	m.calls.Add(1)
	if m.ExecuteFunc != nil {
		return m.ExecuteFunc(ctx, req)
	}
	return nil
}

// ─── Case construction ──────────────────────────────────────────────────────

func TestBuildCases(t *testing.T) {
	t.Parallel()
	cases, err := BuildCases(benchConfig())
	if err != nil {
		t.Fatal(err)
	}
	// 2 devices × 2 sizes × 2 directions
	if len(cases) != 8 {
		t.Fatalf("Expected 8 cases, got %d", len(cases))
	}
	first := cases[0]
	if first.Device != 0 || first.LogN != 4 || first.Direction != ntt.Forward || first.Order != ntt.NaturalReversed {
		t.Errorf("Unexpected first case %+v", first)
	}
	if got := first.Name(); got != "2^4/dev0/forward/NR" {
		t.Errorf("Expected name 2^4/dev0/forward/NR, got %s", got)
	}

	groups := lanes(cases)
	if len(groups) != 2 || len(groups[0]) != 4 || len(groups[1]) != 4 {
		t.Errorf("Expected two lanes of four cases, got %v", groups)
	}
}

func TestBuildCasesRejectsBadOrder(t *testing.T) {
	t.Parallel()
	cfg := benchConfig()
	cfg.Order = "ZZ"
	if _, err := BuildCases(cfg); err == nil {
		t.Error("Expected an error for an unknown order")
	}
}

// ─── Execution ──────────────────────────────────────────────────────────────

func TestExecuteBenchmarksWithEngine(t *testing.T) {
	t.Parallel()
	cfg := benchConfig()
	cases, err := BuildCases(cfg)
	if err != nil {
		t.Fatal(err)
	}
	results := ExecuteBenchmarks(context.Background(), newEngine(t, 2), cases, cfg, io.Discard)
	if len(results) != len(cases) {
		t.Fatalf("Expected %d results, got %d", len(cases), len(results))
	}
	for i, res := range results {
		if res.Err != nil {
			t.Errorf("%s: unexpected error %v", res.Case.Name(), res.Err)
			continue
		}
		if res.Case != cases[i] {
			t.Errorf("Result %d is for %+v, expected %+v", i, res.Case, cases[i])
		}
		if len(res.Samples) != cfg.Iterations {
			t.Errorf("%s: expected %d samples, got %d", res.Case.Name(), cfg.Iterations, len(res.Samples))
		}
		if !res.Verified {
			t.Errorf("%s: expected a verified round trip", res.Case.Name())
		}
		if len(res.Digest) != 64 {
			t.Errorf("%s: expected a 64-digit digest, got %q", res.Case.Name(), res.Digest)
		}
	}

	// Same seed, size and direction on two devices: identical outputs.
	if results[0].Digest != results[4].Digest {
		t.Errorf("Expected device-independent digests, got %s and %s", results[0].Digest, results[4].Digest)
	}
}

func TestExecuteBenchmarksRecordsFailures(t *testing.T) {
	t.Parallel()
	boom := apperrors.NewTransformError("launch", apperrors.ErrDeviceExecutionFailure, nil, "injected")
	mock := &MockTransformer{ExecuteFunc: func(ctx context.Context, req ntt.Request) error {
		if req.Device == 1 {
			return boom
		}
		return nil
	}}
	cfg := benchConfig()
	cfg.Verify = false
	cases, _ := BuildCases(cfg)
	results := ExecuteBenchmarks(context.Background(), mock, cases, cfg, io.Discard)
	for _, res := range results {
		if res.Case.Device == 1 && !errors.Is(res.Err, apperrors.ErrDeviceExecutionFailure) {
			t.Errorf("%s: expected execution failure, got %v", res.Case.Name(), res.Err)
		}
		if res.Case.Device == 0 && res.Err != nil {
			t.Errorf("%s: device 0 should not be affected, got %v", res.Case.Name(), res.Err)
		}
	}
}

func TestExecuteBenchmarksDetectsMismatch(t *testing.T) {
	t.Parallel()
	// An "engine" that corrupts every inverse.
	mock := &MockTransformer{ExecuteFunc: func(ctx context.Context, req ntt.Request) error {
		if req.Direction == ntt.Inverse {
			req.Data[3]++
		}
		return nil
	}}
	cfg := benchConfig()
	cfg.Direction = "forward"
	cfg.DeviceIDs = []int{0}
	cases, _ := BuildCases(cfg)
	results := ExecuteBenchmarks(context.Background(), mock, cases, cfg, io.Discard)
	for _, res := range results {
		var m apperrors.MismatchError
		if !errors.As(res.Err, &m) {
			t.Fatalf("Expected MismatchError, got %v", res.Err)
		}
		if m.Index != 3 {
			t.Errorf("Expected mismatch at index 3, got %d", m.Index)
		}
	}
}

func TestExecuteBenchmarksCanceled(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	mock := &MockTransformer{}
	cfg := benchConfig()
	cases, _ := BuildCases(cfg)
	results := ExecuteBenchmarks(ctx, mock, cases, cfg, io.Discard)
	for _, res := range results {
		if !errors.Is(res.Err, context.Canceled) {
			t.Errorf("%s: expected context.Canceled, got %v", res.Case.Name(), res.Err)
		}
	}
	if mock.calls.Load() != 0 {
		t.Errorf("Expected no transform after cancellation, got %d", mock.calls.Load())
	}
}

func TestSummarize(t *testing.T) {
	t.Parallel()
	samples := []time.Duration{4 * time.Millisecond, 1 * time.Millisecond, 3 * time.Millisecond, 2 * time.Millisecond}
	s := summarize(samples)
	if s.Min != time.Millisecond {
		t.Errorf("Expected min 1ms, got %v", s.Min)
	}
	if s.Median != 2500*time.Microsecond {
		t.Errorf("Expected median 2.5ms, got %v", s.Median)
	}
	if s.Mean != 2500*time.Microsecond {
		t.Errorf("Expected mean 2.5ms, got %v", s.Mean)
	}
	if s.StdDev <= 0 {
		t.Errorf("Expected positive standard deviation, got %v", s.StdDev)
	}
	if s.P95 < s.Median {
		t.Errorf("Expected P95 >= median, got %v < %v", s.P95, s.Median)
	}
	if (summarize(nil) != Summary{}) {
		t.Error("Expected zero summary for no samples")
	}
}

// ─── Reporting ──────────────────────────────────────────────────────────────

func TestAnalyzeResults(t *testing.T) {
	t.Parallel()
	ok := BenchmarkResult{Case: Case{LogN: 4}, Verified: true, Digest: strings.Repeat("ab", 32)}

	tests := []struct {
		name     string
		results  []BenchmarkResult
		wantCode int
		contains string
	}{
		{"success", []BenchmarkResult{ok}, apperrors.ExitSuccess, "Global Status: Success"},
		{"mismatch", []BenchmarkResult{ok, {Case: Case{LogN: 5}, Err: apperrors.MismatchError{Case: "x", Index: 2}}},
			apperrors.ExitErrorMismatch, "CRITICAL ERROR"},
		{"device failure", []BenchmarkResult{{Case: Case{LogN: 5}, Err: apperrors.NewTransformError("alloc", apperrors.ErrAllocationFailure, nil, "")}},
			apperrors.ExitErrorDevice, "Global Status: Failure"},
		{"canceled", []BenchmarkResult{ok, {Case: Case{LogN: 6}, Err: context.Canceled}},
			apperrors.ExitErrorCanceled, "Skipped"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			if code := AnalyzeResults(tt.results, &buf); code != tt.wantCode {
				t.Errorf("Expected exit code %d, got %d", tt.wantCode, code)
			}
			if !strings.Contains(buf.String(), tt.contains) {
				t.Errorf("Expected output to contain %q, got:\n%s", tt.contains, buf.String())
			}
			if !strings.Contains(buf.String(), "Benchmark Summary") {
				t.Errorf("Expected the summary header, got:\n%s", buf.String())
			}
		})
	}
}

func TestDisplayQuietResults(t *testing.T) {
	t.Parallel()
	results := []BenchmarkResult{
		{Case: Case{LogN: 6}, Summary: Summary{Median: 1500}, Digest: "d6"},
		{Case: Case{LogN: 4}, Summary: Summary{Median: 900}, Digest: "d4"},
	}
	var buf bytes.Buffer
	if code := DisplayQuietResults(results, &buf); code != apperrors.ExitSuccess {
		t.Errorf("Expected success, got %d", code)
	}
	want := "2^4/dev0/forward/NN 900 d4\n2^6/dev0/forward/NN 1500 d6\n"
	if buf.String() != want {
		t.Errorf("Expected %q, got %q", want, buf.String())
	}
}
