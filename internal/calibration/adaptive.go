// Package calibration finds the fastest tile size and launch grain for the
// current machine and persists them in a profile reused at startup.
// This file derives candidate values and heuristic estimates from the
// hardware.
package calibration

import (
	"runtime"

	"github.com/klauspost/cpuid/v2"

	"github.com/agbru/nttgpu/internal/ntt"
)

// Bounds of the tuned parameters.
const (
	MinGrain   = 256
	MaxGrain   = 1 << 16
	MaxTileLog = 16
)

// ─────────────────────────────────────────────────────────────────────────────
// Candidate Generation
// ─────────────────────────────────────────────────────────────────────────────

// GenerateTileLogCandidates lists the tile logs to measure. 0 disables
// tiling and is always measured as the baseline; the largest candidate is
// the biggest tile that still fits in the L1 data cache.
func GenerateTileLogCandidates() []int {
	limit := l1TileLog() + 1
	candidates := []int{0}
	for t := 6; t <= min(limit, MaxTileLog); t += 2 {
		candidates = append(candidates, t)
	}
	return candidates
}

// GenerateGrainCandidates lists the grains to measure. Machines with more
// cores get smaller grains so that every worker receives work.
func GenerateGrainCandidates() []int {
	numCPU := runtime.NumCPU()
	switch {
	case numCPU == 1:
		return []int{MaxGrain}
	case numCPU <= 4:
		return []int{1024, 2048, 4096, 8192}
	case numCPU <= 16:
		return []int{512, 1024, 2048, 4096, 8192}
	default:
		return []int{256, 512, 1024, 2048, 4096}
	}
}

// ─────────────────────────────────────────────────────────────────────────────
// Heuristic Estimates
// ─────────────────────────────────────────────────────────────────────────────

// l1TileLog returns the log2 of the largest tile of 8-byte elements that
// fits in half of the L1 data cache, or DefaultTileLog when the cache size
// is unknown.
func l1TileLog() int {
	l1 := cpuid.CPU.Cache.L1D
	if l1 <= 0 {
		return ntt.DefaultTileLog
	}
	t := 0
	for (1<<(t+1))*8 <= l1/2 {
		t++
	}
	return t
}

// EstimateOptimalTileLog returns a tile log without running benchmarks.
func EstimateOptimalTileLog() int {
	t, _ := ValidateTuning(l1TileLog(), MinGrain)
	return t
}

// EstimateOptimalGrain returns a grain without running benchmarks.
func EstimateOptimalGrain() int {
	numCPU := runtime.NumCPU()
	switch {
	case numCPU == 1:
		return MaxGrain
	case numCPU <= 4:
		return 4096
	case numCPU <= 16:
		return 2048
	default:
		return 1024
	}
}

// ValidateTuning clamps tile log and grain into their supported ranges.
func ValidateTuning(tileLog, grain int) (int, int) {
	tileLog = min(max(tileLog, 0), MaxTileLog)
	grain = min(max(grain, MinGrain), MaxGrain)
	return tileLog, grain
}
