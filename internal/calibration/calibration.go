package calibration

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/agbru/nttgpu/internal/cli"
	"github.com/agbru/nttgpu/internal/config"
	apperrors "github.com/agbru/nttgpu/internal/errors"
)

// DefaultCalibrationLogN is the log2 length measured during calibration.
const DefaultCalibrationLogN = 16

// DefaultTrials is the number of timed transforms per candidate.
const DefaultTrials = 3

// CalibrationOptions configures a calibration run.
type CalibrationOptions struct {
	// ProfilePath is where the profile is saved (empty = default path).
	ProfilePath string
	// SaveProfile writes the result to ProfilePath.
	SaveProfile bool
	// LogN overrides DefaultCalibrationLogN.
	LogN int
	// Trials overrides DefaultTrials.
	Trials int
}

// calibrationResult is the measurement of one candidate.
type calibrationResult struct {
	TileLog  int
	Grain    int
	Duration time.Duration
	Err      error
}

// RunCalibration measures tile log and grain candidates, prints the results
// and saves the best pair to the calibration profile.
//
// Parameters:
//   - ctx: The context for cancellation.
//   - cfg: Field, seed, timeout and profile path.
//   - out: The io.Writer for progress and results.
//
// Returns:
//   - int: The exit code.
func RunCalibration(ctx context.Context, cfg config.AppConfig, out io.Writer) int {
	return RunCalibrationWithOptions(ctx, cfg, out, CalibrationOptions{
		ProfilePath: cfg.CalibrationProfile,
		SaveProfile: true,
	})
}

// RunCalibrationWithOptions runs calibration with explicit options.
func RunCalibrationWithOptions(ctx context.Context, cfg config.AppConfig, out io.Writer, opts CalibrationOptions) int {
	fmt.Fprintf(out, "--- Calibration Mode: Finding the Optimal Tile Size and Grain ---\n")

	f, err := cfg.ResolveField()
	if err != nil {
		return apperrors.HandleTransformError(err, 0, out, cli.CLIColorProvider{})
	}
	logN := opts.LogN
	if logN <= 0 {
		logN = DefaultCalibrationLogN
	}
	limit := f.TwoAdicity()
	if cfg.MaxLogSize > 0 {
		limit = min(limit, cfg.MaxLogSize)
	}
	logN = min(logN, limit)
	trials := opts.Trials
	if trials <= 0 {
		trials = DefaultTrials
	}

	runner, err := newCalibrationRunner(ctx, f, logN, trials, cfg.Seed, cfg.Timeout)
	if err != nil {
		return apperrors.HandleTransformError(err, 0, out, cli.CLIColorProvider{})
	}

	tiles := GenerateTileLogCandidates()
	grains := GenerateGrainCandidates()
	total := len(tiles) + len(grains)
	fmt.Fprintf(out, "%sMeasuring %d candidates on %s at 2^%d%s\n",
		cli.ColorCyan(), total, f.Name(), logN, cli.ColorReset())

	var wg sync.WaitGroup
	progressChan := make(chan cli.ProgressUpdate, total)
	wg.Add(1)
	go cli.DisplayProgress(&wg, progressChan, 1, out)
	stopProgress := func() {
		close(progressChan)
		wg.Wait()
	}

	start := time.Now()
	results := make([]calibrationResult, 0, total)
	done := 0
	measure := func(tileLog, grain int) calibrationResult {
		d, err := runner.runTrial(tileLog, grain)
		done++
		progressChan <- cli.ProgressUpdate{Lane: 0, Value: float64(done) / float64(total)}
		res := calibrationResult{TileLog: tileLog, Grain: grain, Duration: d, Err: err}
		results = append(results, res)
		return res
	}

	bestTile, bestGrain, bestDur := EstimateOptimalTileLog(), EstimateOptimalGrain(), maxDuration
	phaseGrain := bestGrain
	for _, tileLog := range tiles {
		if ctx.Err() != nil {
			stopProgress()
			fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", cli.ColorYellow(), cli.ColorReset())
			return apperrors.ExitErrorCanceled
		}
		if res := measure(tileLog, phaseGrain); res.Err == nil && res.Duration < bestDur {
			bestTile, bestDur = tileLog, res.Duration
		}
	}
	for _, grain := range grains {
		if ctx.Err() != nil {
			stopProgress()
			fmt.Fprintf(out, "\n%sCalibration interrupted.%s\n", cli.ColorYellow(), cli.ColorReset())
			return apperrors.ExitErrorCanceled
		}
		if res := measure(bestTile, grain); res.Err == nil && res.Duration < bestDur {
			bestGrain, bestDur = grain, res.Duration
		}
	}
	stopProgress()

	if bestDur == maxDuration {
		fmt.Fprintf(out, "\n%sCalibration failed: no valid results obtained.%s\n", cli.ColorRed(), cli.ColorReset())
		return apperrors.ExitErrorGeneric
	}

	printCalibrationResults(out, results, bestTile, bestGrain)
	fmt.Fprintf(out, "\n%s✅ Recommendation for this machine: %s-tile-log %d -grain %d%s\n",
		cli.ColorGreen(), cli.ColorYellow(), bestTile, bestGrain, cli.ColorReset())

	if opts.SaveProfile {
		profile := NewProfile()
		profile.OptimalTileLog = bestTile
		profile.OptimalGrain = bestGrain
		profile.Field = f.Name()
		profile.CalibrationLogN = logN
		profile.CalibrationTime = time.Since(start).Round(time.Millisecond).String()
		path := opts.ProfilePath
		if path == "" {
			path = GetDefaultProfilePath()
		}
		if err := profile.SaveProfile(path); err != nil {
			fmt.Fprintf(out, "%sWarning: failed to save profile: %v%s\n", cli.ColorYellow(), err, cli.ColorReset())
		} else {
			fmt.Fprintf(out, "%sCalibration profile saved to %s%s\n", cli.ColorGreen(), path, cli.ColorReset())
		}
	}
	return apperrors.ExitSuccess
}

// LoadCachedCalibration applies a valid stored profile to cfg. Values the
// user set explicitly are kept.
//
// Returns:
//   - config.AppConfig: The configuration with the profile applied.
//   - bool: True if a valid profile was found.
func LoadCachedCalibration(cfg config.AppConfig, profilePath string) (config.AppConfig, bool) {
	profile, loaded := LoadOrCreateProfile(profilePath)
	if !loaded {
		return cfg, false
	}
	return applyCalibrationResults(cfg, profile.OptimalTileLog, profile.OptimalGrain), true
}

// applyCalibrationResults sets the tuned values that the user did not set.
func applyCalibrationResults(cfg config.AppConfig, tileLog, grain int) config.AppConfig {
	tileLog, grain = ValidateTuning(tileLog, grain)
	if !cfg.TileLogSet {
		cfg.TileLog = tileLog
	}
	if !cfg.GrainSet {
		cfg.Grain = grain
	}
	return cfg
}
