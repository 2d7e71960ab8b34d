package app

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"runtime"

	"github.com/agbru/nttgpu/internal/calibration"
	"github.com/agbru/nttgpu/internal/cli"
	"github.com/agbru/nttgpu/internal/config"
	"github.com/agbru/nttgpu/internal/device"
	apperrors "github.com/agbru/nttgpu/internal/errors"
	"github.com/agbru/nttgpu/internal/logging"
	"github.com/agbru/nttgpu/internal/ntt"
	"github.com/agbru/nttgpu/internal/orchestration"
	"github.com/agbru/nttgpu/internal/server"
	"github.com/agbru/nttgpu/internal/service"
	"github.com/agbru/nttgpu/internal/ui"
	"github.com/agbru/nttgpu/pkg/models"
)

// Application represents the nttbench application instance.
// It encapsulates the configuration and runs the application in one of
// its modes (benchmark, calibration, server).
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Backend runs the transforms. New creates a CPU backend from Config.
	Backend device.Backend
	// Logger receives engine and server logs.
	Logger logging.Logger
	// ErrWriter is the writer for error output (typically os.Stderr).
	ErrWriter io.Writer
}

// New creates a new Application by parsing command-line arguments. A valid
// calibration profile fills in the tile log and grain when they were not
// set explicitly.
//
// Parameters:
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error and log output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(args []string, errWriter io.Writer) (*Application, error) {
	programName := "nttbench"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}

	if cfgWithProfile, loaded := calibration.LoadCachedCalibration(cfg, cfg.CalibrationProfile); loaded {
		cfg = cfgWithProfile
	}

	level, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	return &Application{
		Config:    cfg,
		Backend:   device.NewCPUBackend(cfg.ToCPUConfig()),
		Logger:    logging.NewLogger(errWriter, "nttbench", level),
		ErrWriter: errWriter,
	}, nil
}

// Run executes the application based on the configured mode.
//
// Parameters:
//   - ctx: The context for managing cancellation and timeouts.
//   - out: The writer for standard output.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	ui.InitTheme(a.Config.NoColor)

	if a.Config.ServerMode {
		return a.runServer()
	}
	if a.Config.Calibrate {
		return a.runCalibration(ctx, out)
	}
	return a.runBenchmark(ctx, out)
}

// newEngine builds the transform engine from the configuration.
func (a *Application) newEngine() (*ntt.Engine, error) {
	f, err := a.Config.ResolveField()
	if err != nil {
		return nil, err
	}
	return ntt.New(f, a.Config.ToEngineOptions(a.Backend, a.Logger)...), nil
}

// runServer starts the HTTP server mode.
func (a *Application) runServer() int {
	eng, err := a.newEngine()
	if err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	svc := service.NewTransformService(eng, a.Config.MaxLogSize)
	srv := server.NewServer(svc, a.Config, server.WithLogger(a.Logger))
	if err := srv.Start(); err != nil {
		fmt.Fprintf(a.ErrWriter, "Server error: %v\n", err)
		return apperrors.ExitErrorGeneric
	}
	return apperrors.ExitSuccess
}

// runCalibration runs the calibration mode.
func (a *Application) runCalibration(ctx context.Context, out io.Writer) int {
	ctx, cleanup := SetupLifecycle(ctx, a.Config.Timeout)
	defer cleanup.Cleanup()
	return calibration.RunCalibration(ctx, a.Config, out)
}

// runBenchmark runs the benchmark cases and reports the results.
func (a *Application) runBenchmark(ctx context.Context, out io.Writer) int {
	ctx, cleanup := SetupLifecycle(ctx, a.Config.Timeout)
	defer cleanup.Cleanup()

	eng, err := a.newEngine()
	if err != nil {
		return apperrors.HandleTransformError(err, 0, out, cli.CLIColorProvider{})
	}
	cases, err := orchestration.BuildCases(a.Config)
	if err != nil {
		return apperrors.HandleTransformError(err, 0, out, cli.CLIColorProvider{})
	}

	if !a.Config.JSONOutput && !a.Config.Quiet {
		cli.PrintExecutionConfig(a.Config, eng.Devices(), out)
	}

	progressOut := out
	if a.Config.Quiet || a.Config.JSONOutput {
		progressOut = io.Discard
	}

	if a.Config.TileLog > 0 {
		device.PreWarm(1<<a.Config.TileLog, runtime.GOMAXPROCS(0))
	}
	results := orchestration.ExecuteBenchmarks(ctx, eng, cases, a.Config, progressOut)
	stats := device.GetPoolStats()
	a.Logger.Debug("scratch pool",
		logging.Uint64("acquires", stats.Acquires),
		logging.Uint64("misses", stats.Misses))

	switch {
	case a.Config.JSONOutput:
		return printJSONResults(a.Config, eng.Devices(), results, out)
	case a.Config.Quiet:
		return orchestration.DisplayQuietResults(results, out)
	}
	return orchestration.AnalyzeResults(results, out)
}

// IsHelpError checks if the error is a help flag error (-help was used).
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

// printJSONResults writes the benchmark report as indented JSON. The exit
// code reflects the worst failure, as in the table output.
func printJSONResults(cfg config.AppConfig, devices []device.Info, results []orchestration.BenchmarkResult, out io.Writer) int {
	report := models.BenchmarkReport{
		Field:   cfg.Field,
		Seed:    cfg.Seed,
		Devices: make([]models.DeviceInfo, len(devices)),
		Results: make([]models.BenchmarkRecord, len(results)),
	}
	for i, d := range devices {
		report.Devices[i] = models.DeviceInfo{
			ID: d.ID, Name: d.Name, Vendor: d.Vendor, Kind: d.Kind,
			Workers: d.Workers, MemoryBytes: d.MemoryBytes, Features: d.Features,
		}
	}

	exitCode := apperrors.ExitSuccess
	for i, res := range results {
		rec := models.BenchmarkRecord{
			Case:       res.Case.Name(),
			LogN:       res.Case.LogN,
			Device:     res.Case.Device,
			Direction:  res.Case.Direction.String(),
			Order:      res.Case.Order.String(),
			Samples:    len(res.Samples),
			MeanNs:     float64(res.Summary.Mean),
			MedianNs:   float64(res.Summary.Median),
			StdDevNs:   float64(res.Summary.StdDev),
			P95Ns:      float64(res.Summary.P95),
			MinNs:      float64(res.Summary.Min),
			Throughput: res.Throughput,
			Digest:     res.Digest,
			Verified:   res.Verified,
		}
		if res.Err != nil {
			rec.Error = res.Err.Error()
			if exitCode == apperrors.ExitSuccess {
				exitCode = apperrors.HandleTransformError(res.Err, 0, io.Discard, nil)
			}
		}
		report.Results[i] = rec
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return apperrors.ExitErrorGeneric
	}
	return exitCode
}
