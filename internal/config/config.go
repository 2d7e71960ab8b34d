// Package config provides the configuration management for the nttbench
// application. It defines the configuration structure, parses command-line
// arguments with environment overrides, and validates the resulting values.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/agbru/nttgpu/internal/device"
	apperrors "github.com/agbru/nttgpu/internal/errors"
	"github.com/agbru/nttgpu/internal/field"
	"github.com/agbru/nttgpu/internal/logging"
	"github.com/agbru/nttgpu/internal/ntt"
)

const (
	// EnvPrefix is the prefix for all environment variables read by nttbench.
	EnvPrefix = "NTTGPU_"
)

// Default configuration values.
const (
	// DefaultField is the field used when -field is not given.
	DefaultField = "goldilocks"
	// DefaultLogSizes are the benchmarked log2 lengths.
	DefaultLogSizes = "14,16,18"
	// DefaultIterations is the number of timed runs per case.
	DefaultIterations = 10
	// DefaultWarmup is the number of untimed runs per case.
	DefaultWarmup = 2
	// DefaultOrder is the benchmarked order mode.
	DefaultOrder = "NN"
	// DefaultDirection is the benchmarked transform direction.
	DefaultDirection = "forward"
	// DefaultSeed keys the input generator.
	DefaultSeed = "nttgpu"
	// DefaultTimeout bounds a whole benchmark run.
	DefaultTimeout = 5 * time.Minute
	// DefaultPort is the server port.
	DefaultPort = "8080"
	// DefaultLogLevel is the zerolog level name.
	DefaultLogLevel = "info"
	// MaxTileLog bounds -tile-log.
	MaxTileLog = 20
)

// Directions accepted by -direction.
var validDirections = []string{"forward", "inverse", "both"}

// AppConfig aggregates the application's configuration parameters.
type AppConfig struct {
	// Field names the prime field ("goldilocks" or "babybear").
	Field string
	// LogSizes is the comma-separated list of benchmarked log2 lengths.
	LogSizes string
	// Sizes is LogSizes parsed.
	Sizes []int
	// Iterations is the number of timed runs per case.
	Iterations int
	// Warmup is the number of untimed runs per case.
	Warmup int
	// DeviceList selects the devices to run on: ids separated by commas, or "all".
	DeviceList string
	// DeviceIDs is DeviceList resolved against Devices.
	DeviceIDs []int
	// Devices is the number of virtual devices exposed by the CPU backend.
	Devices int
	// Order is the order mode name (NN, NR, RN, RR).
	Order string
	// Direction is "forward", "inverse" or "both".
	Direction string
	// Workers bounds the goroutines of one kernel launch (0 = GOMAXPROCS).
	Workers int
	// Grain is the work items per goroutine (0 = backend default).
	Grain int
	// TileLog is the log2 of the fused tile (0 disables tiling).
	TileLog int
	// MaxLogSize caps accepted transform sizes (0 = field two-adicity).
	MaxLogSize int
	// DeviceMemory caps the bytes allocated per device (0 = unlimited).
	DeviceMemory uint64
	// Seed keys the pseudo-random input generator.
	Seed string
	// Verify runs an inverse after each case and checks the round trip.
	Verify bool
	// Timeout bounds the whole run.
	Timeout time.Duration
	// JSONOutput prints the report as JSON.
	JSONOutput bool
	// Quiet suppresses progress and banners.
	Quiet bool
	// NoColor disables colored output. NO_COLOR is also honored.
	NoColor bool
	// LogLevel is the zerolog level name.
	LogLevel string
	// ServerMode starts the HTTP API instead of benchmarking.
	ServerMode bool
	// Port is the HTTP listen port.
	Port string
	// Calibrate runs the tile/grain calibration.
	Calibrate bool
	// CalibrationProfile is the profile path (default ~/.nttgpu_calibration.json).
	CalibrationProfile string

	// TileLogSet and GrainSet record that the user chose these explicitly,
	// in which case a calibration profile does not override them.
	TileLogSet bool
	GrainSet   bool
}

// ResolveField returns the configured field.
func (c AppConfig) ResolveField() (*field.Field, error) {
	return field.ByName(c.Field)
}

// OrderMode returns the configured order mode.
func (c AppConfig) OrderMode() (ntt.OrderMode, error) {
	return ntt.ParseOrderMode(c.Order)
}

// Directions returns the transform directions to benchmark.
func (c AppConfig) Directions() []ntt.Direction {
	switch c.Direction {
	case "inverse":
		return []ntt.Direction{ntt.Inverse}
	case "both":
		return []ntt.Direction{ntt.Forward, ntt.Inverse}
	default:
		return []ntt.Direction{ntt.Forward}
	}
}

// ToCPUConfig converts the configuration into the CPU backend settings.
func (c AppConfig) ToCPUConfig() device.CPUConfig {
	return device.CPUConfig{
		DeviceCount: c.Devices,
		Workers:     c.Workers,
		Grain:       c.Grain,
		MemoryBytes: int64(c.DeviceMemory),
	}
}

// ToEngineOptions converts the configuration into engine options. The
// backend and logger are created by the caller.
func (c AppConfig) ToEngineOptions(backend device.Backend, logger logging.Logger) []ntt.Option {
	opts := []ntt.Option{
		ntt.WithTileLog(c.TileLog),
		ntt.WithMaxLogSize(c.MaxLogSize),
	}
	if backend != nil {
		opts = append(opts, ntt.WithBackend(backend))
	}
	if logger != nil {
		opts = append(opts, ntt.WithLogger(logger))
	}
	return opts
}

// Validate checks the semantic consistency of the configuration.
//
// Returns:
//   - error: A ConfigError describing the first invalid value, nil otherwise.
func (c AppConfig) Validate() error {
	if c.Timeout <= 0 {
		return apperrors.NewConfigError("timeout value must be strictly positive")
	}
	if c.Iterations < 1 {
		return apperrors.NewConfigError("iterations must be at least 1: %d", c.Iterations)
	}
	if c.Warmup < 0 {
		return apperrors.NewConfigError("warmup cannot be negative: %d", c.Warmup)
	}
	if c.Devices < 1 {
		return apperrors.NewConfigError("device count must be at least 1: %d", c.Devices)
	}
	if c.Workers < 0 {
		return apperrors.NewConfigError("workers cannot be negative: %d", c.Workers)
	}
	if c.Grain < 0 {
		return apperrors.NewConfigError("grain cannot be negative: %d", c.Grain)
	}
	if c.TileLog < 0 || c.TileLog > MaxTileLog {
		return apperrors.NewConfigError("tile log must be in [0, %d]: %d", MaxTileLog, c.TileLog)
	}

	f, err := c.ResolveField()
	if err != nil {
		return err
	}
	if c.MaxLogSize < 0 || c.MaxLogSize > f.TwoAdicity() {
		return apperrors.NewConfigError("max log size must be in [0, %d] for %s: %d", f.TwoAdicity(), f.Name(), c.MaxLogSize)
	}
	if _, err := c.OrderMode(); err != nil {
		return apperrors.NewConfigError("unrecognized order mode: '%s'. Valid modes are: NN, NR, RN, RR", c.Order)
	}
	if !contains(validDirections, c.Direction) {
		return apperrors.NewConfigError("unrecognized direction: '%s'. Valid directions are: %s", c.Direction, strings.Join(validDirections, ", "))
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return apperrors.NewConfigError("unrecognized log level: '%s'", c.LogLevel)
	}

	limit := f.TwoAdicity()
	if c.MaxLogSize > 0 {
		limit = c.MaxLogSize
	}
	if len(c.Sizes) == 0 {
		return apperrors.NewConfigError("at least one log size is required")
	}
	for _, s := range c.Sizes {
		if s < 0 || s > limit {
			return apperrors.NewConfigError("log size %d out of range [0, %d]", s, limit)
		}
	}
	if len(c.DeviceIDs) == 0 {
		return apperrors.NewConfigError("at least one device is required")
	}
	for _, id := range c.DeviceIDs {
		if id < 0 || id >= c.Devices {
			return apperrors.NewConfigError("device %d out of range [0, %d)", id, c.Devices)
		}
	}
	if c.ServerMode && c.Port == "" {
		return apperrors.NewConfigError("server mode requires a port")
	}
	return nil
}

// ParseConfig parses the command-line arguments into an AppConfig, applies
// environment overrides for flags not set explicitly, and validates the
// result.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: The command-line arguments (typically os.Args[1:]).
//   - errorWriter: Destination of parsing errors and usage information.
//
// Returns:
//   - AppConfig: The populated configuration.
//   - error: An error if parsing or validation fails.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	config := AppConfig{}
	fs.StringVar(&config.Field, "field", DefaultField, "Prime field: 'goldilocks' or 'babybear'.")
	fs.StringVar(&config.LogSizes, "log-sizes", DefaultLogSizes, "Comma-separated log2 transform lengths to benchmark.")
	fs.IntVar(&config.Iterations, "iterations", DefaultIterations, "Timed runs per benchmark case.")
	fs.IntVar(&config.Warmup, "warmup", DefaultWarmup, "Untimed warmup runs per benchmark case.")
	fs.StringVar(&config.DeviceList, "device", "0", "Devices to run on: comma-separated ids or 'all'.")
	fs.IntVar(&config.Devices, "devices", 1, "Number of virtual devices exposed by the CPU backend.")
	fs.StringVar(&config.Order, "order", DefaultOrder, "Order mode: NN, NR, RN or RR.")
	fs.StringVar(&config.Direction, "direction", DefaultDirection, "Direction: 'forward', 'inverse' or 'both'.")
	fs.IntVar(&config.Workers, "workers", 0, "Goroutines per kernel launch (0 uses GOMAXPROCS).")
	fs.IntVar(&config.Grain, "grain", 0, "Work items per goroutine (0 uses the backend default).")
	fs.IntVar(&config.TileLog, "tile-log", ntt.DefaultTileLog, "Log2 of the fused butterfly tile (0 disables tiling).")
	fs.IntVar(&config.MaxLogSize, "max-log-size", 0, "Largest accepted log2 length (0 uses the field two-adicity).")
	fs.Uint64Var(&config.DeviceMemory, "device-memory", 0, "Memory limit per device in bytes (0 for unlimited).")
	fs.StringVar(&config.Seed, "seed", DefaultSeed, "Key of the pseudo-random input generator.")
	fs.BoolVar(&config.Verify, "verify", true, "Check that the inverse transform restores the input.")
	fs.DurationVar(&config.Timeout, "timeout", DefaultTimeout, "Maximum execution time for the whole run.")
	fs.BoolVar(&config.JSONOutput, "json", false, "Output results in JSON format.")
	fs.BoolVar(&config.Quiet, "quiet", false, "Quiet mode - minimal output for scripts.")
	fs.BoolVar(&config.Quiet, "q", false, "Quiet mode (shorthand).")
	fs.BoolVar(&config.NoColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&config.LogLevel, "log-level", DefaultLogLevel, "Log level: debug, info, warn, error or disabled.")
	fs.BoolVar(&config.ServerMode, "server", false, "Start in HTTP server mode.")
	fs.StringVar(&config.Port, "port", DefaultPort, "Port to listen on in server mode.")
	fs.BoolVar(&config.Calibrate, "calibrate", false, "Measure and persist the fastest tile log and grain.")
	fs.StringVar(&config.CalibrationProfile, "calibration-profile", "", "Path to calibration profile file (default: ~/.nttgpu_calibration.json).")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		return AppConfig{}, err
	}

	applyEnvOverrides(&config, fs)
	config.TileLogSet = isFlagSet(fs, "tile-log") || envSet("TILE_LOG")
	config.GrainSet = isFlagSet(fs, "grain") || envSet("GRAIN")

	if err := config.normalize(); err != nil {
		return invalidConfig(fs, errorWriter, err)
	}
	if err := config.Validate(); err != nil {
		return invalidConfig(fs, errorWriter, err)
	}
	return config, nil
}

func invalidConfig(fs *flag.FlagSet, w io.Writer, err error) (AppConfig, error) {
	fmt.Fprintln(w, "Configuration error:", err)
	fs.Usage()
	return AppConfig{}, errors.New("invalid configuration")
}

// normalize lower-cases names and parses the list-valued flags.
func (c *AppConfig) normalize() error {
	c.Field = strings.ToLower(strings.TrimSpace(c.Field))
	c.Direction = strings.ToLower(strings.TrimSpace(c.Direction))
	c.Order = strings.ToUpper(strings.TrimSpace(c.Order))
	c.LogLevel = strings.ToLower(strings.TrimSpace(c.LogLevel))

	sizes, err := ParseIntList(c.LogSizes)
	if err != nil {
		return apperrors.NewConfigError("invalid log sizes %q: %v", c.LogSizes, err)
	}
	c.Sizes = sizes

	ids, err := ResolveDevices(c.DeviceList, c.Devices)
	if err != nil {
		return err
	}
	c.DeviceIDs = ids
	return nil
}

// ParseIntList parses "a,b,c" into integers, ignoring empty items.
func ParseIntList(s string) ([]int, error) {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		v, err := strconv.Atoi(part)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

// ResolveDevices expands a device selection into ids. "all" selects every
// one of count devices.
func ResolveDevices(list string, count int) ([]int, error) {
	if strings.EqualFold(strings.TrimSpace(list), "all") {
		ids := make([]int, max(count, 0))
		for i := range ids {
			ids[i] = i
		}
		return ids, nil
	}
	ids, err := ParseIntList(list)
	if err != nil {
		return nil, apperrors.NewConfigError("invalid device list %q: %v", list, err)
	}
	return ids, nil
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
