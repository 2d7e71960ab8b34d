// This file contains environment variable utilities for configuration override.
package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// envSet reports whether EnvPrefix+key holds a non-empty value.
func envSet(key string) bool {
	return os.Getenv(EnvPrefix+key) != ""
}

// getEnvString returns the value of EnvPrefix+key, or defaultVal if unset.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvUint64 returns EnvPrefix+key parsed as uint64, or defaultVal if
// unset or invalid.
func getEnvUint64(key string, defaultVal uint64) uint64 {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.ParseUint(val, 10, 64); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvInt returns EnvPrefix+key parsed as int, or defaultVal if unset or
// invalid.
func getEnvInt(key string, defaultVal int) int {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := strconv.Atoi(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// getEnvBool returns EnvPrefix+key parsed as bool, or defaultVal if unset.
// Accepts "true", "1", "yes" and "false", "0", "no" (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// getEnvDuration returns EnvPrefix+key parsed as time.Duration ("5m",
// "30s"), or defaultVal if unset or invalid.
func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		if parsed, err := time.ParseDuration(val); err == nil {
			return parsed
		}
	}
	return defaultVal
}

// isFlagSet checks if a flag was explicitly set on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	found := false
	fs.Visit(func(f *flag.Flag) {
		if f.Name == name {
			found = true
		}
	})
	return found
}

// applyEnvOverrides applies environment values to every flag that was not
// set on the command line (CLI flags > environment > defaults).
//
// Supported environment variables:
//   - NTTGPU_FIELD, NTTGPU_LOG_SIZES, NTTGPU_ORDER, NTTGPU_DIRECTION (string)
//   - NTTGPU_DEVICE (ids or "all"), NTTGPU_DEVICES (int)
//   - NTTGPU_ITERATIONS, NTTGPU_WARMUP, NTTGPU_WORKERS, NTTGPU_GRAIN (int)
//   - NTTGPU_TILE_LOG, NTTGPU_MAX_LOG_SIZE (int)
//   - NTTGPU_DEVICE_MEMORY (bytes)
//   - NTTGPU_SEED, NTTGPU_LOG_LEVEL, NTTGPU_PORT, NTTGPU_CALIBRATION_PROFILE (string)
//   - NTTGPU_TIMEOUT (duration: "5m", "30s")
//   - NTTGPU_VERIFY, NTTGPU_JSON, NTTGPU_QUIET, NTTGPU_NO_COLOR,
//     NTTGPU_SERVER, NTTGPU_CALIBRATE (bool: true/false, 1/0, yes/no)
func applyEnvOverrides(config *AppConfig, fs *flag.FlagSet) {
	applyNumericOverrides(config, fs)
	applyDurationOverrides(config, fs)
	applyStringOverrides(config, fs)
	applyBooleanOverrides(config, fs)
}

func applyNumericOverrides(config *AppConfig, fs *flag.FlagSet) {
	ints := []struct {
		flag, env string
		dst       *int
	}{
		{"iterations", "ITERATIONS", &config.Iterations},
		{"warmup", "WARMUP", &config.Warmup},
		{"devices", "DEVICES", &config.Devices},
		{"workers", "WORKERS", &config.Workers},
		{"grain", "GRAIN", &config.Grain},
		{"tile-log", "TILE_LOG", &config.TileLog},
		{"max-log-size", "MAX_LOG_SIZE", &config.MaxLogSize},
	}
	for _, o := range ints {
		if !isFlagSet(fs, o.flag) {
			*o.dst = getEnvInt(o.env, *o.dst)
		}
	}
	if !isFlagSet(fs, "device-memory") {
		config.DeviceMemory = getEnvUint64("DEVICE_MEMORY", config.DeviceMemory)
	}
}

func applyDurationOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "timeout") {
		config.Timeout = getEnvDuration("TIMEOUT", config.Timeout)
	}
}

func applyStringOverrides(config *AppConfig, fs *flag.FlagSet) {
	strs := []struct {
		flag, env string
		dst       *string
	}{
		{"field", "FIELD", &config.Field},
		{"log-sizes", "LOG_SIZES", &config.LogSizes},
		{"device", "DEVICE", &config.DeviceList},
		{"order", "ORDER", &config.Order},
		{"direction", "DIRECTION", &config.Direction},
		{"seed", "SEED", &config.Seed},
		{"log-level", "LOG_LEVEL", &config.LogLevel},
		{"port", "PORT", &config.Port},
		{"calibration-profile", "CALIBRATION_PROFILE", &config.CalibrationProfile},
	}
	for _, o := range strs {
		if !isFlagSet(fs, o.flag) {
			*o.dst = getEnvString(o.env, *o.dst)
		}
	}
}

func applyBooleanOverrides(config *AppConfig, fs *flag.FlagSet) {
	if !isFlagSet(fs, "verify") {
		config.Verify = getEnvBool("VERIFY", config.Verify)
	}
	if !isFlagSet(fs, "json") {
		config.JSONOutput = getEnvBool("JSON", config.JSONOutput)
	}
	if !isFlagSet(fs, "quiet") && !isFlagSet(fs, "q") {
		config.Quiet = getEnvBool("QUIET", config.Quiet)
	}
	if !isFlagSet(fs, "no-color") {
		config.NoColor = getEnvBool("NO_COLOR", config.NoColor)
	}
	if !isFlagSet(fs, "server") {
		config.ServerMode = getEnvBool("SERVER", config.ServerMode)
	}
	if !isFlagSet(fs, "calibrate") {
		config.Calibrate = getEnvBool("CALIBRATE", config.Calibrate)
	}
}
