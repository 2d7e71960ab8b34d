package calibration

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/agbru/nttgpu/internal/device"
)

func TestNewProfile(t *testing.T) {
	t.Parallel()
	profile := NewProfile()
	model, cores := device.HostFingerprint()

	if profile.CPUModel != model {
		t.Errorf("Expected CPUModel %q, got %q", model, profile.CPUModel)
	}
	if profile.NumCPU != cores {
		t.Errorf("Expected NumCPU %d, got %d", cores, profile.NumCPU)
	}
	if profile.GOARCH != runtime.GOARCH || profile.GOOS != runtime.GOOS {
		t.Errorf("Expected %s/%s, got %s/%s", runtime.GOOS, runtime.GOARCH, profile.GOOS, profile.GOARCH)
	}
	if profile.ProfileVersion != CurrentProfileVersion {
		t.Errorf("Expected ProfileVersion %d, got %d", CurrentProfileVersion, profile.ProfileVersion)
	}
	if profile.CalibratedAt.IsZero() {
		t.Error("Expected CalibratedAt to be set")
	}
}

func TestProfileSaveLoad(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profile.json")

	original := NewProfile()
	original.OptimalTileLog = 10
	original.OptimalGrain = 4096
	original.Field = "babybear"
	original.CalibrationLogN = 14
	original.CalibrationTime = "1.5s"

	if err := original.SaveProfile(path); err != nil {
		t.Fatalf("SaveProfile failed: %v", err)
	}
	loaded, err := LoadProfile(path)
	if err != nil {
		t.Fatalf("LoadProfile failed: %v", err)
	}
	if loaded.OptimalTileLog != 10 || loaded.OptimalGrain != 4096 {
		t.Errorf("Expected tile log 10 and grain 4096, got %d and %d", loaded.OptimalTileLog, loaded.OptimalGrain)
	}
	if loaded.Field != "babybear" || loaded.CalibrationLogN != 14 {
		t.Errorf("Expected babybear at 2^14, got %s at 2^%d", loaded.Field, loaded.CalibrationLogN)
	}
	if !loaded.IsValid() {
		t.Error("Expected reloaded profile to be valid on the same machine")
	}
}

func TestProfileIsValid(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name   string
		mutate func(p *CalibrationProfile)
		want   bool
	}{
		{"fresh", func(*CalibrationProfile) {}, true},
		{"wrong cpu count", func(p *CalibrationProfile) { p.NumCPU = 999 }, false},
		{"wrong model", func(p *CalibrationProfile) { p.CPUModel = "other cpu" }, false},
		{"wrong arch", func(p *CalibrationProfile) { p.GOARCH = "invalid_arch" }, false},
		{"wrong version", func(p *CalibrationProfile) { p.ProfileVersion = 999 }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			p := NewProfile()
			tt.mutate(p)
			if got := p.IsValid(); got != tt.want {
				t.Errorf("Expected IsValid %v, got %v", tt.want, got)
			}
		})
	}

	var nilProfile *CalibrationProfile
	if nilProfile.IsValid() {
		t.Error("Expected nil profile to be invalid")
	}
}

func TestProfileIsStale(t *testing.T) {
	t.Parallel()
	profile := NewProfile()
	if profile.IsStale(time.Hour) {
		t.Error("Expected fresh profile to not be stale")
	}
	profile.CalibratedAt = time.Now().Add(-2 * time.Hour)
	if !profile.IsStale(time.Hour) {
		t.Error("Expected old profile to be stale")
	}
	var nilProfile *CalibrationProfile
	if !nilProfile.IsStale(time.Hour) {
		t.Error("Expected nil profile to be stale")
	}
}

func TestProfileString(t *testing.T) {
	t.Parallel()
	profile := NewProfile()
	profile.OptimalTileLog = 8
	profile.OptimalGrain = 1024
	str := profile.String()
	for _, want := range []string{"TileLog: 8", "Grain: 1024"} {
		if !strings.Contains(str, want) {
			t.Errorf("Expected %q in %q", want, str)
		}
	}
	var nilProfile *CalibrationProfile
	if nilProfile.String() != "<nil profile>" {
		t.Errorf("Expected <nil profile>, got %q", nilProfile.String())
	}
}

func TestLoadProfileErrors(t *testing.T) {
	t.Parallel()
	dir := t.TempDir()

	if _, err := LoadProfile(filepath.Join(dir, "missing.json")); err == nil {
		t.Error("Expected error loading nonexistent profile")
	}

	invalid := filepath.Join(dir, "invalid.json")
	if err := os.WriteFile(invalid, []byte("not valid json"), 0o600); err != nil {
		t.Fatalf("Failed to write invalid file: %v", err)
	}
	if _, err := LoadProfile(invalid); err == nil {
		t.Error("Expected error loading invalid JSON")
	}
}

func TestLoadOrCreateProfile(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profile.json")

	profile, loaded := LoadOrCreateProfile(path)
	if loaded {
		t.Error("Expected loaded to be false for nonexistent file")
	}
	profile.OptimalGrain = 8192
	if err := profile.SaveProfile(path); err != nil {
		t.Fatalf("Failed to save profile: %v", err)
	}

	again, loaded := LoadOrCreateProfile(path)
	if !loaded {
		t.Fatal("Expected loaded to be true for existing file")
	}
	if again.OptimalGrain != 8192 {
		t.Errorf("Expected grain 8192, got %d", again.OptimalGrain)
	}
}

func TestProfileExists(t *testing.T) {
	t.Parallel()
	path := filepath.Join(t.TempDir(), "profile.json")
	if ProfileExists(path) {
		t.Error("Expected ProfileExists to be false for nonexistent file")
	}
	if err := NewProfile().SaveProfile(path); err != nil {
		t.Fatalf("Failed to save profile: %v", err)
	}
	if !ProfileExists(path) {
		t.Error("Expected ProfileExists to be true after saving")
	}
}

func TestGetDefaultProfilePath(t *testing.T) {
	t.Parallel()
	if base := filepath.Base(GetDefaultProfilePath()); base != DefaultProfileFileName {
		t.Errorf("Expected %s, got %s", DefaultProfileFileName, base)
	}
}
