package cli

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/agbru/nttgpu/internal/config"
	"github.com/agbru/nttgpu/internal/device"
	"github.com/agbru/nttgpu/internal/testutil"
	"github.com/agbru/nttgpu/internal/ui"
)

func TestFormatExecutionDuration(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "< 1µs"},
		{1500 * time.Nanosecond, "1.5µs"},
		{2500 * time.Microsecond, "2.50ms"},
		{1500 * time.Millisecond, "1.500s"},
	}
	for _, tt := range tests {
		if got := FormatExecutionDuration(tt.d); got != tt.want {
			t.Errorf("FormatExecutionDuration(%v): expected %q, got %q", tt.d, tt.want, got)
		}
	}
}

func TestFormatThroughput(t *testing.T) {
	t.Parallel()
	tests := []struct {
		rate float64
		want string
	}{
		{512, "512 elem/s"},
		{2500, "2.50 Kelem/s"},
		{3.25e6, "3.25 Melem/s"},
		{1.5e9, "1.50 Gelem/s"},
	}
	for _, tt := range tests {
		if got := FormatThroughput(tt.rate); got != tt.want {
			t.Errorf("FormatThroughput(%v): expected %q, got %q", tt.rate, tt.want, got)
		}
	}
}

func TestFormatNumberString(t *testing.T) {
	t.Parallel()
	tests := []struct{ in, want string }{
		{"", ""},
		{"1", "1"},
		{"123", "123"},
		{"1234", "1,234"},
		{"1234567", "1,234,567"},
		{"-1234", "-1,234"},
	}
	for _, tt := range tests {
		if got := formatNumberString(tt.in); got != tt.want {
			t.Errorf("formatNumberString(%q): expected %q, got %q", tt.in, tt.want, got)
		}
	}
	if got := FormatNumber(1 << 20); got != "1,048,576" {
		t.Errorf("Expected 1,048,576, got %s", got)
	}
}

func TestPrintExecutionConfig(t *testing.T) {
	saved := ui.GetCurrentTheme()
	defer ui.SetCurrentTheme(saved)
	ui.SetCurrentTheme(ui.DarkTheme)

	cfg := config.AppConfig{
		Field:      "goldilocks",
		Order:      "NN",
		Direction:  "forward",
		Sizes:      []int{10, 12},
		Iterations: 5,
		Warmup:     1,
		Timeout:    time.Minute,
		DeviceIDs:  []int{1},
		TileLog:    8,
	}
	devices := []device.Info{
		{ID: 0, Name: "zero", Kind: "cpu"},
		{ID: 1, Name: "host cpu", Kind: "cpu", Workers: 4, Features: []string{"avx2"}},
	}
	var buf bytes.Buffer
	PrintExecutionConfig(cfg, devices, &buf)
	out := testutil.StripAnsiCodes(buf.String())

	for _, want := range []string{"Field goldilocks", "log sizes [10 12]", "Device 1: host cpu (cpu, 4 workers, avx2)", "tile log 8"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "zero") {
		t.Errorf("Expected unselected devices to be omitted, got:\n%s", out)
	}
}

func TestCLIColorProvider(t *testing.T) {
	saved := ui.GetCurrentTheme()
	defer ui.SetCurrentTheme(saved)

	ui.SetCurrentTheme(ui.DarkTheme)
	var p CLIColorProvider
	if p.Yellow() != ui.DarkTheme.Warning || p.Red() != ui.DarkTheme.Error || p.Reset() != ui.DarkTheme.Reset {
		t.Error("CLIColorProvider does not follow the current theme")
	}
}
