package cli

import (
	"fmt"
	"io"
	"runtime"
	"strings"
	"time"

	"github.com/agbru/nttgpu/internal/config"
	"github.com/agbru/nttgpu/internal/device"
	"github.com/agbru/nttgpu/internal/ui"
)

// Color helpers delegating to the current ui theme.

func ColorReset() string     { return ui.ColorReset() }
func ColorRed() string       { return ui.ColorRed() }
func ColorGreen() string     { return ui.ColorGreen() }
func ColorYellow() string    { return ui.ColorYellow() }
func ColorBlue() string      { return ui.ColorBlue() }
func ColorMagenta() string   { return ui.ColorMagenta() }
func ColorCyan() string      { return ui.ColorCyan() }
func ColorBold() string      { return ui.ColorBold() }
func ColorUnderline() string { return ui.ColorUnderline() }

// CLIColorProvider implements apperrors.ColorProvider with the ui theme.
type CLIColorProvider struct{}

func (CLIColorProvider) Yellow() string { return ColorYellow() }
func (CLIColorProvider) Red() string    { return ColorRed() }
func (CLIColorProvider) Reset() string  { return ColorReset() }

// FormatExecutionDuration formats d with a unit suited to its magnitude.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d <= 0:
		return "< 1µs"
	case d < time.Millisecond:
		return fmt.Sprintf("%.1fµs", float64(d)/float64(time.Microsecond))
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d)/float64(time.Millisecond))
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// FormatThroughput renders a rate in elements per second with an SI prefix.
func FormatThroughput(elemsPerSec float64) string {
	switch {
	case elemsPerSec >= 1e9:
		return fmt.Sprintf("%.2f Gelem/s", elemsPerSec/1e9)
	case elemsPerSec >= 1e6:
		return fmt.Sprintf("%.2f Melem/s", elemsPerSec/1e6)
	case elemsPerSec >= 1e3:
		return fmt.Sprintf("%.2f Kelem/s", elemsPerSec/1e3)
	}
	return fmt.Sprintf("%.0f elem/s", elemsPerSec)
}

// FormatNumber inserts thousand separators into n.
func FormatNumber(n int) string {
	return formatNumberString(fmt.Sprintf("%d", n))
}

func formatNumberString(s string) string {
	if s == "" {
		return ""
	}
	prefix := ""
	if s[0] == '-' {
		prefix, s = "-", s[1:]
	}
	n := len(s)
	if n <= 3 {
		return prefix + s
	}
	var b strings.Builder
	b.Grow(len(prefix) + n + (n-1)/3)
	b.WriteString(prefix)
	first := n % 3
	if first == 0 {
		first = 3
	}
	b.WriteString(s[:first])
	for i := first; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// PrintExecutionConfig displays the benchmark settings and the devices
// that will run it.
func PrintExecutionConfig(cfg config.AppConfig, devices []device.Info, out io.Writer) {
	fmt.Fprintf(out, "--- Execution Configuration ---\n")
	fmt.Fprintf(out, "Field %s%s%s, order %s%s%s, direction %s%s%s, log sizes %s%v%s.\n",
		ColorMagenta(), cfg.Field, ColorReset(),
		ColorCyan(), cfg.Order, ColorReset(),
		ColorCyan(), cfg.Direction, ColorReset(),
		ColorCyan(), cfg.Sizes, ColorReset())
	fmt.Fprintf(out, "%d warmup + %d timed iterations per case, timeout %s%s%s, verify %v.\n",
		cfg.Warmup, cfg.Iterations, ColorYellow(), cfg.Timeout, ColorReset(), cfg.Verify)
	fmt.Fprintf(out, "Environment: %s%d%s logical processors, Go %s%s%s.\n",
		ColorCyan(), runtime.NumCPU(), ColorReset(), ColorCyan(), runtime.Version(), ColorReset())
	fmt.Fprintf(out, "Tiling: tile log %s%d%s.\n", ColorCyan(), cfg.TileLog, ColorReset())
	for _, id := range cfg.DeviceIDs {
		if id < 0 || id >= len(devices) {
			continue
		}
		d := devices[id]
		fmt.Fprintf(out, "Device %d: %s%s%s (%s, %d workers", d.ID, ColorGreen(), d.Name, ColorReset(), d.Kind, d.Workers)
		if len(d.Features) > 0 {
			fmt.Fprintf(out, ", %s", strings.Join(d.Features, " "))
		}
		fmt.Fprintf(out, ")\n")
	}
	fmt.Fprintf(out, "\n--- Starting Execution ---\n")
}
