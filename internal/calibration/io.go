package calibration

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/nttgpu/internal/cli"
)

// printCalibrationResults prints the measured candidates and marks the
// optimal pair.
func printCalibrationResults(out io.Writer, results []calibrationResult, bestTile, bestGrain int) {
	fmt.Fprintf(out, "\n--- Calibration Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "  %sTile log%s │ %sGrain%s │ %sBest time%s\n",
		cli.ColorUnderline(), cli.ColorReset(), cli.ColorUnderline(), cli.ColorReset(), cli.ColorUnderline(), cli.ColorReset())
	fmt.Fprintf(tw, "  %s┼%s┼%s\n", strings.Repeat("─", 9), strings.Repeat("─", 8), strings.Repeat("─", 20))
	for _, res := range results {
		tile := fmt.Sprintf("%d", res.TileLog)
		if res.TileLog == 0 {
			tile = "untiled"
		}
		duration := fmt.Sprintf("%sN/A%s", cli.ColorRed(), cli.ColorReset())
		if res.Err == nil {
			duration = cli.FormatExecutionDuration(res.Duration)
		}
		highlight := ""
		if res.Err == nil && res.TileLog == bestTile && res.Grain == bestGrain {
			highlight = fmt.Sprintf(" %s(Optimal)%s", cli.ColorGreen(), cli.ColorReset())
		}
		fmt.Fprintf(tw, "  %s%-8s%s │ %-6d │ %s%s%s%s\n",
			cli.ColorCyan(), tile, cli.ColorReset(), res.Grain,
			cli.ColorYellow(), duration, cli.ColorReset(), highlight)
	}
	tw.Flush()
}
