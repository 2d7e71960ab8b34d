package orchestration

import (
	"errors"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/agbru/nttgpu/internal/cli"
	"github.com/agbru/nttgpu/internal/digest"
	apperrors "github.com/agbru/nttgpu/internal/errors"
	"github.com/agbru/nttgpu/internal/ui"
)

// AnalyzeResults prints the benchmark table and a global status line, and
// returns the exit code of the run.
//
// Parameters:
//   - results: The results of ExecuteBenchmarks.
//   - out: The io.Writer for the report.
//
// Returns:
//   - int: ExitSuccess, ExitErrorMismatch when a round trip failed, or the
//     code of the first failure as mapped by apperrors.HandleTransformError.
func AnalyzeResults(results []BenchmarkResult, out io.Writer) int {
	SortResults(results)

	fmt.Fprintf(out, "\n--- Benchmark Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	header := []string{"Case", "n", "Median", "Mean ± σ", "P95", "Throughput", "Digest", "Status"}
	for i, h := range header {
		sep := "\t"
		if i == len(header)-1 {
			sep = "\n"
		}
		fmt.Fprintf(tw, "%s%s%s%s", ui.ColorUnderline(), h, ui.ColorReset(), sep)
	}

	var firstErr error
	var mismatch *apperrors.MismatchError
	successes := 0
	for _, res := range results {
		var status string
		switch {
		case apperrors.IsContextError(res.Err):
			status = fmt.Sprintf("%s⏹ Skipped%s", ui.ColorYellow(), ui.ColorReset())
			if firstErr == nil {
				firstErr = res.Err
			}
		case res.Err != nil:
			status = fmt.Sprintf("%s❌ %v%s", ui.ColorRed(), res.Err, ui.ColorReset())
			var m apperrors.MismatchError
			if mismatch == nil && errors.As(res.Err, &m) {
				mismatch = &m
			}
			if firstErr == nil {
				firstErr = res.Err
			}
		case res.Verified:
			status = fmt.Sprintf("%s✅ Verified%s", ui.ColorGreen(), ui.ColorReset())
			successes++
		default:
			status = fmt.Sprintf("%s✅ Done%s", ui.ColorGreen(), ui.ColorReset())
			successes++
		}

		s := res.Summary
		fmt.Fprintf(tw, "%s%s%s\t%s\t%s%s%s\t%s ± %s\t%s\t%s\t%s\t%s\n",
			ui.ColorBlue(), res.Case.Name(), ui.ColorReset(),
			cli.FormatNumber(1<<res.Case.LogN),
			ui.ColorYellow(), cli.FormatExecutionDuration(s.Median), ui.ColorReset(),
			cli.FormatExecutionDuration(s.Mean), cli.FormatExecutionDuration(s.StdDev),
			cli.FormatExecutionDuration(s.P95),
			cli.FormatThroughput(res.Throughput),
			digest.Short(res.Digest),
			status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}

	if mismatch != nil {
		fmt.Fprintf(out, "\nGlobal Status: CRITICAL ERROR! %v\n", *mismatch)
		return apperrors.ExitErrorMismatch
	}
	if firstErr != nil {
		fmt.Fprintf(out, "\nGlobal Status: Failure. %d of %d cases completed.\n", successes, len(results))
		return apperrors.HandleTransformError(firstErr, 0, out, cli.CLIColorProvider{})
	}
	fmt.Fprintf(out, "\nGlobal Status: Success. %d cases completed.\n", successes)
	return apperrors.ExitSuccess
}

// DisplayQuietResults prints one line per case: name, median nanoseconds
// and digest, for scripts.
func DisplayQuietResults(results []BenchmarkResult, out io.Writer) int {
	SortResults(results)
	code := apperrors.ExitSuccess
	for _, res := range results {
		if res.Err != nil {
			fmt.Fprintf(out, "%s error %v\n", res.Case.Name(), res.Err)
			if code == apperrors.ExitSuccess {
				code = apperrors.HandleTransformError(res.Err, 0, io.Discard, nil)
			}
			continue
		}
		fmt.Fprintf(out, "%s %d %s\n", res.Case.Name(), res.Summary.Median.Nanoseconds(), res.Digest)
	}
	return code
}
