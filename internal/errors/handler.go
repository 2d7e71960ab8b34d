package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider defines the interface for obtaining terminal color codes.
// This abstraction breaks the import cycle with ui.
type ColorProvider interface {
	Yellow() string
	Red() string
	Reset() string
}

// DefaultColorProvider provides no color codes (for non-terminal output).
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Red() string    { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// HandleTransformError formats and prints the status line for a failed run
// and selects the exit code.
//
// Parameters:
//   - err: The error that occurred.
//   - duration: Time spent before the failure (0 omits the suffix).
//   - out: The io.Writer to which the message will be written.
//   - colors: Provider for terminal color codes (can be nil for no colors).
//
// Returns:
//   - int: The appropriate exit code for the error type.
func HandleTransformError(err error, duration time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	msgSuffix := ""
	if duration > 0 {
		msgSuffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), duration, colors.Reset())
	}

	var mismatch MismatchError
	var cfgErr ConfigError
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "Status: Failure (Timeout). The execution limit was reached%s.\n", msgSuffix)
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), msgSuffix, colors.Reset())
		return ExitErrorCanceled
	case errors.As(err, &mismatch):
		fmt.Fprintf(out, "%sStatus: Mismatch.%s %v\n", colors.Red(), colors.Reset(), err)
		return ExitErrorMismatch
	case errors.As(err, &cfgErr), errors.Is(err, ErrInvalidDomainSize), errors.Is(err, ErrDeviceNotFound):
		fmt.Fprintf(out, "Status: Invalid request. %v\n", err)
		return ExitErrorConfig
	case IsDeviceError(err):
		fmt.Fprintf(out, "%sStatus: Device failure%s.%s %v\n", colors.Red(), msgSuffix, colors.Reset(), err)
		return ExitErrorDevice
	}
	fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	return ExitErrorGeneric
}
