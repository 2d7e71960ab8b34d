// Package ui provides theme and color support for the command-line output.
// Themes are built from github.com/fatih/color attributes so that colored
// text printed through fatih/color (the progress spinner, for instance) and
// the raw escape codes used in formatted tables stay consistent.
package ui

import (
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Theme defines a color scheme for UI output.
// Each field contains an ANSI escape sequence for the corresponding category.
type Theme struct {
	// Name is the identifier of the theme.
	Name string
	// Primary is the main accent color for headers and highlighted values.
	Primary string
	// Secondary is used for less prominent elements such as units.
	Secondary string
	// Success marks verified round trips and completed runs.
	Success string
	// Warning is used for caution messages.
	Warning string
	// Error marks failures.
	Error string
	// Info is used for informational messages.
	Info string
	// Bold is the escape sequence for bold text.
	Bold string
	// Underline is the escape sequence for underlined text.
	Underline string
	// Reset clears all formatting.
	Reset string
}

// Escape renders a set of fatih/color attributes as a single SGR sequence.
func Escape(attrs ...color.Attribute) string {
	if len(attrs) == 0 {
		return ""
	}
	parts := make([]string, len(attrs))
	for i, a := range attrs {
		parts[i] = strconv.Itoa(int(a))
	}
	return "\x1b[" + strings.Join(parts, ";") + "m"
}

var (
	// DarkTheme is optimized for dark terminal backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Primary:   Escape(color.FgHiBlue),
		Secondary: Escape(color.FgHiBlack),
		Success:   Escape(color.FgHiGreen),
		Warning:   Escape(color.FgHiYellow),
		Error:     Escape(color.FgHiRed),
		Info:      Escape(color.FgHiMagenta),
		Bold:      Escape(color.Bold),
		Underline: Escape(color.Underline),
		Reset:     Escape(color.Reset),
	}

	// LightTheme uses darker colors for light backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Primary:   Escape(color.FgBlue),
		Secondary: Escape(color.FgBlack),
		Success:   Escape(color.FgGreen),
		Warning:   Escape(color.FgYellow),
		Error:     Escape(color.FgRed),
		Info:      Escape(color.FgMagenta),
		Bold:      Escape(color.Bold),
		Underline: Escape(color.Underline),
		Reset:     Escape(color.Reset),
	}

	// NoColorTheme disables all color output.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme replaces the active theme. Tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
	color.NoColor = t.Name == NoColorTheme.Name
}

// SetTheme changes the active theme by name ("dark", "light", "none").
// Unknown names select the dark theme.
func SetTheme(name string) {
	switch name {
	case "light":
		SetCurrentTheme(LightTheme)
	case "none":
		SetCurrentTheme(NoColorTheme)
	default:
		SetCurrentTheme(DarkTheme)
	}
}

// InitTheme selects the theme from the --no-color flag and the environment.
// NO_COLOR (https://no-color.org/) and a non-terminal stdout, as detected by
// fatih/color, both disable colors.
func InitTheme(noColor bool) {
	_, noColorEnv := os.LookupEnv("NO_COLOR")
	if noColor || noColorEnv || color.NoColor {
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetCurrentTheme(DarkTheme)
}
