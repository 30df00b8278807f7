package output

import (
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// ConfigureColor sets the global lipgloss color profile for output written
// to f. Color is disabled by noColor, by $NO_COLOR, or when f is not a
// terminal.
func ConfigureColor(f *os.File, noColor bool) {
	lipgloss.SetColorProfile(ColorProfile(f, noColor))
}

// ColorProfile returns the termenv profile to use for f.
func ColorProfile(f *os.File, noColor bool) termenv.Profile {
	if noColor || os.Getenv("NO_COLOR") != "" || f == nil || !term.IsTerminal(int(f.Fd())) {
		return termenv.Ascii
	}
	return termenv.NewOutput(f).EnvColorProfile()
}
