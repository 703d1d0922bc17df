package cli

import (
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// Level labels. Critical findings are logged at FatalLevel through
// Logger.Log, which prints without exiting.
var levelLabels = map[log.Level]struct {
	label string
	color string
}{
	log.DebugLevel: {"DEBUG", "63"},
	log.InfoLevel:  {"INFO", "86"},
	log.WarnLevel:  {"WARN", "192"},
	log.ErrorLevel: {"ERROR", "204"},
	log.FatalLevel: {"CRITICAL", "160"},
}

// NewLogger returns the logger used for one run.
func NewLogger(w io.Writer, verbosity Verbosity, color bool) *log.Logger {
	level := log.InfoLevel
	if verbosity == Quiet {
		level = log.ErrorLevel
	}
	logger := log.NewWithOptions(w, log.Options{Level: level})

	styles := log.DefaultStyles()
	for lvl, l := range levelLabels {
		styles.Levels[lvl] = lipgloss.NewStyle().
			SetString(l.label).
			Bold(true).
			Foreground(lipgloss.Color(l.color))
	}
	logger.SetStyles(styles)
	if !color {
		logger.SetColorProfile(termenv.Ascii)
	}
	return logger
}

// colorEnabled decides whether w gets ANSI styling.
func colorEnabled(w io.Writer, noColor bool, getenv func(string) string) bool {
	if noColor || getenv("NO_COLOR") != "" {
		return false
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
