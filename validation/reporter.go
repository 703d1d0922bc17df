package validation

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

// severityStyles label each finding with its severity name rather than the
// name of the log level it is printed at.
var severityStyles = map[Severity]struct {
	label string
	color string
}{
	Critical:      {"CRITICAL", "160"},
	Error:         {"ERROR", "204"},
	Warning:       {"WARNING", "192"},
	Informational: {"INFORMATIONAL", "86"},
}

// Reporter logs findings, one line each, at a level matching their
// severity. CRITICAL uses log.FatalLevel without exiting.
type Reporter struct {
	Logger *log.Logger
	// ShowCause adds the underlying error to findings that carry one.
	ShowCause bool
}

// Report logs every finding in order.
func (r *Reporter) Report(findings []Finding) {
	logger := r.Logger.With()
	styles := log.DefaultStyles()
	for s, st := range severityStyles {
		styles.Levels[Level(s)] = lipgloss.NewStyle().
			SetString(st.label).
			Bold(true).
			Foreground(lipgloss.Color(st.color))
	}
	logger.SetStyles(styles)

	for _, f := range findings {
		var keyvals []any
		if f.Constraint != "" {
			keyvals = append(keyvals, "constraint", f.Constraint)
		}
		if r.ShowCause && f.Cause != nil {
			keyvals = append(keyvals, "cause", f.Cause)
		}
		logger.Log(Level(f.Severity), Message(f), keyvals...)
	}
}

// Level maps a severity onto a log level.
func Level(s Severity) log.Level {
	switch s {
	case Critical:
		return log.FatalLevel
	case Error:
		return log.ErrorLevel
	case Warning:
		return log.WarnLevel
	case Informational:
		return log.InfoLevel
	}
	panic(fmt.Sprintf("unknown severity %d", int(s)))
}

// Message renders a finding the way its source reports locations.
func Message(f Finding) string {
	switch f.Source {
	case XMLSchemaSource:
		return fmt.Sprintf("%s [%s]", f.Message, f.Location.withoutPath())
	case JSONSchemaSource:
		return fmt.Sprintf("[%s] %s [%s]", f.Location.Path, f.Message, f.Location.File)
	case ConstraintSource:
		return fmt.Sprintf("[%s] %s", f.Location.Path, f.Message)
	}
	panic(fmt.Sprintf("unknown finding source %d", int(f.Source)))
}

func (l Location) withoutPath() string {
	l.Path = ""
	return l.String()
}
