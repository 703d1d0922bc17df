// Package validation checks documents in two stages: a schema stage (XML
// Schema for XML, JSON Schema for JSON and YAML) and a constraint stage that
// only runs when the schema stage found nothing at ERROR or above.
package validation

import (
	"fmt"
	"strings"

	"github.com/clems4ever/oscal-cli/format"
)

// Severity of a finding. Later values are more severe.
type Severity int

const (
	Informational Severity = iota + 1
	Warning
	Error
	Critical
)

var severityNames = map[Severity]string{
	Informational: "INFORMATIONAL",
	Warning:       "WARNING",
	Error:         "ERROR",
	Critical:      "CRITICAL",
}

func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("Severity(%d)", int(s))
}

// Fails reports whether a finding of this severity fails validation.
func (s Severity) Fails() bool {
	return s >= Error
}

// ParseSeverity accepts the severity names in any case. An empty name is
// ERROR.
func ParseSeverity(name string) (Severity, error) {
	if name == "" {
		return Error, nil
	}
	for s, n := range severityNames {
		if strings.EqualFold(n, name) {
			return s, nil
		}
	}
	return 0, fmt.Errorf("unknown severity %q: must be one of CRITICAL, ERROR, WARNING or INFORMATIONAL", name)
}

// Source identifies the validator that produced a finding.
type Source int

const (
	XMLSchemaSource Source = iota + 1
	JSONSchemaSource
	ConstraintSource
)

func (s Source) String() string {
	switch s {
	case XMLSchemaSource:
		return "xml-schema"
	case JSONSchemaSource:
		return "json-schema"
	case ConstraintSource:
		return "constraint"
	}
	return fmt.Sprintf("Source(%d)", int(s))
}

// Location points into a validated file. Line and Column are 1-based and
// zero when unknown. Path is a JSON pointer for JSON Schema findings and a
// document path for constraint findings.
type Location struct {
	File   string
	Line   int
	Column int
	Path   string
}

func (l Location) String() string {
	var sb strings.Builder
	sb.WriteString(l.File)
	if l.Line > 0 {
		fmt.Fprintf(&sb, "{%d,%d}", l.Line, l.Column)
	}
	if l.Path != "" {
		sb.WriteString("#" + l.Path)
	}
	return sb.String()
}

// Finding is one validation issue.
type Finding struct {
	Source   Source
	Severity Severity
	Location Location
	Message  string
	// Constraint is the identifier of the failed constraint, if any.
	Constraint string
	Cause      error
}

// Stage is a step of the pipeline.
type Stage int

const (
	SchemaStage Stage = iota + 1
	ConstraintStage
)

func (s Stage) String() string {
	switch s {
	case SchemaStage:
		return "schema"
	case ConstraintStage:
		return "constraint"
	}
	return fmt.Sprintf("Stage(%d)", int(s))
}

// Outcome is the result of validating one file. Findings are in discovery
// order, schema findings first.
type Outcome struct {
	Format   format.Format
	Findings []Finding
	// Stage is the last stage that ran.
	Stage  Stage
	Passed bool
}

// Highest returns the most severe finding level, or zero without findings.
func (o *Outcome) Highest() Severity {
	var max Severity
	for _, f := range o.Findings {
		if f.Severity > max {
			max = f.Severity
		}
	}
	return max
}

func passes(findings []Finding) bool {
	for _, f := range findings {
		if f.Severity.Fails() {
			return false
		}
	}
	return true
}
