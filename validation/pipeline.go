package validation

import (
	"fmt"
	"os"

	"github.com/clems4ever/oscal-cli/document"
	"github.com/clems4ever/oscal-cli/format"
)

// ConstraintEngine evaluates semantic constraints over a loaded document.
type ConstraintEngine interface {
	Evaluate(doc *document.Document) ([]Finding, error)
}

// Pipeline runs format resolution, schema validation and constraint
// validation in that order.
type Pipeline struct {
	// Loader decodes documents for the constraint stage.
	Loader *document.Loader

	XMLSchema  SchemaValidator
	JSONSchema SchemaValidator
	// Constraints may be nil, in which case the constraint stage is skipped.
	Constraints ConstraintEngine
}

// Validate reads path and validates it. A zero declared format means the
// format is detected from the content; format.ErrUndetectable is returned
// when that fails.
func (p *Pipeline) Validate(path string, declared format.Format) (*Outcome, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return p.ValidateBytes(path, data, declared)
}

// ValidateBytes validates content already read from path.
func (p *Pipeline) ValidateBytes(path string, data []byte, declared format.Format) (*Outcome, error) {
	f := declared
	if f == 0 {
		var err error
		if f, err = format.Detect(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	var schema SchemaValidator
	switch f {
	case format.XML:
		schema = p.XMLSchema
	case format.JSON, format.YAML:
		schema = p.JSONSchema
	default:
		return nil, fmt.Errorf("%w: %s", format.ErrUnknownFormat, f)
	}
	if schema == nil {
		return nil, fmt.Errorf("%w: no %s schema validator configured", document.ErrUnsupported, f)
	}

	outcome := &Outcome{Format: f, Stage: SchemaStage}
	findings, err := schema.ValidateSchema(Input{Path: path, Format: f, Data: data})
	if err != nil {
		return nil, err
	}
	outcome.Findings = findings
	if !passes(findings) || p.Constraints == nil {
		outcome.Passed = passes(findings)
		return outcome, nil
	}

	doc, err := p.Loader.Decode(data, f, path)
	if err != nil {
		return nil, fmt.Errorf("loading %s for constraint validation: %w", path, err)
	}
	outcome.Stage = ConstraintStage
	findings, err = p.Constraints.Evaluate(doc)
	if err != nil {
		return nil, err
	}
	outcome.Findings = append(outcome.Findings, findings...)
	outcome.Passed = passes(outcome.Findings)
	return outcome, nil
}
