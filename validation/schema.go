package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/lestrrat-go/libxml2"
	"github.com/lestrrat-go/libxml2/xsd"
	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/clems4ever/oscal-cli/document"
	"github.com/clems4ever/oscal-cli/format"
)

//go:generate mockgen -destination=mock_validation_test.go -package=validation . SchemaValidator,ConstraintEngine

// Input is the raw content handed to a schema validator.
type Input struct {
	Path   string
	Format format.Format
	Data   []byte
}

// SchemaValidator checks raw content against a schema. Content problems are
// returned as findings; the error is for failures of the validator itself.
type SchemaValidator interface {
	ValidateSchema(in Input) ([]Finding, error)
}

// XMLSchemaValidator validates XML against one or more XML Schemas.
type XMLSchemaValidator struct {
	schemas []*xsd.Schema
}

// NewXMLSchemaValidator compiles the given XSD documents. Close releases them.
func NewXMLSchemaValidator(sources ...[]byte) (*XMLSchemaValidator, error) {
	v := &XMLSchemaValidator{}
	for i, src := range sources {
		s, err := xsd.Parse(src)
		if err != nil {
			v.Close()
			return nil, fmt.Errorf("compiling XML schema %d: %w", i+1, err)
		}
		v.schemas = append(v.schemas, s)
	}
	return v, nil
}

// Close frees the compiled schemas.
func (v *XMLSchemaValidator) Close() {
	for _, s := range v.schemas {
		s.Free()
	}
	v.schemas = nil
}

func (v *XMLSchemaValidator) ValidateSchema(in Input) ([]Finding, error) {
	doc, err := libxml2.Parse(in.Data)
	if err != nil {
		return []Finding{{
			Source:   XMLSchemaSource,
			Severity: Error,
			Location: Location{File: in.Path},
			Message:  "the document is not well-formed XML",
			Cause:    err,
		}}, nil
	}
	defer doc.Free()

	var findings []Finding
	for _, s := range v.schemas {
		err := s.Validate(doc)
		if err == nil {
			continue
		}
		var verr xsd.SchemaValidationError
		if !errors.As(err, &verr) {
			return nil, fmt.Errorf("validating %s: %w", in.Path, err)
		}
		for _, e := range verr.Errors() {
			findings = append(findings, Finding{
				Source:   XMLSchemaSource,
				Severity: Error,
				Location: Location{File: in.Path},
				Message:  e.Error(),
			})
		}
	}
	return findings, nil
}

// JSONSchemaValidator validates JSON, and YAML converted to JSON, against a
// JSON Schema.
type JSONSchemaValidator struct {
	schema *jsonschema.Schema
}

// defaultSchemaURL names schemas that carry no $id.
const defaultSchemaURL = "urn:oscal-cli:schema.json"

// NewJSONSchemaValidator compiles a JSON Schema document.
func NewJSONSchemaValidator(schema []byte) (*JSONSchemaValidator, error) {
	var header struct {
		ID string `json:"$id"`
	}
	if err := json.Unmarshal(schema, &header); err != nil {
		return nil, fmt.Errorf("reading JSON schema: %w", err)
	}
	url := header.ID
	if url == "" {
		url = defaultSchemaURL
	}

	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	if err := c.AddResource(url, bytes.NewReader(schema)); err != nil {
		return nil, fmt.Errorf("reading JSON schema: %w", err)
	}
	s, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compiling JSON schema: %w", err)
	}
	return &JSONSchemaValidator{schema: s}, nil
}

func (v *JSONSchemaValidator) ValidateSchema(in Input) ([]Finding, error) {
	instance, err := jsonInstance(in)
	if err != nil {
		return []Finding{{
			Source:   JSONSchemaSource,
			Severity: Error,
			Location: Location{File: in.Path},
			Message:  fmt.Sprintf("the document is not well-formed %s", in.Format),
			Cause:    err,
		}}, nil
	}

	err = v.schema.Validate(instance)
	if err == nil {
		return nil, nil
	}
	var verr *jsonschema.ValidationError
	if !errors.As(err, &verr) {
		return nil, fmt.Errorf("validating %s: %w", in.Path, err)
	}

	var findings []Finding
	var walk func(e *jsonschema.ValidationError)
	walk = func(e *jsonschema.ValidationError) {
		if len(e.Causes) == 0 {
			findings = append(findings, Finding{
				Source:   JSONSchemaSource,
				Severity: Error,
				Location: Location{File: in.Path, Path: pointer(e.InstanceLocation)},
				Message:  e.Message,
			})
			return
		}
		for _, c := range e.Causes {
			walk(c)
		}
	}
	walk(verr)
	return findings, nil
}

// jsonInstance decodes the input into the plain values the JSON Schema
// library expects. YAML goes through the document tree so that scalars are
// resolved the same way as when loading.
func jsonInstance(in Input) (any, error) {
	data := in.Data
	if in.Format == format.YAML {
		tree, err := document.ParseYAML(in.Data)
		if err != nil {
			return nil, err
		}
		if data, err = document.MarshalJSON(tree); err != nil {
			return nil, err
		}
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after the top-level value")
	}
	return v, nil
}

func pointer(loc string) string {
	if loc == "" {
		return "/"
	}
	return loc
}
