// Package model bundles the resources of every document model the tool
// understands: the XML binding, the XML and JSON schemas and the built-in
// constraints.
package model

import (
	"bytes"
	"embed"
	"fmt"
	"sync"

	"github.com/clems4ever/oscal-cli/constraint"
	"github.com/clems4ever/oscal-cli/document"
	"github.com/clems4ever/oscal-cli/format"
	"github.com/clems4ever/oscal-cli/metaschema"
	"github.com/clems4ever/oscal-cli/schemagen"
	"github.com/clems4ever/oscal-cli/validation"
)

//go:embed definitions/*.xml schemas/*.xsd constraints/*.hcl
var resources embed.FS

const metaschemaNamespace = "http://csrc.nist.gov/ns/oscal/metaschema/1.0"

// Model is one document model.
type Model struct {
	// Name is the command name, e.g. "ssp".
	Name    string
	Binding *document.Binding
	// Metaschema is nil for models without a definition.
	Metaschema *metaschema.Metaschema

	XMLSchema []byte
	// JSONSchema is nil for models that only exist as XML.
	JSONSchema  []byte
	Constraints *constraint.Set
}

// Root is the root name of the model's documents.
func (m *Model) Root() string {
	return m.Binding.Model
}

// Formats returns the formats the model can be read and written in.
func (m *Model) Formats() []format.Format {
	return m.Binding.Formats()
}

// Pipeline builds a validation pipeline for the model. extra constraint
// sets run after the built-in ones. The returned function releases the
// schema validators.
func (m *Model) Pipeline(loader *document.Loader, extra ...*constraint.Set) (*validation.Pipeline, func(), error) {
	xmlValidator, err := validation.NewXMLSchemaValidator(m.XMLSchema)
	if err != nil {
		return nil, nil, fmt.Errorf("%s XML schema: %w", m.Name, err)
	}
	p := &validation.Pipeline{
		Loader:    loader,
		XMLSchema: xmlValidator,
	}
	if m.JSONSchema != nil {
		jsonValidator, err := validation.NewJSONSchemaValidator(m.JSONSchema)
		if err != nil {
			xmlValidator.Close()
			return nil, nil, fmt.Errorf("%s JSON schema: %w", m.Name, err)
		}
		p.JSONSchema = jsonValidator
	}

	var sets []*constraint.Set
	if m.Constraints != nil {
		sets = append(sets, m.Constraints)
	}
	sets = append(sets, extra...)
	if len(sets) > 0 {
		p.Constraints = constraint.NewEngine(sets...)
	}
	return p, xmlValidator.Close, nil
}

// Registry holds every model and the binding context built from them.
type Registry struct {
	models []*Model
	ctx    *document.Context
}

// Default returns the registry built from the embedded resources. It is
// built on first use and shared afterwards.
var Default = sync.OnceValues(Load)

// Load builds a registry from the embedded resources.
func Load() (*Registry, error) {
	var models []*Model
	for _, d := range []struct {
		name, file, root string
	}{
		{"catalog", "oscal_catalog_metaschema.xml", "catalog"},
		{"profile", "oscal_profile_metaschema.xml", "profile"},
		{"ssp", "oscal_ssp_metaschema.xml", "system-security-plan"},
	} {
		m, err := loadDefined(d.name, d.file, d.root)
		if err != nil {
			return nil, err
		}
		models = append(models, m)
	}

	m, err := loadMetaschema()
	if err != nil {
		return nil, err
	}
	models = append(models, m)
	return NewRegistry(models...), nil
}

// NewRegistry returns a registry of models.
func NewRegistry(models ...*Model) *Registry {
	var bindings []*document.Binding
	for _, m := range models {
		bindings = append(bindings, m.Binding)
	}
	return &Registry{models: models, ctx: document.NewContext(bindings...)}
}

// Models returns the models in registration order.
func (r *Registry) Models() []*Model {
	return r.models
}

// Model returns the model called name.
func (r *Registry) Model(name string) (*Model, bool) {
	for _, m := range r.models {
		if m.Name == name {
			return m, true
		}
	}
	return nil, false
}

// Context returns the binding context of every model.
func (r *Registry) Context() *document.Context {
	return r.ctx
}

func loadDefined(name, file, root string) (*Model, error) {
	ms, err := metaschema.ParseFS(resources, "definitions/"+file)
	if err != nil {
		return nil, fmt.Errorf("loading the %s definition: %w", name, err)
	}
	b, err := document.NewBinding(ms, root)
	if err != nil {
		return nil, err
	}
	opts := schemagen.Options{Roots: []string{root}}

	var xsd, jsonSchema bytes.Buffer
	if err := schemagen.XMLSchema(&xsd, ms, opts); err != nil {
		return nil, fmt.Errorf("generating the %s XML schema: %w", name, err)
	}
	if err := schemagen.JSONSchema(&jsonSchema, ms, opts); err != nil {
		return nil, fmt.Errorf("generating the %s JSON schema: %w", name, err)
	}

	set, err := constraint.LoadFS(resources, "constraints/"+name+".hcl")
	if err != nil {
		return nil, fmt.Errorf("loading the %s constraints: %w", name, err)
	}
	return &Model{
		Name:        name,
		Binding:     b,
		Metaschema:  ms,
		XMLSchema:   xsd.Bytes(),
		JSONSchema:  jsonSchema.Bytes(),
		Constraints: set,
	}, nil
}

// loadMetaschema describes metaschema definition files themselves. They
// have no definition of their own, so they are read with a generic binding
// and only exist as XML.
func loadMetaschema() (*Model, error) {
	xsd, err := resources.ReadFile("schemas/metaschema.xsd")
	if err != nil {
		return nil, err
	}
	set, err := constraint.LoadFS(resources, "constraints/metaschema.hcl")
	if err != nil {
		return nil, fmt.Errorf("loading the metaschema constraints: %w", err)
	}
	return &Model{
		Name:        "metaschema",
		Binding:     document.NewGenericBinding("METASCHEMA", metaschemaNamespace),
		XMLSchema:   xsd,
		Constraints: set,
	}, nil
}
