package schemagen

import (
	"encoding/json"
	"io"
	"strconv"
	"strings"

	"github.com/clems4ever/oscal-cli/document"
	"github.com/clems4ever/oscal-cli/metaschema"
)

// DraftURI is the JSON Schema dialect of generated schemas.
const DraftURI = "http://json-schema.org/draft-07/schema#"

// JSONSchema writes a draft-07 JSON Schema for the JSON and YAML form of the
// selected roots.
func JSONSchema(w io.Writer, ms *metaschema.Metaschema, opts Options) error {
	p, err := newPlan(ms, opts)
	if err != nil {
		return err
	}
	return document.WriteJSON(w, p.jsonSchema())
}

func (p *plan) jsonSchema() *document.Object {
	s := document.NewObject()
	s.Set("$schema", DraftURI)
	if p.ms.JSONBaseURI != "" {
		s.Set("$id", strings.TrimSuffix(p.ms.JSONBaseURI, "/")+"/"+p.ms.ShortName+"-schema.json")
	}
	if p.ms.SchemaName != "" {
		comment := p.ms.SchemaName + ": JSON Schema"
		if p.ms.SchemaVersion != "" {
			comment += " (version " + p.ms.SchemaVersion + ")"
		}
		s.Set("$comment", comment)
	}
	s.Set("type", "object")

	defs := document.NewObject()
	for _, a := range p.assemblies {
		if !p.inlineAssembly(a) {
			defs.Set(a.Name, p.assemblySchema(a))
		}
	}
	for _, f := range p.fields {
		if !p.inlineField(f) {
			defs.Set(p.fieldKey(f), p.fieldSchema(f))
		}
	}
	s.Set("definitions", defs)

	props := document.NewObject()
	props.Set("$schema", object("type", "string", "format", "uri-reference"))
	var required []any
	for _, r := range p.roots {
		props.Set(r.RootName, ref(r.Name))
		required = append(required, object("required", []any{r.RootName}))
	}
	s.Set("properties", props)
	if len(required) == 1 {
		s.Set("required", []any{p.roots[0].RootName})
	} else {
		s.Set("oneOf", required)
	}
	s.Set("additionalProperties", false)
	return s
}

func (p *plan) assemblySchema(a *metaschema.Assembly) *document.Object {
	s := describe(a.FormalName, a.Description)
	s.Set("type", "object")

	props := document.NewObject()
	var required []any
	for _, f := range a.Flags() {
		props.Set(f.Name, flagSchema(f))
		if f.Required {
			required = append(required, f.Name)
		}
	}
	for _, item := range a.Items() {
		props.Set(item.JSONName(), p.itemSchema(item))
		if item.Required() {
			required = append(required, item.JSONName())
		}
	}
	if props.Len() > 0 {
		s.Set("properties", props)
	}
	if len(required) > 0 {
		s.Set("required", required)
	}
	s.Set("additionalProperties", false)
	return s
}

func (p *plan) itemSchema(item *metaschema.ModelItem) *document.Object {
	var single *document.Object
	switch {
	case item.Unwrapped():
		single = describe(item.Field.FormalName, item.Field.Description)
		setDatatype(single, item.Field.AsType)
	case item.Kind == metaschema.AssemblyKind && p.inlineAssembly(item.Assembly):
		single = p.assemblySchema(item.Assembly)
	case item.Kind == metaschema.AssemblyKind:
		single = ref(item.Assembly.Name)
	case p.inlineField(item.Field):
		single = p.fieldSchema(item.Field)
	default:
		single = ref(p.fieldKey(item.Field))
	}
	if !item.Multiple() {
		return single
	}

	arr := document.NewObject()
	arr.Set("type", "array")
	minItems := item.Min
	if minItems < 1 {
		minItems = 1
	}
	arr.Set("minItems", number(minItems))
	if item.Max != metaschema.Unbounded {
		arr.Set("maxItems", number(item.Max))
	}
	arr.Set("items", single)
	return arr
}

func (p *plan) fieldSchema(f *metaschema.Field) *document.Object {
	s := describe(f.FormalName, f.Description)
	if len(f.Flags()) == 0 {
		setDatatype(s, f.AsType)
		return s
	}

	s.Set("type", "object")
	props := document.NewObject()
	var required []any
	for _, fl := range f.Flags() {
		props.Set(fl.Name, flagSchema(fl))
		if fl.Required {
			required = append(required, fl.Name)
		}
	}
	value := document.NewObject()
	setDatatype(value, f.AsType)
	props.Set(f.ValueKey(), value)
	s.Set("properties", props)
	if len(required) > 0 {
		s.Set("required", required)
	}
	s.Set("additionalProperties", false)
	return s
}

func flagSchema(f *metaschema.FlagInstance) *document.Object {
	s := document.NewObject()
	if f.FormalName != "" {
		s.Set("title", f.FormalName)
	}
	if f.Description != "" {
		s.Set("description", f.Description)
	}
	setDatatype(s, f.AsType)
	return s
}

func setDatatype(s *document.Object, asType string) {
	switch asType {
	case metaschema.Token:
		s.Set("type", "string")
		s.Set("pattern", metaschema.TokenPattern)
	case metaschema.UUID:
		s.Set("type", "string")
		s.Set("pattern", metaschema.UUIDPattern)
	case metaschema.URI:
		s.Set("type", "string")
		s.Set("format", "uri")
	case metaschema.URIReference:
		s.Set("type", "string")
		s.Set("format", "uri-reference")
	case metaschema.DateTime:
		s.Set("type", "string")
		s.Set("format", "date-time")
	case metaschema.Date:
		s.Set("type", "string")
		s.Set("format", "date")
	case metaschema.Integer:
		s.Set("type", "integer")
	case metaschema.PositiveInteger:
		s.Set("type", "integer")
		s.Set("minimum", number(1))
	case metaschema.NonNegativeInteger:
		s.Set("type", "integer")
		s.Set("minimum", number(0))
	case metaschema.Boolean:
		s.Set("type", "boolean")
	default:
		s.Set("type", "string")
	}
}

func describe(formalName string, description metaschema.Markup) *document.Object {
	s := document.NewObject()
	if formalName != "" {
		s.Set("title", formalName)
	}
	if text := description.Text(); text != "" {
		s.Set("description", text)
	}
	return s
}

func ref(name string) *document.Object {
	return object("$ref", "#/definitions/"+name)
}

func object(kv ...any) *document.Object {
	o := document.NewObject()
	for i := 0; i+1 < len(kv); i += 2 {
		o.Set(kv[i].(string), kv[i+1])
	}
	return o
}

func number(n int) json.Number {
	return json.Number(strconv.Itoa(n))
}
