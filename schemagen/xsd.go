package schemagen

import (
	"bytes"
	"io"
	"strconv"
	"strings"

	"github.com/clems4ever/oscal-cli/document"
	"github.com/clems4ever/oscal-cli/metaschema"
)

const (
	xsNamespace = "http://www.w3.org/2001/XMLSchema"

	markupLineType      = "MarkupLineDatatype"
	markupMultilineType = "MarkupMultilineDatatype"
	blockGroup          = "blockElementGroup"
	tokenType           = "TokenDatatype"
	uuidType            = "UUIDDatatype"
)

// XMLSchema writes an XML Schema for the XML form of the selected roots.
func XMLSchema(w io.Writer, ms *metaschema.Metaschema, opts Options) error {
	p, err := newPlan(ms, opts)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	buf.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	p.xmlSchema().PrettyPrint(&buf, 0)
	_, err = w.Write(buf.Bytes())
	return err
}

func xs(name string, attrs ...string) *document.Element {
	el := &document.Element{Name: "xs:" + name}
	for i := 0; i+1 < len(attrs); i += 2 {
		el.SetAttr(attrs[i], attrs[i+1])
	}
	return el
}

func add(parent *document.Element, children ...*document.Element) *document.Element {
	for _, c := range children {
		parent.Children = append(parent.Children, c)
	}
	return parent
}

func (p *plan) xmlSchema() *document.Element {
	ns := p.ms.Namespace
	schema := xs("schema", "xmlns:xs", xsNamespace)
	if ns != "" {
		schema.SetAttr("xmlns", ns)
		schema.SetAttr("targetNamespace", ns)
	}
	schema.SetAttr("elementFormDefault", "qualified")
	if p.ms.SchemaVersion != "" {
		schema.SetAttr("version", p.ms.SchemaVersion)
	}
	if p.ms.SchemaName != "" {
		add(schema, documentation(p.ms.SchemaName+": XML Schema"))
	}

	for _, r := range p.roots {
		add(schema, xs("element", "name", r.RootName, "type", typeName(r.Name)))
	}
	for _, a := range p.assemblies {
		if !p.inlineAssembly(a) {
			ct := p.assemblyType(a)
			ct.SetAttr("name", typeName(a.Name))
			add(schema, ct)
		}
	}
	for _, f := range p.fields {
		if !p.inlineField(f) {
			ct := p.fieldType(f)
			ct.SetAttr("name", typeName(p.fieldKey(f)))
			add(schema, ct)
		}
	}
	add(schema, datatypeDefinitions(ns)...)
	return schema
}

func typeName(def string) string {
	return def + "-type"
}

func documentation(text string) *document.Element {
	doc := xs("documentation")
	doc.Children = append(doc.Children, text)
	return add(xs("annotation"), doc)
}

func (p *plan) assemblyType(a *metaschema.Assembly) *document.Element {
	ct := xs("complexType")
	if a.FormalName != "" {
		text := a.FormalName
		if d := a.Description.Text(); d != "" {
			text += ": " + d
		}
		add(ct, documentation(text))
	}

	if items := a.Items(); len(items) > 0 {
		seq := xs("sequence")
		for _, item := range items {
			add(seq, p.itemParticle(item))
		}
		add(ct, seq)
	}
	for _, f := range a.Flags() {
		add(ct, attribute(f))
	}
	return ct
}

func (p *plan) itemParticle(item *metaschema.ModelItem) *document.Element {
	var el *document.Element
	switch {
	case item.Unwrapped():
		el = xs("group", "ref", blockGroup)
		el.SetAttr("minOccurs", "0")
		el.SetAttr("maxOccurs", "unbounded")
		return el
	case item.Kind == metaschema.AssemblyKind && p.inlineAssembly(item.Assembly):
		el = add(xs("element", "name", item.Ref), p.assemblyType(item.Assembly))
	case item.Kind == metaschema.AssemblyKind:
		el = xs("element", "name", item.Ref, "type", typeName(item.Assembly.Name))
	case len(item.Field.Flags()) == 0:
		el = xs("element", "name", item.Ref, "type", datatypeName(item.Field.AsType))
	case p.inlineField(item.Field):
		el = add(xs("element", "name", item.Ref), p.fieldType(item.Field))
	default:
		el = xs("element", "name", item.Ref, "type", typeName(p.fieldKey(item.Field)))
	}
	if item.Min != 1 {
		el.SetAttr("minOccurs", strconv.Itoa(item.Min))
	}
	switch {
	case item.Max == metaschema.Unbounded:
		el.SetAttr("maxOccurs", "unbounded")
	case item.Max != 1:
		el.SetAttr("maxOccurs", strconv.Itoa(item.Max))
	}
	return el
}

// fieldType is the complex type of a field with flags.
func (p *plan) fieldType(f *metaschema.Field) *document.Element {
	ct := xs("complexType")
	if f.FormalName != "" {
		add(ct, documentation(f.FormalName))
	}
	var ext *document.Element
	if metaschema.IsMarkup(f.AsType) {
		if f.AsType == metaschema.MarkupLine {
			ct.SetAttr("mixed", "true")
		}
		ext = xs("extension", "base", datatypeName(f.AsType))
		add(ct, add(xs("complexContent"), ext))
	} else {
		ext = xs("extension", "base", datatypeName(f.AsType))
		add(ct, add(xs("simpleContent"), ext))
	}
	for _, fl := range f.Flags() {
		add(ext, attribute(fl))
	}
	return ct
}

func attribute(f *metaschema.FlagInstance) *document.Element {
	attr := xs("attribute", "name", f.Name, "type", datatypeName(f.AsType))
	if f.Required {
		attr.SetAttr("use", "required")
	}
	return attr
}

func datatypeName(asType string) string {
	switch asType {
	case metaschema.Token:
		return tokenType
	case metaschema.UUID:
		return uuidType
	case metaschema.URI, metaschema.URIReference:
		return "xs:anyURI"
	case metaschema.DateTime:
		return "xs:dateTime"
	case metaschema.Date:
		return "xs:date"
	case metaschema.Integer:
		return "xs:integer"
	case metaschema.PositiveInteger:
		return "xs:positiveInteger"
	case metaschema.NonNegativeInteger:
		return "xs:nonNegativeInteger"
	case metaschema.Boolean:
		return "xs:boolean"
	case metaschema.MarkupLine:
		return markupLineType
	case metaschema.MarkupMultiline:
		return markupMultilineType
	}
	return "xs:string"
}

func unanchored(pattern string) string {
	return strings.TrimSuffix(strings.TrimPrefix(pattern, "^"), "$")
}

func restriction(name, base, pattern string) *document.Element {
	return add(xs("simpleType", "name", name),
		add(xs("restriction", "base", base), xs("pattern", "value", unanchored(pattern))))
}

// datatypeDefinitions declares the shared simple and markup types.
func datatypeDefinitions(ns string) []*document.Element {
	anyNS := "##targetNamespace"
	if ns == "" {
		anyNS = "##any"
	}

	line := xs("complexType", "name", markupLineType, "mixed", "true")
	add(line,
		add(xs("sequence"), xs("any", "namespace", anyNS, "processContents", "skip", "minOccurs", "0", "maxOccurs", "unbounded")),
		xs("anyAttribute", "processContents", "skip"),
	)

	multiline := add(xs("complexType", "name", markupMultilineType),
		xs("group", "ref", blockGroup, "minOccurs", "0", "maxOccurs", "unbounded"))

	choice := xs("choice")
	for _, name := range metaschema.BlockElements() {
		add(choice, xs("element", "name", name, "type", markupLineType))
	}
	group := add(xs("group", "name", blockGroup), choice)

	return []*document.Element{
		line,
		multiline,
		group,
		restriction(tokenType, "xs:token", metaschema.TokenPattern),
		restriction(uuidType, "xs:string", metaschema.UUIDPattern),
	}
}
