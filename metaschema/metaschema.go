// Package metaschema reads the definition files that describe the OSCAL
// models: assemblies, fields and flags, the model of each assembly and the
// JSON grouping of repeated members.
package metaschema

import (
	"encoding/xml"
	"strings"
)

// Namespace of metaschema definition documents.
const Namespace = "http://csrc.nist.gov/ns/oscal/metaschema/1.0"

// Unbounded is the MaxOccurs of a repeatable model item.
const Unbounded = -1

// Metaschema is a parsed definition file merged with its imports.
type Metaschema struct {
	XMLName       xml.Name `xml:"METASCHEMA"`
	SchemaName    string   `xml:"schema-name"`
	SchemaVersion string   `xml:"schema-version"`
	ShortName     string   `xml:"short-name"`
	Namespace     string   `xml:"namespace"`
	JSONBaseURI   string   `xml:"json-base-uri"`
	Remarks       Markup   `xml:"remarks"`
	Imports       []Import `xml:"import"`

	Assemblies []*Assembly `xml:"define-assembly"`
	Fields     []*Field    `xml:"define-field"`
	Flags      []*Flag     `xml:"define-flag"`

	assemblies map[string]*Assembly
	fields     map[string]*Field
	flags      map[string]*Flag
}

// Import references another definition file, relative to the importer.
type Import struct {
	Href string `xml:"href,attr"`
}

// Markup keeps the raw XHTML content of descriptive elements.
type Markup struct {
	Inner string `xml:",innerxml"`
}

// Text returns the markup with tags stripped and whitespace collapsed.
func (m Markup) Text() string {
	var sb strings.Builder
	d := xml.NewDecoder(strings.NewReader("<m>" + m.Inner + "</m>"))
	for {
		tok, err := d.Token()
		if err != nil {
			break
		}
		if cd, ok := tok.(xml.CharData); ok {
			sb.Write(cd)
		}
	}
	return strings.Join(strings.Fields(sb.String()), " ")
}

// Flag is a top-level flag definition.
type Flag struct {
	Name        string `xml:"name,attr"`
	AsType      string `xml:"as-type,attr"`
	FormalName  string `xml:"formal-name"`
	Description Markup `xml:"description"`
}

// FlagInstance is a flag as used by an assembly or field, either defined
// inline or referenced by name.
type FlagInstance struct {
	Name       string
	AsType     string
	Required   bool
	FormalName string
	// Description is plain text.
	Description string
}

// flagElement captures both <define-flag> and <flag ref=""> children in
// document order.
type flagElement struct {
	XMLName     xml.Name
	Name        string `xml:"name,attr"`
	Ref         string `xml:"ref,attr"`
	AsType      string `xml:"as-type,attr"`
	Required    string `xml:"required,attr"`
	FormalName  string `xml:"formal-name"`
	Description Markup `xml:"description"`
}

// Assembly is a definition with flags and a model of child items.
type Assembly struct {
	Name        string        `xml:"name,attr"`
	FormalName  string        `xml:"formal-name"`
	Description Markup        `xml:"description"`
	RootName    string        `xml:"root-name"`
	Model       *Model        `xml:"model"`
	Remarks     Markup        `xml:"remarks"`
	Other       []flagElement `xml:",any"`

	flags []*FlagInstance
}

// Flags returns the resolved flags in declaration order.
func (a *Assembly) Flags() []*FlagInstance { return a.flags }

// Items returns the model items, or nil for an assembly without a model.
func (a *Assembly) Items() []*ModelItem {
	if a.Model == nil {
		return nil
	}
	return a.Model.Items
}

// IsRoot reports whether the assembly can be a document root.
func (a *Assembly) IsRoot() bool { return a.RootName != "" }

// Field is a definition carrying a value and optional flags.
type Field struct {
	Name         string        `xml:"name,attr"`
	AsType       string        `xml:"as-type,attr"`
	FormalName   string        `xml:"formal-name"`
	Description  Markup        `xml:"description"`
	JSONValueKey string        `xml:"json-value-key"`
	Other        []flagElement `xml:",any"`

	flags []*FlagInstance
}

// Flags returns the resolved flags in declaration order.
func (f *Field) Flags() []*FlagInstance { return f.flags }

// ValueKey is the JSON property that holds the value of a field with flags.
func (f *Field) ValueKey() string {
	if f.JSONValueKey != "" {
		return f.JSONValueKey
	}
	return "value"
}

// Model lists the child items of an assembly.
type Model struct {
	Items []*ModelItem `xml:",any"`
}

// Kind distinguishes model items.
type Kind int

const (
	AssemblyKind Kind = iota + 1
	FieldKind
)

// ModelItem is a reference from an assembly model to a definition.
type ModelItem struct {
	XMLName   xml.Name
	Ref       string   `xml:"ref,attr"`
	MinOccurs string   `xml:"min-occurs,attr"`
	MaxOccurs string   `xml:"max-occurs,attr"`
	InXML     string   `xml:"in-xml,attr"`
	GroupAs   *GroupAs `xml:"group-as"`

	Kind Kind `xml:"-"`
	Min  int  `xml:"-"`
	// Max is Unbounded or a positive count.
	Max int `xml:"-"`

	Assembly *Assembly `xml:"-"`
	Field    *Field    `xml:"-"`
}

// GroupAs names the JSON array holding repeated items.
type GroupAs struct {
	Name string `xml:"name,attr"`
}

// Multiple reports whether the item may occur more than once.
func (m *ModelItem) Multiple() bool {
	return m.Max == Unbounded || m.Max > 1
}

// Required reports whether the item must occur.
func (m *ModelItem) Required() bool {
	return m.Min > 0
}

// Unwrapped reports whether a markup-multiline field is written without its
// own element in XML, its block elements sitting directly in the parent.
func (m *ModelItem) Unwrapped() bool {
	return m.Kind == FieldKind && m.InXML == "UNWRAPPED" && m.Field.AsType == MarkupMultiline
}

// JSONName is the property name of the item in JSON and YAML.
func (m *ModelItem) JSONName() string {
	if m.Multiple() && m.GroupAs != nil && m.GroupAs.Name != "" {
		return m.GroupAs.Name
	}
	return m.Ref
}

// Assembly returns the assembly definition called name.
func (m *Metaschema) Assembly(name string) (*Assembly, bool) {
	a, ok := m.assemblies[name]
	return a, ok
}

// Field returns the field definition called name.
func (m *Metaschema) Field(name string) (*Field, bool) {
	f, ok := m.fields[name]
	return f, ok
}

// Roots returns the assemblies that may be document roots.
func (m *Metaschema) Roots() []*Assembly {
	var roots []*Assembly
	for _, a := range m.Assemblies {
		if a.IsRoot() {
			roots = append(roots, a)
		}
	}
	return roots
}

// Root returns the assembly whose root name is name.
func (m *Metaschema) Root(name string) (*Assembly, bool) {
	for _, a := range m.Assemblies {
		if a.RootName == name {
			return a, true
		}
	}
	return nil, false
}
