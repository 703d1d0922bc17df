// Package document loads and writes OSCAL documents in XML, JSON and YAML.
//
// Every document is held as a JSON-shaped node tree (see Object). JSON and
// YAML map onto the tree directly; XML goes through the per-model Binding
// registered in a Context.
package document

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/clems4ever/oscal-cli/format"
)

var (
	// ErrUnknownModel is returned when the root of a document names no
	// registered model.
	ErrUnknownModel = errors.New("unknown model")
	// ErrUnsupported is returned when a model cannot be read or written in
	// the requested format.
	ErrUnsupported = errors.New("unsupported")
)

// Document is a loaded model instance.
type Document struct {
	// Path is the file the document was read from, if any.
	Path   string
	Format format.Format
	// Model is the root name, e.g. "catalog".
	Model string
	// Root is the content of the root object.
	Root any
}

// Tree returns the JSON view of the document: an object whose single member
// is the model root.
func (d *Document) Tree() *Object {
	tree := NewObject()
	tree.Set(d.Model, d.Root)
	return tree
}

// RootObject returns Root when it is an object.
func (d *Document) RootObject() (*Object, bool) {
	obj, ok := d.Root.(*Object)
	return obj, ok
}

// Context holds the bindings of every known model. It is built once per
// process and shared, read-only, by every command.
type Context struct {
	bindings map[string]*Binding
}

// NewContext registers bindings by model name.
func NewContext(bindings ...*Binding) *Context {
	c := &Context{bindings: make(map[string]*Binding)}
	for _, b := range bindings {
		c.bindings[b.Model] = b
	}
	return c
}

// Binding returns the binding of model.
func (c *Context) Binding(model string) (*Binding, bool) {
	b, ok := c.bindings[model]
	return b, ok
}

// NewLoader returns a loader reading documents of the registered models.
func (c *Context) NewLoader() *Loader {
	return &Loader{ctx: c}
}

// NewSerializer returns a serializer for the registered models.
func (c *Context) NewSerializer() *Serializer {
	return &Serializer{ctx: c}
}

// Loader reads documents.
type Loader struct {
	ctx *Context
}

// Load reads the file at path. A zero declared format means the format is
// detected from the content.
func (l *Loader) Load(path string, declared format.Format) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return l.Decode(data, declared, path)
}

// Decode parses data. path is recorded on the document and used in errors.
func (l *Loader) Decode(data []byte, f format.Format, path string) (*Document, error) {
	if f == 0 {
		var err error
		if f, err = format.Detect(data); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
	}

	doc := &Document{Path: path, Format: f}
	switch f {
	case format.XML:
		root, err := ParseElement(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("parsing %s as XML: %w", path, err)
		}
		b, ok := l.ctx.Binding(root.Name)
		if !ok {
			return nil, fmt.Errorf("%s: %w %q", path, ErrUnknownModel, root.Name)
		}
		content, err := b.Unmarshal(root)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		doc.Model, doc.Root = b.Model, content
	case format.JSON, format.YAML:
		parse := ParseJSON
		if f == format.YAML {
			parse = ParseYAML
		}
		tree, err := parse(data)
		if err != nil {
			return nil, fmt.Errorf("parsing %s as %s: %w", path, f, err)
		}
		model, content, err := l.unwrap(tree)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		b, _ := l.ctx.Binding(model)
		if !b.Supports(f) {
			return nil, fmt.Errorf("%s: %w: the %s model cannot be read as %s", path, ErrUnsupported, model, f)
		}
		doc.Model, doc.Root = model, content
	default:
		return nil, fmt.Errorf("%s: %w", path, format.ErrUnknownFormat)
	}
	return doc, nil
}

// unwrap finds the model member of a JSON-shaped tree. Members whose name
// starts with "$", such as "$schema", are ignored.
func (l *Loader) unwrap(tree any) (string, any, error) {
	obj, ok := tree.(*Object)
	if !ok {
		return "", nil, fmt.Errorf("%w: the document is %s, not an object", ErrUnknownModel, kindOf(tree))
	}
	var candidates []string
	for _, k := range obj.Keys() {
		if !strings.HasPrefix(k, "$") {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) != 1 {
		return "", nil, fmt.Errorf("%w: expected exactly one root member, found %d", ErrUnknownModel, len(candidates))
	}
	model := candidates[0]
	if _, ok := l.ctx.Binding(model); !ok {
		return "", nil, fmt.Errorf("%w %q", ErrUnknownModel, model)
	}
	content, _ := obj.Get(model)
	return model, content, nil
}

// Serializer writes documents.
type Serializer struct {
	ctx *Context
}

const xmlHeader = `<?xml version="1.0" encoding="UTF-8"?>` + "\n"

// Write encodes doc to w in format f.
func (s *Serializer) Write(w io.Writer, doc *Document, f format.Format) error {
	switch f {
	case format.JSON:
		return WriteJSON(w, doc.Tree())
	case format.YAML:
		return WriteYAML(w, doc.Tree())
	case format.XML:
		b, ok := s.ctx.Binding(doc.Model)
		if !ok {
			return fmt.Errorf("%w %q", ErrUnknownModel, doc.Model)
		}
		el, err := b.Marshal(doc.Root)
		if err != nil {
			return err
		}
		var buf bytes.Buffer
		buf.WriteString(xmlHeader)
		el.PrettyPrint(&buf, 0)
		_, err = w.Write(buf.Bytes())
		return err
	}
	return fmt.Errorf("%w: %v", format.ErrUnknownFormat, f)
}
