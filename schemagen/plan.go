// Package schemagen derives XML Schema and JSON Schema documents from a
// metaschema.
package schemagen

import (
	"errors"
	"fmt"
	"io"

	"github.com/clems4ever/oscal-cli/format"
	"github.com/clems4ever/oscal-cli/metaschema"
)

// ErrNoRoot is returned for definition files without a root assembly.
var ErrNoRoot = errors.New("no root assembly")

// Options tune generation.
type Options struct {
	// InlineTypes writes definitions that are used once, and are not
	// recursive, in place instead of as named types.
	InlineTypes bool
	// Roots restricts the schema to the named root assemblies. Empty means
	// every root.
	Roots []string
}

// Generate writes the schema for f: XSD for XML, JSON Schema for JSON.
func Generate(w io.Writer, ms *metaschema.Metaschema, f format.Format, opts Options) error {
	switch f {
	case format.XML:
		return XMLSchema(w, ms, opts)
	case format.JSON:
		return JSONSchema(w, ms, opts)
	}
	return fmt.Errorf("%w: no schema language for %s", format.ErrUnknownFormat, f)
}

// plan is the set of definitions reachable from the selected roots.
type plan struct {
	ms         *metaschema.Metaschema
	roots      []*metaschema.Assembly
	assemblies []*metaschema.Assembly
	fields     []*metaschema.Field
	refs       map[any]int
	recursive  map[*metaschema.Assembly]bool
	inline     bool
}

func newPlan(ms *metaschema.Metaschema, opts Options) (*plan, error) {
	p := &plan{
		ms:        ms,
		refs:      make(map[any]int),
		recursive: make(map[*metaschema.Assembly]bool),
		inline:    opts.InlineTypes,
	}

	if len(opts.Roots) == 0 {
		p.roots = ms.Roots()
	} else {
		for _, name := range opts.Roots {
			root, ok := ms.Root(name)
			if !ok {
				return nil, fmt.Errorf("%w named %q in %s", ErrNoRoot, name, ms.ShortName)
			}
			p.roots = append(p.roots, root)
		}
	}
	if len(p.roots) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoRoot, ms.ShortName)
	}

	reachable := make(map[any]bool)
	var walk func(a *metaschema.Assembly)
	walk = func(a *metaschema.Assembly) {
		if reachable[a] {
			return
		}
		reachable[a] = true
		for _, item := range a.Items() {
			if item.Kind == metaschema.AssemblyKind {
				p.refs[item.Assembly]++
				walk(item.Assembly)
			} else {
				p.refs[item.Field]++
				reachable[item.Field] = true
			}
		}
	}
	for _, r := range p.roots {
		p.refs[r]++
		walk(r)
	}

	for _, a := range ms.Assemblies {
		if reachable[a] {
			p.assemblies = append(p.assemblies, a)
			p.recursive[a] = reaches(a, a, make(map[*metaschema.Assembly]bool))
		}
	}
	for _, f := range ms.Fields {
		if reachable[f] {
			p.fields = append(p.fields, f)
		}
	}
	return p, nil
}

// reaches reports whether target is reachable from the children of a.
func reaches(a, target *metaschema.Assembly, seen map[*metaschema.Assembly]bool) bool {
	for _, item := range a.Items() {
		if item.Kind != metaschema.AssemblyKind {
			continue
		}
		if item.Assembly == target {
			return true
		}
		if seen[item.Assembly] {
			continue
		}
		seen[item.Assembly] = true
		if reaches(item.Assembly, target, seen) {
			return true
		}
	}
	return false
}

// inlineAssembly reports whether a is written in place.
func (p *plan) inlineAssembly(a *metaschema.Assembly) bool {
	return p.inline && !a.IsRoot() && p.refs[a] == 1 && !p.recursive[a]
}

// inlineField reports whether f is written in place. Fields without flags
// are always written in place.
func (p *plan) inlineField(f *metaschema.Field) bool {
	return len(f.Flags()) == 0 || (p.inline && p.refs[f] == 1)
}

// fieldKey names the definition of f, avoiding clashes with assemblies.
func (p *plan) fieldKey(f *metaschema.Field) string {
	if _, clash := p.ms.Assembly(f.Name); clash {
		return f.Name + "-field"
	}
	return f.Name
}
