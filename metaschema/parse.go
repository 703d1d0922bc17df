package metaschema

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strconv"
)

// ErrInvalid marks definition files that cannot be indexed: unknown
// references, duplicate names, unsupported types.
var ErrInvalid = errors.New("invalid metaschema")

// Parse reads a single definition document. Imports are not followed.
func Parse(r io.Reader) (*Metaschema, error) {
	m, err := decode(r)
	if err != nil {
		return nil, err
	}
	if err := m.index(); err != nil {
		return nil, err
	}
	return m, nil
}

// ParseFile reads the definition file at name and every file it imports.
func ParseFile(name string) (*Metaschema, error) {
	abs, err := filepath.Abs(name)
	if err != nil {
		return nil, err
	}
	return ParseFS(os.DirFS(filepath.Dir(abs)), filepath.Base(abs))
}

// ParseFS reads name from fsys and follows imports within fsys. Definitions
// of imported files are appended after those of the importer.
func ParseFS(fsys fs.FS, name string) (*Metaschema, error) {
	visited := make(map[string]bool)
	m, err := load(fsys, path.Clean(name), visited)
	if err != nil {
		return nil, err
	}
	if err := m.index(); err != nil {
		return nil, err
	}
	return m, nil
}

func load(fsys fs.FS, name string, visited map[string]bool) (*Metaschema, error) {
	if visited[name] {
		return nil, nil
	}
	visited[name] = true

	f, err := fsys.Open(name)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	for _, imp := range m.Imports {
		target := path.Join(path.Dir(name), imp.Href)
		imported, err := load(fsys, target, visited)
		if err != nil {
			return nil, fmt.Errorf("importing %s from %s: %w", imp.Href, name, err)
		}
		if imported == nil {
			continue
		}
		m.Assemblies = append(m.Assemblies, imported.Assemblies...)
		m.Fields = append(m.Fields, imported.Fields...)
		m.Flags = append(m.Flags, imported.Flags...)
	}
	return m, nil
}

func decode(r io.Reader) (*Metaschema, error) {
	var m Metaschema
	if err := xml.NewDecoder(r).Decode(&m); err != nil {
		return nil, err
	}
	if m.XMLName.Space != "" && m.XMLName.Space != Namespace {
		return nil, fmt.Errorf("%w: unexpected namespace %q", ErrInvalid, m.XMLName.Space)
	}
	return &m, nil
}

// index builds the lookup tables and resolves every reference.
func (m *Metaschema) index() error {
	m.assemblies = make(map[string]*Assembly)
	m.fields = make(map[string]*Field)
	m.flags = make(map[string]*Flag)

	for _, f := range m.Flags {
		if _, dup := m.flags[f.Name]; dup {
			return fmt.Errorf("%w: flag %q defined twice", ErrInvalid, f.Name)
		}
		if f.AsType == "" {
			f.AsType = String
		}
		if !KnownType(f.AsType) || IsMarkup(f.AsType) {
			return fmt.Errorf("%w: flag %q has unsupported type %q", ErrInvalid, f.Name, f.AsType)
		}
		m.flags[f.Name] = f
	}
	for _, f := range m.Fields {
		if _, dup := m.fields[f.Name]; dup {
			return fmt.Errorf("%w: field %q defined twice", ErrInvalid, f.Name)
		}
		if f.AsType == "" {
			f.AsType = String
		}
		if !KnownType(f.AsType) {
			return fmt.Errorf("%w: field %q has unsupported type %q", ErrInvalid, f.Name, f.AsType)
		}
		m.fields[f.Name] = f
	}
	for _, a := range m.Assemblies {
		if _, dup := m.assemblies[a.Name]; dup {
			return fmt.Errorf("%w: assembly %q defined twice", ErrInvalid, a.Name)
		}
		m.assemblies[a.Name] = a
	}

	for _, f := range m.Fields {
		flags, err := m.resolveFlags("field "+f.Name, f.Other)
		if err != nil {
			return err
		}
		f.flags = flags
	}
	for _, a := range m.Assemblies {
		flags, err := m.resolveFlags("assembly "+a.Name, a.Other)
		if err != nil {
			return err
		}
		a.flags = flags
		if err := m.resolveModel(a); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metaschema) resolveFlags(owner string, elems []flagElement) ([]*FlagInstance, error) {
	var out []*FlagInstance
	seen := make(map[string]bool)
	for _, e := range elems {
		var inst *FlagInstance
		switch e.XMLName.Local {
		case "define-flag":
			asType := e.AsType
			if asType == "" {
				asType = String
			}
			if !KnownType(asType) || IsMarkup(asType) {
				return nil, fmt.Errorf("%w: %s: flag %q has unsupported type %q", ErrInvalid, owner, e.Name, asType)
			}
			inst = &FlagInstance{Name: e.Name, AsType: asType, FormalName: e.FormalName, Description: e.Description.Text()}
		case "flag":
			def, ok := m.flags[e.Ref]
			if !ok {
				return nil, fmt.Errorf("%w: %s: unknown flag %q", ErrInvalid, owner, e.Ref)
			}
			inst = &FlagInstance{Name: def.Name, AsType: def.AsType, FormalName: def.FormalName, Description: def.Description.Text()}
		default:
			continue
		}
		if seen[inst.Name] {
			return nil, fmt.Errorf("%w: %s: flag %q declared twice", ErrInvalid, owner, inst.Name)
		}
		seen[inst.Name] = true
		inst.Required = e.Required == "yes"
		out = append(out, inst)
	}
	return out, nil
}

func (m *Metaschema) resolveModel(a *Assembly) error {
	seen := make(map[string]bool)
	for _, item := range a.Items() {
		owner := fmt.Sprintf("assembly %s: %s %q", a.Name, item.XMLName.Local, item.Ref)
		switch item.XMLName.Local {
		case "assembly":
			def, ok := m.assemblies[item.Ref]
			if !ok {
				return fmt.Errorf("%w: %s: unknown assembly", ErrInvalid, owner)
			}
			item.Kind, item.Assembly = AssemblyKind, def
		case "field":
			def, ok := m.fields[item.Ref]
			if !ok {
				return fmt.Errorf("%w: %s: unknown field", ErrInvalid, owner)
			}
			item.Kind, item.Field = FieldKind, def
		default:
			return fmt.Errorf("%w: assembly %s: unsupported model element %q", ErrInvalid, a.Name, item.XMLName.Local)
		}

		var err error
		if item.Min, err = parseOccurs(item.MinOccurs, 0); err != nil {
			return fmt.Errorf("%w: %s: min-occurs: %v", ErrInvalid, owner, err)
		}
		if item.MaxOccurs == "unbounded" {
			item.Max = Unbounded
		} else if item.Max, err = parseOccurs(item.MaxOccurs, 1); err != nil || item.Max < 1 {
			return fmt.Errorf("%w: %s: invalid max-occurs %q", ErrInvalid, owner, item.MaxOccurs)
		}
		if item.Max != Unbounded && item.Min > item.Max {
			return fmt.Errorf("%w: %s: min-occurs exceeds max-occurs", ErrInvalid, owner)
		}
		if item.Multiple() && (item.GroupAs == nil || item.GroupAs.Name == "") {
			return fmt.Errorf("%w: %s: repeatable item needs a group-as name", ErrInvalid, owner)
		}
		if item.InXML == "UNWRAPPED" && !item.Unwrapped() {
			return fmt.Errorf("%w: %s: only markup-multiline fields can be unwrapped", ErrInvalid, owner)
		}
		name := item.JSONName()
		if seen[name] {
			return fmt.Errorf("%w: %s: duplicate member %q", ErrInvalid, owner, name)
		}
		seen[name] = true
	}
	return nil
}

func parseOccurs(s string, def int) (int, error) {
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("negative occurrence %d", n)
	}
	return n, nil
}
