// Package format is the registry of the serialization formats understood by
// the tool.
package format

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

// Format is one of XML, JSON or YAML. The zero value means "not declared".
type Format int

const (
	XML Format = iota + 1
	JSON
	YAML
)

var (
	// ErrUnknownFormat is returned by Lookup for names outside the registry.
	ErrUnknownFormat = errors.New("unknown format")
	// ErrUndetectable is returned when content sniffing is inconclusive.
	ErrUndetectable = errors.New("unable to detect format")
)

type entry struct {
	name      string
	extension string
	binding   string
}

var registry = map[Format]entry{
	XML:  {name: "xml", extension: ".xml", binding: "application/xml"},
	JSON: {name: "json", extension: ".json", binding: "application/json"},
	YAML: {name: "yaml", extension: ".yaml", binding: "application/yaml"},
}

// All returns the formats in registry order.
func All() []Format {
	return []Format{XML, JSON, YAML}
}

// Names returns the flag names of all formats.
func Names() []string {
	var names []string
	for _, f := range All() {
		names = append(names, f.Name())
	}
	return names
}

// Lookup resolves a flag value such as "json" or "JSON".
func Lookup(name string) (Format, error) {
	for _, f := range All() {
		if strings.EqualFold(f.Name(), name) {
			return f, nil
		}
	}
	return 0, fmt.Errorf("%w %q: the format must be one of: %s", ErrUnknownFormat, name, JoinNames(Names()))
}

// FromExtension maps a file name to a format by its extension.
func FromExtension(path string) (Format, bool) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".yml" {
		return YAML, true
	}
	for _, f := range All() {
		if registry[f].extension == ext {
			return f, true
		}
	}
	return 0, false
}

// Name is the lower-case name used by --to and --as.
func (f Format) Name() string {
	return registry[f].name
}

func (f Format) String() string {
	if e, ok := registry[f]; ok {
		return strings.ToUpper(e.name)
	}
	return fmt.Sprintf("Format(%d)", int(f))
}

// DefaultExtension includes the leading dot.
func (f Format) DefaultExtension() string {
	return registry[f].extension
}

// BindingFormat is the media type handed to the document codecs.
func (f Format) BindingFormat() string {
	return registry[f].binding
}

// Valid reports whether f is a registered format.
func (f Format) Valid() bool {
	_, ok := registry[f]
	return ok
}

// JoinNames renders names as "a, b, and c".
func JoinNames(names []string) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		return names[0]
	case 2:
		return names[0] + " and " + names[1]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", and " + names[len(names)-1]
}
