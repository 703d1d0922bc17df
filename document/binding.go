package document

import (
	"encoding/json"
	"encoding/xml"
	"fmt"
	"math/big"
	"strings"

	"github.com/clems4ever/oscal-cli/format"
	"github.com/clems4ever/oscal-cli/metaschema"
)

// Binding maps one model between its XML form and the JSON-shaped node
// tree. Bindings built from a metaschema are exact in both directions; a
// generic binding only reads XML.
type Binding struct {
	Model     string
	Namespace string

	root *metaschema.Assembly
}

// NewBinding builds the binding for the root assembly whose root name is
// model.
func NewBinding(ms *metaschema.Metaschema, model string) (*Binding, error) {
	root, ok := ms.Root(model)
	if !ok {
		return nil, fmt.Errorf("%w: %q is not a root of %s", ErrUnknownModel, model, ms.ShortName)
	}
	return &Binding{Model: model, Namespace: ms.Namespace, root: root}, nil
}

// NewGenericBinding returns a read-only XML binding for documents without a
// definition: attributes become string members, every child element name
// becomes an array, elements with text only become strings and mixed
// content is kept as markup under "text".
func NewGenericBinding(model, namespace string) *Binding {
	return &Binding{Model: model, Namespace: namespace}
}

// Formats returns the formats the binding reads and writes.
func (b *Binding) Formats() []format.Format {
	if b.root == nil {
		return []format.Format{format.XML}
	}
	return format.All()
}

// Supports reports whether f is one of Formats.
func (b *Binding) Supports(f format.Format) bool {
	for _, s := range b.Formats() {
		if s == f {
			return true
		}
	}
	return false
}

// Definition returns the root assembly, or nil for a generic binding.
func (b *Binding) Definition() *metaschema.Assembly {
	return b.root
}

// Unmarshal converts the root element to the content of the model.
func (b *Binding) Unmarshal(el *Element) (any, error) {
	if el.Name != b.Model {
		return nil, fmt.Errorf("%w: root element %q is not %q", ErrUnknownModel, el.Name, b.Model)
	}
	if b.root == nil {
		return decodeGeneric(el), nil
	}
	return decodeAssembly(b.root, el, "/"+b.Model)
}

// Marshal converts model content to its root element.
func (b *Binding) Marshal(content any) (*Element, error) {
	if b.root == nil {
		return nil, fmt.Errorf("%w: the %s model cannot be written as XML", ErrUnsupported, b.Model)
	}
	obj, ok := content.(*Object)
	if !ok {
		return nil, fmt.Errorf("/%s: expected an object, got %s", b.Model, kindOf(content))
	}
	el, err := encodeAssembly(b.root, b.Model, obj, "/"+b.Model)
	if err != nil {
		return nil, err
	}
	if b.Namespace != "" {
		el.Attributes = append([]xml.Attr{{Name: xml.Name{Local: "xmlns"}, Value: b.Namespace}}, el.Attributes...)
	}
	return el, nil
}

func decodeAssembly(def *metaschema.Assembly, el *Element, path string) (*Object, error) {
	obj := NewObject()
	if err := decodeFlags(def.Flags(), el, obj, path); err != nil {
		return nil, err
	}

	items := def.Items()
	buckets := make([][]*Element, len(items))
	prose := -1
	for i, item := range items {
		if item.Unwrapped() {
			prose = i
		}
	}

	for _, c := range el.Children {
		switch child := c.(type) {
		case string:
			if strings.TrimSpace(child) != "" {
				return nil, fmt.Errorf("%s: unexpected text %q", path, strings.TrimSpace(child))
			}
		case *Element:
			idx := -1
			for i, item := range items {
				if !item.Unwrapped() && item.Ref == child.Name {
					idx = i
					break
				}
			}
			if idx < 0 && prose >= 0 && metaschema.IsBlockElement(child.Name) {
				idx = prose
			}
			if idx < 0 {
				return nil, fmt.Errorf("%s: unexpected element %q", path, child.Name)
			}
			buckets[idx] = append(buckets[idx], child)
		}
	}

	for i, item := range items {
		bucket := buckets[i]
		if len(bucket) == 0 {
			continue
		}
		key := item.JSONName()
		itemPath := path + "/" + key

		if item.Unwrapped() {
			parts := make([]string, len(bucket))
			for j, b := range bucket {
				parts[j] = b.String()
			}
			obj.Set(key, strings.Join(parts, "\n"))
			continue
		}

		if !item.Multiple() {
			if len(bucket) > 1 {
				return nil, fmt.Errorf("%s: element %q occurs %d times", path, item.Ref, len(bucket))
			}
			v, err := decodeItem(item, bucket[0], itemPath)
			if err != nil {
				return nil, err
			}
			obj.Set(key, v)
			continue
		}

		arr := make([]any, 0, len(bucket))
		for j, b := range bucket {
			v, err := decodeItem(item, b, fmt.Sprintf("%s/%d", itemPath, j))
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		obj.Set(key, arr)
	}
	return obj, nil
}

func decodeItem(item *metaschema.ModelItem, el *Element, path string) (any, error) {
	if item.Kind == metaschema.AssemblyKind {
		return decodeAssembly(item.Assembly, el, path)
	}
	return decodeField(item.Field, el, path)
}

func decodeField(def *metaschema.Field, el *Element, path string) (any, error) {
	var value any
	if metaschema.IsMarkup(def.AsType) {
		value = strings.TrimSpace(el.InnerXML())
	} else {
		if len(el.Elements()) > 0 {
			return nil, fmt.Errorf("%s: unexpected element %q in a %s value", path, el.Elements()[0].Name, def.AsType)
		}
		value = typedValue(def.AsType, strings.TrimSpace(el.Text()))
	}

	flags := def.Flags()
	if len(flags) == 0 {
		if len(el.Attributes) > 0 {
			return nil, fmt.Errorf("%s: unexpected attribute %q", path, el.Attributes[0].Name.Local)
		}
		return value, nil
	}

	obj := NewObject()
	if err := decodeFlags(flags, el, obj, path); err != nil {
		return nil, err
	}
	if value != "" {
		obj.Set(def.ValueKey(), value)
	}
	return obj, nil
}

func decodeFlags(flags []*metaschema.FlagInstance, el *Element, obj *Object, path string) error {
	for _, attr := range el.Attributes {
		known := false
		for _, f := range flags {
			if f.Name == attr.Name.Local {
				known = true
				break
			}
		}
		if !known {
			return fmt.Errorf("%s: unexpected attribute %q", path, attr.Name.Local)
		}
	}
	for _, f := range flags {
		if v, ok := el.Attr(f.Name); ok {
			obj.Set(f.Name, typedValue(f.AsType, v))
		}
	}
	return nil
}

// typedValue converts lexical XML values of numeric and boolean types.
// Values that do not parse are kept as strings for the schema to report.
func typedValue(asType, s string) any {
	switch {
	case metaschema.IsInteger(asType):
		if _, ok := new(big.Int).SetString(s, 10); ok {
			return json.Number(strings.TrimPrefix(s, "+"))
		}
	case asType == metaschema.Boolean:
		switch s {
		case "true", "1":
			return true
		case "false", "0":
			return false
		}
	}
	return s
}

func encodeAssembly(def *metaschema.Assembly, name string, obj *Object, path string) (*Element, error) {
	el := &Element{Name: name}
	used := make(map[string]bool)

	if err := encodeFlags(def.Flags(), el, obj, used, path); err != nil {
		return nil, err
	}

	for _, item := range def.Items() {
		key := item.JSONName()
		v, ok := obj.Get(key)
		if !ok {
			continue
		}
		used[key] = true
		if v == nil {
			continue
		}
		itemPath := path + "/" + key

		if item.Unwrapped() {
			s, ok := v.(string)
			if !ok {
				return nil, fmt.Errorf("%s: expected markup text, got %s", itemPath, kindOf(v))
			}
			if err := checkMarkup(s); err != nil {
				return nil, fmt.Errorf("%s: %w", itemPath, err)
			}
			el.Children = append(el.Children, Raw(s))
			continue
		}

		values := []any{v}
		if arr, isArray := v.([]any); isArray {
			if !item.Multiple() {
				return nil, fmt.Errorf("%s: expected a single value, got an array", itemPath)
			}
			values = arr
		}
		for j, val := range values {
			p := itemPath
			if item.Multiple() {
				p = fmt.Sprintf("%s/%d", itemPath, j)
			}
			child, err := encodeItem(item, val, p)
			if err != nil {
				return nil, err
			}
			el.Children = append(el.Children, child)
		}
	}

	for _, k := range obj.Keys() {
		if !used[k] {
			return nil, fmt.Errorf("%s: unknown property %q", path, k)
		}
	}
	return el, nil
}

func encodeItem(item *metaschema.ModelItem, v any, path string) (*Element, error) {
	if item.Kind == metaschema.AssemblyKind {
		obj, ok := v.(*Object)
		if !ok {
			return nil, fmt.Errorf("%s: expected an object, got %s", path, kindOf(v))
		}
		return encodeAssembly(item.Assembly, item.Ref, obj, path)
	}
	return encodeField(item.Field, item.Ref, v, path)
}

func encodeField(def *metaschema.Field, name string, v any, path string) (*Element, error) {
	el := &Element{Name: name}
	value := v
	if obj, ok := v.(*Object); ok {
		used := map[string]bool{def.ValueKey(): true}
		if err := encodeFlags(def.Flags(), el, obj, used, path); err != nil {
			return nil, err
		}
		for _, k := range obj.Keys() {
			if !used[k] {
				return nil, fmt.Errorf("%s: unknown property %q", path, k)
			}
		}
		value, _ = obj.Get(def.ValueKey())
	}
	if value == nil {
		return el, nil
	}

	text, err := scalarString(value, path)
	if err != nil {
		return nil, err
	}
	if metaschema.IsMarkup(def.AsType) {
		if err := checkMarkup(text); err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		if text != "" {
			el.Children = append(el.Children, Raw(text))
		}
	} else if text != "" {
		el.Children = append(el.Children, text)
	}
	return el, nil
}

func encodeFlags(flags []*metaschema.FlagInstance, el *Element, obj *Object, used map[string]bool, path string) error {
	for _, f := range flags {
		v, ok := obj.Get(f.Name)
		if !ok {
			continue
		}
		used[f.Name] = true
		if v == nil {
			continue
		}
		s, err := scalarString(v, path+"/"+f.Name)
		if err != nil {
			return err
		}
		el.SetAttr(f.Name, s)
	}
	return nil
}

func scalarString(v any, path string) (string, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case bool:
		if t {
			return "true", nil
		}
		return "false", nil
	}
	return "", fmt.Errorf("%s: expected a scalar, got %s", path, kindOf(v))
}

// checkMarkup verifies that s is a well-formed XML fragment.
func checkMarkup(s string) error {
	_, err := ParseElement(strings.NewReader("<markup>" + s + "</markup>"))
	if err != nil {
		return fmt.Errorf("invalid markup: %w", err)
	}
	return nil
}

func decodeGeneric(el *Element) any {
	elems := el.Elements()
	text := strings.TrimSpace(el.Text())
	if len(el.Attributes) == 0 && len(elems) == 0 {
		return text
	}

	obj := NewObject()
	for _, a := range el.Attributes {
		obj.Set(a.Name.Local, a.Value)
	}
	if text != "" {
		obj.Set("text", strings.TrimSpace(el.InnerXML()))
		return obj
	}
	for _, c := range elems {
		arr, _ := obj.Get(c.Name)
		list, _ := arr.([]any)
		obj.Set(c.Name, append(list, decodeGeneric(c)))
	}
	return obj
}

func kindOf(v any) string {
	switch v.(type) {
	case *Object:
		return "an object"
	case []any:
		return "an array"
	case string:
		return "a string"
	case json.Number:
		return "a number"
	case bool:
		return "a boolean"
	case nil:
		return "null"
	}
	return fmt.Sprintf("%T", v)
}
