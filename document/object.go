package document

import (
	"encoding/json"
)

// Object is a JSON object that remembers the order in which its members
// were first set.
//
// Node trees are built from *Object, []any, string, json.Number, bool and
// nil.
type Object struct {
	keys   []string
	values map[string]any
}

// NewObject returns an empty object.
func NewObject() *Object {
	return &Object{values: make(map[string]any)}
}

// Set stores v under key. A new key is appended; an existing one keeps its
// position.
func (o *Object) Set(key string, v any) {
	if _, ok := o.values[key]; !ok {
		o.keys = append(o.keys, key)
	}
	o.values[key] = v
}

// Get returns the member called key.
func (o *Object) Get(key string) (any, bool) {
	v, ok := o.values[key]
	return v, ok
}

// Delete removes key.
func (o *Object) Delete(key string) {
	if _, ok := o.values[key]; !ok {
		return
	}
	delete(o.values, key)
	for i, k := range o.keys {
		if k == key {
			o.keys = append(o.keys[:i:i], o.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the member names in order.
func (o *Object) Keys() []string {
	return append([]string(nil), o.keys...)
}

// Len returns the number of members.
func (o *Object) Len() int {
	return len(o.keys)
}

// Object returns the member called key when it is an object.
func (o *Object) Object(key string) (*Object, bool) {
	v, ok := o.values[key].(*Object)
	return v, ok
}

// Array returns the member called key when it is an array.
func (o *Object) Array(key string) []any {
	v, _ := o.values[key].([]any)
	return v
}

// String returns the member called key when it is a string.
func (o *Object) String(key string) string {
	v, _ := o.values[key].(string)
	return v
}

// MarshalJSON writes the members in order.
func (o *Object) MarshalJSON() ([]byte, error) {
	return MarshalJSON(o)
}

// Clone deep-copies a node tree.
func Clone(v any) any {
	switch t := v.(type) {
	case *Object:
		c := &Object{keys: append([]string(nil), t.keys...), values: make(map[string]any, len(t.values))}
		for k, val := range t.values {
			c.values[k] = Clone(val)
		}
		return c
	case []any:
		c := make([]any, len(t))
		for i, val := range t {
			c[i] = Clone(val)
		}
		return c
	default:
		return t
	}
}

// Equal reports whether two node trees hold the same members in the same
// order.
func Equal(a, b any) bool {
	switch x := a.(type) {
	case *Object:
		y, ok := b.(*Object)
		if !ok || x.Len() != y.Len() {
			return false
		}
		for i, k := range x.keys {
			if y.keys[i] != k || !Equal(x.values[k], y.values[k]) {
				return false
			}
		}
		return true
	case []any:
		y, ok := b.([]any)
		if !ok || len(x) != len(y) {
			return false
		}
		for i := range x {
			if !Equal(x[i], y[i]) {
				return false
			}
		}
		return true
	case json.Number:
		y, ok := b.(json.Number)
		return ok && x == y
	default:
		return a == b
	}
}
