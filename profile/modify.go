package profile

import (
	"fmt"

	"github.com/clems4ever/oscal-cli/document"
)

// applyModify applies set-parameters and then alters to a merged catalog.
// Parameters and controls the profile did not select are skipped.
func applyModify(catalog, modify *document.Object) error {
	params := make(map[string]*document.Object)
	controls := make(map[string]*document.Object)
	index(catalog, params, controls)

	for _, v := range modify.Array("set-parameters") {
		sp, ok := v.(*document.Object)
		if !ok {
			return fmt.Errorf("set-parameter is not an object")
		}
		if p, ok := params[sp.String("param-id")]; ok {
			setParameter(p, sp)
		}
	}

	for _, v := range modify.Array("alters") {
		alter, ok := v.(*document.Object)
		if !ok {
			return fmt.Errorf("alter is not an object")
		}
		c, ok := controls[alter.String("control-id")]
		if !ok {
			continue
		}
		for _, r := range alter.Array("removes") {
			if err := remove(c, r); err != nil {
				return fmt.Errorf("alter %s: %v", alter.String("control-id"), err)
			}
		}
		for _, a := range alter.Array("adds") {
			if err := add(c, a); err != nil {
				return fmt.Errorf("alter %s: %v", alter.String("control-id"), err)
			}
		}
	}
	return nil
}

// index records every parameter and control below node by id.
func index(node *document.Object, params, controls map[string]*document.Object) {
	for _, v := range node.Array("params") {
		if p, ok := v.(*document.Object); ok {
			params[p.String("id")] = p
		}
	}
	for _, v := range node.Array("controls") {
		if c, ok := v.(*document.Object); ok {
			controls[c.String("id")] = c
			index(c, params, controls)
		}
	}
	for _, v := range node.Array("groups") {
		if g, ok := v.(*document.Object); ok {
			index(g, params, controls)
		}
	}
}

// setParameter appends props and links and replaces every other member.
func setParameter(p, sp *document.Object) {
	for _, k := range sp.Keys() {
		v, _ := sp.Get(k)
		switch k {
		case "param-id":
		case "props", "links":
			p.Set(k, append(p.Array(k), document.Clone(sp.Array(k)).([]any)...))
		default:
			p.Set(k, document.Clone(v))
		}
	}
}

var removable = []string{"params", "props", "links", "parts"}

func remove(control *document.Object, v any) error {
	r, ok := v.(*document.Object)
	if !ok {
		return fmt.Errorf("remove is not an object")
	}
	byName, byClass, byID := r.String("by-name"), r.String("by-class"), r.String("by-id")
	if byName == "" && byClass == "" && byID == "" {
		return fmt.Errorf("remove needs by-name, by-class or by-id")
	}
	match := func(item *document.Object) bool {
		return (byName == "" || item.String("name") == byName) &&
			(byClass == "" || item.String("class") == byClass) &&
			(byID == "" || item.String("id") == byID)
	}

	var walk func(obj *document.Object)
	walk = func(obj *document.Object) {
		for _, k := range removable {
			list := obj.Array(k)
			if list == nil {
				continue
			}
			var kept []any
			for _, item := range list {
				o, ok := item.(*document.Object)
				if ok && match(o) {
					continue
				}
				if ok && k == "parts" {
					walk(o)
				}
				kept = append(kept, item)
			}
			setOrDelete(obj, k, kept)
		}
	}
	walk(control)
	return nil
}

var addable = []string{"params", "props", "links", "parts"}

func add(control *document.Object, v any) error {
	a, ok := v.(*document.Object)
	if !ok {
		return fmt.Errorf("add is not an object")
	}
	position := a.String("position")
	if position == "" {
		position = "ending"
	}

	target := control
	var parent *document.Object
	var listKey string
	var at int
	if id := a.String("by-id"); id != "" && id != control.String("id") {
		var found bool
		parent, listKey, at, found = find(control, id)
		if !found {
			return fmt.Errorf("add: no part or parameter %q in the control", id)
		}
		target = parent.Array(listKey)[at].(*document.Object)
	}

	switch position {
	case "starting", "ending":
		if title, ok := a.Get("title"); ok {
			target.Set("title", document.Clone(title))
		}
		for _, k := range addable {
			items := a.Array(k)
			if len(items) == 0 {
				continue
			}
			items = document.Clone(items).([]any)
			if position == "starting" {
				target.Set(k, append(items, target.Array(k)...))
			} else {
				target.Set(k, append(target.Array(k), items...))
			}
		}
	case "before", "after":
		if parent == nil {
			return fmt.Errorf("add: position %s needs a by-id naming a part or parameter", position)
		}
		for _, k := range addable {
			items := a.Array(k)
			if len(items) == 0 {
				continue
			}
			items = document.Clone(items).([]any)
			if k != listKey {
				parent.Set(k, append(parent.Array(k), items...))
				continue
			}
			list := parent.Array(k)
			i := at
			if position == "after" {
				i++
			}
			merged := append(append(append([]any(nil), list[:i]...), items...), list[i:]...)
			parent.Set(k, merged)
		}
	default:
		return fmt.Errorf("add: unknown position %q", position)
	}
	return nil
}

// find locates the part or parameter called id below obj and returns the
// object holding it, the member name of the list and the index in it.
func find(obj *document.Object, id string) (*document.Object, string, int, bool) {
	for _, k := range []string{"params", "parts"} {
		for i, v := range obj.Array(k) {
			item, ok := v.(*document.Object)
			if !ok {
				continue
			}
			if item.String("id") == id {
				return obj, k, i, true
			}
			if k == "parts" {
				if p, key, at, ok := find(item, id); ok {
					return p, key, at, true
				}
			}
		}
	}
	return nil, "", 0, false
}
