package profile

import (
	"fmt"

	"github.com/clems4ever/oscal-cli/document"
)

// selection is the include/exclude rules of one import.
type selection struct {
	all bool
	// include and exclude map a control id to whether its descendants
	// follow it.
	include map[string]bool
	exclude map[string]bool
}

func newSelection(imp *document.Object) (*selection, error) {
	s := &selection{include: make(map[string]bool), exclude: make(map[string]bool)}
	_, s.all = imp.Get("include-all")

	if err := readMatches(imp.Array("include-controls"), s.include); err != nil {
		return nil, fmt.Errorf("include-controls: %v", err)
	}
	if err := readMatches(imp.Array("exclude-controls"), s.exclude); err != nil {
		return nil, fmt.Errorf("exclude-controls: %v", err)
	}
	if !s.all && len(s.include) == 0 {
		return nil, fmt.Errorf("the import selects no controls: use include-all or include-controls")
	}
	return s, nil
}

func readMatches(list []any, into map[string]bool) error {
	for _, v := range list {
		m, ok := v.(*document.Object)
		if !ok {
			return fmt.Errorf("expected an object")
		}
		children := false
		switch m.String("with-child-controls") {
		case "yes":
			children = true
		case "", "no":
		default:
			return fmt.Errorf("with-child-controls must be yes or no, not %q", m.String("with-child-controls"))
		}
		for _, id := range m.Array("with-ids") {
			s, ok := id.(string)
			if !ok {
				return fmt.Errorf("with-ids must be strings")
			}
			into[s] = into[s] || children
		}
	}
	return nil
}

// controls filters a control list. Controls that are not selected but
// have selected descendants give up their place to them.
func (s *selection) controls(list []any, inInclude, inExclude bool) []any {
	var out []any
	for _, v := range list {
		c, ok := v.(*document.Object)
		if !ok {
			continue
		}
		id := c.String("id")
		incChildren, included := s.include[id]
		excChildren, excluded := s.exclude[id]

		children := s.controls(c.Array("controls"), inInclude || incChildren, inExclude || excChildren)
		if (s.all || included || inInclude) && !(excluded || inExclude) {
			setOrDelete(c, "controls", children)
			out = append(out, c)
			continue
		}
		out = append(out, children...)
	}
	return out
}

// groups filters a group list, dropping groups left without controls.
func (s *selection) groups(list []any) []any {
	var out []any
	for _, v := range list {
		g, ok := v.(*document.Object)
		if !ok {
			continue
		}
		controls := s.controls(g.Array("controls"), false, false)
		groups := s.groups(g.Array("groups"))
		if len(controls) == 0 && len(groups) == 0 {
			continue
		}
		setOrDelete(g, "controls", controls)
		setOrDelete(g, "groups", groups)
		out = append(out, g)
	}
	return out
}

func setOrDelete(obj *document.Object, key string, list []any) {
	if len(list) == 0 {
		obj.Delete(key)
		return
	}
	obj.Set(key, list)
}

// flatten lists controls depth first, each without its child controls.
func flatten(list []any, out []any) []any {
	for _, v := range list {
		c, ok := v.(*document.Object)
		if !ok {
			continue
		}
		children := c.Array("controls")
		c.Delete("controls")
		out = append(out, c)
		out = flatten(children, out)
	}
	return out
}

// merger assembles the controls selected from every import.
type merger struct {
	flat      bool
	keepDupes bool

	params     []any
	controls   []any
	groups     []any
	seen       map[string]bool
	backMatter []any
}

func newMerger(prof *document.Object) (*merger, error) {
	m := &merger{seen: make(map[string]bool)}
	merge, ok := prof.Object("merge")
	if !ok {
		return m, nil
	}
	m.flat = truthy(merge.Get("flat"))
	if combine, ok := merge.Object("combine"); ok {
		switch method := combine.String("method"); method {
		case "", "use-first":
		case "keep":
			m.keepDupes = true
		default:
			return nil, fmt.Errorf("unsupported combine method %q", method)
		}
	}
	return m, nil
}

func truthy(v any, ok bool) bool {
	if !ok {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t == "true" || t == "1"
	}
	return false
}

func (m *merger) add(catalog *document.Object, sel *selection) {
	controls := sel.controls(catalog.Array("controls"), false, false)
	groups := sel.groups(catalog.Array("groups"))
	if m.flat {
		for _, g := range groups {
			controls = append(controls, groupControls(g.(*document.Object))...)
		}
		controls = flatten(controls, nil)
		groups = nil
	}
	if !m.keepDupes {
		controls = m.dedupe(controls)
		groups = m.dedupeGroups(groups)
	}

	m.params = append(m.params, m.newParams(catalog.Array("params"))...)
	m.controls = append(m.controls, controls...)
	m.groups = append(m.groups, groups...)
	if bm, ok := catalog.Object("back-matter"); ok {
		m.backMatter = append(m.backMatter, bm.Array("resources")...)
	}
}

func groupControls(g *document.Object) []any {
	out := append([]any(nil), g.Array("controls")...)
	for _, sub := range g.Array("groups") {
		if sg, ok := sub.(*document.Object); ok {
			out = append(out, groupControls(sg)...)
		}
	}
	return out
}

// newParams drops catalog parameters already contributed by an earlier
// import.
func (m *merger) newParams(params []any) []any {
	var out []any
	for _, v := range params {
		p, ok := v.(*document.Object)
		if !ok {
			continue
		}
		key := "param:" + p.String("id")
		if m.seen[key] {
			continue
		}
		m.seen[key] = true
		out = append(out, p)
	}
	return out
}

// dedupe keeps the first occurrence of every control id.
func (m *merger) dedupe(list []any) []any {
	var out []any
	for _, v := range list {
		c := v.(*document.Object)
		key := "control:" + c.String("id")
		children := m.dedupe(c.Array("controls"))
		if m.seen[key] {
			out = append(out, children...)
			continue
		}
		m.seen[key] = true
		setOrDelete(c, "controls", children)
		out = append(out, c)
	}
	return out
}

func (m *merger) dedupeGroups(list []any) []any {
	var out []any
	for _, v := range list {
		g := v.(*document.Object)
		controls := m.dedupe(g.Array("controls"))
		groups := m.dedupeGroups(g.Array("groups"))
		if len(controls) == 0 && len(groups) == 0 {
			continue
		}
		setOrDelete(g, "controls", controls)
		setOrDelete(g, "groups", groups)
		out = append(out, g)
	}
	return out
}

// catalog returns the merged params, controls and groups.
func (m *merger) catalog() *document.Object {
	c := document.NewObject()
	if len(m.params) > 0 {
		c.Set("params", m.params)
	}
	if len(m.controls) > 0 {
		c.Set("controls", m.controls)
	}
	if len(m.groups) > 0 {
		c.Set("groups", m.groups)
	}
	return c
}

// resources merges the back-matter of the profile and of every import,
// keeping the first resource of each uuid.
func (m *merger) resources(prof *document.Object) []any {
	var all []any
	if bm, ok := prof.Object("back-matter"); ok {
		all = append(all, document.Clone(bm.Array("resources")).([]any)...)
	}
	all = append(all, m.backMatter...)

	seen := make(map[string]bool)
	var out []any
	for _, v := range all {
		r, ok := v.(*document.Object)
		if !ok || seen[r.String("uuid")] {
			continue
		}
		seen[r.String("uuid")] = true
		out = append(out, r)
	}
	return out
}
