package constraint

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/clems4ever/oscal-cli/document"
)

// Selector picks nodes out of a document tree. Its text form is a list of
// steps separated by dots:
//
//	name      the member called name
//	*         every member of an object or element of an array
//	**        the node itself and all of its descendants
//	name[*]   every element of the array member called name
//	name[2]   one element of the array member called name
//
// A lone "$" selects the document root.
type Selector struct {
	text  string
	steps []step
}

type stepKind int

const (
	memberStep stepKind = iota
	wildcardStep
	descendantStep
)

type step struct {
	kind  stepKind
	name  string
	index int // -1 for [*], -2 when the step has no index
}

const (
	allElements = -1
	noIndex     = -2
)

// ParseSelector compiles the text form of a selector.
func ParseSelector(text string) (*Selector, error) {
	s := &Selector{text: text}
	if text == "$" {
		return s, nil
	}
	if text == "" {
		return nil, fmt.Errorf("empty selector")
	}
	for _, part := range strings.Split(text, ".") {
		st, err := parseStep(part)
		if err != nil {
			return nil, fmt.Errorf("selector %q: %w", text, err)
		}
		s.steps = append(s.steps, st)
	}
	return s, nil
}

func parseStep(part string) (step, error) {
	switch part {
	case "":
		return step{}, fmt.Errorf("empty step")
	case "*":
		return step{kind: wildcardStep, index: noIndex}, nil
	case "**":
		return step{kind: descendantStep, index: noIndex}, nil
	}

	st := step{kind: memberStep, name: part, index: noIndex}
	if open := strings.IndexByte(part, '['); open >= 0 {
		if !strings.HasSuffix(part, "]") || open == 0 {
			return step{}, fmt.Errorf("malformed step %q", part)
		}
		st.name = part[:open]
		idx := part[open+1 : len(part)-1]
		if idx == "*" {
			st.index = allElements
		} else {
			n, err := strconv.Atoi(idx)
			if err != nil || n < 0 {
				return step{}, fmt.Errorf("malformed index in step %q", part)
			}
			st.index = n
		}
	}
	if strings.ContainsAny(st.name, "[]*") {
		return step{}, fmt.Errorf("malformed step %q", part)
	}
	return st, nil
}

func (s *Selector) String() string {
	return s.text
}

// Match is a selected node and its JSON pointer.
type Match struct {
	Pointer string
	Node    any
}

// Select returns the matches in the order a depth-first walk reaches them:
// a node matched through "**" comes before matches below it. A node
// reachable by more than one route is returned once.
func (s *Selector) Select(root any) []Match {
	var out []Match
	seen := make(map[string]bool)
	var walk func(node any, ptr string, steps []step)
	walk = func(node any, ptr string, steps []step) {
		if len(steps) == 0 {
			if !seen[ptr] {
				seen[ptr] = true
				out = append(out, Match{Pointer: pointerOrRoot(ptr), Node: node})
			}
			return
		}
		st, rest := steps[0], steps[1:]
		switch st.kind {
		case descendantStep:
			walk(node, ptr, rest)
			eachChild(node, ptr, func(child any, childPtr string) {
				walk(child, childPtr, steps)
			})
		case wildcardStep:
			eachChild(node, ptr, func(child any, childPtr string) {
				walk(child, childPtr, rest)
			})
		case memberStep:
			obj, ok := node.(*document.Object)
			if !ok {
				return
			}
			v, ok := obj.Get(st.name)
			if !ok {
				return
			}
			vPtr := ptr + "/" + escapePointer(st.name)
			if st.index == noIndex {
				walk(v, vPtr, rest)
				return
			}
			arr, ok := v.([]any)
			if !ok {
				return
			}
			if st.index == allElements {
				for i, el := range arr {
					walk(el, vPtr+"/"+strconv.Itoa(i), rest)
				}
			} else if st.index < len(arr) {
				walk(arr[st.index], vPtr+"/"+strconv.Itoa(st.index), rest)
			}
		}
	}
	walk(root, "", s.steps)
	return out
}

func eachChild(node any, ptr string, fn func(child any, childPtr string)) {
	switch n := node.(type) {
	case *document.Object:
		for _, k := range n.Keys() {
			v, _ := n.Get(k)
			fn(v, ptr+"/"+escapePointer(k))
		}
	case []any:
		for i, v := range n {
			fn(v, ptr+"/"+strconv.Itoa(i))
		}
	}
}

var pointerEscaper = strings.NewReplacer("~", "~0", "/", "~1")

func escapePointer(key string) string {
	return pointerEscaper.Replace(key)
}

func pointerOrRoot(ptr string) string {
	if ptr == "" {
		return "/"
	}
	return ptr
}
