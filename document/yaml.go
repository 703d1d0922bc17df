package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

const maxYAMLDepth = 512

const mergeKey = "<<"

// ParseYAML reads the first YAML document of data into a node tree.
//
// Plain scalars are typed with the YAML 1.1 rules of resolvePlain; quoted and
// block scalars are strings, and explicit standard tags are honoured. Merge
// keys are expanded. Mapping members whose value is null are dropped, so
// that an empty YAML key reads like an absent one.
func ParseYAML(data []byte) (any, error) {
	var doc yaml.Node
	if err := yaml.NewDecoder(bytes.NewReader(data)).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("empty YAML document")
		}
		return nil, err
	}
	var c yamlConverter
	return c.convert(&doc, 0)
}

// Alias expansion is bounded like the yaml.v3 decoder bounds it when
// decoding into Go values: past a small document, the share of nodes produced
// by aliases may not exceed aliasRatio.
const (
	aliasRatioRangeLow  = 400000
	aliasRatioRangeHigh = 4000000
)

func aliasRatio(count int) float64 {
	switch {
	case count <= aliasRatioRangeLow:
		return 0.99
	case count >= aliasRatioRangeHigh:
		return 0.10
	default:
		return 0.99 - 0.89*(float64(count-aliasRatioRangeLow)/(aliasRatioRangeHigh-aliasRatioRangeLow))
	}
}

type yamlConverter struct {
	count      int
	aliasCount int
	aliasDepth int
}

func (c *yamlConverter) convert(n *yaml.Node, depth int) (any, error) {
	if depth > maxYAMLDepth {
		return nil, fmt.Errorf("line %d: YAML nesting exceeds %d levels", n.Line, maxYAMLDepth)
	}
	c.count++
	if c.aliasDepth > 0 {
		c.aliasCount++
	}
	if c.aliasCount > 100 && c.count > 1000 && float64(c.aliasCount)/float64(c.count) > aliasRatio(c.count) {
		return nil, fmt.Errorf("line %d: YAML document contains excessive aliasing", n.Line)
	}
	switch n.Kind {
	case yaml.DocumentNode:
		if len(n.Content) == 0 {
			return nil, nil
		}
		return c.convert(n.Content[0], depth+1)
	case yaml.AliasNode:
		c.aliasDepth++
		defer func() { c.aliasDepth-- }()
		return c.convert(n.Alias, depth+1)
	case yaml.SequenceNode:
		arr := make([]any, 0, len(n.Content))
		for _, child := range n.Content {
			v, err := c.convert(child, depth+1)
			if err != nil {
				return nil, err
			}
			arr = append(arr, v)
		}
		return arr, nil
	case yaml.MappingNode:
		return c.convertMapping(n, depth)
	case yaml.ScalarNode:
		return resolveScalar(n)
	}
	return nil, fmt.Errorf("line %d: unsupported YAML node kind %d", n.Line, n.Kind)
}

func (c *yamlConverter) convertMapping(n *yaml.Node, depth int) (*Object, error) {
	obj := NewObject()
	var merges []*yaml.Node
	for i := 0; i+1 < len(n.Content); i += 2 {
		k, v := n.Content[i], n.Content[i+1]
		if k.Kind == yaml.AliasNode {
			k = k.Alias
		}
		if k.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("line %d: mapping keys must be scalars", k.Line)
		}
		if k.Value == mergeKey && k.Style&(yaml.SingleQuotedStyle|yaml.DoubleQuotedStyle) == 0 {
			merges = append(merges, v)
			continue
		}
		val, err := c.convert(v, depth+1)
		if err != nil {
			return nil, err
		}
		if val == nil {
			continue
		}
		obj.Set(k.Value, val)
	}

	// Explicit members win over merged ones; earlier merge sources win over
	// later ones.
	for _, m := range merges {
		sources := []*yaml.Node{m}
		if m.Kind == yaml.SequenceNode {
			sources = m.Content
		}
		for _, src := range sources {
			v, err := c.convert(src, depth+1)
			if err != nil {
				return nil, err
			}
			merged, ok := v.(*Object)
			if !ok {
				return nil, fmt.Errorf("line %d: merge key value must be a mapping", src.Line)
			}
			for _, key := range merged.Keys() {
				if _, exists := obj.Get(key); !exists {
					val, _ := merged.Get(key)
					obj.Set(key, val)
				}
			}
		}
	}
	return obj, nil
}

func resolveScalar(n *yaml.Node) (any, error) {
	if n.Style&yaml.TaggedStyle != 0 {
		switch n.ShortTag() {
		case "!!str":
			return n.Value, nil
		case "!!null":
			return nil, nil
		case "!!bool":
			if b, ok := yamlBools[n.Value]; ok {
				return b, nil
			}
			return nil, fmt.Errorf("line %d: invalid boolean %q", n.Line, n.Value)
		case "!!int":
			if num, ok := parseYAMLInt(n.Value); ok {
				return num, nil
			}
			return nil, fmt.Errorf("line %d: invalid integer %q", n.Line, n.Value)
		case "!!float":
			if num, ok := parseYAMLFloat(n.Value); ok {
				return num, nil
			}
			return nil, fmt.Errorf("line %d: invalid float %q", n.Line, n.Value)
		}
		return n.Value, nil
	}
	if n.Style != 0 {
		// Quoted, literal and folded scalars.
		return n.Value, nil
	}
	return resolvePlain(n.Value), nil
}

// WriteYAML writes a node tree as a YAML document indented by two spaces.
func WriteYAML(w io.Writer, v any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(toYAMLNode(v)); err != nil {
		return err
	}
	return enc.Close()
}

func toYAMLNode(v any) *yaml.Node {
	switch t := v.(type) {
	case *Object:
		n := &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
		for _, k := range t.keys {
			n.Content = append(n.Content, stringNode(k), toYAMLNode(t.values[k]))
		}
		return n
	case []any:
		n := &yaml.Node{Kind: yaml.SequenceNode, Tag: "!!seq"}
		for _, e := range t {
			n.Content = append(n.Content, toYAMLNode(e))
		}
		return n
	case string:
		return stringNode(t)
	case json.Number:
		tag := "!!int"
		if strings.ContainsAny(t.String(), ".eE") {
			tag = "!!float"
		}
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: t.String()}
	case bool:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!bool", Value: strconv.FormatBool(t)}
	case nil:
		return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!null", Value: "null"}
	}
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: fmt.Sprint(v)}
}

func stringNode(s string) *yaml.Node {
	n := &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
	if !strings.Contains(s, "\n") && !isPlainString(s) {
		n.Style = yaml.DoubleQuotedStyle
	}
	return n
}
