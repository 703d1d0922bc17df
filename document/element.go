package document

import (
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

// Element is an XML node as read from or written to a document.
type Element struct {
	Name       string
	Space      string
	Attributes []xml.Attr
	Children   []any // *Element, string (character data) or Raw
}

// Raw is serialized XML markup inserted verbatim.
type Raw string

var (
	textEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	attrEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", `"`, "&quot;", "\n", "&#xA;", "\r", "&#xD;", "\t", "&#x9;")
)

// Attr returns the value of the attribute called name.
func (e *Element) Attr(name string) (string, bool) {
	for _, a := range e.Attributes {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// SetAttr appends an attribute.
func (e *Element) SetAttr(name, value string) {
	e.Attributes = append(e.Attributes, xml.Attr{Name: xml.Name{Local: name}, Value: value})
}

// Elements returns the element children.
func (e *Element) Elements() []*Element {
	var out []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// Text concatenates the character data children.
func (e *Element) Text() string {
	var sb strings.Builder
	for _, c := range e.Children {
		if s, ok := c.(string); ok {
			sb.WriteString(s)
		}
	}
	return sb.String()
}

// String serializes the element compactly.
func (e *Element) String() string {
	var sb strings.Builder
	e.writeTo(&sb)
	return sb.String()
}

// InnerXML serializes the children only.
func (e *Element) InnerXML() string {
	var sb strings.Builder
	for _, child := range e.Children {
		writeChild(&sb, child)
	}
	return sb.String()
}

func (e *Element) writeTo(sb *strings.Builder) {
	sb.WriteString("<" + e.Name)
	writeAttrs(sb, e.Attributes)
	if len(e.Children) == 0 {
		sb.WriteString("/>")
		return
	}
	sb.WriteString(">")
	for _, child := range e.Children {
		writeChild(sb, child)
	}
	sb.WriteString("</" + e.Name + ">")
}

func writeChild(sb *strings.Builder, child any) {
	switch c := child.(type) {
	case *Element:
		c.writeTo(sb)
	case string:
		textEscaper.WriteString(sb, c)
	case Raw:
		sb.WriteString(string(c))
	}
}

func writeAttrs(w io.Writer, attrs []xml.Attr) {
	for _, attr := range attrs {
		name := attr.Name.Local
		if attr.Name.Space != "" {
			name = attr.Name.Space + ":" + name
		}
		io.WriteString(w, " "+name+`="`)
		attrEscaper.WriteString(w, attr.Value)
		io.WriteString(w, `"`)
	}
}

// PrettyPrint writes the element indented by depth levels. Elements holding
// only text or markup are written on one line.
func (e *Element) PrettyPrint(w io.Writer, depth int) {
	indent := strings.Repeat("  ", depth)

	isComplex := false
	for _, c := range e.Children {
		if _, ok := c.(*Element); ok {
			isComplex = true
			break
		}
	}

	io.WriteString(w, indent)
	io.WriteString(w, "<"+e.Name)
	writeAttrs(w, e.Attributes)

	if len(e.Children) == 0 {
		io.WriteString(w, "/>\n")
		return
	}

	io.WriteString(w, ">")

	if isComplex {
		io.WriteString(w, "\n")
		for _, c := range e.Children {
			switch child := c.(type) {
			case *Element:
				child.PrettyPrint(w, depth+1)
			case Raw:
				io.WriteString(w, strings.Repeat("  ", depth+1))
				io.WriteString(w, strings.TrimSpace(string(child)))
				io.WriteString(w, "\n")
			case string:
				trimmed := strings.TrimSpace(child)
				if trimmed != "" {
					io.WriteString(w, strings.Repeat("  ", depth+1))
					textEscaper.WriteString(w, trimmed)
					io.WriteString(w, "\n")
				}
			}
		}
		io.WriteString(w, indent)
	} else {
		var sb strings.Builder
		for _, c := range e.Children {
			writeChild(&sb, c)
		}
		io.WriteString(w, sb.String())
	}

	io.WriteString(w, "</"+e.Name+">\n")
}

const xsiNamespace = "http://www.w3.org/2001/XMLSchema-instance"

// ParseElement reads an XML document into an element tree. Character data
// is kept verbatim so that markup content survives; namespace declarations
// and xsi attributes are dropped.
func ParseElement(r io.Reader) (*Element, error) {
	decoder := xml.NewDecoder(r)
	var stack []*Element
	var root *Element

	for {
		token, err := decoder.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		switch se := token.(type) {
		case xml.StartElement:
			el := &Element{Name: se.Name.Local, Space: se.Name.Space}
			for _, attr := range se.Attr {
				if attr.Name.Space == "xmlns" || (attr.Name.Space == "" && attr.Name.Local == "xmlns") {
					continue
				}
				if attr.Name.Space == xsiNamespace {
					continue
				}
				el.Attributes = append(el.Attributes, xml.Attr{Name: xml.Name{Local: attr.Name.Local}, Value: attr.Value})
			}

			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else if root != nil {
				return nil, fmt.Errorf("unexpected second root element %s", se.Name.Local)
			} else {
				root = el
			}
			stack = append(stack, el)

		case xml.EndElement:
			if len(stack) == 0 {
				return nil, fmt.Errorf("unexpected end element %s", se.Name.Local)
			}
			stack = stack[:len(stack)-1]

		case xml.CharData:
			if len(stack) == 0 {
				continue
			}
			current := stack[len(stack)-1]
			text := string(se)
			if n := len(current.Children); n > 0 {
				if prev, ok := current.Children[n-1].(string); ok {
					current.Children[n-1] = prev + text
					continue
				}
			}
			current.Children = append(current.Children, text)
		}
	}

	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}
