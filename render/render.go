// Package render writes catalogs as standalone HTML pages.
package render

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/clems4ever/oscal-cli/document"
)

// ErrNotCatalog is returned when the document to render is not a catalog.
var ErrNotCatalog = errors.New("not a catalog")

const stylesheet = `body{font-family:sans-serif;margin:2em auto;max-width:60em}` +
	`section.control{border-top:1px solid #ccc}` +
	`.insert{font-style:italic}` +
	`.label{font-weight:bold}`

// Catalog writes doc as an HTML page.
func Catalog(w io.Writer, doc *document.Document) error {
	if doc.Model != "catalog" {
		return fmt.Errorf("%w: %s is a %s", ErrNotCatalog, doc.Path, doc.Model)
	}
	cat, ok := doc.RootObject()
	if !ok {
		return fmt.Errorf("%w: %s has no catalog content", ErrNotCatalog, doc.Path)
	}

	r := &renderer{params: make(map[string]*document.Object)}
	r.indexParams(cat)
	page, err := r.page(cat)
	if err != nil {
		return fmt.Errorf("rendering %s: %w", doc.Path, err)
	}
	return html.Render(w, page)
}

type renderer struct {
	params map[string]*document.Object
}

func (r *renderer) indexParams(node *document.Object) {
	for _, v := range node.Array("params") {
		if p, ok := v.(*document.Object); ok {
			r.params[p.String("id")] = p
		}
	}
	for _, k := range []string{"controls", "groups"} {
		for _, v := range node.Array(k) {
			if o, ok := v.(*document.Object); ok {
				r.indexParams(o)
			}
		}
	}
}

func (r *renderer) page(cat *document.Object) (*html.Node, error) {
	md, _ := cat.Object("metadata")
	if md == nil {
		md = document.NewObject()
	}
	title, err := r.markup(md.String("title"), atom.H1)
	if err != nil {
		return nil, fmt.Errorf("title: %w", err)
	}

	root := &html.Node{Type: html.DocumentNode}
	root.AppendChild(&html.Node{Type: html.DoctypeNode, Data: "html"})
	page := add(root, element(atom.Html, "lang", "en"))

	head := add(page, element(atom.Head))
	add(head, element(atom.Meta, "charset", "utf-8"))
	add(add(head, element(atom.Title)), text(plainText(title)))
	add(add(head, element(atom.Style)), text(stylesheet))

	body := add(page, element(atom.Body))
	header := add(body, element(atom.Header))
	appendAll(add(header, element(atom.H1)), title...)
	dl := add(header, element(atom.Dl, "class", "metadata"))
	for _, item := range []struct{ label, key string }{
		{"Version", "version"},
		{"Last modified", "last-modified"},
		{"OSCAL version", "oscal-version"},
	} {
		if v := md.String(item.key); v != "" {
			add(add(dl, element(atom.Dt)), text(item.label))
			add(add(dl, element(atom.Dd)), text(v))
		}
	}

	content := add(body, element(atom.Main))
	if params := cat.Array("params"); len(params) > 0 {
		section := add(content, element(atom.Section, "class", "params"))
		add(add(section, element(atom.H2)), text("Parameters"))
		dl := add(section, element(atom.Dl))
		for _, v := range params {
			p, ok := v.(*document.Object)
			if !ok {
				continue
			}
			add(add(dl, element(atom.Dt, "id", p.String("id"))), text(p.String("id")))
			add(add(dl, element(atom.Dd)), text(paramText(p)))
		}
	}
	if err := r.children(content, cat, 2); err != nil {
		return nil, err
	}

	if bm, ok := cat.Object("back-matter"); ok && len(bm.Array("resources")) > 0 {
		footer := add(body, element(atom.Footer, "class", "back-matter"))
		add(add(footer, element(atom.H2)), text("References"))
		ul := add(footer, element(atom.Ul))
		for _, v := range bm.Array("resources") {
			res, ok := v.(*document.Object)
			if !ok {
				continue
			}
			li := add(ul, element(atom.Li, "id", res.String("uuid")))
			add(li, text(res.String("title")))
			for _, l := range res.Array("rlinks") {
				if link, ok := l.(*document.Object); ok {
					href := link.String("href")
					add(li, text(" "))
					add(add(li, element(atom.A, "href", href)), text(href))
				}
			}
		}
	}
	return root, nil
}

// children renders the controls and then the groups of node.
func (r *renderer) children(parent *html.Node, node *document.Object, level int) error {
	for _, v := range node.Array("controls") {
		if c, ok := v.(*document.Object); ok {
			if err := r.control(parent, c, level); err != nil {
				return err
			}
		}
	}
	for _, v := range node.Array("groups") {
		if g, ok := v.(*document.Object); ok {
			if err := r.group(parent, g, level); err != nil {
				return err
			}
		}
	}
	return nil
}

func (r *renderer) group(parent *html.Node, g *document.Object, level int) error {
	section := add(parent, element(atom.Section, "class", "group", "id", g.String("id")))
	if err := r.heading(section, level, nil, g.String("title")); err != nil {
		return fmt.Errorf("group %s: %w", g.String("id"), err)
	}
	if err := r.parts(section, g.Array("parts"), level+1); err != nil {
		return fmt.Errorf("group %s: %w", g.String("id"), err)
	}
	return r.children(section, g, level+1)
}

func (r *renderer) control(parent *html.Node, c *document.Object, level int) error {
	id := c.String("id")
	section := add(parent, element(atom.Section, "class", "control", "id", id))

	label := id
	for _, v := range c.Array("props") {
		if p, ok := v.(*document.Object); ok && p.String("name") == "label" {
			label = p.String("value")
			break
		}
	}
	span := element(atom.Span, "class", "label")
	add(span, text(label))
	if err := r.heading(section, level, []*html.Node{span, text(" ")}, c.String("title")); err != nil {
		return fmt.Errorf("control %s: %w", id, err)
	}
	if err := r.parts(section, c.Array("parts"), level+1); err != nil {
		return fmt.Errorf("control %s: %w", id, err)
	}
	return r.children(section, c, level+1)
}

func (r *renderer) parts(parent *html.Node, parts []any, level int) error {
	for _, v := range parts {
		p, ok := v.(*document.Object)
		if !ok {
			continue
		}
		attrs := []string{"class", "part " + p.String("name")}
		if id := p.String("id"); id != "" {
			attrs = append(attrs, "id", id)
		}
		div := add(parent, element(atom.Div, attrs...))
		if title := p.String("title"); title != "" {
			if err := r.heading(div, level, nil, title); err != nil {
				return err
			}
		}
		if prose := p.String("prose"); prose != "" {
			nodes, err := r.markup(prose, atom.Div)
			if err != nil {
				return fmt.Errorf("part %s: %w", p.String("id"), err)
			}
			appendAll(div, nodes...)
		}
		if err := r.parts(div, p.Array("parts"), level+1); err != nil {
			return err
		}
	}
	return nil
}

var headings = []atom.Atom{atom.H1, atom.H2, atom.H3, atom.H4, atom.H5, atom.H6}

func (r *renderer) heading(parent *html.Node, level int, prefix []*html.Node, title string) error {
	if level > len(headings) {
		level = len(headings)
	}
	tag := headings[level-1]
	nodes, err := r.markup(title, tag)
	if err != nil {
		return err
	}
	h := add(parent, element(tag))
	appendAll(h, prefix...)
	appendAll(h, nodes...)
	return nil
}

// markup parses an XHTML fragment in the context of an element and
// replaces parameter inserts with their text.
func (r *renderer) markup(s string, context atom.Atom) ([]*html.Node, error) {
	if s == "" {
		return nil, nil
	}
	ctx := &html.Node{Type: html.ElementNode, DataAtom: context, Data: context.String()}
	nodes, err := html.ParseFragment(strings.NewReader(s), ctx)
	if err != nil {
		return nil, err
	}
	holder := &html.Node{Type: html.ElementNode, DataAtom: atom.Div, Data: "div"}
	appendAll(holder, nodes...)
	r.replaceInserts(holder)

	var out []*html.Node
	for c := holder.FirstChild; c != nil; {
		next := c.NextSibling
		holder.RemoveChild(c)
		out = append(out, c)
		c = next
	}
	return out, nil
}

// replaceInserts swaps <insert type="param" id-ref="..."> elements for a
// span holding the parameter text. The HTML parser does not know insert is
// empty, so anything it nested inside is moved after the span.
func (r *renderer) replaceInserts(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.ElementNode && c.Data == "insert" {
			span := element(atom.Span, "class", "insert")
			add(span, text(r.insertText(attr(c, "id-ref"))))
			n.InsertBefore(span, c)
			for gc := c.FirstChild; gc != nil; {
				gnext := gc.NextSibling
				c.RemoveChild(gc)
				n.InsertBefore(gc, c)
				gc = gnext
			}
			n.RemoveChild(c)
			next = span.NextSibling
		} else {
			r.replaceInserts(c)
		}
		c = next
	}
}

func (r *renderer) insertText(id string) string {
	p, ok := r.params[id]
	if !ok {
		return "[" + id + "]"
	}
	return paramText(p)
}

// paramText is the value of a parameter, or a description of what is
// expected when it has none.
func paramText(p *document.Object) string {
	var values []string
	for _, v := range p.Array("values") {
		if s, ok := v.(string); ok {
			values = append(values, s)
		}
	}
	if len(values) > 0 {
		return strings.Join(values, ", ")
	}
	if sel, ok := p.Object("select"); ok {
		var choices []string
		for _, v := range sel.Array("choice") {
			if s, ok := v.(string); ok {
				choices = append(choices, stripTags(s))
			}
		}
		prefix := "Selection"
		if sel.String("how-many") == "one-or-more" {
			prefix = "Selection (one or more)"
		}
		return "[" + prefix + ": " + strings.Join(choices, "; ") + "]"
	}
	if label := p.String("label"); label != "" {
		return "[Assignment: " + stripTags(label) + "]"
	}
	return "[Assignment: " + p.String("id") + "]"
}

func element(a atom.Atom, attrs ...string) *html.Node {
	n := &html.Node{Type: html.ElementNode, DataAtom: a, Data: a.String()}
	for i := 0; i+1 < len(attrs); i += 2 {
		n.Attr = append(n.Attr, html.Attribute{Key: attrs[i], Val: attrs[i+1]})
	}
	return n
}

func text(s string) *html.Node {
	return &html.Node{Type: html.TextNode, Data: s}
}

// add appends n to parent and returns n.
func add(parent, n *html.Node) *html.Node {
	parent.AppendChild(n)
	return n
}

func appendAll(parent *html.Node, nodes ...*html.Node) {
	for _, n := range nodes {
		parent.AppendChild(n)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func plainText(nodes []*html.Node) string {
	var sb strings.Builder
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range nodes {
		walk(n)
	}
	return sb.String()
}

func stripTags(s string) string {
	nodes, err := html.ParseFragment(strings.NewReader(s), &html.Node{Type: html.ElementNode, DataAtom: atom.Span, Data: "span"})
	if err != nil {
		return s
	}
	return plainText(nodes)
}
