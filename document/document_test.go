package document

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clems4ever/oscal-cli/format"
	"github.com/clems4ever/oscal-cli/metaschema"
)

const bookJSON = `{"book":{"id":"b1","pages":120,"title":"Go <em>in</em> practice",` +
	`"links":[{"href":"https://example.com","text":"Home"},{"href":"#c1"}],` +
	`"chapters":[{"id":"c1","title":"Start","prose":"<p>First paragraph.</p>\n<ul><li>one</li></ul>","notes":"<p>Note</p>"}],` +
	`"draft":true}}`

func bookContext(t *testing.T) *Context {
	t.Helper()
	ms, err := metaschema.ParseFile("testdata/book_metaschema.xml")
	require.NoError(t, err)
	b, err := NewBinding(ms, "book")
	require.NoError(t, err)
	return NewContext(b, NewGenericBinding("shelf", ""))
}

// treeDiff compares node trees through their JSON text, which keeps member
// order significant.
func treeDiff(t *testing.T, want, got any) string {
	t.Helper()
	w, err := MarshalJSON(want)
	require.NoError(t, err)
	g, err := MarshalJSON(got)
	require.NoError(t, err)
	return cmp.Diff(string(w), string(g))
}

func TestLoad_XML(t *testing.T) {
	doc, err := bookContext(t).NewLoader().Load("testdata/book.xml", 0)
	require.NoError(t, err)

	assert.Equal(t, format.XML, doc.Format)
	assert.Equal(t, "book", doc.Model)

	got, err := MarshalJSON(doc.Tree())
	require.NoError(t, err)
	assert.Equal(t, bookJSON, string(got))
}

func TestLoad_YAMLMatchesXML(t *testing.T) {
	loader := bookContext(t).NewLoader()
	fromXML, err := loader.Load("testdata/book.xml", format.XML)
	require.NoError(t, err)
	fromYAML, err := loader.Load("testdata/book.yaml", 0)
	require.NoError(t, err)

	assert.Equal(t, format.YAML, fromYAML.Format)
	assert.Empty(t, treeDiff(t, fromXML.Tree(), fromYAML.Tree()))
}

func TestRoundTrip(t *testing.T) {
	ctx := bookContext(t)
	loader, serializer := ctx.NewLoader(), ctx.NewSerializer()
	original, err := loader.Load("testdata/book.xml", 0)
	require.NoError(t, err)

	for _, first := range format.All() {
		for _, second := range format.All() {
			var buf bytes.Buffer
			require.NoError(t, serializer.Write(&buf, original, first), "%s", first)
			converted, err := loader.Decode(buf.Bytes(), 0, "converted")
			require.NoError(t, err, "%s:\n%s", first, buf.String())
			assert.Equal(t, first, converted.Format)

			buf.Reset()
			require.NoError(t, serializer.Write(&buf, converted, second))
			back, err := loader.Decode(buf.Bytes(), second, "back")
			require.NoError(t, err, "%s -> %s:\n%s", first, second, buf.String())

			assert.Empty(t, treeDiff(t, original.Tree(), back.Tree()), "%s -> %s", first, second)
		}
	}
}

func TestSerializer_XMLLayout(t *testing.T) {
	ctx := bookContext(t)
	doc, err := ctx.NewLoader().Decode([]byte(bookJSON), format.JSON, "book.json")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ctx.NewSerializer().Write(&buf, doc, format.XML))
	out := buf.String()

	assert.True(t, strings.HasPrefix(out, `<?xml version="1.0" encoding="UTF-8"?>`))
	assert.Contains(t, out, `<book xmlns="http://example.com/ns/book" id="b1" pages="120">`)
	assert.Contains(t, out, `  <title>Go <em>in</em> practice</title>`)
	assert.Contains(t, out, `  <link href="#c1"/>`)
	assert.Contains(t, out, "    <p>First paragraph.</p>\n<ul><li>one</li></ul>\n")
	assert.Contains(t, out, `<draft>true</draft>`)
}

func TestSerializer_JSONIsIndented(t *testing.T) {
	ctx := bookContext(t)
	doc, err := ctx.NewLoader().Decode([]byte(bookJSON), format.JSON, "book.json")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, ctx.NewSerializer().Write(&buf, doc, format.JSON))

	var indented bytes.Buffer
	require.NoError(t, json.Indent(&indented, []byte(bookJSON), "", "  "))
	assert.Equal(t, indented.String()+"\n", buf.String())
}

func TestDecode_Errors(t *testing.T) {
	loader := bookContext(t).NewLoader()

	tests := []struct {
		name    string
		content string
		f       format.Format
		want    string
	}{
		{"unknown xml root", `<magazine/>`, format.XML, "unknown model"},
		{"unknown json root", `{"magazine": {}}`, format.JSON, "unknown model"},
		{"two roots", `{"book": {}, "other": {}}`, format.JSON, "exactly one root member"},
		{"not an object", `[1]`, format.JSON, "not an object"},
		{"unexpected element", `<book id="x"><title>t</title><author/></book>`, format.XML, `unexpected element "author"`},
		{"unexpected attribute", `<book id="x" color="red"/>`, format.XML, `unexpected attribute "color"`},
		{"repeated single", `<book><title>a</title><title>b</title></book>`, format.XML, `element "title" occurs 2 times`},
		{"trailing json", `{"book": {}} {}`, format.JSON, "unexpected data"},
		{"generic as json", `{"shelf": {}}`, format.JSON, "cannot be read as JSON"},
		{"undetectable", `plain words`, 0, "unable to detect format"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := loader.Decode([]byte(tt.content), tt.f, "input")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecode_UnknownModelIsMatchable(t *testing.T) {
	_, err := bookContext(t).NewLoader().Decode([]byte(`<magazine/>`), format.XML, "m.xml")
	assert.ErrorIs(t, err, ErrUnknownModel)
}

func TestSerializer_Errors(t *testing.T) {
	ctx := bookContext(t)
	serializer := ctx.NewSerializer()

	tree, err := ParseJSON([]byte(`{"id": "b1", "title": "t", "author": "me"}`))
	require.NoError(t, err)
	err = serializer.Write(&bytes.Buffer{}, &Document{Model: "book", Root: tree}, format.XML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `/book: unknown property "author"`)

	tree, err = ParseJSON([]byte(`{"id": "b1", "title": "<em>broken"}`))
	require.NoError(t, err)
	err = serializer.Write(&bytes.Buffer{}, &Document{Model: "book", Root: tree}, format.XML)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid markup")

	err = serializer.Write(&bytes.Buffer{}, &Document{Model: "shelf", Root: NewObject()}, format.XML)
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestGenericBinding(t *testing.T) {
	doc, err := bookContext(t).NewLoader().Decode([]byte(
		`<shelf owner="me"><item>a</item><item>b</item><note>some <b>bold</b> text</note></shelf>`,
	), 0, "shelf.xml")
	require.NoError(t, err)

	got, err := MarshalJSON(doc.Root)
	require.NoError(t, err)
	assert.Equal(t, `{"owner":"me","item":["a","b"],"note":[{"text":"some <b>bold</b> text"}]}`, string(got))
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := bookContext(t).NewLoader().Load(filepath.Join(t.TempDir(), "missing.xml"), 0)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
