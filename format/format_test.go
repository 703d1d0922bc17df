package format

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup(t *testing.T) {
	for _, name := range []string{"xml", "XML", "Xml"} {
		f, err := Lookup(name)
		require.NoError(t, err)
		assert.Equal(t, XML, f)
	}

	f, err := Lookup("yaml")
	require.NoError(t, err)
	assert.Equal(t, YAML, f)

	_, err = Lookup("toml")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrUnknownFormat))
	assert.Contains(t, err.Error(), "xml, json, and yaml")
}

func TestFormatProperties(t *testing.T) {
	assert.Equal(t, ".json", JSON.DefaultExtension())
	assert.Equal(t, "json", JSON.Name())
	assert.Equal(t, "JSON", JSON.String())
	assert.Equal(t, "application/yaml", YAML.BindingFormat())
	assert.False(t, Format(0).Valid())
	assert.True(t, XML.Valid())
}

func TestFromExtension(t *testing.T) {
	tests := map[string]Format{
		"a/catalog.xml":  XML,
		"catalog.JSON":   JSON,
		"catalog.yaml":   YAML,
		"catalog.yml":    YAML,
	}
	for path, want := range tests {
		got, ok := FromExtension(path)
		assert.True(t, ok, path)
		assert.Equal(t, want, got, path)
	}
	_, ok := FromExtension("catalog.txt")
	assert.False(t, ok)
}

func TestDetect(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    Format
	}{
		{"xml declaration", `<?xml version="1.0"?><catalog/>`, XML},
		{"xml with bom", "\xEF\xBB\xBF\n  <catalog/>", XML},
		{"json object", "\n{\"catalog\": {}}", JSON},
		{"json array", "[1, 2]", JSON},
		{"yaml marker", "---\ncatalog: {}\n", YAML},
		{"yaml key", "catalog:\n  uuid: abc\n", YAML},
		{"yaml comment first", "# a comment\n\ncatalog:\n", YAML},
		{"yaml sequence", "- a\n- b\n", YAML},
		{"yaml quoted key", "\"catalog\": 1\n", YAML},
		{"yaml directive", "%YAML 1.2\n---\n", YAML},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Detect([]byte(tt.content))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect_Undetectable(t *testing.T) {
	for _, content := range []string{"", "   \n\t", "just some prose", "# only a comment\n"} {
		_, err := Detect([]byte(content))
		assert.ErrorIs(t, err, ErrUndetectable, "content %q", content)
	}
}

func TestDetectReader(t *testing.T) {
	f, err := DetectReader(strings.NewReader("catalog:\n  metadata: {}\n"))
	require.NoError(t, err)
	assert.Equal(t, YAML, f)
}

func TestJoinNames(t *testing.T) {
	assert.Equal(t, "", JoinNames(nil))
	assert.Equal(t, "a", JoinNames([]string{"a"}))
	assert.Equal(t, "a and b", JoinNames([]string{"a", "b"}))
	assert.Equal(t, "a, b, and c", JoinNames([]string{"a", "b", "c"}))
}
