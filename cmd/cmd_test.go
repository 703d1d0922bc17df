package cmd

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clems4ever/oscal-cli/cli"
	"github.com/clems4ever/oscal-cli/document"
	"github.com/clems4ever/oscal-cli/format"
	"github.com/clems4ever/oscal-cli/model"
)

const (
	catalogJSON    = "../model/testdata/catalog.json"
	catalogXML     = "../model/testdata/catalog.xml"
	catalogWarning = "../model/testdata/catalog-warning.yaml"
	catalogInvalid = "../model/testdata/catalog-invalid.json"
	profileJSON    = "../profile/testdata/profile.json"
	cycleJSON      = "../profile/testdata/cycle-a.json"
	catalogDef     = "../model/definitions/oscal_catalog_metaschema.xml"
)

type harness struct {
	stdout bytes.Buffer
	stderr bytes.Buffer
}

func registry(t *testing.T) *model.Registry {
	t.Helper()
	reg, err := model.Default()
	require.NoError(t, err)
	return reg
}

func (h *harness) run(t *testing.T, args ...string) cli.ExitStatus {
	t.Helper()
	h.stdout.Reset()
	h.stderr.Reset()
	p := &cli.Processor{
		Exec:   Exec,
		Root:   NewRoot(registry(t)),
		Stdout: &h.stdout,
		Stderr: &h.stderr,
		Getenv: func(string) string { return "" },
	}
	return p.Process(args)
}

func load(t *testing.T, path string) *document.Document {
	t.Helper()
	doc, err := registry(t).Context().NewLoader().Load(path, 0)
	require.NoError(t, err)
	return doc
}

func TestHelp_ListsModels(t *testing.T) {
	h := &harness{}
	status := h.run(t, "profile")

	assert.Equal(t, cli.OK, status.Code())
	for _, name := range []string{"validate", "convert", "render", "resolve"} {
		assert.Contains(t, h.stdout.String(), name)
	}

	status = h.run(t, "--help")
	assert.Equal(t, cli.OK, status.Code())
	for _, name := range []string{"catalog", "profile", "ssp", "metaschema", "completion"} {
		assert.Contains(t, h.stdout.String(), name)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		args   []string
		code   cli.ExitCode
		stderr []string
	}{
		{
			name:   "valid json",
			args:   []string{"catalog", "validate", catalogJSON},
			code:   cli.OK,
			stderr: []string{"The file '" + catalogJSON + "' is valid."},
		},
		{
			name:   "valid xml",
			args:   []string{"catalog", "validate", catalogXML},
			code:   cli.OK,
			stderr: []string{"is valid."},
		},
		{
			name: "warnings pass",
			args: []string{"catalog", "validate", catalogWarning},
			code: cli.OK,
			stderr: []string{
				"The file '" + catalogWarning + "' has constraint validation issue(s). The issues are:",
				"control ac-1 has no statement part",
				"is valid.",
			},
		},
		{
			name:   "schema errors fail",
			args:   []string{"catalog", "validate", catalogInvalid},
			code:   cli.Fail,
			stderr: []string{"The file '" + catalogInvalid + "' has schema validation issue(s). The issues are:"},
		},
		{
			name:   "declared format",
			args:   []string{"catalog", "validate", "--as=JSON", catalogJSON},
			code:   cli.OK,
			stderr: []string{"is valid."},
		},
		{
			name:   "metaschema definition",
			args:   []string{"metaschema", "validate", catalogDef},
			code:   cli.OK,
			stderr: []string{"is valid."},
		},
		{
			name:   "metaschema as json",
			args:   []string{"metaschema", "validate", catalogJSON},
			code:   cli.Fail,
			stderr: []string{"unsupported"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := &harness{}
			status := h.run(t, tt.args...)
			assert.Equal(t, tt.code, status.Code(), h.stderr.String())
			for _, want := range tt.stderr {
				assert.Contains(t, h.stderr.String(), want)
			}
		})
	}
}

func TestValidate_InvalidArguments(t *testing.T) {
	tests := []struct {
		args    []string
		message string
	}{
		{[]string{"catalog", "validate"}, "The file to validate must be provided."},
		{[]string{"catalog", "validate", "missing.json"}, "The provided source file 'missing.json' does not exist."},
		{[]string{"catalog", "validate", "--as=toml", catalogJSON}, "Invalid '--as' argument. The format must be one of: xml, json, and yaml."},
		{[]string{"metaschema", "validate", "--as=json", catalogDef}, "Invalid '--as' argument. The format must be one of: xml."},
		{[]string{"catalog", "validate", "-c", "missing.hcl", catalogJSON}, "The provided external constraint file 'missing.hcl' does not exist."},
	}
	for _, tt := range tests {
		t.Run(strings.Join(tt.args, " "), func(t *testing.T) {
			h := &harness{}
			status := h.run(t, tt.args...)
			assert.Equal(t, cli.InvalidCommand, status.Code())
			assert.Equal(t, tt.message, status.Message())
			assert.Contains(t, h.stdout.String(), "usage: oscal-cli")
		})
	}
}

func TestValidate_ExtraConstraints(t *testing.T) {
	dir := t.TempDir()
	rules := filepath.Join(dir, "rules.hcl")
	require.NoError(t, os.WriteFile(rules, []byte(`
constraint "no-au" {
  target  = "catalog.groups[*]"
  test    = id != "au"
  message = "group ${id} is not allowed"
}
`), 0o644))

	h := &harness{}
	status := h.run(t, "catalog", "validate", "-c", rules, catalogJSON)
	assert.Equal(t, cli.Fail, status.Code())
	assert.Contains(t, h.stderr.String(), "group au is not allowed")
	assert.Contains(t, h.stderr.String(), "constraint validation issue(s)")

	broken := filepath.Join(dir, "broken.hcl")
	require.NoError(t, os.WriteFile(broken, []byte(`constraint {`), 0o644))
	status = h.run(t, "catalog", "validate", "--constraint", broken, catalogJSON)
	assert.Equal(t, cli.Fail, status.Code())
	assert.Equal(t, "Unable to load constraint set '"+broken+"'.", status.Message())
	assert.Error(t, status.Cause())
}

func TestValidate_Undetectable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("just some words\n"), 0o644))

	h := &harness{}
	status := h.run(t, "catalog", "validate", path)
	assert.Equal(t, cli.InputError, status.Code())
	assert.Contains(t, status.Message(), "unrecognizable format")
	assert.ErrorIs(t, status.Cause(), format.ErrUndetectable)
}

func TestValidate_Quiet(t *testing.T) {
	h := &harness{}
	status := h.run(t, "-q", "catalog", "validate", catalogWarning)
	assert.Equal(t, cli.OK, status.Code())
	assert.Empty(t, h.stderr.String())
}

func TestConvert_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	asJSON := filepath.Join(dir, "catalog.json")
	asXML := filepath.Join(dir, "out", "catalog.xml")

	h := &harness{}
	status := h.run(t, "catalog", "convert", "--to=json", catalogXML, asJSON)
	require.Equal(t, cli.OK, status.Code(), h.stderr.String())
	assert.Equal(t, "Generated json file: "+asJSON, status.Message())

	status = h.run(t, "catalog", "convert", "--to", "xml", asJSON, asXML)
	require.Equal(t, cli.OK, status.Code(), h.stderr.String())

	original, back := load(t, catalogXML), load(t, asXML)
	assert.Equal(t, format.XML, back.Format)
	assert.True(t, document.Equal(original.Root, back.Root))
}

func TestConvert_Stdout(t *testing.T) {
	h := &harness{}
	status := h.run(t, "catalog", "convert", "--to=yaml", catalogJSON)
	require.Equal(t, cli.OK, status.Code())
	assert.Empty(t, status.Message())
	assert.True(t, strings.HasPrefix(h.stdout.String(), "catalog:"), h.stdout.String())
}

func TestConvert_Refusals(t *testing.T) {
	h := &harness{}

	status := h.run(t, "catalog", "convert", "--to=json", catalogJSON)
	assert.Equal(t, cli.Fail, status.Code())
	assert.Equal(t, "Source and destination are the same format 'json'.", status.Message())

	status = h.run(t, "ssp", "convert", "--to=xml", catalogJSON)
	assert.Equal(t, cli.Fail, status.Code())
	assert.Equal(t, "The file '"+catalogJSON+"' holds a catalog, not a system-security-plan.", status.Message())

	status = h.run(t, "catalog", "convert", catalogJSON)
	assert.Equal(t, cli.InvalidCommand, status.Code())
	assert.Equal(t, "missing required option: --to", status.Message())

	status = h.run(t, "catalog", "convert", "--to=csv", catalogJSON)
	assert.Equal(t, cli.InvalidCommand, status.Code())
	assert.Equal(t, "Invalid '--to' argument. The format must be one of: xml, json, and yaml.", status.Message())
}

func TestConvert_DestinationExists(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(dst, []byte("keep me"), 0o644))

	h := &harness{}
	status := h.run(t, "catalog", "convert", "--to=yaml", catalogJSON, dst)
	assert.Equal(t, cli.Fail, status.Code())
	assert.Contains(t, status.Message(), "'"+dst+"' already exists")

	content, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Equal(t, "keep me", string(content))

	status = h.run(t, "catalog", "convert", "--to=yaml", "--overwrite", catalogJSON, dst)
	require.Equal(t, cli.OK, status.Code())
	assert.Equal(t, "catalog", load(t, dst).Model)

	entries, err := os.ReadDir(filepath.Dir(dst))
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestResolve(t *testing.T) {
	h := &harness{}
	status := h.run(t, "profile", "resolve", "--to=json", profileJSON)
	require.Equal(t, cli.OK, status.Code(), h.stderr.String())

	var out map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &out))
	require.Contains(t, out, "catalog")

	dst := filepath.Join(t.TempDir(), "resolved.xml")
	status = h.run(t, "profile", "resolve", "--as=json", "--to=xml", profileJSON, dst)
	require.Equal(t, cli.OK, status.Code(), h.stderr.String())
	assert.Equal(t, "Generated xml file: "+dst, status.Message())
	assert.Equal(t, "catalog", load(t, dst).Model)
}

func TestResolve_Failures(t *testing.T) {
	h := &harness{}

	status := h.run(t, "profile", "resolve", "--to=json", catalogJSON)
	assert.Equal(t, cli.Fail, status.Code())
	assert.Equal(t, "The file '"+catalogJSON+"' is already a catalog.", status.Message())

	status = h.run(t, "profile", "resolve", "--to=json", cycleJSON)
	assert.Equal(t, cli.ProcessingError, status.Code())
	assert.Contains(t, status.Message(), "Unable to resolve profile '"+cycleJSON+"'.")
	assert.Contains(t, status.Message(), "import cycle")
	assert.Empty(t, h.stdout.String())

	status = h.run(t, "profile", "resolve", "--as=csv", "--to=json", profileJSON)
	assert.Equal(t, cli.InvalidCommand, status.Code())
}

func TestRender_Catalog(t *testing.T) {
	dst := filepath.Join(t.TempDir(), "catalog.html")

	h := &harness{}
	status := h.run(t, "catalog", "render", catalogJSON, dst)
	require.Equal(t, cli.OK, status.Code(), h.stderr.String())
	assert.Equal(t, "Generated HTML file: "+dst, status.Message())

	page, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(page), "<!DOCTYPE html>"))
	assert.Contains(t, string(page), `id="ac-1"`)
	assert.Contains(t, string(page), "Test Catalog")
}

func TestRender_ProfileRemovesTemporaryCatalog(t *testing.T) {
	tmp := t.TempDir()
	t.Setenv("TMPDIR", tmp)
	dst := filepath.Join(t.TempDir(), "profile.html")

	h := &harness{}
	status := h.run(t, "profile", "render", profileJSON, dst)
	require.Equal(t, cli.OK, status.Code(), h.stderr.String())

	page, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(page), `id="ac-1"`)
	assert.NotContains(t, string(page), `id="au-1"`)

	entries, err := os.ReadDir(tmp)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestRender_Failures(t *testing.T) {
	h := &harness{}

	status := h.run(t, "catalog", "render", catalogJSON)
	assert.Equal(t, cli.InvalidCommand, status.Code())
	assert.Equal(t, "The destination file must be provided.", status.Message())

	dst := filepath.Join(t.TempDir(), "profile.html")
	status = h.run(t, "catalog", "render", profileJSON, dst)
	assert.Equal(t, cli.Fail, status.Code())
	assert.NoFileExists(t, dst)
}

func TestGenerateSchema(t *testing.T) {
	h := &harness{}
	status := h.run(t, "metaschema", "generate-schema", "--as=json", catalogDef)
	require.Equal(t, cli.OK, status.Code(), h.stderr.String())
	assert.Empty(t, h.stderr.String())

	var schema map[string]any
	require.NoError(t, json.Unmarshal(h.stdout.Bytes(), &schema))
	assert.Contains(t, schema, "$schema")
	assert.Contains(t, schema["properties"], "catalog")

	dst := filepath.Join(t.TempDir(), "catalog.xsd")
	status = h.run(t, "metaschema", "generate-schema", "--as=xml", "--inline-types", catalogDef, dst)
	require.Equal(t, cli.OK, status.Code(), h.stderr.String())
	assert.Equal(t, "Generated xml schema file: "+dst, status.Message())

	xsd, err := os.ReadFile(dst)
	require.NoError(t, err)
	assert.Contains(t, string(xsd), "schema")
	assert.Contains(t, string(xsd), `name="catalog"`)
}

func TestGenerateSchema_InvalidArguments(t *testing.T) {
	h := &harness{}

	status := h.run(t, "metaschema", "generate-schema", "--as=yaml", catalogDef)
	assert.Equal(t, cli.InvalidCommand, status.Code())
	assert.Equal(t, "Invalid '--as' argument. The format must be one of: xml and json.", status.Message())

	status = h.run(t, "metaschema", "generate-schema", "--as=xml", "nope.xml")
	assert.Equal(t, cli.InvalidCommand, status.Code())
	assert.Equal(t, "The provided metaschema 'nope.xml' does not exist.", status.Message())

	status = h.run(t, "metaschema", "generate-schema", "--as=xml", catalogJSON)
	assert.Equal(t, cli.Fail, status.Code())
	assert.Equal(t, "Unable to load the metaschema '"+catalogJSON+"'.", status.Message())
}

func TestCompletion(t *testing.T) {
	h := &harness{}
	status := h.run(t, "completion", "bash")
	require.Equal(t, cli.OK, status.Code())
	assert.Contains(t, h.stdout.String(), "__start_oscal-cli")

	status = h.run(t, "completion", "tcsh")
	assert.Equal(t, cli.InvalidCommand, status.Code())
	assert.Equal(t, "Invalid shell 'tcsh'. The shell must be one of: bash, fish, powershell, and zsh.", status.Message())
}

func TestComplete(t *testing.T) {
	root := NewRoot(registry(t))
	assert.True(t, IsCompletionRequest([]string{"__complete", "catalog"}))
	assert.False(t, IsCompletionRequest([]string{"catalog", "__complete"}))

	var buf bytes.Buffer
	require.NoError(t, Complete(&buf, root, []string{"__complete", "catalog", ""}))
	for _, want := range []string{"validate", "convert", "render"} {
		assert.Contains(t, buf.String(), want)
	}
	assert.NotContains(t, buf.String(), "resolve")

	buf.Reset()
	require.NoError(t, Complete(&buf, root, []string{"__completeNoDesc", "profile", "convert", "--to", ""}))
	for _, want := range format.Names() {
		assert.Contains(t, buf.String(), want)
	}
}
