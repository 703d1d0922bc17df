package validation

import (
	"errors"
	"testing"

	"github.com/golang/mock/gomock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clems4ever/oscal-cli/document"
	"github.com/clems4ever/oscal-cli/format"
)

type pipelineMocks struct {
	xml         *MockSchemaValidator
	json        *MockSchemaValidator
	constraints *MockConstraintEngine
	pipeline    *Pipeline
}

func newPipelineMocks(t *testing.T) *pipelineMocks {
	ctrl := gomock.NewController(t)
	m := &pipelineMocks{
		xml:         NewMockSchemaValidator(ctrl),
		json:        NewMockSchemaValidator(ctrl),
		constraints: NewMockConstraintEngine(ctrl),
	}
	m.pipeline = &Pipeline{
		Loader:      noteLoader(t),
		XMLSchema:   m.xml,
		JSONSchema:  m.json,
		Constraints: m.constraints,
	}
	return m
}

func finding(src Source, sev Severity, msg string) Finding {
	return Finding{Source: src, Severity: sev, Message: msg}
}

const noteJSON = `{"note": {"id": "n1", "title": "t"}}`

func TestPipeline_SchemaErrorSkipsConstraints(t *testing.T) {
	m := newPipelineMocks(t)
	m.json.EXPECT().ValidateSchema(gomock.Any()).Return([]Finding{
		finding(JSONSchemaSource, Warning, "w"),
		finding(JSONSchemaSource, Error, "e"),
	}, nil)
	// no expectation on m.constraints: a call fails the test

	outcome, err := m.pipeline.ValidateBytes("note.json", []byte(noteJSON), 0)
	require.NoError(t, err)
	assert.False(t, outcome.Passed)
	assert.Equal(t, SchemaStage, outcome.Stage)
	assert.Equal(t, format.JSON, outcome.Format)
	assert.Len(t, outcome.Findings, 2)
}

func TestPipeline_SeverityThreshold(t *testing.T) {
	tests := []struct {
		name   string
		found  []Finding
		passed bool
	}{
		{"no findings", nil, true},
		{"warning only", []Finding{finding(ConstraintSource, Warning, "w")}, true},
		{"informational", []Finding{finding(ConstraintSource, Informational, "i")}, true},
		{"error", []Finding{finding(ConstraintSource, Warning, "w"), finding(ConstraintSource, Error, "e")}, false},
		{"critical only", []Finding{finding(ConstraintSource, Critical, "c")}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newPipelineMocks(t)
			m.json.EXPECT().ValidateSchema(gomock.Any()).Return(nil, nil)
			m.constraints.EXPECT().Evaluate(gomock.Any()).Return(tt.found, nil)

			outcome, err := m.pipeline.ValidateBytes("note.json", []byte(noteJSON), format.JSON)
			require.NoError(t, err)
			assert.Equal(t, tt.passed, outcome.Passed)
			assert.Equal(t, ConstraintStage, outcome.Stage)
			assert.Equal(t, len(tt.found), len(outcome.Findings))
		})
	}
}

func TestPipeline_FindingOrder(t *testing.T) {
	m := newPipelineMocks(t)
	m.json.EXPECT().ValidateSchema(gomock.Any()).Return([]Finding{finding(JSONSchemaSource, Warning, "schema")}, nil)
	m.constraints.EXPECT().Evaluate(gomock.Any()).Return([]Finding{
		finding(ConstraintSource, Informational, "first"),
		finding(ConstraintSource, Warning, "second"),
	}, nil)

	outcome, err := m.pipeline.ValidateBytes("note.json", []byte(noteJSON), 0)
	require.NoError(t, err)
	var messages []string
	for _, f := range outcome.Findings {
		messages = append(messages, f.Message)
	}
	assert.Equal(t, []string{"schema", "first", "second"}, messages)
	assert.Equal(t, Warning, outcome.Highest())
}

func TestPipeline_RoutesByFormat(t *testing.T) {
	yamlData := []byte("note:\n  id: n1\n  title: t\n")
	xmlData := []byte(`<note xmlns="http://example.com/ns/note" id="n1"><title>t</title></note>`)

	m := newPipelineMocks(t)
	m.json.EXPECT().
		ValidateSchema(Input{Path: "note.yaml", Format: format.YAML, Data: yamlData}).
		Return(nil, nil)
	m.xml.EXPECT().
		ValidateSchema(Input{Path: "note.xml", Format: format.XML, Data: xmlData}).
		Return(nil, nil)
	m.constraints.EXPECT().Evaluate(gomock.Any()).DoAndReturn(func(doc *document.Document) ([]Finding, error) {
		assert.Equal(t, "note", doc.Model)
		root, ok := doc.RootObject()
		require.True(t, ok)
		assert.Equal(t, "n1", root.String("id"))
		return nil, nil
	}).Times(2)

	outcome, err := m.pipeline.ValidateBytes("note.yaml", yamlData, 0)
	require.NoError(t, err)
	assert.Equal(t, format.YAML, outcome.Format)

	outcome, err = m.pipeline.ValidateBytes("note.xml", xmlData, 0)
	require.NoError(t, err)
	assert.Equal(t, format.XML, outcome.Format)
}

func TestPipeline_DeclaredFormatWins(t *testing.T) {
	m := newPipelineMocks(t)
	m.json.EXPECT().ValidateSchema(gomock.Any()).DoAndReturn(func(in Input) ([]Finding, error) {
		assert.Equal(t, format.YAML, in.Format)
		return []Finding{finding(JSONSchemaSource, Error, "e")}, nil
	})

	outcome, err := m.pipeline.ValidateBytes("note.json", []byte(noteJSON), format.YAML)
	require.NoError(t, err)
	assert.Equal(t, format.YAML, outcome.Format)
}

func TestPipeline_Undetectable(t *testing.T) {
	m := newPipelineMocks(t)
	_, err := m.pipeline.ValidateBytes("note.txt", []byte("plain words"), 0)
	assert.ErrorIs(t, err, format.ErrUndetectable)
}

func TestPipeline_ValidatorFailure(t *testing.T) {
	m := newPipelineMocks(t)
	boom := errors.New("boom")
	m.json.EXPECT().ValidateSchema(gomock.Any()).Return(nil, boom)

	_, err := m.pipeline.ValidateBytes("note.json", []byte(noteJSON), 0)
	assert.ErrorIs(t, err, boom)
}

func TestPipeline_ConstraintFailure(t *testing.T) {
	m := newPipelineMocks(t)
	boom := errors.New("boom")
	m.json.EXPECT().ValidateSchema(gomock.Any()).Return(nil, nil)
	m.constraints.EXPECT().Evaluate(gomock.Any()).Return(nil, boom)

	_, err := m.pipeline.ValidateBytes("note.json", []byte(noteJSON), 0)
	assert.ErrorIs(t, err, boom)
}

func TestPipeline_WithoutConstraints(t *testing.T) {
	m := newPipelineMocks(t)
	m.pipeline.Constraints = nil
	m.json.EXPECT().ValidateSchema(gomock.Any()).Return([]Finding{finding(JSONSchemaSource, Warning, "w")}, nil)

	outcome, err := m.pipeline.ValidateBytes("note.json", []byte(noteJSON), 0)
	require.NoError(t, err)
	assert.True(t, outcome.Passed)
	assert.Equal(t, SchemaStage, outcome.Stage)
}

func TestPipeline_MissingFile(t *testing.T) {
	m := newPipelineMocks(t)
	_, err := m.pipeline.Validate("testdata/missing.json", 0)
	assert.Error(t, err)
}

func TestPipeline_RealValidators(t *testing.T) {
	xsdSrc, jsonSrc := noteSchemas(t)
	xv, err := NewXMLSchemaValidator(xsdSrc)
	require.NoError(t, err)
	defer xv.Close()
	jv, err := NewJSONSchemaValidator(jsonSrc)
	require.NoError(t, err)

	p := &Pipeline{Loader: noteLoader(t), XMLSchema: xv, JSONSchema: jv}
	for _, path := range []string{"testdata/note.xml", "testdata/note.json", "testdata/note.yaml"} {
		outcome, err := p.Validate(path, 0)
		require.NoError(t, err, path)
		assert.True(t, outcome.Passed, path)
		assert.Empty(t, outcome.Findings, path)
	}

	outcome, err := p.Validate("testdata/invalid.yaml", 0)
	require.NoError(t, err)
	assert.False(t, outcome.Passed)
}
