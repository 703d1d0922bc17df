package cli

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testTree() *Parent {
	noop := func(*Context) ExitStatus { return OK.Exit() }
	return NewParent("oscal-cli", "",
		NewParent("catalog", "Perform Catalog model operations",
			&Terminal{Use: "validate", Run: noop},
			&Terminal{Use: "convert", Run: noop},
		),
		NewParent("profile", "Perform Profile model operations",
			&Terminal{Use: "resolve", Run: noop},
		),
	)
}

func names(cmds []Command) []string {
	out := make([]string, len(cmds))
	for i, c := range cmds {
		out[i] = c.Name()
	}
	return out
}

func TestResolve_FullChain(t *testing.T) {
	chain := Resolve([]string{"catalog", "validate", "-h"}, testTree())

	assert.Equal(t, []string{"catalog", "validate"}, names(chain.Commands))
	assert.Equal(t, "validate", chain.Target.Name())
	assert.Equal(t, []string{"-h"}, chain.Options)
	assert.Empty(t, chain.Extra)
}

func TestResolve_OptionsInterleaved(t *testing.T) {
	chain := Resolve([]string{"-q", "catalog", "--no-color", "convert", "--to=json", "in.xml", "out.json"}, testTree())

	assert.Equal(t, []string{"catalog", "convert"}, names(chain.Commands))
	assert.Equal(t, []string{"-q", "--no-color", "--to=json"}, chain.Options)
	assert.Equal(t, []string{"in.xml", "out.json"}, chain.Extra)
	assert.Equal(t, []string{"-q", "--no-color", "--to=json", "in.xml", "out.json"}, chain.Args())
}

func TestResolve_NoMatch(t *testing.T) {
	chain := Resolve([]string{"bogus", "catalog"}, testTree())

	assert.Empty(t, chain.Commands)
	assert.Equal(t, "oscal-cli", chain.Target.Name())
	assert.Equal(t, []string{"bogus", "catalog"}, chain.Extra)
}

func TestResolve_MissStopsMatching(t *testing.T) {
	chain := Resolve([]string{"catalog", "file.xml", "validate"}, testTree())

	assert.Equal(t, []string{"catalog"}, names(chain.Commands))
	assert.Equal(t, []string{"file.xml", "validate"}, chain.Extra)
}

func TestResolve_TerminalHasNoChildren(t *testing.T) {
	chain := Resolve([]string{"catalog", "validate", "convert"}, testTree())

	assert.Equal(t, []string{"catalog", "validate"}, names(chain.Commands))
	assert.Equal(t, []string{"convert"}, chain.Extra)
}

func TestResolve_EndOfOptions(t *testing.T) {
	chain := Resolve([]string{"catalog", "validate", "a.xml", "--", "-weird.xml", "profile"}, testTree())

	assert.Equal(t, []string{"catalog", "validate"}, names(chain.Commands))
	assert.Empty(t, chain.Options)
	assert.Equal(t, []string{"a.xml", "-weird.xml", "profile"}, chain.Extra)
	assert.Equal(t, []string{"a.xml", "--", "-weird.xml", "profile"}, chain.Args())
}

func TestResolve_EndOfOptionsBeforeCommand(t *testing.T) {
	chain := Resolve([]string{"--", "catalog"}, testTree())

	assert.Empty(t, chain.Commands)
	assert.Equal(t, []string{"catalog"}, chain.Extra)
	assert.Equal(t, []string{"--", "catalog"}, chain.Args())
}

func TestResolve_Empty(t *testing.T) {
	root := testTree()
	chain := Resolve(nil, root)

	assert.Same(t, root, chain.Target)
	assert.Empty(t, chain.Commands)
	assert.Empty(t, chain.Args())
}

func TestParent_DuplicateNamePanics(t *testing.T) {
	p := NewParent("root", "", &Terminal{Use: "a"})
	require.Panics(t, func() { p.Add(&Terminal{Use: "a"}) })
}

func TestCheckArguments(t *testing.T) {
	cmd := &Terminal{
		Use: "convert",
		Args: []Argument{
			{Name: "source file", Required: true},
			{Name: "destination file"},
		},
	}

	err := CheckArguments(cmd, nil)
	require.Error(t, err)
	assert.Equal(t, "The source file must be provided.", err.Error())

	require.NoError(t, CheckArguments(cmd, []string{"a"}))
	require.NoError(t, CheckArguments(cmd, []string{"a", "b"}))

	err = CheckArguments(cmd, []string{"a", "b", "c"})
	var invalid *InvalidArgumentError
	require.ErrorAs(t, err, &invalid)
	assert.Contains(t, invalid.Message, "Illegal number of arguments")
}

func TestCheckArguments_Multiple(t *testing.T) {
	cmd := &Terminal{Use: "x", Args: []Argument{{Name: "file", Required: true, Multiple: true}}}
	require.NoError(t, CheckArguments(cmd, []string{"a", "b", "c"}))
}
