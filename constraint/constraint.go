// Package constraint evaluates semantic rules over loaded documents.
//
// Rules are written in HCL:
//
//	constraint "control-has-title" {
//	  target  = "catalog.**.controls[*]"
//	  level   = "ERROR"
//	  when    = has(node, "props")
//	  test    = try(title, "") != ""
//	  message = "control ${id} has no title"
//	}
//
// Expressions see the selected node as node, the document tree as root, and
// each member of an object node by its name.
package constraint

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/clems4ever/oscal-cli/validation"
)

// ErrInvalid is returned for constraint files that cannot be used.
var ErrInvalid = errors.New("invalid constraint definition")

// Constraint is one compiled rule.
type Constraint struct {
	ID      string
	Target  *Selector
	Level   validation.Severity
	When    hcl.Expression
	Test    hcl.Expression
	Message hcl.Expression
	Range   hcl.Range
}

// Set is the content of one constraint file.
type Set struct {
	Name        string
	Constraints []*Constraint
}

type fileSchema struct {
	Constraints []*constraintBlock `hcl:"constraint,block"`
}

type constraintBlock struct {
	ID       string         `hcl:"id,label"`
	Target   string         `hcl:"target"`
	Level    string         `hcl:"level,optional"`
	When     hcl.Expression `hcl:"when,optional"`
	Test     hcl.Expression `hcl:"test"`
	Message  hcl.Expression `hcl:"message,optional"`
	DefRange hcl.Range      `hcl:",def_range"`
}

// Load reads a constraint file.
func Load(path string) (*Set, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(src, path)
}

// LoadFS reads a constraint file from fsys.
func LoadFS(fsys fs.FS, name string) (*Set, error) {
	src, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, err
	}
	return Parse(src, name)
}

// Parse compiles HCL source. filename is used in diagnostics.
func Parse(src []byte, filename string) (*Set, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
	}

	var schema fileSchema
	if diags := gohcl.DecodeBody(file.Body, nil, &schema); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
	}
	if diags := requireTests(file.Body); diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrInvalid, diags.Error())
	}

	set := &Set{Name: filename}
	ids := make(map[string]bool)
	for _, b := range schema.Constraints {
		if ids[b.ID] {
			return nil, fmt.Errorf("%w: %s: duplicate constraint %q", ErrInvalid, b.DefRange, b.ID)
		}
		ids[b.ID] = true

		target, err := ParseSelector(b.Target)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: constraint %q: %v", ErrInvalid, b.DefRange, b.ID, err)
		}
		level, err := validation.ParseSeverity(b.Level)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: constraint %q: %v", ErrInvalid, b.DefRange, b.ID, err)
		}
		set.Constraints = append(set.Constraints, &Constraint{
			ID:      b.ID,
			Target:  target,
			Level:   level,
			When:    b.When,
			Test:    b.Test,
			Message: b.Message,
			Range:   b.DefRange,
		})
	}
	return set, nil
}

var (
	blocksSchema = &hcl.BodySchema{
		Blocks: []hcl.BlockHeaderSchema{{Type: "constraint", LabelNames: []string{"id"}}},
	}
	testSchema = &hcl.BodySchema{
		Attributes: []hcl.AttributeSchema{{Name: "test", Required: true}},
	}
)

// requireTests reports constraint blocks without a test attribute. gohcl
// decodes a missing expression attribute as a null expression.
func requireTests(body hcl.Body) hcl.Diagnostics {
	content, diags := body.Content(blocksSchema)
	for _, block := range content.Blocks {
		_, _, blockDiags := block.Body.PartialContent(testSchema)
		diags = append(diags, blockDiags...)
	}
	return diags
}
