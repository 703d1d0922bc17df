package constraint

import (
	"fmt"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	ctyjson "github.com/zclconf/go-cty/cty/json"

	"github.com/clems4ever/oscal-cli/document"
	"github.com/clems4ever/oscal-cli/validation"
)

// Engine evaluates constraint sets. It implements validation.ConstraintEngine.
type Engine struct {
	sets []*Set
}

var _ validation.ConstraintEngine = (*Engine)(nil)

// NewEngine returns an engine for the given sets, evaluated in order.
func NewEngine(sets ...*Set) *Engine {
	return &Engine{sets: sets}
}

// Constraints returns every constraint of the engine.
func (e *Engine) Constraints() []*Constraint {
	var out []*Constraint
	for _, s := range e.sets {
		out = append(out, s.Constraints...)
	}
	return out
}

// Evaluate runs every constraint against doc. Findings are grouped by
// constraint and, within one constraint, in document order.
func (e *Engine) Evaluate(doc *document.Document) ([]validation.Finding, error) {
	tree := doc.Tree()
	root, err := toCty(tree)
	if err != nil {
		return nil, fmt.Errorf("converting %s for constraint evaluation: %w", doc.Path, err)
	}

	var findings []validation.Finding
	for _, c := range e.Constraints() {
		for _, m := range c.Target.Select(tree) {
			f, err := c.evaluate(doc.Path, root, m)
			if err != nil {
				return nil, err
			}
			if f != nil {
				findings = append(findings, *f)
			}
		}
	}
	return findings, nil
}

// evaluate returns a finding when the constraint does not hold for m.
func (c *Constraint) evaluate(file string, root cty.Value, m Match) (*validation.Finding, error) {
	node, err := toCty(m.Node)
	if err != nil {
		return nil, fmt.Errorf("converting %s#%s: %w", file, m.Pointer, err)
	}
	ctx := evalContext(root, node)

	finding := &validation.Finding{
		Source:     validation.ConstraintSource,
		Severity:   c.Level,
		Location:   validation.Location{File: file, Path: m.Pointer},
		Constraint: c.ID,
	}

	if c.When != nil {
		applies, diags := evalBool(c.When, ctx, true)
		if diags.HasErrors() {
			finding.Message = fmt.Sprintf("constraint '%s' condition could not be evaluated", c.ID)
			finding.Cause = diags
			return finding, nil
		}
		if !applies {
			return nil, nil
		}
	}

	ok, diags := evalBool(c.Test, ctx, false)
	if diags.HasErrors() {
		finding.Message = fmt.Sprintf("constraint '%s' could not be evaluated", c.ID)
		finding.Cause = diags
		return finding, nil
	}
	if ok {
		return nil, nil
	}
	finding.Message = c.message(ctx)
	return finding, nil
}

func (c *Constraint) message(ctx *hcl.EvalContext) string {
	fallback := fmt.Sprintf("constraint '%s' failed", c.ID)
	if c.Message == nil {
		return fallback
	}
	v, diags := c.Message.Value(ctx)
	if diags.HasErrors() || v.IsNull() || !v.IsWhollyKnown() {
		return fallback
	}
	s, err := convert.Convert(v, cty.String)
	if err != nil {
		return fallback
	}
	return s.AsString()
}

// evalBool evaluates expr to a boolean. A null result yields def.
func evalBool(expr hcl.Expression, ctx *hcl.EvalContext, def bool) (bool, hcl.Diagnostics) {
	v, diags := expr.Value(ctx)
	if diags.HasErrors() {
		return false, diags
	}
	if v.IsNull() {
		return def, nil
	}
	b, err := convert.Convert(v, cty.Bool)
	if err != nil || !b.IsKnown() {
		return false, hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Expression is not a boolean",
			Detail:   fmt.Sprintf("The expression must produce true or false, not %s.", v.Type().FriendlyName()),
			Subject:  expr.Range().Ptr(),
		}}
	}
	return b.True(), nil
}

func evalContext(root, node cty.Value) *hcl.EvalContext {
	vars := map[string]cty.Value{
		"root": root,
		"node": node,
	}
	if !node.IsNull() && node.Type().IsObjectType() {
		for name, v := range node.AsValueMap() {
			if _, reserved := vars[name]; reserved || !hclsyntax.ValidIdentifier(name) {
				continue
			}
			vars[name] = v
		}
	}
	return &hcl.EvalContext{Variables: vars, Functions: functions}
}

// toCty converts a document node through its JSON form.
func toCty(v any) (cty.Value, error) {
	data, err := document.MarshalJSON(v)
	if err != nil {
		return cty.NilVal, err
	}
	ty, err := ctyjson.ImpliedType(data)
	if err != nil {
		return cty.NilVal, err
	}
	return ctyjson.Unmarshal(data, ty)
}
