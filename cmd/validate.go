package cmd

import (
	"github.com/clems4ever/oscal-cli/cli"
	"github.com/clems4ever/oscal-cli/constraint"
	"github.com/clems4ever/oscal-cli/model"
	"github.com/clems4ever/oscal-cli/validation"
)

const constraintOption = "constraint"

func newValidate(reg *model.Registry, m *model.Model, summary string) *cli.Terminal {
	formats := m.Formats()
	return &cli.Terminal{
		Use:     "validate",
		Summary: summary,
		Opts: []cli.Option{
			{Name: "as", HasArg: true, Usage: "source `FORMAT`: " + formatNames(formats)},
			{Name: constraintOption, Shorthand: "c", HasArg: true, Repeatable: true, Usage: "additional constraint definitions in `FILE`"},
		},
		Args: []cli.Argument{{Name: "file to validate", Required: true}},
		Validate: func(ctx *cli.Context) error {
			for _, file := range ctx.Strings(constraintOption) {
				if err := checkSource("external constraint file", file); err != nil {
					return err
				}
			}
			if err := checkSource("source file", ctx.Args[0]); err != nil {
				return err
			}
			_, err := formatOption(ctx, "as", formats...)
			return err
		},
		Run: func(ctx *cli.Context) cli.ExitStatus {
			return validate(ctx, reg, m)
		},
	}
}

func validate(ctx *cli.Context, reg *model.Registry, m *model.Model) cli.ExitStatus {
	path := ctx.Args[0]
	declared, err := formatOption(ctx, "as", m.Formats()...)
	if err != nil {
		return cli.InvalidCommand.Exitf("%v", err)
	}

	var extra []*constraint.Set
	for _, file := range ctx.Strings(constraintOption) {
		set, err := constraint.Load(file)
		if err != nil {
			return cli.Fail.Exitf("Unable to load constraint set '%s'.", file).WithCause(err)
		}
		extra = append(extra, set)
	}

	pipeline, release, err := m.Pipeline(reg.Context().NewLoader(), extra...)
	if err != nil {
		return cli.ProcessingError.Exit().WithCause(err)
	}
	defer release()

	outcome, err := pipeline.Validate(path, declared)
	if err != nil {
		return loadFailure(path, err)
	}

	var schema, constraints []validation.Finding
	for _, f := range outcome.Findings {
		if f.Source == validation.ConstraintSource {
			constraints = append(constraints, f)
		} else {
			schema = append(schema, f)
		}
	}
	reporter := &validation.Reporter{Logger: ctx.Logger, ShowCause: ctx.ShowStackTrace}
	if len(schema) > 0 {
		ctx.Logger.Infof("The file '%s' has schema validation issue(s). The issues are:", path)
		reporter.Report(schema)
	}
	if len(constraints) > 0 {
		ctx.Logger.Infof("The file '%s' has constraint validation issue(s). The issues are:", path)
		reporter.Report(constraints)
	}

	if !outcome.Passed {
		return cli.Fail.Exit()
	}
	return cli.OK.Exitf("The file '%s' is valid.", path)
}
