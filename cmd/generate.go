package cmd

import (
	"io"

	"github.com/charmbracelet/log"

	"github.com/clems4ever/oscal-cli/cli"
	"github.com/clems4ever/oscal-cli/format"
	"github.com/clems4ever/oscal-cli/metaschema"
	"github.com/clems4ever/oscal-cli/schemagen"
)

var schemaFormats = []format.Format{format.XML, format.JSON}

func newGenerateSchema() *cli.Terminal {
	return &cli.Terminal{
		Use:     "generate-schema",
		Summary: "Generate a schema for the specified Metaschema",
		Opts: []cli.Option{
			overwriteOpt,
			{Name: "as", HasArg: true, Required: true, Usage: "generated schema `FORMAT`: xml (for XSD) or json (for JSON Schema)"},
			{Name: "inline-types", Usage: "definitions declared inline will be generated as inline types"},
		},
		Args: []cli.Argument{{Name: "metaschema file", Required: true}, {Name: "destination schema file"}},
		Validate: func(ctx *cli.Context) error {
			if _, err := formatOption(ctx, "as", schemaFormats...); err != nil {
				return err
			}
			return checkSource("metaschema", ctx.Args[0])
		},
		Run: generateSchema,
	}
}

func generateSchema(ctx *cli.Context) cli.ExitStatus {
	source, dst := ctx.Args[0], destination(ctx, 1)
	as, err := formatOption(ctx, "as", schemaFormats...)
	if err != nil {
		return cli.InvalidCommand.Exitf("%v", err)
	}
	if dst == "" {
		// The schema goes to stdout, which is likely redirected.
		ctx.Verbosity = cli.Quiet
		ctx.Logger.SetLevel(log.ErrorLevel)
	} else if status := checkDestination(dst, ctx.Has(overwriteOption)); status.Code().IsError() {
		return status
	}

	ms, err := metaschema.ParseFile(source)
	if err != nil {
		return cli.Fail.Exitf("Unable to load the metaschema '%s'.", source).WithCause(err)
	}
	opts := schemagen.Options{InlineTypes: ctx.Has("inline-types")}
	err = output(ctx, dst, func(w io.Writer) error {
		return schemagen.Generate(w, ms, as, opts)
	})
	if err != nil {
		return cli.Fail.Exit().WithCause(err)
	}
	return generated(as.Name()+" schema", dst)
}
