package cmd

import (
	"io"

	"github.com/clems4ever/oscal-cli/cli"
	"github.com/clems4ever/oscal-cli/model"
)

func newConvert(reg *model.Registry, m *model.Model, summary string) *cli.Terminal {
	return &cli.Terminal{
		Use:     "convert",
		Summary: summary,
		Opts: []cli.Option{
			{Name: "to", HasArg: true, Required: true, Usage: "convert to `FORMAT`: " + formatNames(m.Formats())},
			overwriteOpt,
		},
		Args: []cli.Argument{{Name: "source file", Required: true}, {Name: "destination file"}},
		Validate: func(ctx *cli.Context) error {
			if _, err := formatOption(ctx, "to", m.Formats()...); err != nil {
				return err
			}
			return checkSource("source file", ctx.Args[0])
		},
		Run: func(ctx *cli.Context) cli.ExitStatus {
			return convert(ctx, reg, m)
		},
	}
}

func convert(ctx *cli.Context, reg *model.Registry, m *model.Model) cli.ExitStatus {
	source, dst := ctx.Args[0], destination(ctx, 1)
	to, err := formatOption(ctx, "to", m.Formats()...)
	if err != nil {
		return cli.InvalidCommand.Exitf("%v", err)
	}
	if dst != "" {
		if status := checkDestination(dst, ctx.Has(overwriteOption)); status.Code().IsError() {
			return status
		}
	}

	doc, err := reg.Context().NewLoader().Load(source, 0)
	if err != nil {
		return loadFailure(source, err)
	}
	if status := checkModel(doc, m.Root()); status.Code().IsError() {
		return status
	}
	if doc.Format == to {
		return cli.Fail.Exitf("Source and destination are the same format '%s'.", to.Name())
	}

	serializer := reg.Context().NewSerializer()
	err = output(ctx, dst, func(w io.Writer) error {
		return serializer.Write(w, doc, to)
	})
	if err != nil {
		return cli.Fail.Exit().WithCause(err)
	}
	return generated(to.Name(), dst)
}
