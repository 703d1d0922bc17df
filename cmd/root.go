// Package cmd declares the oscal-cli command tree.
package cmd

import (
	"fmt"

	"github.com/clems4ever/oscal-cli/cli"
	"github.com/clems4ever/oscal-cli/model"
)

// Exec is the name of the binary.
const Exec = "oscal-cli"

// NewRoot builds the command tree over the models of reg.
func NewRoot(reg *model.Registry) *cli.Parent {
	catalog := mustModel(reg, "catalog")
	profile := mustModel(reg, "profile")
	ssp := mustModel(reg, "ssp")
	metaschema := mustModel(reg, "metaschema")

	root := cli.NewParent(Exec, "",
		cli.NewParent("catalog", "Perform an operation on an OSCAL Catalog",
			newValidate(reg, catalog, "Validate that the specified OSCAL Catalog is well-formed and valid"),
			newConvert(reg, catalog, "Convert a specified OSCAL Catalog to a different format"),
			newRender(reg, catalog, "Render a specified OSCAL Catalog to HTML"),
		),
		cli.NewParent("profile", "Perform an operation on an OSCAL Profile",
			newValidate(reg, profile, "Validate that a specified OSCAL Profile is well-formed"),
			newConvert(reg, profile, "Convert a specified OSCAL Profile to a different format"),
			newRender(reg, profile, "Render a specified OSCAL Profile to HTML"),
			newResolve(reg),
		),
		cli.NewParent("ssp", "Perform an operation on an OSCAL System Security Plan",
			newValidate(reg, ssp, "Validate that the specified OSCAL System Security Plan is well-formed"),
			newConvert(reg, ssp, "Convert a specified OSCAL System Security Plan to a different format"),
		),
		cli.NewParent("metaschema", "Perform an operation on a Metaschema",
			newValidate(reg, metaschema, "Validate that the specified Metaschema is well-formed and valid to the Metaschema model"),
			newGenerateSchema(),
		),
	)
	root.Add(newCompletion(root))
	return root
}

// mustModel panics on names that are not built in.
func mustModel(reg *model.Registry, name string) *model.Model {
	m, ok := reg.Model(name)
	if !ok {
		panic(fmt.Sprintf("model %q is not registered", name))
	}
	return m
}
