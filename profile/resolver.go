// Package profile resolves OSCAL profiles into catalogs.
//
// Resolution loads every import of a profile, keeps the selected controls
// of each imported catalog, merges the results and applies the profile's
// modifications. Imports naming other profiles are resolved first.
package profile

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/clems4ever/oscal-cli/document"
)

// ErrResolution is returned when a profile cannot be resolved.
var ErrResolution = errors.New("profile resolution failed")

// Resolver turns profiles into catalogs.
type Resolver struct {
	Loader *document.Loader
	// Now stamps last-modified on the resolved catalog.
	Now func() time.Time
	// NewUUID names the resolved catalog.
	NewUUID func() string
}

// NewResolver returns a resolver loading imports with loader.
func NewResolver(loader *document.Loader) *Resolver {
	return &Resolver{
		Loader:  loader,
		Now:     time.Now,
		NewUUID: uuid.NewString,
	}
}

// Resolve returns the catalog described by the profile doc. The returned
// document has no path and keeps the profile's format.
func (r *Resolver) Resolve(doc *document.Document) (*document.Document, error) {
	if doc.Model != "profile" {
		return nil, fmt.Errorf("%w: %s is a %s, not a profile", ErrResolution, doc.Path, doc.Model)
	}
	return r.resolve(doc, nil)
}

func (r *Resolver) resolve(doc *document.Document, stack []string) (*document.Document, error) {
	key := doc.Path
	if abs, err := filepath.Abs(doc.Path); err == nil && doc.Path != "" {
		key = abs
	}
	for _, p := range stack {
		if p == key {
			return nil, fmt.Errorf("%w: import cycle: %s -> %s", ErrResolution, strings.Join(stack, " -> "), key)
		}
	}
	stack = append(stack, key)

	prof, ok := doc.RootObject()
	if !ok {
		return nil, fmt.Errorf("%w: %s: the profile is not an object", ErrResolution, doc.Path)
	}
	imports := prof.Array("imports")
	if len(imports) == 0 {
		return nil, fmt.Errorf("%w: %s: the profile has no imports", ErrResolution, doc.Path)
	}

	m, err := newMerger(prof)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrResolution, doc.Path, err)
	}
	for i, v := range imports {
		imp, ok := v.(*document.Object)
		if !ok {
			return nil, fmt.Errorf("%w: %s: import %d is not an object", ErrResolution, doc.Path, i)
		}
		catalog, err := r.importCatalog(doc, prof, imp, stack)
		if err != nil {
			return nil, err
		}
		sel, err := newSelection(imp)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: import %q: %v", ErrResolution, doc.Path, imp.String("href"), err)
		}
		m.add(catalog, sel)
	}

	resolved := m.catalog()
	if modify, ok := prof.Object("modify"); ok {
		if err := applyModify(resolved, modify); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrResolution, doc.Path, err)
		}
	}

	root := document.NewObject()
	root.Set("uuid", r.NewUUID())
	root.Set("metadata", r.metadata(doc, prof))
	for _, k := range []string{"params", "controls", "groups"} {
		if v, ok := resolved.Get(k); ok {
			root.Set(k, v)
		}
	}
	if resources := m.resources(prof); len(resources) > 0 {
		bm := document.NewObject()
		bm.Set("resources", resources)
		root.Set("back-matter", bm)
	}
	return &document.Document{Format: doc.Format, Model: "catalog", Root: root}, nil
}

// importCatalog loads the document an import points at, resolving it
// first when it is a profile. The result is a private copy.
func (r *Resolver) importCatalog(doc *document.Document, prof, imp *document.Object, stack []string) (*document.Object, error) {
	href := imp.String("href")
	path, err := importPath(doc.Path, prof, href)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrResolution, doc.Path, err)
	}
	imported, err := r.Loader.Load(path, 0)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: loading import %q: %w", ErrResolution, doc.Path, href, err)
	}
	switch imported.Model {
	case "catalog":
	case "profile":
		if imported, err = r.resolve(imported, stack); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s: import %q is a %s, not a catalog or profile", ErrResolution, doc.Path, href, imported.Model)
	}
	root, ok := document.Clone(imported.Root).(*document.Object)
	if !ok {
		return nil, fmt.Errorf("%w: %s: import %q is not an object", ErrResolution, doc.Path, href)
	}
	return root, nil
}

// importPath turns an import href into a file path. Hrefs of the form
// "#uuid" name a back-matter resource of the profile whose first rlink is
// used instead.
func importPath(profilePath string, prof *document.Object, href string) (string, error) {
	if href == "" {
		return "", fmt.Errorf("import without href")
	}
	if strings.HasPrefix(href, "#") {
		target, err := resourceHref(prof, href[1:])
		if err != nil {
			return "", err
		}
		href = target
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("import %q: %v", href, err)
	}
	switch u.Scheme {
	case "":
		p := filepath.FromSlash(u.Path)
		if filepath.IsAbs(p) {
			return p, nil
		}
		return filepath.Join(filepath.Dir(profilePath), p), nil
	case "file":
		return filepath.FromSlash(u.Path), nil
	default:
		return "", fmt.Errorf("import %q: only local files can be imported", href)
	}
}

func resourceHref(prof *document.Object, id string) (string, error) {
	bm, _ := prof.Object("back-matter")
	if bm != nil {
		for _, v := range bm.Array("resources") {
			res, ok := v.(*document.Object)
			if !ok || res.String("uuid") != id {
				continue
			}
			for _, l := range res.Array("rlinks") {
				if link, ok := l.(*document.Object); ok && link.String("href") != "" {
					return link.String("href"), nil
				}
			}
			return "", fmt.Errorf("resource %s has no rlink", id)
		}
	}
	return "", fmt.Errorf("no back-matter resource %s", id)
}

func (r *Resolver) metadata(doc *document.Document, prof *document.Object) *document.Object {
	src, _ := prof.Object("metadata")
	if src == nil {
		src = document.NewObject()
	}
	md := document.NewObject()
	md.Set("title", src.String("title"))
	if v, ok := src.Get("published"); ok {
		md.Set("published", v)
	}
	md.Set("last-modified", r.Now().UTC().Format(time.RFC3339))
	md.Set("version", src.String("version"))
	md.Set("oscal-version", src.String("oscal-version"))

	props := document.Clone(src.Array("props")).([]any)
	prop := document.NewObject()
	prop.Set("name", "resolution-tool")
	prop.Set("value", "oscal-cli")
	md.Set("props", append(props, prop))

	links := document.Clone(src.Array("links")).([]any)
	if doc.Path != "" {
		link := document.NewObject()
		link.Set("href", filepath.ToSlash(doc.Path))
		link.Set("rel", "source-profile")
		links = append(links, link)
	}
	if len(links) > 0 {
		md.Set("links", links)
	}
	for _, k := range []string{"roles", "parties", "remarks"} {
		if v, ok := src.Get(k); ok {
			md.Set(k, document.Clone(v))
		}
	}
	return md
}
