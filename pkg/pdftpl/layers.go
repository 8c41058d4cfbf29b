package pdftpl

import "slices"

// layers returns the names of the optional content groups (layers) declared
// in the catalog, in declaration order and without duplicates.
func (w *walker) layers() []string {
	root, err := w.ctx.Catalog()
	if err != nil {
		return nil
	}
	obj, found := root.Find("OCProperties")
	if !found {
		return nil
	}
	props, err := w.ctx.DereferenceDict(obj)
	if err != nil || props == nil {
		return nil
	}
	obj, found = props.Find("OCGs")
	if !found {
		return nil
	}
	groups, err := w.ctx.DereferenceArray(obj)
	if err != nil {
		return nil
	}

	var names []string
	for _, g := range groups {
		d, err := w.ctx.DereferenceDict(g)
		if err != nil || d == nil {
			continue
		}
		if t := w.name(d, "Type"); t != "" && t != "OCG" {
			continue
		}
		if n := w.text(d, "Name"); n != "" && !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	return names
}

// HasLayer reports whether the template declares a layer called name.
func (t *Template) HasLayer(name string) bool {
	return slices.Contains(t.Layers, name)
}
