// Package pdftpl loads template PDFs.
//
// A Template is the immutable input of a merge: the raw bytes of the document,
// the size of every page and the interactive form with its default values.
// The bytes are handed to the page importer untouched; the parsed structure is
// used to size output pages and to know where on which page each form field is
// shown.
//
// Key Features:
//
// - Page sizes with inherited MediaBox entries resolved
// - AcroForm fields with fully qualified names, values, options and widgets
// - Fresh: a private copy of the form for every row
// - Source: a copy the page importer can read, checked at load time
//
// Parsing is done with pdfcpu.
package pdftpl

import (
	"bytes"
	"errors"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/gardar/plainmerge/pkg/form"
)

func init() {
	// Keep pdfcpu from creating a configuration directory in $HOME.
	api.DisableConfigDir()
}

// Page is the geometry of one template page in points.
type Page struct {
	Number int
	Width  float64
	Height float64
}

// FieldInfo summarizes a fillable field for binding editors.
type FieldInfo struct {
	Name    string    `json:"name"`
	Kind    form.Kind `json:"type"`
	Options []string  `json:"options,omitempty"`
	Page    int       `json:"page,omitempty"`
}

// Template is a parsed template document.
type Template struct {
	Path   string
	Data   []byte
	Pages  []Page
	Layers []string // optional content groups, see HasLayer
	form   *form.Form
	src    []byte // what the page importer reads, see Source
}

// TemplateLoadError reports a template that could not be read or parsed.
type TemplateLoadError struct {
	Path string
	Err  error
}

func (e *TemplateLoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("cannot load template: %v", e.Err)
	}
	return fmt.Sprintf("cannot load template %q: %v", e.Path, e.Err)
}

func (e *TemplateLoadError) Unwrap() error {
	return e.Err
}

// LoadFile reads and parses the template at path.
func LoadFile(path string) (*Template, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &TemplateLoadError{Path: path, Err: err}
	}
	t, err := Load(data)
	if err != nil {
		var tle *TemplateLoadError
		if errors.As(err, &tle) {
			tle.Path = path
		}
		return nil, err
	}
	t.Path = path
	return t, nil
}

// Load parses a template from memory. data is retained and must not be
// modified afterwards.
func Load(data []byte) (*Template, error) {
	if len(data) == 0 {
		return nil, &TemplateLoadError{Err: errors.New("input PDF data is empty")}
	}

	ctx, err := api.ReadContext(bytes.NewReader(data), model.NewDefaultConfiguration())
	if err != nil {
		return nil, &TemplateLoadError{Err: err}
	}

	w := walker{ctx: ctx, annotPage: make(map[int]int), pageByObj: make(map[int]int)}
	pages, err := w.pages()
	if err != nil {
		return nil, &TemplateLoadError{Err: err}
	}
	if len(pages) == 0 {
		return nil, &TemplateLoadError{Err: errors.New("document has no pages")}
	}
	f, err := w.form()
	if err != nil {
		return nil, &TemplateLoadError{Err: fmt.Errorf("invalid form: %w", err)}
	}

	src, err := importSource(ctx, data)
	if err != nil {
		return nil, &TemplateLoadError{Err: err}
	}
	if err := checkImport(src, pages); err != nil {
		return nil, &TemplateLoadError{Err: err}
	}

	return &Template{Data: data, Pages: pages, Layers: w.layers(), form: f, src: src}, nil
}

// Source returns the document the pages are imported from. It is Data unless
// Data uses object or cross-reference streams, in which case it is a copy
// rewritten without them.
func (t *Template) Source() []byte {
	if t.src == nil {
		return t.Data
	}
	return t.src
}

// PageCount returns the number of pages.
func (t *Template) PageCount() int {
	return len(t.Pages)
}

// Page returns page n (1-based).
func (t *Template) Page(n int) (Page, bool) {
	if n < 1 || n > len(t.Pages) {
		return Page{}, false
	}
	return t.Pages[n-1], true
}

// Fresh returns a copy of the template's form in its default state. Every row
// must start from its own copy.
func (t *Template) Fresh() (*form.Form, error) {
	return t.form.Clone()
}

// Fields lists the fillable fields of the template in document order.
func (t *Template) Fields() []FieldInfo {
	var out []FieldInfo
	for _, f := range t.form.Fields {
		if f.Kind == form.Unsupported {
			continue
		}
		info := FieldInfo{Name: f.Name, Kind: f.Kind, Options: f.Options}
		if len(f.Widgets) > 0 {
			info.Page = f.Widgets[0].Page
		}
		out = append(out, info)
	}
	return out
}
