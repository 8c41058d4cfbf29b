// Package form models the interactive form of a template PDF and applies row
// values to it.
//
// A Form is plain data: the fields found in the template's AcroForm with their
// current values and the widget rectangles they are shown in. Filling a form
// only changes that data. Turning the values into page content is left to the
// merge package, which draws them over the imported page.
//
// Each row works on its own copy of the template's form (see Clone), so values
// set for one row are never visible to the next.
package form

import (
	"slices"

	"github.com/tiendc/go-deepcopy"
)

// Kind is the capability of a form field.
type Kind string

const (
	Text        Kind = "TextField"
	CheckBox    Kind = "CheckBox"
	RadioGroup  Kind = "RadioGroup"
	Dropdown    Kind = "Dropdown"
	OptionList  Kind = "OptionList"
	Unsupported Kind = "" // push buttons, signatures and unknown types
)

// Alignment of a text field value, the /Q entry of the field.
type Alignment int

const (
	AlignLeft Alignment = iota
	AlignCenter
	AlignRight
)

// Rect is a rectangle in PDF user space: lower-left and upper-right corners,
// origin at the bottom of the page.
type Rect struct {
	LLX, LLY, URX, URY float64
}

// Width returns the horizontal extent of r.
func (r Rect) Width() float64 { return r.URX - r.LLX }

// Height returns the vertical extent of r.
func (r Rect) Height() float64 { return r.URY - r.LLY }

// Widget is one on-page appearance of a field.
type Widget struct {
	Page    int // 1-based page number, 0 when the widget is not on any page
	Rect    Rect
	OnState string // appearance state meaning "on" for check boxes and radio buttons
}

// Field is a terminal form field.
type Field struct {
	Name      string // fully qualified name, parts joined with "."
	Kind      Kind
	Options   []string // choices of radio groups, dropdowns and option lists
	Value     string   // text value or selected option
	Checked   bool     // check box state
	Multiline bool     // text field accepts line breaks
	Align     Alignment
	FontSize  float64 // size from the default appearance, 0 means auto
	ReadOnly  bool
	Widgets   []Widget
}

// Form is the interactive form of a template.
type Form struct {
	Fields []*Field
}

// Field returns the field named name, or nil.
func (f *Form) Field(name string) *Field {
	if f == nil {
		return nil
	}
	for _, fld := range f.Fields {
		if fld.Name == name {
			return fld
		}
	}
	return nil
}

// Names returns the names of all supported fields in template order.
func (f *Form) Names() []string {
	if f == nil {
		return nil
	}
	names := make([]string, 0, len(f.Fields))
	for _, fld := range f.Fields {
		if fld.Kind != Unsupported {
			names = append(names, fld.Name)
		}
	}
	return names
}

// Clone returns a deep copy of f that shares no memory with it.
func (f *Form) Clone() (*Form, error) {
	if f == nil {
		return &Form{}, nil
	}
	var out Form
	if err := deepcopy.Copy(&out, f); err != nil {
		return nil, err
	}
	return &out, nil
}

// HasOption reports whether v is one of the field's declared options.
func (fld *Field) HasOption(v string) bool {
	return slices.Contains(fld.Options, v)
}

// SelectedWidget returns the index of the radio widget that shows the current
// value, or -1.
func (fld *Field) SelectedWidget() int {
	if fld.Kind != RadioGroup || fld.Value == "" {
		return -1
	}
	for i, w := range fld.Widgets {
		if w.OnState == fld.Value {
			return i
		}
	}
	// Options may be display labels in widget order.
	if i := slices.Index(fld.Options, fld.Value); i >= 0 && i < len(fld.Widgets) {
		return i
	}
	return -1
}
