package pdftpl

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/gardar/plainmerge/pkg/form"
)

// Field flags, PDF 32000-1 tables 221, 226 and 228.
const (
	ffReadOnly   = 1 << 0
	ffMultiline  = 1 << 12
	ffRadio      = 1 << 15
	ffPushButton = 1 << 16
	ffCombo      = 1 << 17
)

// maxDepth bounds recursion through page and field trees.
const maxDepth = 32

var fontSizePattern = regexp.MustCompile(`([0-9.]+)\s+Tf`)

// walker reads the page tree and the AcroForm of a parsed document.
type walker struct {
	ctx       *model.Context
	annotPage map[int]int // widget object number -> page number
	pageByObj map[int]int // page object number -> page number
	pageList  []Page
}

func (w *walker) pages() ([]Page, error) {
	root, err := w.ctx.Catalog()
	if err != nil {
		return nil, err
	}
	obj, found := root.Find("Pages")
	if !found {
		return nil, errors.New("catalog has no page tree")
	}
	if err := w.walkPages(obj, nil, 0); err != nil {
		return nil, err
	}
	return w.pageList, nil
}

func (w *walker) walkPages(obj types.Object, inherited []float64, depth int) error {
	if depth > maxDepth {
		return errors.New("page tree too deep")
	}
	d, err := w.ctx.DereferenceDict(obj)
	if err != nil {
		return err
	}
	if d == nil {
		return errors.New("missing page tree node")
	}

	box := inherited
	if b, err := w.numbers(d, "MediaBox"); err == nil && len(b) == 4 {
		box = b
	}

	if kids, found := d.Find("Kids"); found {
		arr, err := w.ctx.DereferenceArray(kids)
		if err != nil {
			return err
		}
		for _, kid := range arr {
			if err := w.walkPages(kid, box, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if len(box) != 4 {
		return fmt.Errorf("page %d has no media box", len(w.pageList)+1)
	}
	p := Page{
		Number: len(w.pageList) + 1,
		Width:  math.Abs(box[2] - box[0]),
		Height: math.Abs(box[3] - box[1]),
	}
	w.pageList = append(w.pageList, p)
	if nr, ok := objectNumber(obj); ok {
		w.pageByObj[nr] = p.Number
	}

	if annots, found := d.Find("Annots"); found {
		arr, err := w.ctx.DereferenceArray(annots)
		if err == nil {
			for _, a := range arr {
				if nr, ok := objectNumber(a); ok {
					w.annotPage[nr] = p.Number
				}
			}
		}
	}
	return nil
}

// fieldAttrs are the inheritable attributes of a field node.
type fieldAttrs struct {
	ft string
	ff int
	da string
	q  int
	v  types.Object
}

func (w *walker) form() (*form.Form, error) {
	f := &form.Form{}
	root, err := w.ctx.Catalog()
	if err != nil {
		return nil, err
	}
	obj, found := root.Find("AcroForm")
	if !found {
		return f, nil
	}
	acro, err := w.ctx.DereferenceDict(obj)
	if err != nil || acro == nil {
		return f, err
	}

	var base fieldAttrs
	base.da = w.text(acro, "DA")

	fields, found := acro.Find("Fields")
	if !found {
		return f, nil
	}
	arr, err := w.ctx.DereferenceArray(fields)
	if err != nil {
		return nil, err
	}
	for _, fo := range arr {
		if err := w.walkField(f, fo, "", base, 0); err != nil {
			return nil, err
		}
	}
	return f, nil
}

func (w *walker) walkField(f *form.Form, obj types.Object, parent string, attrs fieldAttrs, depth int) error {
	if depth > maxDepth {
		return errors.New("field tree too deep")
	}
	d, err := w.ctx.DereferenceDict(obj)
	if err != nil || d == nil {
		return err
	}

	name := parent
	if partial := w.text(d, "T"); partial != "" {
		if name != "" {
			name += "."
		}
		name += partial
	}
	if ft := w.name(d, "FT"); ft != "" {
		attrs.ft = ft
	}
	if ff, ok := w.integer(d, "Ff"); ok {
		attrs.ff = ff
	}
	if da := w.text(d, "DA"); da != "" {
		attrs.da = da
	}
	if q, ok := w.integer(d, "Q"); ok {
		attrs.q = q
	}
	if v, found := d.Find("V"); found {
		attrs.v = v
	}

	// Kids carrying a partial name are fields; the others are widgets.
	var widgets []types.Object
	kidsObj, hasKids := d.Find("Kids")
	if hasKids {
		kids, err := w.ctx.DereferenceArray(kidsObj)
		if err != nil {
			return err
		}
		for _, k := range kids {
			kd, err := w.ctx.DereferenceDict(k)
			if err != nil || kd == nil {
				continue
			}
			if _, isField := kd.Find("T"); isField {
				if err := w.walkField(f, k, name, attrs, depth+1); err != nil {
					return err
				}
				continue
			}
			widgets = append(widgets, k)
		}
		if len(widgets) == 0 {
			return nil
		}
	} else {
		widgets = []types.Object{obj}
	}

	f.Fields = append(f.Fields, w.field(d, name, attrs, widgets))
	return nil
}

// field builds a terminal field from its dictionary and widgets.
func (w *walker) field(d types.Dict, name string, attrs fieldAttrs, widgetObjs []types.Object) *form.Field {
	fld := &form.Field{
		Name:     name,
		Kind:     kindOf(attrs.ft, attrs.ff),
		ReadOnly: attrs.ff&ffReadOnly != 0,
		FontSize: daFontSize(attrs.da),
	}

	for _, wo := range widgetObjs {
		wd, err := w.ctx.DereferenceDict(wo)
		if err != nil || wd == nil {
			continue
		}
		wg := form.Widget{OnState: w.onState(wd)}
		if r, err := w.numbers(wd, "Rect"); err == nil && len(r) == 4 {
			wg.Rect = form.Rect{
				LLX: math.Min(r[0], r[2]), LLY: math.Min(r[1], r[3]),
				URX: math.Max(r[0], r[2]), URY: math.Max(r[1], r[3]),
			}
		}
		if nr, ok := objectNumber(wo); ok {
			wg.Page = w.annotPage[nr]
		}
		if p, found := wd.Find("P"); wg.Page == 0 && found {
			if nr, ok := objectNumber(p); ok {
				wg.Page = w.pageByObj[nr]
			}
		}
		fld.Widgets = append(fld.Widgets, wg)
	}

	switch fld.Kind {
	case form.Text:
		fld.Value = w.stringValue(attrs.v)
		fld.Multiline = attrs.ff&ffMultiline != 0
		switch attrs.q {
		case 1:
			fld.Align = form.AlignCenter
		case 2:
			fld.Align = form.AlignRight
		}
	case form.CheckBox:
		on := "Yes"
		if len(fld.Widgets) > 0 && fld.Widgets[0].OnState != "" {
			on = fld.Widgets[0].OnState
		}
		v := w.nameValue(attrs.v)
		if v == "" && len(widgetObjs) > 0 {
			if wd, err := w.ctx.DereferenceDict(widgetObjs[0]); err == nil && wd != nil {
				v = w.name(wd, "AS")
			}
		}
		fld.Checked = v != "" && v == on
	case form.RadioGroup:
		for _, wg := range fld.Widgets {
			if wg.OnState != "" && !fld.HasOption(wg.OnState) {
				fld.Options = append(fld.Options, wg.OnState)
			}
		}
		if opts := w.options(d); len(opts) > 0 {
			fld.Options = opts
		}
		fld.Value = w.nameValue(attrs.v)
		// With /Opt the on states are widget indexes.
		if i, err := strconv.Atoi(fld.Value); err == nil && len(w.options(d)) > 0 && i >= 0 && i < len(fld.Options) {
			fld.Value = fld.Options[i]
		}
	case form.Dropdown, form.OptionList:
		fld.Options = w.options(d)
		fld.Value = w.choiceValue(attrs.v)
	}
	return fld
}

func kindOf(ft string, ff int) form.Kind {
	switch ft {
	case "Tx":
		return form.Text
	case "Btn":
		switch {
		case ff&ffPushButton != 0:
			return form.Unsupported
		case ff&ffRadio != 0:
			return form.RadioGroup
		default:
			return form.CheckBox
		}
	case "Ch":
		if ff&ffCombo != 0 {
			return form.Dropdown
		}
		return form.OptionList
	}
	return form.Unsupported
}

// daFontSize extracts the font size of a default appearance string like
// "/Helv 12 Tf 0 g".
func daFontSize(da string) float64 {
	m := fontSizePattern.FindStringSubmatch(da)
	if m == nil {
		return 0
	}
	size, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return size
}

// onState returns the appearance state of a widget other than Off.
func (w *walker) onState(wd types.Dict) string {
	apObj, found := wd.Find("AP")
	if !found {
		return ""
	}
	ap, err := w.ctx.DereferenceDict(apObj)
	if err != nil || ap == nil {
		return ""
	}
	nObj, found := ap.Find("N")
	if !found {
		return ""
	}
	n, err := w.ctx.DereferenceDict(nObj)
	if err != nil || n == nil {
		return ""
	}
	for k := range n {
		if k != "Off" {
			return k
		}
	}
	return ""
}

// options reads /Opt. Entries are either strings or [export display] pairs;
// the display text is used.
func (w *walker) options(d types.Dict) []string {
	obj, found := d.Find("Opt")
	if !found {
		return nil
	}
	arr, err := w.ctx.DereferenceArray(obj)
	if err != nil {
		return nil
	}
	var out []string
	for _, o := range arr {
		o, _ = w.ctx.Dereference(o)
		if pair, ok := o.(types.Array); ok {
			if len(pair) == 0 {
				continue
			}
			out = append(out, w.stringValue(pair[len(pair)-1]))
			continue
		}
		out = append(out, w.stringValue(o))
	}
	return out
}

func (w *walker) choiceValue(o types.Object) string {
	o, _ = w.ctx.Dereference(o)
	if arr, ok := o.(types.Array); ok {
		if len(arr) == 0 {
			return ""
		}
		return w.stringValue(arr[0])
	}
	return w.stringValue(o)
}

func (w *walker) nameValue(o types.Object) string {
	o, _ = w.ctx.Dereference(o)
	switch v := o.(type) {
	case types.Name:
		if v.Value() == "Off" {
			return ""
		}
		return v.Value()
	case types.StringLiteral, types.HexLiteral:
		return w.stringValue(v)
	}
	return ""
}

// stringValue decodes a text string object.
func (w *walker) stringValue(o types.Object) string {
	if o == nil {
		return ""
	}
	o, err := w.ctx.Dereference(o)
	if err != nil {
		return ""
	}
	switch v := o.(type) {
	case types.StringLiteral, types.HexLiteral:
		s, err := types.StringOrHexLiteral(v)
		if err != nil {
			return ""
		}
		return *s
	case types.Name:
		return v.Value()
	}
	return ""
}

func (w *walker) text(d types.Dict, key string) string {
	o, found := d.Find(key)
	if !found {
		return ""
	}
	return w.stringValue(o)
}

func (w *walker) name(d types.Dict, key string) string {
	o, found := d.Find(key)
	if !found {
		return ""
	}
	o, _ = w.ctx.Dereference(o)
	if n, ok := o.(types.Name); ok {
		return n.Value()
	}
	return ""
}

func (w *walker) integer(d types.Dict, key string) (int, bool) {
	o, found := d.Find(key)
	if !found {
		return 0, false
	}
	f, ok := w.number(o)
	return int(f), ok
}

func (w *walker) number(o types.Object) (float64, bool) {
	o, err := w.ctx.Dereference(o)
	if err != nil {
		return 0, false
	}
	switch v := o.(type) {
	case types.Integer:
		return float64(v.Value()), true
	case types.Float:
		return v.Value(), true
	}
	return 0, false
}

func (w *walker) numbers(d types.Dict, key string) ([]float64, error) {
	o, found := d.Find(key)
	if !found {
		return nil, fmt.Errorf("no %s entry", key)
	}
	arr, err := w.ctx.DereferenceArray(o)
	if err != nil {
		return nil, err
	}
	out := make([]float64, 0, len(arr))
	for _, e := range arr {
		f, ok := w.number(e)
		if !ok {
			return nil, fmt.Errorf("non numeric %s entry", key)
		}
		out = append(out, f)
	}
	return out, nil
}

func objectNumber(o types.Object) (int, bool) {
	switch r := o.(type) {
	case types.IndirectRef:
		return r.ObjectNumber.Value(), true
	case *types.IndirectRef:
		if r != nil {
			return r.ObjectNumber.Value(), true
		}
	}
	return 0, false
}
