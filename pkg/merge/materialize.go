package merge

import (
	"github.com/gardar/plainmerge/pkg/fonts"
	"github.com/gardar/plainmerge/pkg/form"
	"github.com/gardar/plainmerge/pkg/pdftpl"
	"github.com/gardar/plainmerge/pkg/render"
)

// Auto sized field text, in points.
const (
	autoFontMax  = 12
	autoFontMin  = 4
	autoFontStep = 0.5
	fieldPadding = 2
)

// materialize turns the current value of every field into draw ops at the
// field's widgets, keyed by page number. Imported pages carry no widgets, so
// these ops are the only trace of the form in the output.
func materialize(m render.Measurer, f *form.Form, tpl *pdftpl.Template) map[int][]render.Op {
	font, _ := fonts.Standard(fonts.DefaultKey)
	out := make(map[int][]render.Op)
	add := func(page int, op render.Op) {
		if op != nil {
			out[page] = append(out[page], op)
		}
	}

	for _, fld := range f.Fields {
		switch fld.Kind {
		case form.Text, form.Dropdown, form.OptionList:
			if fld.Value == "" {
				continue
			}
			for _, w := range fld.Widgets {
				if page, ok := tpl.Page(w.Page); ok {
					add(w.Page, fieldText(m, font, fld, widgetBox(w.Rect, page)))
				}
			}

		case form.CheckBox:
			if !fld.Checked {
				continue
			}
			for _, w := range fld.Widgets {
				page, ok := tpl.Page(w.Page)
				if !ok {
					continue
				}
				b := widgetBox(w.Rect, page)
				side := min(b.W, b.H)
				add(w.Page, &render.CheckOp{X: b.X + (b.W-side)/2, Y: b.Y + (b.H-side)/2, Size: side})
			}

		case form.RadioGroup:
			i := fld.SelectedWidget()
			if i < 0 {
				continue
			}
			w := fld.Widgets[i]
			page, ok := tpl.Page(w.Page)
			if !ok {
				continue
			}
			b := widgetBox(w.Rect, page)
			add(w.Page, &render.DotOp{CX: b.X + b.W/2, CY: b.Y + b.H/2, R: min(b.W, b.H) / 4})
		}
	}
	return out
}

// widgetBox converts a widget rectangle to a top-left origin box.
func widgetBox(r form.Rect, page pdftpl.Page) render.Box {
	return render.Box{X: r.LLX, Y: page.Height - r.URY, W: r.Width(), H: r.Height()}
}

var fieldAlign = map[form.Alignment]render.Align{
	form.AlignLeft:   render.AlignLeft,
	form.AlignCenter: render.AlignCenter,
	form.AlignRight:  render.AlignRight,
}

// fieldText lays out a field value in its widget box. Multiline fields wrap
// from the top; single line values are centered vertically and shrunk to fit
// when the field asks for an automatic size.
func fieldText(m render.Measurer, font *fonts.Font, fld *form.Field, b render.Box) render.Op {
	inner := b.W - 2*fieldPadding
	if inner <= 0 || b.H <= 0 {
		return nil
	}

	if fld.Multiline {
		size := fld.FontSize
		if size == 0 {
			size = autoFontMax
		}
		// LayoutText adds its own one point inset.
		p := render.Placement{
			Left:      b.X + fieldPadding - 1,
			Top:       b.Y + fieldPadding/2,
			Width:     inner,
			Height:    b.H - fieldPadding,
			FontSize:  size,
			TextAlign: fieldAlign[fld.Align],
		}
		if op := render.LayoutText(m, font, p, 1, fld.Value); op != nil {
			return op
		}
		return nil
	}

	text := render.EncodeText(font, fld.Value)
	size := fld.FontSize
	if size == 0 {
		size = min(autoFontMax, (b.H-fieldPadding)/font.Height(1))
		for size > autoFontMin {
			m.SetFont(font.Family, font.Style, size)
			if m.GetStringWidth(text) <= inner {
				break
			}
			size -= autoFontStep
		}
		size = max(size, autoFontMin)
	}
	m.SetFont(font.Family, font.Style, size)
	w := m.GetStringWidth(text)

	x := b.X + fieldPadding
	switch fld.Align {
	case form.AlignCenter:
		x = b.X + (b.W-w)/2
	case form.AlignRight:
		x = b.X + b.W - fieldPadding - w
	}
	ascent := font.Ascent * size / 1000
	y := b.Y + (b.H+ascent-font.DescentAt(size))/2

	return &render.TextOp{
		Font:  font,
		Size:  size,
		Lines: []render.Line{{Text: text, X: x, Y: y, W: w}},
	}
}
