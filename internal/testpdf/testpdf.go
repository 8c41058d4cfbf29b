// Package testpdf writes small template PDFs for tests.
//
// The documents are uncompressed, have a classic cross-reference table and may
// carry an AcroForm with text, check box, radio, choice and push button fields,
// which is everything the template loader and the page importer read.
package testpdf

import (
	"bytes"
	"fmt"
	"sort"
	"strings"
)

// Page is one template page. Each Text line is drawn in Helvetica 12,
// one line per 20pt from the top margin.
type Page struct {
	Width, Height float64
	Text          []string
}

// Letter is a US letter page.
func Letter(text ...string) Page {
	return Page{Width: 612, Height: 792, Text: text}
}

// Field types understood by Build.
const (
	TextField = "text"
	CheckBox  = "checkbox"
	Radio     = "radio"
	Combo     = "combo"
	List      = "list"
	Button    = "button"
)

// Field describes one form field. Radio fields get one widget per option,
// stacked below Rect; Options of a radio group are the widgets' on states.
type Field struct {
	Name    string
	Type    string
	Page    int        // 1-based
	Rect    [4]float64 // llx lly urx ury
	Value   string
	Checked bool
	Options []string
	Flags   int    // extra /Ff bits
	DA      string // default appearance, "/Helv 0 Tf 0 g" when empty
	Q       int    // quadding
	Parent  string // partial name of a non-terminal parent field
}

const (
	ffMultiline  = 1 << 12
	ffRadio      = 1 << 15
	ffPushButton = 1 << 16
	ffCombo      = 1 << 17
)

// MultilineFlag marks a text field as multiline.
const MultilineFlag = ffMultiline

type object struct {
	num  int
	body string
}

type writer struct {
	objs []*object
}

func (w *writer) alloc() *object {
	o := &object{num: len(w.objs) + 1}
	w.objs = append(w.objs, o)
	return o
}

func ref(o *object) string {
	return fmt.Sprintf("%d 0 R", o.num)
}

// Build returns a PDF with the given pages and form fields.
func Build(pages []Page, fields ...Field) []byte {
	w := &writer{}
	catalog := w.alloc()
	pagesObj := w.alloc()
	font := w.alloc()
	appearance := w.alloc()

	font.body = "<< /Type /Font /Subtype /Type1 /BaseFont /Helvetica /Encoding /WinAnsiEncoding >>"
	appearance.body = "<< /Type /XObject /Subtype /Form /BBox [0 0 10 10] /Length 0 >>\nstream\n\nendstream"

	pageObjs := make([]*object, len(pages))
	contentObjs := make([]*object, len(pages))
	for i := range pages {
		pageObjs[i] = w.alloc()
		contentObjs[i] = w.alloc()
	}

	annots := make(map[int][]string)
	parents := make(map[string]*object)
	parentKids := make(map[string][]string)
	var parentOrder []string
	var topLevel []string

	for _, f := range fields {
		var parent *object
		if f.Parent != "" {
			p, ok := parents[f.Parent]
			if !ok {
				p = w.alloc()
				parents[f.Parent] = p
				parentOrder = append(parentOrder, f.Parent)
				topLevel = append(topLevel, ref(p))
			}
			parent = p
		}

		fieldObj := w.alloc()
		if parent != nil {
			parentKids[f.Parent] = append(parentKids[f.Parent], ref(fieldObj))
		} else {
			topLevel = append(topLevel, ref(fieldObj))
		}

		var b strings.Builder
		b.WriteString("<< /T " + literal(f.Name))
		if parent != nil {
			b.WriteString(" /Parent " + ref(parent))
		}
		da := f.DA
		if da == "" {
			da = "/Helv 0 Tf 0 g"
		}

		pageRef := ""
		if f.Page >= 1 && f.Page <= len(pageObjs) {
			pageRef = ref(pageObjs[f.Page-1])
		}
		widgetDict := func(rect [4]float64, on string, active bool) string {
			state := "/Off"
			if active {
				state = "/" + on
			}
			s := fmt.Sprintf(" /Type /Annot /Subtype /Widget /Rect [%s] /AS %s /AP << /N << /%s %s /Off %s >> >>",
				rectString(rect), state, on, ref(appearance), ref(appearance))
			if pageRef != "" {
				s += " /P " + pageRef
			}
			return s
		}

		switch f.Type {
		case TextField:
			b.WriteString(fmt.Sprintf(" /FT /Tx /Ff %d /DA %s /Q %d", f.Flags, literal(da), f.Q))
			if f.Value != "" {
				b.WriteString(" /V " + literal(f.Value))
			}
			b.WriteString(simpleWidget(f.Rect, pageRef))
			annots[f.Page] = append(annots[f.Page], ref(fieldObj))
		case CheckBox:
			b.WriteString(fmt.Sprintf(" /FT /Btn /Ff %d", f.Flags))
			if f.Checked {
				b.WriteString(" /V /Yes")
			} else {
				b.WriteString(" /V /Off")
			}
			b.WriteString(widgetDict(f.Rect, "Yes", f.Checked))
			annots[f.Page] = append(annots[f.Page], ref(fieldObj))
		case Radio:
			b.WriteString(fmt.Sprintf(" /FT /Btn /Ff %d", ffRadio|f.Flags))
			if f.Value != "" {
				b.WriteString(" /V /" + f.Value)
			}
			var kids []string
			for i, opt := range f.Options {
				kid := w.alloc()
				r := f.Rect
				dy := float64(i) * (r[3] - r[1] + 4)
				r[1] -= dy
				r[3] -= dy
				kid.body = "<<" + widgetDict(r, opt, opt == f.Value) + " /Parent " + ref(fieldObj) + " >>"
				kids = append(kids, ref(kid))
				annots[f.Page] = append(annots[f.Page], ref(kid))
			}
			b.WriteString(" /Kids [" + strings.Join(kids, " ") + "]")
		case Combo, List:
			flags := f.Flags
			if f.Type == Combo {
				flags |= ffCombo
			}
			b.WriteString(fmt.Sprintf(" /FT /Ch /Ff %d /DA %s", flags, literal(da)))
			opts := make([]string, len(f.Options))
			for i, o := range f.Options {
				opts[i] = literal(o)
			}
			b.WriteString(" /Opt [" + strings.Join(opts, " ") + "]")
			if f.Value != "" {
				b.WriteString(" /V " + literal(f.Value))
			}
			b.WriteString(simpleWidget(f.Rect, pageRef))
			annots[f.Page] = append(annots[f.Page], ref(fieldObj))
		case Button:
			b.WriteString(fmt.Sprintf(" /FT /Btn /Ff %d", ffPushButton|f.Flags))
			b.WriteString(simpleWidget(f.Rect, pageRef))
			annots[f.Page] = append(annots[f.Page], ref(fieldObj))
		}
		b.WriteString(" >>")
		fieldObj.body = b.String()
	}

	for _, name := range parentOrder {
		parents[name].body = fmt.Sprintf("<< /T %s /Kids [%s] >>", literal(name), strings.Join(parentKids[name], " "))
	}

	kids := make([]string, len(pages))
	for i, p := range pages {
		kids[i] = ref(pageObjs[i])

		var content strings.Builder
		for j, line := range p.Text {
			fmt.Fprintf(&content, "BT /F1 12 Tf 72 %.2f Td %s Tj ET\n", p.Height-72-float64(j)*20, literal(line))
		}
		contentObjs[i].body = fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String())

		page := fmt.Sprintf("<< /Type /Page /Parent %s /MediaBox [0 0 %s %s] /Resources << /Font << /F1 %s >> >> /Contents %s",
			ref(pagesObj), num(p.Width), num(p.Height), ref(font), ref(contentObjs[i]))
		if a := annots[i+1]; len(a) > 0 {
			page += " /Annots [" + strings.Join(a, " ") + "]"
		}
		pageObjs[i].body = page + " >>"
	}
	pagesObj.body = fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages))

	if len(fields) > 0 {
		catalog.body = fmt.Sprintf("<< /Type /Catalog /Pages %s /AcroForm << /Fields [%s] /DA (/Helv 0 Tf 0 g) /DR << /Font << /Helv %s >> >> >> >>",
			ref(pagesObj), strings.Join(topLevel, " "), ref(font))
	} else {
		catalog.body = fmt.Sprintf("<< /Type /Catalog /Pages %s >>", ref(pagesObj))
	}

	return w.serialize(catalog)
}

func simpleWidget(rect [4]float64, pageRef string) string {
	s := fmt.Sprintf(" /Type /Annot /Subtype /Widget /Rect [%s]", rectString(rect))
	if pageRef != "" {
		s += " /P " + pageRef
	}
	return s
}

func (w *writer) serialize(root *object) []byte {
	var buf bytes.Buffer
	buf.WriteString("%PDF-1.7\n%\xe2\xe3\xcf\xd3\n")

	sorted := append([]*object(nil), w.objs...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].num < sorted[j].num })

	offsets := make([]int, len(sorted)+1)
	for _, o := range sorted {
		offsets[o.num] = buf.Len()
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", o.num, o.body)
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(sorted)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, o := range sorted {
		fmt.Fprintf(&buf, "%010d 00000 n \n", offsets[o.num])
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root %s >>\nstartxref\n%d\n%%%%EOF\n", len(sorted)+1, ref(root), xref)
	return buf.Bytes()
}

// literal encodes s as a PDF literal string.
func literal(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `(`, `\(`, `)`, `\)`)
	return "(" + r.Replace(s) + ")"
}

func rectString(r [4]float64) string {
	return fmt.Sprintf("%s %s %s %s", num(r[0]), num(r[1]), num(r[2]), num(r[3]))
}

func num(f float64) string {
	s := fmt.Sprintf("%.2f", f)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}
