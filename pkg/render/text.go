package render

import (
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"

	"github.com/gardar/plainmerge/pkg/fonts"
)

// textInset is the horizontal nudge, in points, between box edge and text.
const textInset = 1

// lineSpacing is the line height relative to the font height.
const lineSpacing = 1.2

// Measurer measures strings in the current font. *fpdf.Fpdf implements it.
type Measurer interface {
	SetFont(familyStr, styleStr string, size float64)
	GetStringWidth(s string) float64
}

// Line is one laid out line of text. X is the left edge and Y the baseline,
// both in points from the top-left corner of the page.
type Line struct {
	Text string
	X, Y float64
	W    float64
}

// EncodeText converts s to what the PDF writer expects for font: UTF-8 for
// embedded fonts, Windows-1252 for core fonts. Runes a core font cannot show
// are replaced.
func EncodeText(f *fonts.Font, s string) string {
	if f.UTF8 || f.Family == "Symbol" || f.Family == "ZapfDingbats" {
		return s
	}
	enc := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder())
	out, err := enc.String(s)
	if err != nil {
		return s
	}
	return out
}

// LayoutText lays value out inside the scaled box of p. The text is word
// wrapped to the box width, explicit line breaks are kept and each line is
// aligned as p requests. Lines whose baseline would fall below the box are
// dropped; the first line is always kept. An empty value yields nil.
func LayoutText(m Measurer, f *fonts.Font, p Placement, ratio float64, value string) *TextOp {
	if value == "" {
		return nil
	}
	size := p.Size(ratio)
	box := p.Box(ratio)
	m.SetFont(f.Family, f.Style, size)

	op := &TextOp{Font: f, Size: size, Color: ParseColor(p.Fill)}
	lineHeight := lineSpacing * f.Height(size)
	bottom := box.Y + box.H
	y := box.Y - f.DescentAt(size)
	x0 := box.X + textInset

	for i, ln := range wrap(m, EncodeText(f, value), box.W) {
		y += lineHeight
		if i > 0 && y > bottom {
			op.Clipped = true
			break
		}
		if ln == "" {
			continue
		}
		w := m.GetStringWidth(ln)
		x := x0
		switch p.TextAlign {
		case AlignCenter:
			x = x0 + box.W/2 - w/2
		case AlignRight:
			x = x0 + box.W - w
		}
		op.Lines = append(op.Lines, Line{Text: ln, X: x, Y: y, W: w})
	}
	return op
}

// wrap breaks text into lines no wider than width. Words longer than the
// width are kept whole on a line of their own.
func wrap(m Measurer, text string, width float64) []string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	text = strings.ReplaceAll(text, "\t", " ")

	var lines []string
	for _, para := range strings.Split(text, "\n") {
		words := strings.Fields(para)
		if len(words) == 0 {
			lines = append(lines, "")
			continue
		}
		cur := words[0]
		for _, word := range words[1:] {
			next := cur + " " + word
			if m.GetStringWidth(next) > width {
				lines = append(lines, cur)
				cur = word
				continue
			}
			cur = next
		}
		lines = append(lines, cur)
	}
	return lines
}
