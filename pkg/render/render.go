// Package render turns field placements into drawing operations on a page.
//
// Placements are positioned by the layout editor in a reference pixel space:
// the editor shows a page referenceWidth pixels wide and records the box of
// every field in those pixels, with the origin at the top-left corner. Output
// pages are sized in points. Every coordinate and font size of a page is
// scaled by the same ratio, pageWidth / referenceWidth, so a layout keeps its
// proportions on any page size.
//
// The output document (fpdf) also uses a top-left origin, but draws text at
// the baseline where the editor draws a bounding box. LayoutText places the
// first baseline one line height below the box top, less the descender, which
// is the editor's box model seen from a baseline renderer.
//
// Nothing here writes to a document directly. LayoutText and PrepareQR return
// Ops, and Ops are drawn in order by the single goroutine that owns the
// document. QR bitmaps can therefore be encoded concurrently while all page
// mutation stays serialized.
package render

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Kind of a placement.
type Kind string

const (
	KindText Kind = "text"
	KindQR   Kind = "qrcode"
)

// Align is the horizontal alignment of text inside its box.
type Align string

const (
	AlignLeft   Align = "left"
	AlignCenter Align = "center"
	AlignRight  Align = "right"
)

// Editor defaults for attributes a placement record leaves out.
const (
	DefaultFontSize = 16
	DefaultBoxSize  = 100
	DefaultFill     = "#000000"
)

// Placement is one positioned, data bound element of a page. Coordinates are
// reference pixels.
type Placement struct {
	Page       int     `json:"page,omitempty"`
	Kind       Kind    `json:"kind"`
	Index      int     `json:"index"`
	Left       float64 `json:"left"`
	Top        float64 `json:"top"`
	Width      float64 `json:"width"`
	Height     float64 `json:"height"`
	FontFamily string  `json:"fontFamily,omitempty"`
	FontSize   float64 `json:"fontSize,omitempty"`
	Fill       string  `json:"fill,omitempty"`
	TextAlign  Align   `json:"textAlign,omitempty"`
}

// PageLayout is the set of placements of one page together with the pixel
// width the editor measured the page at.
type PageLayout struct {
	ReferenceWidth float64     `json:"referenceWidth"`
	Placements     []Placement `json:"placements"`
}

// canvasObject is one object of the editor's canvas export. Only text boxes
// are data bound; renderType tells a QR code box from a text box.
type canvasObject struct {
	Placement
	Type       string `json:"type"`
	RenderType string `json:"renderType"`
}

// UnmarshalJSON also accepts the editor's canvas export, which names the
// fields clientWidth and objects. Canvas objects that are not text boxes, such
// as rectangles, are dropped.
func (l *PageLayout) UnmarshalJSON(b []byte) error {
	var raw struct {
		ReferenceWidth float64        `json:"referenceWidth"`
		ClientWidth    float64        `json:"clientWidth"`
		Placements     []Placement    `json:"placements"`
		Objects        []canvasObject `json:"objects"`
	}
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	l.ReferenceWidth = raw.ReferenceWidth
	if l.ReferenceWidth == 0 {
		l.ReferenceWidth = raw.ClientWidth
	}
	l.Placements = raw.Placements
	if l.Placements != nil || raw.Objects == nil {
		return nil
	}

	l.Placements = make([]Placement, 0, len(raw.Objects))
	for _, o := range raw.Objects {
		if !strings.Contains(o.Type, "text") {
			continue
		}
		p := o.Placement
		switch {
		case o.RenderType == string(KindQR):
			p.Kind = KindQR
		case p.Kind == "":
			p.Kind = KindText
		}
		l.Placements = append(l.Placements, p)
	}
	return nil
}

// Ratio returns the points per reference pixel of a page.
func Ratio(pageWidth, referenceWidth float64) (float64, error) {
	if referenceWidth <= 0 {
		return 0, fmt.Errorf("invalid reference width %v", referenceWidth)
	}
	return pageWidth / referenceWidth, nil
}

// Box is a scaled placement box in points, origin at the top-left.
type Box struct {
	X, Y, W, H float64
}

// Box scales the placement's box by ratio, applying the editor's default size
// to missing dimensions.
func (p Placement) Box(ratio float64) Box {
	w, h := p.Width, p.Height
	if w == 0 {
		w = DefaultBoxSize
	}
	if h == 0 {
		h = DefaultBoxSize
	}
	return Box{X: p.Left * ratio, Y: p.Top * ratio, W: w * ratio, H: h * ratio}
}

// Size returns the scaled font size.
func (p Placement) Size(ratio float64) float64 {
	s := p.FontSize
	if s == 0 {
		s = DefaultFontSize
	}
	return s * ratio
}

// RGB is a fill color.
type RGB struct {
	R, G, B int
}

// Normalized returns the components scaled to 0..1.
func (c RGB) Normalized() (float64, float64, float64) {
	return float64(c.R) / 255, float64(c.G) / 255, float64(c.B) / 255
}

var hexPattern = regexp.MustCompile(`^#?([0-9a-fA-F]{6}|[0-9a-fA-F]{3})$`)

// ParseColor reads a #rrggbb or #rgb color. Anything else is black.
func ParseColor(hex string) RGB {
	m := hexPattern.FindStringSubmatch(hex)
	if m == nil {
		return RGB{}
	}
	digits := m[1]
	if len(digits) == 3 {
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	}
	v, _ := strconv.ParseUint(digits, 16, 32)
	return RGB{R: int(v >> 16 & 0xff), G: int(v >> 8 & 0xff), B: int(v & 0xff)}
}
