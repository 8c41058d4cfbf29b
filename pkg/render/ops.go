package render

import (
	"bytes"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/plainmerge/pkg/fonts"
)

// Op is one drawing operation on the current page of a document.
type Op interface {
	Draw(pdf *fpdf.Fpdf)
}

// TextOp draws laid out lines in one font, size and color.
type TextOp struct {
	Font    *fonts.Font
	Size    float64
	Color   RGB
	Lines   []Line
	Clipped bool // lines were dropped because they did not fit the box
}

func (op *TextOp) Draw(pdf *fpdf.Fpdf) {
	pdf.SetFont(op.Font.Family, op.Font.Style, op.Size)
	pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)
	for _, ln := range op.Lines {
		pdf.Text(ln.X, ln.Y, ln.Text)
	}
}

// ImageOp draws a square PNG image with its top-left corner at X, Y.
type ImageOp struct {
	Name string
	PNG  []byte
	X, Y float64
	Size float64
}

func (op *ImageOp) Draw(pdf *fpdf.Fpdf) {
	opts := fpdf.ImageOptions{ReadDpi: false, ImageType: "PNG"}
	if pdf.GetImageInfo(op.Name) == nil {
		pdf.RegisterImageOptionsReader(op.Name, opts, bytes.NewReader(op.PNG))
	}
	pdf.ImageOptions(op.Name, op.X, op.Y, op.Size, op.Size, false, opts, 0, "")
}

// CheckOp draws a ZapfDingbats check mark centered in a square box.
type CheckOp struct {
	X, Y, Size float64 // top-left corner and side of the box
	Color      RGB
}

func (op *CheckOp) Draw(pdf *fpdf.Fpdf) {
	size := op.Size * 0.8
	pdf.SetFont("ZapfDingbats", "", size)
	pdf.SetTextColor(op.Color.R, op.Color.G, op.Color.B)
	w := pdf.GetStringWidth("4")
	// The check glyph sits on the baseline and is about 0.7 em tall.
	pdf.Text(op.X+(op.Size-w)/2, op.Y+op.Size/2+size*0.35, "4")
}

// DotOp draws a filled circle, the selected state of a radio button.
type DotOp struct {
	CX, CY, R float64
	Color     RGB
}

func (op *DotOp) Draw(pdf *fpdf.Fpdf) {
	pdf.SetFillColor(op.Color.R, op.Color.G, op.Color.B)
	pdf.Circle(op.CX, op.CY, op.R, "F")
}

// OutlineOp strokes the border of a box.
type OutlineOp struct {
	Box   Box
	Color RGB
}

func (op *OutlineOp) Draw(pdf *fpdf.Fpdf) {
	pdf.SetDrawColor(op.Color.R, op.Color.G, op.Color.B)
	pdf.SetLineWidth(0.5)
	pdf.Rect(op.Box.X, op.Box.Y, op.Box.W, op.Box.H, "D")
}

// DrawAll draws ops in order.
func DrawAll(pdf *fpdf.Fpdf, ops []Op) {
	for _, op := range ops {
		op.Draw(pdf)
	}
}
