package merge

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"

	"github.com/gardar/plainmerge/pkg/fonts"
	"github.com/gardar/plainmerge/pkg/pdftpl"
	"github.com/gardar/plainmerge/pkg/render"
)

// accumulator is the output document pages are copied into. It owns the font
// cache, because fonts are registered with one document only.
type accumulator struct {
	pdf      *fpdf.Fpdf
	importer *gofpdi.Importer
	rs       io.ReadSeeker
	path     string
	tpls     map[int]int // template page -> imported template id
	fonts    *fonts.Cache
	layer    int // optional content group of merged content, -1 for none
	blank    fpdf.SizeType
	pages    int
}

func newAccumulator(tpl *pdftpl.Template, cfg Config, ts time.Time) *accumulator {
	pdf := fpdf.New("P", "pt", "", "")
	pdf.SetMargins(0, 0, 0)
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCompression(cfg.Compress)
	pdf.SetCreator("plainmerge", false)
	pdf.SetCreationDate(ts)
	pdf.SetModificationDate(ts)

	layer := -1
	if cfg.LayerName != "" {
		layer = pdf.AddLayer(cfg.LayerName, true)
	}

	return &accumulator{
		pdf:      pdf,
		importer: gofpdi.NewImporter(),
		rs:       io.ReadSeeker(bytes.NewReader(tpl.Source())),
		path:     tpl.Path,
		tpls:     make(map[int]int),
		fonts:    fonts.NewCache(cfg.FontDir),
		layer:    layer,
		blank:    blankSize(tpl),
	}
}

// blankSize is the size of the page written when no row was merged, which is
// the size of the first template page.
func blankSize(tpl *pdftpl.Template) fpdf.SizeType {
	if p, ok := tpl.Page(1); ok {
		return fpdf.SizeType{Wd: p.Width, Ht: p.Height}
	}
	return fpdf.SizeType{Wd: 612, Ht: 792}
}

// addPage appends a copy of template page p and draws layers over it in order.
func (a *accumulator) addPage(p pdftpl.Page, layers ...[]render.Op) error {
	a.pdf.AddPageFormat("P", fpdf.SizeType{Wd: p.Width, Ht: p.Height})
	if err := a.place(p); err != nil {
		return &pdftpl.TemplateLoadError{Path: a.path, Err: err}
	}

	if a.layer >= 0 {
		a.pdf.BeginLayer(a.layer)
	}
	for _, ops := range layers {
		render.DrawAll(a.pdf, ops)
	}
	if a.layer >= 0 {
		a.pdf.EndLayer()
	}
	a.pages++
	return a.pdf.Error()
}

// place draws template page p, importing it on first use. The importer panics
// on documents it cannot parse.
func (a *accumulator) place(p pdftpl.Page) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page %d import failed: %v", p.Number, r)
		}
	}()
	tpl, ok := a.tpls[p.Number]
	if !ok {
		tpl = a.importer.ImportPageFromStream(a.pdf, &a.rs, p.Number, "/MediaBox")
		a.tpls[p.Number] = tpl
	}
	a.importer.UseImportedTemplate(a.pdf, tpl, 0, 0, p.Width, p.Height)
	return nil
}

// bytes serializes the document. The accumulator cannot be used afterwards.
// A document without merged pages gets one blank page, the least a PDF holds.
func (a *accumulator) bytes() ([]byte, error) {
	if a.pages == 0 {
		a.pdf.AddPageFormat("P", a.blank)
	}
	var buf bytes.Buffer
	if err := a.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
