package pdftpl

import (
	"bytes"
	"fmt"
	"io"

	"codeberg.org/go-pdf/fpdf"
	"codeberg.org/go-pdf/fpdf/contrib/gofpdi"
	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// importSource returns the bytes the page importer should read. The importer
// cannot resolve objects stored in object streams, so documents that use
// them, or cross-reference streams, are rewritten with a classic
// cross-reference table.
func importSource(ctx *model.Context, data []byte) ([]byte, error) {
	if ctx.Read == nil || (!ctx.Read.UsingObjectStreams && !ctx.Read.UsingXRefStreams) {
		return data, nil
	}
	conf := model.NewDefaultConfiguration()
	conf.WriteObjectStream = false
	conf.WriteXRefStream = false

	var buf bytes.Buffer
	if err := api.Optimize(bytes.NewReader(data), &buf, conf); err != nil {
		return nil, fmt.Errorf("cannot rewrite cross-reference streams: %w", err)
	}
	return buf.Bytes(), nil
}

// checkImport imports every page of src into a scratch document. The importer
// panics on input it cannot parse; that is reported as an error here rather
// than in the middle of a merge.
func checkImport(src []byte, pages []Page) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page import failed: %v", r)
		}
	}()

	pdf := fpdf.New("P", "pt", "", "")
	importer := gofpdi.NewImporter()
	rs := io.ReadSeeker(bytes.NewReader(src))
	for _, p := range pages {
		pdf.AddPageFormat("P", fpdf.SizeType{Wd: p.Width, Ht: p.Height})
		tpl := importer.ImportPageFromStream(pdf, &rs, p.Number, "/MediaBox")
		importer.UseImportedTemplate(pdf, tpl, 0, 0, p.Width, p.Height)
	}
	return pdf.Error()
}
