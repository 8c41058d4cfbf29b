package pdftpl

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/gardar/plainmerge/internal/testpdf"
	"github.com/gardar/plainmerge/pkg/form"
)

func formTemplate() []byte {
	return testpdf.Build(
		[]testpdf.Page{testpdf.Letter("Application"), {Width: 420, Height: 595, Text: []string{"Page two"}}},
		testpdf.Field{Name: "name", Type: testpdf.TextField, Page: 1, Rect: [4]float64{72, 600, 300, 620}, Value: "Jane (Doe)", DA: "/Helv 11 Tf 0 g", Q: 1},
		testpdf.Field{Name: "notes", Type: testpdf.TextField, Page: 2, Rect: [4]float64{72, 300, 300, 400}, Flags: testpdf.MultilineFlag},
		testpdf.Field{Name: "agree", Type: testpdf.CheckBox, Page: 1, Rect: [4]float64{72, 560, 86, 574}, Checked: true},
		testpdf.Field{Name: "size", Type: testpdf.Radio, Page: 1, Rect: [4]float64{72, 520, 84, 532}, Options: []string{"S", "M", "L"}, Value: "M"},
		testpdf.Field{Name: "country", Type: testpdf.Combo, Page: 1, Rect: [4]float64{200, 520, 300, 536}, Options: []string{"IS", "NO", "SE"}, Value: "NO"},
		testpdf.Field{Name: "tags", Type: testpdf.List, Page: 2, Rect: [4]float64{72, 200, 200, 260}, Options: []string{"red", "blue"}},
		testpdf.Field{Name: "submit", Type: testpdf.Button, Page: 2, Rect: [4]float64{72, 100, 150, 120}},
		testpdf.Field{Name: "first", Parent: "person", Type: testpdf.TextField, Page: 2, Rect: [4]float64{72, 500, 200, 520}},
	)
}

func TestLoadPages(t *testing.T) {
	tpl, err := Load(formTemplate())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if tpl.PageCount() != 2 {
		t.Fatalf("PageCount = %d, want 2", tpl.PageCount())
	}
	p1, _ := tpl.Page(1)
	if p1.Width != 612 || p1.Height != 792 {
		t.Errorf("page 1 = %+v", p1)
	}
	p2, _ := tpl.Page(2)
	if p2.Number != 2 || p2.Width != 420 || p2.Height != 595 {
		t.Errorf("page 2 = %+v", p2)
	}
	if _, ok := tpl.Page(3); ok {
		t.Error("Page(3) should not exist")
	}
}

func TestLoadForm(t *testing.T) {
	tpl, err := Load(formTemplate())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	f, err := tpl.Fresh()
	if err != nil {
		t.Fatal(err)
	}

	name := f.Field("name")
	if name == nil || name.Kind != form.Text {
		t.Fatalf("name field = %+v", name)
	}
	if name.Value != "Jane (Doe)" {
		t.Errorf("name value = %q", name.Value)
	}
	if name.FontSize != 11 || name.Align != form.AlignCenter {
		t.Errorf("name appearance = size %v align %v", name.FontSize, name.Align)
	}
	if len(name.Widgets) != 1 || name.Widgets[0].Page != 1 {
		t.Fatalf("name widgets = %+v", name.Widgets)
	}
	if r := name.Widgets[0].Rect; r.LLX != 72 || r.URY != 620 {
		t.Errorf("name rect = %+v", r)
	}

	if notes := f.Field("notes"); notes == nil || !notes.Multiline || notes.Widgets[0].Page != 2 {
		t.Errorf("notes field = %+v", notes)
	}

	agree := f.Field("agree")
	if agree == nil || agree.Kind != form.CheckBox || !agree.Checked || agree.Widgets[0].OnState != "Yes" {
		t.Errorf("agree field = %+v", agree)
	}

	size := f.Field("size")
	if size == nil || size.Kind != form.RadioGroup {
		t.Fatalf("size field = %+v", size)
	}
	if len(size.Options) != 3 || size.Value != "M" || len(size.Widgets) != 3 {
		t.Errorf("size = options %v value %q widgets %d", size.Options, size.Value, len(size.Widgets))
	}
	if size.SelectedWidget() != 1 {
		t.Errorf("selected radio widget = %d", size.SelectedWidget())
	}

	country := f.Field("country")
	if country == nil || country.Kind != form.Dropdown || country.Value != "NO" || len(country.Options) != 3 {
		t.Errorf("country field = %+v", country)
	}
	if tags := f.Field("tags"); tags == nil || tags.Kind != form.OptionList || tags.Value != "" {
		t.Errorf("tags field = %+v", tags)
	}
	if submit := f.Field("submit"); submit == nil || submit.Kind != form.Unsupported {
		t.Errorf("submit field = %+v", submit)
	}
	if first := f.Field("person.first"); first == nil || first.Kind != form.Text {
		t.Errorf("qualified field missing: %v", f.Names())
	}
}

func TestFreshIsolation(t *testing.T) {
	tpl, err := Load(formTemplate())
	if err != nil {
		t.Fatal(err)
	}
	a, _ := tpl.Fresh()
	a.Field("name").Value = "changed"
	b, _ := tpl.Fresh()
	if got := b.Field("name").Value; got != "Jane (Doe)" {
		t.Errorf("fresh copy sees earlier change: %q", got)
	}
}

func TestFields(t *testing.T) {
	tpl, err := Load(formTemplate())
	if err != nil {
		t.Fatal(err)
	}
	fields := tpl.Fields()
	if len(fields) != 7 {
		t.Fatalf("Fields = %+v", fields)
	}
	for _, f := range fields {
		if f.Name == "submit" {
			t.Error("push buttons should not be listed")
		}
	}
}

func TestLoadWithoutForm(t *testing.T) {
	tpl, err := Load(testpdf.Build([]testpdf.Page{testpdf.Letter("plain")}))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	f, err := tpl.Fresh()
	if err != nil {
		t.Fatal(err)
	}
	if len(f.Fields) != 0 {
		t.Errorf("unexpected fields %v", f.Names())
	}
}

func TestLoadErrors(t *testing.T) {
	var tle *TemplateLoadError
	if _, err := Load(nil); !errors.As(err, &tle) {
		t.Errorf("Load(nil) error = %v", err)
	}
	if _, err := Load([]byte("%PDF-1.7\nnot really")); !errors.As(err, &tle) {
		t.Errorf("Load(garbage) error = %v", err)
	}

	path := filepath.Join(t.TempDir(), "bad.pdf")
	if err := os.WriteFile(path, []byte("nope"), 0644); err != nil {
		t.Fatal(err)
	}
	_, err := LoadFile(path)
	if !errors.As(err, &tle) || tle.Path != path {
		t.Errorf("LoadFile error = %v", err)
	}
}

func TestStringValue(t *testing.T) {
	ctx, err := api.ReadContext(bytes.NewReader(formTemplate()), model.NewDefaultConfiguration())
	if err != nil {
		t.Fatalf("ReadContext failed: %v", err)
	}
	w := walker{ctx: ctx}

	tests := []struct {
		in   types.Object
		want string
	}{
		{types.StringLiteral(`plain`), "plain"},
		{types.StringLiteral(`a\(b\)c`), "a(b)c"},
		{types.StringLiteral(`back\\slash`), `back\slash`},
		{types.StringLiteral(`line\nbreak`), "line\nbreak"},
		{types.StringLiteral(`oct\101\60`), "octA0"},
		{types.StringLiteral(`J\363n`), "Jón"},
		{types.HexLiteral("FEFF004A00F3006E"), "Jón"},
		{types.HexLiteral("4A6F6E"), "Jon"},
		{types.Name("Yes"), "Yes"},
		{types.Integer(3), ""},
		{nil, ""},
	}
	for _, tt := range tests {
		if got := w.stringValue(tt.in); got != tt.want {
			t.Errorf("stringValue(%v) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestLoadObjectStreams(t *testing.T) {
	var packed bytes.Buffer
	if err := api.Optimize(bytes.NewReader(formTemplate()), &packed, model.NewDefaultConfiguration()); err != nil {
		t.Fatalf("Optimize: %v", err)
	}
	if !bytes.Contains(packed.Bytes(), []byte("ObjStm")) {
		t.Fatal("fixture has no object streams")
	}

	tpl, err := Load(packed.Bytes())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !bytes.Equal(tpl.Data, packed.Bytes()) {
		t.Error("Data is not the input document")
	}
	if bytes.Contains(tpl.Source(), []byte("ObjStm")) {
		t.Error("Source still uses object streams")
	}
	if err := checkImport(tpl.Source(), tpl.Pages); err != nil {
		t.Errorf("Source cannot be imported: %v", err)
	}
	if tpl.PageCount() != 2 || len(tpl.Fields()) != 7 {
		t.Errorf("pages %d, fields %+v", tpl.PageCount(), tpl.Fields())
	}

	plain, err := Load(formTemplate())
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(plain.Source(), plain.Data) {
		t.Error("classic document was rewritten")
	}
}

func TestCheckImportRejectsUnparsable(t *testing.T) {
	err := checkImport([]byte("%PDF-1.4\n%%EOF\n"), []Page{{Number: 1, Width: 612, Height: 792}})
	if err == nil {
		t.Error("unparsable document accepted")
	}
}
