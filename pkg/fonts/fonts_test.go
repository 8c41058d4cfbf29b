package fonts

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/gardar/plainmerge/pkg/diag"
)

func newDoc() *fpdf.Fpdf {
	return fpdf.New("P", "pt", "", "")
}

func TestResolveStandard(t *testing.T) {
	c := NewCache("")
	doc := newDoc()

	tests := []struct {
		key, family, style string
	}{
		{"", "Helvetica", ""},
		{"Helvetica-Bold", "Helvetica", "B"},
		{"Times-Roman", "Times", ""},
		{"Times-BoldItalic", "Times", "BI"},
		{"Courier-Oblique", "Courier", "I"},
		{"ZapfDingbats", "ZapfDingbats", ""},
	}
	for _, tt := range tests {
		f, diags, err := c.Resolve(doc, tt.key)
		if err != nil {
			t.Fatalf("Resolve(%q) error: %v", tt.key, err)
		}
		if len(diags) != 0 {
			t.Errorf("Resolve(%q) diagnostics: %v", tt.key, diags)
		}
		if f.Family != tt.family || f.Style != tt.style || f.UTF8 {
			t.Errorf("Resolve(%q) = %+v", tt.key, f)
		}
	}
	if c.Embeds() != 0 {
		t.Errorf("standard fonts should not embed, got %d", c.Embeds())
	}
}

func TestResolveUnknown(t *testing.T) {
	c := NewCache(t.TempDir())
	_, _, err := c.Resolve(newDoc(), "Comic Sans")
	var fre *FontResolutionError
	if !errors.As(err, &fre) {
		t.Fatalf("error = %v, want FontResolutionError", err)
	}
	if fre.Key != "Comic Sans" {
		t.Errorf("Key = %q", fre.Key)
	}

	// A file outside the font directory is not a custom font.
	outside := filepath.Join(t.TempDir(), "x.ttf")
	if _, _, err := c.Resolve(newDoc(), outside); !errors.As(err, &fre) {
		t.Errorf("outside path error = %v, want FontResolutionError", err)
	}
}

func TestResolveCustomMemoized(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "go.ttf")
	if err := os.WriteFile(path, goregular.TTF, 0644); err != nil {
		t.Fatal(err)
	}

	c := NewCache(dir)
	doc := newDoc()
	first, diags, err := c.Resolve(doc, path)
	if err != nil {
		t.Fatalf("Resolve error: %v", err)
	}
	if len(diags) != 0 {
		t.Fatalf("unexpected diagnostics: %v", diags)
	}
	if !first.UTF8 || first.Family == "Helvetica" {
		t.Errorf("custom font not embedded: %+v", first)
	}
	if first.Ascent <= 0 || first.Descent <= 0 {
		t.Errorf("metrics not read: %+v", first)
	}

	second, _, err := c.Resolve(doc, path)
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Error("second lookup should return the cached font")
	}
	if c.Embeds() != 1 {
		t.Errorf("Embeds = %d, want 1", c.Embeds())
	}
	if doc.Err() {
		t.Errorf("document error: %v", doc.Error())
	}

	c.Reset()
	if c.Len() != 0 {
		t.Errorf("Len after Reset = %d", c.Len())
	}
	if _, _, err := c.Resolve(newDoc(), path); err != nil {
		t.Fatal(err)
	}
	if c.Embeds() != 2 {
		t.Errorf("Embeds after Reset = %d, want 2", c.Embeds())
	}
}

func TestResolveCustomFallback(t *testing.T) {
	dir := t.TempDir()
	garbage := filepath.Join(dir, "garbage.ttf")
	if err := os.WriteFile(garbage, []byte("definitely not a font"), 0644); err != nil {
		t.Fatal(err)
	}
	cff := filepath.Join(dir, "cff.otf")
	if err := os.WriteFile(cff, append([]byte("OTTO"), make([]byte, 64)...), 0644); err != nil {
		t.Fatal(err)
	}

	for _, key := range []string{filepath.Join(dir, "gone.ttf"), garbage, cff} {
		c := NewCache(dir)
		doc := newDoc()
		for i := 0; i < 2; i++ {
			f, diags, err := c.Resolve(doc, key)
			if err != nil {
				t.Fatalf("Resolve(%s) error: %v", filepath.Base(key), err)
			}
			if f.Family != "Helvetica" || f.UTF8 {
				t.Errorf("Resolve(%s) = %+v, want Helvetica fallback", filepath.Base(key), f)
			}
			if len(diags) != 1 || diags[0].Kind != diag.MissingFont || diags[0].Subject != key {
				t.Errorf("lookup %d diagnostics = %v", i+1, diags)
			}
		}
		if doc.Err() {
			t.Errorf("document left in error state: %v", doc.Error())
		}
	}
}

func TestFontMetrics(t *testing.T) {
	f, err := Standard("Helvetica")
	if err != nil {
		t.Fatal(err)
	}
	if got, want := f.Height(10), 9.25; got != want {
		t.Errorf("Height(10) = %v, want %v", got, want)
	}
	if got, want := f.DescentAt(10), 2.07; got < want-1e-9 || got > want+1e-9 {
		t.Errorf("DescentAt(10) = %v, want %v", got, want)
	}
}
