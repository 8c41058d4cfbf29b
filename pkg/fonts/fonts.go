// Package fonts resolves the font keys of field placements to fonts loaded into
// an output document.
//
// A key is either one of the 14 standard PDF font names (Helvetica, Times-Bold,
// Courier-Oblique, ...) or the path of a TrueType file inside the private font
// directory. The empty key means Helvetica.
//
// Fonts are memoized in a Cache. Embedding a TrueType file is expensive, so a
// key is only loaded the first time it is requested. A Cache belongs to exactly
// one output document: fonts registered with one document are meaningless in
// another, so the cache must be reset whenever its document is replaced.
//
// Custom fonts degrade gracefully. A file that is missing, unreadable, not a
// TrueType font or rejected by the PDF writer resolves to the default family
// and yields a MissingFont diagnostic. An unknown standard name is an error.
package fonts

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"codeberg.org/go-pdf/fpdf"
	"golang.org/x/image/font/sfnt"

	"github.com/gardar/plainmerge/pkg/diag"
)

// DefaultKey is used for placements without a font.
const DefaultKey = "Helvetica"

// Font is a font ready to be selected with SetFont on the document it was
// resolved for.
type Font struct {
	Key     string  // key the font was requested with
	Family  string  // family name registered with the document
	Style   string  // "", "B", "I" or "BI"
	UTF8    bool    // embedded TrueType font taking UTF-8 text
	Ascent  float64 // ascender in 1/1000 em
	Descent float64 // descender depth in 1/1000 em, positive
}

// Height returns the distance from descender to ascender at size.
func (f *Font) Height(size float64) float64 {
	return (f.Ascent + f.Descent) * size / 1000
}

// DescentAt returns the descender depth at size.
func (f *Font) DescentAt(size float64) float64 {
	return f.Descent * size / 1000
}

type metrics struct {
	family  string
	style   string
	ascent  float64
	descent float64
}

// standardFonts maps the standard PDF font names to fpdf core fonts. Metrics
// are the AFM ascender and descender values.
var standardFonts = map[string]metrics{
	"Courier":               {"Courier", "", 629, 157},
	"Courier-Bold":          {"Courier", "B", 629, 157},
	"Courier-Oblique":       {"Courier", "I", 629, 157},
	"Courier-BoldOblique":   {"Courier", "BI", 629, 157},
	"Helvetica":             {"Helvetica", "", 718, 207},
	"Helvetica-Bold":        {"Helvetica", "B", 718, 207},
	"Helvetica-Oblique":     {"Helvetica", "I", 718, 207},
	"Helvetica-BoldOblique": {"Helvetica", "BI", 718, 207},
	"Times-Roman":           {"Times", "", 683, 217},
	"Times-Bold":            {"Times", "B", 676, 205},
	"Times-Italic":          {"Times", "I", 683, 205},
	"Times-BoldItalic":      {"Times", "BI", 699, 205},
	"Symbol":                {"Symbol", "", 1010, 293},
	"ZapfDingbats":          {"ZapfDingbats", "", 820, 143},
}

// IsStandard reports whether key names one of the standard PDF fonts.
func IsStandard(key string) bool {
	_, ok := standardFonts[key]
	return ok
}

// Standard returns the font for a standard PDF font name.
func Standard(key string) (*Font, error) {
	m, ok := standardFonts[key]
	if !ok {
		return nil, &FontResolutionError{Key: key, Err: errors.New("not a standard font")}
	}
	return &Font{
		Key:     key,
		Family:  m.family,
		Style:   m.style,
		Ascent:  m.ascent,
		Descent: m.descent,
	}, nil
}

// FontResolutionError reports a font key that names no standard font and no
// file inside the font directory.
type FontResolutionError struct {
	Key string
	Err error
}

func (e *FontResolutionError) Error() string {
	return fmt.Sprintf("cannot resolve font %q: %v", e.Key, e.Err)
}

func (e *FontResolutionError) Unwrap() error {
	return e.Err
}

// Embedder is the part of an fpdf document a Cache needs to embed TrueType
// fonts. *fpdf.Fpdf implements it.
type Embedder interface {
	AddUTF8FontFromBytes(familyStr, styleStr string, utf8Bytes []byte)
	GetFontDesc(familyStr, styleStr string) fpdf.FontDescType
	Err() bool
	Error() error
	ClearError()
}

type entry struct {
	font     *Font
	fallback *diag.Diagnostic
}

// Cache memoizes resolved fonts for one output document.
type Cache struct {
	dir     string
	entries map[string]entry
	embeds  int
}

// NewCache returns an empty cache that accepts custom fonts stored under dir.
// An empty dir disables custom fonts.
func NewCache(dir string) *Cache {
	if dir != "" {
		dir = filepath.Clean(dir)
	}
	return &Cache{dir: dir, entries: make(map[string]entry)}
}

// Resolve returns the font for key, loading it into doc on first use. The
// diagnostics report a custom font that fell back to the default family; they
// are returned on every lookup of that key, not only the first.
func (c *Cache) Resolve(doc Embedder, key string) (*Font, []diag.Diagnostic, error) {
	if key == "" {
		key = DefaultKey
	}
	if e, ok := c.entries[key]; ok {
		return e.font, e.diagnostics(), nil
	}

	var e entry
	switch {
	case IsStandard(key):
		e.font, _ = Standard(key)
	case c.isCustom(key):
		f, err := c.embed(doc, key)
		if err != nil {
			e.fallback = &diag.Diagnostic{Kind: diag.MissingFont, Subject: key, Detail: err.Error()}
			f, _ = Standard(DefaultKey)
			f.Key = key
		}
		e.font = f
	default:
		return nil, nil, &FontResolutionError{Key: key, Err: errors.New("unknown font")}
	}

	c.entries[key] = e
	return e.font, e.diagnostics(), nil
}

func (e entry) diagnostics() []diag.Diagnostic {
	if e.fallback == nil {
		return nil
	}
	return []diag.Diagnostic{*e.fallback}
}

// Reset forgets every resolved font. Call it when the document the fonts were
// loaded into is replaced.
func (c *Cache) Reset() {
	clear(c.entries)
}

// Len returns the number of memoized keys.
func (c *Cache) Len() int {
	return len(c.entries)
}

// Embeds returns how many TrueType files have been embedded so far.
func (c *Cache) Embeds() int {
	return c.embeds
}

// isCustom reports whether key points inside the font directory.
func (c *Cache) isCustom(key string) bool {
	if c.dir == "" {
		return false
	}
	rel, err := filepath.Rel(c.dir, filepath.Clean(key))
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}

// embed reads, validates and registers a TrueType file with doc.
func (c *Cache) embed(doc Embedder, path string) (*Font, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateTrueType(data); err != nil {
		return nil, err
	}

	family := familyName(path)
	if err := addFont(doc, family, data); err != nil {
		return nil, err
	}
	c.embeds++

	desc := doc.GetFontDesc(family, "")
	f := &Font{
		Key:     path,
		Family:  family,
		UTF8:    true,
		Ascent:  float64(desc.Ascent),
		Descent: float64(desc.Descent),
	}
	if f.Descent < 0 {
		f.Descent = -f.Descent
	}
	if f.Ascent <= 0 {
		m := standardFonts[DefaultKey]
		f.Ascent, f.Descent = m.ascent, m.descent
	}
	return f, nil
}

// validateTrueType rejects data the PDF writer cannot embed.
func validateTrueType(data []byte) error {
	if len(data) >= 4 && string(data[:4]) == "OTTO" {
		return errors.New("CFF flavoured OpenType fonts are not supported")
	}
	if _, err := sfnt.Parse(data); err != nil {
		return fmt.Errorf("malformed font file: %w", err)
	}
	return nil
}

// addFont registers data under family, turning writer errors and panics
// into an error and leaving doc usable.
func addFont(doc Embedder, family string, data []byte) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("font rejected: %v", r)
		}
		if doc.Err() {
			if err == nil {
				err = fmt.Errorf("font rejected: %w", doc.Error())
			}
			doc.ClearError()
		}
	}()
	doc.AddUTF8FontFromBytes(family, "", data)
	return nil
}

// familyName derives a stable document-level family name from a font path.
func familyName(path string) string {
	sum := sha256.Sum256([]byte(path))
	return "custom" + hex.EncodeToString(sum[:6])
}
