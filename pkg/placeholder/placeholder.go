// Package placeholder substitutes row values into text templates.
//
// A placeholder is a token of the form [[{"id":3}]]: a JSON object wrapped in
// double brackets whose id field names a zero-based column. The editor writes
// the column label next to the id, so any other keys are ignored:
//
//	Invoice for [[{"id":0,"label":"Name"}]] ([[{"id":2}]])
//
// Templates drive output file names as well as email subjects and bodies.
package placeholder

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	anyascii "github.com/anyascii/go"
)

var (
	tokenPattern  = regexp.MustCompile(`\[\[(.*?)\]\]`)
	unsafePattern = regexp.MustCompile(`[^a-zA-Z0-9]`)
)

// Row is the read access a template needs to a data row.
type Row interface {
	Lookup(i int) (string, bool)
}

// token is the JSON payload of a placeholder.
type token struct {
	ID json.RawMessage `json:"id"`
}

// column parses the column index of a placeholder body. The id may be encoded
// as a number or a numeric string.
func column(body string) (int, bool) {
	var tok token
	if err := json.Unmarshal([]byte(body), &tok); err != nil || len(tok.ID) == 0 {
		return 0, false
	}
	raw := string(tok.ID)
	if unq, err := strconv.Unquote(raw); err == nil {
		raw = unq
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil || f != float64(int(f)) {
		return 0, false
	}
	return int(f), true
}

// Render replaces every placeholder in tpl with the matching row value. Values
// of undefined columns become empty. Tokens that are not valid placeholders are
// kept as written. The result is trimmed.
func Render(tpl string, row Row) string {
	out := tokenPattern.ReplaceAllStringFunc(tpl, func(m string) string {
		idx, ok := column(tokenPattern.FindStringSubmatch(m)[1])
		if !ok {
			return m
		}
		if row == nil {
			return ""
		}
		v, _ := row.Lookup(idx)
		return v
	})
	return strings.TrimSpace(out)
}

// Columns returns the column indexes referenced by tpl in order of appearance.
func Columns(tpl string) []int {
	var cols []int
	for _, m := range tokenPattern.FindAllStringSubmatch(tpl, -1) {
		if idx, ok := column(m[1]); ok {
			cols = append(cols, idx)
		}
	}
	return cols
}

// Sanitize transliterates name to ASCII and replaces everything that is not
// an ASCII letter or digit with an underscore.
func Sanitize(name string) string {
	return unsafePattern.ReplaceAllString(anyascii.Transliterate(name), "_")
}
