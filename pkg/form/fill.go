package form

import (
	"fmt"
	"sort"
	"strings"

	"github.com/gardar/plainmerge/pkg/diag"
)

// Unbound is the column index of a binding entry that is not mapped.
const Unbound = -1

// Binding maps form field names to zero-based column indexes.
type Binding map[string]int

// Row is the read access the filler needs to a data row.
type Row interface {
	Lookup(i int) (string, bool)
}

// Fill applies the row values selected by b to f. Entries with an Unbound
// column are skipped. Everything else that cannot be applied is reported as a
// diagnostic and leaves the field as it was. rowNum is the 1-based row number
// recorded on diagnostics.
func Fill(f *Form, b Binding, row Row, rowNum int) []diag.Diagnostic {
	var diags []diag.Diagnostic
	report := func(k diag.Kind, name, detail string) {
		diags = append(diags, diag.Diagnostic{Kind: k, Row: rowNum, Subject: name, Detail: detail})
	}

	// Map iteration order is random; sort for stable diagnostics.
	names := make([]string, 0, len(b))
	for name := range b {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		idx := b[name]
		if idx == Unbound {
			continue
		}
		value, ok := row.Lookup(idx)
		if !ok {
			report(diag.MissingValue, name, fmt.Sprintf("column %d not in row", idx))
			continue
		}

		fld := f.Field(name)
		if fld == nil {
			report(diag.UnknownField, name, "no such field in template")
			continue
		}

		switch fld.Kind {
		case Text:
			fld.Value = value
		case CheckBox:
			fld.Checked = strings.EqualFold(value, "true")
		case RadioGroup, Dropdown, OptionList:
			if !fld.HasOption(value) {
				report(diag.ChoiceMismatch, name, fmt.Sprintf("%q is not one of %q", value, fld.Options))
				continue
			}
			fld.Value = value
		default:
			report(diag.UnsupportedField, name, "field type cannot be filled")
		}
	}
	return diags
}
