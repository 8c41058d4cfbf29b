// Package diag holds the non-fatal outcomes of a merge run.
//
// A batch merge keeps going when a spreadsheet value does not fit a fixed-choice
// form field or a custom font file has gone missing. Those situations are not
// errors, but callers and tests still need to see them, so every component that
// degrades gracefully reports a Diagnostic instead of staying silent.
package diag

import "fmt"

// Kind classifies a diagnostic.
type Kind string

const (
	ChoiceMismatch   Kind = "choice-mismatch"   // value not among a choice field's options
	UnknownField     Kind = "unknown-field"     // binding names a field the template lacks
	UnsupportedField Kind = "unsupported-field" // push buttons, signatures
	MissingValue     Kind = "missing-value"     // bound column outside the row
	MissingFont      Kind = "missing-font"      // custom font unusable, default family used
	QRCapacity       Kind = "qr-capacity"       // value too long for a QR symbol
)

// Diagnostic describes one non-fatal outcome. Row and Page are 1-based, zero
// when not applicable.
type Diagnostic struct {
	Kind    Kind   `json:"kind"`
	Row     int    `json:"row,omitempty"`
	Page    int    `json:"page,omitempty"`
	Subject string `json:"subject"`
	Detail  string `json:"detail,omitempty"`
}

func (d Diagnostic) String() string {
	s := string(d.Kind) + " " + d.Subject
	if d.Row > 0 {
		s = fmt.Sprintf("row %d: %s", d.Row, s)
	}
	if d.Page > 0 {
		s += fmt.Sprintf(" (page %d)", d.Page)
	}
	if d.Detail != "" {
		s += ": " + d.Detail
	}
	return s
}

// List is an ordered collection of diagnostics.
type List []Diagnostic

// Add appends d.
func (l *List) Add(d Diagnostic) {
	*l = append(*l, d)
}

// Merge appends every entry of other, stamping the row number on entries that
// do not carry one yet.
func (l *List) Merge(row int, other []Diagnostic) {
	for _, d := range other {
		if d.Row == 0 {
			d.Row = row
		}
		*l = append(*l, d)
	}
}

// Count returns the number of entries of kind k.
func (l List) Count(k Kind) int {
	n := 0
	for _, d := range l {
		if d.Kind == k {
			n++
		}
	}
	return n
}
