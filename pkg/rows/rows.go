// Package rows reads the tabular data that drives a merge.
//
// Only the first sheet of a workbook is read. The first row is treated as the
// header and never merged. Every data row is exposed as a RowData keyed by the
// zero-based column index, with missing cells filled in as empty strings so
// downstream code never has to branch on absence.
//
// Supported inputs:
//
// - Excel workbooks (.xlsx, .xlsm, .xltx, .xltm), streamed with excelize
// - Comma separated files (.csv)
//
// A row ceiling bounds how much of the table is read. Rows past the ceiling are
// never parsed.
package rows

import (
	"fmt"
	"iter"
	"path/filepath"
	"strings"
)

const (
	// TrialLimit is the row ceiling of an unlicensed installation.
	TrialLimit = 10
	// LicensedLimit is the row ceiling of a licensed installation.
	LicensedLimit = 100_000
)

// RowData maps a zero-based column index to the cell's display string.
type RowData map[int]string

// Get returns the value at column i, or "" when the column is not part of the row.
func (r RowData) Get(i int) string {
	return r[i]
}

// Lookup returns the value at column i and whether the row has such a column.
func (r RowData) Lookup(i int) (string, bool) {
	if i < 0 || r == nil {
		return "", false
	}
	v, ok := r[i]
	return v, ok
}

// Values returns the row as a slice ordered by column index.
func (r RowData) Values() []string {
	out := make([]string, len(r))
	for i := range out {
		out[i] = r[i]
	}
	return out
}

// Header is one labelled column of the header row.
type Header struct {
	Index int    `json:"index"`
	Label string `json:"label"`
}

// Table is the bounded result of reading a data source.
type Table struct {
	Path     string
	Sheet    string // empty for CSV
	Header   []Header
	Rows     []RowData
	RowCount int
}

// All yields every row with its 1-based row number.
func (t *Table) All() iter.Seq2[int, RowData] {
	return func(yield func(int, RowData) bool) {
		for i, r := range t.Rows {
			if !yield(i+1, r) {
				return
			}
		}
	}
}

// SourceReadError reports a data source that could not be read as a table.
type SourceReadError struct {
	Path string
	Err  error
}

func (e *SourceReadError) Error() string {
	return fmt.Sprintf("cannot read data source %q: %v", e.Path, e.Err)
}

func (e *SourceReadError) Unwrap() error {
	return e.Err
}

// Open reads the first sheet of the file at path, skipping the header row and
// stopping after limit data rows. A limit of zero or less reads the whole table.
func Open(path string, limit int) (*Table, error) {
	var (
		t   *Table
		err error
	)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		t, err = readCSV(path, limit)
	case ".xlsx", ".xlsm", ".xltx", ".xltm":
		t, err = readWorkbook(path, limit)
	default:
		err = fmt.Errorf("unsupported file type %q", filepath.Ext(path))
	}
	if err != nil {
		return nil, &SourceReadError{Path: path, Err: err}
	}
	t.Path = path
	t.RowCount = len(t.Rows)
	return t, nil
}

// builder accumulates rows as they are streamed from a source.
type builder struct {
	limit  int
	header []Header
	rows   []RowData
	width  int
}

// full reports whether the ceiling has been reached.
func (b *builder) full() bool {
	return b.limit > 0 && len(b.rows) >= b.limit
}

func (b *builder) setHeader(cells []string) {
	b.header = make([]Header, len(cells))
	for i, c := range cells {
		b.header[i] = Header{Index: i, Label: strings.TrimSpace(c)}
	}
	b.width = len(cells)
}

func (b *builder) add(cells []string) {
	if len(cells) > b.width {
		b.width = len(cells)
	}
	r := make(RowData, len(cells))
	for i, c := range cells {
		r[i] = c
	}
	b.rows = append(b.rows, r)
}

// table pads every row to the widest row seen so all columns are defined.
func (b *builder) table() *Table {
	for _, r := range b.rows {
		for i := 0; i < b.width; i++ {
			if _, ok := r[i]; !ok {
				r[i] = ""
			}
		}
	}
	return &Table{Header: b.header, Rows: b.rows}
}
