package rows

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"
)

// writeWorkbook saves a workbook with a header row and n data rows.
func writeWorkbook(t *testing.T, n int) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()

	sheet := "Sheet1"
	f.SetCellValue(sheet, "A1", "Name")
	f.SetCellValue(sheet, "B1", "Email")
	f.SetCellValue(sheet, "C1", "Amount")
	for i := 1; i <= n; i++ {
		row := i + 1
		f.SetCellValue(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("name%d", i))
		if i%2 == 0 {
			f.SetCellValue(sheet, fmt.Sprintf("B%d", row), fmt.Sprintf("user%d@example.com", i))
		}
		f.SetCellValue(sheet, fmt.Sprintf("C%d", row), i*10)
	}

	path := filepath.Join(t.TempDir(), "data.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("Failed to save test file: %v", err)
	}
	return path
}

func TestOpenWorkbook(t *testing.T) {
	path := writeWorkbook(t, 3)

	tbl, err := Open(path, 0)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if tbl.Sheet != "Sheet1" {
		t.Errorf("Sheet = %q, want Sheet1", tbl.Sheet)
	}
	if tbl.RowCount != 3 {
		t.Fatalf("RowCount = %d, want 3", tbl.RowCount)
	}
	wantHeader := []string{"Name", "Email", "Amount"}
	if len(tbl.Header) != len(wantHeader) {
		t.Fatalf("header = %v", tbl.Header)
	}
	for i, h := range tbl.Header {
		if h.Index != i || h.Label != wantHeader[i] {
			t.Errorf("header[%d] = %+v, want %q", i, h, wantHeader[i])
		}
	}

	first := tbl.Rows[0]
	if first.Get(0) != "name1" || first.Get(2) != "10" {
		t.Errorf("first row = %v", first.Values())
	}
	// Missing cells are present as empty strings.
	v, ok := first.Lookup(1)
	if !ok || v != "" {
		t.Errorf("Lookup(1) = %q, %v; want empty and defined", v, ok)
	}
	if _, ok := first.Lookup(9); ok {
		t.Error("Lookup outside the table width should be undefined")
	}
	if first.Get(-1) != "" {
		t.Error("Get(-1) should be empty")
	}
	if got := tbl.Rows[1].Get(1); got != "user2@example.com" {
		t.Errorf("second row email = %q", got)
	}
}

func TestOpenHonorsCeiling(t *testing.T) {
	path := writeWorkbook(t, 500)

	tbl, err := Open(path, TrialLimit)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if tbl.RowCount != TrialLimit {
		t.Fatalf("RowCount = %d, want %d", tbl.RowCount, TrialLimit)
	}

	seen := 0
	for n, r := range tbl.All() {
		seen++
		if want := fmt.Sprintf("name%d", n); r.Get(0) != want {
			t.Errorf("row %d = %q, want %q", n, r.Get(0), want)
		}
	}
	if seen != TrialLimit {
		t.Errorf("All yielded %d rows, want %d", seen, TrialLimit)
	}
}

func TestOpenCSV(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data.csv")
	body := "\ufeffid,city\n1,Reykjavík\n2\n3,\"Akureyri, North\"\n"
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatal(err)
	}

	tbl, err := Open(path, 2)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if tbl.Header[0].Label != "id" {
		t.Errorf("BOM not stripped: %q", tbl.Header[0].Label)
	}
	if tbl.RowCount != 2 {
		t.Fatalf("RowCount = %d, want 2", tbl.RowCount)
	}
	if got := tbl.Rows[0].Get(1); got != "Reykjavík" {
		t.Errorf("city = %q", got)
	}
	if v, ok := tbl.Rows[1].Lookup(1); !ok || v != "" {
		t.Errorf("short record not padded: %q, %v", v, ok)
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()
	broken := filepath.Join(dir, "broken.xlsx")
	if err := os.WriteFile(broken, []byte("not a zip"), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []string{
		broken,
		filepath.Join(dir, "missing.csv"),
		filepath.Join(dir, "notes.txt"),
	}
	for _, path := range tests {
		_, err := Open(path, 0)
		var sre *SourceReadError
		if !errors.As(err, &sre) {
			t.Errorf("Open(%s) error = %v, want SourceReadError", filepath.Base(path), err)
			continue
		}
		if sre.Path != path {
			t.Errorf("SourceReadError.Path = %q, want %q", sre.Path, path)
		}
	}
}
