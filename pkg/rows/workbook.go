package rows

import (
	"fmt"

	"github.com/xuri/excelize/v2"
)

// readWorkbook streams the first sheet of an Excel workbook.
func readWorkbook(path string, limit int) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	sheet := sheets[0]

	it, err := f.Rows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to open sheet %q: %w", sheet, err)
	}
	defer it.Close()

	b := builder{limit: limit}
	first := true
	for !b.full() && it.Next() {
		cells, err := it.Columns()
		if err != nil {
			return nil, fmt.Errorf("failed to read row of sheet %q: %w", sheet, err)
		}
		if first {
			b.setHeader(cells)
			first = false
			continue
		}
		b.add(cells)
	}
	if err := it.Error(); err != nil {
		return nil, fmt.Errorf("failed to stream sheet %q: %w", sheet, err)
	}

	t := b.table()
	t.Sheet = sheet
	return t, nil
}
