package tabular

import (
	"bytes"
	"fmt"

	"github.com/xuri/excelize/v2"

	"pricebook/internal"
)

// FromXLSX returns one table per non-empty sheet.
func FromXLSX(content []byte) ([]internal.Table, error) {
	f, err := excelize.OpenReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	out := make([]internal.Table, 0, 1)
	for _, sheet := range f.GetSheetList() {
		rows, err := f.GetRows(sheet)
		if err != nil || len(rows) == 0 {
			continue
		}
		table := gridFromStrings(sheet, rows)
		hasData := false
		for _, row := range table.Rows {
			if !rowIsEmpty(row) {
				hasData = true
				break
			}
		}
		if hasData {
			out = append(out, table)
		}
	}

	if len(out) == 0 {
		return nil, ErrNoTables
	}
	return out, nil
}
