package tabular

import (
	"bytes"
	"encoding/csv"
	"fmt"

	"pricebook/internal"
)

// FromCSV returns the whole file as a single table. Ragged rows are allowed;
// the grid is padded to the widest row.
func FromCSV(content []byte) ([]internal.Table, error) {
	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("read csv: %w", err)
	}
	if len(records) == 0 {
		return nil, ErrNoTables
	}

	return []internal.Table{gridFromStrings("csv", records)}, nil
}
