// Package tabular turns source documents (xlsx, csv, pdf, html exports)
// into rectangular cell grids. It knows nothing about pricing semantics;
// the pipeline package interprets the grids.
package tabular

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"pricebook/internal"
)

var (
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrNoTables          = errors.New("no tables found in document")
)

// FromFile reads a document and returns its tables, dispatching on the file
// extension.
func FromFile(path string) ([]internal.Table, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	return FromBytes(filepath.Ext(path), content)
}

// FromBytes parses document content for the given extension (".xlsx",
// ".xls", ".csv", ".pdf", ".html", ".htm").
func FromBytes(ext string, content []byte) ([]internal.Table, error) {
	switch strings.ToLower(strings.TrimSpace(ext)) {
	case ".xlsx", ".xls":
		return FromXLSX(content)
	case ".csv":
		return FromCSV(content)
	case ".pdf":
		return FromPDF(content)
	case ".html", ".htm":
		return FromHTML(content)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, ext)
	}
}

// ParseCell normalizes one raw cell at the extraction boundary. Numeric-
// looking text (commas tolerated) is carried as a number as well so that
// downstream code checks the kind once instead of re-sniffing strings.
func ParseCell(raw string) internal.Cell {
	text := strings.TrimSpace(raw)
	if text == "" {
		return internal.Cell{Kind: internal.CellEmpty}
	}
	compact := strings.ReplaceAll(strings.ReplaceAll(text, ",", ""), " ", "")
	if parsed, err := strconv.ParseFloat(compact, 64); err == nil {
		return internal.Cell{Kind: internal.CellNumber, Text: text, Number: parsed}
	}
	return internal.Cell{Kind: internal.CellText, Text: text}
}

func gridFromStrings(name string, rows [][]string) internal.Table {
	table := internal.Table{Name: name, Rows: make([][]internal.Cell, 0, len(rows))}
	width := 0
	for _, row := range rows {
		if len(row) > width {
			width = len(row)
		}
	}
	for _, row := range rows {
		cells := make([]internal.Cell, width)
		for i := range cells {
			if i < len(row) {
				cells[i] = ParseCell(row[i])
			} else {
				cells[i] = internal.Cell{Kind: internal.CellEmpty}
			}
		}
		table.Rows = append(table.Rows, cells)
	}
	return table
}

func rowIsEmpty(cells []internal.Cell) bool {
	for _, c := range cells {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}
