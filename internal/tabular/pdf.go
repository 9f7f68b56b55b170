package tabular

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/ledongthuc/pdf"

	"pricebook/internal"
)

// Horizontal gaps between positioned text runs, in points. A gap wider than
// cellGapPt starts a new cell; anything narrower than wordGapPt glues runs
// together without a space.
const (
	cellGapPt = 9.0
	wordGapPt = 1.5
)

// FromPDF returns one table per page. Pages are rendered from positioned
// text runs: runs sharing a baseline form a row, and wide horizontal gaps
// split a row into cells. This only holds up for the ruled tabular layouts
// the circulars use, which is all this system promises.
func FromPDF(content []byte) ([]internal.Table, error) {
	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("open pdf: %w", err)
	}

	out := []internal.Table{}
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		rows, err := page.GetTextByRow()
		if err != nil {
			continue
		}

		grid := [][]string{}
		for _, row := range rows {
			cells := splitRowIntoCells(row.Content)
			if len(cells) > 0 {
				grid = append(grid, cells)
			}
		}
		if len(grid) == 0 {
			continue
		}
		out = append(out, gridFromStrings(fmt.Sprintf("page-%d", pageNum), grid))
	}

	if len(out) == 0 {
		return nil, ErrNoTables
	}
	return out, nil
}

func splitRowIntoCells(texts []pdf.Text) []string {
	if len(texts) == 0 {
		return nil
	}
	sorted := make([]pdf.Text, len(texts))
	copy(sorted, texts)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })

	cells := []string{}
	current := sorted[0].S
	prevEnd := sorted[0].X + sorted[0].W
	for _, t := range sorted[1:] {
		gap := t.X - prevEnd
		switch {
		case gap > cellGapPt:
			cells = append(cells, current)
			current = t.S
		case gap > wordGapPt:
			current += " " + t.S
		default:
			current += t.S
		}
		if end := t.X + t.W; end > prevEnd {
			prevEnd = end
		}
	}
	cells = append(cells, current)
	return cells
}
