package tabular

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"pricebook/internal"
)

// FromHTML returns one table per <table> element. Some mills circulate
// freight annexures as spreadsheet HTML exports.
func FromHTML(content []byte) ([]internal.Table, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}

	out := []internal.Table{}
	doc.Find("table").Each(func(i int, table *goquery.Selection) {
		rows := [][]string{}
		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := []string{}
			row.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
				cells = append(cells, strings.TrimSpace(cell.Text()))
			})
			if len(cells) > 0 {
				rows = append(rows, cells)
			}
		})
		if len(rows) > 0 {
			out = append(out, gridFromStrings(fmt.Sprintf("table-%d", i+1), rows))
		}
	})

	if len(out) == 0 {
		return nil, ErrNoTables
	}
	return out, nil
}
