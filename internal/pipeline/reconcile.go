package pipeline

import (
	"errors"
	"fmt"
	"strings"

	"pricebook/internal"
	"pricebook/internal/util"
)

// Fixed identifying columns of the wide pricing layout: serial, sap code,
// location, then one column per product.
const (
	sapCodeColumn  = 1
	locationColumn = 2
)

// ReconcileStats counts what a reconciliation pass absorbed. Skips are never
// surfaced as errors; callers log the counts.
type ReconcileStats struct {
	Tables        int
	SkippedTables int
	DataRows      int
	SkippedRows   int
	SkippedCells  int
	Prices        int
}

// ReconcileTables pivots wide pricing tables (one row per location, one
// column per product) into long-format location records. Tables missing the
// anchor header are skipped, never fatal. Repeated per-page header rows are
// tolerated. Records group by (sap_code, location) in first-seen order with
// ids assigned 1-based across the whole document, so accumulation order is
// deterministic regardless of how tables were produced.
func ReconcileTables(tables []internal.Table, docType internal.DocumentType) ([]internal.LocationRecord, ReconcileStats) {
	anchor := AnchorLabel(docType)
	stats := ReconcileStats{Tables: len(tables)}

	byKey := map[string]*internal.LocationRecord{}
	order := []string{}

	for _, table := range tables {
		// A table without the anchor header is skipped, never fatal.
		if err := reconcileTable(table, docType, anchor, byKey, &order, &stats); errors.Is(err, ErrHeaderNotFound) {
			stats.SkippedTables++
		}
	}

	out := make([]internal.LocationRecord, 0, len(order))
	for i, key := range order {
		rec := byKey[key]
		rec.ID = i + 1
		out = append(out, *rec)
	}
	return out, stats
}

func reconcileTable(table internal.Table, docType internal.DocumentType, anchor string, byKey map[string]*internal.LocationRecord, order *[]string, stats *ReconcileStats) error {
	headerRow := -1
	anchorIdx := -1
	var header Header
	for i, row := range table.Rows {
		h := NormalizeHeader(row)
		if idx := h.IndexOf(anchor); idx >= 0 {
			headerRow = i
			header = h
			anchorIdx = idx
			break
		}
	}
	if headerRow < 0 {
		return fmt.Errorf("%w: %q", ErrHeaderNotFound, anchor)
	}

	products := productColumns(header, anchorIdx)
	if len(products) == 0 {
		return fmt.Errorf("%w: no product columns after %q", ErrHeaderNotFound, anchor)
	}

	for _, row := range table.Rows[headerRow+1:] {
		// Tables spanning pages repeat their header; count it once only.
		if NormalizeHeader(row).IndexOf(anchor) >= 0 {
			continue
		}
		if len(row) <= locationColumn {
			stats.SkippedRows++
			continue
		}
		sapCode := strings.TrimSpace(cellText(row, sapCodeColumn))
		location := strings.TrimSpace(cellText(row, locationColumn))
		if sapCode == "" || location == "" {
			stats.SkippedRows++
			continue
		}
		stats.DataRows++

		key := util.NormalizeKey(sapCode) + "|" + util.NormalizeKey(location)
		rec, ok := byKey[key]
		if !ok {
			rec = &internal.LocationRecord{SapCode: sapCode, Products: []internal.Product{}}
			if docType == internal.DocExWork {
				rec.LocationGrade = location
			} else {
				rec.Location = location
			}
			byKey[key] = rec
			*order = append(*order, key)
		}

		for _, pc := range products {
			if pc.column >= len(row) {
				continue
			}
			price, ok := cellPrice(row[pc.column])
			if !ok {
				stats.SkippedCells++
				continue
			}
			setProduct(rec, pc.code, price)
			stats.Prices++
		}
	}
	return nil
}

type productColumn struct {
	code   string
	column int
}

// productColumns reads product codes off the normalized header: every label
// after the anchor that is not fixed vocabulary, with the raw column the
// label resolved to so prices read straight out of the data rows. Codes drop
// internal spaces.
func productColumns(header Header, anchorIdx int) []productColumn {
	out := []productColumn{}
	for i := anchorIdx + 1; i < len(header.Labels); i++ {
		if IsFixedLabel(header.Labels[i]) {
			continue
		}
		code := strings.ReplaceAll(header.Labels[i], " ", "")
		if code == "" {
			continue
		}
		out = append(out, productColumn{code: code, column: header.Columns[i]})
	}
	return out
}

// FlattenRecords expands location records back into (sap_code, location,
// product_code, price) rows, the long form used by exports and tests.
func FlattenRecords(records []internal.LocationRecord) []internal.PriceExportRow {
	out := []internal.PriceExportRow{}
	for _, rec := range records {
		for _, p := range rec.Products {
			row := internal.PriceExportRow{
				RecordID:    rec.ID,
				SapCode:     rec.SapCode,
				Location:    rec.LocationName(),
				ProductCode: p.ProductCode,
				Price:       p.Price,
			}
			if rec.FreightAmount != nil {
				row.FreightAmount = rec.FreightAmount
				row.LandedCost = internal.FloatPtr(float64(p.Price) + *rec.FreightAmount)
			}
			if d := rec.FreightDetails; d != nil {
				row.DistanceKM = internal.FloatPtr(d.DistanceKM)
				row.TransitDays = internal.IntPtr(d.TransitDays)
				row.State = internal.StringPtr(d.State)
				row.FreightUnit = internal.StringPtr(d.Unit)
			}
			out = append(out, row)
		}
	}
	return out
}

func cellText(row []internal.Cell, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return row[col].Text
}

func cellPrice(cell internal.Cell) (int, bool) {
	switch cell.Kind {
	case internal.CellNumber:
		return util.ParsePrice(cell.Text)
	case internal.CellText:
		return util.ParsePrice(cell.Text)
	default:
		return 0, false
	}
}

func setProduct(rec *internal.LocationRecord, code string, price int) {
	for i := range rec.Products {
		if rec.Products[i].ProductCode == code {
			// Re-seen (sap, location, product) within one run overwrites.
			rec.Products[i].Price = price
			return
		}
	}
	rec.Products = append(rec.Products, internal.Product{ProductCode: code, Price: price})
}
