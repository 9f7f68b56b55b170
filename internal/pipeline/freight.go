package pipeline

import (
	"strings"

	"pricebook/internal"
	"pricebook/internal/util"
)

// Fixed 11-column layout of the freight rate spreadsheet.
var freightSheetColumns = []string{
	"state", "district", "destination", "distance_km", "transit_days",
	"amount", "unit", "per", "uom", "valid_from", "valid_to",
}

// Columns that must be non-empty for a spreadsheet row to be kept.
var freightRequiredColumns = []string{
	"destination", "amount", "unit", "per", "uom", "valid_from", "valid_to",
}

// Fixed 8-column layout of the freight annexure PDF tables.
const (
	freightPDFStateCol       = 1
	freightPDFSectorCol      = 2
	freightPDFDistrictCol    = 3
	freightPDFDestinationCol = 4
	freightPDFDistanceCol    = 5
	freightPDFTransitCol     = 6
	freightPDFAmountCol      = 7
	freightPDFColumnCount    = 8
)

// Header literals that leak into PDF data rows when a table spans pages.
var freightHeaderLiterals = map[string]bool{
	"DESTINATION":          true,
	"DELIVERY DESTINATION": true,
}

type FreightStats struct {
	Rows        int
	SkippedRows int
}

// ExtractFreightSheet parses the fixed-layout freight spreadsheet table:
// first row is the header, columns are positional. Rows with any required
// field missing are dropped; the rest accumulate into a destination-keyed
// map. Destinations are stored exactly as they appear.
func ExtractFreightSheet(table internal.Table) (map[string]internal.FreightInfo, FreightStats) {
	out := map[string]internal.FreightInfo{}
	stats := FreightStats{}
	if len(table.Rows) < 2 {
		return out, stats
	}

	for _, row := range table.Rows[1:] {
		get := func(name string) string {
			for i, col := range freightSheetColumns {
				if col == name {
					return strings.TrimSpace(cellText(row, i))
				}
			}
			return ""
		}

		missing := false
		for _, col := range freightRequiredColumns {
			if get(col) == "" {
				missing = true
				break
			}
		}
		if missing {
			stats.SkippedRows++
			continue
		}

		amount, ok := util.ParseAmount(get("amount"))
		if !ok {
			stats.SkippedRows++
			continue
		}

		destination := get("destination")
		out[destination] = internal.FreightInfo{
			Destination: destination,
			Amount:      amount,
			Unit:        get("unit"),
			Per:         get("per"),
			UOM:         get("uom"),
			ValidFrom:   get("valid_from"),
			ValidTo:     get("valid_to"),
			DistanceKM:  util.ParseDistanceKM(get("distance_km")),
			TransitDays: util.ParseTransitDays(get("transit_days")),
			State:       get("state"),
			District:    get("district"),
		}
		stats.Rows++
	}
	return out, stats
}

// ExtractFreightPDF parses freight annexure tables extracted from a PDF: per
// table, the first row is the header and the rest are data. Bad rows are
// skipped, never fatal; distance and transit parse best-effort to zero.
func ExtractFreightPDF(tables []internal.Table) (map[string]internal.FreightInfo, FreightStats) {
	out := map[string]internal.FreightInfo{}
	stats := FreightStats{}

	for _, table := range tables {
		if len(table.Rows) < 2 {
			continue
		}
		for _, row := range table.Rows[1:] {
			destination := strings.TrimSpace(cellText(row, freightPDFDestinationCol))
			if destination == "" || freightHeaderLiterals[util.NormalizeKey(destination)] {
				stats.SkippedRows++
				continue
			}
			amount, ok := util.ParseAmount(cellText(row, freightPDFAmountCol))
			if !ok || amount <= 0 {
				stats.SkippedRows++
				continue
			}

			out[destination] = internal.FreightInfo{
				Destination: destination,
				Amount:      amount,
				State:       strings.TrimSpace(cellText(row, freightPDFStateCol)),
				Sector:      strings.TrimSpace(cellText(row, freightPDFSectorCol)),
				District:    strings.TrimSpace(cellText(row, freightPDFDistrictCol)),
				DistanceKM:  util.ParseDistanceKM(cellText(row, freightPDFDistanceCol)),
				TransitDays: util.ParseTransitDays(cellText(row, freightPDFTransitCol)),
			}
			stats.Rows++
		}
	}
	return out, stats
}
