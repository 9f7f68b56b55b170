package pipeline

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"pricebook/internal"
)

// FlattenStoredPricing decodes a stored pricing document and flattens it to
// export rows.
func FlattenStoredPricing(extractedJSON string) ([]internal.PriceExportRow, error) {
	var pricing internal.PricingDocument
	if err := json.Unmarshal([]byte(extractedJSON), &pricing); err != nil {
		return nil, err
	}
	return FlattenRecords(pricing.Data), nil
}

// ExportPricingToXLSX writes flattened price/freight rows to a workbook, one
// line per (location, product) pair.
func ExportPricingToXLSX(rows []internal.PriceExportRow, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{
		"record_id", "sap_code", "location", "product_code", "price",
		"freight_amount", "landed_cost", "distance_km", "transit_days", "state", "freight_unit",
	}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, row := range rows {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}

		set(1, row.RecordID)
		set(2, row.SapCode)
		set(3, row.Location)
		set(4, row.ProductCode)
		set(5, row.Price)
		set(6, derefFloat(row.FreightAmount))
		set(7, derefFloat(row.LandedCost))
		set(8, derefFloat(row.DistanceKM))
		set(9, derefInt(row.TransitDays))
		set(10, derefString(row.State))
		set(11, derefString(row.FreightUnit))
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

// ExportCrossReferenceToXLSX writes the flattened mapping triples to a
// workbook for review.
func ExportCrossReferenceToXLSX(index internal.CrossReferenceIndex, outputPath string) error {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)

	headers := []string{"gail_grade", "competitor_name", "competitor_grade"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}

	for i, rec := range FlattenCrossReference(index) {
		r := i + 2
		set := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, r)
			_ = f.SetCellValue(sheet, cell, value)
		}
		set(1, rec.GailGrade)
		set(2, rec.CompetitorName)
		set(3, rec.CompetitorGrade)
	}

	if err := os.MkdirAll(filepath.Dir(outputPath), 0o755); err != nil {
		return err
	}
	return f.SaveAs(outputPath)
}

func derefString(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func derefFloat(v *float64) any {
	if v == nil {
		return ""
	}
	return *v
}

func derefInt(v *int) any {
	if v == nil {
		return ""
	}
	return *v
}
