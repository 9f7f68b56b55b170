package pipeline

import (
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"pricebook/internal"
)

func TestExportPricingToXLSX(t *testing.T) {
	rows := []internal.PriceExportRow{
		{
			RecordID: 1, SapCode: "5102", Location: "NOIDA", ProductCode: "B52A003A", Price: 99650,
			FreightAmount: internal.FloatPtr(928.72),
			LandedCost:    internal.FloatPtr(100578.72),
			State:         internal.StringPtr("UP"),
		},
		{RecordID: 2, SapCode: "5103", Location: "AGRA", ProductCode: "B52A003A", Price: 99200},
	}
	out := filepath.Join(t.TempDir(), "out", "prices.xlsx")

	if err := ExportPricingToXLSX(rows, out); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)

	if v, _ := f.GetCellValue(sheet, "A1"); v != "record_id" {
		t.Errorf("A1 = %q", v)
	}
	if v, _ := f.GetCellValue(sheet, "C2"); v != "NOIDA" {
		t.Errorf("C2 = %q", v)
	}
	if v, _ := f.GetCellValue(sheet, "F2"); v != "928.72" {
		t.Errorf("F2 = %q", v)
	}
	// Missing freight renders as an empty cell, not a zero.
	if v, _ := f.GetCellValue(sheet, "F3"); v != "" {
		t.Errorf("F3 = %q", v)
	}
}

func TestExportCrossReferenceToXLSX(t *testing.T) {
	index := internal.CrossReferenceIndex{
		Companies: []string{"RIL"},
		Mappings: map[string]map[string][]string{
			"B52A003A": {"RIL": {"X-100"}},
		},
	}
	out := filepath.Join(t.TempDir(), "crossref.xlsx")

	if err := ExportCrossReferenceToXLSX(index, out); err != nil {
		t.Fatal(err)
	}

	f, err := excelize.OpenFile(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	sheet := f.GetSheetName(0)

	if v, _ := f.GetCellValue(sheet, "A2"); v != "B52A003A" {
		t.Errorf("A2 = %q", v)
	}
	if v, _ := f.GetCellValue(sheet, "C2"); v != "X-100" {
		t.Errorf("C2 = %q", v)
	}
}
