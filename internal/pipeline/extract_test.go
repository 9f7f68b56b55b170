package pipeline

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/xuri/excelize/v2"

	"pricebook/internal"
	"pricebook/internal/tabular"
)

func writeXLSX(t *testing.T, rows [][]any) string {
	t.Helper()
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	path := filepath.Join(t.TempDir(), "doc.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestExtractDocumentStockPoint(t *testing.T) {
	path := writeXLSX(t, [][]any{
		{"Sl. No.", "SAP CODE", "STOCKPOINT LOCATION", "B52A003A", "E46A100A"},
		{1, 5102, "GAZIABAD/NOIDA", "99,650", "1,01,200"},
		{2, 5103, "AGRA", "99,200", ""},
	})

	result, err := ExtractDocument(path, internal.DocStockPoint)
	if err != nil {
		t.Fatal(err)
	}
	if result.Pricing == nil || len(result.Pricing.Data) != 2 {
		t.Fatalf("pricing = %+v", result.Pricing)
	}
	rec := result.Pricing.Data[0]
	if rec.SapCode != "5102" || rec.Location != "GAZIABAD/NOIDA" {
		t.Errorf("record = %+v", rec)
	}
	if rec.Products[0].Price != 99650 {
		t.Errorf("price = %d", rec.Products[0].Price)
	}
}

func TestExtractDocumentFreightSheet(t *testing.T) {
	path := writeXLSX(t, [][]any{
		{"State", "District", "Destination", "Distance", "Transit", "Amount", "Unit", "Per", "UOM", "Valid From", "Valid To"},
		{"UP", "GB Nagar", "NOIDA", 42.5, 2, 928.72, "INR", "MT", "MT", "01.04.2025", "30.04.2025"},
	})

	result, err := ExtractDocument(path, internal.DocFreight)
	if err != nil {
		t.Fatal(err)
	}
	if len(result.Freight) != 1 || result.Freight["NOIDA"].Amount != 928.72 {
		t.Fatalf("freight = %+v", result.Freight)
	}
}

func TestExtractDocumentCrossReference(t *testing.T) {
	path := writeXLSX(t, [][]any{
		{"S.No", "GAIL GRADE", "CATEGORY", "APPLICATION", "RIL", "IOCL"},
		{1, "B52A003A", "HDPE", "Blow", "X-100, X-200", "Y-55"},
	})

	result, err := ExtractDocument(path, internal.DocCrossReference)
	if err != nil {
		t.Fatal(err)
	}
	index := result.CrossReference
	if index == nil || index.Metadata.TotalMappings != 3 {
		t.Fatalf("index = %+v", index)
	}
	if index.Metadata.FileFormat != "xlsx" {
		t.Errorf("file format = %q", index.Metadata.FileFormat)
	}
}

func TestExtractDocumentUnsupportedFormat(t *testing.T) {
	path := filepath.Join(t.TempDir(), "doc.docx")
	if err := os.WriteFile(path, []byte("not a table"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := ExtractDocument(path, internal.DocStockPoint)
	if !errors.Is(err, tabular.ErrUnsupportedFormat) {
		t.Fatalf("err = %v", err)
	}
}
