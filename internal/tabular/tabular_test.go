package tabular

import (
	"bytes"
	"errors"
	"testing"

	"github.com/xuri/excelize/v2"

	"pricebook/internal"
)

func mkXLSX(rows [][]any) []byte {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	for r, row := range rows {
		for c, v := range row {
			cell, _ := excelize.CoordinatesToCellName(c+1, r+1)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	buf := bytes.NewBuffer(nil)
	_, _ = f.WriteTo(buf)
	return buf.Bytes()
}

func TestParseCell(t *testing.T) {
	if c := ParseCell("  "); c.Kind != internal.CellEmpty {
		t.Fatalf("blank: %+v", c)
	}
	if c := ParseCell("99,650"); c.Kind != internal.CellNumber || c.Number != 99650 {
		t.Fatalf("number: %+v", c)
	}
	if c := ParseCell("GAZIABAD/NOIDA"); c.Kind != internal.CellText || c.Text != "GAZIABAD/NOIDA" {
		t.Fatalf("text: %+v", c)
	}
}

func TestFromXLSX(t *testing.T) {
	blob := mkXLSX([][]any{
		{"STOCKPOINT LOCATION", "B52A003A"},
		{"AGRA", 99650},
	})
	tables, err := FromXLSX(blob)
	if err != nil {
		t.Fatal(err)
	}
	if len(tables) != 1 || len(tables[0].Rows) != 2 {
		t.Fatalf("tables=%d", len(tables))
	}
	price := tables[0].Rows[1][1]
	if price.Kind != internal.CellNumber || price.Number != 99650 {
		t.Fatalf("price cell: %+v", price)
	}
}

func TestFromCSVPadsRaggedRows(t *testing.T) {
	tables, err := FromCSV([]byte("a,b,c\nd,e\n"))
	if err != nil {
		t.Fatal(err)
	}
	rows := tables[0].Rows
	if len(rows[1]) != 3 || !rows[1][2].IsEmpty() {
		t.Fatalf("row not padded: %+v", rows[1])
	}
}

func TestFromBytesUnsupported(t *testing.T) {
	_, err := FromBytes(".docx", nil)
	if !errors.Is(err, ErrUnsupportedFormat) {
		t.Fatalf("err=%v", err)
	}
}
