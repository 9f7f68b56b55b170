package pipeline

import (
	"reflect"
	"testing"

	"pricebook/internal"
	"pricebook/internal/tabular"
)

func cellsOf(values ...string) []internal.Cell {
	row := make([]internal.Cell, len(values))
	for i, v := range values {
		row[i] = tabular.ParseCell(v)
	}
	return row
}

func TestNormalizeHeaderReassemblesSplitLabels(t *testing.T) {
	row := cellsOf("Sl.", "No", "SAP", "CODE", "STOCKPOINT", "LOCATION", "B52A003A")

	header := NormalizeHeader(row)

	want := []string{LabelSerialNo, LabelSapCode, LabelStockpointLocation, "B52A003A"}
	if !reflect.DeepEqual(header.Labels, want) {
		t.Errorf("labels = %v, want %v", header.Labels, want)
	}
	// Each label resolves to its last fragment's raw column.
	wantCols := []int{1, 3, 5, 6}
	if !reflect.DeepEqual(header.Columns, wantCols) {
		t.Errorf("columns = %v, want %v", header.Columns, wantCols)
	}
}

func TestNormalizeHeaderThreeWaySplit(t *testing.T) {
	row := cellsOf("STOCK", "POINT", "LOCATION", "E46A100A")

	header := NormalizeHeader(row)

	want := []string{LabelStockpointLocation, "E46A100A"}
	if !reflect.DeepEqual(header.Labels, want) {
		t.Errorf("labels = %v, want %v", header.Labels, want)
	}
}

func TestNormalizeHeaderAlreadyCanonical(t *testing.T) {
	row := cellsOf("Sl. No.", "SAP CODE", "LOCATION/GRADE", "B52A003A", "E46A100A")

	header := NormalizeHeader(row)

	want := []string{LabelSerialNo, LabelSapCode, LabelLocationOrGrade, "B52A003A", "E46A100A"}
	if !reflect.DeepEqual(header.Labels, want) {
		t.Errorf("labels = %v, want %v", header.Labels, want)
	}
}

func TestNormalizeHeaderDedupesProductLabels(t *testing.T) {
	row := cellsOf("SAP CODE", "B52A003A", "B52A003A")

	header := NormalizeHeader(row)

	want := []string{LabelSapCode, "B52A003A"}
	if !reflect.DeepEqual(header.Labels, want) {
		t.Errorf("labels = %v, want %v", header.Labels, want)
	}
}

func TestNormalizeHeaderSkipsEmptyCells(t *testing.T) {
	row := cellsOf("", "SAP CODE", "", "B52A003A")

	header := NormalizeHeader(row)

	want := []string{LabelSapCode, "B52A003A"}
	if !reflect.DeepEqual(header.Labels, want) {
		t.Errorf("labels = %v, want %v", header.Labels, want)
	}
}

func TestHeaderIndexOf(t *testing.T) {
	header := Header{Labels: []string{LabelSerialNo, LabelSapCode, "B52A003A"}}

	if got := header.IndexOf("sap code"); got != 1 {
		t.Errorf("IndexOf(sap code) = %d, want 1", got)
	}
	if got := header.IndexOf("missing"); got != -1 {
		t.Errorf("IndexOf(missing) = %d, want -1", got)
	}
}

func TestAnchorLabel(t *testing.T) {
	if got := AnchorLabel(internal.DocStockPoint); got != LabelStockpointLocation {
		t.Errorf("stock point anchor = %q", got)
	}
	if got := AnchorLabel(internal.DocExWork); got != LabelLocationOrGrade {
		t.Errorf("ex-work anchor = %q", got)
	}
}
