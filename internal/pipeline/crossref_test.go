package pipeline

import (
	"reflect"
	"testing"

	"pricebook/internal"
)

func crossRefTable() internal.Table {
	return pricingTable(
		[]string{"S.No", "GAIL GRADE", "CATEGORY", "APPLICATION", "RIL", "IOCL", "OPAL"},
		[]string{"1", "B52A003A", "HDPE", "Blow Moulding", "X-100, X-200", "No equivalent", "Z-9"},
		[]string{"2", "E46A100A", "HDPE", "Film", "NAN", "Y-55", ""},
		[]string{"S.No", "GAIL GRADE", "CATEGORY", "APPLICATION", "RIL", "IOCL", "OPAL"},
		[]string{"3", "F26A050A", "LLDPE", "Film", "", "", ""},
	)
}

func TestExtractCrossReference(t *testing.T) {
	index := ExtractCrossReference(crossRefTable(), "xlsx")

	if !reflect.DeepEqual(index.Companies, []string{"RIL", "IOCL", "OPAL"}) {
		t.Fatalf("companies = %v", index.Companies)
	}

	b52 := index.Mappings["B52A003A"]
	if !reflect.DeepEqual(b52["RIL"], []string{"X-100", "X-200"}) {
		t.Errorf("B52A003A RIL = %v", b52["RIL"])
	}
	if _, ok := b52["IOCL"]; ok {
		t.Error("No equivalent cell must not produce a mapping")
	}
	if !reflect.DeepEqual(b52["OPAL"], []string{"Z-9"}) {
		t.Errorf("B52A003A OPAL = %v", b52["OPAL"])
	}

	e46 := index.Mappings["E46A100A"]
	if !reflect.DeepEqual(e46["IOCL"], []string{"Y-55"}) {
		t.Errorf("E46A100A IOCL = %v", e46["IOCL"])
	}

	// All-sentinel row contributes nothing.
	if _, ok := index.Mappings["F26A050A"]; ok {
		t.Error("F26A050A has only sentinel cells and must be absent")
	}

	// total_mappings counts equivalent grades, not cells.
	if index.Metadata.TotalMappings != 4 {
		t.Errorf("total mappings = %d, want 4", index.Metadata.TotalMappings)
	}
	if index.Metadata.TotalCompanies != 3 || index.Metadata.FileFormat != "xlsx" {
		t.Errorf("metadata = %+v", index.Metadata)
	}
}

func TestExtractCrossReferenceDuplicateGradeRow(t *testing.T) {
	table := pricingTable(
		[]string{"S.No", "GAIL GRADE", "CATEGORY", "APPLICATION", "RIL"},
		[]string{"1", "B56A003A", "HDPE", "Film", "X-100, X-200"},
		[]string{"2", "B56A003A", "HDPE", "Film", "X-300"},
	)

	index := ExtractCrossReference(table, "xlsx")

	// The later row wins, and the count tracks what is actually stored.
	if got := index.Mappings["B56A003A"]["RIL"]; !reflect.DeepEqual(got, []string{"X-300"}) {
		t.Errorf("B56A003A RIL = %v, want last-seen X-300", got)
	}
	stored := 0
	for _, byCompany := range index.Mappings {
		for _, grades := range byCompany {
			stored += len(grades)
		}
	}
	if index.Metadata.TotalMappings != stored {
		t.Errorf("total mappings = %d, stored grades = %d", index.Metadata.TotalMappings, stored)
	}
	if index.Metadata.TotalMappings != 1 {
		t.Errorf("total mappings = %d, want 1", index.Metadata.TotalMappings)
	}
}

func TestExtractCrossReferenceNarrowTable(t *testing.T) {
	table := pricingTable(
		[]string{"S.No", "GAIL GRADE", "CATEGORY"},
		[]string{"1", "B52A003A", "HDPE"},
	)

	index := ExtractCrossReference(table, "xlsx")

	if len(index.Mappings) != 0 || len(index.Companies) != 0 {
		t.Errorf("narrow table should yield an empty index, got %+v", index)
	}
}

func TestExtractCrossReferenceEmptyTable(t *testing.T) {
	index := ExtractCrossReference(internal.Table{}, "pdf")
	if len(index.Mappings) != 0 || index.Metadata.FileFormat != "pdf" {
		t.Errorf("index = %+v", index)
	}
}

func TestSplitCompetitorGrades(t *testing.T) {
	cases := map[string][]string{
		"X-100, X-200":  {"X-100", "X-200"},
		"A-1; B-2":      {"A-1", "B-2"},
		"A|B":           {"A", "B"},
		"single":        {"single"},
		"X, NAN, Y":     {"X", "Y"},
		"No equivalent": {},
	}
	for input, want := range cases {
		got := splitCompetitorGrades(input)
		if !reflect.DeepEqual(got, want) {
			t.Errorf("splitCompetitorGrades(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestSplitCompetitorGradesFirstDelimiterWins(t *testing.T) {
	// Comma outranks semicolon, so the semicolon stays inside the part.
	got := splitCompetitorGrades("A-1, B-2; C-3")
	want := []string{"A-1", "B-2; C-3"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
}

func TestFlattenCrossReference(t *testing.T) {
	index := ExtractCrossReference(crossRefTable(), "xlsx")

	records := FlattenCrossReference(index)

	want := []internal.CrossReferenceRecord{
		{GailGrade: "B52A003A", CompetitorName: "RIL", CompetitorGrade: "X-100"},
		{GailGrade: "B52A003A", CompetitorName: "RIL", CompetitorGrade: "X-200"},
		{GailGrade: "B52A003A", CompetitorName: "OPAL", CompetitorGrade: "Z-9"},
		{GailGrade: "E46A100A", CompetitorName: "IOCL", CompetitorGrade: "Y-55"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("records = %v, want %v", records, want)
	}
}

func TestFlattenCrossReferenceDedupes(t *testing.T) {
	index := internal.CrossReferenceIndex{
		Companies: []string{"RIL"},
		Mappings: map[string]map[string][]string{
			"G1": {"RIL": {"X", "X"}},
		},
	}

	records := FlattenCrossReference(index)
	if len(records) != 1 {
		t.Errorf("records = %v, want one deduped triple", records)
	}
}
