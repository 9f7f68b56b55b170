package pipeline

import (
	"sort"
	"strings"

	"pricebook/internal"
	"pricebook/internal/util"
)

// Fixed positional layout of the competitor matrix: column 1 holds the GAIL
// grade, columns 4..10 hold one competitor each. This is a documented
// constraint of the source file, not something we auto-detect.
const (
	crossRefGradeColumn  = 1
	crossRefCompetitorLo = 4
	crossRefCompetitorHi = 10
	crossRefMinColumns   = 5
)

// Cell values meaning "no data" rather than a grade.
var crossRefSentinels = map[string]bool{
	"":              true,
	"NAN":           true,
	"NULL":          true,
	"N/A":           true,
	"NO EQUIVALENT": true,
	"(BLANK)":       true,
}

// Candidate split delimiters in priority order; only the first delimiter
// present in a cell is used, even when a cell mixes several.
var crossRefDelimiters = []string{",", ";", "|", "\n", "/"}

// ExtractCrossReference parses the competitor matrix into a grade ->
// competitor -> equivalent-grades index. A document that is too narrow or
// empty after cleaning yields an index with empty mappings, not an error.
func ExtractCrossReference(table internal.Table, fileFormat string) internal.CrossReferenceIndex {
	index := internal.CrossReferenceIndex{
		Companies: []string{},
		Mappings:  map[string]map[string][]string{},
		Metadata:  internal.CrossReferenceMetadata{FileFormat: fileFormat},
	}
	if len(table.Rows) == 0 || len(table.Rows[0]) < crossRefMinColumns {
		return index
	}

	header := table.Rows[0]
	gradeHeader := util.NormalizeKey(cellText(header, crossRefGradeColumn))
	companies := []string{}
	companyCols := []int{}
	for col := crossRefCompetitorLo; col <= crossRefCompetitorHi && col < len(header); col++ {
		name := strings.TrimSpace(header[col].Text)
		if name == "" {
			continue
		}
		companies = append(companies, name)
		companyCols = append(companyCols, col)
	}
	index.Companies = companies
	index.Metadata.TotalCompanies = len(companies)

	for _, row := range table.Rows[1:] {
		if rowAllEmpty(row) {
			continue
		}
		grade := strings.TrimSpace(cellText(row, crossRefGradeColumn))
		// Repeated header rows carry the grade column's own title.
		if isCrossRefSentinel(grade) || util.NormalizeKey(grade) == gradeHeader {
			continue
		}

		for i, col := range companyCols {
			cell := strings.TrimSpace(cellText(row, col))
			if isCrossRefSentinel(cell) {
				continue
			}
			grades := splitCompetitorGrades(cell)
			if len(grades) == 0 {
				continue
			}
			if index.Mappings[grade] == nil {
				index.Mappings[grade] = map[string][]string{}
			}
			// A grade row seen again overwrites, so the replaced list
			// leaves the count before the new one enters it.
			index.Metadata.TotalMappings -= len(index.Mappings[grade][companies[i]])
			index.Mappings[grade][companies[i]] = grades
			index.Metadata.TotalMappings += len(grades)
		}
	}

	return index
}

// splitCompetitorGrades splits a multi-valued cell on the first delimiter
// type found, filters sentinels, and returns the surviving grades.
func splitCompetitorGrades(cell string) []string {
	parts := []string{cell}
	for _, delim := range crossRefDelimiters {
		if strings.Contains(cell, delim) {
			parts = strings.Split(cell, delim)
			break
		}
	}

	out := []string{}
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if isCrossRefSentinel(part) {
			continue
		}
		out = append(out, part)
	}
	return out
}

func isCrossRefSentinel(value string) bool {
	return crossRefSentinels[util.NormalizeKey(value)]
}

func rowAllEmpty(row []internal.Cell) bool {
	for _, c := range row {
		if !c.IsEmpty() {
			return false
		}
	}
	return true
}

// FlattenCrossReference expands an index into one record per (grade,
// competitor, equivalent grade) triple for indexed storage. Duplicate
// triples within one document collapse.
func FlattenCrossReference(index internal.CrossReferenceIndex) []internal.CrossReferenceRecord {
	out := []internal.CrossReferenceRecord{}
	seen := map[string]bool{}
	grades := make([]string, 0, len(index.Mappings))
	for grade := range index.Mappings {
		grades = append(grades, grade)
	}
	// Deterministic output order regardless of map iteration.
	sort.Strings(grades)

	for _, grade := range grades {
		for _, company := range index.Companies {
			for _, eq := range index.Mappings[grade][company] {
				key := grade + "\x00" + company + "\x00" + eq
				if seen[key] {
					continue
				}
				seen[key] = true
				out = append(out, internal.CrossReferenceRecord{
					GailGrade:       grade,
					CompetitorName:  company,
					CompetitorGrade: eq,
				})
			}
		}
	}
	return out
}
