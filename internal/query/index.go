package query

import (
	"math"
	"sort"
	"strings"

	"pricebook/internal"
	"pricebook/internal/util"
)

// MatchKind tags how a grade query was satisfied.
type MatchKind string

const (
	MatchExactGrade     MatchKind = "exact"
	MatchSubstringGrade MatchKind = "substring"
)

// EquivalentsResult is the answer to a grade-equivalence query: the grade the
// index actually matched and its competitor mapping.
type EquivalentsResult struct {
	Grade      string              `json:"grade"`
	Match      MatchKind           `json:"match"`
	Equivalent map[string][]string `json:"equivalents"`
}

// Stats summarizes one indexed pricing document.
type Stats struct {
	Locations       int     `json:"locations"`
	Products        int     `json:"products"`
	Prices          int     `json:"prices"`
	MinPrice        int     `json:"min_price"`
	MaxPrice        int     `json:"max_price"`
	AvgPrice        float64 `json:"avg_price"`
	FreightCoverage float64 `json:"freight_coverage_pct"`
}

// Index answers read queries over a reconciled pricing document and the
// active cross-reference matrix. It is built once per query session; callers
// rebuild after reprocessing rather than mutate.
type Index struct {
	records  []internal.LocationRecord
	crossRef internal.CrossReferenceIndex

	byLocation map[string]*internal.LocationRecord
	gradeKeys  []string
	gradeByKey map[string]string
}

func NewIndex(pricing internal.PricingDocument, crossRef internal.CrossReferenceIndex) *Index {
	idx := &Index{
		records:    pricing.Data,
		crossRef:   crossRef,
		byLocation: map[string]*internal.LocationRecord{},
		gradeByKey: map[string]string{},
	}

	for i := range idx.records {
		rec := &idx.records[i]
		key := util.NormalizeKey(rec.LocationName())
		if key == "" {
			continue
		}
		if _, seen := idx.byLocation[key]; !seen {
			idx.byLocation[key] = rec
		}
	}

	for grade := range crossRef.Mappings {
		key := util.NormalizeKey(grade)
		if _, seen := idx.gradeByKey[key]; !seen {
			idx.gradeByKey[key] = grade
			idx.gradeKeys = append(idx.gradeKeys, key)
		}
	}
	sort.Strings(idx.gradeKeys)

	return idx
}

// EquivalentGrades looks a grade up in the cross-reference matrix, exact
// first, then by substring in either direction. A miss returns ok=false.
func (idx *Index) EquivalentGrades(grade string) (EquivalentsResult, bool) {
	key := util.NormalizeKey(grade)
	if key == "" {
		return EquivalentsResult{}, false
	}

	if original, ok := idx.gradeByKey[key]; ok {
		return EquivalentsResult{
			Grade:      original,
			Match:      MatchExactGrade,
			Equivalent: idx.crossRef.Mappings[original],
		}, true
	}

	for _, candidate := range idx.gradeKeys {
		if strings.Contains(candidate, key) || strings.Contains(key, candidate) {
			original := idx.gradeByKey[candidate]
			return EquivalentsResult{
				Grade:      original,
				Match:      MatchSubstringGrade,
				Equivalent: idx.crossRef.Mappings[original],
			}, true
		}
	}
	return EquivalentsResult{}, false
}

// EquivalentsFor narrows EquivalentGrades to one competitor. A grade match
// with no mapping for that competitor is a miss.
func (idx *Index) EquivalentsFor(grade, competitor string) ([]string, MatchKind, bool) {
	result, ok := idx.EquivalentGrades(grade)
	if !ok {
		return nil, "", false
	}
	want := util.NormalizeKey(competitor)
	for company, grades := range result.Equivalent {
		if util.NormalizeKey(company) == want && len(grades) > 0 {
			return grades, result.Match, true
		}
	}
	return nil, "", false
}

// CompetitorsFor returns the competitors that have at least one equivalent
// for the given grade, in stable order.
func (idx *Index) CompetitorsFor(grade string) ([]string, bool) {
	result, ok := idx.EquivalentGrades(grade)
	if !ok {
		return nil, false
	}
	competitors := make([]string, 0, len(result.Equivalent))
	for _, company := range idx.crossRef.Companies {
		if len(result.Equivalent[company]) > 0 {
			competitors = append(competitors, company)
		}
	}
	return competitors, true
}

// PriceDetail is the answer to a price query: the base price plus whatever
// freight the record carries.
type PriceDetail struct {
	Location       string                   `json:"location"`
	ProductCode    string                   `json:"product_code"`
	Price          int                      `json:"price"`
	FreightAmount  *float64                 `json:"freight_amount,omitempty"`
	LandedCost     *float64                 `json:"landed_cost,omitempty"`
	FreightDetails *internal.FreightDetails `json:"freight_details,omitempty"`
}

// PriceAt returns the price of one product at one location, with freight and
// landed cost when the record has freight attached.
func (idx *Index) PriceAt(productCode, location string) (PriceDetail, bool) {
	rec, ok := idx.lookupLocation(location)
	if !ok {
		return PriceDetail{}, false
	}
	want := util.NormalizeKey(productCode)
	for _, p := range rec.Products {
		if util.NormalizeKey(p.ProductCode) != want {
			continue
		}
		detail := PriceDetail{
			Location:    rec.LocationName(),
			ProductCode: p.ProductCode,
			Price:       p.Price,
		}
		if rec.FreightAmount != nil {
			detail.FreightAmount = rec.FreightAmount
			detail.LandedCost = internal.FloatPtr(float64(p.Price) + *rec.FreightAmount)
			detail.FreightDetails = rec.FreightDetails
		}
		return detail, true
	}
	return PriceDetail{}, false
}

// GradesAt returns the product codes priced at one location, in document
// order.
func (idx *Index) GradesAt(location string) ([]string, bool) {
	rec, ok := idx.lookupLocation(location)
	if !ok {
		return nil, false
	}
	codes := make([]string, 0, len(rec.Products))
	for _, p := range rec.Products {
		codes = append(codes, p.ProductCode)
	}
	return codes, true
}

func (idx *Index) lookupLocation(location string) (*internal.LocationRecord, bool) {
	key := util.NormalizeKey(location)
	if key == "" {
		return nil, false
	}
	if rec, ok := idx.byLocation[key]; ok {
		return rec, true
	}

	// Substring fallback over sorted keys so ties resolve the same way
	// every run.
	keys := make([]string, 0, len(idx.byLocation))
	for k := range idx.byLocation {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, candidate := range keys {
		if strings.Contains(candidate, key) || strings.Contains(key, candidate) {
			return idx.byLocation[candidate], true
		}
	}
	return nil, false
}

// ComputeStats summarizes the indexed pricing document: distinct products,
// price spread and what share of records carry freight.
func (idx *Index) ComputeStats() Stats {
	stats := Stats{Locations: len(idx.records)}

	products := map[string]bool{}
	sum := 0
	withFreight := 0
	for _, rec := range idx.records {
		if rec.FreightAmount != nil {
			withFreight++
		}
		for _, p := range rec.Products {
			products[util.NormalizeKey(p.ProductCode)] = true
			sum += p.Price
			if stats.Prices == 0 || p.Price < stats.MinPrice {
				stats.MinPrice = p.Price
			}
			if p.Price > stats.MaxPrice {
				stats.MaxPrice = p.Price
			}
			stats.Prices++
		}
	}
	stats.Products = len(products)
	if stats.Prices > 0 {
		stats.AvgPrice = round2(float64(sum) / float64(stats.Prices))
	}
	if len(idx.records) > 0 {
		stats.FreightCoverage = round2(100 * float64(withFreight) / float64(len(idx.records)))
	}
	return stats
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
