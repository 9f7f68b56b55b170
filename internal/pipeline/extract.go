package pipeline

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"pricebook/internal"
	"pricebook/internal/tabular"
)

// ExtractResult carries whichever derived structure matches the document
// type, plus the skip counters the pipeline accumulated. Empty collections
// are a valid outcome and distinct from an error.
type ExtractResult struct {
	Pricing        *internal.PricingDocument
	Freight        map[string]internal.FreightInfo
	CrossReference *internal.CrossReferenceIndex

	Reconcile ReconcileStats
	FreightSt FreightStats
}

// ExtractDocument runs the whole extraction for one file: table acquisition,
// then the per-type reconciliation. Row- and table-level problems are
// absorbed into the result's stats; only document-level failures (unreadable
// file, unknown format, nothing tabular at all) come back as errors.
func ExtractDocument(path string, docType internal.DocumentType) (ExtractResult, error) {
	tables, err := tabular.FromFile(path)
	if err != nil {
		if errors.Is(err, tabular.ErrUnsupportedFormat) || errors.Is(err, tabular.ErrNoTables) {
			return ExtractResult{}, err
		}
		return ExtractResult{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}

	ext := strings.ToLower(filepath.Ext(path))
	switch docType {
	case internal.DocStockPoint, internal.DocExWork:
		records, stats := ReconcileTables(tables, docType)
		return ExtractResult{
			Pricing:   &internal.PricingDocument{Data: records},
			Reconcile: stats,
		}, nil

	case internal.DocFreight:
		var freight map[string]internal.FreightInfo
		var stats FreightStats
		if ext == ".pdf" {
			freight, stats = ExtractFreightPDF(tables)
		} else {
			freight, stats = ExtractFreightSheet(tables[0])
		}
		return ExtractResult{Freight: freight, FreightSt: stats}, nil

	case internal.DocCrossReference:
		index := ExtractCrossReference(tables[0], strings.TrimPrefix(ext, "."))
		return ExtractResult{CrossReference: &index}, nil

	default:
		return ExtractResult{}, fmt.Errorf("%w: unknown document type %q", tabular.ErrUnsupportedFormat, docType)
	}
}
