package pipeline

import (
	"strings"

	"pricebook/internal"
	"pricebook/internal/util"
)

// Fixed header vocabulary of the pricing circulars. Everything else in a
// header row is treated as an opaque product-code column.
const (
	LabelSerialNo           = "Sl. No."
	LabelSapCode            = "SAP CODE"
	LabelStockpointLocation = "STOCKPOINT LOCATION"
	LabelLocationOrGrade    = "LOCATION/GRADE"
)

// Acceptance threshold for reconstructing a fixed label from header
// fragments.
const headerSimilarityMin = 0.80

var fixedLabels = []string{LabelSerialNo, LabelSapCode, LabelStockpointLocation, LabelLocationOrGrade}

// AnchorLabel returns the header label that separates identifying columns
// from product columns for the given document type.
func AnchorLabel(docType internal.DocumentType) string {
	if docType == internal.DocExWork {
		return LabelLocationOrGrade
	}
	return LabelStockpointLocation
}

// Header is a normalized header row: fixed-vocabulary labels plus opaque
// product-code labels, in column order. Columns holds the raw column each
// label resolved to (the last fragment's column for a reassembled label), so
// data rows can be read against the normalized header.
type Header struct {
	Labels  []string
	Columns []int
}

func (h Header) IndexOf(label string) int {
	want := util.NormalizeKey(label)
	for i, l := range h.Labels {
		if util.NormalizeKey(l) == want {
			return i
		}
	}
	return -1
}

// IsFixedLabel reports whether a normalized label belongs to the fixed
// vocabulary rather than naming a product column.
func IsFixedLabel(label string) bool {
	for _, l := range fixedLabels {
		if l == label {
			return true
		}
	}
	return false
}

type headerToken struct {
	text string
	col  int
}

// NormalizeHeader reconstructs a canonical header from a raw header row. The
// extraction side sometimes splits a multi-word label across cells ("STOCK"
// / "POINT" / "LOCATION"); every contiguous window of the remaining tokens
// is scored against the vocabulary and the best window above the threshold
// wins, consuming its fragments. Each fixed label is accepted at most once.
func NormalizeHeader(row []internal.Cell) Header {
	tokens := make([]headerToken, 0, len(row))
	for col, cell := range row {
		if !cell.IsEmpty() {
			tokens = append(tokens, headerToken{text: cell.Text, col: col})
		}
	}

	header := Header{Labels: make([]string, 0, len(tokens)), Columns: make([]int, 0, len(tokens))}
	accepted := map[string]bool{}
	seenProducts := map[string]bool{}

	for i := 0; i < len(tokens); i++ {
		token := tokens[i]
		if !overlapsVocabulary(token.text, accepted) {
			addProductLabel(&header, seenProducts, token)
			continue
		}

		bestScore := 0.0
		bestLabel := ""
		bestEnd := i
		window := ""
		for j := i; j < len(tokens); j++ {
			if window == "" {
				window = tokens[j].text
			} else {
				window += " " + tokens[j].text
			}
			for _, label := range fixedLabels {
				if accepted[label] {
					continue
				}
				if score := util.Similarity(window, label); score > bestScore {
					bestScore = score
					bestLabel = label
					bestEnd = j
				}
			}
		}

		if bestScore > headerSimilarityMin {
			header.Labels = append(header.Labels, bestLabel)
			header.Columns = append(header.Columns, tokens[bestEnd].col)
			accepted[bestLabel] = true
			i = bestEnd
			continue
		}
		addProductLabel(&header, seenProducts, token)
	}

	return header
}

func overlapsVocabulary(token string, accepted map[string]bool) bool {
	folded := util.NormalizeKey(token)
	if folded == "" {
		return false
	}
	for _, label := range fixedLabels {
		if accepted[label] {
			continue
		}
		foldedLabel := util.NormalizeKey(label)
		if strings.Contains(foldedLabel, folded) || strings.Contains(folded, foldedLabel) {
			return true
		}
	}
	return false
}

func addProductLabel(header *Header, seen map[string]bool, token headerToken) {
	label := strings.TrimSpace(token.text)
	if label == "" || seen[label] {
		return
	}
	seen[label] = true
	header.Labels = append(header.Labels, label)
	header.Columns = append(header.Columns, token.col)
}
