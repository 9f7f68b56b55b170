package pipeline

import (
	"regexp"
	"strconv"
	"strings"

	"pricebook/internal"
)

// ClassifyResult is a best-effort guess at what an inbound attachment is.
// The extraction API itself always takes the type and period explicitly;
// classification only serves the mail intake path, where there is no human
// caller to supply them.
type ClassifyResult struct {
	FileType internal.DocumentType
	Period   internal.Period
	Score    float64
}

var classifyRules = []struct {
	docType  internal.DocumentType
	keywords []string
}{
	{internal.DocFreight, []string{"freight", "transport", "annexure"}},
	{internal.DocCrossReference, []string{"cross reference", "cross-reference", "cross_reference", "crossref", "competitor", "equivalent"}},
	{internal.DocExWork, []string{"ex-work", "ex work", "ex_work", "exwork", "ex-works"}},
	{internal.DocStockPoint, []string{"stockpoint", "stock point", "stock-point", "stock_point", "basic price", "price circular"}},
}

var monthNames = []string{
	"january", "february", "march", "april", "may", "june",
	"july", "august", "september", "october", "november", "december",
}

var reYear = regexp.MustCompile(`\b(20\d{2})\b`)

// ClassifyAttachment scores an attachment name plus its mail subject against
// the rule table. Subject hits weigh less than filename hits; the first rule
// whose score clears 0.3 wins, checked in rule order so the more specific
// document types take priority.
func ClassifyAttachment(subject, filename string) (ClassifyResult, bool) {
	subject = strings.ToLower(subject)
	filename = strings.ToLower(filename)

	for _, rule := range classifyRules {
		score := 0.0
		for _, kw := range rule.keywords {
			if strings.Contains(filename, kw) {
				score += 0.4
			}
			if strings.Contains(subject, kw) {
				score += 0.2
			}
		}
		if score > 1 {
			score = 1
		}
		if score >= 0.3 {
			return ClassifyResult{
				FileType: rule.docType,
				Period:   detectPeriod(subject + " " + filename),
				Score:    score,
			}, true
		}
	}
	return ClassifyResult{}, false
}

func detectPeriod(text string) internal.Period {
	period := internal.Period{}
	for _, month := range monthNames {
		if strings.Contains(text, month) {
			period.Month = strings.ToUpper(month[:1]) + month[1:]
			break
		}
	}
	if m := reYear.FindStringSubmatch(text); len(m) > 1 {
		period.Year, _ = strconv.Atoi(m[1])
	}
	return period
}
