package pipeline

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"pricebook/internal"
	"pricebook/internal/config"
	"pricebook/internal/storage"
)

// Document statuses as they move through the pipeline.
const (
	StatusUploaded  = "uploaded"
	StatusExtracted = "extracted"
	StatusFused     = "fused"
	StatusFailed    = "failed"
)

// ProcessingService drives a document from file to stored derived data and
// runs the freight-attachment pass when a period's sibling set completes.
type ProcessingService struct {
	db  *storage.DB
	cfg config.Config

	mu          sync.Mutex
	periodLocks map[string]*sync.Mutex
}

func NewProcessingService(db *storage.DB, cfg config.Config) *ProcessingService {
	return &ProcessingService{db: db, cfg: cfg, periodLocks: map[string]*sync.Mutex{}}
}

type ProcessResult struct {
	DocumentID int
	Records    int
	Attached   bool
}

// IngestFile copies a source file into the raw store, registers it and runs
// extraction. The caller supplies type and period; nothing is inferred here.
func (s *ProcessingService) IngestFile(path string, docType internal.DocumentType, period internal.Period) (ProcessResult, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return ProcessResult{}, fmt.Errorf("%w: %v", ErrExtractionFailed, err)
	}
	return s.IngestBytes(filepath.Base(path), content, docType, period)
}

// IngestBytes registers raw document content (mail attachments come in this
// way) and runs extraction.
func (s *ProcessingService) IngestBytes(filename string, content []byte, docType internal.DocumentType, period internal.Period) (ProcessResult, error) {
	hashBytes := sha256.Sum256(content)
	hash := hex.EncodeToString(hashBytes[:])

	if err := os.MkdirAll(s.cfg.RawDocDir, 0o755); err != nil {
		return ProcessResult{}, err
	}
	rawPath := filepath.Join(s.cfg.RawDocDir, hash+strings.ToLower(filepath.Ext(filename)))
	if _, err := os.Stat(rawPath); os.IsNotExist(err) {
		if err := os.WriteFile(rawPath, content, 0o644); err != nil {
			return ProcessResult{}, err
		}
	}

	doc, err := s.db.UpsertDocument(docType, period.Month, period.Year, rawPath, hash, StatusUploaded)
	if err != nil {
		return ProcessResult{}, err
	}
	return s.ProcessDocument(doc)
}

// ProcessPending extracts every document still in the uploaded state.
func (s *ProcessingService) ProcessPending(limit int) (int, error) {
	pending, err := s.db.ListDocumentsByStatus(StatusUploaded, limit)
	if err != nil {
		return 0, err
	}
	processed := 0
	for _, doc := range pending {
		if _, err := s.ProcessDocument(doc); err != nil {
			return processed, err
		}
		processed++
	}
	return processed, nil
}

// ProcessDocument extracts one document, stores the derived structure and
// kicks off the follow-up its type implies: cross-reference activation or
// the freight-attachment check.
func (s *ProcessingService) ProcessDocument(doc internal.DocumentRow) (ProcessResult, error) {
	start := time.Now()

	result, err := ExtractDocument(doc.Path, doc.FileType)
	if err != nil {
		_ = s.db.SetDocumentStatus(doc.ID, StatusFailed)
		return ProcessResult{DocumentID: doc.ID}, err
	}

	out := ProcessResult{DocumentID: doc.ID}
	counts := map[string]int{}

	switch doc.FileType {
	case internal.DocStockPoint, internal.DocExWork:
		if err := s.db.SetDocumentExtracted(doc.ID, result.Pricing, StatusExtracted); err != nil {
			return out, err
		}
		out.Records = len(result.Pricing.Data)
		counts["records"] = out.Records
		counts["skippedTables"] = result.Reconcile.SkippedTables
		counts["skippedRows"] = result.Reconcile.SkippedRows
		counts["skippedCells"] = result.Reconcile.SkippedCells

	case internal.DocFreight:
		if err := s.db.SetDocumentExtracted(doc.ID, result.Freight, StatusExtracted); err != nil {
			return out, err
		}
		out.Records = len(result.Freight)
		counts["destinations"] = out.Records
		counts["skippedRows"] = result.FreightSt.SkippedRows

	case internal.DocCrossReference:
		if err := s.db.SetDocumentExtracted(doc.ID, result.CrossReference, StatusExtracted); err != nil {
			return out, err
		}
		records := FlattenCrossReference(*result.CrossReference)
		if err := s.db.ReplaceCrossReferenceRecords(doc.ID, records); err != nil {
			return out, err
		}
		// The latest successful extraction becomes the active matrix.
		if err := s.db.ActivateCrossReference(doc.ID); err != nil {
			return out, err
		}
		out.Records = len(records)
		counts["mappings"] = result.CrossReference.Metadata.TotalMappings
	}

	_ = s.db.InsertRun(traceID(), doc.ID,
		map[string]float64{"totalMs": float64(time.Since(start).Milliseconds())}, counts)

	if doc.FileType != internal.DocCrossReference {
		attached, err := s.AttachFreightForPeriod(internal.Period{Month: doc.Month, Year: doc.Year})
		if err != nil {
			return out, err
		}
		out.Attached = attached
	}

	return out, nil
}

// AttachFreightForPeriod runs the freight fusion when the period's
// stock-point, ex-work and freight documents are all extracted. The pass is
// a full rewrite of both pricing documents and is serialized per period so
// concurrent sibling ingestion cannot race two rewrites onto the same pair.
func (s *ProcessingService) AttachFreightForPeriod(period internal.Period) (bool, error) {
	if !period.Valid() {
		return false, nil
	}
	lock := s.periodLock(period)
	lock.Lock()
	defer lock.Unlock()

	docs, err := s.db.ListDocumentsByPeriod(period.Month, period.Year)
	if err != nil {
		return false, err
	}

	var stockDoc, exWorkDoc, freightDoc *internal.DocumentRow
	for i := range docs {
		doc := &docs[i]
		if doc.Extracted == nil {
			continue
		}
		switch doc.FileType {
		case internal.DocStockPoint:
			stockDoc = doc
		case internal.DocExWork:
			exWorkDoc = doc
		case internal.DocFreight:
			freightDoc = doc
		}
	}
	if stockDoc == nil || exWorkDoc == nil || freightDoc == nil {
		return false, nil
	}

	freight := map[string]internal.FreightInfo{}
	if err := json.Unmarshal([]byte(*freightDoc.Extracted), &freight); err != nil {
		return false, fmt.Errorf("decode freight document %d: %w", freightDoc.ID, err)
	}

	for _, pricingDoc := range []*internal.DocumentRow{stockDoc, exWorkDoc} {
		var pricing internal.PricingDocument
		if err := json.Unmarshal([]byte(*pricingDoc.Extracted), &pricing); err != nil {
			return false, fmt.Errorf("decode pricing document %d: %w", pricingDoc.ID, err)
		}
		matched := AttachFreight(pricing.Data, freight)
		if err := s.db.SetDocumentExtracted(pricingDoc.ID, &pricing, StatusFused); err != nil {
			return false, err
		}
		_ = s.db.InsertRun(traceID(), pricingDoc.ID, map[string]float64{},
			map[string]int{"records": len(pricing.Data), "freightMatched": matched})
	}

	_ = s.db.SetMetadata(periodMetaKey(period), time.Now().UTC().Format(time.RFC3339))
	return true, nil
}

func (s *ProcessingService) periodLock(period internal.Period) *sync.Mutex {
	key := fmt.Sprintf("%s-%d", strings.ToLower(period.Month), period.Year)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.periodLocks[key] == nil {
		s.periodLocks[key] = &sync.Mutex{}
	}
	return s.periodLocks[key]
}

func periodMetaKey(period internal.Period) string {
	return fmt.Sprintf("freight.last_attach.%s.%d", strings.ToLower(period.Month), period.Year)
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
