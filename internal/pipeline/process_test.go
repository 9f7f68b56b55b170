package pipeline

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"pricebook/internal"
	"pricebook/internal/config"
	"pricebook/internal/storage"
)

func testService(t *testing.T) (*ProcessingService, *storage.DB) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.Open(filepath.Join(dir, "test.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	cfg := config.Config{
		DBPath:    filepath.Join(dir, "test.db"),
		RawDocDir: filepath.Join(dir, "raw"),
		OutputDir: filepath.Join(dir, "out"),
	}
	return NewProcessingService(db, cfg), db
}

func april() internal.Period { return internal.Period{Month: "April", Year: 2025} }

func ingestStockPoint(t *testing.T, svc *ProcessingService) ProcessResult {
	t.Helper()
	path := writeXLSX(t, [][]any{
		{"Sl. No.", "SAP CODE", "STOCKPOINT LOCATION", "B52A003A"},
		{1, 5102, "NOIDA", "99,650"},
		{2, 5103, "AGRA", "99,200"},
	})
	result, err := svc.IngestFile(path, internal.DocStockPoint, april())
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func ingestExWork(t *testing.T, svc *ProcessingService) ProcessResult {
	t.Helper()
	path := writeXLSX(t, [][]any{
		{"Sl. No.", "SAP CODE", "LOCATION/GRADE", "B52A003A"},
		{1, 5102, "NOIDA", "98,100"},
	})
	result, err := svc.IngestFile(path, internal.DocExWork, april())
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func ingestFreight(t *testing.T, svc *ProcessingService) ProcessResult {
	t.Helper()
	path := writeXLSX(t, [][]any{
		{"State", "District", "Destination", "Distance", "Transit", "Amount", "Unit", "Per", "UOM", "Valid From", "Valid To"},
		{"UP", "GB Nagar", "NOIDA", 42.5, 2, 928.72, "INR", "MT", "MT", "01.04.2025", "30.04.2025"},
	})
	result, err := svc.IngestFile(path, internal.DocFreight, april())
	if err != nil {
		t.Fatal(err)
	}
	return result
}

func TestFreightAttachesOnceSiblingsComplete(t *testing.T) {
	svc, db := testService(t)

	if r := ingestStockPoint(t, svc); r.Attached {
		t.Error("attach should wait for the full sibling set")
	}
	if r := ingestExWork(t, svc); r.Attached {
		t.Error("attach should wait for the freight document")
	}
	r := ingestFreight(t, svc)
	if !r.Attached {
		t.Fatal("freight ingestion should complete the sibling set and attach")
	}

	docs, err := db.ListDocumentsByPeriod("April", 2025)
	if err != nil {
		t.Fatal(err)
	}
	for _, doc := range docs {
		if doc.FileType == internal.DocStockPoint {
			if doc.Status != StatusFused {
				t.Errorf("stock point status = %q, want fused", doc.Status)
			}
			var pricing internal.PricingDocument
			if err := json.Unmarshal([]byte(*doc.Extracted), &pricing); err != nil {
				t.Fatal(err)
			}
			noida := pricing.Data[0]
			if noida.FreightAmount == nil || *noida.FreightAmount != 928.72 {
				t.Errorf("NOIDA freight = %v", noida.FreightAmount)
			}
			if noida.FreightDetails == nil || noida.FreightDetails.TransitDays != 2 {
				t.Errorf("NOIDA details = %+v", noida.FreightDetails)
			}
			// AGRA has no freight row and stays bare.
			if pricing.Data[1].FreightAmount != nil {
				t.Errorf("AGRA freight = %v", pricing.Data[1].FreightAmount)
			}
		}
	}
}

func TestIngestSameContentTwiceReusesDocument(t *testing.T) {
	svc, _ := testService(t)

	path := writeXLSX(t, [][]any{
		{"Sl. No.", "SAP CODE", "STOCKPOINT LOCATION", "B52A003A"},
		{1, 5102, "NOIDA", "99,650"},
		{2, 5103, "AGRA", "99,200"},
	})
	first, err := svc.IngestFile(path, internal.DocStockPoint, april())
	if err != nil {
		t.Fatal(err)
	}
	second, err := svc.IngestFile(path, internal.DocStockPoint, april())
	if err != nil {
		t.Fatal(err)
	}

	if first.DocumentID != second.DocumentID {
		t.Errorf("document ids differ: %d vs %d", first.DocumentID, second.DocumentID)
	}
	if second.Records != 2 {
		t.Errorf("records = %d, want 2", second.Records)
	}
}

func TestCrossReferenceIngestActivates(t *testing.T) {
	svc, db := testService(t)

	path := writeXLSX(t, [][]any{
		{"S.No", "GAIL GRADE", "CATEGORY", "APPLICATION", "RIL", "IOCL"},
		{1, "B52A003A", "HDPE", "Blow", "X-100, X-200", "Y-55"},
	})
	result, err := svc.IngestFile(path, internal.DocCrossReference, april())
	if err != nil {
		t.Fatal(err)
	}
	if result.Records != 3 {
		t.Errorf("records = %d, want 3 flattened triples", result.Records)
	}

	active, err := db.ActiveCrossReferenceDocument()
	if err != nil {
		t.Fatal(err)
	}
	if active == nil || active.ID != result.DocumentID {
		t.Fatalf("active = %+v", active)
	}

	stored, err := db.ListCrossReferenceRecords(result.DocumentID)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored) != 3 {
		t.Errorf("stored records = %d, want 3", len(stored))
	}
}

func TestAttachFreightForPeriodIncomplete(t *testing.T) {
	svc, _ := testService(t)

	attached, err := svc.AttachFreightForPeriod(april())
	if err != nil {
		t.Fatal(err)
	}
	if attached {
		t.Error("attach with no documents should be a no-op")
	}

	if attached, _ := svc.AttachFreightForPeriod(internal.Period{}); attached {
		t.Error("invalid period should be a no-op")
	}
}
