package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"strings"

	"pricebook/internal"
	"pricebook/internal/config"
	"pricebook/internal/connectors"
	gmailconnector "pricebook/internal/connectors/gmail"
	imapconnector "pricebook/internal/connectors/imap"
	"pricebook/internal/listener"
	"pricebook/internal/pipeline"
	"pricebook/internal/query"
	"pricebook/internal/storage"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	cmd := os.Args[1]
	switch cmd {
	case "ingest":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		file := fs.String("file", "", "input document path")
		docType := fs.String("type", "", "stock_point|ex_work|freight|cross_reference")
		month := fs.String("month", "", "pricing month, e.g. April")
		year := fs.Int("year", 0, "pricing year")
		_ = fs.Parse(os.Args[2:])
		if *file == "" || *docType == "" {
			must(fmt.Errorf("--file and --type are required"))
		}
		parsed, err := parseDocType(*docType)
		must(err)
		period := internal.Period{Month: *month, Year: *year}
		if !period.Valid() {
			must(fmt.Errorf("--month and --year are required"))
		}
		processor := pipeline.NewProcessingService(db, cfg)
		result, err := processor.IngestFile(*file, parsed, period)
		must(err)
		fmt.Printf("ingested document id=%d records=%d freightAttached=%v\n", result.DocumentID, result.Records, result.Attached)

	case "process":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		batch := fs.Int("batch", 20, "batch size")
		_ = fs.Parse(os.Args[2:])
		processor := pipeline.NewProcessingService(db, cfg)
		count, err := processor.ProcessPending(*batch)
		must(err)
		fmt.Printf("processed pending documents=%d\n", count)

	case "attach-freight":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		month := fs.String("month", "", "pricing month")
		year := fs.Int("year", 0, "pricing year")
		_ = fs.Parse(os.Args[2:])
		period := internal.Period{Month: *month, Year: *year}
		if !period.Valid() {
			must(fmt.Errorf("--month and --year are required"))
		}
		processor := pipeline.NewProcessingService(db, cfg)
		attached, err := processor.AttachFreightForPeriod(period)
		must(err)
		if !attached {
			fmt.Printf("period %s %d is missing extracted siblings, nothing attached\n", *month, *year)
			return
		}
		fmt.Printf("freight attached for %s %d\n", *month, *year)

	case "activate":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		documentID := fs.Int("documentId", 0, "cross-reference document id")
		_ = fs.Parse(os.Args[2:])
		if *documentID == 0 {
			must(fmt.Errorf("--documentId is required"))
		}
		doc, err := db.GetDocumentByID(*documentID)
		must(err)
		if doc == nil || doc.FileType != internal.DocCrossReference {
			must(fmt.Errorf("document %d is not a cross-reference document", *documentID))
		}
		must(db.ActivateCrossReference(*documentID))
		fmt.Printf("document %d is now the active cross-reference\n", *documentID)

	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		documentID := fs.Int("documentId", 0, "pricing document id")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if *documentID == 0 || strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--documentId and --out are required"))
		}
		doc := mustDocument(db, *documentID)
		rows, err := pipeline.FlattenStoredPricing(*doc.Extracted)
		must(err)
		if len(rows) == 0 {
			must(fmt.Errorf("no export rows for document %d", *documentID))
		}
		must(pipeline.ExportPricingToXLSX(rows, *out))
		fmt.Printf("exported %d rows to %s\n", len(rows), *out)

	case "export:crossref":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		if strings.TrimSpace(*out) == "" {
			must(fmt.Errorf("--out is required"))
		}
		crossRef, err := loadActiveCrossReference(db)
		must(err)
		must(pipeline.ExportCrossReferenceToXLSX(crossRef, *out))
		fmt.Printf("exported cross-reference matrix to %s\n", *out)

	case "query:equivalents":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		grade := fs.String("grade", "", "grade to look up")
		_ = fs.Parse(os.Args[2:])
		if *grade == "" {
			must(fmt.Errorf("--grade is required"))
		}
		crossRef, err := loadActiveCrossReference(db)
		must(err)
		idx := query.NewIndex(internal.PricingDocument{}, crossRef)
		result, ok := idx.EquivalentGrades(*grade)
		if !ok {
			must(fmt.Errorf("no equivalents found for grade %q", *grade))
		}
		printJSON(result)

	case "query:price":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		documentID := fs.Int("documentId", 0, "pricing document id")
		grade := fs.String("grade", "", "product code")
		location := fs.String("location", "", "location name")
		_ = fs.Parse(os.Args[2:])
		if *documentID == 0 || *grade == "" || *location == "" {
			must(fmt.Errorf("--documentId, --grade and --location are required"))
		}
		idx, err := loadIndex(db, *documentID)
		must(err)
		detail, ok := idx.PriceAt(*grade, *location)
		if !ok {
			must(fmt.Errorf("no price for %q at %q", *grade, *location))
		}
		printJSON(detail)

	case "query:grades":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		documentID := fs.Int("documentId", 0, "pricing document id")
		location := fs.String("location", "", "location name")
		_ = fs.Parse(os.Args[2:])
		if *documentID == 0 || *location == "" {
			must(fmt.Errorf("--documentId and --location are required"))
		}
		idx, err := loadIndex(db, *documentID)
		must(err)
		codes, ok := idx.GradesAt(*location)
		if !ok {
			must(fmt.Errorf("location %q not found", *location))
		}
		printJSON(codes)

	case "query:stats":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		documentID := fs.Int("documentId", 0, "pricing document id")
		_ = fs.Parse(os.Args[2:])
		if *documentID == 0 {
			must(fmt.Errorf("--documentId is required"))
		}
		idx, err := loadIndex(db, *documentID)
		must(err)
		printJSON(idx.ComputeStats())

	case "mail:fetch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		provider := fs.String("provider", "imap", "gmail|imap")
		label := fs.String("label", "INBOX", "mailbox/label")
		max := fs.Int("max", 50, "max messages")
		_ = fs.Parse(os.Args[2:])
		conn, err := makeConnector(cfg, *provider)
		must(err)
		fetch := connectors.NewFetchService(db, cfg.RawMailDir, conn)
		result, err := fetch.FetchAndStore(*label, *max)
		must(err)
		fmt.Printf("mail fetch done provider=%s fetched=%d stored=%d skipped=%d failed=%d\n", *provider, result.Fetched, result.Stored, result.Skipped, result.Failed)

	case "mail:listen":
		s := listener.NewService(db, cfg)
		must(s.Run(context.Background()))

	default:
		usage()
		os.Exit(1)
	}
}

func mustDocument(db *storage.DB, id int) *internal.DocumentRow {
	doc, err := db.GetDocumentByID(id)
	must(err)
	if doc == nil {
		must(fmt.Errorf("document %d not found", id))
	}
	if doc.Extracted == nil {
		must(fmt.Errorf("document %d has not been extracted yet", id))
	}
	return doc
}

func loadIndex(db *storage.DB, documentID int) (*query.Index, error) {
	doc := mustDocument(db, documentID)
	if doc.FileType != internal.DocStockPoint && doc.FileType != internal.DocExWork {
		return nil, fmt.Errorf("document %d is not a pricing document", documentID)
	}

	var pricing internal.PricingDocument
	if err := json.Unmarshal([]byte(*doc.Extracted), &pricing); err != nil {
		return nil, err
	}

	crossRef, err := loadActiveCrossReference(db)
	if err != nil {
		// Queries over prices alone still work without an active matrix.
		crossRef = internal.CrossReferenceIndex{}
	}
	return query.NewIndex(pricing, crossRef), nil
}

func loadActiveCrossReference(db *storage.DB) (internal.CrossReferenceIndex, error) {
	doc, err := db.ActiveCrossReferenceDocument()
	if err != nil {
		return internal.CrossReferenceIndex{}, err
	}
	if doc == nil || doc.Extracted == nil {
		return internal.CrossReferenceIndex{}, fmt.Errorf("no active cross-reference document")
	}
	var index internal.CrossReferenceIndex
	if err := json.Unmarshal([]byte(*doc.Extracted), &index); err != nil {
		return internal.CrossReferenceIndex{}, err
	}
	return index, nil
}

func parseDocType(value string) (internal.DocumentType, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "stock_point", "stockpoint", "stock_point_file":
		return internal.DocStockPoint, nil
	case "ex_work", "exwork", "ex_work_file":
		return internal.DocExWork, nil
	case "freight", "freight_file":
		return internal.DocFreight, nil
	case "cross_reference", "crossref":
		return internal.DocCrossReference, nil
	default:
		return "", fmt.Errorf("unsupported document type: %s", value)
	}
}

func makeConnector(cfg config.Config, provider string) (connectors.MailConnector, error) {
	switch strings.ToLower(strings.TrimSpace(provider)) {
	case "gmail":
		return gmailconnector.NewConnector(cfg)
	case "imap":
		return imapconnector.NewConnector(cfg)
	default:
		return nil, fmt.Errorf("unsupported provider: %s", provider)
	}
}

func printJSON(v any) {
	blob, err := json.MarshalIndent(v, "", "  ")
	must(err)
	fmt.Println(string(blob))
}

func usage() {
	fmt.Println("usage: pricebook <command>")
	fmt.Println("commands:")
	fmt.Println("  ingest --file=... --type=stock_point|ex_work|freight|cross_reference --month=April --year=2025")
	fmt.Println("  process [--batch=20]")
	fmt.Println("  attach-freight --month=April --year=2025")
	fmt.Println("  activate --documentId=1")
	fmt.Println("  export:xlsx --documentId=1 --out=./out/prices.xlsx")
	fmt.Println("  export:crossref --out=./out/crossref.xlsx")
	fmt.Println("  query:equivalents --grade=B52A003A")
	fmt.Println("  query:price --documentId=1 --grade=B52A003A --location=NOIDA")
	fmt.Println("  query:grades --documentId=1 --location=NOIDA")
	fmt.Println("  query:stats --documentId=1")
	fmt.Println("  mail:fetch --provider=gmail|imap --label=INBOX --max=50")
	fmt.Println("  mail:listen")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
