package listener

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"pricebook/internal"
	"pricebook/internal/config"
	"pricebook/internal/connectors"
	gmailconnector "pricebook/internal/connectors/gmail"
	imapconnector "pricebook/internal/connectors/imap"
	"pricebook/internal/pipeline"
	"pricebook/internal/storage"
)

// Service polls a mailbox for price circulars and pushes every recognizable
// attachment through the extraction pipeline.
type Service struct {
	db        *storage.DB
	cfg       config.Config
	processor *pipeline.ProcessingService
}

func NewService(db *storage.DB, cfg config.Config) *Service {
	return &Service{db: db, cfg: cfg, processor: pipeline.NewProcessingService(db, cfg)}
}

func (s *Service) Run(ctx context.Context) error {
	for {
		if err := s.RunCycle(); err != nil {
			log.Printf("listener cycle error: %v", err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(time.Duration(s.cfg.ListenerIntervalSec) * time.Second):
		}
	}
}

// RunCycle does one fetch-and-process pass: pull new mail, then work through
// everything still in the fetched state.
func (s *Service) RunCycle() error {
	provider := strings.ToLower(strings.TrimSpace(s.cfg.ListenerProvider))
	mailConnector, err := s.makeConnector(provider)
	if err != nil {
		return err
	}

	fetchService := connectors.NewFetchService(s.db, s.cfg.RawMailDir, mailConnector)
	fetchResult, err := fetchService.FetchAndStore(s.cfg.ListenerLabel, s.cfg.ListenerFetchMax)
	if err != nil {
		return err
	}

	processed, err := s.processFetched()
	if err != nil {
		return err
	}

	log.Printf("listener cycle done provider=%s fetched=%d stored=%d skipped=%d processed=%d",
		provider, fetchResult.Fetched, fetchResult.Stored, fetchResult.Skipped, processed)
	return nil
}

// processFetched opens each stored mail, classifies its attachments and
// ingests the ones that look like circulars. A mail with no usable attachment
// is marked skipped, not failed.
func (s *Service) processFetched() (int, error) {
	mails, err := s.db.ListMailsByStatus("fetched", s.cfg.ListenerProcessBatch)
	if err != nil {
		return 0, err
	}

	processed := 0
	for _, mail := range mails {
		ingested, err := s.processMail(mail)
		if err != nil {
			log.Printf("mail %d (%s): %v", mail.ID, mail.MessageID, err)
			_ = s.db.UpdateMailStatus(mail.ID, "failed")
			continue
		}
		if ingested == 0 {
			_ = s.db.UpdateMailStatus(mail.ID, "skipped")
			continue
		}
		_ = s.db.UpdateMailStatus(mail.ID, "processed")
		processed++

		if s.cfg.ListenerAutoExport {
			if err := s.exportMail(mail); err != nil {
				log.Printf("export for mail %d: %v", mail.ID, err)
			}
		}
	}
	return processed, nil
}

func (s *Service) processMail(mail internal.MailRow) (int, error) {
	raw, err := os.ReadFile(mail.RawRef)
	if err != nil {
		return 0, err
	}

	subject, attachments, err := pipeline.OpenCircularMail(raw)
	if err != nil {
		return 0, err
	}
	if subject == "" {
		subject = mail.Subject
	}

	ingested := 0
	for _, att := range attachments {
		classified, ok := pipeline.ClassifyAttachment(subject, att.Filename)
		if !ok {
			continue
		}
		if !classified.Period.Valid() {
			log.Printf("mail %d: %q classified as %s but no period detected, skipping",
				mail.ID, att.Filename, classified.FileType)
			continue
		}
		result, err := s.processor.IngestBytes(att.Filename, att.Content, classified.FileType, classified.Period)
		if err != nil {
			return ingested, fmt.Errorf("ingest %q: %w", att.Filename, err)
		}
		log.Printf("mail %d: ingested %q as %s %s %d (document %d, %d records, attached=%v)",
			mail.ID, att.Filename, classified.FileType, classified.Period.Month, classified.Period.Year,
			result.DocumentID, result.Records, result.Attached)
		ingested++
	}
	return ingested, nil
}

// exportMail writes a workbook per pricing document touched by this mail's
// period. Export failures do not fail the mail; the data is already stored.
func (s *Service) exportMail(mail internal.MailRow) error {
	raw, err := os.ReadFile(mail.RawRef)
	if err != nil {
		return err
	}
	subject, attachments, err := pipeline.OpenCircularMail(raw)
	if err != nil {
		return err
	}

	exported := map[string]bool{}
	for _, att := range attachments {
		classified, ok := pipeline.ClassifyAttachment(subject, att.Filename)
		if !ok || !classified.Period.Valid() {
			continue
		}
		key := fmt.Sprintf("%s-%d", classified.Period.Month, classified.Period.Year)
		if exported[key] {
			continue
		}
		exported[key] = true

		if err := s.exportPeriod(classified.Period); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) exportPeriod(period internal.Period) error {
	docs, err := s.db.ListDocumentsByPeriod(period.Month, period.Year)
	if err != nil {
		return err
	}
	for _, doc := range docs {
		if doc.Extracted == nil {
			continue
		}
		if doc.FileType != internal.DocStockPoint && doc.FileType != internal.DocExWork {
			continue
		}
		rows, err := pipeline.FlattenStoredPricing(*doc.Extracted)
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			continue
		}
		filename := fmt.Sprintf("%d_%s_%s_%d.xlsx", doc.ID, doc.FileType, strings.ToLower(period.Month), period.Year)
		outputPath := filepath.Join(s.cfg.OutputDir, "listener", filename)
		if err := pipeline.ExportPricingToXLSX(rows, outputPath); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) makeConnector(provider string) (connectors.MailConnector, error) {
	switch provider {
	case "gmail":
		return gmailconnector.NewConnector(s.cfg)
	case "imap":
		return imapconnector.NewConnector(s.cfg)
	default:
		return nil, fmt.Errorf("unsupported listener provider: %s", provider)
	}
}
