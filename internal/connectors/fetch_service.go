package connectors

import (
	"log"

	"pricebook/internal/storage"
)

// FetchService pulls circulars from a connector and hands new ones to the
// mail store. Messages already recorded for the provider are skipped, so
// mailboxes that never mark messages seen do not re-enter the queue, and a
// single bad message does not sink the rest of the batch.
type FetchService struct {
	db        *storage.DB
	connector MailConnector
	store     *MailStoreService
}

type FetchResult struct {
	Fetched int
	Stored  int
	Skipped int
	Failed  int
}

func NewFetchService(db *storage.DB, rawMailDir string, connector MailConnector) *FetchService {
	return &FetchService{
		db:        db,
		connector: connector,
		store:     NewMailStoreService(db, rawMailDir),
	}
}

func (s *FetchService) FetchAndStore(label string, max int) (FetchResult, error) {
	messages, err := s.connector.FetchInbox(label, max)
	if err != nil {
		return FetchResult{}, err
	}

	result := FetchResult{Fetched: len(messages)}
	for _, msg := range messages {
		known, err := s.db.GetMailByMessageID(msg.Provider, msg.MessageID)
		if err != nil {
			return result, err
		}
		if known != nil {
			result.Skipped++
			continue
		}
		if _, err := s.store.Store(msg); err != nil {
			log.Printf("mail store failed provider=%s messageId=%s: %v", msg.Provider, msg.MessageID, err)
			result.Failed++
			continue
		}
		result.Stored++
	}

	return result, nil
}
