package connectors

import "pricebook/internal"

// MailConnector fetches circular emails from one mailbox provider.
type MailConnector interface {
	FetchInbox(label string, max int) ([]internal.FetchedMailMessage, error)
}
