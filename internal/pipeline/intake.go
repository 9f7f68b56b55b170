package pipeline

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/jhillyerd/enmime"
)

// MailAttachment is one file pulled out of a circular email.
type MailAttachment struct {
	Filename string
	Content  []byte
}

// OpenCircularMail decodes a raw RFC 5322 message and returns its subject
// and attachments. Attachments without a filename get a placeholder so they
// still round-trip through classification (and get rejected there).
func OpenCircularMail(raw []byte) (subject string, attachments []MailAttachment, err error) {
	env, err := enmime.ReadEnvelope(bytes.NewReader(raw))
	if err != nil {
		return "", nil, fmt.Errorf("decode mail: %w", err)
	}

	attachments = make([]MailAttachment, 0, len(env.Attachments))
	for i, att := range env.Attachments {
		filename := strings.TrimSpace(att.FileName)
		if filename == "" {
			filename = fmt.Sprintf("attachment-%d", i+1)
		}
		attachments = append(attachments, MailAttachment{Filename: filename, Content: att.Content})
	}

	return env.GetHeader("Subject"), attachments, nil
}
