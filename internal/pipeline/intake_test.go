package pipeline

import (
	"encoding/base64"
	"strings"
	"testing"
)

func circularMail(t *testing.T, subject, filename string, content []byte) []byte {
	t.Helper()
	encoded := base64.StdEncoding.EncodeToString(content)
	raw := strings.Join([]string{
		"From: pricing@example.com",
		"To: desk@example.com",
		"Subject: " + subject,
		"MIME-Version: 1.0",
		`Content-Type: multipart/mixed; boundary="b0undary"`,
		"",
		"--b0undary",
		"Content-Type: text/plain",
		"",
		"Please find the circular attached.",
		"--b0undary",
		"Content-Type: application/octet-stream",
		`Content-Disposition: attachment; filename="` + filename + `"`,
		"Content-Transfer-Encoding: base64",
		"",
		encoded,
		"--b0undary--",
		"",
	}, "\r\n")
	return []byte(raw)
}

func TestOpenCircularMail(t *testing.T) {
	content := []byte("State,District,Destination\n")
	raw := circularMail(t, "Price Circular April 2025", "freight_april_2025.csv", content)

	subject, attachments, err := OpenCircularMail(raw)
	if err != nil {
		t.Fatal(err)
	}
	if subject != "Price Circular April 2025" {
		t.Errorf("subject = %q", subject)
	}
	if len(attachments) != 1 {
		t.Fatalf("attachments = %d, want 1", len(attachments))
	}
	att := attachments[0]
	if att.Filename != "freight_april_2025.csv" {
		t.Errorf("filename = %q", att.Filename)
	}
	if string(att.Content) != string(content) {
		t.Errorf("content = %q", att.Content)
	}
}

func TestOpenCircularMailGarbage(t *testing.T) {
	// A bare text mail decodes fine and simply has no attachments.
	raw := []byte("From: a@b.c\r\nSubject: hello\r\n\r\nbody\r\n")
	subject, attachments, err := OpenCircularMail(raw)
	if err != nil {
		t.Fatal(err)
	}
	if subject != "hello" || len(attachments) != 0 {
		t.Errorf("subject = %q attachments = %d", subject, len(attachments))
	}
}
