package rawmail

import (
	"strings"
	"testing"

	"github.com/shineum/mail-hook-lite/internal/attachment"
)

func TestExtractAttachments_PlainTextMessage(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		"From: sender@example.com",
		"To: recipient@example.com",
		"Subject: No attachments here",
		"Content-Type: text/plain",
		"",
		"Just a body.",
	}, "\r\n")

	records, err := ExtractAttachments(raw, attachment.NewHeaderDecoder(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 0 {
		t.Errorf("records: got %d, want 0", len(records))
	}
}

func TestExtractAttachments_Base64Attachment(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		"From: sender@example.com",
		"To: recipient@example.com",
		"Subject: With Attachment",
		"Content-Type: multipart/mixed; boundary=mixedboundary",
		"",
		"--mixedboundary",
		"Content-Type: text/plain",
		"",
		"Email body text",
		"--mixedboundary",
		"Content-Type: application/pdf; name=\"report.pdf\"",
		"Content-Disposition: attachment; filename=\"report.pdf\"",
		"Content-Transfer-Encoding: base64",
		"",
		"SGVsbG8gV29ybGQ=",
		"--mixedboundary--",
	}, "\r\n")

	records, err := ExtractAttachments(raw, attachment.NewHeaderDecoder(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}

	rec := records[0]
	if rec.Name() != "report.pdf" {
		t.Errorf("name: got %q, want %q", rec.Name(), "report.pdf")
	}
	if rec.Type() != "application/pdf" {
		t.Errorf("type: got %q, want %q", rec.Type(), "application/pdf")
	}
	content, ok := rec["content"].([]byte)
	if !ok {
		t.Fatalf("content: got %T, want []byte", rec["content"])
	}
	if string(content) != "Hello World" {
		t.Errorf("content: got %q, want %q", content, "Hello World")
	}
}

func TestExtractAttachments_EncodedFilename(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		"From: sender@example.com",
		"To: recipient@example.com",
		"Subject: Encoded name",
		"Content-Type: multipart/mixed; boundary=b1",
		"",
		"--b1",
		"Content-Type: text/plain",
		"",
		"body",
		"--b1",
		"Content-Type: application/octet-stream",
		"Content-Disposition: attachment; filename=\"=?UTF-8?B?aGVsbG8=?=.bin\"",
		"",
		"payload",
		"--b1--",
	}, "\r\n")

	records, err := ExtractAttachments(raw, attachment.NewHeaderDecoder(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	if records[0].Name() != "hello.bin" {
		t.Errorf("name: got %q, want %q", records[0].Name(), "hello.bin")
	}
}

func TestExtractAttachments_NestedMultipart(t *testing.T) {
	t.Parallel()

	raw := strings.Join([]string{
		"From: sender@example.com",
		"Subject: Nested",
		"Content-Type: multipart/mixed; boundary=outer",
		"",
		"--outer",
		"Content-Type: multipart/alternative; boundary=inner",
		"",
		"--inner",
		"Content-Type: text/plain",
		"",
		"alternative body",
		"--inner--",
		"--outer",
		"Content-Type: image/png; name=\"pixel.png\"",
		"Content-Disposition: attachment; filename=\"pixel.png\"",
		"",
		"rawbytes",
		"--outer--",
	}, "\r\n")

	records, err := ExtractAttachments(raw, attachment.NewHeaderDecoder(nil))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("records: got %d, want 1", len(records))
	}
	if records[0].Name() != "pixel.png" {
		t.Errorf("name: got %q, want %q", records[0].Name(), "pixel.png")
	}
}

func TestExtractAttachments_UnparseableMessage(t *testing.T) {
	t.Parallel()

	_, err := ExtractAttachments("not a message at all", attachment.NewHeaderDecoder(nil))
	if err == nil {
		t.Error("expected error for unparseable message, got nil")
	}
}
