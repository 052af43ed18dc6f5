package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := Open(filepath.Join(t.TempDir(), "metadata.db"))
	if err != nil {
		t.Fatalf("failed to open store: %v", err)
	}
	return s
}

func TestSaveMessage_AssignsID(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	m := &InboundMessage{
		Sender:     "sender@example.com",
		Subject:    "Test",
		ReceivedAt: time.Unix(1718000000, 0).UTC(),
	}
	if err := s.SaveMessage(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if m.ID == 0 {
		t.Error("message ID: got 0, want assigned primary key")
	}
}

func TestAttachmentsForMessage(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	m := &InboundMessage{Sender: "sender@example.com", Subject: "Attachments"}
	if err := s.SaveMessage(context.Background(), m); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	first := &StoredAttachment{
		MessageID:   m.ID,
		Name:        "a.txt",
		ContentType: "text/plain",
		Size:        5,
		StorageKey:  "k1/a.txt",
		StorageURI:  "s3://attachments/k1/a.txt",
	}
	second := &StoredAttachment{
		MessageID:   m.ID,
		Name:        "b.png",
		ContentType: "image/png",
		Size:        9,
		StorageKey:  "k2/b.png",
		StorageURI:  "s3://attachments/k2/b.png",
	}
	for _, a := range []*StoredAttachment{first, second} {
		if err := s.SaveAttachment(context.Background(), a); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	got, err := s.AttachmentsForMessage(context.Background(), m.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("attachments: got %d, want 2", len(got))
	}
	if got[0].Name != "a.txt" || got[1].Name != "b.png" {
		t.Errorf("order: got [%q, %q], want [a.txt, b.png]", got[0].Name, got[1].Name)
	}
	if got[0].StorageURI != "s3://attachments/k1/a.txt" {
		t.Errorf("StorageURI: got %q, want %q", got[0].StorageURI, "s3://attachments/k1/a.txt")
	}
}

func TestAttachmentsForMessage_Empty(t *testing.T) {
	t.Parallel()

	s := openTestStore(t)

	got, err := s.AttachmentsForMessage(context.Background(), 12345)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("attachments: got %d, want 0", len(got))
	}
}
