// Package ingest runs the per-event pipeline: normalize the attachment
// fragments, fall back to the raw message when they are empty, upload
// content to the configured sink, and persist metadata.
package ingest

import (
	"context"
	"encoding/base64"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/shineum/mail-hook-lite/internal/attachment"
	"github.com/shineum/mail-hook-lite/internal/metrics"
	"github.com/shineum/mail-hook-lite/internal/rawmail"
	"github.com/shineum/mail-hook-lite/internal/storage"
	"github.com/shineum/mail-hook-lite/internal/store"
	"github.com/shineum/mail-hook-lite/internal/webhook"
)

// Pipeline processes parsed webhook events. A nil store disables metadata
// persistence. Failures of individual attachments (bad content encoding,
// upload errors) are logged and skipped; they never abort the event.
type Pipeline struct {
	normalizer *attachment.Normalizer
	sink       storage.Sink
	store      *store.Store
	metrics    *metrics.Metrics
}

// New creates a Pipeline writing attachment content to sink and metadata to
// st (optional).
func New(sink storage.Sink, st *store.Store, m *metrics.Metrics) *Pipeline {
	return &Pipeline{
		normalizer: attachment.NewNormalizer(nil),
		sink:       sink,
		store:      st,
		metrics:    m,
	}
}

// ProcessEvent handles one inbound event.
func (p *Pipeline) ProcessEvent(ctx context.Context, ev webhook.Event) error {
	p.metrics.EventsReceived.Inc()

	records := p.normalizer.Normalize(ev.Attachments())
	records = append(records, p.normalizer.Normalize(ev.Images())...)

	if len(records) == 0 && ev.RawMessage() != "" {
		extracted, err := rawmail.ExtractAttachments(ev.RawMessage(), p.normalizer.Decoder())
		if err != nil {
			slog.Warn("failed to extract attachments from raw message",
				"from", ev.FromEmail(),
				"error", err,
			)
		} else if len(extracted) > 0 {
			p.metrics.RawMessageFallbacks.Inc()
			records = extracted
		}
	}

	var messageID uint
	if p.store != nil {
		msg := &store.InboundMessage{
			Sender:     ev.FromEmail(),
			Subject:    ev.Subject(),
			ReceivedAt: time.Unix(ev.TS, 0).UTC(),
		}
		if err := p.store.SaveMessage(ctx, msg); err != nil {
			return fmt.Errorf("failed to persist inbound message: %w", err)
		}
		messageID = msg.ID
	}

	for _, rec := range records {
		p.metrics.AttachmentsNormalized.Inc()
		p.storeRecord(ctx, messageID, rec)
	}

	return nil
}

// storeRecord uploads one attachment's content and persists its metadata.
func (p *Pipeline) storeRecord(ctx context.Context, messageID uint, rec attachment.Record) {
	data, hasContent, err := contentBytes(rec)
	if err != nil {
		slog.Warn("skipping attachment with undecodable content",
			"name", rec.Name(),
			"error", err,
		)
		return
	}

	var key, uri string
	if hasContent {
		name := rec.Name()
		if name == "" {
			name = "attachment"
		}
		key = uuid.NewString() + "/" + name

		uri, err = p.sink.Put(ctx, key, rec.Type(), data)
		if err != nil {
			p.metrics.UploadFailures.Inc()
			slog.Warn("failed to upload attachment content",
				"name", rec.Name(),
				"sink", p.sink.Name(),
				"error", err,
			)
			return
		}
	}

	if p.store != nil {
		att := &store.StoredAttachment{
			MessageID:   messageID,
			Name:        rec.Name(),
			ContentType: rec.Type(),
			Size:        int64(len(data)),
			StorageKey:  key,
			StorageURI:  uri,
		}
		if err := p.store.SaveAttachment(ctx, att); err != nil {
			slog.Warn("failed to persist attachment metadata",
				"name", rec.Name(),
				"error", err,
			)
		}
	}
}

// contentBytes extracts the raw bytes of a record's content. Providers send
// content either as raw bytes (the rawmail path), plain text, or base64 text
// flagged by a sibling "base64" field.
func contentBytes(rec attachment.Record) ([]byte, bool, error) {
	switch c := rec["content"].(type) {
	case nil:
		return nil, false, nil
	case []byte:
		return c, true, nil
	case string:
		if isBase64, _ := rec["base64"].(bool); isBase64 {
			decoded, err := base64.StdEncoding.DecodeString(c)
			if err != nil {
				return nil, false, fmt.Errorf("failed to decode base64 content: %w", err)
			}
			return decoded, true, nil
		}
		return []byte(c), true, nil
	default:
		return nil, false, fmt.Errorf("unexpected content type %T", c)
	}
}
