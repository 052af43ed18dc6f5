// Package rawmail extracts attachment records from raw RFC 5322 message
// text. It is the fallback path for providers that omit structured
// attachment metadata from their webhook payloads but include the original
// message source.
package rawmail

import (
	"encoding/base64"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/mail"
	"strings"

	"github.com/shineum/mail-hook-lite/internal/attachment"
)

// ExtractAttachments parses a raw message and returns its attachment parts
// as canonical records. Filenames are decoded through dec. Malformed parts
// are skipped with a warning; only a message that cannot be parsed at all
// yields an error.
func ExtractAttachments(raw string, dec *attachment.HeaderDecoder) ([]attachment.Record, error) {
	msg, err := mail.ReadMessage(strings.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse raw message: %w", err)
	}

	contentType := msg.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "text/plain"
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil || !strings.HasPrefix(mediaType, "multipart/") {
		// Single-part messages carry no attachments.
		return []attachment.Record{}, nil
	}

	boundary := params["boundary"]
	if boundary == "" {
		return nil, fmt.Errorf("multipart message missing boundary")
	}

	records := []attachment.Record{}
	if err := walkMultipart(msg.Body, boundary, dec, &records); err != nil {
		return nil, fmt.Errorf("failed to walk multipart message: %w", err)
	}
	return records, nil
}

// walkMultipart collects attachment parts, recursing into nested multiparts.
func walkMultipart(body io.Reader, boundary string, dec *attachment.HeaderDecoder, records *[]attachment.Record) error {
	reader := multipart.NewReader(body, boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read next part: %w", err)
		}

		partContentType := part.Header.Get("Content-Type")
		if partContentType == "" {
			partContentType = "text/plain"
		}

		mediaType, params, err := mime.ParseMediaType(partContentType)
		if err != nil {
			slog.Warn("failed to parse part content type, skipping",
				"content_type", partContentType,
				"error", err,
			)
			continue
		}

		if strings.HasPrefix(mediaType, "multipart/") {
			nestedBoundary := params["boundary"]
			if nestedBoundary == "" {
				slog.Warn("nested multipart missing boundary, skipping")
				continue
			}
			if err := walkMultipart(part, nestedBoundary, dec, records); err != nil {
				slog.Warn("failed to walk nested multipart", "error", err)
			}
			continue
		}

		filename := partFilename(part, params)
		contentDisposition := part.Header.Get("Content-Disposition")
		isAttachment := strings.HasPrefix(contentDisposition, "attachment")
		if !isAttachment && filename == "" {
			// Inline body part, not an attachment.
			continue
		}

		content, err := readPartContent(part)
		if err != nil {
			slog.Warn("failed to read part content, skipping",
				"content_type", mediaType,
				"error", err,
			)
			continue
		}

		rec := attachment.Record{
			"type":    mediaType,
			"content": content,
		}
		if filename != "" {
			rec["name"] = dec.Decode(filename)
		}
		*records = append(*records, rec)
	}

	return nil
}

// readPartContent reads the full content of a MIME part, handling
// Content-Transfer-Encoding (base64; Go's multipart reader decodes
// quoted-printable itself).
func readPartContent(part *multipart.Part) ([]byte, error) {
	encoding := strings.ToLower(strings.TrimSpace(part.Header.Get("Content-Transfer-Encoding")))

	raw, err := io.ReadAll(part)
	if err != nil {
		return nil, err
	}

	switch encoding {
	case "base64":
		cleaned := strings.NewReplacer("\r", "", "\n", "").Replace(string(raw))
		decoded, err := base64.StdEncoding.DecodeString(cleaned)
		if err != nil {
			decoded, err = base64.RawStdEncoding.DecodeString(cleaned)
			if err != nil {
				return nil, fmt.Errorf("failed to decode base64 content: %w", err)
			}
		}
		return decoded, nil
	default:
		return raw, nil
	}
}

// partFilename extracts the filename from Content-Disposition, falling back
// to the Content-Type "name" parameter.
func partFilename(part *multipart.Part, params map[string]string) string {
	if fn := part.FileName(); fn != "" {
		return fn
	}
	if name, ok := params["name"]; ok && name != "" {
		return name
	}
	return ""
}
