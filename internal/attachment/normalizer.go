package attachment

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
)

// Normalizer turns a loosely-typed attachments fragment of a webhook payload
// into a canonical []Record. It accepts every shape providers are known to
// send (list of records, single record, map of records, raw JSON text) and
// degrades to an empty result on anything malformed; it never panics, never
// returns an error, and never mutates its input.
type Normalizer struct {
	dec *HeaderDecoder
	log *slog.Logger
}

// NewNormalizer creates a Normalizer reporting malformed payloads to the
// given logger. A nil logger falls back to slog.Default().
func NewNormalizer(log *slog.Logger) *Normalizer {
	if log == nil {
		log = slog.Default()
	}
	return &Normalizer{
		dec: NewHeaderDecoder(log),
		log: log,
	}
}

// Decoder returns the HeaderDecoder the normalizer applies to filenames.
func (n *Normalizer) Decoder() *HeaderDecoder {
	return n.dec
}

// payloadShape is the structural classification of an attachments fragment,
// assigned once at the boundary and then switched exhaustively.
type payloadShape int

const (
	shapeAbsent payloadShape = iota // nil, "", empty list, empty map
	shapeText                       // non-empty string holding JSON
	shapeList                       // non-empty list of candidate records
	shapeRecord                     // non-empty single record or map of records
	shapeUnknown                    // anything else
)

func classify(v any) payloadShape {
	switch v := v.(type) {
	case nil:
		return shapeAbsent
	case string:
		if v == "" {
			return shapeAbsent
		}
		return shapeText
	case []any:
		if len(v) == 0 {
			return shapeAbsent
		}
		return shapeList
	case map[string]any:
		if len(v) == 0 {
			return shapeAbsent
		}
		return shapeRecord
	default:
		return shapeUnknown
	}
}

// Normalize converts an attachments fragment of unknown shape into a
// canonical ordered list of records. This is the single place where every
// internal failure collapses to the empty-list default: a malformed
// attachments field must never fail the webhook that carried it.
func (n *Normalizer) Normalize(v any) []Record {
	records, err := n.normalize(v)
	if err != nil {
		n.log.Warn("ignoring malformed attachments payload", "error", err)
		return []Record{}
	}
	return records
}

func (n *Normalizer) normalize(v any) ([]Record, error) {
	switch classify(v) {
	case shapeAbsent:
		return []Record{}, nil

	case shapeText:
		var parsed any
		if err := json.Unmarshal([]byte(v.(string)), &parsed); err != nil {
			return nil, fmt.Errorf("failed to parse attachments JSON: %w", err)
		}
		switch parsed := parsed.(type) {
		case []any:
			return n.fromList(parsed), nil
		case map[string]any:
			return n.fromRecord(parsed), nil
		default:
			// A JSON scalar carries no attachments.
			return []Record{}, nil
		}

	case shapeList:
		return n.fromList(v.([]any)), nil

	case shapeRecord:
		return n.fromRecord(v.(map[string]any)), nil

	default:
		return nil, fmt.Errorf("unsupported attachments payload type %T", v)
	}
}

// fromList normalizes a list of candidate records. Elements that are not
// records are silently dropped; order is preserved.
func (n *Normalizer) fromList(list []any) []Record {
	records := make([]Record, 0, len(list))
	for _, elem := range list {
		m, ok := elem.(map[string]any)
		if !ok {
			continue
		}
		records = append(records, n.copyAndDecode(m))
	}
	return records
}

// fromRecord normalizes a single record, which is either itself an
// attachment (it has both "name" and "type") or a map whose values are
// attachments keyed by strings that carry no metadata of their own. The
// outer keys of the map form are discarded; its values are visited in sorted
// key order so the result is deterministic.
func (n *Normalizer) fromRecord(m map[string]any) []Record {
	if isAttachmentLike(m) {
		return []Record{n.copyAndDecode(m)}
	}

	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	records := make([]Record, 0, len(m))
	for _, k := range keys {
		inner, ok := m[k].(map[string]any)
		if !ok || !isAttachmentLike(inner) {
			continue
		}
		records = append(records, n.copyAndDecode(inner))
	}
	return records
}

// copyAndDecode deep-copies a record and decodes its filename in place on
// the copy. Non-string names are left untouched.
func (n *Normalizer) copyAndDecode(m map[string]any) Record {
	rec := copyRecord(m)
	if name, ok := rec["name"].(string); ok {
		rec["name"] = n.dec.Decode(name)
	}
	return rec
}
