// Package attachment normalizes the attachment fragments of inbound-email
// webhook payloads into a canonical list of records with decoded filenames.
package attachment

// Record is a single canonical attachment. It keeps every key of the original
// payload fragment; "name" holds the decoded filename when one was present,
// "type" the MIME type, and "content" the untouched provider-supplied payload.
type Record map[string]any

// Name returns the record's filename, or the empty string if it has none
// or it is not text.
func (r Record) Name() string {
	name, _ := r["name"].(string)
	return name
}

// Type returns the record's MIME type, or the empty string.
func (r Record) Type() string {
	t, _ := r["type"].(string)
	return t
}

// isAttachmentLike reports whether m carries both a "name" and a "type" key.
// This is the structural heuristic that distinguishes an attachment record
// from an outer map whose values are the attachments; the payload carries no
// explicit discriminant.
func isAttachmentLike(m map[string]any) bool {
	_, hasName := m["name"]
	_, hasType := m["type"]
	return hasName && hasType
}

// copyRecord deep-copies a decoded-JSON map so the result shares no mutable
// state with the input payload.
func copyRecord(m map[string]any) Record {
	out := make(Record, len(m))
	for k, v := range m {
		out[k] = copyValue(v)
	}
	return out
}

func copyValue(v any) any {
	switch v := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(v))
		for k, e := range v {
			out[k] = copyValue(e)
		}
		return out
	case []any:
		out := make([]any, len(v))
		for i, e := range v {
			out[i] = copyValue(e)
		}
		return out
	default:
		// Remaining JSON values (string, float64, bool, nil) are immutable.
		return v
	}
}
