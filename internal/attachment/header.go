package attachment

import (
	"io"
	"log/slog"
	"mime"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// HeaderDecoder decodes possibly RFC 2047 encoded header values (typically
// filenames) into clean strings. It never fails: unknown charsets degrade to
// Latin-1, invalid byte sequences to replacement runes, and malformed
// encoded-word syntax to the raw input value.
type HeaderDecoder struct {
	log *slog.Logger
}

// NewHeaderDecoder creates a HeaderDecoder that reports decode problems to
// the given logger. A nil logger falls back to slog.Default().
func NewHeaderDecoder(log *slog.Logger) *HeaderDecoder {
	if log == nil {
		log = slog.Default()
	}
	return &HeaderDecoder{log: log}
}

// wordDecoder resolves charsets through the MIME index first, then the plain
// IANA index, and finally Latin-1. Latin-1 maps every byte, so the reader it
// hands back can always produce output; x/text decoders substitute U+FFFD
// for byte sequences that are invalid in the declared charset.
var wordDecoder = mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		enc, err := ianaindex.MIME.Encoding(charset)
		if enc == nil || err != nil {
			enc, err = ianaindex.IANA.Encoding(charset)
		}
		if enc == nil || err != nil {
			enc = charmap.ISO8859_1
		}
		return enc.NewDecoder().Reader(input), nil
	},
}

// Decode returns the decoded form of value. Values without the =?...?=
// encoded-word markers are returned unchanged, byte for byte. If decoding
// fails despite the charset fallbacks (malformed encoded-word syntax, broken
// base64 or quoted-printable payload), the raw value is returned so that a
// bad header never aborts webhook processing.
func (d *HeaderDecoder) Decode(value string) string {
	if value == "" {
		return value
	}
	if !strings.Contains(value, "=?") || !strings.Contains(value, "?=") {
		return value
	}

	decoded, err := wordDecoder.DecodeHeader(value)
	if err != nil {
		d.log.Warn("failed to decode encoded-word header, keeping raw value",
			"value", value,
			"error", err,
		)
		return value
	}
	return decoded
}
