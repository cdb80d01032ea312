// Package payload decodes section content lines into rows of text fields,
// honoring the per-section strip/encoding/separator options from a header.
package payload

import (
	"errors"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

var (
	errInvalidUTF8    = errors.New("payload: invalid utf-8")
	errUnknownCharset = errors.New("payload: unknown charset")
)

// Row is a single decoded content line split into fields.
type Row []string

// Decode turns raw bytes from a content line into text, applying the
// declared charset and falling back to latin-1 (which is total on any
// 8-bit input) when the declared charset can't decode the bytes.
func Decode(raw []byte, charset string) string {
	if s, err := decodeStrict(raw, charset); err == nil {
		return s
	}
	out, _ := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	return string(out)
}

func decodeStrict(raw []byte, charset string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(charset)) {
	case "", "utf-8", "utf8":
		if !utf8.Valid(raw) {
			return "", errInvalidUTF8
		}
		return string(raw), nil
	}

	enc, err := ianaindex.IANA.Encoding(charset)
	if err != nil || enc == nil {
		return "", errUnknownCharset
	}
	out, err := enc.NewDecoder().Bytes(raw)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// Split turns decoded text into a Row. When sep is set, splitting is a
// single-character exact split that preserves empty fields. Otherwise the
// text is split on runs of whitespace, collapsing empty fields.
func Split(text string, sep byte, hasSep bool) Row {
	if hasSep {
		return strings.Split(text, string(rune(sep)))
	}
	return Row(strings.Fields(text))
}

// Strip trims ASCII whitespace (including \r) from both ends of raw, matching
// the "strip" step applied when a header does not carry "nostrip".
func Strip(raw []byte) []byte {
	return []byte(strings.Trim(string(raw), " \t\r\n\v\f"))
}
