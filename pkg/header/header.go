// Package header decodes section-header lines into a name and a typed set
// of options, per the agent-output header mini-language.
package header

import (
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/morph027/checkmk/pkg/section"
)

// ErrInvalidHeader is returned (wrapped) when a header line is malformed: an
// empty or invalid section name, an option value whose last character is not
// ')', or a cached/persist/sep value that does not parse.
var ErrInvalidHeader = fmt.Errorf("invalid section header")

// Header is the decoded form of a `<<<name:opt(val):...>>>` line.
type Header struct {
	Name    section.Name
	Options map[string]string
}

// IsHostHeader reports whether line (after trimming) is a host-section
// header: starts with "<<<", ends with ">>>", is not the bare "<<<>>>"
// footer, and is not a piggyback header or footer.
func IsHostHeader(line []byte) bool {
	t := bytes.TrimSpace(line)
	return bytes.HasPrefix(t, []byte("<<<")) && bytes.HasSuffix(t, []byte(">>>")) &&
		!IsHostFooter(t) && !IsPiggybackHeader(t) && !IsPiggybackFooter(t)
}

// IsHostFooter reports whether line (after trimming) is exactly "<<<>>>".
func IsHostFooter(line []byte) bool {
	return string(bytes.TrimSpace(line)) == "<<<>>>"
}

// IsPiggybackHeader reports whether line (after trimming) is a piggyback
// header: starts with "<<<<", ends with ">>>>", and is not the bare
// "<<<<>>>>" footer.
func IsPiggybackHeader(line []byte) bool {
	t := bytes.TrimSpace(line)
	return bytes.HasPrefix(t, []byte("<<<<")) && bytes.HasSuffix(t, []byte(">>>>")) &&
		!IsPiggybackFooter(t)
}

// IsPiggybackFooter reports whether line (after trimming) is exactly
// "<<<<>>>>".
func IsPiggybackFooter(line []byte) bool {
	return string(bytes.TrimSpace(line)) == "<<<<>>>>"
}

// ParsePiggybackTarget extracts the raw (unsanitized) target host name from
// a piggyback header line. Caller must have already checked IsPiggybackHeader.
func ParsePiggybackTarget(line []byte) string {
	t := bytes.TrimSpace(line)
	return string(t[4 : len(t)-4])
}

// Parse decodes a host-section header line. Caller must have already
// checked IsHostHeader. The body between "<<<" and ">>>" is split on ":";
// the first token is the section name, the rest are options of the form
// "name(value)". Tokens without "(" are ignored. The last character of
// value must be ")", otherwise Parse returns ErrInvalidHeader.
func Parse(line []byte) (Header, error) {
	t := bytes.TrimSpace(line)
	body := string(t[3 : len(t)-3])
	parts := strings.Split(body, ":")
	if len(parts) == 0 || parts[0] == "" {
		return Header{}, fmt.Errorf("%w: empty section name", ErrInvalidHeader)
	}

	name, err := section.NewName(parts[0])
	if err != nil {
		return Header{}, fmt.Errorf("%w: %s", ErrInvalidHeader, err)
	}

	opts := make(map[string]string, len(parts)-1)
	for _, tok := range parts[1:] {
		idx := strings.Index(tok, "(")
		if idx < 0 {
			continue
		}
		optName, value := tok[:idx], tok[idx+1:]
		if value == "" || value[len(value)-1] != ')' {
			return Header{}, fmt.Errorf("%w: option %q is missing closing parenthesis", ErrInvalidHeader, optName)
		}
		opts[optName] = value[:len(value)-1]
	}

	return Header{Name: name, Options: opts}, nil
}

// Cached returns the (captured_at, interval) pair from a "cached(a,b)"
// option, if present. Extra comma-separated components beyond the first two
// are tolerated and ignored.
func (h Header) Cached() (capturedAt, interval int, ok bool, err error) {
	raw, present := h.Options["cached"]
	if !present {
		return 0, 0, false, nil
	}
	fields := strings.Split(raw, ",")
	if len(fields) < 2 {
		return 0, 0, false, fmt.Errorf("%w: cached option %q needs at least two fields", ErrInvalidHeader, raw)
	}
	capturedAt, err = strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: cached captured_at: %s", ErrInvalidHeader, err)
	}
	interval, err = strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return 0, 0, false, fmt.Errorf("%w: cached interval: %s", ErrInvalidHeader, err)
	}
	return capturedAt, interval, true, nil
}

// Persist returns the valid_until epoch from a "persist(epoch)" option, if
// present.
func (h Header) Persist() (validUntil int, ok bool, err error) {
	raw, present := h.Options["persist"]
	if !present {
		return 0, false, nil
	}
	validUntil, err = strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false, fmt.Errorf("%w: persist: %s", ErrInvalidHeader, err)
	}
	return validUntil, true, nil
}

// Encoding returns the "encoding" option, defaulting to "utf-8".
func (h Header) Encoding() string {
	if v, ok := h.Options["encoding"]; ok && v != "" {
		return v
	}
	return "utf-8"
}

// Separator returns the single-character field separator from a "sep(n)"
// option (n is a byte value), if present.
func (h Header) Separator() (sep byte, ok bool, err error) {
	raw, present := h.Options["sep"]
	if !present {
		return 0, false, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false, fmt.Errorf("%w: sep: %s", ErrInvalidHeader, err)
	}
	return byte(n), true, nil
}

// NoStrip reports whether the "nostrip" option is present.
func (h Header) NoStrip() bool {
	_, ok := h.Options["nostrip"]
	return ok
}

// HasCachedOrPersist reports whether the header's raw option body mentions
// ":cached(" or ":persist(" textually. Used by the piggyback rewrite rule,
// which is a substring check on the original line rather than a parsed
// lookup: this keeps round-trip parsing of rewritten headers stable even if
// the header itself fails to otherwise parse.
func HasCachedOrPersist(line []byte) bool {
	return bytes.Contains(line, []byte(":cached(")) || bytes.Contains(line, []byte(":persist("))
}

// Rewrite embeds (captured_at, cache_age) into a piggybacked inner header as
// a "cached(...)" option, unless the header already carries a "cached(" or
// "persist(" option. orig must be a host-section header line (already
// trimmed).
func Rewrite(orig []byte, capturedAt, cacheAge int) []byte {
	if HasCachedOrPersist(orig) {
		return orig
	}
	body := orig[3 : len(orig)-3]
	return []byte(fmt.Sprintf("<<<%s:cached(%d,%d)>>>", body, capturedAt, cacheAge))
}
