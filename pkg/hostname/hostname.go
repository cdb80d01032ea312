// Package hostname sanitizes host names received from piggyback headers so
// that downstream consumers never see characters outside the allowed
// host-name alphabet.
package hostname

import (
	"regexp"

	"github.com/morph027/checkmk/pkg/section"
)

// invalidChars matches any character outside the allowed host-name alphabet:
// letters, digits, dot, hyphen and underscore. Unlike DNS label sanitization
// this keeps dots, since piggybacked host names are frequently FQDNs.
var invalidChars = regexp.MustCompile(`[^A-Za-z0-9_.\-]`)

// Sanitize replaces every character outside the allowed alphabet with "_".
// The substitution is total: every input string produces a valid Host.
func Sanitize(raw string) section.Host {
	return section.Host(invalidChars.ReplaceAllString(raw, "_"))
}
