// Package redact strips credential-shaped substrings from text before it is
// persisted anywhere. Redaction is irreversible: each match is replaced by a
// fixed marker that preserves the key name but destroys the value.
//
// Unlike the classifier, redaction fails closed: patterns are deliberately
// broad, and when a rule cannot confirm a substring is safe it redacts
// rather than risk leaking it. Over-redaction costs a little log fidelity;
// under-redaction leaks a secret into an append-only file.
package redact

import "regexp"

// Marker is the fixed replacement for a redacted value.
const Marker = "[REDACTED]"

// rule pairs a pattern with its replacement. Rules are applied in order;
// earlier rules see the original text, later rules see prior replacements.
type rule struct {
	re          *regexp.Regexp
	replacement string
}

var rules = []rule{
	// key=value and key: value credential assignments. The key survives,
	// the value does not.
	{regexp.MustCompile(`(?i)(password)\s*[=:]\s*['"]?[^\s'"]+`), "$1=" + Marker},
	{regexp.MustCompile(`(?i)(token)\s*[=:]\s*['"]?[^\s'"]+`), "$1=" + Marker},
	{regexp.MustCompile(`(?i)(api[_-]?key)\s*[=:]\s*['"]?[^\s'"]+`), "$1=" + Marker},
	{regexp.MustCompile(`(?i)(secret)\s*[=:]\s*['"]?[^\s'"]+`), "$1=" + Marker},

	// Authorization header material.
	{regexp.MustCompile(`(?i)(bearer)\s+[a-zA-Z0-9\-._~+/]+=*`), "$1 " + Marker},

	// PEM blocks and SSH key material.
	{regexp.MustCompile(`-----BEGIN[^-]+-----[^-]+-----END[^-]+-----`), "[REDACTED CERTIFICATE]"},
	{regexp.MustCompile(`ssh-(rsa|ed25519|dss)\s+\S+`), "ssh-$1 " + Marker},

	// Paths that reference secret-store locations. The whole path goes:
	// even the filename of a key can identify the key.
	{regexp.MustCompile(`/home/[^/\s]+/\.ssh/\S+`), "/home/[USER]/.ssh/" + Marker},
	{regexp.MustCompile(`\S*/\.env(\.[a-zA-Z0-9._-]+)?\b`), "[REDACTED ENV FILE]"},
	{regexp.MustCompile(`(?i)\S*/secrets?(/\S*)?`), "[REDACTED SECRETS PATH]"},
}

// Sanitize applies every redaction rule in order and returns the result.
// The empty string passes through unchanged.
func Sanitize(text string) string {
	if text == "" {
		return text
	}
	for _, r := range rules {
		text = r.re.ReplaceAllString(text, r.replacement)
	}
	return text
}

// Clean reports whether text contains no redactable material, i.e. whether
// Sanitize would return it unchanged.
func Clean(text string) bool {
	return Sanitize(text) == text
}
