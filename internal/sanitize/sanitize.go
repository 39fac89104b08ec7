// Package sanitize provides the field-class text sanitation hooks used by
// the audit log writer. Callers may swap in their own implementation; the
// default covers the three classes the log schema distinguishes.
package sanitize

import (
	"regexp"
	"strings"
)

// Sanitizer cleans text per field class before it is persisted.
type Sanitizer interface {
	// Latin restricts a value to a latin identifier charset; used for
	// action, method and username fields.
	Latin(value string) string

	// Text strips markup and control characters from free text; used for
	// person and chat name fields.
	Text(value string) string

	// RichText strips markup except a constrained tag subset; used for
	// content, error and attachment fields.
	RichText(value string) string
}

var (
	latinAllowed = regexp.MustCompile(`[^a-zA-Z0-9_@.\-]+`)
	anyTag       = regexp.MustCompile(`<[^>]*>`)
	// Tags Telegram accepts in HTML-formatted message text.
	richTag = regexp.MustCompile(`(?i)</?(b|i|a|code|pre)(\s[^>]*)?>`)
)

// Default is the stock Sanitizer implementation.
type Default struct{}

// NewDefault returns the stock sanitizer.
func NewDefault() Default {
	return Default{}
}

// Latin drops every character outside [a-zA-Z0-9_@.-] and trims the result.
func (Default) Latin(value string) string {
	return strings.TrimSpace(latinAllowed.ReplaceAllString(value, ""))
}

// Text removes all markup and control characters.
func (Default) Text(value string) string {
	return strings.TrimSpace(stripControl(anyTag.ReplaceAllString(value, "")))
}

// RichText removes control characters and every tag not in the allowed
// subset (b, i, a, code, pre).
func (Default) RichText(value string) string {
	cleaned := anyTag.ReplaceAllStringFunc(value, func(tag string) string {
		if richTag.MatchString(tag) {
			return tag
		}
		return ""
	})

	return strings.TrimSpace(stripControl(cleaned))
}

func stripControl(value string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, value)
}
