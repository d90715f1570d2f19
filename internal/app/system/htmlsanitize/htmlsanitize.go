// Package htmlsanitize cleans user-supplied text before it is stored.
//
// Room descriptions may carry light formatting and go through Sanitize.
// Chat messages, link names and task text are plain text and go through
// Text, which strips every tag.
package htmlsanitize

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

var (
	ugc    = bluemonday.UGCPolicy()
	strict = bluemonday.StrictPolicy()
)

// Sanitize keeps safe formatting markup and removes scripts, event
// handlers and javascript: URLs.
func Sanitize(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(ugc.Sanitize(s))
}

// Text removes all markup. The result is plain text, not HTML: entities
// produced by the policy are decoded again.
func Text(s string) string {
	if s == "" {
		return ""
	}
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(s)))
}
