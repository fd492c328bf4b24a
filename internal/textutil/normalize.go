package textutil

import (
	"regexp"
	"strings"
)

// Field length limits enforced by the archive service.
const (
	MaxTitleLen    = 255
	MaxSubtitleLen = 600
	MaxContentLen  = 2000
	MaxSlugLen     = 1200
)

const ellipsis = "..."

var (
	allWhitespaceRe   = regexp.MustCompile(`\s+`)
	horizWhitespaceRe = regexp.MustCompile(`[ \t]+`)
	newlineRunsRe     = regexp.MustCompile(`\n{3,}`)
	slugInvalidRe     = regexp.MustCompile(`[^a-zA-Z0-9\-_]+`)
)

// Truncate cuts s to at most max runes, replacing the tail with "..." so the
// result is exactly max runes long when truncation happens.
func Truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-len(ellipsis)]) + ellipsis
}

// truncateHard cuts without an ellipsis marker (slugs).
func truncateHard(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max])
}

// collapseInline collapses all whitespace, newlines included, to single
// spaces. Used for single-line fields.
func collapseInline(s string) string {
	return strings.TrimSpace(allWhitespaceRe.ReplaceAllString(s, " "))
}

// NormalizeTitle collapses whitespace and truncates to the title limit.
func NormalizeTitle(s string) string {
	if s == "" {
		return s
	}
	return Truncate(collapseInline(s), MaxTitleLen)
}

// NormalizeSubtitle collapses whitespace and truncates to the subtitle limit.
func NormalizeSubtitle(s string) string {
	if s == "" {
		return s
	}
	return Truncate(collapseInline(s), MaxSubtitleLen)
}

// NormalizeContent collapses horizontal whitespace runs and squeezes runs of
// three or more newlines down to a paragraph break, preserving layout, then
// truncates to the content limit.
func NormalizeContent(s string) string {
	if s == "" {
		return s
	}
	s = horizWhitespaceRe.ReplaceAllString(s, " ")
	s = newlineRunsRe.ReplaceAllString(s, "\n\n")
	return Truncate(strings.TrimSpace(s), MaxContentLen)
}

// NormalizeSlug turns a title into a URL-safe slug: whitespace collapsed,
// every run outside [a-zA-Z0-9_-] replaced with a single hyphen, lowercased,
// hard-truncated to the slug limit.
func NormalizeSlug(s string) string {
	if s == "" {
		return s
	}
	s = collapseInline(s)
	s = slugInvalidRe.ReplaceAllString(s, "-")
	return truncateHard(strings.ToLower(s), MaxSlugLen)
}
