package textutil

import (
	"regexp"
	"sort"
	"strings"
)

var (
	headingRe = regexp.MustCompile(`^(#{1,3})\s+(.+)$`)
	subtextRe = regexp.MustCompile(`^-#\s+`)

	codeFenceRe     = regexp.MustCompile("(?s)```.*?```")
	inlineCodeRe    = regexp.MustCompile("`([^`]+)`")
	spoilerRe       = regexp.MustCompile(`(?s)\|\|(.+?)\|\|`)
	strikethroughRe = regexp.MustCompile(`(?s)~~(.+?)~~`)
	blockQuoteRe    = regexp.MustCompile(`(?m)^>>?>?\s*`)
	maskedLinkRe    = regexp.MustCompile(`\[([^\]]+)\]\([^)]+\)`)

	boldItalicStarRe  = regexp.MustCompile(`(?s)\*\*\*(.+?)\*\*\*`)
	boldItalicUnderRe = regexp.MustCompile(`(?s)___(.+?)___`)
	boldRe            = regexp.MustCompile(`(?s)\*\*([^*]+)\*\*`)
	underlineRe       = regexp.MustCompile(`(?s)__([^_]+)__`)
	italicStarRe      = regexp.MustCompile(`(?s)\*([^*]+)\*`)
	italicUnderRe     = regexp.MustCompile(`(?s)_([^_]+)_`)

	escapeRe = regexp.MustCompile("\\\\([*_~`|>\\\\\\[\\]])")
)

// UntitledFallback is the title used when no source produces one.
const UntitledFallback = "Untitled"

type heading struct {
	level int
	text  string
	line  int
}

// ParseHeadings extracts a title and subtitle from markdown-style headings
// and returns the body with heading and subtext lines removed.
//
// The title is the heading with the lowest level, tie broken by first
// occurrence. The subtitle is the next heading in that order whose level
// differs from the title's. Chat formatting (bold, spoilers, masked links,
// escapes and so on) is stripped from heading text only; the body keeps its
// original formatting.
func ParseHeadings(content string) (title, subtitle, body string) {
	if content == "" {
		return UntitledFallback, "", ""
	}

	lines := strings.Split(content, "\n")
	var headings []heading
	for i, line := range lines {
		m := headingRe.FindStringSubmatch(strings.TrimSpace(line))
		if m == nil {
			continue
		}
		headings = append(headings, heading{
			level: len(m[1]),
			text:  StripChatFormatting(strings.TrimSpace(m[2])),
			line:  i,
		})
	}

	if len(headings) > 0 {
		sort.SliceStable(headings, func(a, b int) bool {
			return headings[a].level < headings[b].level
		})
		title = headings[0].text
		if len(headings) > 1 && headings[1].level != headings[0].level {
			subtitle = headings[1].text
		}
	}

	var kept []string
	for _, line := range lines {
		stripped := strings.TrimSpace(line)
		if headingRe.MatchString(stripped) || subtextRe.MatchString(stripped) {
			continue
		}
		kept = append(kept, line)
	}
	body = strings.TrimSpace(strings.Join(kept, "\n"))

	if title == "" {
		title = UntitledFallback
	}
	return title, subtitle, body
}

// StripChatFormatting removes Discord-style markdown markers while keeping
// the text they wrap: code fences and inline code, spoilers, strikethrough,
// block quote leaders, masked links, and up to five passes of nested
// bold/italic/underline markers, followed by backslash unescaping.
func StripChatFormatting(text string) string {
	if text == "" {
		return text
	}

	text = codeFenceRe.ReplaceAllStringFunc(text, func(block string) string {
		return strings.TrimSpace(strings.ReplaceAll(block, "```", ""))
	})
	text = inlineCodeRe.ReplaceAllString(text, "$1")
	text = spoilerRe.ReplaceAllString(text, "$1")
	text = strikethroughRe.ReplaceAllString(text, "$1")
	text = blockQuoteRe.ReplaceAllString(text, "")
	text = maskedLinkRe.ReplaceAllString(text, "$1")

	// Emphasis markers nest, so strip repeatedly until stable.
	for i := 0; i < 5; i++ {
		before := text
		text = boldItalicStarRe.ReplaceAllString(text, "$1")
		text = boldItalicUnderRe.ReplaceAllString(text, "$1")
		text = boldRe.ReplaceAllString(text, "$1")
		text = underlineRe.ReplaceAllString(text, "$1")
		text = italicStarRe.ReplaceAllString(text, "$1")
		text = italicUnderRe.ReplaceAllString(text, "$1")
		if text == before {
			break
		}
	}

	text = escapeRe.ReplaceAllString(text, "$1")
	return strings.TrimSpace(text)
}
