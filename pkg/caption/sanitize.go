package caption

import (
	"regexp"
	"strings"
)

var (
	boldRe    = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe  = regexp.MustCompile(`\*(.*?)\*`)
	labelRe   = regexp.MustCompile(`^(?:Panel|Scene)\s*\d+\s*(?:\([^)]*\))?\s*[:.\-]?\s*`)
	asideRe   = regexp.MustCompile(`\([^)]*\)`)
	spaceRe   = regexp.MustCompile(`\s+`)
	leadQuote = regexp.MustCompile(`^["']\s*`)
	tailQuote = regexp.MustCompile(`\s*["']$`)
)

// Sanitize strips generation artifacts from one caption: markdown
// emphasis, leading panel or scene labels, parenthetical asides, and
// enclosing quotes, then collapses whitespace. It is idempotent, so
// captions can safely pass through it more than once.
func Sanitize(text string) string {
	s := text
	// Run to a fixed point: stripping one layer can expose another
	// (nested quotes, emphasis inside an aside). Every rule only removes
	// characters, so any changed pass shrinks the string and the loop
	// terminates.
	for {
		next := sanitizeOnce(s)
		if next == s {
			return s
		}
		s = next
	}
}

func sanitizeOnce(s string) string {
	s = boldRe.ReplaceAllString(s, "$1")
	s = italicRe.ReplaceAllString(s, "$1")
	s = labelRe.ReplaceAllString(s, "")
	s = asideRe.ReplaceAllString(s, "")
	s = leadQuote.ReplaceAllString(s, "")
	s = tailQuote.ReplaceAllString(s, "")
	s = spaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}
