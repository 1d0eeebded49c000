package chunker

import (
	"regexp"
	"strings"
)

var (
	// Characters outside this whitelist are replaced with spaces before
	// whitespace collapsing. Word characters, common punctuation and
	// brackets survive.
	disallowedRe = regexp.MustCompile(`[^\p{L}\p{N}_\s.,;:!?\-()\[\]{}'"/]`)
	whitespaceRe = regexp.MustCompile(`\s+`)
)

// CleanText normalizes extracted text for storage and embedding: drops
// characters outside the whitelist, collapses whitespace runs to a single
// space and trims. CleanText is idempotent.
func CleanText(text string) string {
	text = disallowedRe.ReplaceAllString(text, " ")
	text = whitespaceRe.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}
