package stringutil

import (
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

var (
	mdEmphasisPrefixRE = regexp.MustCompile("^[*`~_]+")
	mdEmphasisSuffixRE = regexp.MustCompile("[*`~_]+$")
	mdBoldRE           = regexp.MustCompile(`\*\*([^*]+)\*\*`)
)

// StripMarkup removes HTML tags and entities plus surrounding markdown emphasis
// from provider-supplied text, collapsing runs of whitespace.
func StripMarkup(text string) string {
	if strings.ContainsAny(text, "<&") {
		if doc, err := goquery.NewDocumentFromReader(strings.NewReader(text)); err == nil {
			text = doc.Text()
		}
	}
	text = mdBoldRE.ReplaceAllString(text, "$1")
	text = CollapseWhitespace(text)
	text = mdEmphasisPrefixRE.ReplaceAllString(text, "")
	text = mdEmphasisSuffixRE.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// CollapseWhitespace replaces every whitespace run with a single space.
func CollapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}
