package papersources

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// CleanText strips markup from upstream text and collapses whitespace.
// Several providers embed HTML or JATS tags (<i>, <sup>, <jats:p>) and
// entities in titles and abstracts.
func CleanText(s string) string {
	if strings.ContainsAny(s, "<&") {
		doc, err := goquery.NewDocumentFromReader(strings.NewReader(s))
		if err == nil {
			s = doc.Text()
		}
	}
	return NormalizeWhitespace(s)
}

// NormalizeWhitespace trims and collapses runs of whitespace, including
// newlines, into single spaces.
func NormalizeWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CleanAuthors cleans every name and drops blanks.
func CleanAuthors(names []string) []string {
	out := make([]string, 0, len(names))
	for _, name := range names {
		if name = CleanText(name); name != "" {
			out = append(out, name)
		}
	}
	return out
}
