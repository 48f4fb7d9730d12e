package clients

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// HTMLText flattens status HTML into plain text. Paragraphs and <br> become
// newlines. Input that fails to parse is returned unchanged.
func HTMLText(fragment string) string {
	if !strings.Contains(fragment, "<") {
		return strings.TrimSpace(fragment)
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	doc.Find("br").ReplaceWithHtml("\n")
	var parts []string
	paras := doc.Find("p")
	if paras.Length() == 0 {
		parts = append(parts, doc.Text())
	} else {
		paras.Each(func(_ int, s *goquery.Selection) {
			parts = append(parts, s.Text())
		})
	}
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}
