package collector

import (
	"html"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// StripHTML turns a possibly entity-escaped HTML fragment into plain text.
// Text nodes are separated by a space so adjacent list items stay distinct
// words; script and style bodies are dropped.
func StripHTML(raw string) string {
	if strings.TrimSpace(raw) == "" {
		return ""
	}
	unescaped := html.UnescapeString(raw)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(unescaped))
	if err != nil {
		return strings.Join(strings.Fields(unescaped), " ")
	}

	var b strings.Builder
	collectText(doc.Find("body"), &b)
	return strings.Join(strings.Fields(b.String()), " ")
}

func collectText(s *goquery.Selection, b *strings.Builder) {
	s.Contents().Each(func(_ int, c *goquery.Selection) {
		switch goquery.NodeName(c) {
		case "#text":
			b.WriteString(c.Text())
			b.WriteByte(' ')
		case "script", "style", "#comment":
		default:
			collectText(c, b)
		}
	})
}
