package markdown

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
)

// Excerpt flattens rendered HTML to whitespace-collapsed text of at most maxRunes runes.
func Excerpt(rendered string, maxRunes int) string {
	node, err := html.Parse(strings.NewReader(rendered))
	if err != nil {
		return ""
	}
	var builder strings.Builder
	collectText(node, &builder)

	text := strings.Join(strings.Fields(builder.String()), " ")
	if maxRunes <= 0 || utf8.RuneCountInString(text) <= maxRunes {
		return text
	}
	runes := []rune(text)
	return strings.TrimSpace(string(runes[:maxRunes])) + "..."
}

func collectText(node *html.Node, builder *strings.Builder) {
	if node.Type == html.TextNode {
		builder.WriteString(node.Data)
	}
	for c := node.FirstChild; c != nil; c = c.NextSibling {
		collectText(c, builder)
	}
	if node.Type == html.ElementNode {
		switch node.Data {
		case "p", "li", "pre", "h1", "h2", "h3", "h4", "br", "td":
			builder.WriteByte(' ')
		}
	}
}
