package render

import (
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// ActionItem is a numbered step recovered from rendered plan HTML.
type ActionItem struct {
	Title  string   `json:"title"`
	Points []string `json:"points"`
}

// ParseActionItems walks every ordered list in the fragment. Each item's
// title is the text before the first colon; nested bullet lists become
// points, otherwise the text after the colon does. Items without points are
// dropped.
func ParseActionItems(fragment string) []ActionItem {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return nil
	}
	var items []ActionItem
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.DataAtom == atom.Ol {
			index := 0
			for li := n.FirstChild; li != nil; li = li.NextSibling {
				if li.Type != html.ElementNode || li.DataAtom != atom.Li {
					continue
				}
				index++
				if item, ok := actionFromItem(li, index); ok {
					items = append(items, item)
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)
	return items
}

func actionFromItem(li *html.Node, index int) (ActionItem, bool) {
	var own strings.Builder
	var points []string
	for c := li.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode && c.DataAtom == atom.Ul {
			for sub := c.FirstChild; sub != nil; sub = sub.NextSibling {
				if sub.Type == html.ElementNode && sub.DataAtom == atom.Li {
					if text := collapse(textOf(sub)); text != "" {
						points = append(points, text)
					}
				}
			}
			continue
		}
		own.WriteString(textOf(c))
		own.WriteString(" ")
	}

	text := collapse(own.String())
	title := fmt.Sprintf("Action %d", index)
	rest := text
	if idx := strings.Index(text, ":"); idx >= 0 {
		title = strings.TrimSpace(text[:idx])
		rest = strings.TrimSpace(text[idx+1:])
	} else {
		rest = ""
	}
	if len(points) == 0 && rest != "" {
		points = []string{rest}
	}
	if len(points) == 0 {
		return ActionItem{}, false
	}
	return ActionItem{Title: title, Points: points}, true
}

func textOf(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var b strings.Builder
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		b.WriteString(textOf(c))
	}
	return b.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
