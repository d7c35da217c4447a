package render

import (
	"fmt"
	"io"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"ai-scorecard/backend/internal/report"
)

// MaxHTMLBytes is the size above which rendering is likely to be slow.
const MaxHTMLBytes = 5 * 1024 * 1024

// ValidateHTML checks a document before it is sent for PDF conversion. Only
// empty input is an error; everything else is advisory.
func ValidateHTML(doc string) report.Validation {
	v := report.Validation{Errors: []string{}, Warnings: []string{}}
	if strings.TrimSpace(doc) == "" {
		v.Errors = append(v.Errors, "HTML content is empty")
		return v
	}

	var hasHTML, hasHead, hasBody, hasStyle, hasScript bool
	external := 0
	z := html.NewTokenizer(strings.NewReader(doc))
scan:
	for {
		switch z.Next() {
		case html.ErrorToken:
			if z.Err() != io.EOF {
				v.Warnings = append(v.Warnings, fmt.Sprintf("HTML could not be fully tokenized: %v", z.Err()))
			}
			break scan
		case html.StartTagToken, html.SelfClosingTagToken:
			tok := z.Token()
			switch tok.DataAtom {
			case atom.Html:
				hasHTML = true
			case atom.Head:
				hasHead = true
			case atom.Body:
				hasBody = true
			case atom.Style:
				hasStyle = true
			case atom.Script:
				hasScript = true
			case atom.Link:
				if attr(tok, "rel") == "stylesheet" {
					hasStyle = true
				}
			}
			for _, a := range tok.Attr {
				value := strings.ToLower(strings.TrimSpace(a.Val))
				if strings.HasPrefix(value, "javascript:") {
					hasScript = true
				}
				if a.Key == "src" && (strings.HasPrefix(value, "http://") || strings.HasPrefix(value, "https://")) {
					external++
				}
			}
		}
	}

	if !hasHTML {
		v.Warnings = append(v.Warnings, "HTML content may be missing proper document structure")
	}
	if !hasHead {
		v.Warnings = append(v.Warnings, "HTML content may be missing head section")
	}
	if !hasBody {
		v.Warnings = append(v.Warnings, "HTML content may be missing body section")
	}
	if !hasStyle {
		v.Warnings = append(v.Warnings, "HTML content may be missing CSS styles")
	}
	if len(doc) > MaxHTMLBytes {
		v.Warnings = append(v.Warnings, "HTML content is very large and may cause performance issues")
	}
	if hasScript {
		v.Warnings = append(v.Warnings, "HTML content contains JavaScript which may not render properly in PDF")
	}
	if external > 0 {
		v.Warnings = append(v.Warnings, fmt.Sprintf("HTML content references %d external resources which may not load in PDF", external))
	}
	v.Valid = true
	return v
}

func attr(tok html.Token, key string) string {
	for _, a := range tok.Attr {
		if a.Key == key {
			return strings.ToLower(strings.TrimSpace(a.Val))
		}
	}
	return ""
}
