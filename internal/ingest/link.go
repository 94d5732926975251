package ingest

import (
	"bytes"
	"fmt"
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// FindDocumentLink scans the publisher page for the current spreadsheet
// attachment and returns its absolute URL.
//
// Two passes, matching how the publisher actually links the file:
//  1. any anchor whose href contains ".xlsx" (case-insensitive)
//  2. fallback: an anchor whose text mentions the sanctions table
//     ("tabela" + "sankcyj"), however the file itself is named
//
// Relative hrefs are resolved against the page URL.
func FindDocumentLink(page []byte, pageURL string) (string, error) {
	base, err := url.Parse(pageURL)
	if err != nil {
		return "", &ParseError{Reason: "invalid page URL", Err: err}
	}

	doc, err := html.Parse(bytes.NewReader(page))
	if err != nil {
		return "", &ParseError{Reason: "invalid page HTML", Err: err}
	}

	var direct, fallback string
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && n.Data == "a" {
			href := attr(n, "href")
			if href != "" {
				if direct == "" && strings.Contains(strings.ToLower(href), ".xlsx") {
					direct = href
				}
				text := strings.ToLower(anchorText(n))
				if fallback == "" && strings.Contains(text, "tabela") && strings.Contains(text, "sankcyj") {
					fallback = href
				}
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	href := direct
	if href == "" {
		href = fallback
	}
	if href == "" {
		return "", &ParseError{Reason: fmt.Sprintf("no document link found on %s", pageURL)}
	}

	ref, err := url.Parse(href)
	if err != nil {
		return "", &ParseError{Reason: fmt.Sprintf("invalid document link %q", href), Err: err}
	}
	return base.ResolveReference(ref).String(), nil
}

// attr returns the value of the named attribute, or "".
func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if a.Key == name {
			return a.Val
		}
	}
	return ""
}

// anchorText collects the visible text under an anchor node.
func anchorText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return strings.TrimSpace(sb.String())
}
