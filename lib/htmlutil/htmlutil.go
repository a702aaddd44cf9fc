package htmlutil

import (
	"bytes"
	"net/url"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

func GetText(node *html.Node) string {
	var buffer bytes.Buffer
	getTextRecursive(node, &buffer)
	return buffer.String()
}

func getTextRecursive(node *html.Node, buffer *bytes.Buffer) {
	if node == nil {
		return
	}
	if node.Type == html.TextNode {
		buffer.WriteString(node.Data)
		return
	}
	child := node.FirstChild
	for child != nil {
		getTextRecursive(child, buffer)
		child = child.NextSibling
	}
}

func removeNonPrintable(s string) string {
	newStr := strings.Builder{}
	for _, c := range s {
		if unicode.IsPrint(c) {
			newStr.WriteRune(c)
		}
	}
	return newStr.String()
}

func CleanText(s string) string {
	return strings.TrimSpace(removeNonPrintable(s))
}

type Anchor struct {
	Name string
	Href string
}

// FirstAnchor returns the first anchor under sel whose href parses as
// a url, or a zero Anchor if there is none.
func FirstAnchor(sel *goquery.Selection) Anchor {
	for _, n := range sel.Nodes {
		href := ""
		for _, a := range n.Attr {
			if a.Key == "href" {
				href = a.Val
				break
			}
		}
		link, err := url.Parse(href)
		if err != nil {
			continue
		}
		return Anchor{
			Name: CleanText(GetText(n)),
			Href: link.String(),
		}
	}
	return Anchor{}
}
