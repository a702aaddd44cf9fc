package htmlutil

import (
	"strings"
	"testing"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/require"
)

const fragment = `
<div id="content">
	<p>hello <b>world</b></p>
	<a href="/animal?animalid=42">Mittens</a>
</div>`

func TestGetText(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	require.NoError(t, err)

	sel := doc.Find("p")
	require.Len(t, sel.Nodes, 1)
	require.Equal(t, "hello world", GetText(sel.Nodes[0]))
}

func TestCleanText(t *testing.T) {
	require.Equal(t, "hello world", CleanText("  hello world \n"))
}

func TestFirstAnchor(t *testing.T) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(fragment))
	require.NoError(t, err)

	anchor := FirstAnchor(doc.Find("a"))
	require.Equal(t, "Mittens", anchor.Name)
	require.Equal(t, "/animal?animalid=42", anchor.Href)

	require.Equal(t, Anchor{}, FirstAnchor(doc.Find("span")))
}
