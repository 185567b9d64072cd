package crawler

import (
	"io"
	"net/url"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"github.com/wirefeed-dev/wirefeed/internal/model"
)

// ListingPage holds what the walker needs from one listing page: the item
// links it references and the explicit next-page reference, if any.
type ListingPage struct {
	// ItemURLs are the normalized absolute URLs matching the item shape,
	// in document order, deduplicated within the page.
	ItemURLs []string

	// NextURL is the normalized absolute URL of an explicit "next"
	// relation, or empty when the page declares none.
	NextURL string
}

// listingParser extracts item links from listing markup.
//
// We parse with x/net/html rather than matching raw markup because the
// tokenizer survives the malformed HTML these listings routinely serve;
// the item-URL *shape* is still a fixed structural pattern applied to each
// resolved href, not a semantic reading of the page.
type listingParser struct {
	base        *url.URL
	itemPattern *regexp.Regexp
}

// newListingParser creates a parser for pages under baseURL whose item
// links match itemPattern.
func newListingParser(baseURL string, itemPattern *regexp.Regexp) (*listingParser, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, err
	}
	return &listingParser{base: u, itemPattern: itemPattern}, nil
}

// parse reads listing markup and collects item links and the next-page
// reference.
func (p *listingParser) parse(content io.Reader) (*ListingPage, error) {
	doc, err := html.Parse(content)
	if err != nil {
		return nil, err
	}

	page := &ListingPage{ItemURLs: make([]string, 0)}
	seen := make(map[string]bool)

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "a":
				p.processAnchor(n, page, seen)
			case "link":
				// <link rel="next" href="..."> in the document head
				if relContains(getAttr(n, "rel"), "next") {
					p.setNext(page, getAttr(n, "href"))
				}
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	return page, nil
}

// processAnchor classifies a single anchor as an item link, a next-page
// reference, or noise.
func (p *listingParser) processAnchor(n *html.Node, page *ListingPage, seen map[string]bool) {
	href := getAttr(n, "href")
	if href == "" {
		return
	}

	if p.isNextAnchor(n) {
		p.setNext(page, href)
		return
	}

	normalized, err := model.NormalizeURL(href, p.base)
	if err != nil {
		return
	}
	if !p.itemPattern.MatchString(normalized) {
		return
	}
	if seen[normalized] {
		return
	}
	seen[normalized] = true
	page.ItemURLs = append(page.ItemURLs, normalized)
}

// isNextAnchor reports whether the anchor declares itself a next-page
// reference via rel, class, or visible label.
func (p *listingParser) isNextAnchor(n *html.Node) bool {
	if relContains(getAttr(n, "rel"), "next") {
		return true
	}
	if strings.Contains(strings.ToLower(getAttr(n, "class")), "next") {
		return true
	}

	label := strings.ToLower(strings.TrimSpace(anchorText(n)))
	switch label {
	case "next", "next »", "next ›", "»", "›", "next page":
		return true
	}
	return false
}

// setNext records the first next-page reference found on the page.
func (p *listingParser) setNext(page *ListingPage, href string) {
	if page.NextURL != "" || href == "" {
		return
	}
	normalized, err := model.NormalizeURL(href, p.base)
	if err != nil {
		return
	}
	page.NextURL = normalized
}

// relContains reports whether token appears in rel, which is a
// space-separated token list ("nofollow next" declares both).
func relContains(rel, token string) bool {
	for _, t := range strings.Fields(rel) {
		if strings.EqualFold(t, token) {
			return true
		}
	}
	return false
}

// anchorText returns the concatenated text content of an anchor node.
func anchorText(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(c *html.Node) {
		if c.Type == html.TextNode {
			sb.WriteString(c.Data)
		}
		for child := c.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(n)
	return sb.String()
}

// getAttr returns the value of the named attribute, or empty string.
func getAttr(n *html.Node, name string) string {
	for _, attr := range n.Attr {
		if strings.EqualFold(attr.Key, name) {
			return attr.Val
		}
	}
	return ""
}
