package extract

import (
	"regexp"
	"strings"

	"golang.org/x/net/html"
)

// Doc wraps a parsed HTML document with the lookups extractors need.
type Doc struct {
	root *html.Node
}

// ParseHTML parses page source leniently; it only fails on truly unreadable
// input, not on malformed markup.
func ParseHTML(src string) (*Doc, error) {
	root, err := html.Parse(strings.NewReader(src))
	if err != nil {
		return nil, err
	}
	return &Doc{root: root}, nil
}

func attr(n *html.Node, name string) string {
	for _, a := range n.Attr {
		if strings.EqualFold(a.Key, name) {
			return a.Val
		}
	}
	return ""
}

func (d *Doc) walk(fn func(n *html.Node) bool) {
	var visit func(n *html.Node) bool
	visit = func(n *html.Node) bool {
		if !fn(n) {
			return false
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if !visit(c) {
				return false
			}
		}
		return true
	}
	visit(d.root)
}

// MetaProperty returns the content of <meta property="name">, e.g. og:title.
func (d *Doc) MetaProperty(name string) string {
	return d.meta("property", name)
}

// MetaName returns the content of <meta name="name">.
func (d *Doc) MetaName(name string) string {
	return d.meta("name", name)
}

func (d *Doc) meta(key, value string) string {
	var content string
	d.walk(func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "meta" &&
			strings.EqualFold(attr(n, key), value) {
			if c := strings.TrimSpace(attr(n, "content")); c != "" {
				content = c
				return false
			}
		}
		return true
	})
	return content
}

// Title returns the trimmed text of the document <title>.
func (d *Doc) Title() string {
	var title string
	d.walk(func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "title" {
			title = strings.TrimSpace(nodeText(n))
			return false
		}
		return true
	})
	return title
}

// JSONLD returns the raw contents of every ld+json script block.
func (d *Doc) JSONLD() []string {
	var blocks []string
	d.walk(func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.Data == "script" &&
			strings.EqualFold(attr(n, "type"), "application/ld+json") {
			if n.FirstChild != nil {
				blocks = append(blocks, n.FirstChild.Data)
			}
		}
		return true
	})
	return blocks
}

var contentClassRe = regexp.MustCompile(`(?i)content|article|post`)

// FirstParagraphs returns the text of the first limit <p> elements inside
// the page's main content region: <main>, <article>, or the first element
// whose class mentions content/article/post; failing those, the whole
// document. Script and style subtrees are skipped.
func (d *Doc) FirstParagraphs(limit int) []string {
	scope := d.contentScope()
	var paras []string
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if len(paras) >= limit {
			return
		}
		if n.Type == html.ElementNode && (n.Data == "script" || n.Data == "style") {
			return
		}
		if n.Type == html.ElementNode && n.Data == "p" {
			if text := strings.TrimSpace(nodeText(n)); text != "" {
				paras = append(paras, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(scope)
	return paras
}

func (d *Doc) contentScope() *html.Node {
	var scope *html.Node
	d.walk(func(n *html.Node) bool {
		if n.Type != html.ElementNode {
			return true
		}
		switch {
		case n.Data == "main" || n.Data == "article":
			scope = n
			return false
		case scope == nil && contentClassRe.MatchString(attr(n, "class")):
			scope = n
		}
		return true
	})
	if scope == nil {
		return d.root
	}
	return scope
}

// AnchorMatch is one predicate in an anchor search.
type AnchorMatch func(n *html.Node) bool

// AnchorHrefContains matches <a> whose href contains substr.
func AnchorHrefContains(substr string) AnchorMatch {
	return func(n *html.Node) bool {
		return strings.Contains(attr(n, "href"), substr)
	}
}

// AnchorAttrEquals matches <a> carrying attribute key=value.
func AnchorAttrEquals(key, value string) AnchorMatch {
	return func(n *html.Node) bool {
		return attr(n, key) == value
	}
}

var anchorSelectorRe = regexp.MustCompile(`\[([a-zA-Z-]+)(\*?)="([^"]+)"\]`)

// CompileAnchorSelectors turns selector strings of the shape
// `a[href*="x"]` or `tag a[attr="x"]` into anchor matchers, keeping order.
// Selectors without a recognizable attribute test are skipped.
func CompileAnchorSelectors(selectors []string) []AnchorMatch {
	var matchers []AnchorMatch
	for _, sel := range selectors {
		m := anchorSelectorRe.FindStringSubmatch(sel)
		if m == nil {
			continue
		}
		if m[2] == "*" {
			if m[1] == "href" {
				matchers = append(matchers, AnchorHrefContains(m[3]))
			}
			continue
		}
		matchers = append(matchers, AnchorAttrEquals(m[1], m[3]))
	}
	return matchers
}

// FindAnchor tries each matcher in order and returns the href of the first
// matching <a> with a non-empty href, or "".
func (d *Doc) FindAnchor(matchers ...AnchorMatch) string {
	for _, match := range matchers {
		var href string
		d.walk(func(n *html.Node) bool {
			if n.Type == html.ElementNode && n.Data == "a" && match(n) {
				if h := attr(n, "href"); h != "" {
					href = h
					return false
				}
			}
			return true
		})
		if href != "" {
			return href
		}
	}
	return ""
}

func nodeText(n *html.Node) string {
	var b strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
