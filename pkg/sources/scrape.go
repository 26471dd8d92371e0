package sources

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"golang.org/x/net/html"
)

// ElementSelector names an HTML element to pull text from: a tag name plus
// the attribute values the element must carry. An empty attribute map
// matches every element with that tag.
type ElementSelector struct {
	Tag        string            `json:"tag"`
	Attributes map[string]string `json:"attributes,omitempty"`
}

// Scraper fetches web pages and extracts the text content of selected
// elements, for feeding arbitrary pages into the corpus.
type Scraper struct {
	client *http.Client
	logger *slog.Logger
}

// NewScraper creates a scraper. A nil client falls back to
// http.DefaultClient; a nil logger discards all logs.
func NewScraper(client *http.Client, logger *slog.Logger) *Scraper {
	if client == nil {
		client = http.DefaultClient
	}
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Scraper{client: client, logger: logger}
}

// Scrape fetches one URL and returns the flattened text of every element
// matching any of the selectors, in document order. Matched elements are
// not descended into, so nested matches don't produce duplicates.
func (s *Scraper) Scrape(ctx context.Context, url string, selectors []ElementSelector) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("could not build request for %s: %w", url, err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not fetch %s: %w", url, err)
	}
	defer func(body io.ReadCloser) {
		_ = body.Close()
	}(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %s fetching %s", resp.Status, url)
	}

	root, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("could not parse %s: %w", url, err)
	}

	var texts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode && matchesAny(n, selectors) {
			if text := strings.TrimSpace(flatten(n)); text != "" {
				texts = append(texts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(root)

	s.logger.Debug("Scraped page", "url", url, "elements_matched", len(texts))
	return texts, nil
}

func matchesAny(n *html.Node, selectors []ElementSelector) bool {
	for _, sel := range selectors {
		if matches(n, sel) {
			return true
		}
	}
	return false
}

func matches(n *html.Node, sel ElementSelector) bool {
	if n.Data != sel.Tag {
		return false
	}
	for key, want := range sel.Attributes {
		if attrValue(n, key) != want {
			return false
		}
	}
	return true
}

func attrValue(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// FlattenHTML parses an HTML fragment and returns its text content with
// block boundaries turned into spaces. Used for platform APIs that deliver
// post bodies as HTML. Unparseable input is returned as-is.
func FlattenHTML(fragment string) string {
	root, err := html.Parse(strings.NewReader(fragment))
	if err != nil {
		return fragment
	}
	return strings.Join(strings.Fields(flatten(root)), " ")
}

// flatten concatenates the text of a node's subtree, inserting a space at
// paragraph and line-break boundaries so words don't run together.
func flatten(n *html.Node) string {
	var sb strings.Builder
	var visit func(n *html.Node)
	visit = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
			return
		}
		if n.Type == html.ElementNode && (n.Data == "br" || n.Data == "p" || n.Data == "div") {
			sb.WriteByte(' ')
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			visit(c)
		}
	}
	visit(n)
	return sb.String()
}
