// Package fetch retrieves articles for evaluation.
//
// It handles fetching a page over HTTP, extracting the headline and body text
// from the HTML, and listing article URLs from RSS/Atom feeds for batch and
// corpus work. Extraction is heuristic on purpose: og:title then <title> then
// the first <h1> for the headline, <article> paragraphs then all paragraphs
// for the body.
package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const userAgent = "Baitline/1.0 (https://github.com/abelbrown/baitline)"

// Article is one fetched document, ready for the pipeline.
type Article struct {
	// ID is a deterministic short hash of the URL.
	ID       string
	URL      string
	Headline string
	// BodyText may be empty. An empty body is a valid, scoreable document;
	// the pipeline treats it as maximum-divergence evidence downstream.
	BodyText  string
	Retrieved time.Time
}

// Fetcher retrieves and parses articles.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a Fetcher with the given HTTP timeout.
func NewFetcher(timeout time.Duration) *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: timeout},
	}
}

// Fetch retrieves one article by URL and extracts its headline and body.
// A page with no extractable headline is an error; a page with no extractable
// body is not.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Article, error) {
	if ctx.Err() != nil {
		return Article{}, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Article{}, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return Article{}, fmt.Errorf("failed to fetch article: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Article{}, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return Article{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return extract(doc, url)
}

// ReadFile parses a local HTML file as an article. Useful for scoring saved
// pages and for fixtures.
func ReadFile(path string) (Article, error) {
	file, err := os.Open(path)
	if err != nil {
		return Article{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	doc, err := goquery.NewDocumentFromReader(file)
	if err != nil {
		return Article{}, fmt.Errorf("failed to parse HTML: %w", err)
	}

	return extract(doc, "file://"+path)
}

// FetchFeed lists article URLs from an RSS/Atom feed, newest first as the
// feed orders them. Entries without a link are skipped.
func (f *Fetcher) FetchFeed(ctx context.Context, feedURL string) ([]string, error) {
	if ctx.Err() != nil {
		return nil, ctx.Err()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d %s", resp.StatusCode, resp.Status)
	}

	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed: %w", err)
	}

	urls := make([]string, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item.Link != "" {
			urls = append(urls, item.Link)
		}
	}
	return urls, nil
}

// extract pulls headline and body text out of a parsed document.
func extract(doc *goquery.Document, url string) (Article, error) {
	headline := strings.TrimSpace(doc.Find(`meta[property="og:title"]`).AttrOr("content", ""))
	if headline == "" {
		headline = strings.TrimSpace(doc.Find("title").First().Text())
	}
	if headline == "" {
		headline = strings.TrimSpace(doc.Find("h1").First().Text())
	}
	if headline == "" {
		return Article{}, fmt.Errorf("no headline found at %s", url)
	}

	body := paragraphText(doc.Find("article p"))
	if body == "" {
		body = paragraphText(doc.Find("p"))
	}

	return Article{
		ID:        hashString(url),
		URL:       url,
		Headline:  headline,
		BodyText:  body,
		Retrieved: time.Now(),
	}, nil
}

// paragraphText joins the text of a paragraph selection with newlines,
// dropping empty paragraphs.
func paragraphText(sel *goquery.Selection) string {
	var parts []string
	sel.Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})
	return strings.Join(parts, "\n")
}

// hashString creates a short hash of a string for use as an ID.
func hashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:8]) // 16 character hex string
}
