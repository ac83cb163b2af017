package fetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const articleHTML = `<!DOCTYPE html>
<html>
<head>
  <meta property="og:title" content="Council Approves Budget">
  <title>Council Approves Budget | Example News</title>
</head>
<body>
  <h1>Council Approves Budget</h1>
  <article>
    <p>The city council voted on Tuesday to approve the annual budget.</p>
    <p>The measure passed with a comfortable majority.</p>
  </article>
</body>
</html>`

func newTestServer(t *testing.T, html string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(html))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestFetchExtractsArticle(t *testing.T) {
	server := newTestServer(t, articleHTML)

	f := NewFetcher(5 * time.Second)
	art, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}

	if art.Headline != "Council Approves Budget" {
		t.Errorf("Headline = %q, want og:title value", art.Headline)
	}
	if art.BodyText == "" {
		t.Error("expected non-empty body text")
	}
	if art.URL != server.URL {
		t.Errorf("URL = %q, want %q", art.URL, server.URL)
	}
	if art.ID == "" {
		t.Error("expected non-empty ID")
	}
}

func TestFetchHeadlineFallbacks(t *testing.T) {
	tests := []struct {
		name string
		html string
		want string
	}{
		{
			name: "title tag when no og:title",
			html: `<html><head><title>From Title Tag</title></head><body><p>text</p></body></html>`,
			want: "From Title Tag",
		},
		{
			name: "h1 when no title",
			html: `<html><body><h1>From Heading</h1><p>text</p></body></html>`,
			want: "From Heading",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := newTestServer(t, tt.html)
			f := NewFetcher(5 * time.Second)
			art, err := f.Fetch(context.Background(), server.URL)
			if err != nil {
				t.Fatalf("Fetch failed: %v", err)
			}
			if art.Headline != tt.want {
				t.Errorf("Headline = %q, want %q", art.Headline, tt.want)
			}
		})
	}
}

func TestFetchEmptyBodyIsValid(t *testing.T) {
	server := newTestServer(t, `<html><head><title>Headline Only</title></head><body></body></html>`)

	f := NewFetcher(5 * time.Second)
	art, err := f.Fetch(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("Fetch failed: %v", err)
	}
	if art.BodyText != "" {
		t.Errorf("BodyText = %q, want empty", art.BodyText)
	}
}

func TestFetchNoHeadlineIsError(t *testing.T) {
	server := newTestServer(t, `<html><body><p>body with no headline anywhere</p></body></html>`)

	f := NewFetcher(5 * time.Second)
	if _, err := f.Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected error for page without headline")
	}
}

func TestFetchHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)
	if _, err := f.Fetch(context.Background(), server.URL); err == nil {
		t.Error("expected error for 404 response")
	}
}

func TestFetchCancelledContext(t *testing.T) {
	server := newTestServer(t, articleHTML)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	f := NewFetcher(5 * time.Second)
	if _, err := f.Fetch(ctx, server.URL); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestFetchDeterministicID(t *testing.T) {
	server := newTestServer(t, articleHTML)

	f := NewFetcher(5 * time.Second)
	a, _ := f.Fetch(context.Background(), server.URL)
	b, _ := f.Fetch(context.Background(), server.URL)
	if a.ID != b.ID {
		t.Error("IDs should be deterministic for same URL")
	}
}

func TestFetchFeed(t *testing.T) {
	rss := `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
  <channel>
    <title>Test Feed</title>
    <item>
      <title>Article 1</title>
      <link>http://example.com/article1</link>
    </item>
    <item>
      <title>Article 2</title>
      <link>http://example.com/article2</link>
    </item>
    <item>
      <title>No Link</title>
    </item>
  </channel>
</rss>`

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/rss+xml")
		w.Write([]byte(rss))
	}))
	defer server.Close()

	f := NewFetcher(5 * time.Second)
	urls, err := f.FetchFeed(context.Background(), server.URL)
	if err != nil {
		t.Fatalf("FetchFeed failed: %v", err)
	}

	if len(urls) != 2 {
		t.Fatalf("expected 2 URLs, got %d", len(urls))
	}
	if urls[0] != "http://example.com/article1" {
		t.Errorf("unexpected first URL: %s", urls[0])
	}
}

func TestFetchFeedInvalidXML(t *testing.T) {
	server := newTestServer(t, "not valid xml")

	f := NewFetcher(5 * time.Second)
	if _, err := f.FetchFeed(context.Background(), server.URL); err == nil {
		t.Error("expected error for invalid XML")
	}
}

func TestReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "article.html")
	if err := os.WriteFile(path, []byte(articleHTML), 0o644); err != nil {
		t.Fatalf("write fixture: %v", err)
	}

	art, err := ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if art.Headline != "Council Approves Budget" {
		t.Errorf("Headline = %q, want og:title value", art.Headline)
	}
	if art.BodyText == "" {
		t.Error("expected non-empty body text")
	}
}

func TestReadFileMissing(t *testing.T) {
	if _, err := ReadFile(filepath.Join(t.TempDir(), "missing.html")); err == nil {
		t.Error("expected error for missing file")
	}
}
