// Package fetch retrieves pages and hands back Markdown-like text. HTML
// bodies are reduced to Markdown; Markdown and plain text pass through.
package fetch

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/go-shiori/go-readability"

	"github.com/starford/cardgrid/internal/apperr"
	"github.com/starford/cardgrid/internal/checksum"
)

var h1Re = regexp.MustCompile(`(?m)^# `)

// Config configures the fetcher.
type Config struct {
	Timeout   time.Duration // HTTP timeout. Default: 30s.
	MaxBytes  int64         // Max response body size. Default: 10MB.
	UserAgent string
}

func (c *Config) defaults() {
	if c.Timeout <= 0 {
		c.Timeout = 30 * time.Second
	}
	if c.MaxBytes <= 0 {
		c.MaxBytes = 10 * 1024 * 1024
	}
	if c.UserAgent == "" {
		c.UserAgent = "cardgrid/1.0"
	}
}

// Page is a fetched document reduced to Markdown-like text.
type Page struct {
	URL         string
	ContentType string
	Title       string
	Markdown    string
	Checksum    string // SHA-256 of the raw body
}

// Fetcher performs page retrieval.
type Fetcher struct {
	client *http.Client
	config Config
	md     *converter.Converter
}

// New creates a Fetcher.
func New(cfg Config) *Fetcher {
	cfg.defaults()
	return &Fetcher{
		client: &http.Client{
			Timeout: cfg.Timeout,
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				if len(via) >= 5 {
					return fmt.Errorf("too many redirects (%d)", len(via))
				}
				if !isHTTPScheme(req.URL) {
					return fmt.Errorf("redirect to unsupported scheme %q", req.URL.Scheme)
				}
				return nil
			},
		},
		config: cfg,
		md: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(),
			),
		),
	}
}

// Fetch retrieves rawURL. Every failure is an *apperr.FetchError.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Page, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, &apperr.FetchError{URL: rawURL, Err: err}
	}
	if !isHTTPScheme(u) || u.Host == "" {
		return nil, &apperr.FetchError{URL: rawURL, Err: fmt.Errorf("unsupported URL %q", rawURL)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, &apperr.FetchError{URL: rawURL, Err: fmt.Errorf("new request: %w", err)}
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/markdown, text/plain;q=0.9, text/html;q=0.8, */*;q=0.5")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, &apperr.FetchError{URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &apperr.FetchError{URL: rawURL, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBytes+1))
	if err != nil {
		return nil, &apperr.FetchError{URL: rawURL, Err: fmt.Errorf("read body: %w", err)}
	}
	if int64(len(body)) > f.config.MaxBytes {
		return nil, &apperr.FetchError{URL: rawURL, Err: fmt.Errorf("body exceeds %d bytes", f.config.MaxBytes)}
	}

	page := &Page{
		URL:         resp.Request.URL.String(),
		ContentType: resp.Header.Get("Content-Type"),
		Checksum:    checksum.Sum(body),
	}
	if isHTML(page.ContentType, body) {
		page.Title, page.Markdown = f.htmlToMarkdown(body, resp.Request.URL)
	} else {
		page.Markdown = string(body)
	}
	return page, nil
}

// htmlToMarkdown converts an HTML body. The readability title is promoted to
// an H1 when the converted text has none; readability's plain text is the
// fallback when conversion fails or comes out empty.
func (f *Fetcher) htmlToMarkdown(body []byte, pageURL *url.URL) (title, md string) {
	var fallback string
	if article, err := readability.FromReader(bytes.NewReader(body), pageURL); err == nil {
		title = strings.TrimSpace(article.Title)
		fallback = strings.TrimSpace(article.TextContent)
	}

	md, err := f.md.ConvertString(string(body), converter.WithDomain(pageURL.String()))
	if err != nil || strings.TrimSpace(md) == "" {
		md = fallback
	}
	md = strings.TrimSpace(md)

	if title != "" && !h1Re.MatchString(md) {
		md = "# " + title + "\n\n" + md
	}
	return title, md
}

func isHTML(contentType string, body []byte) bool {
	if contentType == "" {
		contentType = http.DetectContentType(body)
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

func isHTTPScheme(u *url.URL) bool {
	if u == nil {
		return false
	}
	s := strings.ToLower(u.Scheme)
	return s == "http" || s == "https"
}
