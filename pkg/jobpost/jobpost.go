// Package jobpost fetches a job posting and reduces it to plain text.
package jobpost

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/xrsl/cvago/pkg/log"
)

// DefaultTimeout caps a whole fetch.
const DefaultTimeout = 90 * time.Second

// maxBody bounds how much of a page is read.
const maxBody = 5 << 20

var ErrEmpty = errors.New("the posting has no readable text")

// Fetcher downloads postings.
type Fetcher struct {
	Client    *http.Client
	UserAgent string
	Timeout   time.Duration
}

// New returns a Fetcher with the default timeout.
func New(userAgent string) *Fetcher {
	return &Fetcher{
		Client:    &http.Client{},
		UserAgent: userAgent,
		Timeout:   DefaultTimeout,
	}
}

// Fetch retrieves url and returns its readable text.
func (f *Fetcher) Fetch(ctx context.Context, url string) (string, error) {
	if f.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.Timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, http.NoBody)
	if err != nil {
		return "", fmt.Errorf("invalid URL: %w", err)
	}
	if f.UserAgent != "" {
		req.Header.Set("User-Agent", f.UserAgent)
	}
	req.Header.Set("Accept", "text/html, text/plain;q=0.9, */*;q=0.5")

	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	log.Debug("fetching posting", "url", url)
	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("fetch failed: HTTP %d", resp.StatusCode)
	}

	body := io.LimitReader(resp.Body, maxBody)
	var text string
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/plain") {
		raw, err := io.ReadAll(body)
		if err != nil {
			return "", fmt.Errorf("read failed: %w", err)
		}
		text = squeeze(string(raw))
	} else {
		text, err = Extract(body)
		if err != nil {
			return "", err
		}
	}
	if text == "" {
		return "", ErrEmpty
	}
	log.Info("posting fetched", "url", url, "chars", len(text))
	return text, nil
}

// Extract returns the visible text of an HTML document with page chrome
// removed and blank lines dropped.
func Extract(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("failed to parse HTML: %w", err)
	}

	doc.Find("script, style, noscript, template, svg, nav, footer, header").Remove()

	root := doc.Find("main, article, [role=main]").First()
	if root.Length() == 0 {
		root = doc.Find("body")
	}
	if root.Length() == 0 {
		root = doc.Selection
	}

	// Block elements end a line; without this adjacent paragraphs run
	// together in Text().
	root.Find("p, div, li, br, h1, h2, h3, h4, h5, h6, tr, section").Each(func(_ int, s *goquery.Selection) {
		s.AppendHtml("\n")
	})

	return squeeze(root.Text()), nil
}

func squeeze(text string) string {
	var cleaned []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.Join(strings.Fields(line), " ")
		if line != "" {
			cleaned = append(cleaned, line)
		}
	}
	return strings.Join(cleaned, "\n")
}
