package webimage

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Fetcher pulls a representative image URL out of a public web page. It is
// the fallback when the place lookup yields nothing for an item that came
// with a website.
type Fetcher struct {
	client         *http.Client
	circuitBreaker *CircuitBreaker
	maxRetries     int
	retryDelay     time.Duration
}

func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{
			Timeout: 20 * time.Second,
		},
		circuitBreaker: NewCircuitBreaker(2, 10*time.Minute),
		maxRetries:     2,
		retryDelay:     2 * time.Second,
	}
}

func applyBrowserHeaders(req *http.Request) {
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Accept-Encoding", "gzip")
}

// OGImage fetches the page and returns its og:image (or twitter:image) URL.
// Returns ok=false on any failure; callers fall back to stock imagery.
func (f *Fetcher) OGImage(ctx context.Context, pageURL string) (string, bool) {
	if !f.circuitBreaker.CanProceed() {
		return "", false
	}
	parsed, err := url.Parse(pageURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", false
	}

	body, err := f.fetchWithRetry(ctx, pageURL)
	if err != nil {
		log.Printf("[webimage] ⚠️ Fetch failed for %s: %v", pageURL, err)
		return "", false
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(body))
	if err != nil {
		return "", false
	}

	img := metaContent(doc, `meta[property="og:image"]`)
	if img == "" {
		img = metaContent(doc, `meta[name="twitter:image"]`)
	}
	if img == "" {
		return "", false
	}

	resolved, err := parsed.Parse(img)
	if err != nil {
		return "", false
	}
	return resolved.String(), true
}

func metaContent(doc *goquery.Document, selector string) string {
	content, _ := doc.Find(selector).First().Attr("content")
	return strings.TrimSpace(content)
}

func (f *Fetcher) fetchWithRetry(ctx context.Context, pageURL string) (string, error) {
	var lastErr error
	for attempt := 0; attempt <= f.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(f.retryDelay):
			case <-ctx.Done():
				return "", ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
		if err != nil {
			return "", err
		}
		applyBrowserHeaders(req)

		resp, err := f.client.Do(req)
		if err != nil {
			lastErr = err
			continue
		}

		if resp.StatusCode != http.StatusOK {
			resp.Body.Close()
			f.circuitBreaker.RecordFailure(resp.StatusCode)
			lastErr = fmt.Errorf("status %d", resp.StatusCode)
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				continue
			}
			return "", lastErr
		}

		var reader io.Reader = resp.Body
		if resp.Header.Get("Content-Encoding") == "gzip" {
			gz, err := gzip.NewReader(resp.Body)
			if err != nil {
				resp.Body.Close()
				lastErr = err
				continue
			}
			defer gz.Close()
			reader = gz
		}

		// Meta tags live in <head>; 512KB is plenty.
		data, err := io.ReadAll(io.LimitReader(reader, 512*1024))
		resp.Body.Close()
		if err != nil {
			lastErr = err
			continue
		}
		f.circuitBreaker.RecordSuccess()
		return string(data), nil
	}
	return "", fmt.Errorf("exhausted retries: %w", lastErr)
}

// Status exposes circuit breaker state for the admin endpoint.
func (f *Fetcher) Status() (isOpen bool, failures int, total int) {
	return f.circuitBreaker.GetStatus()
}
