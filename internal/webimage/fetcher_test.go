package webimage

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestOGImageFromMetaTags(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<meta property="og:image" content="https://cdn.example.com/hero.jpg">
		</head><body></body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher()
	url, ok := f.OGImage(context.Background(), srv.URL)
	if !ok {
		t.Fatal("expected og:image to resolve")
	}
	if url != "https://cdn.example.com/hero.jpg" {
		t.Errorf("url = %q", url)
	}
}

func TestOGImageTwitterFallbackAndRelativeURL(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head>
			<meta name="twitter:image" content="/assets/card.png">
		</head><body></body></html>`))
	}))
	defer srv.Close()

	f := NewFetcher()
	url, ok := f.OGImage(context.Background(), srv.URL+"/listing/1")
	if !ok {
		t.Fatal("expected twitter:image to resolve")
	}
	if url != srv.URL+"/assets/card.png" {
		t.Errorf("url = %q, want relative path resolved against the page host", url)
	}
}

func TestOGImageMissingMeta(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(`<html><head><title>No images here</title></head></html>`))
	}))
	defer srv.Close()

	f := NewFetcher()
	if url, ok := f.OGImage(context.Background(), srv.URL); ok {
		t.Errorf("expected miss, got %q", url)
	}
}

func TestOGImageRejectsBadURLs(t *testing.T) {
	f := NewFetcher()
	for _, bad := range []string{"", "not a url", "ftp://example.com/page", "javascript:alert(1)"} {
		if url, ok := f.OGImage(context.Background(), bad); ok {
			t.Errorf("OGImage(%q) resolved to %q", bad, url)
		}
	}
}

func TestCircuitBreakerOpensOnRepeatedServerErrors(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Hour)

	if !cb.CanProceed() {
		t.Fatal("breaker should start closed")
	}
	cb.RecordFailure(http.StatusInternalServerError)
	if !cb.CanProceed() {
		t.Fatal("one failure should not open the breaker")
	}
	cb.RecordFailure(http.StatusInternalServerError)
	if cb.CanProceed() {
		t.Fatal("breaker should open at the failure threshold")
	}

	isOpen, failures, _ := cb.GetStatus()
	if !isOpen || failures < 2 {
		t.Errorf("status = open=%v failures=%d", isOpen, failures)
	}
}

func TestCircuitBreakerSuccessResetsStreak(t *testing.T) {
	cb := NewCircuitBreaker(2, time.Hour)

	cb.RecordFailure(http.StatusTooManyRequests)
	cb.RecordSuccess()
	cb.RecordFailure(http.StatusTooManyRequests)
	if !cb.CanProceed() {
		t.Error("a success between failures should reset the streak")
	}
}

func TestCircuitBreakerHalfOpensAfterTimeout(t *testing.T) {
	cb := NewCircuitBreaker(2, 10*time.Millisecond)

	cb.RecordFailure(http.StatusForbidden)
	cb.RecordFailure(http.StatusForbidden)
	if cb.CanProceed() {
		t.Fatal("breaker should be open")
	}

	time.Sleep(20 * time.Millisecond)
	if !cb.CanProceed() {
		t.Error("breaker should half-open after the reset timeout")
	}
}
