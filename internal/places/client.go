package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"relocation-advisor/internal/config"
	"relocation-advisor/internal/ratelimit"
)

// API is the lookup-service surface the resolver consumes.
type API interface {
	SearchText(ctx context.Context, query string) ([]Candidate, error)
	Details(ctx context.Context, placeID string) (*PlaceDetails, error)
	PhotoMedia(ctx context.Context, photoName string) (string, error)
}

// Candidate is one text-search hit.
type Candidate struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"-"`
	Types       []string `json:"types"`
}

// PlaceDetails carries the photo references and types for one place.
type PlaceDetails struct {
	ID          string
	DisplayName string
	Types       []string
	Photos      []string // photo resource names
}

// Client talks to the places lookup API. Every call goes through the shared
// in-flight limiter and a retrying fetch with linear backoff on 429/5xx and
// network errors.
type Client struct {
	httpClient *http.Client
	apiKey     string
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	maxWidth   int
	maxHeight  int
	limiter    *ratelimit.InFlightLimiter
}

func NewClient(cfg config.PlacesConfig, limiter *ratelimit.InFlightLimiter) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.GetTimeout(),
			// Redirects carry the resolved photo URI; the caller reads
			// Location instead of following it.
			CheckRedirect: func(req *http.Request, via []*http.Request) error {
				return http.ErrUseLastResponse
			},
		},
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.GetRetryDelay(),
		maxWidth:   cfg.PhotoMaxWidthPx,
		maxHeight:  cfg.PhotoMaxHeightPx,
		limiter:    limiter,
	}
}

type searchTextRequest struct {
	TextQuery    string `json:"textQuery"`
	LanguageCode string `json:"languageCode,omitempty"`
}

type searchTextResponse struct {
	Places []struct {
		ID          string `json:"id"`
		DisplayName struct {
			Text string `json:"text"`
		} `json:"displayName"`
		Types []string `json:"types"`
	} `json:"places"`
}

// SearchText issues one places:searchText call.
func (c *Client) SearchText(ctx context.Context, query string) ([]Candidate, error) {
	body, err := json.Marshal(searchTextRequest{TextQuery: query, LanguageCode: "en"})
	if err != nil {
		return nil, err
	}

	data, _, err := c.doWithRetry(ctx, http.MethodPost, c.baseURL+"/places:searchText", body,
		"places.id,places.displayName,places.types")
	if err != nil {
		return nil, err
	}

	var resp searchTextResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	candidates := make([]Candidate, 0, len(resp.Places))
	for _, p := range resp.Places {
		candidates = append(candidates, Candidate{
			ID:          p.ID,
			DisplayName: p.DisplayName.Text,
			Types:       p.Types,
		})
	}
	return candidates, nil
}

type detailsResponse struct {
	ID          string `json:"id"`
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	Types  []string `json:"types"`
	Photos []struct {
		Name string `json:"name"`
	} `json:"photos"`
}

// Details fetches photos[] and types[] for a place id.
func (c *Client) Details(ctx context.Context, placeID string) (*PlaceDetails, error) {
	data, _, err := c.doWithRetry(ctx, http.MethodGet, c.baseURL+"/places/"+placeID, nil,
		"id,displayName,types,photos")
	if err != nil {
		return nil, err
	}

	var resp detailsResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode details response: %w", err)
	}

	details := &PlaceDetails{
		ID:          resp.ID,
		DisplayName: resp.DisplayName.Text,
		Types:       resp.Types,
	}
	for _, p := range resp.Photos {
		details.Photos = append(details.Photos, p.Name)
	}
	return details, nil
}

type photoMediaResponse struct {
	PhotoURI string `json:"photoUri"`
}

// PhotoMedia resolves a photo resource name to a URL. The endpoint answers
// either with a JSON body carrying photoUri or with a redirect Location.
func (c *Client) PhotoMedia(ctx context.Context, photoName string) (string, error) {
	url := fmt.Sprintf("%s/%s/media?maxWidthPx=%d&maxHeightPx=%d&skipHttpRedirect=true",
		c.baseURL, photoName, c.maxWidth, c.maxHeight)

	data, location, err := c.doWithRetry(ctx, http.MethodGet, url, nil, "")
	if err != nil {
		return "", err
	}
	if location != "" {
		return location, nil
	}

	var resp photoMediaResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return "", fmt.Errorf("decode photo media response: %w", err)
	}
	if resp.PhotoURI == "" {
		return "", fmt.Errorf("photo media returned no URI")
	}
	return resp.PhotoURI, nil
}

// doWithRetry performs one API call under the in-flight limiter. Transient
// failures (network, 429, 5xx) are retried with linear backoff; the third
// return value is a redirect Location when the endpoint answered 3xx.
func (c *Client) doWithRetry(ctx context.Context, method, url string, body []byte, fieldMask string) ([]byte, string, error) {
	if err := c.limiter.Acquire(ctx); err != nil {
		return nil, "", err
	}
	defer c.limiter.Release()

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.retryDelay * time.Duration(attempt)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, "", ctx.Err()
			}
		}

		var reader io.Reader
		if body != nil {
			reader = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, url, reader)
		if err != nil {
			return nil, "", err
		}
		req.Header.Set("X-Goog-Api-Key", c.apiKey)
		if fieldMask != "" {
			req.Header.Set("X-Goog-FieldMask", fieldMask)
		}
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("network error: %w", err)
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()
		if readErr != nil {
			lastErr = fmt.Errorf("read body: %w", readErr)
			continue
		}

		switch {
		case resp.StatusCode >= 300 && resp.StatusCode < 400:
			loc := resp.Header.Get("Location")
			if loc == "" {
				return nil, "", fmt.Errorf("redirect without Location header")
			}
			return nil, loc, nil
		case resp.StatusCode == http.StatusOK:
			return data, "", nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			lastErr = fmt.Errorf("status %d: %s", resp.StatusCode, snippet(data))
			log.Printf("[places] Transient failure (attempt %d/%d): %v", attempt+1, c.maxRetries+1, lastErr)
			continue
		default:
			return nil, "", fmt.Errorf("status %d: %s", resp.StatusCode, snippet(data))
		}
	}

	return nil, "", fmt.Errorf("exhausted %d retries: %w", c.maxRetries, lastErr)
}

func snippet(data []byte) string {
	s := strings.TrimSpace(string(data))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}
