package ratelimit

import (
	"sync"
	"time"
)

// window is a sliding count over a fixed span. A limit of 0 means
// unlimited; the window still records hits so stats stay meaningful.
type window struct {
	span  time.Duration
	limit int
	hits  []time.Time
}

func (w *window) prune(now time.Time) {
	cutoff := now.Add(-w.span)
	i := 0
	for i < len(w.hits) && !w.hits[i].After(cutoff) {
		i++
	}
	if i > 0 {
		w.hits = append(w.hits[:0], w.hits[i:]...)
	}
}

func (w *window) full() bool {
	return w.limit > 0 && len(w.hits) >= w.limit
}

func (w *window) remaining() int {
	if r := w.limit - len(w.hits); r > 0 {
		return r
	}
	return 0
}

// RateLimiter guards journey runs with minute, hour and day windows. A
// request is admitted only when every window has room, and admission
// charges all three at once.
type RateLimiter struct {
	enabled bool
	now     func() time.Time

	mu      sync.Mutex
	windows [3]window
}

func NewRateLimiter(requestsPerMinute, requestsPerHour, requestsPerDay int, enabled bool) *RateLimiter {
	return &RateLimiter{
		enabled: enabled,
		now:     time.Now,
		windows: [3]window{
			{span: time.Minute, limit: requestsPerMinute},
			{span: time.Hour, limit: requestsPerHour},
			{span: 24 * time.Hour, limit: requestsPerDay},
		},
	}
}

// AllowRequest reports whether a request fits inside every window and, if
// so, records it in all of them.
func (rl *RateLimiter) AllowRequest() bool {
	if !rl.enabled {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for i := range rl.windows {
		rl.windows[i].prune(now)
		if rl.windows[i].full() {
			return false
		}
	}
	for i := range rl.windows {
		rl.windows[i].hits = append(rl.windows[i].hits, now)
	}
	return true
}

// Stats contains rate limiter statistics
type Stats struct {
	Enabled             bool `json:"enabled"`
	RequestsLastMinute  int  `json:"requests_last_minute"`
	RequestsLastHour    int  `json:"requests_last_hour"`
	RequestsLastDay     int  `json:"requests_last_day"`
	LimitPerMinute      int  `json:"limit_per_minute"`
	LimitPerHour        int  `json:"limit_per_hour"`
	LimitPerDay         int  `json:"limit_per_day"`
	RemainingThisMinute int  `json:"remaining_this_minute"`
	RemainingThisHour   int  `json:"remaining_this_hour"`
	RemainingThisDay    int  `json:"remaining_this_day"`
}

// GetStats returns a snapshot of every window.
func (rl *RateLimiter) GetStats() Stats {
	if !rl.enabled {
		return Stats{Enabled: false}
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	for i := range rl.windows {
		rl.windows[i].prune(now)
	}
	minute, hour, day := &rl.windows[0], &rl.windows[1], &rl.windows[2]
	return Stats{
		Enabled:             true,
		RequestsLastMinute:  len(minute.hits),
		RequestsLastHour:    len(hour.hits),
		RequestsLastDay:     len(day.hits),
		LimitPerMinute:      minute.limit,
		LimitPerHour:        hour.limit,
		LimitPerDay:         day.limit,
		RemainingThisMinute: minute.remaining(),
		RemainingThisHour:   hour.remaining(),
		RemainingThisDay:    day.remaining(),
	}
}

// Reset drops every recorded request.
func (rl *RateLimiter) Reset() {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	for i := range rl.windows {
		rl.windows[i].hits = nil
	}
}
