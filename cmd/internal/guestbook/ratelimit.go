package guestbook

import (
	"context"
	"encoding/json"
	"time"

	"folio/cmd/internal/docstore"
)

// Rate limit defaults for message submission.
const (
	DefaultRateWindow = 60 * time.Second
	DefaultRateMax    = 3
)

// rateEntry tracks one client's fixed window: the time of the first request
// and the count within it.
type rateEntry struct {
	Time  int64 `json:"time"`
	Count int   `json:"count"`
}

// RateLimiter is a fixed-window, per-IP limiter persisted in its own
// document so limits survive restarts. Expired entries are removed lazily
// on each call; there is no background sweeper.
type RateLimiter struct {
	store  docstore.Store
	window time.Duration
	max    int

	now func() time.Time
}

// NewRateLimiter wires a limiter over the document store. Non-positive
// window or max fall back to the defaults.
func NewRateLimiter(store docstore.Store, window time.Duration, max int) *RateLimiter {
	if window <= 0 {
		window = DefaultRateWindow
	}
	if max <= 0 {
		max = DefaultRateMax
	}
	return &RateLimiter{
		store:  store,
		window: window,
		max:    max,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// Allow reports whether key may proceed, counting the attempt if so.
// A denied attempt is not counted, so a client cannot extend its own
// lockout by retrying.
func (l *RateLimiter) Allow(ctx context.Context, key string) (bool, error) {
	if key == "" {
		key = "unknown"
	}

	allowed := false
	err := l.store.Update(ctx, docstore.DocRateLimit, func(current []byte) ([]byte, error) {
		entries := map[string]rateEntry{}
		if len(current) > 0 {
			if err := json.Unmarshal(current, &entries); err != nil {
				entries = map[string]rateEntry{}
			}
		}

		now := l.now().Unix()
		for k, e := range entries {
			if now-e.Time > int64(l.window.Seconds()) {
				delete(entries, k)
			}
		}

		e, ok := entries[key]
		switch {
		case !ok:
			entries[key] = rateEntry{Time: now, Count: 1}
			allowed = true
		case e.Count >= l.max:
			allowed = false
		default:
			e.Count++
			entries[key] = e
			allowed = true
		}

		return json.Marshal(entries)
	})
	if err != nil {
		return false, err
	}
	return allowed, nil
}
