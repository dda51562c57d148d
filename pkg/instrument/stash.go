package instrument

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/platinummonkey/pulse/pkg/cache"
)

// DefaultStashTTL is how long a request waits for its render report
const DefaultStashTTL = 5 * time.Minute

// RenderTiming is what the server remembers about a request until the
// browser reports that the page finished rendering
type RenderTiming struct {
	Started   time.Time `json:"started"`
	ViewName  string    `json:"view_name"`
	UserAgent string    `json:"user_agent"`
}

// RenderStash keeps RenderTiming entries under "request:<id>"
type RenderStash struct {
	cache cache.Cache
	ttl   time.Duration
}

// NewRenderStash creates a stash over c. A non-positive ttl uses
// DefaultStashTTL.
func NewRenderStash(c cache.Cache, ttl time.Duration) *RenderStash {
	if ttl <= 0 {
		ttl = DefaultStashTTL
	}
	return &RenderStash{cache: c, ttl: ttl}
}

// StashKey returns the cache key for a request id
func StashKey(requestID string) string {
	return "request:" + requestID
}

// Put stores timing for requestID
func (s *RenderStash) Put(ctx context.Context, requestID string, timing RenderTiming) error {
	data, err := json.Marshal(timing)
	if err != nil {
		return fmt.Errorf("failed to encode render timing: %w", err)
	}
	return s.cache.Set(ctx, StashKey(requestID), data, s.ttl)
}

// Pop returns and removes the timing for requestID. ok is false when
// nothing was stashed or it expired.
func (s *RenderStash) Pop(ctx context.Context, requestID string) (timing RenderTiming, ok bool, err error) {
	key := StashKey(requestID)

	data, err := s.cache.Get(ctx, key)
	if errors.Is(err, cache.ErrCacheMiss) {
		return RenderTiming{}, false, nil
	}
	if err != nil {
		return RenderTiming{}, false, err
	}

	if err := s.cache.Delete(ctx, key); err != nil {
		return RenderTiming{}, false, err
	}

	if err := json.Unmarshal(data, &timing); err != nil {
		return RenderTiming{}, false, fmt.Errorf("corrupt render timing: %w", err)
	}
	return timing, true, nil
}
