package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/cespare/xxhash/v2"

	"github.com/spherical/ecg-extractor/internal/domain"
)

const framePrefix = "frame"

// FrameCache memoises reconstructed frames by mode and page content. A nil
// *FrameCache never hits and ignores writes.
type FrameCache struct {
	client Client
	ttl    time.Duration
}

// NewFrameCache wraps client. A zero ttl keeps entries until evicted.
func NewFrameCache(client Client, ttl time.Duration) *FrameCache {
	return &FrameCache{client: client, ttl: ttl}
}

// FrameKey derives the cache key for a page rendered under mode.
func FrameKey(mode string, content []byte) string {
	return CacheKey(framePrefix, mode, strconv.FormatUint(xxhash.Sum64(content), 16))
}

// Get returns the cached frame for content, or ErrCacheMiss.
func (c *FrameCache) Get(ctx context.Context, mode string, content []byte) (*domain.Frame, error) {
	if c == nil || c.client == nil {
		return nil, ErrCacheMiss
	}
	data, err := c.client.Get(ctx, FrameKey(mode, content))
	if err != nil {
		return nil, err
	}
	var f domain.Frame
	if err := json.Unmarshal(data, &f); err != nil {
		// A corrupt entry is a miss; drop it so it gets rewritten.
		_ = c.client.Delete(ctx, FrameKey(mode, content))
		return nil, ErrCacheMiss
	}
	return &f, nil
}

// Put stores f for content.
func (c *FrameCache) Put(ctx context.Context, mode string, content []byte, f *domain.Frame) error {
	if c == nil || c.client == nil {
		return nil
	}
	data, err := json.Marshal(f)
	if err != nil {
		return fmt.Errorf("marshal frame: %w", err)
	}
	return c.client.Set(ctx, FrameKey(mode, content), data, c.ttl)
}

// Purge drops every cached frame.
func (c *FrameCache) Purge(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.DeleteByPrefix(ctx, framePrefix+":")
}

// Close releases the underlying client.
func (c *FrameCache) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// IsMiss reports whether err is a cache miss.
func IsMiss(err error) bool {
	return errors.Is(err, ErrCacheMiss)
}
