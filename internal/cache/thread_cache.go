// Package cache provides the time-bounded thread cache that sits in front of
// the Gmail fetcher.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/teemow/inboxreply/internal/gmail"
	"github.com/teemow/inboxreply/internal/instrumentation"
	"github.com/teemow/inboxreply/internal/logging"
)

const (
	// DefaultPrefix namespaces every key written by this service.
	DefaultPrefix = "emailreply"

	// ThreadTTL is how long a normalized thread stays cached after a write.
	ThreadTTL = 300 * time.Second
)

// ThreadCache caches normalized threads by thread id. Hits do not refresh
// the TTL. A nil backend makes every lookup a miss.
type ThreadCache struct {
	backend Backend
	prefix  string
	logger  *slog.Logger
	metrics *instrumentation.Metrics
}

// NewThreadCache creates a ThreadCache. An empty prefix uses DefaultPrefix.
func NewThreadCache(backend Backend, prefix string, logger *slog.Logger, metrics *instrumentation.Metrics) *ThreadCache {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ThreadCache{
		backend: backend,
		prefix:  prefix,
		logger:  logger,
		metrics: metrics,
	}
}

// Key returns the cache key for a thread.
func (c *ThreadCache) Key(threadID string) string {
	return c.prefix + ":cache:thread:" + threadID
}

// GetOrFetch returns the cached thread, or calls fetch and stores its result.
// Concurrent misses for the same key may each call fetch.
func (c *ThreadCache) GetOrFetch(ctx context.Context, threadID string, fetch func(ctx context.Context) *gmail.NormalizedThread) *gmail.NormalizedThread {
	key := c.Key(threadID)
	log := logging.WithOperation(c.logger, "cache.get_or_fetch").With(logging.Thread(threadID))

	if thread, ok := c.lookup(ctx, key, log); ok {
		return thread
	}

	thread := fetch(ctx)
	if thread == nil {
		return nil
	}

	if err := c.store(ctx, key, thread); err != nil {
		log.Warn("failed to write thread cache", logging.Err(err))
	}
	return thread
}

func (c *ThreadCache) lookup(ctx context.Context, key string, log *slog.Logger) (*gmail.NormalizedThread, bool) {
	if c.backend == nil {
		c.metrics.RecordCacheLookup(ctx, instrumentation.CacheMiss)
		return nil, false
	}

	raw, err := c.backend.Get(ctx, key)
	switch {
	case errors.Is(err, ErrMiss):
		c.metrics.RecordCacheLookup(ctx, instrumentation.CacheMiss)
		return nil, false
	case err != nil:
		log.Warn("thread cache unavailable, fetching upstream", logging.Err(err))
		c.metrics.RecordCacheLookup(ctx, instrumentation.CacheError)
		return nil, false
	}

	var thread gmail.NormalizedThread
	if err := json.Unmarshal(raw, &thread); err != nil {
		log.Warn("discarding undecodable cache entry", logging.Err(err))
		c.metrics.RecordCacheLookup(ctx, instrumentation.CacheError)
		return nil, false
	}

	c.metrics.RecordCacheLookup(ctx, instrumentation.CacheHit)
	log.Debug("thread cache hit")
	return &thread, true
}

func (c *ThreadCache) store(ctx context.Context, key string, thread *gmail.NormalizedThread) error {
	if c.backend == nil {
		return nil
	}
	raw, err := json.Marshal(thread)
	if err != nil {
		return err
	}
	return c.backend.SetWithTTL(ctx, key, ThreadTTL, raw)
}
