package service

import (
	"context"
	"errors"
	"time"

	"github.com/Harshitk-cp/topicgraph/internal/domain"
	"github.com/Harshitk-cp/topicgraph/internal/store"
)

// CacheStats counts lookups served from memory and lookups sent to the store.
type CacheStats struct {
	Hits   int `json:"hits"`
	Misses int `json:"misses"`
}

// TopicCache memoizes topic lookups for the duration of one import batch.
// A nil entry records a confirmed absence so repeated misses do not query
// the store again. It is not safe for concurrent use: one batch, one cache.
type TopicCache struct {
	store   domain.TopicStore
	metrics *ImportMetrics
	topics  map[string]*domain.Topic
	order   []string
	stats   CacheStats
}

// NewTopicCache creates a cache backed by s. A nil store makes every
// unknown id absent.
func NewTopicCache(s domain.TopicStore, metrics *ImportMetrics) *TopicCache {
	return &TopicCache{
		store:   s,
		metrics: metrics,
		topics:  make(map[string]*domain.Topic),
	}
}

// Fetch returns the topic for id, or nil if the store does not have it.
func (c *TopicCache) Fetch(ctx context.Context, id string) (*domain.Topic, error) {
	if t, ok := c.topics[id]; ok {
		c.stats.Hits++
		c.metrics.cacheLookup(true)
		return t, nil
	}
	c.stats.Misses++
	c.metrics.cacheLookup(false)

	var t *domain.Topic
	if c.store != nil {
		found, err := c.store.FetchByID(ctx, id)
		switch {
		case errors.Is(err, store.ErrNotFound):
			// absent; cached as nil below
		case err != nil:
			return nil, err
		default:
			t = found
		}
	}
	c.remember(id, t)
	return t, nil
}

// Exists adapts Fetch to the identity resolver.
func (c *TopicCache) Exists(ctx context.Context, id string) (bool, error) {
	t, err := c.Fetch(ctx, id)
	return t != nil, err
}

// FetchOrCreate returns the topic for id, creating an empty one when the
// store does not have it. created reports whether a new topic was made.
func (c *TopicCache) FetchOrCreate(ctx context.Context, id string, now time.Time) (t *domain.Topic, created bool, err error) {
	t, err = c.Fetch(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if t != nil {
		return t, false, nil
	}
	t = domain.NewTopic(id, now)
	c.remember(id, t)
	return t, true, nil
}

func (c *TopicCache) remember(id string, t *domain.Topic) {
	if _, ok := c.topics[id]; !ok {
		c.order = append(c.order, id)
	}
	c.topics[id] = t
}

// Dirty returns the topics changed during the batch, in first-seen order.
func (c *TopicCache) Dirty() []*domain.Topic {
	var out []*domain.Topic
	for _, id := range c.order {
		if t := c.topics[id]; t != nil && t.Dirty() {
			out = append(out, t)
		}
	}
	return out
}

// Len returns the number of cached entries, absences included.
func (c *TopicCache) Len() int {
	return len(c.topics)
}

func (c *TopicCache) Stats() CacheStats {
	return c.stats
}
