package gateway

import (
	"context"
	"strconv"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

// Cached memoises successful answers for identical requests.
type Cached struct {
	next  Intelligence
	cache *expirable.LRU[string, Answer]
}

func NewCached(next Intelligence, size int, ttl time.Duration) *Cached {
	if size <= 0 {
		size = 64
	}
	return &Cached{next: next, cache: expirable.NewLRU[string, Answer](size, nil, ttl)}
}

func (c *Cached) Ask(ctx context.Context, req Request) (Answer, error) {
	key := strconv.FormatBool(req.Grounded) + "\x00" + req.Prompt
	if ans, ok := c.cache.Get(key); ok {
		return ans, nil
	}
	ans, err := c.next.Ask(ctx, req)
	if err != nil {
		return Answer{}, err
	}
	c.cache.Add(key, ans)
	return ans, nil
}

// Purge drops every cached answer, e.g. after the API key changes.
func (c *Cached) Purge() {
	c.cache.Purge()
}
