package holidays

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/veliry/timeclerk/internal/plugins/entries"
)

// rowCacheTTL bounds staleness for rows mutated outside the services,
// such as direct database edits.
const rowCacheTTL = 30 * time.Minute

// RowCache caches rendered holiday-table rows in Redis, keyed by
// user-month. Building a row walks the user's whole month, so the table
// view for a large team re-renders only the rows that changed.
type RowCache struct {
	redis *redis.Client
}

// NewRowCache creates a row cache on the given Redis client.
func NewRowCache(rdb *redis.Client) *RowCache {
	return &RowCache{redis: rdb}
}

func rowKey(userID string, year, month int) string {
	return fmt.Sprintf("holiday_row:%s:%d-%02d", userID, year, month)
}

// Get returns the cached row markup, or "" on a miss. Cache errors are
// treated as misses; the row is simply rebuilt.
func (c *RowCache) Get(ctx context.Context, userID string, year, month int) string {
	val, err := c.redis.Get(ctx, rowKey(userID, year, month)).Result()
	if err != nil {
		return ""
	}
	return val
}

// Set stores the rendered row markup.
func (c *RowCache) Set(ctx context.Context, userID string, year, month int, markup string) {
	c.redis.Set(ctx, rowKey(userID, year, month), markup, rowCacheTTL)
}

// Invalidate drops a user's cached row for one month. The entries
// service calls this through the RowInvalidator seam whenever an entry
// mutation touches the month.
func (c *RowCache) Invalidate(ctx context.Context, userID string, year, month int) {
	c.redis.Del(ctx, rowKey(userID, year, month))
}

var _ entries.RowInvalidator = (*RowCache)(nil)
