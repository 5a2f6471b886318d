package redis

import (
	"context"
	"errors"
	"time"

	"github.com/Jestopher-BTC/LNhelperBot/internal/liquidity"

	"github.com/redis/go-redis/v9"
)

// liquidityChartKey stores the most recently rendered purchase-power chart
// as a PNG blob. The key carries a TTL so stale charts expire on their own.
const liquidityChartKey = "liquidity:chart"

// SaveChart caches the rendered chart for ttl.
func (c *client) SaveChart(ctx context.Context, png []byte, ttl time.Duration) error {
	return c.conn.Set(ctx, liquidityChartKey, png, ttl).Err()
}

// LoadChart returns the cached chart, or liquidity.ErrNoCachedChart when the
// cache is empty or expired.
func (c *client) LoadChart(ctx context.Context) ([]byte, error) {
	data, err := c.conn.Get(ctx, liquidityChartKey).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, liquidity.ErrNoCachedChart
		}

		return nil, err
	}

	return data, nil
}

// Ensure the client satisfies the ChartCache interface at compile time.
var _ liquidity.ChartCache = new(client)
