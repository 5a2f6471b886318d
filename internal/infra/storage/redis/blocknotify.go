package redis

import (
	"context"
	"errors"
	"strconv"

	"github.com/Jestopher-BTC/LNhelperBot/internal/blocknotify"

	"github.com/redis/go-redis/v9"
)

const (
	// blocknotifySubscribersKey is the set of chat ids subscribed to new-block
	// notifications.
	blocknotifySubscribersKey = "blocknotify:subscribers"

	// blocknotifyCheckpointKey stores the height of the last block that was
	// announced to subscribers.
	blocknotifyCheckpointKey = "blocknotify:checkpoint"
)

// AddSubscriber registers a chat for new-block notifications. Subscribing
// twice is a no-op.
func (c *client) AddSubscriber(ctx context.Context, chatID int64) error {
	return c.conn.SAdd(ctx, blocknotifySubscribersKey, chatID).Err()
}

// RemoveSubscriber drops a chat from the subscriber set.
func (c *client) RemoveSubscriber(ctx context.Context, chatID int64) error {
	removed, err := c.conn.SRem(ctx, blocknotifySubscribersKey, chatID).Result()
	if err != nil {
		return err
	}

	if removed == 0 {
		return blocknotify.ErrNotSubscribed
	}

	return nil
}

// ListSubscribers returns every subscribed chat id.
func (c *client) ListSubscribers(ctx context.Context) ([]int64, error) {
	members, err := c.conn.SMembers(ctx, blocknotifySubscribersKey).Result()
	if err != nil {
		return nil, err
	}

	chatIDs := make([]int64, 0, len(members))
	for _, member := range members {
		chatID, err := strconv.ParseInt(member, 10, 64)
		if err != nil {
			return nil, err
		}

		chatIDs = append(chatIDs, chatID)
	}

	return chatIDs, nil
}

// SaveCheckpoint persists the height of the last announced block.
func (c *client) SaveCheckpoint(ctx context.Context, height int64) error {
	return c.conn.Set(ctx, blocknotifyCheckpointKey, height, 0).Err()
}

// LoadCheckpoint returns the height of the last announced block, or
// blocknotify.ErrNoCheckpointFound when no block was announced yet.
func (c *client) LoadCheckpoint(ctx context.Context) (int64, error) {
	value, err := c.conn.Get(ctx, blocknotifyCheckpointKey).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, blocknotify.ErrNoCheckpointFound
		}

		return 0, err
	}

	return strconv.ParseInt(value, 10, 64)
}

// Ensure the client satisfies the storage interfaces at compile time.
var (
	_ blocknotify.SubscriptionStorage = new(client)
	_ blocknotify.CheckpointStorage   = new(client)
)
