package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/Jestopher-BTC/LNhelperBot/internal/txwatch"

	"github.com/redis/go-redis/v9"
)

const (
	// txwatchKeyPrefix is the Redis key namespace used to store confirmation
	// watches. All keys will be prefixed with this value.
	txwatchKeyPrefix = "txwatch"

	// txwatchIndexKey is the set of all transaction ids with at least one
	// watcher. It lets the reconcile loop enumerate work without scanning.
	txwatchIndexKey = txwatchKeyPrefix + ":txids"
)

// txwatchWatchersKey builds the Redis key of the hash holding the watchers
// of a given transaction. Hash fields are chat ids, values are JSON-encoded
// watch entries.
func txwatchWatchersKey(txid string) string {
	return fmt.Sprintf("%s:watchers:%s", txwatchKeyPrefix, txid)
}

// RegisterWatch stores a watch entry for (txid, chatID). Re-registering an
// existing watch is a no-op so a notified entry cannot be reset by
// resubmitting the same txid.
func (c *client) RegisterWatch(ctx context.Context, txid string, chatID int64) error {
	entry := txwatch.WatchEntry{
		ChatID:    chatID,
		CreatedAt: time.Now().UTC(),
	}

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	field := strconv.FormatInt(chatID, 10)

	if err := c.conn.HSetNX(ctx, txwatchWatchersKey(txid), field, data).Err(); err != nil {
		return err
	}

	return c.conn.SAdd(ctx, txwatchIndexKey, txid).Err()
}

// RemoveWatch deletes the watch entry for (txid, chatID). When the last
// watcher is removed the transaction is dropped from the index.
func (c *client) RemoveWatch(ctx context.Context, txid string, chatID int64) error {
	key := txwatchWatchersKey(txid)
	field := strconv.FormatInt(chatID, 10)

	removed, err := c.conn.HDel(ctx, key, field).Result()
	if err != nil {
		return err
	}

	if removed == 0 {
		return txwatch.ErrWatchNotFound
	}

	remaining, err := c.conn.HLen(ctx, key).Result()
	if err != nil {
		return err
	}

	if remaining == 0 {
		return c.dropTransaction(ctx, txid)
	}

	return nil
}

// ListWatchedTransactions returns every transaction id with at least one
// watcher.
func (c *client) ListWatchedTransactions(ctx context.Context) ([]string, error) {
	return c.conn.SMembers(ctx, txwatchIndexKey).Result()
}

// ListWatchers returns all watch entries registered for txid.
func (c *client) ListWatchers(ctx context.Context, txid string) ([]txwatch.WatchEntry, error) {
	values, err := c.conn.HVals(ctx, txwatchWatchersKey(txid)).Result()
	if err != nil {
		return nil, err
	}

	entries := make([]txwatch.WatchEntry, 0, len(values))
	for _, value := range values {
		var entry txwatch.WatchEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			return nil, err
		}

		entries = append(entries, entry)
	}

	return entries, nil
}

// MarkNotified flags the watch entry for (txid, chatID) as notified.
func (c *client) MarkNotified(ctx context.Context, txid string, chatID int64) error {
	key := txwatchWatchersKey(txid)
	field := strconv.FormatInt(chatID, 10)

	value, err := c.conn.HGet(ctx, key, field).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return txwatch.ErrWatchNotFound
		}

		return err
	}

	var entry txwatch.WatchEntry
	if err := json.Unmarshal([]byte(value), &entry); err != nil {
		return err
	}

	entry.Notified = true

	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}

	return c.conn.HSet(ctx, key, field, data).Err()
}

// ListPendingByChat returns the transaction ids the given chat is still
// waiting on, i.e. watches that were not notified yet.
func (c *client) ListPendingByChat(ctx context.Context, chatID int64) ([]string, error) {
	txids, err := c.ListWatchedTransactions(ctx)
	if err != nil {
		return nil, err
	}

	field := strconv.FormatInt(chatID, 10)

	var pending []string
	for _, txid := range txids {
		value, err := c.conn.HGet(ctx, txwatchWatchersKey(txid), field).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}

			return nil, err
		}

		var entry txwatch.WatchEntry
		if err := json.Unmarshal([]byte(value), &entry); err != nil {
			return nil, err
		}

		if !entry.Notified {
			pending = append(pending, txid)
		}
	}

	return pending, nil
}

// DropTransaction removes the transaction and every watch entry attached to
// it.
func (c *client) DropTransaction(ctx context.Context, txid string) error {
	return c.dropTransaction(ctx, txid)
}

func (c *client) dropTransaction(ctx context.Context, txid string) error {
	if err := c.conn.Del(ctx, txwatchWatchersKey(txid)).Err(); err != nil {
		return err
	}

	return c.conn.SRem(ctx, txwatchIndexKey, txid).Err()
}

// Ensure the client satisfies the WatchStorage interface at compile time.
var _ txwatch.WatchStorage = new(client)
