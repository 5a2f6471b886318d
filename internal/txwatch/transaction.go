package txwatch

import (
	"context"
	"errors"
	"regexp"
	"time"
)

var (
	// ErrInvalidTxID indicates that a submitted transaction ID is not a
	// 64-character hex string.
	ErrInvalidTxID = errors.New("invalid transaction id")

	// ErrWatchNotFound indicates that the chat was not watching the given
	// transaction.
	ErrWatchNotFound = errors.New("watch not found")
)

// txIDPattern matches a Bitcoin transaction ID: exactly 64 hex characters.
var txIDPattern = regexp.MustCompile(`^[0-9a-fA-F]{64}$`)

// IsValidTxID reports whether s looks like a Bitcoin transaction ID.
func IsValidTxID(s string) bool {
	return txIDPattern.MatchString(s)
}

// WatchEntry records one chat's interest in one transaction. The Notified
// flag flips to true exactly once, when the confirmation notification has
// been delivered.
type WatchEntry struct {
	ChatID    int64     `json:"chat_id"`
	Notified  bool      `json:"notified"`
	CreatedAt time.Time `json:"created_at"`
}

// WatchStorage persists the watch list. Implementations must survive process
// restarts: registrations and notified flags written here are the source of
// truth for the reconciliation loop.
type WatchStorage interface {
	// RegisterWatch adds chatID as a watcher of txid. Registering the same
	// pair twice is a no-op and must not reset an existing notified flag.
	RegisterWatch(ctx context.Context, txid string, chatID int64) error

	// RemoveWatch deletes chatID's watch on txid. It returns ErrWatchNotFound
	// when the pair was not registered.
	RemoveWatch(ctx context.Context, txid string, chatID int64) error

	// ListWatchedTransactions returns every txid with at least one watcher.
	ListWatchedTransactions(ctx context.Context) ([]string, error)

	// ListWatchers returns all watch entries for txid. A txid with no
	// watchers yields an empty slice, not an error.
	ListWatchers(ctx context.Context, txid string) ([]WatchEntry, error)

	// MarkNotified flips the notified flag for the (txid, chatID) pair.
	MarkNotified(ctx context.Context, txid string, chatID int64) error

	// ListPendingByChat returns the txids that chatID is watching and has
	// not been notified about yet.
	ListPendingByChat(ctx context.Context, chatID int64) ([]string, error)

	// DropTransaction removes txid and all of its watchers.
	DropTransaction(ctx context.Context, txid string) error
}
