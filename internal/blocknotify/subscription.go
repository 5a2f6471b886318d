package blocknotify

import (
	"context"
	"errors"
)

// ErrNotSubscribed indicates that the chat was not subscribed to block
// notifications.
var ErrNotSubscribed = errors.New("chat not subscribed")

// SubscriptionStorage persists the set of chats that want a message for
// every new block.
type SubscriptionStorage interface {
	// AddSubscriber registers chatID. Adding an existing subscriber is a no-op.
	AddSubscriber(ctx context.Context, chatID int64) error

	// RemoveSubscriber unregisters chatID. It returns ErrNotSubscribed when
	// the chat was not in the set.
	RemoveSubscriber(ctx context.Context, chatID int64) error

	// ListSubscribers returns every subscribed chat.
	ListSubscribers(ctx context.Context) ([]int64, error)
}
