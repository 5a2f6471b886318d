package blocknotify

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/logger"
	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/resilience/retry"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	_ = logger.Init(logger.WithLevel("error"))
}

type chainTipFake struct {
	tipHeight func(ctx context.Context) (int64, error)
}

func (f *chainTipFake) TipHeight(ctx context.Context) (int64, error) {
	if f.tipHeight == nil {
		return 0, nil
	}
	return f.tipHeight(ctx)
}

type subscriptionStorageFake struct {
	addSubscriber    func(ctx context.Context, chatID int64) error
	removeSubscriber func(ctx context.Context, chatID int64) error
	listSubscribers  func(ctx context.Context) ([]int64, error)
}

func (f *subscriptionStorageFake) AddSubscriber(ctx context.Context, chatID int64) error {
	if f.addSubscriber == nil {
		return nil
	}
	return f.addSubscriber(ctx, chatID)
}

func (f *subscriptionStorageFake) RemoveSubscriber(ctx context.Context, chatID int64) error {
	if f.removeSubscriber == nil {
		return nil
	}
	return f.removeSubscriber(ctx, chatID)
}

func (f *subscriptionStorageFake) ListSubscribers(ctx context.Context) ([]int64, error) {
	if f.listSubscribers == nil {
		return nil, nil
	}
	return f.listSubscribers(ctx)
}

// checkpointStorageMemory is an in-memory CheckpointStorage.
type checkpointStorageMemory struct {
	height int64
	set    bool
}

func (m *checkpointStorageMemory) SaveCheckpoint(ctx context.Context, height int64) error {
	m.height = height
	m.set = true
	return nil
}

func (m *checkpointStorageMemory) LoadCheckpoint(ctx context.Context) (int64, error) {
	if !m.set {
		return 0, ErrNoCheckpointFound
	}
	return m.height, nil
}

type blockNotifierFake struct {
	notifyNewBlock func(ctx context.Context, chatID int64, height int64) error
}

func (f *blockNotifierFake) NotifyNewBlock(ctx context.Context, chatID int64, height int64) error {
	if f.notifyNewBlock == nil {
		return nil
	}
	return f.notifyNewBlock(ctx, chatID, height)
}

func fastRetry() retry.Retry {
	return retry.New(retry.WithAttempts(1), retry.WithDelay(time.Millisecond), retry.WithMaxDelay(time.Millisecond))
}

func TestService_Subscriptions(t *testing.T) {
	t.Run("subscribe delegates to storage", func(t *testing.T) {
		added := false
		storage := &subscriptionStorageFake{
			addSubscriber: func(ctx context.Context, chatID int64) error {
				added = true
				assert.Equal(t, int64(42), chatID)
				return nil
			},
		}
		s := New(&chainTipFake{}, storage, &checkpointStorageMemory{}, &blockNotifierFake{}, WithRetry(fastRetry()))

		require.NoError(t, s.Subscribe(t.Context(), 42))
		assert.True(t, added)
	})

	t.Run("unsubscribe reports an unknown chat", func(t *testing.T) {
		storage := &subscriptionStorageFake{
			removeSubscriber: func(ctx context.Context, chatID int64) error {
				return ErrNotSubscribed
			},
		}
		s := New(&chainTipFake{}, storage, &checkpointStorageMemory{}, &blockNotifierFake{}, WithRetry(fastRetry()))

		err := s.Unsubscribe(t.Context(), 42)
		assert.ErrorIs(t, err, ErrNotSubscribed)
	})
}

func TestService_CheckTip(t *testing.T) {
	t.Run("cold start primes the checkpoint without notifying", func(t *testing.T) {
		checkpoint := &checkpointStorageMemory{}
		chain := &chainTipFake{
			tipHeight: func(ctx context.Context) (int64, error) { return 900000, nil },
		}
		notifier := &blockNotifierFake{
			notifyNewBlock: func(ctx context.Context, chatID int64, height int64) error {
				t.Fatal("NotifyNewBlock should not be called on a cold start")
				return nil
			},
		}
		subs := &subscriptionStorageFake{
			listSubscribers: func(ctx context.Context) ([]int64, error) { return []int64{1}, nil },
		}
		s := New(chain, subs, checkpoint, notifier, WithRetry(fastRetry()))

		require.NoError(t, s.checkTip(t.Context()))
		assert.Equal(t, int64(900000), checkpoint.height)
	})

	t.Run("new block fans out to all subscribers and advances the checkpoint", func(t *testing.T) {
		checkpoint := &checkpointStorageMemory{height: 899999, set: true}
		chain := &chainTipFake{
			tipHeight: func(ctx context.Context) (int64, error) { return 900000, nil },
		}

		var notified []int64
		notifier := &blockNotifierFake{
			notifyNewBlock: func(ctx context.Context, chatID int64, height int64) error {
				assert.Equal(t, int64(900000), height)
				notified = append(notified, chatID)
				return nil
			},
		}
		subs := &subscriptionStorageFake{
			listSubscribers: func(ctx context.Context) ([]int64, error) { return []int64{1, 2, 3}, nil },
		}
		s := New(chain, subs, checkpoint, notifier, WithRetry(fastRetry()))

		require.NoError(t, s.checkTip(t.Context()))

		assert.Equal(t, []int64{1, 2, 3}, notified)
		assert.Equal(t, int64(900000), checkpoint.height)
	})

	t.Run("unchanged tip is silent", func(t *testing.T) {
		checkpoint := &checkpointStorageMemory{height: 900000, set: true}
		chain := &chainTipFake{
			tipHeight: func(ctx context.Context) (int64, error) { return 900000, nil },
		}
		notifier := &blockNotifierFake{
			notifyNewBlock: func(ctx context.Context, chatID int64, height int64) error {
				t.Fatal("NotifyNewBlock should not be called")
				return nil
			},
		}
		s := New(chain, &subscriptionStorageFake{}, checkpoint, notifier, WithRetry(fastRetry()))

		require.NoError(t, s.checkTip(t.Context()))
	})

	t.Run("one unreachable chat does not block the rest", func(t *testing.T) {
		checkpoint := &checkpointStorageMemory{height: 899999, set: true}
		chain := &chainTipFake{
			tipHeight: func(ctx context.Context) (int64, error) { return 900000, nil },
		}

		var notified []int64
		notifier := &blockNotifierFake{
			notifyNewBlock: func(ctx context.Context, chatID int64, height int64) error {
				if chatID == 2 {
					return errors.New("blocked by user")
				}
				notified = append(notified, chatID)
				return nil
			},
		}
		subs := &subscriptionStorageFake{
			listSubscribers: func(ctx context.Context) ([]int64, error) { return []int64{1, 2, 3}, nil },
		}
		s := New(chain, subs, checkpoint, notifier, WithRetry(fastRetry()))

		require.NoError(t, s.checkTip(t.Context()))

		assert.Equal(t, []int64{1, 3}, notified)
		assert.Equal(t, int64(900000), checkpoint.height)
	})

	t.Run("tip fetch errors are returned", func(t *testing.T) {
		expectedErr := errors.New("api down")
		chain := &chainTipFake{
			tipHeight: func(ctx context.Context) (int64, error) { return 0, expectedErr },
		}
		s := New(chain, &subscriptionStorageFake{}, &checkpointStorageMemory{}, &blockNotifierFake{}, WithRetry(fastRetry()))

		err := s.checkTip(t.Context())
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestService_StartClose(t *testing.T) {
	t.Run("start twice returns an error", func(t *testing.T) {
		s := New(&chainTipFake{}, &subscriptionStorageFake{}, &checkpointStorageMemory{}, &blockNotifierFake{},
			WithRetry(fastRetry()), WithPollInterval(time.Hour))

		require.NoError(t, s.Start(t.Context()))
		defer s.Close()

		err := s.Start(t.Context())
		assert.ErrorIs(t, err, ErrServiceAlreadyStarted)
	})

	t.Run("close allows a restart", func(t *testing.T) {
		s := New(&chainTipFake{}, &subscriptionStorageFake{}, &checkpointStorageMemory{}, &blockNotifierFake{},
			WithRetry(fastRetry()), WithPollInterval(time.Hour))

		require.NoError(t, s.Start(t.Context()))
		s.Close()

		require.NoError(t, s.Start(t.Context()))
		s.Close()
	})
}
