package txwatch

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
	// Initialize the global logger so service code can log during tests.
	_ = logger.Init(logger.WithLevel("error"))
}

const testTxID = "4a5e1e4baab89f3a32518a88c31bc87f618f76673e2cc77ab2127b7afdeda33b"

// watchStorageFake is a hand-rolled WatchStorage test double. Unset
// functions return zero values.
type watchStorageFake struct {
	registerWatch           func(ctx context.Context, txid string, chatID int64) error
	removeWatch             func(ctx context.Context, txid string, chatID int64) error
	listWatchedTransactions func(ctx context.Context) ([]string, error)
	listWatchers            func(ctx context.Context, txid string) ([]WatchEntry, error)
	markNotified            func(ctx context.Context, txid string, chatID int64) error
	listPendingByChat       func(ctx context.Context, chatID int64) ([]string, error)
	dropTransaction         func(ctx context.Context, txid string) error
}

func (f *watchStorageFake) RegisterWatch(ctx context.Context, txid string, chatID int64) error {
	if f.registerWatch == nil {
		return nil
	}
	return f.registerWatch(ctx, txid, chatID)
}

func (f *watchStorageFake) RemoveWatch(ctx context.Context, txid string, chatID int64) error {
	if f.removeWatch == nil {
		return nil
	}
	return f.removeWatch(ctx, txid, chatID)
}

func (f *watchStorageFake) ListWatchedTransactions(ctx context.Context) ([]string, error) {
	if f.listWatchedTransactions == nil {
		return nil, nil
	}
	return f.listWatchedTransactions(ctx)
}

func (f *watchStorageFake) ListWatchers(ctx context.Context, txid string) ([]WatchEntry, error) {
	if f.listWatchers == nil {
		return nil, nil
	}
	return f.listWatchers(ctx, txid)
}

func (f *watchStorageFake) MarkNotified(ctx context.Context, txid string, chatID int64) error {
	if f.markNotified == nil {
		return nil
	}
	return f.markNotified(ctx, txid, chatID)
}

func (f *watchStorageFake) ListPendingByChat(ctx context.Context, chatID int64) ([]string, error) {
	if f.listPendingByChat == nil {
		return nil, nil
	}
	return f.listPendingByChat(ctx, chatID)
}

func (f *watchStorageFake) DropTransaction(ctx context.Context, txid string) error {
	if f.dropTransaction == nil {
		return nil
	}
	return f.dropTransaction(ctx, txid)
}

// chainDataFake is a hand-rolled ChainData test double.
type chainDataFake struct {
	transactionStatus func(ctx context.Context, txid string) (TxStatus, error)
	tipHeight         func(ctx context.Context) (int64, error)
}

func (f *chainDataFake) TransactionStatus(ctx context.Context, txid string) (TxStatus, error) {
	if f.transactionStatus == nil {
		return TxStatus{}, nil
	}
	return f.transactionStatus(ctx, txid)
}

func (f *chainDataFake) TipHeight(ctx context.Context) (int64, error) {
	if f.tipHeight == nil {
		return 0, nil
	}
	return f.tipHeight(ctx)
}

// notifierFake records confirmation notifications.
type notifierFake struct {
	notifyConfirmed func(ctx context.Context, chatID int64, txid string, confirmations int64) error
}

func (f *notifierFake) NotifyConfirmed(ctx context.Context, chatID int64, txid string, confirmations int64) error {
	if f.notifyConfirmed == nil {
		return nil
	}
	return f.notifyConfirmed(ctx, chatID, txid, confirmations)
}

// fastRetry keeps notification retries from slowing tests down.
func fastRetry() retry.Retry {
	return retry.New(retry.WithAttempts(1), retry.WithDelay(time.Millisecond), retry.WithMaxDelay(time.Millisecond))
}

func chainAt(txHeight, tip int64) *chainDataFake {
	return &chainDataFake{
		transactionStatus: func(ctx context.Context, txid string) (TxStatus, error) {
			return TxStatus{Confirmed: true, BlockHeight: txHeight}, nil
		},
		tipHeight: func(ctx context.Context) (int64, error) {
			return tip, nil
		},
	}
}

func TestService_Watch(t *testing.T) {
	t.Run("rejects a malformed txid", func(t *testing.T) {
		s := New(&watchStorageFake{}, &chainDataFake{}, &notifierFake{}, WithRetry(fastRetry()))

		_, err := s.Watch(t.Context(), 42, "not-a-txid")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrInvalidTxID)
	})

	t.Run("registers a watch below the target and reports the count", func(t *testing.T) {
		registered := false
		storage := &watchStorageFake{
			registerWatch: func(ctx context.Context, txid string, chatID int64) error {
				registered = true
				assert.Equal(t, testTxID, txid)
				assert.Equal(t, int64(42), chatID)
				return nil
			},
		}
		s := New(storage, chainAt(899998, 900000), &notifierFake{}, WithRetry(fastRetry()))

		result, err := s.Watch(t.Context(), 42, testTxID)
		require.NoError(t, err)

		assert.True(t, registered)
		assert.True(t, result.StatusKnown)
		assert.False(t, result.AlreadyConfirmed)
		assert.Equal(t, int64(3), result.Confirmations)
	})

	t.Run("does not register when the target is already met", func(t *testing.T) {
		storage := &watchStorageFake{
			registerWatch: func(ctx context.Context, txid string, chatID int64) error {
				t.Fatal("RegisterWatch should not be called")
				return nil
			},
		}
		s := New(storage, chainAt(899990, 900000), &notifierFake{}, WithRetry(fastRetry()))

		result, err := s.Watch(t.Context(), 42, testTxID)
		require.NoError(t, err)

		assert.True(t, result.AlreadyConfirmed)
		assert.Equal(t, int64(11), result.Confirmations)
	})

	t.Run("still registers when the chain API is down", func(t *testing.T) {
		registered := false
		storage := &watchStorageFake{
			registerWatch: func(ctx context.Context, txid string, chatID int64) error {
				registered = true
				return nil
			},
		}
		chain := &chainDataFake{
			transactionStatus: func(ctx context.Context, txid string) (TxStatus, error) {
				return TxStatus{}, errors.New("api down")
			},
		}
		s := New(storage, chain, &notifierFake{}, WithRetry(fastRetry()))

		result, err := s.Watch(t.Context(), 42, testTxID)
		require.NoError(t, err)

		assert.True(t, registered)
		assert.False(t, result.StatusKnown)
	})

	t.Run("propagates storage failures", func(t *testing.T) {
		expectedErr := errors.New("storage error")
		storage := &watchStorageFake{
			registerWatch: func(ctx context.Context, txid string, chatID int64) error {
				return expectedErr
			},
		}
		s := New(storage, chainAt(900000, 900000), &notifierFake{}, WithRetry(fastRetry()))

		_, err := s.Watch(t.Context(), 42, testTxID)
		require.Error(t, err)
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestService_Unwatch(t *testing.T) {
	t.Run("removes an existing watch", func(t *testing.T) {
		removed := false
		storage := &watchStorageFake{
			removeWatch: func(ctx context.Context, txid string, chatID int64) error {
				removed = true
				return nil
			},
		}
		s := New(storage, &chainDataFake{}, &notifierFake{}, WithRetry(fastRetry()))

		require.NoError(t, s.Unwatch(t.Context(), 42, testTxID))
		assert.True(t, removed)
	})

	t.Run("rejects a malformed txid", func(t *testing.T) {
		s := New(&watchStorageFake{}, &chainDataFake{}, &notifierFake{}, WithRetry(fastRetry()))

		err := s.Unwatch(t.Context(), 42, "abc")
		assert.ErrorIs(t, err, ErrInvalidTxID)
	})

	t.Run("reports a missing watch", func(t *testing.T) {
		storage := &watchStorageFake{
			removeWatch: func(ctx context.Context, txid string, chatID int64) error {
				return ErrWatchNotFound
			},
		}
		s := New(storage, &chainDataFake{}, &notifierFake{}, WithRetry(fastRetry()))

		err := s.Unwatch(t.Context(), 42, testTxID)
		assert.ErrorIs(t, err, ErrWatchNotFound)
	})
}

func TestService_Status(t *testing.T) {
	t.Run("lists pending transactions with live counts", func(t *testing.T) {
		storage := &watchStorageFake{
			listPendingByChat: func(ctx context.Context, chatID int64) ([]string, error) {
				return []string{testTxID}, nil
			},
		}
		s := New(storage, chainAt(899999, 900000), &notifierFake{}, WithRetry(fastRetry()))

		lines, err := s.Status(t.Context(), 42)
		require.NoError(t, err)
		require.Len(t, lines, 1)

		assert.Equal(t, testTxID, lines[0].TxID)
		assert.Equal(t, int64(2), lines[0].Confirmations)
		assert.False(t, lines[0].Failed)
	})

	t.Run("degrades a failed lookup to a failed line", func(t *testing.T) {
		storage := &watchStorageFake{
			listPendingByChat: func(ctx context.Context, chatID int64) ([]string, error) {
				return []string{testTxID}, nil
			},
		}
		chain := &chainDataFake{
			transactionStatus: func(ctx context.Context, txid string) (TxStatus, error) {
				return TxStatus{}, errors.New("api down")
			},
		}
		s := New(storage, chain, &notifierFake{}, WithRetry(fastRetry()))

		lines, err := s.Status(t.Context(), 42)
		require.NoError(t, err)
		require.Len(t, lines, 1)
		assert.True(t, lines[0].Failed)
	})

	t.Run("returns an empty listing for an idle chat", func(t *testing.T) {
		s := New(&watchStorageFake{}, &chainDataFake{}, &notifierFake{}, WithRetry(fastRetry()))

		lines, err := s.Status(t.Context(), 42)
		require.NoError(t, err)
		assert.Empty(t, lines)
	})
}

func TestService_ReconcileTransaction(t *testing.T) {
	t.Run("notifies pending watchers and drops the transaction", func(t *testing.T) {
		var (
			notifiedChats []int64
			marked        []int64
			dropped       bool
		)

		storage := &watchStorageFake{
			listWatchers: func(ctx context.Context, txid string) ([]WatchEntry, error) {
				return []WatchEntry{
					{ChatID: 1, Notified: false},
					{ChatID: 2, Notified: true},
					{ChatID: 3, Notified: false},
				}, nil
			},
			markNotified: func(ctx context.Context, txid string, chatID int64) error {
				marked = append(marked, chatID)
				return nil
			},
			dropTransaction: func(ctx context.Context, txid string) error {
				dropped = true
				return nil
			},
		}
		notifier := &notifierFake{
			notifyConfirmed: func(ctx context.Context, chatID int64, txid string, confirmations int64) error {
				notifiedChats = append(notifiedChats, chatID)
				assert.Equal(t, int64(6), confirmations)
				return nil
			},
		}
		s := New(storage, chainAt(899995, 900000), notifier, WithRetry(fastRetry()))

		require.NoError(t, s.reconcileTransaction(t.Context(), "cycle", testTxID))

		assert.Equal(t, []int64{1, 3}, notifiedChats)
		assert.Equal(t, []int64{1, 3}, marked)
		assert.True(t, dropped)
	})

	t.Run("keeps the transaction when a delivery fails", func(t *testing.T) {
		var (
			marked  []int64
			dropped bool
		)

		storage := &watchStorageFake{
			listWatchers: func(ctx context.Context, txid string) ([]WatchEntry, error) {
				return []WatchEntry{
					{ChatID: 1, Notified: false},
					{ChatID: 2, Notified: false},
				}, nil
			},
			markNotified: func(ctx context.Context, txid string, chatID int64) error {
				marked = append(marked, chatID)
				return nil
			},
			dropTransaction: func(ctx context.Context, txid string) error {
				dropped = true
				return nil
			},
		}
		notifier := &notifierFake{
			notifyConfirmed: func(ctx context.Context, chatID int64, txid string, confirmations int64) error {
				if chatID == 1 {
					return errors.New("telegram unavailable")
				}
				return nil
			},
		}
		s := New(storage, chainAt(899995, 900000), notifier, WithRetry(fastRetry()))

		require.NoError(t, s.reconcileTransaction(t.Context(), "cycle", testTxID))

		// Chat 2 was delivered and flagged; chat 1 stays pending for the
		// next cycle, so the transaction must not be dropped.
		assert.Equal(t, []int64{2}, marked)
		assert.False(t, dropped)
	})

	t.Run("does nothing below the confirmation target", func(t *testing.T) {
		storage := &watchStorageFake{
			listWatchers: func(ctx context.Context, txid string) ([]WatchEntry, error) {
				return []WatchEntry{{ChatID: 1}}, nil
			},
			dropTransaction: func(ctx context.Context, txid string) error {
				t.Fatal("DropTransaction should not be called")
				return nil
			},
		}
		notifier := &notifierFake{
			notifyConfirmed: func(ctx context.Context, chatID int64, txid string, confirmations int64) error {
				t.Fatal("NotifyConfirmed should not be called")
				return nil
			},
		}
		s := New(storage, chainAt(899999, 900000), notifier, WithRetry(fastRetry()))

		require.NoError(t, s.reconcileTransaction(t.Context(), "cycle", testTxID))
	})

	t.Run("drops a transaction whose watchers are all notified without touching the chain", func(t *testing.T) {
		dropped := false
		storage := &watchStorageFake{
			listWatchers: func(ctx context.Context, txid string) ([]WatchEntry, error) {
				return []WatchEntry{{ChatID: 1, Notified: true}}, nil
			},
			dropTransaction: func(ctx context.Context, txid string) error {
				dropped = true
				return nil
			},
		}
		chain := &chainDataFake{
			transactionStatus: func(ctx context.Context, txid string) (TxStatus, error) {
				t.Fatal("TransactionStatus should not be called")
				return TxStatus{}, nil
			},
		}
		s := New(storage, chain, &notifierFake{}, WithRetry(fastRetry()))

		require.NoError(t, s.reconcileTransaction(t.Context(), "cycle", testTxID))
		assert.True(t, dropped)
	})

	t.Run("propagates chain errors so the cycle logs them", func(t *testing.T) {
		storage := &watchStorageFake{
			listWatchers: func(ctx context.Context, txid string) ([]WatchEntry, error) {
				return []WatchEntry{{ChatID: 1}}, nil
			},
		}
		expectedErr := errors.New("api down")
		chain := &chainDataFake{
			transactionStatus: func(ctx context.Context, txid string) (TxStatus, error) {
				return TxStatus{}, expectedErr
			},
		}
		s := New(storage, chain, &notifierFake{}, WithRetry(fastRetry()))

		err := s.reconcileTransaction(t.Context(), "cycle", testTxID)
		assert.ErrorIs(t, err, expectedErr)
	})
}

func TestService_StartClose(t *testing.T) {
	t.Run("start twice returns an error", func(t *testing.T) {
		s := New(&watchStorageFake{}, &chainDataFake{}, &notifierFake{},
			WithRetry(fastRetry()), WithPollInterval(time.Hour))

		require.NoError(t, s.Start(t.Context()))
		defer s.Close()

		err := s.Start(t.Context())
		assert.ErrorIs(t, err, ErrServiceAlreadyStarted)
	})

	t.Run("close allows a restart", func(t *testing.T) {
		s := New(&watchStorageFake{}, &chainDataFake{}, &notifierFake{},
			WithRetry(fastRetry()), WithPollInterval(time.Hour))

		require.NoError(t, s.Start(t.Context()))
		s.Close()

		require.NoError(t, s.Start(t.Context()))
		s.Close()
	})
}
