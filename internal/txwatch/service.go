// Package txwatch implements the confirmation watch list: chats submit
// Bitcoin transaction IDs, a background loop reconciles the list against
// chain data, and every watcher is notified exactly once when its
// transaction reaches the confirmation target.
package txwatch

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/logger"
	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/resilience/retry"

	"github.com/google/uuid"
)

// ErrServiceAlreadyStarted is returned when Start is called on a running service.
var ErrServiceAlreadyStarted = errors.New("service already started")

const (
	defaultConfirmationTarget = 6
	defaultPollInterval       = 15 * time.Second
)

// WatchResult describes the outcome of a watch registration, so the caller
// can phrase its reply to the user.
type WatchResult struct {
	TxID             string
	Confirmations    int64 // current count; only meaningful when StatusKnown
	StatusKnown      bool  // false when the chain API could not be reached
	AlreadyConfirmed bool  // the tx already met the target; nothing was registered
}

// TxStatusLine is one row of a chat's status listing.
type TxStatusLine struct {
	TxID          string
	Confirmations int64
	Failed        bool // the live confirmation lookup failed for this txid
}

// Service manages the confirmation watch list and runs the reconciliation loop.
type Service interface {
	// Watch validates txid, checks its current confirmation count, and
	// registers chatID as a watcher unless the target is already met.
	Watch(ctx context.Context, chatID int64, txid string) (WatchResult, error)

	// Unwatch removes chatID's watch on txid. It returns ErrInvalidTxID for
	// malformed input and ErrWatchNotFound when nothing was registered.
	Unwatch(ctx context.Context, chatID int64, txid string) error

	// Status lists the chat's pending transactions with live confirmation
	// counts. Lookup failures degrade to a Failed line instead of aborting.
	Status(ctx context.Context, chatID int64) ([]TxStatusLine, error)

	// Start launches the background reconciliation loop. It returns
	// ErrServiceAlreadyStarted when the loop is already running.
	Start(ctx context.Context) error

	// Close stops the reconciliation loop.
	Close()
}

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc func()

	watchStorage WatchStorage
	chainData    ChainData
	notifier     ConfirmationNotifier

	retry              retry.Retry
	confirmationTarget int64
	pollInterval       time.Duration
}

var _ Service = (*service)(nil)

// Watch implements the Service interface.
func (s *service) Watch(ctx context.Context, chatID int64, txid string) (WatchResult, error) {
	if !IsValidTxID(txid) {
		return WatchResult{}, ErrInvalidTxID
	}

	result := WatchResult{TxID: txid}

	confs, err := s.fetchConfirmations(ctx, txid)
	if err != nil {
		logger.Warn(ctx, "confirmation check failed at submission", "txid", txid, "error", err)
	} else {
		result.StatusKnown = true
		result.Confirmations = confs

		if confs >= s.confirmationTarget {
			result.AlreadyConfirmed = true
			return result, nil
		}
	}

	return result, s.watchStorage.RegisterWatch(ctx, txid, chatID)
}

// Unwatch implements the Service interface.
func (s *service) Unwatch(ctx context.Context, chatID int64, txid string) error {
	if !IsValidTxID(txid) {
		return ErrInvalidTxID
	}

	return s.watchStorage.RemoveWatch(ctx, txid, chatID)
}

// Status implements the Service interface.
func (s *service) Status(ctx context.Context, chatID int64) ([]TxStatusLine, error) {
	txids, err := s.watchStorage.ListPendingByChat(ctx, chatID)
	if err != nil {
		return nil, err
	}

	lines := make([]TxStatusLine, 0, len(txids))
	for _, txid := range txids {
		line := TxStatusLine{TxID: txid}

		confs, err := s.fetchConfirmations(ctx, txid)
		if err != nil {
			logger.Warn(ctx, "confirmation lookup failed", "txid", txid, "error", err)
			line.Failed = true
		} else {
			line.Confirmations = confs
		}

		lines = append(lines, line)
	}

	return lines, nil
}

// Start implements the Service interface.
func (s *service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.isStarted {
		return ErrServiceAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	s.closeFunc = cancel

	go s.run(ctx)

	s.isStarted = true
	return nil
}

// Close implements the Service interface.
func (s *service) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closeFunc != nil {
		s.closeFunc()
	}
	s.isStarted = false
	s.closeFunc = nil
}

// run drives the reconciliation loop until ctx is canceled.
func (s *service) run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.reconcile(ctx)
		}
	}
}

// reconcile performs one pass over the watch list: fully-notified
// transactions are dropped, confirmation counts are refreshed, and watchers
// whose target is met are notified and flagged. Failures are logged and left
// for the next cycle; one bad transaction never blocks the rest.
func (s *service) reconcile(ctx context.Context) {
	cycleID := uuid.Must(uuid.NewV7()).String()

	txids, err := s.watchStorage.ListWatchedTransactions(ctx)
	if err != nil {
		logger.Error(ctx, "failed to list watched transactions", "cycle_id", cycleID, "error", err)
		return
	}

	for _, txid := range txids {
		if err := s.reconcileTransaction(ctx, cycleID, txid); err != nil {
			logger.Error(ctx, "failed to reconcile transaction",
				"cycle_id", cycleID,
				"txid", txid,
				"error", err,
			)
		}
	}
}

// reconcileTransaction refreshes one transaction and notifies its pending
// watchers when the confirmation target is met.
func (s *service) reconcileTransaction(ctx context.Context, cycleID, txid string) error {
	watchers, err := s.watchStorage.ListWatchers(ctx, txid)
	if err != nil {
		return err
	}

	if allNotified(watchers) {
		return s.watchStorage.DropTransaction(ctx, txid)
	}

	confs, err := s.fetchConfirmations(ctx, txid)
	if err != nil {
		return err
	}

	if confs < s.confirmationTarget {
		return nil
	}

	remaining := false
	for _, watcher := range watchers {
		if watcher.Notified {
			continue
		}

		err := s.retry.Execute(ctx, func() error {
			return s.notifier.NotifyConfirmed(ctx, watcher.ChatID, txid, confs)
		})
		if err != nil {
			// Leave the flag unset so the next cycle retries the delivery.
			logger.Error(ctx, "failed to deliver confirmation notification",
				"cycle_id", cycleID,
				"txid", txid,
				"chat_id", watcher.ChatID,
				"error", err,
			)
			remaining = true
			continue
		}

		if err := s.watchStorage.MarkNotified(ctx, txid, watcher.ChatID); err != nil {
			logger.Error(ctx, "failed to persist notified flag",
				"cycle_id", cycleID,
				"txid", txid,
				"chat_id", watcher.ChatID,
				"error", err,
			)
			remaining = true
		}
	}

	if remaining {
		return nil
	}

	return s.watchStorage.DropTransaction(ctx, txid)
}

// allNotified reports whether every watcher has already been notified.
// An empty watcher list counts as fully notified.
func allNotified(watchers []WatchEntry) bool {
	for _, w := range watchers {
		if !w.Notified {
			return false
		}
	}

	return true
}

type config struct {
	retry              retry.Retry
	confirmationTarget int64
	pollInterval       time.Duration
}

// Option customizes the service built by New.
type Option func(*config)

// New creates the txwatch service. By default it targets 6 confirmations,
// polls every 15 seconds, and retries notification sends with the default
// retry policy.
func New(ws WatchStorage, cd ChainData, n ConfirmationNotifier, opts ...Option) *service {
	cfg := config{
		retry:              retry.New(),
		confirmationTarget: defaultConfirmationTarget,
		pollInterval:       defaultPollInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		watchStorage:       ws,
		chainData:          cd,
		notifier:           n,
		retry:              cfg.retry,
		confirmationTarget: cfg.confirmationTarget,
		pollInterval:       cfg.pollInterval,
	}
}

// WithRetry overrides the retry policy used for notification delivery.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithConfirmationTarget overrides the confirmation count that triggers the
// notification.
func WithConfirmationTarget(n int64) Option {
	return func(c *config) {
		c.confirmationTarget = n
	}
}

// WithPollInterval overrides how often the reconciliation loop runs.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}
