// Package blocknotify fans out a message to subscribed chats whenever a new
// Bitcoin block is found. The last announced height is checkpointed so a
// restart does not replay blocks.
package blocknotify

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/logger"
	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/resilience/retry"
)

// ErrServiceAlreadyStarted is returned when Start is called on a running service.
var ErrServiceAlreadyStarted = errors.New("service already started")

const defaultPollInterval = 15 * time.Second

// ChainTip reads the current chain tip height from a block explorer API.
type ChainTip interface {
	TipHeight(ctx context.Context) (int64, error)
}

// BlockNotifier delivers the new-block message to a single chat.
type BlockNotifier interface {
	NotifyNewBlock(ctx context.Context, chatID int64, height int64) error
}

// Service manages block notification subscriptions and runs the tip poll loop.
type Service interface {
	// Subscribe registers chatID for new-block notifications.
	Subscribe(ctx context.Context, chatID int64) error

	// Unsubscribe removes chatID. It returns ErrNotSubscribed when the chat
	// was not registered.
	Unsubscribe(ctx context.Context, chatID int64) error

	// Start launches the tip poll loop. It returns ErrServiceAlreadyStarted
	// when the loop is already running.
	Start(ctx context.Context) error

	// Close stops the poll loop.
	Close()
}

type service struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc func()

	chainTip          ChainTip
	subscriptions     SubscriptionStorage
	checkpointStorage CheckpointStorage
	notifier          BlockNotifier

	retry        retry.Retry
	pollInterval time.Duration
}

var _ Service = (*service)(nil)

// Subscribe implements the Service interface.
func (s *service) Subscribe(ctx context.Context, chatID int64) error {
	return s.subscriptions.AddSubscriber(ctx, chatID)
}

// Unsubscribe implements the Service interface.
func (s *service) Unsubscribe(ctx context.Context, chatID int64) error {
	return s.subscriptions.RemoveSubscriber(ctx, chatID)
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

// run drives the tip poll loop until ctx is canceled.
func (s *service) run(ctx context.Context) {
	ticker := time.NewTicker(s.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := s.checkTip(ctx); err != nil {
				logger.Error(ctx, "block tip check failed", "error", err)
			}
		}
	}
}

// checkTip performs one poll: it compares the live tip against the
// checkpoint, fans out notifications when the chain advanced, and saves the
// new checkpoint. The very first observation only primes the checkpoint.
func (s *service) checkTip(ctx context.Context) error {
	tip, err := s.chainTip.TipHeight(ctx)
	if err != nil {
		return err
	}

	last, err := s.checkpointStorage.LoadCheckpoint(ctx)
	if err != nil {
		if !errors.Is(err, ErrNoCheckpointFound) {
			return err
		}

		// Cold start: remember the current tip, announce nothing.
		return s.checkpointStorage.SaveCheckpoint(ctx, tip)
	}

	if tip <= last {
		return nil
	}

	s.fanOut(ctx, tip)

	return s.checkpointStorage.SaveCheckpoint(ctx, tip)
}

// fanOut notifies every subscriber of the new tip height. Per-chat failures
// are logged and skipped; one unreachable chat never blocks the rest.
func (s *service) fanOut(ctx context.Context, height int64) {
	subscribers, err := s.subscriptions.ListSubscribers(ctx)
	if err != nil {
		logger.Error(ctx, "failed to list block subscribers", "error", err)
		return
	}

	for _, chatID := range subscribers {
		err := s.retry.Execute(ctx, func() error {
			return s.notifier.NotifyNewBlock(ctx, chatID, height)
		})
		if err != nil {
			logger.Error(ctx, "failed to deliver block notification",
				"chat_id", chatID,
				"height", height,
				"error", err,
			)
		}
	}
}

type config struct {
	retry        retry.Retry
	pollInterval time.Duration
}

// Option customizes the service built by New.
type Option func(*config)

// New creates the blocknotify service. By default it polls the tip every
// 15 seconds and retries notification sends with the default retry policy.
func New(ct ChainTip, ss SubscriptionStorage, cs CheckpointStorage, n BlockNotifier, opts ...Option) *service {
	cfg := config{
		retry:        retry.New(),
		pollInterval: defaultPollInterval,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &service{
		chainTip:          ct,
		subscriptions:     ss,
		checkpointStorage: cs,
		notifier:          n,
		retry:             cfg.retry,
		pollInterval:      cfg.pollInterval,
	}
}

// WithRetry overrides the retry policy used for notification delivery.
func WithRetry(r retry.Retry) Option {
	return func(c *config) {
		c.retry = r
	}
}

// WithPollInterval overrides how often the chain tip is polled.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) {
		c.pollInterval = d
	}
}
