// Package telegram implements the bot surface: it consumes Telegram updates,
// dispatches commands to the domain services, and delivers the confirmation
// and new-block notifications back to chats.
package telegram

import (
	"context"
	"errors"
	"strings"
	"sync"

	"github.com/Jestopher-BTC/LNhelperBot/internal/blocknotify"
	"github.com/Jestopher-BTC/LNhelperBot/internal/liquidity"
	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/logger"
	"github.com/Jestopher-BTC/LNhelperBot/internal/txwatch"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// ErrBotAlreadyStarted is returned when Start is called on a running bot.
var ErrBotAlreadyStarted = errors.New("bot already started")

const (
	defaultConfirmationTarget = 6
	defaultUpdateTimeout      = 60 // long-poll timeout in seconds
)

// API is the slice of the Telegram client the bot depends on.
// *tgbotapi.BotAPI satisfies it.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot dispatches incoming Telegram updates to the domain services.
type Bot struct {
	mu        sync.Mutex
	isStarted bool
	closeFunc func()

	client      API
	txWatch     txwatch.Service
	blockNotify blocknotify.Service
	charts      liquidity.Service

	confirmationTarget int64
	updateTimeout      int
}

// mainMenu is the persistent reply keyboard offered to every chat.
var mainMenu = tgbotapi.NewReplyKeyboard(
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("/liquiditychart"),
		tgbotapi.NewKeyboardButton("/notifyblocks"),
		tgbotapi.NewKeyboardButton("/status"),
	),
	tgbotapi.NewKeyboardButtonRow(
		tgbotapi.NewKeyboardButton("/stopblocks"),
		tgbotapi.NewKeyboardButton("/help"),
	),
)

// Start launches the update consumer loop. It returns ErrBotAlreadyStarted
// when the loop is already running.
func (b *Bot) Start(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.isStarted {
		return ErrBotAlreadyStarted
	}

	ctx, cancel := context.WithCancel(ctx)
	b.closeFunc = cancel

	go b.run(ctx)

	b.isStarted = true
	return nil
}

// Close stops the update consumer loop.
func (b *Bot) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.closeFunc != nil {
		b.closeFunc()
	}
	b.isStarted = false
	b.closeFunc = nil
}

// run consumes updates until ctx is canceled.
func (b *Bot) run(ctx context.Context) {
	cfg := tgbotapi.NewUpdate(0)
	cfg.Timeout = b.updateTimeout

	updates := b.client.GetUpdatesChan(cfg)

	for {
		select {
		case <-ctx.Done():
			b.client.StopReceivingUpdates()
			return
		case update, ok := <-updates:
			if !ok {
				return
			}

			b.handleUpdate(ctx, update)
		}
	}
}

// handleUpdate routes one update. Command() strips any @botname suffix, so
// commands addressed to the bot in group chats dispatch the same way as in
// private chats.
func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.Text == "" {
		return
	}

	chatID := msg.Chat.ID

	if !msg.IsCommand() {
		b.handleTxIDSubmission(ctx, chatID, msg.Text)
		return
	}

	switch msg.Command() {
	case "start":
		b.replyWithMenu(ctx, chatID, welcomeText, true)
	case "help":
		b.replyWithMenu(ctx, chatID, helpText, false)
	case "notifyblocks":
		b.handleNotifyBlocks(ctx, chatID)
	case "stopblocks":
		b.handleStopBlocks(ctx, chatID)
	case "liquiditychart":
		b.handleLiquidityChart(ctx, chatID)
	case "status":
		b.handleStatus(ctx, chatID)
	case "remove":
		b.handleRemove(ctx, chatID, msg.CommandArguments())
	default:
		b.reply(ctx, chatID, msgUnknownCommand)
	}
}

// handleTxIDSubmission treats plain text as a txid to watch.
func (b *Bot) handleTxIDSubmission(ctx context.Context, chatID int64, text string) {
	txid := strings.TrimSpace(text)

	result, err := b.txWatch.Watch(ctx, chatID, txid)
	switch {
	case errors.Is(err, txwatch.ErrInvalidTxID):
		b.reply(ctx, chatID, msgInvalidTxID)
		return
	case err != nil:
		logger.Error(ctx, "watch registration failed", "chat_id", chatID, "error", err)
		b.reply(ctx, chatID, msgInternalError)
		return
	}

	for _, text := range watchReplies(result, b.confirmationTarget) {
		b.replyHTML(ctx, chatID, text)
	}
}

func (b *Bot) handleNotifyBlocks(ctx context.Context, chatID int64) {
	if err := b.blockNotify.Subscribe(ctx, chatID); err != nil {
		logger.Error(ctx, "block subscription failed", "chat_id", chatID, "error", err)
		b.reply(ctx, chatID, msgInternalError)
		return
	}

	b.reply(ctx, chatID, msgBlocksEnabled)
}

func (b *Bot) handleStopBlocks(ctx context.Context, chatID int64) {
	err := b.blockNotify.Unsubscribe(ctx, chatID)
	switch {
	case errors.Is(err, blocknotify.ErrNotSubscribed):
		b.reply(ctx, chatID, msgBlocksNotSubscribed)
	case err != nil:
		logger.Error(ctx, "block unsubscription failed", "chat_id", chatID, "error", err)
		b.reply(ctx, chatID, msgInternalError)
	default:
		b.reply(ctx, chatID, msgBlocksDisabled)
	}
}

// handleLiquidityChart sends a progress message, edits it in place while the
// chart is generated, delivers the PNG, and removes the progress message.
func (b *Bot) handleLiquidityChart(ctx context.Context, chatID int64) {
	progress, err := b.client.Send(tgbotapi.NewMessage(chatID, msgChartGenerating))
	if err != nil {
		logger.Error(ctx, "failed to send chart progress message", "chat_id", chatID, "error", err)
		return
	}

	png, err := b.charts.Chart(ctx, func(stage string) {
		edit := tgbotapi.NewEditMessageText(chatID, progress.MessageID, "⏳ "+stage)
		if _, err := b.client.Send(edit); err != nil {
			logger.Debug(ctx, "chart progress edit failed", "chat_id", chatID, "error", err)
		}
	})
	if err != nil {
		logger.Error(ctx, "chart generation failed", "chat_id", chatID, "error", err)
		b.editTo(ctx, chatID, progress.MessageID, msgChartFailed)
		return
	}

	photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileBytes{Name: "liquidity_chart.png", Bytes: png})
	photo.Caption = chartCaption

	if _, err := b.client.Send(photo); err != nil {
		logger.Error(ctx, "chart delivery failed", "chat_id", chatID, "error", err)
		b.editTo(ctx, chatID, progress.MessageID, msgChartFailed)
		return
	}

	if _, err := b.client.Request(tgbotapi.NewDeleteMessage(chatID, progress.MessageID)); err != nil {
		logger.Debug(ctx, "failed to delete chart progress message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) handleStatus(ctx context.Context, chatID int64) {
	lines, err := b.txWatch.Status(ctx, chatID)
	if err != nil {
		logger.Error(ctx, "status listing failed", "chat_id", chatID, "error", err)
		b.reply(ctx, chatID, msgInternalError)
		return
	}

	b.replyHTML(ctx, chatID, statusReply(lines))
}

func (b *Bot) handleRemove(ctx context.Context, chatID int64, args string) {
	txid := strings.TrimSpace(args)
	if txid == "" {
		b.reply(ctx, chatID, msgRemoveUsage)
		return
	}

	err := b.txWatch.Unwatch(ctx, chatID, txid)
	switch {
	case errors.Is(err, txwatch.ErrInvalidTxID):
		b.reply(ctx, chatID, msgInvalidRemoveTxID)
	case errors.Is(err, txwatch.ErrWatchNotFound):
		b.replyHTML(ctx, chatID, notWatchingReply(txid))
	case err != nil:
		logger.Error(ctx, "watch removal failed", "chat_id", chatID, "error", err)
		b.reply(ctx, chatID, msgInternalError)
	default:
		b.replyHTML(ctx, chatID, removedReply(txid))
	}
}

func (b *Bot) reply(ctx context.Context, chatID int64, text string) {
	b.send(ctx, tgbotapi.NewMessage(chatID, text))
}

func (b *Bot) replyHTML(ctx context.Context, chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	b.send(ctx, msg)
}

func (b *Bot) replyWithMenu(ctx context.Context, chatID int64, text string, html bool) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = mainMenu
	if html {
		msg.ParseMode = tgbotapi.ModeHTML
	}
	b.send(ctx, msg)
}

func (b *Bot) editTo(ctx context.Context, chatID int64, messageID int, text string) {
	b.send(ctx, tgbotapi.NewEditMessageText(chatID, messageID, text))
}

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) {
	if _, err := b.client.Send(c); err != nil {
		logger.Error(ctx, "telegram send failed", "error", err)
	}
}

type config struct {
	confirmationTarget int64
	updateTimeout      int
}

// Option customizes the bot built by NewBot.
type Option func(*config)

// NewBot creates the Telegram command dispatcher. By default replies quote a
// 6-confirmation target and updates long-poll with a 60 second timeout.
func NewBot(client API, tx txwatch.Service, blocks blocknotify.Service, charts liquidity.Service, opts ...Option) *Bot {
	cfg := config{
		confirmationTarget: defaultConfirmationTarget,
		updateTimeout:      defaultUpdateTimeout,
	}
	for _, opt := range opts {
		opt(&cfg)
	}

	return &Bot{
		client:             client,
		txWatch:            tx,
		blockNotify:        blocks,
		charts:             charts,
		confirmationTarget: cfg.confirmationTarget,
		updateTimeout:      cfg.updateTimeout,
	}
}

// WithConfirmationTarget overrides the confirmation count quoted in replies.
// It should match the target the watch service is configured with.
func WithConfirmationTarget(n int64) Option {
	return func(c *config) {
		c.confirmationTarget = n
	}
}

// WithUpdateTimeout overrides the long-poll timeout in seconds.
func WithUpdateTimeout(seconds int) Option {
	return func(c *config) {
		c.updateTimeout = seconds
	}
}
