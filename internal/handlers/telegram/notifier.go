package telegram

import (
	"context"

	"github.com/Jestopher-BTC/LNhelperBot/internal/blocknotify"
	"github.com/Jestopher-BTC/LNhelperBot/internal/txwatch"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Notifier delivers service-initiated messages to chats. It is separate from
// Bot so the domain services can be constructed before the command
// dispatcher.
type Notifier struct {
	client API
}

// Compile-time assertions that Notifier satisfies the notification interfaces.
var (
	_ txwatch.ConfirmationNotifier = (*Notifier)(nil)
	_ blocknotify.BlockNotifier    = (*Notifier)(nil)
)

// NewNotifier creates a notifier on top of the given Telegram client.
func NewNotifier(client API) *Notifier {
	return &Notifier{
		client: client,
	}
}

// NotifyConfirmed implements the txwatch.ConfirmationNotifier interface.
func (n *Notifier) NotifyConfirmed(ctx context.Context, chatID int64, txid string, confirmations int64) error {
	msg := tgbotapi.NewMessage(chatID, confirmedNotification(txid, confirmations))
	msg.ParseMode = tgbotapi.ModeHTML

	_, err := n.client.Send(msg)
	return err
}

// NotifyNewBlock implements the blocknotify.BlockNotifier interface.
func (n *Notifier) NotifyNewBlock(ctx context.Context, chatID int64, height int64) error {
	_, err := n.client.Send(tgbotapi.NewMessage(chatID, newBlockNotification(height)))
	return err
}
