package txwatch

import "context"

// ConfirmationNotifier delivers the one-time confirmation notification to a
// chat. The reconciliation loop only marks a watch as notified after this
// returns nil, so a failed delivery is retried on the next cycle.
type ConfirmationNotifier interface {
	NotifyConfirmed(ctx context.Context, chatID int64, txid string, confirmations int64) error
}
