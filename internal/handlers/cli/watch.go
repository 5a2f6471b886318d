package cli

import (
	"context"

	"github.com/Jestopher-BTC/LNhelperBot/internal/pkg/logger"
	"github.com/Jestopher-BTC/LNhelperBot/internal/txwatch"

	"github.com/urfave/cli/v3"
)

// startWatchingTransactionCommand returns a CLI command that registers a
// confirmation watch on behalf of a chat, the same registration a txid
// submission through Telegram performs.
//
// Usage example:
//
//	lnhelperbot watch --chat 123456 --txid 4a5e1e4b...
func startWatchingTransactionCommand(tx txwatch.Service) *cli.Command {
	return &cli.Command{
		Name:        "watch",
		Description: "Register a transaction to be monitored for confirmations on behalf of a chat.",
		Usage:       "Registers a confirmation watch. Must provide both chat and txid.",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "chat",
				Usage:    "Telegram chat ID that receives the notification",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "txid",
				Usage:    "Bitcoin transaction ID to start watching",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var (
				chatID = c.Int64("chat")
				txid   = c.String("txid")
			)

			result, err := tx.Watch(ctx, chatID, txid)
			if err != nil {
				return err
			}

			if result.AlreadyConfirmed {
				logger.Info(ctx, "transaction already confirmed, nothing registered",
					"txid", result.TxID,
					"confirmations", result.Confirmations,
				)
			} else {
				logger.Info(ctx, "watch registered", "txid", result.TxID, "chat_id", chatID)
			}

			return nil
		},
	}
}

// stopWatchingTransactionCommand returns a CLI command that removes a chat's
// confirmation watch.
//
// Usage example:
//
//	lnhelperbot unwatch --chat 123456 --txid 4a5e1e4b...
func stopWatchingTransactionCommand(tx txwatch.Service) *cli.Command {
	return &cli.Command{
		Name:        "unwatch",
		Description: "Remove a chat's confirmation watch on a transaction.",
		Usage:       "Stops watching a transaction. Must provide both chat and txid.",
		Flags: []cli.Flag{
			&cli.Int64Flag{
				Name:     "chat",
				Usage:    "Telegram chat ID whose watch is removed",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "txid",
				Usage:    "Bitcoin transaction ID to stop watching",
				Required: true,
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			var (
				chatID = c.Int64("chat")
				txid   = c.String("txid")
			)

			return tx.Unwatch(ctx, chatID, txid)
		},
	}
}
