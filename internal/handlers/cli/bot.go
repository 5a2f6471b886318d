package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/Jestopher-BTC/LNhelperBot/internal/blocknotify"
	"github.com/Jestopher-BTC/LNhelperBot/internal/txwatch"

	"github.com/urfave/cli/v3"
)

// startBotCommand returns a CLI command that runs the bot: the confirmation
// watch loop, the block notification loop, and the Telegram update consumer.
//
// Usage example:
//
//	lnhelperbot start
//
// The process runs indefinitely until it receives an interrupt (SIGINT or SIGTERM).
func startBotCommand(bot Bot, tx txwatch.Service, blocks blocknotify.Service) *cli.Command {
	return &cli.Command{
		Name:        "start",
		Description: "Starts the Telegram bot together with the confirmation and block watch loops.",
		Usage:       "Initializes and runs the bot. Terminates gracefully on Ctrl+C or termination signals.",
		Action: func(ctx context.Context, c *cli.Command) error {
			quit := make(chan os.Signal, 1)
			defer close(quit)

			signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

			if err := tx.Start(ctx); err != nil {
				return err
			}
			defer tx.Close()

			if err := blocks.Start(ctx); err != nil {
				return err
			}
			defer blocks.Close()

			if err := bot.Start(ctx); err != nil {
				return err
			}
			defer bot.Close()

			<-quit
			return nil
		},
	}
}
